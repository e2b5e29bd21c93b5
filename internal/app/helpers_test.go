package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/logx"
	testlog "food-delivery/internal/testutil"
)

func withStubNewPool(t *testing.T, stub func(context.Context, string) (*pgxpool.Pool, error)) {
	t.Helper()
	orig := newPool
	newPool = stub
	t.Cleanup(func() { newPool = orig })
}

func TestConnectDbWithRetry_SuccessFirstAttempt(t *testing.T) {
	ctx := context.Background()
	dsn := "postgres://stub"

	wantPool := &pgxpool.Pool{}
	calls := 0

	withStubNewPool(t, func(_ context.Context, got string) (*pgxpool.Pool, error) {
		require.Equal(t, dsn, got)
		calls++
		return wantPool, nil
	})

	pool, err := connectDbWithRetry(ctx, logx.Nop(), dsn, 3, 10*time.Millisecond)
	require.NoError(t, err)
	require.Same(t, wantPool, pool)
	require.Equal(t, 1, calls)
}

func TestConnectDbWithRetry_SucceedsAfterFailures(t *testing.T) {
	rec := testlog.New()
	calls := 0

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("connection refused")
		}
		return &pgxpool.Pool{}, nil
	})

	pool, err := connectDbWithRetry(context.Background(), rec.Logger(), "postgres://stub", 5, time.Millisecond)
	require.NoError(t, err)
	require.NotNil(t, pool)
	require.Equal(t, 3, calls)
	require.Equal(t, 2, rec.Count("db connect failed"))
	attempt, ok := rec.Field("db connected", "attempt")
	require.True(t, ok)
	require.Equal(t, 3, attempt)
}

func TestConnectDbWithRetry_ExhaustsRetries(t *testing.T) {
	sentinelErr := errors.New("db boom")
	calls := 0

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		calls++
		return nil, sentinelErr
	})

	pool, err := connectDbWithRetry(context.Background(), logx.Nop(), "postgres://stub", 3, 0)
	require.Error(t, err)
	require.Nil(t, pool)
	require.Equal(t, 3, calls)
	require.ErrorIs(t, err, sentinelErr)
}

func TestConnectDbWithRetry_ContextCanceledBetweenRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	withStubNewPool(t, func(context.Context, string) (*pgxpool.Pool, error) {
		return nil, errors.New("db boom")
	})

	pool, err := connectDbWithRetry(ctx, logx.Nop(), "postgres://stub", 3, 50*time.Millisecond)
	require.Error(t, err)
	require.Nil(t, pool)
	require.ErrorIs(t, err, context.Canceled)
}

package geo

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/domain"
)

func newStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, DefaultTTL), mr
}

var pickup = domain.Point{Lat: 40.7128, Lon: -74.0060}

func TestRedisStore_QueryNearby_SortedAndBounded(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, 3, domain.Point{Lat: 40.7306, Lon: -74.0060})) // ~2 km
	require.NoError(t, s.Update(ctx, 1, domain.Point{Lat: 40.7138, Lon: -74.0060})) // ~0.1 km
	require.NoError(t, s.Update(ctx, 2, domain.Point{Lat: 40.7580, Lon: -73.9855})) // ~5.3 km
	require.NoError(t, s.Update(ctx, 9, domain.Point{Lat: 41.0000, Lon: -74.0060})) // ~32 km

	got, err := s.QueryNearby(ctx, pickup, 10, 10)
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []int64{1, 3, 2}, []int64{got[0].CourierID, got[1].CourierID, got[2].CourierID})
	for i := 1; i < len(got); i++ {
		require.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
	}

	limited, err := s.QueryNearby(ctx, pickup, 10, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
}

func TestRedisStore_DistanceAgreesWithHaversine(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()
	p := domain.Point{Lat: 40.7306, Lon: -73.9352}
	require.NoError(t, s.Update(ctx, 5, p))

	got, err := s.QueryNearby(ctx, pickup, 10, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)

	want := domain.HaversineKm(got[0].Point, pickup)
	require.InDelta(t, want, got[0].DistanceKm, want*0.005+0.005)
}

func TestRedisStore_UpdateIsLastWriteWins(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, 1, domain.Point{Lat: 41.5, Lon: -74.0}))
	require.NoError(t, s.Update(ctx, 1, domain.Point{Lat: 40.7130, Lon: -74.0060}))

	got, err := s.QueryNearby(ctx, pickup, 10, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Less(t, got[0].DistanceKm, 0.1)
}

func TestRedisStore_Remove(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Update(ctx, 1, pickup))
	require.NoError(t, s.Remove(ctx, 1))
	require.NoError(t, s.Remove(ctx, 404))

	got, err := s.QueryNearby(ctx, pickup, 10, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedisStore_EmptyStore(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	got, err := s.QueryNearby(context.Background(), pickup, 10, 10)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestRedisStore_PrunesStaleRecords(t *testing.T) {
	t.Parallel()

	s, _ := newStore(t)
	ctx := context.Background()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	require.NoError(t, s.Update(ctx, 1, pickup))

	s.now = func() time.Time { return base.Add(23 * time.Hour) }
	require.NoError(t, s.Update(ctx, 2, pickup))

	s.now = func() time.Time { return base.Add(25 * time.Hour) }
	got, err := s.QueryNearby(ctx, pickup, 10, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, int64(2), got[0].CourierID)
}

func TestRedisStore_SetsKeyTTL(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	require.NoError(t, s.Update(context.Background(), 1, pickup))
	require.Equal(t, DefaultTTL, mr.TTL(DefaultKey))
}

func TestRedisStore_Unavailable(t *testing.T) {
	t.Parallel()

	s, mr := newStore(t)
	mr.Close()

	_, err := s.QueryNearby(context.Background(), pickup, 10, 10)
	require.Error(t, err)
	require.Error(t, s.Update(context.Background(), 1, pickup))
}

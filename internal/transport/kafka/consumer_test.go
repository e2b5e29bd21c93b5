package kafka

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/apperr"
	testlog "food-delivery/internal/testutil"
)

func noop(context.Context, Message) error { return nil }

func TestNewConsumer_SkipsWhenNoKafkaConfig(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	routes := Routes{"t": noop}

	got, err := NewConsumer(rec.Logger(), ConsumerConfig{GroupID: "gid"}, routes, nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = NewConsumer(rec.Logger(), ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "  "}, routes, nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	got, err = NewConsumer(rec.Logger(), ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "gid"}, nil, nil, nil)
	require.NoError(t, err)
	require.Nil(t, got)

	// nil consumer is safe to run and close
	require.NoError(t, got.Run(context.Background()))
	require.NoError(t, got.Close())
}

func TestNewConsumer_ReturnsErrorWhenSaramaFails(t *testing.T) {
	orig := newConsumerGroup
	t.Cleanup(func() { newConsumerGroup = orig })

	sentinel := errors.New("boom")
	newConsumerGroup = func(_ []string, _ string, _ *sarama.Config) (sarama.ConsumerGroup, error) {
		return nil, sentinel
	}

	rec := testlog.New()
	got, err := NewConsumer(rec.Logger(), ConsumerConfig{Brokers: []string{"b:9092"}, GroupID: "gid"}, Routes{"t": noop}, nil, nil)
	require.ErrorIs(t, err, sentinel)
	require.Nil(t, got)
}

func TestNewConsumer_AppliesConfig(t *testing.T) {
	orig := newConsumerGroup
	t.Cleanup(func() { newConsumerGroup = orig })

	var captured *sarama.Config
	newConsumerGroup = func(_ []string, _ string, cfg *sarama.Config) (sarama.ConsumerGroup, error) {
		captured = cfg
		return nil, nil
	}

	rec := testlog.New()
	got, err := NewConsumer(rec.Logger(), ConsumerConfig{
		Brokers:        []string{"b:9092"},
		GroupID:        "gid",
		MaxPollRecords: 10,
	}, Routes{"b.topic": noop, "a.topic": noop}, nil, nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a.topic", "b.topic"}, got.Topics())
	require.Equal(t, sarama.OffsetOldest, captured.Consumer.Offsets.Initial)
	require.Equal(t, 10, captured.ChannelBufferSize)
	require.Equal(t, 2*time.Second, got.retry.Interval)
}

func TestIsPermanent(t *testing.T) {
	t.Parallel()

	require.True(t, IsPermanent(Permanent(errors.New("x"))))
	require.True(t, IsPermanent(apperr.InvalidState))
	require.True(t, IsPermanent(apperr.NotFound))
	require.False(t, IsPermanent(errors.New("timeout")))
	require.False(t, IsPermanent(apperr.Unavailable))
}

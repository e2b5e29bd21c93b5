package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/events"
	"food-delivery/internal/metrics"
	testlog "food-delivery/internal/testutil"
)

func producerConfig() *sarama.Config {
	cfg := mocks.NewTestConfig()
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	return cfg
}

func TestProducer_Publish_KeysByAggregate(t *testing.T) {
	t.Parallel()

	ap := mocks.NewAsyncProducer(t, producerConfig())
	ap.ExpectInputWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		key, err := m.Key.Encode()
		if err != nil {
			return err
		}
		if string(key) != "42" {
			return errors.New("unexpected key " + string(key))
		}
		val, err := m.Value.Encode()
		if err != nil {
			return err
		}
		var ev events.DeliveryAssigned
		if err := json.Unmarshal(val, &ev); err != nil {
			return err
		}
		if ev.EventType != events.TypeDeliveryAssigned || ev.CourierID != 7 {
			return errors.New("unexpected payload")
		}
		return nil
	})

	rec := testlog.New()
	outcomes := metrics.NewPublishedEventsTotal()
	p := newProducer(ap, rec.Logger(), outcomes)

	p.Publish(context.Background(), "delivery.assigned", events.DeliveryAssigned{
		Meta:      events.NewMeta(events.TypeDeliveryAssigned, time.Now()),
		OrderID:   42,
		CourierID: 7,
	})
	require.NoError(t, p.Close())

	require.True(t, rec.Has("event published"))
	require.Equal(t, 1.0, testutil.ToFloat64(outcomes.WithLabelValues("delivery.assigned", "published")))
}

func TestProducer_Publish_FailureIsLoggedNotReturned(t *testing.T) {
	t.Parallel()

	ap := mocks.NewAsyncProducer(t, producerConfig())
	ap.ExpectInputAndFail(errors.New("leader not available"))

	rec := testlog.New()
	outcomes := metrics.NewPublishedEventsTotal()
	p := newProducer(ap, rec.Logger(), outcomes)

	p.Publish(context.Background(), "payment.failed", events.PaymentFailed{
		Meta:    events.NewMeta(events.TypePaymentFailed, time.Now()),
		OrderID: 1,
	})
	require.NoError(t, p.Close())

	require.True(t, rec.Has("event publish failed"))
	require.Equal(t, 1.0, testutil.ToFloat64(outcomes.WithLabelValues("payment.failed", "failed")))
}

func TestProducer_NilIsNoop(t *testing.T) {
	t.Parallel()

	var p *Producer
	p.Publish(context.Background(), "t", events.OrderCreated{})
	require.NoError(t, p.Close())
}

func TestNewProducer_NoBrokers(t *testing.T) {
	t.Parallel()

	p, err := NewProducer(testlog.New().Logger(), nil, nil)
	require.NoError(t, err)
	require.Nil(t, p)
}

func TestProducer_Publish_CancelledContextStillEnqueuesWhenBufferHasRoom(t *testing.T) {
	t.Parallel()

	const n = 20
	ap := mocks.NewAsyncProducer(t, producerConfig())
	for i := 0; i < n; i++ {
		ap.ExpectInputAndSucceed()
	}

	rec := testlog.New()
	outcomes := metrics.NewPublishedEventsTotal()
	p := newProducer(ap, rec.Logger(), outcomes)

	// the request deadline has passed, but the state change is committed
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < n; i++ {
		p.Publish(ctx, "delivery.events", events.DeliveryDelivered{
			Meta:    events.NewMeta(events.TypeDeliveryDelivered, time.Now()),
			OrderID: int64(i),
		})
	}
	require.NoError(t, p.Close())

	require.False(t, rec.Has("event publish dropped"))
	require.Equal(t, float64(n), testutil.ToFloat64(outcomes.WithLabelValues("delivery.events", "published")))
}

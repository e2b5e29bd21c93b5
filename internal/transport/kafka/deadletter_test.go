package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/IBM/sarama"
	"github.com/IBM/sarama/mocks"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/events"
)

func header(m *sarama.ProducerMessage, key string) string {
	for _, h := range m.Headers {
		if string(h.Key) == key {
			return string(h.Value)
		}
	}
	return ""
}

func TestDeadLetterWriter_Send(t *testing.T) {
	t.Parallel()

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageWithMessageCheckerFunctionAndSucceed(func(m *sarama.ProducerMessage) error {
		if m.Topic != "payment.failed.dlq" {
			return errors.New("wrong topic " + m.Topic)
		}
		if header(m, "dlq_original_topic") != "payment.failed" {
			return errors.New("missing original topic")
		}
		if header(m, "dlq_attempts") != "3" {
			return errors.New("missing attempts")
		}
		if header(m, "dlq_error") != "invalid order status transition" {
			return errors.New("missing error")
		}
		if header(m, "event_type") != "PAYMENT_FAILED" {
			return errors.New("original headers not copied")
		}
		return nil
	})

	w := newDeadLetterWriter(sp, events.DefaultTopics())
	msg := &sarama.ConsumerMessage{
		Topic:   "payment.failed",
		Key:     []byte("42"),
		Value:   []byte(`{}`),
		Offset:  17,
		Headers: []*sarama.RecordHeader{{Key: []byte("event_type"), Value: []byte("PAYMENT_FAILED")}},
	}

	err := w.Send(context.Background(), msg, errors.New("invalid order status transition"), 3)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func TestDeadLetterWriter_SendError(t *testing.T) {
	t.Parallel()

	sp := mocks.NewSyncProducer(t, nil)
	sp.ExpectSendMessageAndFail(sarama.ErrOutOfBrokers)

	w := newDeadLetterWriter(sp, events.DefaultTopics())
	err := w.Send(context.Background(), &sarama.ConsumerMessage{Topic: "t"}, nil, 1)
	require.ErrorIs(t, err, sarama.ErrOutOfBrokers)
	require.NoError(t, w.Close())
}

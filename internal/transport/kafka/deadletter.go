package kafka

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/IBM/sarama"

	"food-delivery/internal/events"
)

// DeadLetterWriter copies failed messages to "<topic><suffix>" synchronously,
// so the original offset is only committed once the copy is durable.
type DeadLetterWriter struct {
	producer sarama.SyncProducer
	topics   events.Topics
	now      func() time.Time
}

var newSyncProducer = sarama.NewSyncProducer

// NewDeadLetterWriter connects a sync producer. It returns nil when no brokers are configured.
func NewDeadLetterWriter(brokers []string, topics events.Topics) (*DeadLetterWriter, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Return.Successes = true
	cfg.Producer.Timeout = 5 * time.Second

	sp, err := newSyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newDeadLetterWriter(sp, topics), nil
}

func newDeadLetterWriter(sp sarama.SyncProducer, topics events.Topics) *DeadLetterWriter {
	return &DeadLetterWriter{
		producer: sp,
		topics:   topics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send writes msg to its dead-letter topic with the failure attached as headers.
func (w *DeadLetterWriter) Send(_ context.Context, msg *sarama.ConsumerMessage, cause error, attempts int) error {
	headers := make([]sarama.RecordHeader, 0, len(msg.Headers)+6)
	for _, h := range msg.Headers {
		if h != nil {
			headers = append(headers, *h)
		}
	}
	reason := "unknown"
	if cause != nil {
		reason = cause.Error()
	}
	headers = append(headers,
		sarama.RecordHeader{Key: []byte("dlq_original_topic"), Value: []byte(msg.Topic)},
		sarama.RecordHeader{Key: []byte("dlq_original_partition"), Value: []byte(strconv.Itoa(int(msg.Partition)))},
		sarama.RecordHeader{Key: []byte("dlq_original_offset"), Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		sarama.RecordHeader{Key: []byte("dlq_error"), Value: []byte(reason)},
		sarama.RecordHeader{Key: []byte("dlq_attempts"), Value: []byte(strconv.Itoa(attempts))},
		sarama.RecordHeader{Key: []byte("dlq_failed_at"), Value: []byte(w.now().Format(time.RFC3339Nano))},
	)

	out := &sarama.ProducerMessage{
		Topic:   w.topics.DeadLetter(msg.Topic),
		Value:   sarama.ByteEncoder(msg.Value),
		Headers: headers,
	}
	if len(msg.Key) > 0 {
		out.Key = sarama.ByteEncoder(msg.Key)
	}
	if _, _, err := w.producer.SendMessage(out); err != nil {
		return fmt.Errorf("dead letter %s: %w", out.Topic, err)
	}
	return nil
}

// Close closes the underlying producer.
func (w *DeadLetterWriter) Close() error {
	if w == nil {
		return nil
	}
	return w.producer.Close()
}

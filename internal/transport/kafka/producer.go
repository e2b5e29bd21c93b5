package kafka

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"

	"food-delivery/internal/events"
	"food-delivery/internal/logx"
)

// Publisher sends events without waiting for the broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, ev events.Event)
}

// NopPublisher drops events. Used when no brokers are configured.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, string, events.Event) {}

const defaultEnqueueTimeout = 200 * time.Millisecond

type publishMeta struct {
	eventID   string
	eventType string
	key       string
}

// Producer publishes events through a sarama AsyncProducer. Broker
// confirmations are logged from background goroutines.
type Producer struct {
	producer       sarama.AsyncProducer
	logger         logx.Logger
	outcomes       *prometheus.CounterVec
	enqueueTimeout time.Duration
	wg             sync.WaitGroup
}

var newAsyncProducer = sarama.NewAsyncProducer

// NewProducer connects an async producer. It returns nil when no brokers are configured.
func NewProducer(logger logx.Logger, brokers []string, outcomes *prometheus.CounterVec) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	cfg := sarama.NewConfig()
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Partitioner = sarama.NewHashPartitioner
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Retry.Max = 5
	cfg.Producer.Timeout = 5 * time.Second
	// one request in flight per broker keeps retried batches in key order
	cfg.Net.MaxOpenRequests = 1

	ap, err := newAsyncProducer(brokers, cfg)
	if err != nil {
		return nil, err
	}
	return newProducer(ap, logger, outcomes), nil
}

func newProducer(ap sarama.AsyncProducer, logger logx.Logger, outcomes *prometheus.CounterVec) *Producer {
	p := &Producer{
		producer:       ap,
		logger:         logger,
		outcomes:       outcomes,
		enqueueTimeout: defaultEnqueueTimeout,
	}
	p.wg.Add(2)
	go p.drainSuccesses()
	go p.drainErrors()
	return p
}

// Publish encodes ev and hands it to the producer. It never blocks longer
// than the enqueue timeout and never returns an error: the caller's state
// change has already been committed.
func (p *Producer) Publish(ctx context.Context, topic string, ev events.Event) {
	if p == nil {
		return
	}
	h := ev.Header()
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("event encode failed",
			logx.String("topic", topic),
			logx.String("event_id", h.EventID),
			logx.Err(err),
		)
		p.count(topic, "encode_failed")
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(ev.Key()),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(h.EventType)},
			{Key: []byte("event_id"), Value: []byte(h.EventID)},
		},
		Metadata: publishMeta{eventID: h.EventID, eventType: h.EventType, key: ev.Key()},
	}

	select {
	case p.producer.Input() <- msg:
		return
	default:
	}

	// buffer full: wait for room, but not past the caller's deadline
	t := time.NewTimer(p.enqueueTimeout)
	defer t.Stop()
	select {
	case p.producer.Input() <- msg:
	case <-ctx.Done():
		p.dropped(topic, h, ctx.Err().Error())
	case <-t.C:
		p.dropped(topic, h, "producer buffer full")
	}
}

func (p *Producer) dropped(topic string, h events.Meta, reason string) {
	p.logger.Error("event publish dropped",
		logx.String("topic", topic),
		logx.String("event_id", h.EventID),
		logx.String("event_type", h.EventType),
		logx.String("reason", reason),
	)
	p.count(topic, "dropped")
}

func (p *Producer) drainSuccesses() {
	defer p.wg.Done()
	for msg := range p.producer.Successes() {
		meta, _ := msg.Metadata.(publishMeta)
		p.logger.Debug("event published",
			logx.String("topic", msg.Topic),
			logx.String("event_id", meta.eventID),
			logx.String("event_type", meta.eventType),
			logx.String("key", meta.key),
			logx.Int("partition", int(msg.Partition)),
			logx.Int64("offset", msg.Offset),
		)
		p.count(msg.Topic, "published")
	}
}

func (p *Producer) drainErrors() {
	defer p.wg.Done()
	for perr := range p.producer.Errors() {
		topic := ""
		var meta publishMeta
		if perr.Msg != nil {
			topic = perr.Msg.Topic
			meta, _ = perr.Msg.Metadata.(publishMeta)
		}
		p.logger.Error("event publish failed",
			logx.String("topic", topic),
			logx.String("event_id", meta.eventID),
			logx.String("event_type", meta.eventType),
			logx.Err(perr.Err),
		)
		p.count(topic, "failed")
	}
}

func (p *Producer) count(topic, outcome string) {
	if p.outcomes != nil {
		p.outcomes.WithLabelValues(topic, outcome).Inc()
	}
}

// Close flushes buffered messages and waits for their confirmations.
func (p *Producer) Close() error {
	if p == nil {
		return nil
	}
	p.producer.AsyncClose()
	p.wg.Wait()
	return nil
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/IBM/sarama"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sethvargo/go-retry"

	"food-delivery/internal/events"
	"food-delivery/internal/logx"
)

// Message is a consumed record with its decoded envelope.
type Message struct {
	Topic     string
	Key       string
	Value     []byte
	Meta      events.Meta
	Partition int32
	Offset    int64
}

// HandleFunc processes a single message. Returning nil acknowledges it.
type HandleFunc func(context.Context, Message) error

// Routes maps a topic to its handler.
type Routes map[string]HandleFunc

// Route binds one event type on a topic to its handler.
type Route struct {
	Topic     string
	EventType string
	Handle    HandleFunc
}

// NewRoutes groups routes by topic. Event types sharing a topic are
// dispatched on the envelope's event type; types with no route are
// acknowledged without a call.
func NewRoutes(routes ...Route) Routes {
	byTopic := make(map[string]map[string]HandleFunc)
	for _, r := range routes {
		if byTopic[r.Topic] == nil {
			byTopic[r.Topic] = make(map[string]HandleFunc)
		}
		byTopic[r.Topic][r.EventType] = r.Handle
	}
	out := make(Routes, len(byTopic))
	for topic, byType := range byTopic {
		out[topic] = dispatch(byType)
	}
	return out
}

func dispatch(byType map[string]HandleFunc) HandleFunc {
	return func(ctx context.Context, m Message) error {
		fn, ok := byType[m.Meta.EventType]
		if !ok {
			return nil
		}
		return fn(ctx, m)
	}
}

// JSON adapts a typed handler. Undecodable payloads are permanent failures.
func JSON[T any](fn func(context.Context, T) error) HandleFunc {
	return func(ctx context.Context, m Message) error {
		var v T
		if err := json.Unmarshal(m.Value, &v); err != nil {
			return Permanent(fmt.Errorf("decode %s: %w", m.Topic, err))
		}
		return fn(ctx, v)
	}
}

// RetryPolicy is a fixed-interval bounded retry. A failing message is
// handled at most Retries+1 times before it is dead-lettered.
type RetryPolicy struct {
	Retries  int
	Interval time.Duration
}

// ConsumerConfig configures a consumer group.
type ConsumerConfig struct {
	Brokers        []string
	GroupID        string
	Retry          RetryPolicy
	SessionTimeout time.Duration
	// MaxPollRecords bounds how many fetched records are buffered per partition.
	MaxPollRecords int
}

type deadLetterer interface {
	Send(ctx context.Context, msg *sarama.ConsumerMessage, cause error, attempts int) error
}

// Consumer wraps a sarama consumer group. Each partition is handled
// sequentially, so events sharing a key are processed in publish order.
type Consumer struct {
	group    sarama.ConsumerGroup
	groupID  string
	topics   []string
	routes   Routes
	retry    RetryPolicy
	dlq      deadLetterer
	logger   logx.Logger
	outcomes *prometheus.CounterVec
}

var newConsumerGroup = sarama.NewConsumerGroup

// NewConsumer creates a consumer group. It returns nil when Kafka is not configured.
func NewConsumer(
	logger logx.Logger,
	cfg ConsumerConfig,
	routes Routes,
	dlq deadLetterer,
	outcomes *prometheus.CounterVec,
) (*Consumer, error) {
	// no brokers, no group or nothing to consume: run without Kafka
	if len(cfg.Brokers) == 0 || strings.TrimSpace(cfg.GroupID) == "" || len(routes) == 0 {
		return nil, nil
	}

	sc := sarama.NewConfig()
	sc.Consumer.Offsets.Initial = sarama.OffsetOldest
	sc.Consumer.Offsets.AutoCommit.Enable = true
	sc.Consumer.Return.Errors = true
	if cfg.SessionTimeout > 0 {
		sc.Consumer.Group.Session.Timeout = cfg.SessionTimeout
		sc.Consumer.Group.Heartbeat.Interval = cfg.SessionTimeout / 3
	}
	if cfg.MaxPollRecords > 0 {
		sc.ChannelBufferSize = cfg.MaxPollRecords
	}

	group, err := newConsumerGroup(cfg.Brokers, cfg.GroupID, sc)
	if err != nil {
		return nil, err
	}

	return newConsumer(group, cfg.GroupID, routes, cfg.Retry, dlq, logger, outcomes), nil
}

func newConsumer(
	group sarama.ConsumerGroup,
	groupID string,
	routes Routes,
	policy RetryPolicy,
	dlq deadLetterer,
	logger logx.Logger,
	outcomes *prometheus.CounterVec,
) *Consumer {
	if policy.Retries < 0 {
		policy.Retries = 0
	}
	if policy.Interval <= 0 {
		policy.Interval = 2 * time.Second
	}
	topics := make([]string, 0, len(routes))
	for t := range routes {
		topics = append(topics, t)
	}
	sort.Strings(topics)

	return &Consumer{
		group:    group,
		groupID:  groupID,
		topics:   topics,
		routes:   routes,
		retry:    policy,
		dlq:      dlq,
		logger:   logger.With(logx.String("group", groupID)),
		outcomes: outcomes,
	}
}

// Topics returns the subscribed topics.
func (c *Consumer) Topics() []string {
	if c == nil {
		return nil
	}
	return append([]string(nil), c.topics...)
}

// Run consumes until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if c == nil {
		return nil
	}

	go func() {
		for err := range c.group.Errors() {
			c.logger.Warn("kafka consumer group error", logx.Err(err))
		}
	}()

	h := &groupHandler{c: c}
	c.logger.Info("kafka consumer started", logx.Any("topics", c.topics))

	for {
		if err := c.group.Consume(ctx, c.topics, h); err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return nil
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("kafka consume error", logx.Err(err))
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Second):
			}
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// Close leaves the group.
func (c *Consumer) Close() error {
	if c == nil {
		return nil
	}
	return c.group.Close()
}

type groupHandler struct{ c *Consumer }

func (h *groupHandler) Setup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) Cleanup(sarama.ConsumerGroupSession) error {
	return nil
}

func (h *groupHandler) ConsumeClaim(sess sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		if err := h.c.process(sess.Context(), msg); err != nil {
			// the message stays unacknowledged and is redelivered after rebalance
			return err
		}
		sess.MarkMessage(msg, "")
	}
	return nil
}

// process runs the handler with retries. A nil result means the message may
// be acknowledged: it either succeeded or is now in the dead-letter topic.
func (c *Consumer) process(ctx context.Context, msg *sarama.ConsumerMessage) error {
	log := c.logger.With(
		logx.String("topic", msg.Topic),
		logx.Int("partition", int(msg.Partition)),
		logx.Int64("offset", msg.Offset),
	)

	handler, ok := c.routes[msg.Topic]
	if !ok {
		log.Warn("kafka no handler for topic, skipping")
		return nil
	}

	var meta events.Meta
	if err := json.Unmarshal(msg.Value, &meta); err != nil {
		log.Error("kafka bad json", logx.Err(err))
		return c.deadLetter(ctx, log, msg, Permanent(err), 0)
	}
	if err := meta.Validate(); err != nil {
		log.Error("kafka bad envelope", logx.Err(err))
		return c.deadLetter(ctx, log, msg, Permanent(err), 0)
	}

	m := Message{
		Topic:     msg.Topic,
		Key:       string(msg.Key),
		Value:     msg.Value,
		Meta:      meta,
		Partition: msg.Partition,
		Offset:    msg.Offset,
	}
	log = log.With(logx.String("event_id", meta.EventID), logx.String("event_type", meta.EventType))

	attempts := 0
	backoff := retry.WithMaxRetries(uint64(c.retry.Retries), retry.NewConstant(c.retry.Interval))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempts++
		err := handler(ctx, m)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return err
		}
		if attempts <= c.retry.Retries {
			log.Warn("kafka handle failed, retrying",
				logx.Int("attempt", attempts),
				logx.Duration("backoff", c.retry.Interval),
				logx.Err(err),
			)
			c.count(msg.Topic, "retried")
		}
		return retry.RetryableError(err)
	})
	if err == nil {
		c.count(msg.Topic, "acknowledged")
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return c.deadLetter(ctx, log, msg, err, attempts)
}

func (c *Consumer) deadLetter(ctx context.Context, log logx.Logger, msg *sarama.ConsumerMessage, cause error, attempts int) error {
	if c.dlq == nil {
		log.Error("kafka dead letter not configured, message skipped",
			logx.Int("attempts", attempts),
			logx.Err(cause),
		)
		c.count(msg.Topic, "dead_lettered")
		return nil
	}
	if err := c.dlq.Send(ctx, msg, cause, attempts); err != nil {
		log.Error("kafka dead letter failed", logx.Err(err))
		return err
	}
	log.Error("kafka message dead-lettered",
		logx.Int("attempts", attempts),
		logx.Bool("permanent", IsPermanent(cause)),
		logx.Err(cause),
	)
	c.count(msg.Topic, "dead_lettered")
	return nil
}

func (c *Consumer) count(topic, outcome string) {
	if c.outcomes != nil {
		c.outcomes.WithLabelValues(topic, outcome).Inc()
	}
}

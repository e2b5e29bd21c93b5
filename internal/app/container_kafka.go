package app

import (
	"context"
	"fmt"

	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/transport/kafka"
)

func registerKafka(container *dig.Container) error {
	return provideAll(container,
		newProducer,
		func(p *kafka.Producer) kafka.Publisher {
			if p == nil {
				return kafka.NopPublisher{}
			}
			return p
		},
		newDeadLetterWriter,
	)
}

func newProducer(cfg *config.Config, logger logx.Logger, m *Metrics, res *resources) (*kafka.Producer, error) {
	p, err := kafka.NewProducer(logger, cfg.Kafka.Brokers, m.Published)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	if p == nil {
		logger.Warn("kafka brokers not configured, events are not published")
		return nil, nil
	}
	res.add("kafka producer", func(context.Context) error { return p.Close() })
	return p, nil
}

func newDeadLetterWriter(cfg *config.Config, topics events.Topics, res *resources) (*kafka.DeadLetterWriter, error) {
	w, err := kafka.NewDeadLetterWriter(cfg.Kafka.Brokers, topics)
	if err != nil {
		return nil, fmt.Errorf("kafka dead letter writer: %w", err)
	}
	if w == nil {
		return nil, nil
	}
	res.add("kafka dead letter writer", func(context.Context) error { return w.Close() })
	return w, nil
}

type consumerIn struct {
	dig.In
	Config    *config.Config
	Logger    logx.Logger
	Metrics   *Metrics
	DLQ       *kafka.DeadLetterWriter
	Resources *resources
}

// newConsumer joins group with the given routes. A nil consumer means Kafka
// is disabled and the service runs HTTP only.
func newConsumer(in consumerIn, group string, routes kafka.Routes) (*kafka.Consumer, error) {
	k := in.Config.Kafka
	c, err := kafka.NewConsumer(in.Logger, kafka.ConsumerConfig{
		Brokers:        k.Brokers,
		GroupID:        group,
		Retry:          kafka.RetryPolicy{Retries: k.Retry.Retries, Interval: k.Retry.Interval},
		SessionTimeout: k.SessionTimeout,
		MaxPollRecords: k.MaxPollRecords,
	}, routes, in.DLQ, in.Metrics.Consumed)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer %s: %w", group, err)
	}
	if c == nil {
		in.Logger.Warn("kafka consumer disabled", logx.String("group", group))
		return nil, nil
	}
	res := in.Resources
	res.add("kafka consumer "+group, func(context.Context) error { return c.Close() })
	return c, nil
}

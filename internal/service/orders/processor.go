package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/ports/ordertx"
	"food-delivery/internal/transport/kafka"
)

// Processor applies payment and delivery events to orders. Each event is
// applied at most once per consumer group; the inbox row and the status
// change commit together.
type Processor struct {
	repo      ordertx.Runner
	publisher kafka.Publisher
	topics    events.Topics
	group     string
	logger    logx.Logger
	factory   *actionFactory
	now       func() time.Time
}

// NewProcessor creates a new orders.Processor
func NewProcessor(repo ordertx.Runner, pub kafka.Publisher, topics events.Topics, group string, logger logx.Logger) *Processor {
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	p := &Processor{
		repo:      repo,
		publisher: pub,
		topics:    topics,
		group:     group,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	p.factory = newActionFactory(topics,
		kafka.JSON(p.onPaymentProcessed),
		kafka.JSON(p.onPaymentFailed),
		kafka.JSON(p.onDeliveryAssigned),
		kafka.JSON(p.onDeliveryPickedUp),
		kafka.JSON(p.onDeliveryDelivered),
	)
	return p
}

// Routes returns the consumer routes handled by the processor.
func (p *Processor) Routes() kafka.Routes { return p.factory.routes() }

// Handle processes a single message. Unknown event types are acknowledged.
func (p *Processor) Handle(ctx context.Context, m kafka.Message) error {
	fn, ok := p.factory.get(m.Meta.EventType)
	if !ok {
		return nil
	}
	return fn(ctx, m)
}

func (p *Processor) onPaymentProcessed(ctx context.Context, e events.PaymentProcessed) error {
	return p.transition(ctx, e.Meta, e.OrderID, domain.OrderConfirmed, "Payment processed")
}

func (p *Processor) onPaymentFailed(ctx context.Context, e events.PaymentFailed) error {
	return p.transition(ctx, e.Meta, e.OrderID, domain.OrderCancelled, "Payment failed: "+e.ErrorMessage)
}

func (p *Processor) onDeliveryPickedUp(ctx context.Context, e events.DeliveryPickedUp) error {
	return p.transition(ctx, e.Meta, e.OrderID, domain.OrderPickedUp, "Picked up by courier")
}

func (p *Processor) onDeliveryDelivered(ctx context.Context, e events.DeliveryDelivered) error {
	return p.transition(ctx, e.Meta, e.OrderID, domain.OrderDelivered, "Delivered")
}

// onDeliveryAssigned records the courier and ETA. The order graph has no
// assignment step, so the status is left alone.
func (p *Processor) onDeliveryAssigned(ctx context.Context, e events.DeliveryAssigned) error {
	return p.inbox(ctx, e.Meta, func(tx ordertx.Repository) error {
		o, err := p.load(ctx, tx, e.OrderID)
		if err != nil {
			return err
		}
		if o.Status.Terminal() {
			p.logger.Info("courier assignment ignored for finished order",
				logx.Int64("order_id", o.ID),
				logx.String("status", string(o.Status)))
			return nil
		}
		eta := e.EstimatedTimeMinutes
		return tx.SetCourier(ctx, o.ID, e.CourierID, &eta)
	})
}

func (p *Processor) transition(ctx context.Context, meta events.Meta, orderID int64, next domain.OrderStatus, comment string) error {
	var (
		changed *domain.Order
		old     domain.OrderStatus
	)
	err := p.inbox(ctx, meta, func(tx ordertx.Repository) error {
		changed = nil
		o, err := p.load(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if o.Status == next {
			p.logger.Info("order already in target status",
				logx.Int64("order_id", o.ID),
				logx.String("status", string(next)))
			return nil
		}
		old = o.Status
		entry, err := o.Transition(next, nil, comment, p.now())
		if err != nil {
			return err
		}
		if err := tx.SaveStatus(ctx, o, entry); err != nil {
			return err
		}
		changed = o
		return nil
	})
	if err != nil {
		if errors.Is(err, apperr.InvalidState) {
			p.logger.Warn("order event rejected by state machine",
				logx.Int64("order_id", orderID),
				logx.String("event_id", meta.EventID),
				logx.String("event_type", meta.EventType),
				logx.Err(err))
			return kafka.Permanent(err)
		}
		return err
	}
	if changed == nil {
		return nil
	}

	p.logger.Info("order status changed by event",
		logx.Int64("order_id", changed.ID),
		logx.String("from", string(old)),
		logx.String("to", string(next)),
		logx.String("event_type", meta.EventType))
	publishStatusChanged(ctx, p.publisher, p.topics, changed, old, nil, comment, p.now())
	return nil
}

// inbox runs fn unless the event was already applied for this group.
func (p *Processor) inbox(ctx context.Context, meta events.Meta, fn func(tx ordertx.Repository) error) error {
	return p.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		fresh, err := tx.MarkProcessed(ctx, p.group, meta.EventID)
		if err != nil {
			return err
		}
		if !fresh {
			p.logger.Info("event already processed",
				logx.String("event_id", meta.EventID),
				logx.String("event_type", meta.EventType))
			return nil
		}
		return fn(tx)
	})
}

func (p *Processor) load(ctx context.Context, tx ordertx.Repository, orderID int64) (*domain.Order, error) {
	o, err := tx.GetForUpdate(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, kafka.Permanent(fmt.Errorf("order %d: %w", orderID, apperr.NotFound))
	}
	return o, nil
}

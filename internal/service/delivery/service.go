package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/ports/deliverytx"
	"food-delivery/internal/transport/kafka"
)

const defaultSweepBatch = 100

// Service - delivery lifecycle from order creation to hand-over.
type Service struct {
	repo             deliveryRepository
	engine           assigner
	publisher        kafka.Publisher
	topics           events.Topics
	operationTimeout time.Duration
	sweepBatch       int
	logger           logx.Logger
	now              func() time.Time
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// NewService - creates a new delivery Service.
func NewService(r deliveryRepository, engine assigner, pub kafka.Publisher, topics events.Topics,
	timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	return &Service{
		repo:             r,
		engine:           engine,
		publisher:        pub,
		topics:           topics,
		operationTimeout: timeout,
		sweepBatch:       defaultSweepBatch,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// CreateFromOrder opens a PENDING delivery for a new order and tries to
// assign it right away. Redelivered events reuse the existing delivery.
func (s *Service) CreateFromOrder(ctx context.Context, ev events.OrderCreated) error {
	pickup, ok := ev.Pickup()
	if !ok {
		return kafka.Permanent(fmt.Errorf("order %d has no pickup coordinates: %w", ev.OrderID, apperr.Invalid))
	}

	d, created, err := s.repo.CreatePending(ctx, domain.NewPendingDelivery(ev.OrderID, ev.UserID, pickup, ev.Dropoff(), s.now()))
	if err != nil {
		return err
	}
	if created {
		s.logger.Info("delivery created",
			logx.Int64("delivery_id", d.ID),
			logx.Int64("order_id", d.OrderID))
	}
	if d.Status != domain.DeliveryPending {
		return nil
	}

	if _, err := s.engine.Assign(ctx, d); err != nil {
		return err
	}
	return nil
}

// HandleOrderStatusChanged cancels the delivery of a cancelled order.
func (s *Service) HandleOrderStatusChanged(ctx context.Context, ev events.OrderStatusChanged) error {
	if domain.OrderStatus(ev.NewStatus) != domain.OrderCancelled {
		return nil
	}
	reason := ev.Reason
	if reason == "" {
		reason = "Order cancelled"
	}
	return s.CancelByOrder(ctx, ev.OrderID, reason)
}

// Get returns a delivery by id.
func (s *Service) Get(ctx context.Context, id int64) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound
	}
	return d, nil
}

// GetByOrder returns the delivery of an order.
func (s *Service) GetByOrder(ctx context.Context, orderID int64) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, apperr.NotFound
	}
	return d, nil
}

// MarkPickedUp records that the courier collected the order.
func (s *Service) MarkPickedUp(ctx context.Context, id int64) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.update(ctx, id, func(_ deliverytx.Repository, d *domain.Delivery) error {
		return d.PickUp(s.now())
	})
	if err != nil {
		return nil, err
	}

	s.publisher.Publish(ctx, s.topics.DeliveryPickedUp, events.DeliveryPickedUp{
		Meta:       events.NewMeta(events.TypeDeliveryPickedUp, s.now()),
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		CourierID:  *d.CourierID,
		UserID:     d.UserID,
	})
	return d, nil
}

// MarkDelivered completes a delivery and frees its courier.
func (s *Service) MarkDelivered(ctx context.Context, id int64) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	d, err := s.update(ctx, id, func(tx deliverytx.Repository, d *domain.Delivery) error {
		if err := d.Deliver(s.now()); err != nil {
			return err
		}
		return s.releaseCourier(ctx, tx, d, true)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("delivery completed",
		logx.Int64("delivery_id", d.ID),
		logx.Int64("order_id", d.OrderID),
		logx.Int64("courier_id", *d.CourierID))

	s.publisher.Publish(ctx, s.topics.DeliveryDelivered, events.DeliveryDelivered{
		Meta:       events.NewMeta(events.TypeDeliveryDelivered, s.now()),
		DeliveryID: d.ID,
		OrderID:    d.OrderID,
		CourierID:  *d.CourierID,
		UserID:     d.UserID,
	})
	return d, nil
}

// Cancel stops a delivery that has not finished and frees its courier.
func (s *Service) Cancel(ctx context.Context, id int64, reason string) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.update(ctx, id, func(tx deliverytx.Repository, d *domain.Delivery) error {
		return s.cancel(ctx, tx, d, reason)
	})
}

// CancelByOrder is Cancel keyed by order. A missing or already finished
// delivery is not an error.
func (s *Service) CancelByOrder(ctx context.Context, orderID int64, reason string) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := tx.GetByOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if d == nil || d.Status.Terminal() {
			return nil
		}
		if err := s.cancel(ctx, tx, d, reason); err != nil {
			return err
		}
		return tx.Save(ctx, d)
	})
}

// Rate records the customer's rating and folds it into the courier average.
func (s *Service) Rate(ctx context.Context, id, userID int64, rating int) (*domain.Delivery, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	return s.update(ctx, id, func(tx deliverytx.Repository, d *domain.Delivery) error {
		if d.UserID != userID {
			return apperr.Forbidden
		}
		if err := d.Rate(rating, s.now()); err != nil {
			return err
		}
		if d.CourierID == nil {
			return nil
		}
		c, err := tx.GetCourierForUpdate(ctx, *d.CourierID)
		if err != nil {
			return err
		}
		if c == nil {
			return nil
		}
		c.AddRating(float64(rating))
		return tx.SaveCourier(ctx, c)
	})
}

// RetryResult summarises a sweep.
type RetryResult struct {
	Checked  int `json:"checked"`
	Assigned int `json:"assigned"`
	Failed   int `json:"failed"`
}

// RetryPending runs assignment again for every PENDING delivery, paging
// through them in id order. A failure on one delivery does not stop the sweep.
func (s *Service) RetryPending(ctx context.Context) (RetryResult, error) {
	var (
		res   RetryResult
		after int64
	)
	for {
		ids, err := s.repo.ListPendingIDs(ctx, after, s.sweepBatch)
		if err != nil {
			return res, err
		}
		if len(ids) == 0 {
			break
		}
		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return res, err
			}
			res.Checked++
			s.retryOne(ctx, id, &res)
		}
		after = ids[len(ids)-1]
	}

	s.logger.Info("pending deliveries swept",
		logx.Int("checked", res.Checked),
		logx.Int("assigned", res.Assigned),
		logx.Int("failed", res.Failed))
	return res, nil
}

func (s *Service) retryOne(ctx context.Context, id int64, res *RetryResult) {
	d, err := s.repo.Get(ctx, id)
	if err != nil || d == nil {
		res.Failed++
		s.logger.Warn("pending delivery lookup failed", logx.Int64("delivery_id", id), logx.Err(err))
		return
	}
	ok, err := s.engine.Assign(ctx, d)
	if err != nil {
		res.Failed++
		s.logger.Warn("pending delivery assignment failed", logx.Int64("delivery_id", id), logx.Err(err))
		return
	}
	if ok {
		res.Assigned++
	}
}

func (s *Service) update(ctx context.Context, id int64, fn func(tx deliverytx.Repository, d *domain.Delivery) error) (*domain.Delivery, error) {
	var out *domain.Delivery
	err := s.repo.WithTx(ctx, func(tx deliverytx.Repository) error {
		d, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if d == nil {
			return apperr.NotFound
		}
		if err := fn(tx, d); err != nil {
			return err
		}
		if err := tx.Save(ctx, d); err != nil {
			return err
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) cancel(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery, reason string) error {
	if err := d.Cancel(reason, s.now()); err != nil {
		return err
	}
	if err := s.releaseCourier(ctx, tx, d, false); err != nil {
		return err
	}
	s.logger.Info("delivery cancelled",
		logx.Int64("delivery_id", d.ID),
		logx.Int64("order_id", d.OrderID),
		logx.String("reason", reason))
	return nil
}

// releaseCourier frees the assignee. Only a BUSY courier goes back to
// AVAILABLE; one that went OFFLINE or on a break keeps that status.
func (s *Service) releaseCourier(ctx context.Context, tx deliverytx.Repository, d *domain.Delivery, completed bool) error {
	if d.CourierID == nil {
		return nil
	}
	c, err := tx.GetCourierForUpdate(ctx, *d.CourierID)
	if err != nil {
		return err
	}
	if c == nil {
		return errors.New("assigned courier vanished")
	}
	released := c.Release()
	if completed {
		c.TotalDeliveries++
	}
	if !released && !completed {
		return nil
	}
	return tx.SaveCourier(ctx, c)
}

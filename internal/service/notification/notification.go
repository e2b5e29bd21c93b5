package notification

import (
	"context"
	"fmt"
	"time"

	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/transport/kafka"
	"food-delivery/internal/workerpool"
)

// Kind classifies a user notification.
type Kind string

// Notification kinds.
const (
	KindOrderCreated       Kind = "ORDER_CREATED"
	KindOrderStatusChanged Kind = "ORDER_STATUS_CHANGED"
	KindPaymentProcessed   Kind = "PAYMENT_PROCESSED"
	KindPaymentFailed      Kind = "PAYMENT_FAILED"
	KindDeliveryAssigned   Kind = "DELIVERY_ASSIGNED"
	KindDeliveryDelivered  Kind = "DELIVERY_DELIVERED"
)

// Notification is a message for a user.
type Notification struct {
	UserID  int64
	Kind    Kind
	Subject string
	Body    string
}

// Sender delivers a notification over some channel.
type Sender interface {
	Send(ctx context.Context, n Notification) error
}

type submitter interface {
	Submit(t workerpool.Task) bool
}

// LogSender writes notifications to the log instead of a real channel.
type LogSender struct{ logger logx.Logger }

// NewLogSender returns a LogSender.
func NewLogSender(logger logx.Logger) *LogSender { return &LogSender{logger: logger} }

// Send implements Sender.
func (s *LogSender) Send(_ context.Context, n Notification) error {
	s.logger.Info("notification sent",
		logx.Int64("user_id", n.UserID),
		logx.String("kind", string(n.Kind)),
		logx.String("subject", n.Subject),
		logx.String("body", n.Body))
	return nil
}

// Service turns domain events into user notifications. Sending happens on
// the pool; failures are logged and never fail the consumed event.
type Service struct {
	sender      Sender
	pool        submitter
	topics      events.Topics
	sendTimeout time.Duration
	logger      logx.Logger
}

// NewService creates a notification Service.
func NewService(sender Sender, pool submitter, topics events.Topics, logger logx.Logger) *Service {
	return &Service{sender: sender, pool: pool, topics: topics, sendTimeout: 5 * time.Second, logger: logger}
}

// Routes returns the consumer routes of the notification group.
func (s *Service) Routes() kafka.Routes {
	t := s.topics
	return kafka.NewRoutes(
		kafka.Route{Topic: t.OrderCreated, EventType: events.TypeOrderCreated, Handle: kafka.JSON(s.onOrderCreated)},
		kafka.Route{Topic: t.OrderStatusChanged, EventType: events.TypeOrderStatusChanged, Handle: kafka.JSON(s.onOrderStatusChanged)},
		kafka.Route{Topic: t.PaymentProcessed, EventType: events.TypePaymentProcessed, Handle: kafka.JSON(s.onPaymentProcessed)},
		kafka.Route{Topic: t.PaymentFailed, EventType: events.TypePaymentFailed, Handle: kafka.JSON(s.onPaymentFailed)},
		kafka.Route{Topic: t.DeliveryAssigned, EventType: events.TypeDeliveryAssigned, Handle: kafka.JSON(s.onDeliveryAssigned)},
		kafka.Route{Topic: t.DeliveryDelivered, EventType: events.TypeDeliveryDelivered, Handle: kafka.JSON(s.onDeliveryDelivered)},
	)
}

func (s *Service) onOrderCreated(_ context.Context, e events.OrderCreated) error {
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindOrderCreated,
		Subject: fmt.Sprintf("Order placed - #%d", e.OrderID),
		Body: fmt.Sprintf("Your order #%d has been placed. Total amount: $%s. "+
			"We'll notify you when it's on its way.", e.OrderID, e.TotalAmount.StringFixed(2)),
	})
	return nil
}

func (s *Service) onOrderStatusChanged(_ context.Context, e events.OrderStatusChanged) error {
	body := fmt.Sprintf("Your order #%d is now %s.", e.OrderID, e.NewStatus)
	if e.Reason != "" {
		body += " Reason: " + e.Reason + "."
	}
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindOrderStatusChanged,
		Subject: fmt.Sprintf("Order #%d update", e.OrderID),
		Body:    body,
	})
	return nil
}

func (s *Service) onPaymentProcessed(_ context.Context, e events.PaymentProcessed) error {
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindPaymentProcessed,
		Subject: fmt.Sprintf("Payment confirmed - Order #%d", e.OrderID),
		Body: fmt.Sprintf("Payment of $%s has been processed for order #%d. Transaction ID: %s",
			e.Amount.StringFixed(2), e.OrderID, e.TransactionID),
	})
	return nil
}

func (s *Service) onPaymentFailed(_ context.Context, e events.PaymentFailed) error {
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindPaymentFailed,
		Subject: fmt.Sprintf("Payment failed - Order #%d", e.OrderID),
		Body: fmt.Sprintf("Payment of $%s failed for order #%d. Reason: %s. "+
			"Please try again or use a different payment method.",
			e.Amount.StringFixed(2), e.OrderID, e.ErrorMessage),
	})
	return nil
}

func (s *Service) onDeliveryAssigned(_ context.Context, e events.DeliveryAssigned) error {
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindDeliveryAssigned,
		Subject: fmt.Sprintf("Courier assigned - Order #%d", e.OrderID),
		Body: fmt.Sprintf("A courier has been assigned to your order #%d. Estimated delivery time: %d minutes.",
			e.OrderID, e.EstimatedTimeMinutes),
	})
	return nil
}

func (s *Service) onDeliveryDelivered(_ context.Context, e events.DeliveryDelivered) error {
	s.dispatch(e.Meta, Notification{
		UserID:  e.UserID,
		Kind:    KindDeliveryDelivered,
		Subject: fmt.Sprintf("Order delivered - #%d", e.OrderID),
		Body:    fmt.Sprintf("Your order #%d has been delivered. Enjoy your meal!", e.OrderID),
	})
	return nil
}

func (s *Service) dispatch(meta events.Meta, n Notification) {
	log := s.logger.With(
		logx.String("event_id", meta.EventID),
		logx.Int64("user_id", n.UserID),
		logx.String("kind", string(n.Kind)))

	ok := s.pool.Submit(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.sendTimeout)
		defer cancel()
		if err := s.sender.Send(ctx, n); err != nil {
			log.Error("notification send failed", logx.Err(err))
		}
	})
	if !ok {
		log.Warn("notification dropped, send queue full")
	}
}

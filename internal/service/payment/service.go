package payment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/logx"
	"food-delivery/internal/transport/kafka"
)

// Audit actions.
const (
	ActionInitiated = "PAYMENT_INITIATED"
	ActionBlocked   = "PAYMENT_BLOCKED"
	ActionCompleted = "PAYMENT_COMPLETED"
	ActionFailed    = "PAYMENT_FAILED"
)

// ErrBlocked is returned when the fraud guard refuses a payment.
var ErrBlocked = fmt.Errorf("%w: payment temporarily blocked after repeated failures", apperr.Conflict)

// FraudGuard limits failed attempts per user.
type FraudGuard struct {
	MaxFailedAttempts int
	Window            time.Duration
}

// DefaultFraudGuard returns the standard limits.
func DefaultFraudGuard() FraudGuard {
	return FraudGuard{MaxFailedAttempts: 3, Window: 30 * time.Minute}
}

// ProcessRequest is a payment attempt for an order.
type ProcessRequest struct {
	OrderID int64
	UserID  int64
	Amount  decimal.Decimal
	Method  domain.PaymentMethod
}

// Service - charges orders and announces the outcome.
type Service struct {
	repo         paymentRepository
	audit        auditLog
	auditPool    submitter
	charger      Charger
	guard        FraudGuard
	publisher    kafka.Publisher
	topics       events.Topics
	auditTimeout time.Duration
	logger       logx.Logger
	now          func() time.Time
}

// NewService - creates a new payment Service. Audit records are written on
// pool and never affect the payment outcome.
func NewService(repo paymentRepository, audit auditLog, pool submitter, charger Charger, guard FraudGuard,
	pub kafka.Publisher, topics events.Topics, logger logx.Logger) *Service {
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	if guard.MaxFailedAttempts <= 0 {
		guard = DefaultFraudGuard()
	}
	return &Service{
		repo:         repo,
		audit:        audit,
		auditPool:    pool,
		charger:      charger,
		guard:        guard,
		publisher:    pub,
		topics:       topics,
		auditTimeout: 3 * time.Second,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

func validate(req ProcessRequest) error {
	if req.OrderID <= 0 || req.UserID <= 0 {
		return fmt.Errorf("%w: order and user are required", apperr.Invalid)
	}
	if !req.Amount.IsPositive() {
		return fmt.Errorf("%w: amount must be positive", apperr.Invalid)
	}
	if !req.Method.Valid() {
		return fmt.Errorf("%w: unknown payment method %q", apperr.Invalid, req.Method)
	}
	return nil
}

// Process charges an order once. A declined charge is stored as FAILED and
// returned without error; the order side reacts to the published event.
func (s *Service) Process(ctx context.Context, req ProcessRequest) (*domain.Payment, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	orderRef := "orderId=" + strconv.FormatInt(req.OrderID, 10)
	s.record(req, ActionInitiated, true, orderRef+", method="+string(req.Method))

	failed, err := s.repo.CountFailedSince(ctx, req.UserID, s.now().Add(-s.guard.Window))
	if err != nil {
		return nil, err
	}
	if failed >= s.guard.MaxFailedAttempts {
		s.logger.Warn("payment blocked, too many failed attempts",
			logx.Int64("user_id", req.UserID),
			logx.Int("failed", failed))
		s.record(req, ActionBlocked, false, "Too many failed payment attempts")
		return nil, ErrBlocked
	}

	existing, err := s.repo.GetByOrder(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		s.logger.Warn("duplicate payment attempt", logx.Int64("order_id", req.OrderID))
		return nil, fmt.Errorf("%w: payment already exists for order %d", apperr.Conflict, req.OrderID)
	}

	res := s.charger.Charge(ctx, req.Amount, req.Method)
	now := s.now()
	p := &domain.Payment{
		OrderID:   req.OrderID,
		UserID:    req.UserID,
		Amount:    req.Amount,
		Method:    req.Method,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if res.Success {
		p.Status = domain.PaymentCompleted
		p.TransactionID = res.TransactionID
	} else {
		p.Status = domain.PaymentFailed
		p.FailureReason = res.FailureReason
	}

	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, apperr.Conflict) {
			return nil, fmt.Errorf("%w: payment already exists for order %d", apperr.Conflict, req.OrderID)
		}
		return nil, err
	}

	if res.Success {
		s.logger.Info("payment completed", logx.Int64("order_id", p.OrderID), logx.Int64("payment_id", p.ID))
		s.record(req, ActionCompleted, true, orderRef)
		s.publisher.Publish(ctx, s.topics.PaymentProcessed, events.PaymentProcessed{
			Meta:          events.NewMeta(events.TypePaymentProcessed, now),
			PaymentID:     p.ID,
			OrderID:       p.OrderID,
			UserID:        p.UserID,
			Amount:        p.Amount,
			Method:        string(p.Method),
			TransactionID: p.TransactionID,
		})
		return p, nil
	}

	s.logger.Warn("payment failed",
		logx.Int64("order_id", p.OrderID),
		logx.String("reason", p.FailureReason))
	s.record(req, ActionFailed, false, p.FailureReason)
	s.publisher.Publish(ctx, s.topics.PaymentFailed, events.PaymentFailed{
		Meta:         events.NewMeta(events.TypePaymentFailed, now),
		PaymentID:    p.ID,
		OrderID:      p.OrderID,
		UserID:       p.UserID,
		Amount:       p.Amount,
		Method:       string(p.Method),
		ErrorMessage: p.FailureReason,
	})
	return p, nil
}

// GetByOrder returns the payment of an order.
func (s *Service) GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error) {
	p, err := s.repo.GetByOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound
	}
	return p, nil
}

// record queues an audit entry. Failures are logged only.
func (s *Service) record(req ProcessRequest, action string, success bool, msg string) {
	a := domain.PaymentAudit{
		OrderID:   req.OrderID,
		UserID:    req.UserID,
		Action:    action,
		Success:   success,
		Message:   msg,
		CreatedAt: s.now(),
	}
	ok := s.auditPool.Submit(func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, s.auditTimeout)
		defer cancel()
		if err := s.audit.Insert(ctx, a); err != nil {
			s.logger.Error("payment audit write failed",
				logx.String("action", action),
				logx.Int64("order_id", req.OrderID),
				logx.Err(err))
		}
	})
	if !ok {
		s.logger.Warn("payment audit dropped",
			logx.String("action", action),
			logx.Int64("order_id", req.OrderID))
	}
}

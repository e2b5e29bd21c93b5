package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/internal/domain"
	"food-delivery/internal/workerpool"
)

type paymentRepository interface {
	Create(ctx context.Context, p *domain.Payment) error
	GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
	CountFailedSince(ctx context.Context, userID int64, since time.Time) (int, error)
}

type auditLog interface {
	Insert(ctx context.Context, a domain.PaymentAudit) error
}

type submitter interface {
	Submit(t workerpool.Task) bool
}

// Charger is the card processor.
type Charger interface {
	Charge(ctx context.Context, amount decimal.Decimal, method domain.PaymentMethod) ChargeResult
}

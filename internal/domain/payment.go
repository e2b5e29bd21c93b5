package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type (
	// PaymentStatus is the outcome of a payment attempt.
	PaymentStatus string
	// PaymentMethod is how the customer pays.
	PaymentMethod string
)

// Payment statuses.
const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentCompleted PaymentStatus = "COMPLETED"
	PaymentFailed    PaymentStatus = "FAILED"
)

// Payment methods.
const (
	MethodCard   PaymentMethod = "CARD"
	MethodCash   PaymentMethod = "CASH"
	MethodWallet PaymentMethod = "WALLET"
)

// Valid checks if the PaymentMethod is valid
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodCash, MethodWallet:
		return true
	}
	return false
}

// Payment is one payment per order.
type Payment struct {
	ID            int64
	OrderID       int64
	UserID        int64
	Amount        decimal.Decimal
	Method        PaymentMethod
	Status        PaymentStatus
	TransactionID string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// PaymentAudit is an append-only record of a payment attempt.
type PaymentAudit struct {
	OrderID   int64
	UserID    int64
	Action    string
	Success   bool
	Message   string
	CreatedAt time.Time
}

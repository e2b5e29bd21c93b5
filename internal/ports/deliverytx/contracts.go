package deliverytx

import (
	"context"

	"food-delivery/internal/domain"
)

// Candidate is a courier considered for an assignment.
type Candidate struct {
	Courier           domain.Courier
	HasActiveDelivery bool
}

// Repository is the set of delivery-side operations available inside a transaction.
type Repository interface {
	GetForUpdate(ctx context.Context, id int64) (*domain.Delivery, error)
	GetByOrderForUpdate(ctx context.Context, orderID int64) (*domain.Delivery, error)
	Save(ctx context.Context, d *domain.Delivery) error

	CandidatesByIDs(ctx context.Context, ids []int64) ([]Candidate, error)
	AvailableByRating(ctx context.Context, limit int) ([]Candidate, error)
	// ReserveCourier flips an AVAILABLE courier without an active delivery
	// to BUSY. It reports false when another assignment got there first.
	ReserveCourier(ctx context.Context, courierID int64) (bool, error)
	GetCourierForUpdate(ctx context.Context, id int64) (*domain.Courier, error)
	SaveCourier(ctx context.Context, c *domain.Courier) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

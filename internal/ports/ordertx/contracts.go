package ordertx

import (
	"context"

	"food-delivery/internal/domain"
)

// Repository is the set of order operations available inside a transaction.
type Repository interface {
	GetForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	SaveStatus(ctx context.Context, o *domain.Order, entry domain.OrderHistoryEntry) error
	SetCourier(ctx context.Context, orderID, courierID int64, etaMinutes *int) error
	// MarkProcessed records an event id for a consumer group and reports
	// whether it was seen for the first time.
	MarkProcessed(ctx context.Context, group, eventID string) (bool, error)
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}

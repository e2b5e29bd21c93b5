package delivery

import (
	"context"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/deliverytx"
)

type deliveryRepository interface {
	deliverytx.Runner
	CreatePending(ctx context.Context, d *domain.Delivery) (*domain.Delivery, bool, error)
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
	GetByOrder(ctx context.Context, orderID int64) (*domain.Delivery, error)
	ListPendingIDs(ctx context.Context, afterID int64, limit int) ([]int64, error)
}

type assigner interface {
	Assign(ctx context.Context, d *domain.Delivery) (bool, error)
}

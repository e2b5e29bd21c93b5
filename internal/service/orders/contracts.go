package orders

import (
	"context"

	"food-delivery/internal/domain"
	"food-delivery/internal/ports/ordertx"
)

type orderRepository interface {
	ordertx.Runner
	Create(ctx context.Context, o *domain.Order) error
	Get(ctx context.Context, id int64) (*domain.Order, error)
}

package handlers

import (
	"context"

	"food-delivery/internal/domain"
	"food-delivery/internal/service/delivery"
	"food-delivery/internal/service/orders"
	"food-delivery/internal/service/payment"
)

type orderUsecase interface {
	Place(ctx context.Context, req orders.PlaceRequest) (*domain.Order, error)
	Get(ctx context.Context, id, userID int64) (*domain.Order, error)
	History(ctx context.Context, id, userID int64) ([]domain.OrderHistoryEntry, error)
	UpdateStatus(ctx context.Context, id, actorID int64, next domain.OrderStatus, comment string) (*domain.Order, error)
	Cancel(ctx context.Context, id, userID int64, reason string) (*domain.Order, error)
}

type deliveryUsecase interface {
	Get(ctx context.Context, id int64) (*domain.Delivery, error)
	GetByOrder(ctx context.Context, orderID int64) (*domain.Delivery, error)
	MarkPickedUp(ctx context.Context, id int64) (*domain.Delivery, error)
	MarkDelivered(ctx context.Context, id int64) (*domain.Delivery, error)
	Cancel(ctx context.Context, id int64, reason string) (*domain.Delivery, error)
	Rate(ctx context.Context, id, userID int64, rating int) (*domain.Delivery, error)
	RetryPending(ctx context.Context) (delivery.RetryResult, error)
}

type courierUsecase interface {
	Get(ctx context.Context, id int64) (*domain.Courier, error)
	List(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error)
	Register(ctx context.Context, c *domain.Courier) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error)
	UpdateLocation(ctx context.Context, id int64, p domain.Point) error
}

type paymentUsecase interface {
	Process(ctx context.Context, req payment.ProcessRequest) (*domain.Payment, error)
	GetByOrder(ctx context.Context, orderID int64) (*domain.Payment, error)
}

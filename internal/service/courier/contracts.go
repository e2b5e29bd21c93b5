package courier

import (
	"context"
	"time"

	"food-delivery/internal/domain"
)

// courierRepository defines storage operations required by the business layer.
type courierRepository interface {
	Get(ctx context.Context, id int64) (*domain.Courier, error)
	List(ctx context.Context, limit, offset *int, status *domain.CourierStatus) ([]domain.Courier, error)
	Create(ctx context.Context, c *domain.Courier) (int64, error)
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate) (bool, error)
	UpdateStatus(ctx context.Context, id int64, status domain.CourierStatus) (domain.CourierStatus, error)
	UpdateLocation(ctx context.Context, id int64, p domain.Point, at time.Time) error
}

// locationTracker writes to the live location store without blocking.
type locationTracker interface {
	Track(courierID int64, p domain.Point)
	Forget(courierID int64)
}

package assignment

import (
	"context"

	"food-delivery/internal/domain"
	"food-delivery/internal/geo"
)

//go:generate mockgen -source=contracts.go -destination=mocks_test.go -package=assignment

type locator interface {
	Nearby(ctx context.Context, center domain.Point, radiusKm float64, limit int) ([]geo.Nearby, error)
}

//go:generate mockgen -source=gateways.go -destination=mocks_test.go -package=orders

package orders

import (
	"context"

	"github.com/shopspring/decimal"

	"food-delivery/internal/gateway/upstream"
)

type catalog interface {
	MenuItems(ctx context.Context, ids []int64) (map[int64]upstream.MenuItem, error)
	RestaurantLocation(ctx context.Context, restaurantID int64) upstream.Location
}

type addressBook interface {
	AddressLocation(ctx context.Context, addressID int64) upstream.Location
}

type promotions interface {
	Discount(ctx context.Context, req upstream.PromoRequest) (decimal.Decimal, error)
}

package orders

import (
	"math"

	"github.com/shopspring/decimal"

	"food-delivery/internal/domain"
	"food-delivery/internal/gateway/upstream"
)

// Pricing turns the pickup/drop-off distance into a delivery fee and an ETA.
type Pricing struct {
	BaseFee           decimal.Decimal
	FeePerKm          decimal.Decimal
	DefaultDistanceKm float64
	PrepMinutes       int
	MinutesPerKm      float64
}

// DefaultPricing returns the standard tariff.
func DefaultPricing() Pricing {
	return Pricing{
		BaseFee:           decimal.RequireFromString("2.50"),
		FeePerKm:          decimal.RequireFromString("0.50"),
		DefaultDistanceKm: 5,
		PrepMinutes:       20,
		MinutesPerKm:      3,
	}
}

// Quote is a priced delivery.
type Quote struct {
	DistanceKm  float64
	Fee         decimal.Decimal
	ETAMinutes  int
	Approximate bool
}

// Quote prices a delivery between two locations. When either side is
// unknown the default distance is used and the quote is approximate.
func (p Pricing) Quote(pickup, dropoff upstream.Location) Quote {
	km, approx := p.DefaultDistanceKm, true
	if pickup.Known && dropoff.Known {
		km, approx = domain.HaversineKm(pickup.Point, dropoff.Point), false
	}
	fee := p.BaseFee.Add(p.FeePerKm.Mul(decimal.NewFromFloat(km))).Round(2)
	return Quote{
		DistanceKm:  km,
		Fee:         fee,
		ETAMinutes:  p.PrepMinutes + int(math.Ceil(km*p.MinutesPerKm)),
		Approximate: approx,
	}
}

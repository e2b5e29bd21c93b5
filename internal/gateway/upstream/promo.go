package upstream

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"food-delivery/internal/apperr"
	"food-delivery/internal/gateway/guard"
)

// PromoRequest asks whether a code applies to an order being placed.
type PromoRequest struct {
	Code        string          `json:"code"`
	UserID      int64           `json:"userId"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	DeliveryFee decimal.Decimal `json:"deliveryFee"`
}

type promoReply struct {
	Valid    bool            `json:"valid"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message"`
}

// Promo talks to the promotions service, which owns discount rules.
type Promo struct {
	c     client
	guard *guard.Guard
}

// NewPromo builds a promo gateway rooted at baseURL.
func NewPromo(baseURL string, hc *http.Client, g *guard.Guard) *Promo {
	return &Promo{c: newClient(baseURL, hc), guard: g}
}

// Discount validates the code and returns the amount to take off.
// A rejected code is apperr.Invalid.
func (p *Promo) Discount(ctx context.Context, req PromoRequest) (decimal.Decimal, error) {
	var reply promoReply
	err := p.guard.Do(ctx, "Discount", func(ctx context.Context) error {
		reply = promoReply{}
		return p.c.postJSON(ctx, "/api/promo-codes/validate", req, &reply)
	})
	if err != nil {
		return decimal.Zero, classify(err)
	}
	if !reply.Valid {
		msg := reply.Message
		if msg == "" {
			msg = "promo code is not valid"
		}
		return decimal.Zero, fmt.Errorf("%w: %s", apperr.Invalid, msg)
	}
	if reply.Discount.IsNegative() {
		return decimal.Zero, nil
	}
	return reply.Discount, nil
}

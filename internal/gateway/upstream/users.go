package upstream

import (
	"context"
	"net/http"
	"strconv"

	"food-delivery/internal/gateway/guard"
	"food-delivery/internal/logx"
)

// Users talks to the user profile service.
type Users struct {
	c      client
	guard  *guard.Guard
	logger logx.Logger
}

// NewUsers builds a users gateway rooted at baseURL.
func NewUsers(baseURL string, hc *http.Client, g *guard.Guard, logger logx.Logger) *Users {
	return &Users{c: newClient(baseURL, hc), guard: g, logger: logger}
}

// AddressLocation returns the coordinate of a delivery address, or an
// unknown location when the lookup fails.
func (u *Users) AddressLocation(ctx context.Context, addressID int64) Location {
	var body coordinates
	err := u.guard.Do(ctx, "AddressLocation", func(ctx context.Context) error {
		body = coordinates{}
		return u.c.getJSON(ctx, "/api/addresses/"+strconv.FormatInt(addressID, 10), nil, &body)
	})
	if err != nil {
		u.logger.Warn("address location unavailable",
			logx.Int64("address_id", addressID), logx.Err(err))
		return Location{}
	}
	return body.location()
}

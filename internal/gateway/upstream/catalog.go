package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/gateway/guard"
	"food-delivery/internal/logx"
)

// MenuItem is the catalog view of a dish at order time.
type MenuItem struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Available *bool           `json:"available,omitempty"`
}

// Orderable reports whether the item may be ordered. A missing flag means yes.
func (m MenuItem) Orderable() bool { return m.Available == nil || *m.Available }

// Location is a coordinate lookup result. Known is false when the upstream
// could not provide one; Point is then zero and must not be used.
type Location struct {
	Point domain.Point
	Known bool
}

type coordinates struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

func (c coordinates) location() Location {
	if c.Latitude == nil || c.Longitude == nil {
		return Location{}
	}
	p := domain.Point{Lat: *c.Latitude, Lon: *c.Longitude}
	if !p.Valid() {
		return Location{}
	}
	return Location{Point: p, Known: true}
}

// Catalog talks to the restaurant catalog service.
type Catalog struct {
	c      client
	guard  *guard.Guard
	logger logx.Logger
}

// NewCatalog builds a catalog gateway rooted at baseURL.
func NewCatalog(baseURL string, hc *http.Client, g *guard.Guard, logger logx.Logger) *Catalog {
	return &Catalog{c: newClient(baseURL, hc), guard: g, logger: logger}
}

// MenuItems fetches the given dishes in one call, keyed by id. Ids unknown
// to the catalog are absent from the result.
func (c *Catalog) MenuItems(ctx context.Context, ids []int64) (map[int64]MenuItem, error) {
	if len(ids) == 0 {
		return map[int64]MenuItem{}, nil
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	q := url.Values{"ids": []string{strings.Join(parts, ",")}}

	var raw map[string]MenuItem
	err := c.guard.Do(ctx, "MenuItems", func(ctx context.Context) error {
		raw = nil
		return c.c.getJSON(ctx, "/api/menu-items/batch", q, &raw)
	})
	if err != nil {
		return nil, classify(err)
	}

	out := make(map[int64]MenuItem, len(raw))
	for k, item := range raw {
		id, perr := strconv.ParseInt(k, 10, 64)
		if perr != nil {
			return nil, fmt.Errorf("catalog: bad menu item key %q: %w", k, perr)
		}
		item.ID = id
		out[id] = item
	}
	return out, nil
}

// RestaurantLocation returns the restaurant's coordinate. Any failure yields
// an unknown location rather than an error.
func (c *Catalog) RestaurantLocation(ctx context.Context, restaurantID int64) Location {
	var body coordinates
	err := c.guard.Do(ctx, "RestaurantLocation", func(ctx context.Context) error {
		body = coordinates{}
		return c.c.getJSON(ctx, "/api/restaurants/"+strconv.FormatInt(restaurantID, 10), nil, &body)
	})
	if err != nil {
		c.logger.Warn("restaurant location unavailable",
			logx.Int64("restaurant_id", restaurantID), logx.Err(err))
		return Location{}
	}
	return body.location()
}

// classify maps client-side upstream rejections to apperr.Invalid.
func classify(err error) error {
	if errors.Is(err, apperr.Unavailable) {
		return err
	}
	var se *guard.StatusError
	if errors.As(err, &se) && se.Code >= 400 && se.Code < 500 {
		return fmt.Errorf("%w: %s", apperr.Invalid, se.Error())
	}
	return err
}

package orders

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"food-delivery/internal/apperr"
	"food-delivery/internal/domain"
	"food-delivery/internal/events"
	"food-delivery/internal/gateway/upstream"
	"food-delivery/internal/logx"
	"food-delivery/internal/ports/ordertx"
	"food-delivery/internal/transport/kafka"
)

// ItemRequest is a single requested line.
type ItemRequest struct {
	MenuItemID int64
	Quantity   int
}

// PlaceRequest is a customer's order.
type PlaceRequest struct {
	UserID            int64
	RestaurantID      int64
	DeliveryAddressID int64
	Items             []ItemRequest
	PromoCode         string
}

// Gateways bundles the upstream collaborators used when placing an order.
type Gateways struct {
	Catalog   catalog
	Addresses addressBook
	Promo     promotions
}

// Service - order placement and human-driven status changes.
type Service struct {
	repo             orderRepository
	gw               Gateways
	pricing          Pricing
	publisher        kafka.Publisher
	topics           events.Topics
	operationTimeout time.Duration
	logger           logx.Logger
	now              func() time.Time
}

// NewService - creates a new order Service.
func NewService(repo orderRepository, gw Gateways, pricing Pricing, pub kafka.Publisher,
	topics events.Topics, timeout time.Duration, logger logx.Logger) *Service {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if pub == nil {
		pub = kafka.NopPublisher{}
	}
	return &Service{
		repo:             repo,
		gw:               gw,
		pricing:          pricing,
		publisher:        pub,
		topics:           topics,
		operationTimeout: timeout,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

func validatePlace(req PlaceRequest) error {
	if req.UserID <= 0 || req.RestaurantID <= 0 || req.DeliveryAddressID <= 0 {
		return fmt.Errorf("%w: user, restaurant and address are required", apperr.Invalid)
	}
	if len(req.Items) == 0 {
		return fmt.Errorf("%w: order must contain at least one item", apperr.Invalid)
	}
	for _, it := range req.Items {
		if it.MenuItemID <= 0 {
			return fmt.Errorf("%w: menu item id is required", apperr.Invalid)
		}
		if it.Quantity < 1 {
			return fmt.Errorf("%w: quantity of item %d must be at least 1", apperr.Invalid, it.MenuItemID)
		}
	}
	return nil
}

// Place prices and stores a new order in CREATED and announces it.
func (s *Service) Place(ctx context.Context, req PlaceRequest) (*domain.Order, error) {
	if err := validatePlace(req); err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	items, err := s.lineItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	var pickup, dropoff upstream.Location
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		pickup = s.gw.Catalog.RestaurantLocation(gctx, req.RestaurantID)
		return nil
	})
	g.Go(func() error {
		dropoff = s.gw.Addresses.AddressLocation(gctx, req.DeliveryAddressID)
		return nil
	})
	_ = g.Wait()

	quote := s.pricing.Quote(pickup, dropoff)
	if quote.Approximate {
		s.logger.Info("delivery priced with default distance",
			logx.Int64("restaurant_id", req.RestaurantID),
			logx.Int64("address_id", req.DeliveryAddressID))
	}

	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal())
	}

	discount := decimal.Zero
	code := strings.TrimSpace(req.PromoCode)
	if code != "" {
		discount, err = s.gw.Promo.Discount(ctx, upstream.PromoRequest{
			Code:        code,
			UserID:      req.UserID,
			Subtotal:    subtotal,
			DeliveryFee: quote.Fee,
		})
		if err != nil {
			return nil, err
		}
	}

	o := domain.NewOrder(req.UserID, req.RestaurantID, req.DeliveryAddressID, items, quote.Fee, discount, s.now())
	o.PromoCode = code
	eta := quote.ETAMinutes
	o.EstimatedDeliveryMinutes = &eta

	if err := s.repo.Create(ctx, o); err != nil {
		return nil, err
	}
	s.logger.Info("order created",
		logx.Int64("order_id", o.ID),
		logx.Int64("user_id", o.UserID),
		logx.String("total", o.Total.StringFixed(2)))

	ev := events.OrderCreated{
		Meta:              events.NewMeta(events.TypeOrderCreated, s.now()),
		OrderID:           o.ID,
		UserID:            o.UserID,
		RestaurantID:      o.RestaurantID,
		DeliveryAddressID: o.DeliveryAddressID,
		TotalAmount:       o.Total,
	}
	if pickup.Known {
		ev.PickupLat, ev.PickupLon = events.Float(pickup.Point.Lat), events.Float(pickup.Point.Lon)
	}
	if dropoff.Known {
		ev.DeliveryLat, ev.DeliveryLon = events.Float(dropoff.Point.Lat), events.Float(dropoff.Point.Lon)
	}
	s.publisher.Publish(ctx, s.topics.OrderCreated, ev)
	return o, nil
}

// lineItems snapshots names and prices from the catalog, one call per order.
func (s *Service) lineItems(ctx context.Context, reqs []ItemRequest) ([]domain.OrderItem, error) {
	seen := make(map[int64]struct{}, len(reqs))
	ids := make([]int64, 0, len(reqs))
	for _, r := range reqs {
		if _, ok := seen[r.MenuItemID]; !ok {
			seen[r.MenuItemID] = struct{}{}
			ids = append(ids, r.MenuItemID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	menu, err := s.gw.Catalog.MenuItems(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.OrderItem, 0, len(reqs))
	for _, r := range reqs {
		m, ok := menu[r.MenuItemID]
		if !ok {
			return nil, fmt.Errorf("%w: menu item not found: %d", apperr.Invalid, r.MenuItemID)
		}
		if !m.Orderable() {
			return nil, fmt.Errorf("%w: menu item not available: %d", apperr.Invalid, r.MenuItemID)
		}
		out = append(out, domain.OrderItem{
			MenuItemID: r.MenuItemID,
			Name:       m.Name,
			UnitPrice:  m.Price,
			Quantity:   r.Quantity,
		})
	}
	return out, nil
}

// Get returns an order owned by userID.
func (s *Service) Get(ctx context.Context, id, userID int64) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.NotFound
	}
	if !o.OwnedBy(userID) {
		return nil, apperr.Forbidden
	}
	return o, nil
}

// History returns the status history of an order owned by userID.
func (s *Service) History(ctx context.Context, id, userID int64) ([]domain.OrderHistoryEntry, error) {
	o, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return o.History, nil
}

// UpdateStatus moves an order along the lifecycle on behalf of actorID.
// Ownership is not checked here; restaurant and staff tools drive these steps.
func (s *Service) UpdateStatus(ctx context.Context, id, actorID int64, next domain.OrderStatus, comment string) (*domain.Order, error) {
	if !next.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", apperr.Invalid, next)
	}
	if comment == "" {
		comment = "Status changed to " + string(next)
	}
	return s.changeStatus(ctx, id, actorID, next, comment, nil)
}

// Cancel cancels an order. Only its owner may do so.
func (s *Service) Cancel(ctx context.Context, id, userID int64, reason string) (*domain.Order, error) {
	if reason == "" {
		reason = "Cancelled by customer"
	}
	return s.changeStatus(ctx, id, userID, domain.OrderCancelled, reason, func(o *domain.Order) error {
		if !o.OwnedBy(userID) {
			return apperr.Forbidden
		}
		return nil
	})
}

func (s *Service) changeStatus(ctx context.Context, id, actorID int64, next domain.OrderStatus,
	comment string, authorize func(*domain.Order) error) (*domain.Order, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var (
		o   *domain.Order
		old domain.OrderStatus
	)
	err := s.repo.WithTx(ctx, func(tx ordertx.Repository) error {
		var err error
		o, err = tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if o == nil {
			return apperr.NotFound
		}
		if authorize != nil {
			if err := authorize(o); err != nil {
				return err
			}
		}
		old = o.Status
		entry, err := o.Transition(next, &actorID, comment, s.now())
		if err != nil {
			return err
		}
		return tx.SaveStatus(ctx, o, entry)
	})
	if err != nil {
		var te *domain.InvalidTransitionError
		if errors.As(err, &te) {
			s.logger.Info("order transition rejected",
				logx.Int64("order_id", id),
				logx.String("from", string(te.From)),
				logx.String("to", string(te.To)))
		}
		return nil, err
	}

	s.logger.Info("order status changed",
		logx.Int64("order_id", o.ID),
		logx.String("from", string(old)),
		logx.String("to", string(next)))
	publishStatusChanged(ctx, s.publisher, s.topics, o, old, &actorID, comment, s.now())
	return o, nil
}

func publishStatusChanged(ctx context.Context, pub kafka.Publisher, topics events.Topics,
	o *domain.Order, old domain.OrderStatus, actor *int64, reason string, now time.Time) {
	ev := events.OrderStatusChanged{
		Meta:      events.NewMeta(events.TypeOrderStatusChanged, now),
		OrderID:   o.ID,
		UserID:    o.UserID,
		OldStatus: string(old),
		NewStatus: string(o.Status),
		ChangedBy: actor,
	}
	if o.Status == domain.OrderCancelled {
		ev.Reason = reason
	}
	pub.Publish(ctx, topics.OrderStatusChanged, ev)
}

package events

import (
	"errors"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"food-delivery/internal/domain"
)

// Event type tags.
const (
	TypeOrderCreated       = "ORDER_CREATED"
	TypeOrderStatusChanged = "ORDER_STATUS_CHANGED"
	TypePaymentProcessed   = "PAYMENT_PROCESSED"
	TypePaymentFailed      = "PAYMENT_FAILED"
	TypeDeliveryAssigned   = "DELIVERY_ASSIGNED"
	TypeDeliveryPickedUp   = "DELIVERY_PICKED_UP"
	TypeDeliveryDelivered  = "DELIVERY_DELIVERED"
)

// Meta is carried by every event. Consumers key idempotency off EventID.
type Meta struct {
	EventID   string    `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"eventType"`
}

// NewMeta stamps a fresh event id.
func NewMeta(eventType string, now time.Time) Meta {
	return Meta{
		EventID:   uuid.NewString(),
		Timestamp: now.UTC(),
		EventType: eventType,
	}
}

// Header returns the envelope fields.
func (m Meta) Header() Meta { return m }

// Validate checks the envelope is usable for idempotency.
func (m Meta) Validate() error {
	if m.EventID == "" {
		return errors.New("event id is empty")
	}
	if m.EventType == "" {
		return errors.New("event type is empty")
	}
	return nil
}

// Event is anything that can be published.
type Event interface {
	Header() Meta
	// Key is the aggregate key used for partitioning.
	Key() string
}

func orderKey(id int64) string { return strconv.FormatInt(id, 10) }

// OrderCreated is emitted once an order is persisted in CREATED.
type OrderCreated struct {
	Meta
	OrderID           int64           `json:"orderId"`
	UserID            int64           `json:"userId"`
	RestaurantID      int64           `json:"restaurantId"`
	DeliveryAddressID int64           `json:"deliveryAddressId"`
	TotalAmount       decimal.Decimal `json:"totalAmount"`
	PickupLat         *float64        `json:"pickupLat,omitempty"`
	PickupLon         *float64        `json:"pickupLon,omitempty"`
	DeliveryLat       *float64        `json:"deliveryLat,omitempty"`
	DeliveryLon       *float64        `json:"deliveryLon,omitempty"`
}

// Key implements Event.
func (e OrderCreated) Key() string { return orderKey(e.OrderID) }

// Pickup returns the restaurant coordinate if it was known at order time.
func (e OrderCreated) Pickup() (domain.Point, bool) {
	if e.PickupLat == nil || e.PickupLon == nil {
		return domain.Point{}, false
	}
	return domain.Point{Lat: *e.PickupLat, Lon: *e.PickupLon}, true
}

// Dropoff returns the delivery address coordinate or nil.
func (e OrderCreated) Dropoff() *domain.Point {
	if e.DeliveryLat == nil || e.DeliveryLon == nil {
		return nil
	}
	return &domain.Point{Lat: *e.DeliveryLat, Lon: *e.DeliveryLon}
}

// OrderStatusChanged is emitted after every committed order transition.
type OrderStatusChanged struct {
	Meta
	OrderID   int64  `json:"orderId"`
	UserID    int64  `json:"userId"`
	OldStatus string `json:"oldStatus"`
	NewStatus string `json:"newStatus"`
	ChangedBy *int64 `json:"changedBy,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// Key implements Event.
func (e OrderStatusChanged) Key() string { return orderKey(e.OrderID) }

// PaymentProcessed is emitted when a payment completes.
type PaymentProcessed struct {
	Meta
	PaymentID     int64           `json:"paymentId"`
	OrderID       int64           `json:"orderId"`
	UserID        int64           `json:"userId"`
	Amount        decimal.Decimal `json:"amount"`
	Method        string          `json:"method"`
	TransactionID string          `json:"transactionId"`
}

// Key implements Event.
func (e PaymentProcessed) Key() string { return orderKey(e.OrderID) }

// PaymentFailed is emitted when a payment attempt is declined.
type PaymentFailed struct {
	Meta
	PaymentID    int64           `json:"paymentId"`
	OrderID      int64           `json:"orderId"`
	UserID       int64           `json:"userId"`
	Amount       decimal.Decimal `json:"amount"`
	Method       string          `json:"method"`
	ErrorMessage string          `json:"errorMessage"`
}

// Key implements Event.
func (e PaymentFailed) Key() string { return orderKey(e.OrderID) }

// DeliveryAssigned is emitted after a courier was reserved for a delivery.
type DeliveryAssigned struct {
	Meta
	DeliveryID           int64 `json:"deliveryId"`
	OrderID              int64 `json:"orderId"`
	CourierID            int64 `json:"courierId"`
	UserID               int64 `json:"userId"`
	EstimatedTimeMinutes int   `json:"estimatedTimeMinutes"`
}

// Key implements Event.
func (e DeliveryAssigned) Key() string { return orderKey(e.OrderID) }

// DeliveryPickedUp is emitted when the courier collects the order.
type DeliveryPickedUp struct {
	Meta
	DeliveryID int64 `json:"deliveryId"`
	OrderID    int64 `json:"orderId"`
	CourierID  int64 `json:"courierId"`
	UserID     int64 `json:"userId"`
}

// Key implements Event.
func (e DeliveryPickedUp) Key() string { return orderKey(e.OrderID) }

// DeliveryDelivered is emitted when the order reaches the customer.
type DeliveryDelivered struct {
	Meta
	DeliveryID int64 `json:"deliveryId"`
	OrderID    int64 `json:"orderId"`
	CourierID  int64 `json:"courierId"`
	UserID     int64 `json:"userId"`
}

// Key implements Event.
func (e DeliveryDelivered) Key() string { return orderKey(e.OrderID) }

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

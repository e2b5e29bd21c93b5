package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus is a step of the order lifecycle.
type OrderStatus string

// Order statuses.
const (
	OrderCreated   OrderStatus = "CREATED"
	OrderConfirmed OrderStatus = "CONFIRMED"
	OrderPreparing OrderStatus = "PREPARING"
	OrderReady     OrderStatus = "READY"
	OrderPickedUp  OrderStatus = "PICKED_UP"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

var orderStatuses = [...]OrderStatus{
	OrderCreated, OrderConfirmed, OrderPreparing, OrderReady,
	OrderPickedUp, OrderDelivered, OrderCancelled,
}

// OrderStatuses returns every known order status in lifecycle order.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, len(orderStatuses))
	copy(out, orderStatuses[:])
	return out
}

// Valid checks if the OrderStatus is one of the known statuses.
func (s OrderStatus) Valid() bool {
	for _, v := range orderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are allowed.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// OrderItem is a line item with the name and price captured when the order was placed.
type OrderItem struct {
	ID         int64
	MenuItemID int64
	Name       string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Subtotal returns UnitPrice * Quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderHistoryEntry records a single status change. ChangedBy is nil for
// system-driven transitions.
type OrderHistoryEntry struct {
	ID        int64
	OrderID   int64
	Status    OrderStatus
	ChangedBy *int64
	Comment   string
	CreatedAt time.Time
}

// Order is the order aggregate.
type Order struct {
	ID                int64
	UserID            int64
	RestaurantID      int64
	DeliveryAddressID int64

	Subtotal    decimal.Decimal
	DeliveryFee decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	PromoCode   string

	Status OrderStatus

	// filled from delivery events
	CourierID                *int64
	EstimatedDeliveryMinutes *int

	Items   []OrderItem
	History []OrderHistoryEntry

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewOrder builds an order in CREATED with its first history entry.
// Total never goes below zero.
func NewOrder(userID, restaurantID, addressID int64, items []OrderItem, fee, discount decimal.Decimal, now time.Time) *Order {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(it.Subtotal())
	}
	total := subtotal.Add(fee).Sub(discount)
	if total.IsNegative() {
		total = decimal.Zero
	}

	actor := userID
	return &Order{
		UserID:            userID,
		RestaurantID:      restaurantID,
		DeliveryAddressID: addressID,
		Subtotal:          subtotal,
		DeliveryFee:       fee,
		Discount:          discount,
		Total:             total,
		Status:            OrderCreated,
		Items:             items,
		History: []OrderHistoryEntry{{
			Status:    OrderCreated,
			ChangedBy: &actor,
			Comment:   "Order created",
			CreatedAt: now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition validates and applies next, appending a history entry.
// The order is left untouched when the transition is rejected.
func (o *Order) Transition(next OrderStatus, actor *int64, comment string, at time.Time) (OrderHistoryEntry, error) {
	if err := ValidateTransition(o.Status, next); err != nil {
		return OrderHistoryEntry{}, err
	}
	entry := OrderHistoryEntry{
		OrderID:   o.ID,
		Status:    next,
		ChangedBy: actor,
		Comment:   comment,
		CreatedAt: at,
	}
	o.Status = next
	o.UpdatedAt = at
	o.History = append(o.History, entry)
	return entry, nil
}

// OwnedBy reports whether userID placed the order.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID == userID
}

package domain

import (
	"fmt"
	"time"

	"food-delivery/internal/apperr"
)

// DeliveryStatus is the state of a delivery.
type DeliveryStatus string

// Delivery statuses.
const (
	DeliveryPending   DeliveryStatus = "PENDING"
	DeliveryAssigned  DeliveryStatus = "ASSIGNED"
	DeliveryInTransit DeliveryStatus = "IN_TRANSIT"
	DeliveryDelivered DeliveryStatus = "DELIVERED"
	DeliveryCancelled DeliveryStatus = "CANCELLED"
)

// Active reports whether the delivery occupies its courier.
func (s DeliveryStatus) Active() bool {
	return s == DeliveryAssigned || s == DeliveryInTransit
}

// Terminal reports whether the delivery is finished.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled
}

// Delivery is 1:1 with an order.
type Delivery struct {
	ID        int64
	OrderID   int64
	UserID    int64
	CourierID *int64
	Status    DeliveryStatus

	Pickup  Point
	Dropoff *Point

	EstimatedDistanceMeters *int
	EstimatedTimeMinutes    *int
	Rating                  *int
	CancelReason            string

	AssignedAt  *time.Time
	PickedUpAt  *time.Time
	DeliveredAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewPendingDelivery returns a delivery waiting for a courier.
func NewPendingDelivery(orderID, userID int64, pickup Point, dropoff *Point, now time.Time) *Delivery {
	return &Delivery{
		OrderID:   orderID,
		UserID:    userID,
		Status:    DeliveryPending,
		Pickup:    pickup,
		Dropoff:   dropoff,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (d *Delivery) reject(op string) error {
	return fmt.Errorf("delivery %d: cannot %s in status %s: %w", d.ID, op, d.Status, apperr.InvalidState)
}

// PickUp moves ASSIGNED to IN_TRANSIT.
func (d *Delivery) PickUp(now time.Time) error {
	if d.Status != DeliveryAssigned {
		return d.reject("pick up")
	}
	d.Status = DeliveryInTransit
	d.PickedUpAt = &now
	d.UpdatedAt = now
	return nil
}

// Deliver moves IN_TRANSIT to DELIVERED.
func (d *Delivery) Deliver(now time.Time) error {
	if d.Status != DeliveryInTransit {
		return d.reject("deliver")
	}
	d.Status = DeliveryDelivered
	d.DeliveredAt = &now
	d.UpdatedAt = now
	return nil
}

// Cancel ends a delivery that has not finished yet.
func (d *Delivery) Cancel(reason string, now time.Time) error {
	if d.Status.Terminal() {
		return d.reject("cancel")
	}
	d.Status = DeliveryCancelled
	d.CancelReason = reason
	d.UpdatedAt = now
	return nil
}

// Rate stores the customer rating of a finished delivery.
func (d *Delivery) Rate(rating int, now time.Time) error {
	if rating < 1 || rating > 5 {
		return fmt.Errorf("rating %d out of range 1..5: %w", rating, apperr.Invalid)
	}
	if d.Status != DeliveryDelivered {
		return d.reject("rate")
	}
	if d.Rating != nil {
		return fmt.Errorf("delivery %d already rated: %w", d.ID, apperr.Conflict)
	}
	d.Rating = &rating
	d.UpdatedAt = now
	return nil
}

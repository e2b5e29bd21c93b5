package domain

import (
	"fmt"

	"food-delivery/internal/apperr"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderCreated:   {OrderConfirmed, OrderCancelled},
	OrderConfirmed: {OrderPreparing, OrderCancelled},
	OrderPreparing: {OrderReady, OrderCancelled},
	OrderReady:     {OrderPickedUp, OrderCancelled},
	OrderPickedUp:  {OrderDelivered, OrderCancelled},
	OrderDelivered: nil,
	OrderCancelled: nil,
}

// InvalidTransitionError is returned by ValidateTransition.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order status transition from %s to %s", e.From, e.To)
}

// Unwrap lets callers match apperr.InvalidState.
func (e *InvalidTransitionError) Unwrap() error { return apperr.InvalidState }

// IsValidTransition reports whether the graph has an edge current -> next.
// Empty statuses are a programming error and panic.
func IsValidTransition(current, next OrderStatus) bool {
	mustStatus("current", current)
	mustStatus("next", next)

	for _, s := range orderTransitions[current] {
		if s == next {
			return true
		}
	}
	return false
}

// ValidateTransition returns *InvalidTransitionError when current -> next is not allowed.
func ValidateTransition(current, next OrderStatus) error {
	if !IsValidTransition(current, next) {
		return &InvalidTransitionError{From: current, To: next}
	}
	return nil
}

// AllowedTransitions returns the statuses reachable from s in one step.
func AllowedTransitions(s OrderStatus) []OrderStatus {
	next := orderTransitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

func mustStatus(name string, s OrderStatus) {
	if s == "" {
		panic("domain: " + name + " order status is required")
	}
}

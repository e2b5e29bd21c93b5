package handlers

import (
	"time"

	"food-delivery/internal/domain"
)

type rateDeliveryRequest struct {
	Rating int `json:"rating"`
}

type deliveryDTO struct {
	ID                      int64         `json:"id"`
	OrderID                 int64         `json:"order_id"`
	UserID                  int64         `json:"user_id"`
	CourierID               *int64        `json:"courier_id,omitempty"`
	Status                  string        `json:"status"`
	Pickup                  domain.Point  `json:"pickup"`
	Dropoff                 *domain.Point `json:"dropoff,omitempty"`
	EstimatedDistanceMeters *int          `json:"estimated_distance_meters,omitempty"`
	EstimatedTimeMinutes    *int          `json:"estimated_time_minutes,omitempty"`
	Rating                  *int          `json:"rating,omitempty"`
	CancelReason            string        `json:"cancel_reason,omitempty"`
	AssignedAt              *time.Time    `json:"assigned_at,omitempty"`
	PickedUpAt              *time.Time    `json:"picked_up_at,omitempty"`
	DeliveredAt             *time.Time    `json:"delivered_at,omitempty"`
	CreatedAt               time.Time     `json:"created_at"`
	UpdatedAt               time.Time     `json:"updated_at"`
}

func deliveryToResponse(d *domain.Delivery) deliveryDTO {
	return deliveryDTO{
		ID:                      d.ID,
		OrderID:                 d.OrderID,
		UserID:                  d.UserID,
		CourierID:               d.CourierID,
		Status:                  string(d.Status),
		Pickup:                  d.Pickup,
		Dropoff:                 d.Dropoff,
		EstimatedDistanceMeters: d.EstimatedDistanceMeters,
		EstimatedTimeMinutes:    d.EstimatedTimeMinutes,
		Rating:                  d.Rating,
		CancelReason:            d.CancelReason,
		AssignedAt:              d.AssignedAt,
		PickedUpAt:              d.PickedUpAt,
		DeliveredAt:             d.DeliveredAt,
		CreatedAt:               d.CreatedAt,
		UpdatedAt:               d.UpdatedAt,
	}
}

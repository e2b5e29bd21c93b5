package handlers

import (
	"time"

	"food-delivery/internal/domain"
)

type courierDTO struct {
	ID                int64                       `json:"id"`
	UserID            int64                       `json:"user_id"`
	Name              string                      `json:"name"`
	Phone             string                      `json:"phone"`
	Status            domain.CourierStatus        `json:"status"`
	TransportType     domain.CourierTransportType `json:"transport_type"`
	Location          *domain.Point               `json:"location,omitempty"`
	LocationUpdatedAt *time.Time                  `json:"location_updated_at,omitempty"`
	AverageRating     float64                     `json:"average_rating"`
	RatingCount       int                         `json:"rating_count"`
	TotalDeliveries   int                         `json:"total_deliveries"`
}

type createCourierRequest struct {
	Name          string                      `json:"name"`
	Phone         string                      `json:"phone"`
	TransportType domain.CourierTransportType `json:"transport_type"`
}

type updateCourierRequest struct {
	Name          *string                      `json:"name,omitempty"`
	Phone         *string                      `json:"phone,omitempty"`
	TransportType *domain.CourierTransportType `json:"transport_type,omitempty"`
}

type courierStatusRequest struct {
	Status string `json:"status"`
}

type courierStatusResponse struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
}

func (r createCourierRequest) toModel(userID int64) *domain.Courier {
	return &domain.Courier{
		UserID:        userID,
		Name:          r.Name,
		Phone:         r.Phone,
		TransportType: r.TransportType,
	}
}

func (r updateCourierRequest) toModel(id int64) domain.PartialCourierUpdate {
	return domain.PartialCourierUpdate{
		ID:            id,
		Name:          r.Name,
		Phone:         r.Phone,
		TransportType: r.TransportType,
	}
}

func modelToResponse(c domain.Courier) courierDTO {
	return courierDTO{
		ID:                c.ID,
		UserID:            c.UserID,
		Name:              c.Name,
		Phone:             c.Phone,
		Status:            c.Status,
		TransportType:     c.TransportType,
		Location:          c.Location,
		LocationUpdatedAt: c.LocationUpdatedAt,
		AverageRating:     c.AverageRating,
		RatingCount:       c.RatingCount,
		TotalDeliveries:   c.TotalDeliveries,
	}
}

func modelsToResponse(list []domain.Courier) []courierDTO {
	out := make([]courierDTO, 0, len(list))
	for _, c := range list {
		out = append(out, modelToResponse(c))
	}
	return out
}

package handlers

import (
	"time"

	"food-delivery/internal/domain"
	"food-delivery/internal/service/orders"
)

type orderItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
	Quantity   int   `json:"quantity"`
}

type placeOrderRequest struct {
	RestaurantID      int64              `json:"restaurant_id"`
	DeliveryAddressID int64              `json:"delivery_address_id"`
	Items             []orderItemRequest `json:"items"`
	PromoCode         string             `json:"promo_code,omitempty"`
}

type updateOrderStatusRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

type cancelRequest struct {
	Reason string `json:"reason,omitempty"`
}

type orderItemDTO struct {
	MenuItemID int64  `json:"menu_item_id"`
	Name       string `json:"name"`
	UnitPrice  string `json:"unit_price"`
	Quantity   int    `json:"quantity"`
	Subtotal   string `json:"subtotal"`
}

type orderDTO struct {
	ID                       int64          `json:"id"`
	UserID                   int64          `json:"user_id"`
	RestaurantID             int64          `json:"restaurant_id"`
	DeliveryAddressID        int64          `json:"delivery_address_id"`
	Status                   string         `json:"status"`
	Items                    []orderItemDTO `json:"items"`
	Subtotal                 string         `json:"subtotal"`
	DeliveryFee              string         `json:"delivery_fee"`
	Discount                 string         `json:"discount"`
	Total                    string         `json:"total"`
	PromoCode                string         `json:"promo_code,omitempty"`
	CourierID                *int64         `json:"courier_id,omitempty"`
	EstimatedDeliveryMinutes *int           `json:"estimated_delivery_minutes,omitempty"`
	CreatedAt                time.Time      `json:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at"`
}

type historyEntryDTO struct {
	Status    string    `json:"status"`
	ChangedBy *int64    `json:"changed_by,omitempty"`
	Comment   string    `json:"comment,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func (r placeOrderRequest) toModel(userID int64) orders.PlaceRequest {
	items := make([]orders.ItemRequest, 0, len(r.Items))
	for _, it := range r.Items {
		items = append(items, orders.ItemRequest{MenuItemID: it.MenuItemID, Quantity: it.Quantity})
	}
	return orders.PlaceRequest{
		UserID:            userID,
		RestaurantID:      r.RestaurantID,
		DeliveryAddressID: r.DeliveryAddressID,
		Items:             items,
		PromoCode:         r.PromoCode,
	}
}

func orderToResponse(o *domain.Order) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDTO{
			MenuItemID: it.MenuItemID,
			Name:       it.Name,
			UnitPrice:  it.UnitPrice.StringFixed(2),
			Quantity:   it.Quantity,
			Subtotal:   it.Subtotal().StringFixed(2),
		})
	}
	return orderDTO{
		ID:                       o.ID,
		UserID:                   o.UserID,
		RestaurantID:             o.RestaurantID,
		DeliveryAddressID:        o.DeliveryAddressID,
		Status:                   string(o.Status),
		Items:                    items,
		Subtotal:                 o.Subtotal.StringFixed(2),
		DeliveryFee:              o.DeliveryFee.StringFixed(2),
		Discount:                 o.Discount.StringFixed(2),
		Total:                    o.Total.StringFixed(2),
		PromoCode:                o.PromoCode,
		CourierID:                o.CourierID,
		EstimatedDeliveryMinutes: o.EstimatedDeliveryMinutes,
		CreatedAt:                o.CreatedAt,
		UpdatedAt:                o.UpdatedAt,
	}
}

func historyToResponse(list []domain.OrderHistoryEntry) []historyEntryDTO {
	out := make([]historyEntryDTO, 0, len(list))
	for _, e := range list {
		out = append(out, historyEntryDTO{
			Status:    string(e.Status),
			ChangedBy: e.ChangedBy,
			Comment:   e.Comment,
			CreatedAt: e.CreatedAt,
		})
	}
	return out
}

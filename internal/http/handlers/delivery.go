package handlers

import (
	"context"
	"net/http"

	"food-delivery/internal/domain"
	"food-delivery/internal/logx"
)

// DeliveryHandler handles HTTP requests for delivery resources.
type DeliveryHandler struct {
	usecase deliveryUsecase
	logger  logx.Logger
}

// NewDeliveryHandler creates a new DeliveryHandler.
func NewDeliveryHandler(logger logx.Logger, uc deliveryUsecase) *DeliveryHandler {
	return &DeliveryHandler{usecase: uc, logger: logger}
}

// Get handles GET /deliveries/{id}.
func (h *DeliveryHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "id", h.usecase.Get)
}

// GetByOrder handles GET /deliveries/order/{orderId}.
func (h *DeliveryHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "orderId", h.usecase.GetByOrder)
}

// PickUp handles POST /deliveries/{id}/pickup.
func (h *DeliveryHandler) PickUp(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "id", h.usecase.MarkPickedUp)
}

// Deliver handles POST /deliveries/{id}/deliver.
func (h *DeliveryHandler) Deliver(w http.ResponseWriter, r *http.Request) {
	h.byID(w, r, "id", h.usecase.MarkDelivered)
}

// Cancel handles POST /deliveries/{id}/cancel. The body is optional.
func (h *DeliveryHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req cancelRequest
	if ok := decodeOptionalJSON(h.logger, w, r, &req); !ok {
		return
	}
	reason := req.Reason
	if reason == "" {
		reason = "Cancelled by operator"
	}

	d, err := h.usecase.Cancel(r.Context(), id, reason)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// Rate handles POST /deliveries/{id}/rate.
func (h *DeliveryHandler) Rate(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(h.logger, w, r)
	if !ok {
		return
	}
	id, err := idFromURL(r, "id")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	var req rateDeliveryRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	d, err := h.usecase.Rate(r.Context(), id, uid, req.Rating)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

// RetryPending handles POST /deliveries/retry-pending.
func (h *DeliveryHandler) RetryPending(w http.ResponseWriter, r *http.Request) {
	res, err := h.usecase.RetryPending(r.Context())
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, res)
}

func (h *DeliveryHandler) byID(w http.ResponseWriter, r *http.Request, param string,
	fn func(context.Context, int64) (*domain.Delivery, error)) {
	id, err := idFromURL(r, param)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}
	d, err := fn(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, deliveryToResponse(d))
}

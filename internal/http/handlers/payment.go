package handlers

import (
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/internal/domain"
	"food-delivery/internal/logx"
	"food-delivery/internal/service/payment"
)

type processPaymentRequest struct {
	OrderID int64           `json:"order_id"`
	Amount  decimal.Decimal `json:"amount"`
	Method  string          `json:"method"`
}

type paymentDTO struct {
	ID            int64     `json:"id"`
	OrderID       int64     `json:"order_id"`
	UserID        int64     `json:"user_id"`
	Amount        string    `json:"amount"`
	Method        string    `json:"method"`
	Status        string    `json:"status"`
	TransactionID string    `json:"transaction_id,omitempty"`
	FailureReason string    `json:"failure_reason,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func paymentToResponse(p *domain.Payment) paymentDTO {
	return paymentDTO{
		ID:            p.ID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		Amount:        p.Amount.StringFixed(2),
		Method:        string(p.Method),
		Status:        string(p.Status),
		TransactionID: p.TransactionID,
		FailureReason: p.FailureReason,
		CreatedAt:     p.CreatedAt,
	}
}

// PaymentHandler serves the payment endpoints.
type PaymentHandler struct {
	uc     paymentUsecase
	logger logx.Logger
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(logger logx.Logger, uc paymentUsecase) *PaymentHandler {
	return &PaymentHandler{uc: uc, logger: logger}
}

// Process handles POST /payments. A declined charge is still 201 with
// status FAILED; only refusals before charging are errors.
func (h *PaymentHandler) Process(w http.ResponseWriter, r *http.Request) {
	uid, ok := requireUser(h.logger, w, r)
	if !ok {
		return
	}
	var req processPaymentRequest
	if ok := decodeJSON(h.logger, w, r, &req); !ok {
		return
	}

	p, err := h.uc.Process(r.Context(), payment.ProcessRequest{
		OrderID: req.OrderID,
		UserID:  uid,
		Amount:  req.Amount,
		Method:  domain.PaymentMethod(req.Method),
	})
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusCreated, paymentToResponse(p))
}

// GetByOrder handles GET /payments/order/{orderId}.
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	id, err := idFromURL(r, "orderId")
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid id")
		return
	}

	p, err := h.uc.GetByOrder(r.Context(), id)
	if err != nil {
		writeServiceError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, paymentToResponse(p))
}

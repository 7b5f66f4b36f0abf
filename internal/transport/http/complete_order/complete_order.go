package completeorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	orderrepo "github.com/inkwear/storefront/internal/dal/repositories/order/postgres"
	"github.com/inkwear/storefront/internal/service/services/checkoutsvc"
)

// service is an interface for the service layer.
type service interface {
	CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentRef string) (*checkoutsvc.CompleteOrderResult, error)
}

type completeOrderRequest struct {
	PaymentRef string `json:"paymentRef" validate:"required"`
}

// Validate validates the complete order request.
func (r *completeOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

type completeOrderResponse struct {
	Success        bool   `json:"success"`
	OrderID        string `json:"orderId,omitempty"`
	PaymentRef     string `json:"paymentRef,omitempty"`
	FulfillmentRef string `json:"fulfillmentRef,omitempty"`
	Error          string `json:"error,omitempty"`
}

// CompleteOrder captures the payment and finishes the order.
func CompleteOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)

		return
	}

	var req completeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Failed to decode request body", http.StatusBadRequest)
		slog.Error("Error decoding request body for complete order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for complete order", "error", err)

		return
	}

	result, err := service.CompleteOrder(r.Context(), orderID, req.PaymentRef)
	if err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, orderrepo.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.Is(err, checkoutsvc.ErrOrderNotPayable),
			errors.Is(err, checkoutsvc.ErrPaymentRefMismatch):
			status = http.StatusConflict
		case errors.Is(err, checkoutsvc.ErrCaptureNotCompleted),
			errors.Is(err, checkoutsvc.ErrShippingAddressNotFound):
			status = http.StatusUnprocessableEntity
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(completeOrderResponse{Success: false, Error: err.Error()})
		slog.Error("Error completing order", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(completeOrderResponse{
		Success:        true,
		OrderID:        result.OrderID.String(),
		PaymentRef:     result.PaymentRef,
		FulfillmentRef: result.FulfillmentRef.ID,
	}); err != nil {
		slog.Error("Error sending response for complete order", "error", err)
	}
}

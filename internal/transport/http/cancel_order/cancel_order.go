package cancelorder

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	orderrepo "github.com/inkwear/storefront/internal/dal/repositories/order/postgres"
)

// service is an interface for the service layer.
type service interface {
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
}

type cancelOrderResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// CancelOrder flips the order to cancelled.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)

		return
	}

	if err := service.CancelOrder(r.Context(), orderID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orderrepo.ErrOrderNotFound) {
			status = http.StatusNotFound
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(cancelOrderResponse{Success: false, Error: err.Error()})
		slog.Error("Error cancelling order", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(cancelOrderResponse{Success: true}); err != nil {
		slog.Error("Error sending response for cancel order", "error", err)
	}
}

package confirmfulfillment

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	orderrepo "github.com/inkwear/storefront/internal/dal/repositories/order/postgres"
	"github.com/inkwear/storefront/internal/service/services/checkoutsvc"
)

// service is an interface for the service layer.
type service interface {
	ConfirmDraftFulfillment(ctx context.Context, orderID uuid.UUID) error
}

type confirmFulfillmentResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// ConfirmFulfillment submits a draft fulfillment order for production.
func ConfirmFulfillment(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderId"))
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)

		return
	}

	if err := service.ConfirmDraftFulfillment(r.Context(), orderID); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, orderrepo.ErrOrderNotFound):
			status = http.StatusNotFound
		case errors.Is(err, checkoutsvc.ErrNoFulfillmentRef),
			errors.Is(err, checkoutsvc.ErrPlaceholderFulfillmentRef):
			status = http.StatusUnprocessableEntity
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(confirmFulfillmentResponse{Success: false, Error: err.Error()})
		slog.Error("Error confirming fulfillment order", "order_id", orderID, "error", err)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(confirmFulfillmentResponse{Success: true}); err != nil {
		slog.Error("Error sending response for confirm fulfillment", "error", err)
	}
}

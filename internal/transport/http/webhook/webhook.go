package webhook

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/inkwear/storefront/internal/service/services/webhooksvc"
)

// service is an interface for the service layer.
type service interface {
	Apply(ctx context.Context, event webhooksvc.Event) error
}

// HandleFulfillmentEvent accepts asynchronous events from the fulfillment
// provider and applies them to the matching order or product.
func HandleFulfillmentEvent(w http.ResponseWriter, r *http.Request, service service) {
	var event webhooksvc.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		http.Error(w, "Failed to decode event", http.StatusBadRequest)
		slog.Error("Error decoding fulfillment webhook event", "error", err)

		return
	}

	if err := service.Apply(r.Context(), event); err != nil {
		// Unknown event types are acknowledged so the provider stops
		// redelivering them.
		if errors.Is(err, webhooksvc.ErrUnknownEventType) {
			slog.Warn("Ignoring unknown fulfillment event", "type", event.Type)
			w.WriteHeader(http.StatusOK)

			return
		}

		http.Error(w, err.Error(), http.StatusInternalServerError)
		slog.Error("Error applying fulfillment webhook event", "type", event.Type, "error", err)

		return
	}

	w.WriteHeader(http.StatusOK)
}

package webhooksvc

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/inkwear/storefront/internal/service/models/order"
)

var (
	ErrUnknownEventType = errors.New("unknown webhook event type")
	ErrMissingOrderRef  = errors.New("webhook event carries no order reference")
)

// Event types sent by the fulfillment provider.
const (
	EventPackageShipped = "package_shipped"
	EventOrderFailed    = "order_failed"
	EventOrderCreated   = "order_created"
	EventStockUpdated   = "stock_updated"
)

// Event is an asynchronous notification from the fulfillment provider.
// Orders are correlated by external id, which is the local order UUID the
// checkout flow sent when creating the fulfillment order.
type Event struct {
	Type string    `json:"type"`
	Data EventData `json:"data"`
}

type EventData struct {
	Order    *OrderData    `json:"order,omitempty"`
	Shipment *ShipmentData `json:"shipment,omitempty"`
	Variant  *VariantData  `json:"variant,omitempty"`
	Reason   string        `json:"reason,omitempty"`
}

type OrderData struct {
	ID         int64  `json:"id"`
	ExternalID string `json:"external_id"`
}

type ShipmentData struct {
	TrackingNumber string `json:"tracking_number"`
	TrackingURL    string `json:"tracking_url"`
	Carrier        string `json:"carrier"`
}

type VariantData struct {
	VariantID int64 `json:"variant_id"`
	InStock   bool  `json:"in_stock"`
}

// WebhookService applies provider events to the matching order or product.
// This is fire-and-forget reconciliation; the checkout flow never waits on it.
type WebhookService struct {
	orderRepo   iorderrepo.IOrderRepository
	productRepo iproductrepo.IProductRepository
}

// option is a function that configures the WebhookService.
type option func(*WebhookService)

// MustNewWebhookService creates a new WebhookService.
func MustNewWebhookService(opts ...option) *WebhookService {
	s := &WebhookService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithOrderRepository sets the order repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithOrderRepository(repo iorderrepo.IOrderRepository) option {
	return func(s *WebhookService) {
		s.orderRepo = repo
	}
}

// WithProductRepository sets the product repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *WebhookService) {
		s.productRepo = repo
	}
}

// Apply dispatches one provider event.
func (s *WebhookService) Apply(ctx context.Context, event Event) error {
	switch event.Type {
	case EventPackageShipped:
		orderID, err := orderIDFromEvent(event)
		if err != nil {
			return err
		}
		shipment := event.Data.Shipment
		if shipment == nil {
			return fmt.Errorf("package_shipped event for order %s carries no shipment", orderID)
		}

		slog.Info("Order shipped", "order_id", orderID, "tracking_number", shipment.TrackingNumber)

		return s.orderRepo.SetShipped(ctx, orderID, shipment.TrackingNumber, shipment.TrackingURL, shipment.Carrier)

	case EventOrderFailed:
		orderID, err := orderIDFromEvent(event)
		if err != nil {
			return err
		}

		slog.Warn("Fulfillment order failed", "order_id", orderID, "reason", event.Data.Reason)

		return s.orderRepo.MarkFailed(ctx, orderID, event.Data.Reason)

	case EventOrderCreated:
		orderID, err := orderIDFromEvent(event)
		if err != nil {
			return err
		}

		return s.orderRepo.SetFulfillmentStatus(ctx, orderID, order.FulfillmentSubmitted)

	case EventStockUpdated:
		variant := event.Data.Variant
		if variant == nil {
			return errors.New("stock_updated event carries no variant")
		}

		return s.productRepo.SetInStockByProviderVariantID(ctx, variant.VariantID, variant.InStock)

	default:
		return fmt.Errorf("%w: %s", ErrUnknownEventType, event.Type)
	}
}

func orderIDFromEvent(event Event) (uuid.UUID, error) {
	if event.Data.Order == nil || event.Data.Order.ExternalID == "" {
		return uuid.Nil, ErrMissingOrderRef
	}

	orderID, err := uuid.Parse(event.Data.Order.ExternalID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid order external id %q: %w", event.Data.Order.ExternalID, err)
	}

	return orderID, nil
}

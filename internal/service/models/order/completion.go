package order

import (
	"time"

	"github.com/inkwear/storefront/internal/service/models/fulfillment"
)

// CompletionUpdate carries the fields written when an order reaches processing.
type CompletionUpdate struct {
	FulfillmentRef    fulfillment.Reference
	FulfillmentStatus FulfillmentStatus
	ShippingCents     int64
	CapturedAt        time.Time
}

package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/fulfillment"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
)

// Status is the lifecycle status of an order.
type Status string

const (
	StatusPending        Status = "pending"
	StatusPaymentPending Status = "payment_pending"
	StatusProcessing     Status = "processing"
	StatusShipped        Status = "shipped"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
	StatusFailed         Status = "failed"
)

func (s Status) String() string {
	return string(s)
}

// IsTerminal reports whether the status is absorbing.
func (s Status) IsTerminal() bool {
	return s == StatusCancelled || s == StatusFailed || s == StatusDelivered
}

// FulfillmentStatus is a sub-state of the fulfillment leg, orthogonal to Status.
type FulfillmentStatus string

const (
	// FulfillmentNone means no fulfillment order exists yet.
	FulfillmentNone FulfillmentStatus = ""
	// FulfillmentDraft means a draft fulfillment order exists and awaits confirmation.
	FulfillmentDraft FulfillmentStatus = "draft"
	// FulfillmentSubmitted means the provider accepted the order for production.
	FulfillmentSubmitted FulfillmentStatus = "submitted"
	// FulfillmentManualReview means fulfillment creation failed after payment was
	// captured; the order proceeded anyway and needs operator attention.
	FulfillmentManualReview FulfillmentStatus = "manual_review"
)

func (s FulfillmentStatus) String() string {
	return string(s)
}

// Order represents a customer purchase tracked through its lifecycle.
type Order struct {
	ID                uuid.UUID             `json:"id"`
	UserID            *uuid.UUID            `json:"userId,omitempty"`
	Status            Status                `json:"status"`
	FulfillmentStatus FulfillmentStatus     `json:"fulfillmentStatus,omitempty"`
	SubtotalCents     int64                 `json:"subtotalCents"`
	ShippingCents     int64                 `json:"shippingCents"`
	TotalCents        int64                 `json:"totalCents"`
	PaymentRef        string                `json:"paymentRef,omitempty"`
	FulfillmentRef    fulfillment.Reference `json:"fulfillmentRef"`
	TrackingNumber    string                `json:"trackingNumber,omitempty"`
	TrackingURL       string                `json:"trackingUrl,omitempty"`
	Carrier           string                `json:"carrier,omitempty"`
	FailureReason     string                `json:"failureReason,omitempty"`
	CapturedAt        *time.Time            `json:"capturedAt,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	OrderItems        []orderitem.OrderItem `json:"orderItems"`
}

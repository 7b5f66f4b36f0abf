package iorderrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	Insert(ctx context.Context, o *order.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error)
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
	SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error
	SetPaymentPending(ctx context.Context, id uuid.UUID, paymentRef string) error
	MarkFailed(ctx context.Context, id uuid.UUID, reason string) error
	MarkProcessing(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error
	SetFulfillmentStatus(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error
	SetShipped(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error
}

package iorderitemrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
)

// IOrderItemRepository is an interface for the order item postgres repository.
type IOrderItemRepository interface {
	BulkInsert(ctx context.Context, items []orderitem.OrderItem) error
	ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error)
}

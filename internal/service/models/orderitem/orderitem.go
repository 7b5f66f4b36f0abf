package orderitem

import (
	"time"

	"github.com/google/uuid"
)

// OrderItem is one line within an order. PriceCents is a snapshot taken at
// order-creation time and never updated, even if the product price changes.
type OrderItem struct {
	ID         uuid.UUID `json:"id"`
	OrderID    uuid.UUID `json:"orderId"`
	ProductID  uuid.UUID `json:"productId"`
	Name       string    `json:"name"`
	Size       string    `json:"size,omitempty"`
	Quantity   int       `json:"quantity"`
	PriceCents int64     `json:"priceCents"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

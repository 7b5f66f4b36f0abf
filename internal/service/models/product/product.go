package product

import (
	"time"

	"github.com/google/uuid"
)

// Product is one concrete purchasable variant (a specific size/color SKU), not
// an abstract product family. ProviderProductID groups variants of the same
// design at the fulfillment provider; ProviderVariantID identifies this exact
// SKU there. A variant with ProviderVariantID == 0 cannot be fulfilled
// automatically.
type Product struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Description       string    `json:"description,omitempty"`
	PriceCents        int64     `json:"priceCents"`
	Size              string    `json:"size,omitempty"`
	Color             string    `json:"color,omitempty"`
	ImageURL          string    `json:"imageUrl,omitempty"`
	InStock           bool      `json:"inStock"`
	Featured          bool      `json:"featured"`
	AdminEdited       bool      `json:"adminEdited"`
	ProviderProductID int64     `json:"providerProductId,omitempty"`
	ProviderVariantID int64     `json:"providerVariantId,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// Fulfillable reports whether the variant is mapped to a provider SKU.
func (p *Product) Fulfillable() bool {
	return p.ProviderVariantID != 0
}

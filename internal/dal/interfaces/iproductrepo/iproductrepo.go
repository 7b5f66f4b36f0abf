package iproductrepo

import (
	"context"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/product"
)

// IProductRepository is an interface for the product postgres repository.
type IProductRepository interface {
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error)
	Upsert(ctx context.Context, p *product.Product) error
	DeleteMissingVariants(ctx context.Context, keep []int64) error
	SetInStockByProviderVariantID(ctx context.Context, variantID int64, inStock bool) error
}

package catalogsvc

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/dal/interfaces/iproductrepo"
	fulfillmentgw "github.com/inkwear/storefront/internal/gateway/fulfillment"
	"github.com/inkwear/storefront/internal/service/models/product"
	"golang.org/x/sync/errgroup"
)

// catalogGateway is the surface of the fulfillment provider client used here.
type catalogGateway interface {
	ListProducts(ctx context.Context) ([]fulfillmentgw.ProductSummary, error)
	GetProduct(ctx context.Context, productID int64) (*fulfillmentgw.ProductDetail, error)
}

// CatalogService mirrors the provider catalog into the local product table.
// Sync is idempotent per provider variant id. Rows an operator has edited
// keep their description, price, featured and in_stock values; rows absent
// from the latest provider enumeration are deleted.
type CatalogService struct {
	gateway     catalogGateway
	productRepo iproductrepo.IProductRepository
}

// option is a function that configures the CatalogService.
type option func(*CatalogService)

// MustNewCatalogService creates a new CatalogService.
func MustNewCatalogService(opts ...option) *CatalogService {
	s := &CatalogService{}
	for _, opt := range opts {
		opt(s)
	}

	return s
}

// WithGateway sets the fulfillment provider client.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithGateway(gw catalogGateway) option {
	return func(s *CatalogService) {
		s.gateway = gw
	}
}

// WithProductRepository sets the product repository.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithProductRepository(repo iproductrepo.IProductRepository) option {
	return func(s *CatalogService) {
		s.productRepo = repo
	}
}

// Sync enumerates the provider catalog, upserts every variant and prunes
// variants that vanished upstream.
func (s *CatalogService) Sync(ctx context.Context) error {
	summaries, err := s.gateway.ListProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to list provider products: %w", err)
	}

	var (
		mu       sync.Mutex
		variants []fulfillmentgw.Variant
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(3)

	for _, summary := range summaries {
		summary := summary
		g.Go(func() error {
			detail, err := s.gateway.GetProduct(gctx, summary.ID)
			if err != nil {
				return fmt.Errorf("failed to fetch product %d: %w", summary.ID, err)
			}

			mu.Lock()
			variants = append(variants, detail.Variants...)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	seen := make([]int64, 0, len(variants))
	for _, v := range variants {
		priceCents, err := ParsePriceCents(v.RetailPrice)
		if err != nil {
			slog.Warn("Skipping variant with unparsable price", "variant_id", v.ID, "price", v.RetailPrice)

			continue
		}

		p := &product.Product{
			ID:                uuid.New(),
			Name:              v.Name,
			PriceCents:        priceCents,
			Size:              v.Size,
			Color:             v.Color,
			ImageURL:          v.PreviewURL,
			InStock:           v.InStock,
			ProviderProductID: v.SyncProductID,
			ProviderVariantID: v.ID,
		}

		if err := s.productRepo.Upsert(ctx, p); err != nil {
			return err
		}
		seen = append(seen, v.ID)
	}

	if err := s.productRepo.DeleteMissingVariants(ctx, seen); err != nil {
		return err
	}

	slog.Info("Catalog sync finished", "products", len(summaries), "variants", len(seen))

	return nil
}

// ParsePriceCents converts the provider's decimal price string to cents.
func ParsePriceCents(price string) (int64, error) {
	whole, frac, _ := strings.Cut(price, ".")

	dollars, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}

	if frac == "" {
		return dollars * 100, nil
	}
	if len(frac) > 2 {
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}

	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", price, err)
	}

	return dollars*100 + cents, nil
}

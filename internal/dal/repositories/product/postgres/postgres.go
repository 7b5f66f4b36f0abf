package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/product"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrProductNotFound = errors.New("product not found")

// ProductDal represents product data access layer model.
type ProductDal struct {
	Id                uuid.UUID `db:"id"`
	Name              string    `db:"name"`
	Description       string    `db:"description"`
	PriceCents        int64     `db:"price_cents"`
	Size              string    `db:"size"`
	Color             string    `db:"color"`
	ImageUrl          string    `db:"image_url"`
	InStock           bool      `db:"in_stock"`
	Featured          bool      `db:"featured"`
	AdminEdited       bool      `db:"admin_edited"`
	ProviderProductId int64     `db:"provider_product_id"`
	ProviderVariantId int64     `db:"provider_variant_id"`
	CreatedAt         time.Time `db:"created_at"`
	UpdatedAt         time.Time `db:"updated_at"`
}

// ToModel converts ProductDal to service layer Product model.
func (p *ProductDal) ToModel() *product.Product {
	return &product.Product{
		ID:                p.Id,
		Name:              p.Name,
		Description:       p.Description,
		PriceCents:        p.PriceCents,
		Size:              p.Size,
		Color:             p.Color,
		ImageURL:          p.ImageUrl,
		InStock:           p.InStock,
		Featured:          p.Featured,
		AdminEdited:       p.AdminEdited,
		ProviderProductID: p.ProviderProductId,
		ProviderVariantID: p.ProviderVariantId,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresProductRepository represents a Postgres product repository.
type PostgresProductRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresProductRepository creates a new Postgres product repository.
func NewPostgresProductRepository(conn GenericConn) *PostgresProductRepository {
	return &PostgresProductRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const productColumns = `id, name, description, price_cents, size, color, image_url, in_stock, featured,
	admin_edited, provider_product_id, provider_variant_id, created_at, updated_at`

func (r *PostgresProductRepository) scanRows(rows pgx.Rows) ([]product.Product, error) {
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		dal := ProductDal{}
		err := rows.Scan(
			&dal.Id,
			&dal.Name,
			&dal.Description,
			&dal.PriceCents,
			&dal.Size,
			&dal.Color,
			&dal.ImageUrl,
			&dal.InStock,
			&dal.Featured,
			&dal.AdminEdited,
			&dal.ProviderProductId,
			&dal.ProviderVariantId,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// GetByIDs retrieves products by their local ids.
func (r *PostgresProductRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]product.Product, error) {
	query, args, err := r.sb.Select(productColumns).
		From("products").
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}

	return r.scanRows(rows)
}

// Upsert inserts or updates a variant keyed by its provider variant id.
// Operator-edited rows keep their description, price, featured and in_stock
// values; only provider identity fields are refreshed for them.
func (r *PostgresProductRepository) Upsert(ctx context.Context, p *product.Product) error {
	sql := `
		INSERT INTO products (
			id, name, description, price_cents, size, color, image_url,
			in_stock, featured, admin_edited, provider_product_id, provider_variant_id,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, false, $10, $11, $12, $12)
		ON CONFLICT (provider_variant_id) WHERE provider_variant_id > 0 DO UPDATE SET
			name = EXCLUDED.name,
			size = EXCLUDED.size,
			color = EXCLUDED.color,
			image_url = EXCLUDED.image_url,
			provider_product_id = EXCLUDED.provider_product_id,
			description = CASE WHEN products.admin_edited THEN products.description ELSE EXCLUDED.description END,
			price_cents = CASE WHEN products.admin_edited THEN products.price_cents ELSE EXCLUDED.price_cents END,
			featured = CASE WHEN products.admin_edited THEN products.featured ELSE EXCLUDED.featured END,
			in_stock = CASE WHEN products.admin_edited THEN products.in_stock ELSE EXCLUDED.in_stock END,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, sql,
		p.ID,
		p.Name,
		p.Description,
		p.PriceCents,
		p.Size,
		p.Color,
		p.ImageURL,
		p.InStock,
		p.Featured,
		p.ProviderProductID,
		p.ProviderVariantID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert product: %w", err)
	}

	return nil
}

// DeleteMissingVariants removes provider-managed variants that vanished from
// the latest provider enumeration.
func (r *PostgresProductRepository) DeleteMissingVariants(ctx context.Context, keep []int64) error {
	builder := r.sb.Delete("products").Where(sq.Gt{"provider_variant_id": 0})
	if len(keep) > 0 {
		builder = builder.Where(sq.NotEq{"provider_variant_id": keep})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build delete query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete missing variants: %w", err)
	}

	return nil
}

// SetInStockByProviderVariantID flips availability from a stock webhook.
func (r *PostgresProductRepository) SetInStockByProviderVariantID(ctx context.Context, variantID int64, inStock bool) error {
	query, args, err := r.sb.Update("products").
		Set("in_stock", inStock).
		Set("updated_at", time.Now()).
		Where(sq.Eq{"provider_variant_id": variantID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update product stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}

	return nil
}

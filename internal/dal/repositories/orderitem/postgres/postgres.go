package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// OrderItemDal represents order item data access layer model.
type OrderItemDal struct {
	Id         uuid.UUID `db:"id"`
	OrderId    uuid.UUID `db:"order_id"`
	ProductId  uuid.UUID `db:"product_id"`
	Name       string    `db:"name"`
	Size       string    `db:"size"`
	Quantity   int       `db:"quantity"`
	PriceCents int64     `db:"price_cents"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// ToModel converts OrderItemDal to service layer OrderItem model.
func (oi *OrderItemDal) ToModel() *orderitem.OrderItem {
	return &orderitem.OrderItem{
		ID:         oi.Id,
		OrderID:    oi.OrderId,
		ProductID:  oi.ProductId,
		Name:       oi.Name,
		Size:       oi.Size,
		Quantity:   oi.Quantity,
		PriceCents: oi.PriceCents,
		CreatedAt:  oi.CreatedAt,
		UpdatedAt:  oi.UpdatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderItemRepository represents a Postgres order item repository.
type PostgresOrderItemRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderItemRepository creates a new Postgres order item repository.
func NewPostgresOrderItemRepository(conn GenericConn) *PostgresOrderItemRepository {
	return &PostgresOrderItemRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts the items of one or more orders.
func (r *PostgresOrderItemRepository) BulkInsert(ctx context.Context, items []orderitem.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	builder := r.sb.Insert("order_items").
		Columns("id", "order_id", "product_id", "name", "size", "quantity", "price_cents", "created_at", "updated_at")

	for _, item := range items {
		builder = builder.Values(
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Name,
			item.Size,
			item.Quantity,
			item.PriceCents,
			item.CreatedAt,
			item.UpdatedAt,
		)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to bulk insert order items: %w", err)
	}

	return nil
}

// ListByOrderIDs retrieves items for the given orders.
func (r *PostgresOrderItemRepository) ListByOrderIDs(ctx context.Context, orderIDs []uuid.UUID) ([]orderitem.OrderItem, error) {
	query, args, err := r.sb.Select("id", "order_id", "product_id", "name", "size", "quantity", "price_cents", "created_at", "updated_at").
		From("order_items").
		Where(sq.Eq{"order_id": orderIDs}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var result []orderitem.OrderItem
	for rows.Next() {
		dal := OrderItemDal{}
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.Name,
			&dal.Size,
			&dal.Quantity,
			&dal.PriceCents,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

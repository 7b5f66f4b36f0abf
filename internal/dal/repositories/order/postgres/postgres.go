package postgresrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/fulfillment"
	"github.com/inkwear/storefront/internal/service/models/order"
	"github.com/inkwear/storefront/internal/service/models/orderitem"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                uuid.UUID      `db:"id"`
	UserId            *uuid.UUID     `db:"user_id"`
	Status            string         `db:"status"`
	FulfillmentStatus string         `db:"fulfillment_status"`
	SubtotalCents     int64          `db:"subtotal_cents"`
	ShippingCents     int64          `db:"shipping_cents"`
	TotalCents        int64          `db:"total_cents"`
	PaymentRef        sql.NullString `db:"payment_ref"`
	FulfillmentRef    sql.NullString `db:"fulfillment_ref"`
	FulfillmentKind   sql.NullString `db:"fulfillment_ref_kind"`
	TrackingNumber    sql.NullString `db:"tracking_number"`
	TrackingUrl       sql.NullString `db:"tracking_url"`
	Carrier           sql.NullString `db:"carrier"`
	FailureReason     sql.NullString `db:"failure_reason"`
	CapturedAt        *time.Time     `db:"captured_at"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

// ToModel converts OrderDal to service layer Order model.
func (o *OrderDal) ToModel() *order.Order {
	ref := fulfillment.Reference{}
	if o.FulfillmentRef.Valid {
		ref = fulfillment.Reference{
			Kind: fulfillment.RefKind(o.FulfillmentKind.String),
			ID:   o.FulfillmentRef.String,
		}
	}

	return &order.Order{
		ID:                o.Id,
		UserID:            o.UserId,
		Status:            order.Status(o.Status),
		FulfillmentStatus: order.FulfillmentStatus(o.FulfillmentStatus),
		SubtotalCents:     o.SubtotalCents,
		ShippingCents:     o.ShippingCents,
		TotalCents:        o.TotalCents,
		PaymentRef:        o.PaymentRef.String,
		FulfillmentRef:    ref,
		TrackingNumber:    o.TrackingNumber.String,
		TrackingURL:       o.TrackingUrl.String,
		Carrier:           o.Carrier.String,
		FailureReason:     o.FailureReason.String,
		CapturedAt:        o.CapturedAt,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		OrderItems:        []orderitem.OrderItem{},
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

const orderColumns = `id, user_id, status, fulfillment_status, subtotal_cents, shipping_cents, total_cents,
	payment_ref, fulfillment_ref, fulfillment_ref_kind, tracking_number, tracking_url, carrier,
	failure_reason, captured_at, created_at, updated_at`

func scanOrder(row pgx.Row) (*OrderDal, error) {
	dal := OrderDal{}
	err := row.Scan(
		&dal.Id,
		&dal.UserId,
		&dal.Status,
		&dal.FulfillmentStatus,
		&dal.SubtotalCents,
		&dal.ShippingCents,
		&dal.TotalCents,
		&dal.PaymentRef,
		&dal.FulfillmentRef,
		&dal.FulfillmentKind,
		&dal.TrackingNumber,
		&dal.TrackingUrl,
		&dal.Carrier,
		&dal.FailureReason,
		&dal.CapturedAt,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &dal, nil
}

// Insert persists a new order row.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o *order.Order) error {
	query, args, err := r.sb.Insert("orders").
		Columns(
			"id",
			"user_id",
			"status",
			"fulfillment_status",
			"subtotal_cents",
			"shipping_cents",
			"total_cents",
			"payment_ref",
			"created_at",
			"updated_at",
		).
		Values(
			o.ID,
			o.UserID,
			o.Status.String(),
			o.FulfillmentStatus.String(),
			o.SubtotalCents,
			o.ShippingCents,
			o.TotalCents,
			nullable(o.PaymentRef),
			o.CreatedAt,
			o.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetByID retrieves a single order without its items.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	query, args, err := r.sb.Select(orderColumns).
		From("orders").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	dal, err := scanOrder(r.conn.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrOrderNotFound
		}

		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel(), nil
}

// Query retrieves orders based on filter criteria.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	builder := r.sb.Select(orderColumns).From("orders").OrderBy("created_at DESC")

	if len(filter.Ids) > 0 {
		builder = builder.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.UserIds) > 0 {
		builder = builder.Where(sq.Eq{"user_id": filter.UserIds})
	}
	if filter.Limit > 0 {
		builder = builder.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		builder = builder.Offset(uint64(filter.Offset))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		dal, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// SetStatus updates the lifecycle status. Last write wins; no version check.
func (r *PostgresOrderRepository) SetStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	return r.update(ctx, id, map[string]interface{}{
		"status": status.String(),
	})
}

// SetPaymentPending records the payment reference and advances the status.
func (r *PostgresOrderRepository) SetPaymentPending(ctx context.Context, id uuid.UUID, paymentRef string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":      order.StatusPaymentPending.String(),
		"payment_ref": paymentRef,
	})
}

// MarkFailed moves the order to the failed absorbing state.
func (r *PostgresOrderRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":         order.StatusFailed.String(),
		"failure_reason": reason,
	})
}

// MarkProcessing finalizes the completion step.
func (r *PostgresOrderRepository) MarkProcessing(ctx context.Context, id uuid.UUID, upd order.CompletionUpdate) error {
	fields := map[string]interface{}{
		"status":             order.StatusProcessing.String(),
		"fulfillment_status": upd.FulfillmentStatus.String(),
		"shipping_cents":     upd.ShippingCents,
		"captured_at":        upd.CapturedAt,
	}
	if !upd.FulfillmentRef.IsZero() {
		fields["fulfillment_ref"] = upd.FulfillmentRef.ID
		fields["fulfillment_ref_kind"] = string(upd.FulfillmentRef.Kind)
	}

	return r.update(ctx, id, fields)
}

// SetFulfillmentStatus updates only the fulfillment sub-state.
func (r *PostgresOrderRepository) SetFulfillmentStatus(ctx context.Context, id uuid.UUID, fs order.FulfillmentStatus) error {
	return r.update(ctx, id, map[string]interface{}{
		"fulfillment_status": fs.String(),
	})
}

// SetShipped records tracking details reported by the fulfillment provider.
func (r *PostgresOrderRepository) SetShipped(ctx context.Context, id uuid.UUID, trackingNumber, trackingURL, carrier string) error {
	return r.update(ctx, id, map[string]interface{}{
		"status":             order.StatusShipped.String(),
		"fulfillment_status": order.FulfillmentSubmitted.String(),
		"tracking_number":    trackingNumber,
		"tracking_url":       trackingURL,
		"carrier":            carrier,
	})
}

func (r *PostgresOrderRepository) update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) error {
	fields["updated_at"] = time.Now()

	query, args, err := r.sb.Update("orders").
		SetMap(fields).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build update query: %w", err)
	}

	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}

	return s
}

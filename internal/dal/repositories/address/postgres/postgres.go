package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/address"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// AddressDal represents address data access layer model.
type AddressDal struct {
	Id        uuid.UUID  `db:"id"`
	OrderId   *uuid.UUID `db:"order_id"`
	UserId    *uuid.UUID `db:"user_id"`
	Kind      string     `db:"kind"`
	Name      string     `db:"name"`
	Line1     string     `db:"line1"`
	Line2     string     `db:"line2"`
	City      string     `db:"city"`
	State     string     `db:"state"`
	Zip       string     `db:"zip"`
	Country   string     `db:"country"`
	Phone     string     `db:"phone"`
	Email     string     `db:"email"`
	CreatedAt time.Time  `db:"created_at"`
}

// ToModel converts AddressDal to service layer Address model.
func (a *AddressDal) ToModel() *address.Address {
	return &address.Address{
		ID:        a.Id,
		OrderID:   a.OrderId,
		UserID:    a.UserId,
		Kind:      address.Kind(a.Kind),
		Name:      a.Name,
		Line1:     a.Line1,
		Line2:     a.Line2,
		City:      a.City,
		State:     a.State,
		Zip:       a.Zip,
		Country:   a.Country,
		Phone:     a.Phone,
		Email:     a.Email,
		CreatedAt: a.CreatedAt,
	}
}

// GenericConn is an interface that works with both pgxpool.Pool and pgx.Tx.
type GenericConn interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresAddressRepository represents a Postgres address repository.
type PostgresAddressRepository struct {
	conn GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresAddressRepository creates a new Postgres address repository.
func NewPostgresAddressRepository(conn GenericConn) *PostgresAddressRepository {
	return &PostgresAddressRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// Insert persists a new address row.
func (r *PostgresAddressRepository) Insert(ctx context.Context, a *address.Address) error {
	query, args, err := r.sb.Insert("addresses").
		Columns("id", "order_id", "user_id", "kind", "name", "line1", "line2", "city", "state", "zip", "country", "phone", "email", "created_at").
		Values(a.ID, a.OrderID, a.UserID, a.Kind.String(), a.Name, a.Line1, a.Line2, a.City, a.State, a.Zip, a.Country, a.Phone, a.Email, a.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build insert query: %w", err)
	}

	if _, err := r.conn.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to insert address: %w", err)
	}

	return nil
}

// ListByOrderID retrieves all addresses attached to an order.
func (r *PostgresAddressRepository) ListByOrderID(ctx context.Context, orderID uuid.UUID) ([]address.Address, error) {
	query, args, err := r.sb.Select("id", "order_id", "user_id", "kind", "name", "line1", "line2", "city", "state", "zip", "country", "phone", "email", "created_at").
		From("addresses").
		Where(sq.Eq{"order_id": orderID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build select query: %w", err)
	}

	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	var result []address.Address
	for rows.Next() {
		dal := AddressDal{}
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.UserId,
			&dal.Kind,
			&dal.Name,
			&dal.Line1,
			&dal.Line2,
			&dal.City,
			&dal.State,
			&dal.Zip,
			&dal.Country,
			&dal.Phone,
			&dal.Email,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

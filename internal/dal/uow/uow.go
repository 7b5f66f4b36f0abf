package uow

import (
	"context"

	"github.com/inkwear/storefront/internal/dal/interfaces/iaddressrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderitemrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iorderrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/ioutboxrepo"
	"github.com/inkwear/storefront/internal/dal/interfaces/iproductrepo"
	"github.com/inkwear/storefront/internal/dal/postgres"
	addressrepo "github.com/inkwear/storefront/internal/dal/repositories/address/postgres"
	orderrepo "github.com/inkwear/storefront/internal/dal/repositories/order/postgres"
	orderitemrepo "github.com/inkwear/storefront/internal/dal/repositories/orderitem/postgres"
	outboxrepo "github.com/inkwear/storefront/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/inkwear/storefront/internal/dal/repositories/product/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UnitOfWork hands out repositories that share one connection scope. After
// Begin, every repository runs inside the same transaction until Commit or
// Rollback.
type UnitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	orderRepo     iorderrepo.IOrderRepository
	orderItemRepo iorderitemrepo.IOrderItemRepository
	addressRepo   iaddressrepo.IAddressRepository
	productRepo   iproductrepo.IProductRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

// NewUnitOfWork creates a unit of work over the pool (no transaction yet).
func NewUnitOfWork(client *postgres.Client) *UnitOfWork {
	u := &UnitOfWork{pool: client.Pool()}
	u.bind(client.Pool())

	return u
}

type genericConn interface {
	orderrepo.GenericConn
}

func (u *UnitOfWork) bind(conn genericConn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderItemRepo = orderitemrepo.NewPostgresOrderItemRepository(conn)
	u.addressRepo = addressrepo.NewPostgresAddressRepository(conn)
	u.productRepo = productrepo.NewPostgresProductRepository(conn)
	u.outboxRepo = outboxrepo.NewOutboxRepository(conn)
}

func (u *UnitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *UnitOfWork) OrderItemRepository() iorderitemrepo.IOrderItemRepository {
	return u.orderItemRepo
}

func (u *UnitOfWork) AddressRepository() iaddressrepo.IAddressRepository {
	return u.addressRepo
}

func (u *UnitOfWork) ProductRepository() iproductrepo.IProductRepository {
	return u.productRepo
}

func (u *UnitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin starts a transaction and rebinds all repositories to it.
func (u *UnitOfWork) Begin(ctx context.Context) error {
	tx, err := u.pool.Begin(ctx)
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

func (u *UnitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Commit(ctx)
	u.tx = nil
	u.bind(u.pool)

	return err
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	err := u.tx.Rollback(ctx)
	u.tx = nil
	u.bind(u.pool)

	return err
}

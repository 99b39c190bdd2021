package uow

import (
	"context"
	"errors"

	"github.com/heritage-platform/commerce/internal/dal/interfaces/iaddressrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iinventoryrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderlinerepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/ioutboxrepo"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	addressrepo "github.com/heritage-platform/commerce/internal/dal/repositories/address/postgres"
	inventoryrepo "github.com/heritage-platform/commerce/internal/dal/repositories/inventory/postgres"
	orderrepo "github.com/heritage-platform/commerce/internal/dal/repositories/order/postgres"
	orderlinerepo "github.com/heritage-platform/commerce/internal/dal/repositories/orderline/postgres"
	outboxrepo "github.com/heritage-platform/commerce/internal/dal/repositories/outbox/postgres"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// unitOfWork binds all repositories to one pgx transaction so that every
// write of a lifecycle operation commits or rolls back together.
type unitOfWork struct {
	pool *pgxpool.Pool
	tx   pgx.Tx

	orderRepo     iorderrepo.IOrderRepository
	orderLineRepo iorderlinerepo.IOrderLineRepository
	inventoryRepo iinventoryrepo.IInventoryRepository
	addressRepo   iaddressrepo.IAddressRepository
	outboxRepo    ioutboxrepo.IOutboxRepository
}

// NewUnitOfWork creates a unit of work. Before Begin the repositories run
// directly against the pool, which is fine for reads.
func NewUnitOfWork(pgClient *postgres.Client) *unitOfWork {
	u := &unitOfWork{pool: pgClient.Pool()}
	u.bind(pgClient.Pool())

	return u
}

func (u *unitOfWork) bind(conn postgres.GenericConn) {
	u.orderRepo = orderrepo.NewPostgresOrderRepository(conn)
	u.orderLineRepo = orderlinerepo.NewPostgresOrderLineRepository(conn)
	u.inventoryRepo = inventoryrepo.NewPostgresInventoryRepository(conn)
	u.addressRepo = addressrepo.NewPostgresAddressRepository(conn)
	u.outboxRepo = outboxrepo.NewPostgresOutboxRepository(conn)
}

func (u *unitOfWork) OrderRepository() iorderrepo.IOrderRepository {
	return u.orderRepo
}

func (u *unitOfWork) OrderLineRepository() iorderlinerepo.IOrderLineRepository {
	return u.orderLineRepo
}

func (u *unitOfWork) InventoryRepository() iinventoryrepo.IInventoryRepository {
	return u.inventoryRepo
}

func (u *unitOfWork) AddressRepository() iaddressrepo.IAddressRepository {
	return u.addressRepo
}

func (u *unitOfWork) OutboxRepository() ioutboxrepo.IOutboxRepository {
	return u.outboxRepo
}

// Begin starts a transaction and rebinds the repositories to it.
func (u *unitOfWork) Begin(ctx context.Context) error {
	if u.tx != nil {
		return errors.New("unit of work already began")
	}

	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	u.tx = tx
	u.bind(tx)

	return nil
}

// Commit commits the transaction.
func (u *unitOfWork) Commit(ctx context.Context) error {
	if u.tx == nil {
		return nil
	}
	return u.tx.Commit(ctx)
}

// Rollback aborts the transaction. Safe to defer after Commit: a rollback
// of a committed pgx transaction is a no-op error that is swallowed here.
func (u *unitOfWork) Rollback(ctx context.Context) {
	if u.tx == nil {
		return
	}
	_ = u.tx.Rollback(ctx)
}

package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/service/models/product"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// ProductDal represents catalog product data access layer model.
type ProductDal struct {
	Id         string          `db:"id"`
	Title      string          `db:"title"`
	Subtitle   *string         `db:"subtitle"`
	CategoryId int64           `db:"category_id"`
	Price      decimal.Decimal `db:"price"`
	Stock      int             `db:"stock"`
	Status     int             `db:"status"`
	CreatedAt  time.Time       `db:"created_at"`
	UpdatedAt  time.Time       `db:"updated_at"`
}

// ToModel converts ProductDal to the service layer Product model.
func (p *ProductDal) ToModel() *product.Product {
	model := &product.Product{
		ID:         p.Id,
		Title:      p.Title,
		CategoryID: p.CategoryId,
		Price:      p.Price,
		Stock:      p.Stock,
		Status:     product.Status(p.Status),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
	if p.Subtitle != nil {
		model.Subtitle = *p.Subtitle
	}

	return model
}

// PostgresInventoryRepository is the inventory ledger's product store.
// It is the sole writer of the stock column.
type PostgresInventoryRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresInventoryRepository creates a new Postgres inventory repository.
func NewPostgresInventoryRepository(conn postgres.GenericConn) *PostgresInventoryRepository {
	return &PostgresInventoryRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var productColumns = []string{
	"id",
	"title",
	"subtitle",
	"category_id",
	"price",
	"stock",
	"status",
	"created_at",
	"updated_at",
}

// GetByID returns a catalog product.
func (r *PostgresInventoryRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	query := r.sb.Select(productColumns...).From("shop_product").Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal ProductDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.Title,
		&dal.Subtitle,
		&dal.CategoryId,
		&dal.Price,
		&dal.Stock,
		&dal.Status,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return dal.ToModel(), nil
}

// GetByIDs returns the products for the given ids, skipping missing ones.
func (r *PostgresInventoryRepository) GetByIDs(ctx context.Context, ids []string) ([]product.Product, error) {
	if len(ids) == 0 {
		return []product.Product{}, nil
	}

	query := r.sb.Select(productColumns...).From("shop_product").Where(sq.Eq{"id": ids})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryProducts(ctx, sql, args)
}

// ListPurchasable returns on-sale products with stock, newest first.
func (r *PostgresInventoryRepository) ListPurchasable(
	ctx context.Context,
	filter *product.ListPurchasableModel,
) ([]product.Product, error) {
	query := r.sb.Select(productColumns...).
		From("shop_product").
		Where(sq.Eq{"status": int(product.StatusOnSale)}).
		Where(sq.Gt{"stock": 0}).
		OrderBy("created_at DESC", "id DESC")

	if len(filter.ExcludeIds) > 0 {
		query = query.Where(sq.NotEq{"id": filter.ExcludeIds})
	}
	if filter.CategoryID != nil {
		query = query.Where(sq.Eq{"category_id": *filter.CategoryID})
	}
	if filter.ExcludeCategory != nil {
		query = query.Where(sq.NotEq{"category_id": *filter.ExcludeCategory})
	}
	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	return r.queryProducts(ctx, sql, args)
}

// Reserve atomically checks and decrements stock in a single statement.
// The conditional UPDATE takes a row lock, so concurrent reservations of the
// same product serialize and stock can never go negative.
func (r *PostgresInventoryRepository) Reserve(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	const sql = `
		UPDATE shop_product
		SET stock = stock - $2,
		    updated_at = now()
		WHERE id = $1 AND stock >= $2
	`

	tag, err := r.conn.Exec(ctx, sql, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Distinguish a missing product from an insufficient one.
		if _, err := r.GetByID(ctx, productID); err != nil {
			return err
		}
		return product.ErrInsufficientStock
	}

	return nil
}

// Restore increments stock by quantity. Used only by cancellation.
func (r *PostgresInventoryRepository) Restore(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return product.ErrInvalidQuantity
	}

	const sql = `
		UPDATE shop_product
		SET stock = stock + $2,
		    updated_at = now()
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, sql, productID, quantity)
	if err != nil {
		return fmt.Errorf("failed to restore stock: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrProductNotFound
	}

	return nil
}

func (r *PostgresInventoryRepository) queryProducts(ctx context.Context, sql string, args []interface{}) ([]product.Product, error) {
	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	var result []product.Product
	for rows.Next() {
		var dal ProductDal
		err := rows.Scan(
			&dal.Id,
			&dal.Title,
			&dal.Subtitle,
			&dal.CategoryId,
			&dal.Price,
			&dal.Stock,
			&dal.Status,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

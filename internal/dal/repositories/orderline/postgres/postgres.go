package postgresrepo

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/shopspring/decimal"
)

// OrderLineDal represents order line data access layer model.
type OrderLineDal struct {
	Id        int64           `db:"id"`
	OrderId   int64           `db:"order_id"`
	ProductId string          `db:"product_id"`
	SkuId     string          `db:"sku_id"`
	Title     string          `db:"title"`
	SkuTitle  *string         `db:"sku_title"`
	UnitPrice decimal.Decimal `db:"unit_price"`
	Quantity  int             `db:"quantity"`
	Subtotal  decimal.Decimal `db:"subtotal"`
	CreatedAt time.Time       `db:"created_at"`
}

// ToModel converts OrderLineDal to the service layer OrderLine model.
func (l *OrderLineDal) ToModel() *orderline.OrderLine {
	model := &orderline.OrderLine{
		ID:        l.Id,
		OrderID:   l.OrderId,
		ProductID: l.ProductId,
		SkuID:     l.SkuId,
		Title:     l.Title,
		UnitPrice: l.UnitPrice,
		Quantity:  l.Quantity,
		Subtotal:  l.Subtotal,
		CreatedAt: l.CreatedAt,
	}
	if l.SkuTitle != nil {
		model.SkuTitle = *l.SkuTitle
	}

	return model
}

// PostgresOrderLineRepository represents a Postgres order line repository.
type PostgresOrderLineRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderLineRepository creates a new Postgres order line repository.
func NewPostgresOrderLineRepository(conn postgres.GenericConn) *PostgresOrderLineRepository {
	return &PostgresOrderLineRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

// BulkInsert inserts order line snapshots and returns them with generated ids.
func (r *PostgresOrderLineRepository) BulkInsert(
	ctx context.Context,
	lines []orderline.OrderLine,
) ([]orderline.OrderLine, error) {
	if len(lines) == 0 {
		return []orderline.OrderLine{}, nil
	}

	query := r.sb.Insert("shop_order_line").
		Columns(
			"order_id",
			"product_id",
			"sku_id",
			"title",
			"sku_title",
			"unit_price",
			"quantity",
			"subtotal",
			"created_at",
		).
		Suffix("RETURNING id, created_at")

	for i := range lines {
		var skuTitle *string
		if lines[i].SkuTitle != "" {
			skuTitle = &lines[i].SkuTitle
		}
		query = query.Values(
			lines[i].OrderID,
			lines[i].ProductID,
			lines[i].SkuID,
			lines[i].Title,
			skuTitle,
			lines[i].UnitPrice,
			lines[i].Quantity,
			lines[i].Subtotal,
			lines[i].CreatedAt,
		)
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to bulk insert order lines: %w", err)
	}
	defer rows.Close()

	result := make([]orderline.OrderLine, len(lines))
	copy(result, lines)

	i := 0
	for rows.Next() {
		if err := rows.Scan(&result[i].ID, &result[i].CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		i++
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Query retrieves order lines based on filter criteria.
func (r *PostgresOrderLineRepository) Query(
	ctx context.Context,
	filter *orderline.QueryOrderLinesModel,
) ([]orderline.OrderLine, error) {
	query := r.sb.
		Select(
			"id",
			"order_id",
			"product_id",
			"sku_id",
			"title",
			"sku_title",
			"unit_price",
			"quantity",
			"subtotal",
			"created_at",
		).
		From("shop_order_line")

	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}
	if len(filter.OrderIds) > 0 {
		query = query.Where(sq.Eq{"order_id": filter.OrderIds})
	}
	if len(filter.ProductIds) > 0 {
		query = query.Where(sq.Eq{"product_id": filter.ProductIds})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order lines: %w", err)
	}
	defer rows.Close()

	var result []orderline.OrderLine
	for rows.Next() {
		var dal OrderLineDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderId,
			&dal.ProductId,
			&dal.SkuId,
			&dal.Title,
			&dal.SkuTitle,
			&dal.UnitPrice,
			&dal.Quantity,
			&dal.Subtotal,
			&dal.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order line: %w", err)
		}
		result = append(result, *dal.ToModel())
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

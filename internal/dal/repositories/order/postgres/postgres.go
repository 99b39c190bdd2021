package postgresrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// OrderDal represents order data access layer model.
type OrderDal struct {
	Id                int64           `db:"id"`
	OrderNo           string          `db:"order_no"`
	UserId            int64           `db:"user_id"`
	TotalAmount       decimal.Decimal `db:"total_amount"`
	PayAmount         decimal.Decimal `db:"pay_amount"`
	Status            int             `db:"status"`
	PayType           *string         `db:"pay_type"`
	PayTime           *time.Time      `db:"pay_time"`
	ReceiverAddressId int64           `db:"receiver_address_id"`
	LogisticsNo       *string         `db:"logistics_no"`
	Remark            *string         `db:"remark"`
	CreatedAt         time.Time       `db:"created_at"`
	UpdatedAt         time.Time       `db:"updated_at"`
}

// ToModel converts OrderDal to the service layer Order model.
func (o *OrderDal) ToModel() (*order.Order, error) {
	status, err := order.ParseStatus(o.Status)
	if err != nil {
		return nil, err
	}

	model := &order.Order{
		ID:                o.Id,
		OrderNo:           o.OrderNo,
		UserID:            o.UserId,
		TotalAmount:       o.TotalAmount,
		PayAmount:         o.PayAmount,
		Status:            status,
		PayTime:           o.PayTime,
		ReceiverAddressID: o.ReceiverAddressId,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
		Lines:             []orderline.OrderLine{},
	}
	if o.PayType != nil {
		model.PayType = *o.PayType
	}
	if o.LogisticsNo != nil {
		model.LogisticsNo = *o.LogisticsNo
	}
	if o.Remark != nil {
		model.Remark = *o.Remark
	}

	return model, nil
}

// OrderDalFromModel converts the service layer Order model to OrderDal.
func OrderDalFromModel(o *order.Order) *OrderDal {
	dal := &OrderDal{
		Id:                o.ID,
		OrderNo:           o.OrderNo,
		UserId:            o.UserID,
		TotalAmount:       o.TotalAmount,
		PayAmount:         o.PayAmount,
		Status:            int(o.Status),
		PayTime:           o.PayTime,
		ReceiverAddressId: o.ReceiverAddressID,
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
	if o.PayType != "" {
		dal.PayType = &o.PayType
	}
	if o.LogisticsNo != "" {
		dal.LogisticsNo = &o.LogisticsNo
	}
	if o.Remark != "" {
		dal.Remark = &o.Remark
	}

	return dal
}

// PostgresOrderRepository represents a Postgres order repository.
type PostgresOrderRepository struct {
	conn postgres.GenericConn
	sb   sq.StatementBuilderType
}

// NewPostgresOrderRepository creates a new Postgres order repository.
func NewPostgresOrderRepository(conn postgres.GenericConn) *PostgresOrderRepository {
	return &PostgresOrderRepository{
		conn: conn,
		sb:   sq.StatementBuilder.PlaceholderFormat(sq.Dollar),
	}
}

var orderColumns = []string{
	"id",
	"order_no",
	"user_id",
	"total_amount",
	"pay_amount",
	"status",
	"pay_type",
	"pay_time",
	"receiver_address_id",
	"logistics_no",
	"remark",
	"created_at",
	"updated_at",
}

// Insert persists a new order row and returns it with its generated id.
func (r *PostgresOrderRepository) Insert(ctx context.Context, o order.Order) (order.Order, error) {
	const sql = `
		INSERT INTO shop_order (
			order_no,
			user_id,
			total_amount,
			pay_amount,
			status,
			receiver_address_id,
			remark,
			created_at,
			updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`

	dal := OrderDalFromModel(&o)
	err := r.conn.QueryRow(ctx, sql,
		dal.OrderNo,
		dal.UserId,
		dal.TotalAmount,
		dal.PayAmount,
		dal.Status,
		dal.ReceiverAddressId,
		dal.Remark,
		dal.CreatedAt,
		dal.UpdatedAt,
	).Scan(&o.ID, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return order.Order{}, fmt.Errorf("failed to insert order: %w", err)
	}

	return o, nil
}

// GetByID returns a single order without its lines.
func (r *PostgresOrderRepository) GetByID(ctx context.Context, id int64) (*order.Order, error) {
	query := r.sb.Select(orderColumns...).From("shop_order").Where(sq.Eq{"id": id})

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var dal OrderDal
	err = r.conn.QueryRow(ctx, sql, args...).Scan(
		&dal.Id,
		&dal.OrderNo,
		&dal.UserId,
		&dal.TotalAmount,
		&dal.PayAmount,
		&dal.Status,
		&dal.PayType,
		&dal.PayTime,
		&dal.ReceiverAddressId,
		&dal.LogisticsNo,
		&dal.Remark,
		&dal.CreatedAt,
		&dal.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	return dal.ToModel()
}

// Update persists the mutable lifecycle fields of an existing order. The
// write is guarded by the expected prior status, so a transition raced by a
// concurrent one updates zero rows and fails instead of overwriting it.
func (r *PostgresOrderRepository) Update(ctx context.Context, o *order.Order, expected order.Status) error {
	const sql = `
		UPDATE shop_order
		SET status = $2,
		    pay_type = $3,
		    pay_time = $4,
		    logistics_no = $5,
		    updated_at = $6
		WHERE id = $1 AND status = $7
	`

	dal := OrderDalFromModel(o)
	tag, err := r.conn.Exec(ctx, sql,
		dal.Id,
		dal.Status,
		dal.PayType,
		dal.PayTime,
		dal.LogisticsNo,
		dal.UpdatedAt,
		int(expected),
	)
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order %d no longer in status %s", order.ErrInvalidTransition, o.ID, expected)
	}

	return nil
}

func (r *PostgresOrderRepository) applyFilter(query sq.SelectBuilder, filter *order.QueryOrdersModel) sq.SelectBuilder {
	if len(filter.Ids) > 0 {
		query = query.Where(sq.Eq{"id": filter.Ids})
	}
	if filter.UserID > 0 {
		query = query.Where(sq.Eq{"user_id": filter.UserID})
	}
	if filter.Status != nil {
		query = query.Where(sq.Eq{"status": int(*filter.Status)})
	}
	if len(filter.Statuses) > 0 {
		codes := make([]int, len(filter.Statuses))
		for i, s := range filter.Statuses {
			codes[i] = int(s)
		}
		query = query.Where(sq.Eq{"status": codes})
	}
	if filter.OrderNoLike != "" {
		query = query.Where(sq.Like{"order_no": "%" + filter.OrderNoLike + "%"})
	}

	return query
}

// Query retrieves orders based on filter criteria, newest first.
func (r *PostgresOrderRepository) Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	query := r.applyFilter(r.sb.Select(orderColumns...).From("shop_order"), filter).
		OrderBy("created_at DESC", "id DESC")

	if filter.Limit > 0 {
		query = query.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		query = query.Offset(uint64(filter.Offset))
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var result []order.Order
	for rows.Next() {
		var dal OrderDal
		err := rows.Scan(
			&dal.Id,
			&dal.OrderNo,
			&dal.UserId,
			&dal.TotalAmount,
			&dal.PayAmount,
			&dal.Status,
			&dal.PayType,
			&dal.PayTime,
			&dal.ReceiverAddressId,
			&dal.LogisticsNo,
			&dal.Remark,
			&dal.CreatedAt,
			&dal.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		model, err := dal.ToModel()
		if err != nil {
			return nil, fmt.Errorf("failed to convert order dal to model: %w", err)
		}
		result = append(result, *model)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration error: %w", err)
	}

	return result, nil
}

// Count returns the total number of orders matching the filter.
func (r *PostgresOrderRepository) Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error) {
	query := r.applyFilter(r.sb.Select("COUNT(*)").From("shop_order"), filter)

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, fmt.Errorf("failed to build query: %w", err)
	}

	var total int64
	if err := r.conn.QueryRow(ctx, sql, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count orders: %w", err)
	}

	return total, nil
}

// NextOrderSeq returns the next value of the order number sequence.
func (r *PostgresOrderRepository) NextOrderSeq(ctx context.Context) (int64, error) {
	var seq int64
	if err := r.conn.QueryRow(ctx, `SELECT nextval('shop_order_no_seq')`).Scan(&seq); err != nil {
		return 0, fmt.Errorf("failed to advance order number sequence: %w", err)
	}

	return seq, nil
}

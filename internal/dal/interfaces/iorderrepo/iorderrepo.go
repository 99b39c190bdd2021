package iorderrepo

import (
	"context"

	"github.com/heritage-platform/commerce/internal/service/models/order"
)

// IOrderRepository is an interface for the order postgres repository.
type IOrderRepository interface {
	// Insert persists a new order row and returns it with its generated id.
	Insert(ctx context.Context, o order.Order) (order.Order, error)

	// GetByID returns a single order without its lines.
	// Returns order.ErrOrderNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*order.Order, error)

	// Update persists mutable lifecycle fields (status, pay info,
	// logistics number, updated_at) of an existing order. The write only
	// lands if the row is still in the expected status; otherwise it fails
	// with order.ErrInvalidTransition.
	Update(ctx context.Context, o *order.Order, expected order.Status) error

	// Query retrieves orders matching the filter, newest first.
	Query(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)

	// Count returns the total number of orders matching the filter,
	// ignoring paging.
	Count(ctx context.Context, filter *order.QueryOrdersModel) (int64, error)

	// NextOrderSeq returns the next value of the order number sequence.
	NextOrderSeq(ctx context.Context) (int64, error)
}

package iorderlinerepo

import (
	"context"

	"github.com/heritage-platform/commerce/internal/service/models/orderline"
)

// IOrderLineRepository is an interface for the order line postgres repository.
type IOrderLineRepository interface {
	// BulkInsert persists line snapshots and returns them with generated ids.
	BulkInsert(ctx context.Context, lines []orderline.OrderLine) ([]orderline.OrderLine, error)

	// Query retrieves order lines matching the filter.
	Query(ctx context.Context, filter *orderline.QueryOrderLinesModel) ([]orderline.OrderLine, error)
}

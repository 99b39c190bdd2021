package iinventoryrepo

import (
	"context"

	"github.com/heritage-platform/commerce/internal/service/models/product"
)

// IInventoryRepository is the inventory ledger's view of the product store:
// catalog reads plus the two stock mutations. The ledger is the sole writer
// of the stock column.
type IInventoryRepository interface {
	// GetByID returns a catalog product.
	// Returns product.ErrProductNotFound when no row matches.
	GetByID(ctx context.Context, id string) (*product.Product, error)

	// GetByIDs returns the products for the given ids, skipping missing ones.
	GetByIDs(ctx context.Context, ids []string) ([]product.Product, error)

	// ListPurchasable returns on-sale products with stock, newest first.
	ListPurchasable(ctx context.Context, filter *product.ListPurchasableModel) ([]product.Product, error)

	// Reserve atomically checks stock >= quantity and decrements it in one
	// statement. Returns product.ErrInsufficientStock when the check fails
	// and product.ErrProductNotFound when the product does not exist.
	Reserve(ctx context.Context, productID string, quantity int) error

	// Restore increments stock by quantity. Used only by cancellation;
	// callers guarantee quantity matches a prior reservation.
	Restore(ctx context.Context, productID string, quantity int) error
}

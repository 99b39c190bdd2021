package iaddressrepo

import (
	"context"

	"github.com/heritage-platform/commerce/internal/service/models/address"
)

// IAddressRepository is the commerce core's read-only view of the address book.
type IAddressRepository interface {
	// GetByID returns a shipping address.
	// Returns address.ErrAddressNotFound when no row matches.
	GetByID(ctx context.Context, id int64) (*address.Address, error)
}

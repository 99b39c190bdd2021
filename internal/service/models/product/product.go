package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrProductUnavailable = errors.New("product is off shelf or out of stock")
	ErrInsufficientStock  = errors.New("insufficient stock")
	ErrInvalidQuantity    = errors.New("quantity must be positive")
)

// Product status codes as persisted on the externally-owned catalog table.
type Status int

const (
	StatusOffShelf Status = 0
	StatusOnSale   Status = 1
)

// Product is the catalog product as seen by the commerce core. The core
// reads everything and writes only Stock, through the inventory ledger.
type Product struct {
	ID         string          `json:"id"`
	Title      string          `json:"title"`
	Subtitle   string          `json:"subtitle,omitempty"`
	CategoryID int64           `json:"categoryId"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	Status     Status          `json:"status"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// OnSale reports whether the product is published in the shop.
func (p *Product) OnSale() bool {
	return p.Status == StatusOnSale
}

// Purchasable reports whether the product can be ordered at all.
func (p *Product) Purchasable() bool {
	return p.OnSale() && p.Stock > 0
}

// HasStock reports whether the product can cover quantity units.
func (p *Product) HasStock(quantity int) bool {
	return p.Stock >= quantity
}

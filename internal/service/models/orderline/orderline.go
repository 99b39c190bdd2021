package orderline

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine is an immutable snapshot of a purchased product within an order.
// Catalog price or title changes must never retroactively alter it.
type OrderLine struct {
	ID        int64           `json:"id"`
	OrderID   int64           `json:"orderId"`
	ProductID string          `json:"productId"`
	SkuID     string          `json:"skuId"`
	Title     string          `json:"title"`
	SkuTitle  string          `json:"skuTitle,omitempty"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Validate checks the line invariant subtotal == unitPrice * quantity.
func (l *OrderLine) Validate() error {
	if l.Quantity < 1 {
		return errors.New("line quantity must be at least 1")
	}
	if !l.Subtotal.Equal(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))) {
		return errors.New("line subtotal does not equal unit price times quantity")
	}
	return nil
}

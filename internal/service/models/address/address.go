package address

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrAddressNotFound = errors.New("shipping address not found")
	ErrAddressNotOwned = errors.New("shipping address belongs to another user")
)

// Address is a shipping address from the externally-owned address book.
// The commerce core only reads it to validate ownership at checkout.
type Address struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"userId"`
	Receiver  string    `json:"receiver"`
	Phone     string    `json:"phone"`
	Province  string    `json:"province"`
	City      string    `json:"city"`
	District  string    `json:"district"`
	Detail    string    `json:"detail"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

// OwnedBy reports whether userID owns the address.
func (a *Address) OwnedBy(userID int64) bool {
	return a.UserID == userID
}

// FullAddress joins the region parts into one display line.
func (a *Address) FullAddress() string {
	parts := []string{a.Province, a.City, a.District, a.Detail}
	nonEmpty := parts[:0]
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}

package order

import (
	"errors"
	"fmt"
	"time"

	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrForbidden         = errors.New("caller is not allowed to act on this order")
	ErrInvalidTransition = errors.New("invalid order status transition")
)

// Status is the closed set of order lifecycle states.
type Status int

const (
	StatusPending   Status = 0
	StatusPaid      Status = 1
	StatusShipped   Status = 2
	StatusCompleted Status = 3
	StatusClosed    Status = 4
)

var statusNames = map[Status]string{
	StatusPending:   "pending",
	StatusPaid:      "paid",
	StatusShipped:   "shipped",
	StatusCompleted: "completed",
	StatusClosed:    "closed",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("unknown(%d)", int(s))
}

// ParseStatus converts a persisted status code into a Status.
func ParseStatus(code int) (Status, error) {
	s := Status(code)
	if _, ok := statusNames[s]; !ok {
		return 0, fmt.Errorf("invalid order status code %d", code)
	}
	return s, nil
}

// validTransitions is the single source of truth for lifecycle legality.
// Completed and Closed are terminal.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusPaid, StatusClosed},
	StatusPaid:      {StatusShipped, StatusClosed},
	StatusShipped:   {StatusCompleted},
	StatusCompleted: {},
	StatusClosed:    {},
}

// CanTransitionTo reports whether the transition s -> target is legal.
func (s Status) CanTransitionTo(target Status) bool {
	for _, next := range validTransitions[s] {
		if next == target {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition is legal from s.
func (s Status) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// Order is the order aggregate root. Lines are immutable snapshots created
// together with the order; after creation the aggregate changes only through
// the lifecycle transitions.
type Order struct {
	ID                int64                 `json:"id"`
	OrderNo           string                `json:"orderNo"`
	UserID            int64                 `json:"userId"`
	TotalAmount       decimal.Decimal       `json:"totalAmount"`
	PayAmount         decimal.Decimal       `json:"payAmount"`
	Status            Status                `json:"status"`
	PayType           string                `json:"payType,omitempty"`
	PayTime           *time.Time            `json:"payTime,omitempty"`
	ReceiverAddressID int64                 `json:"receiverAddressId"`
	LogisticsNo       string                `json:"logisticsNo,omitempty"`
	Remark            string                `json:"remark,omitempty"`
	CreatedAt         time.Time             `json:"createdAt"`
	UpdatedAt         time.Time             `json:"updatedAt"`
	Lines             []orderline.OrderLine `json:"lines"`
}

// TransitionTo moves the order to target if the transition table allows it.
// On rejection the order is left untouched.
func (o *Order) TransitionTo(target Status) error {
	if !o.Status.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, o.Status, target)
	}
	o.Status = target
	return nil
}

// OwnedBy reports whether userID owns the order.
func (o *Order) OwnedBy(userID int64) bool {
	return o.UserID == userID
}

// Validate checks the money invariants: amounts are non-negative,
// payAmount <= totalAmount, and totalAmount equals the sum of line subtotals.
func (o *Order) Validate() error {
	if o.TotalAmount.IsNegative() || o.PayAmount.IsNegative() {
		return errors.New("order amounts must be non-negative")
	}
	if o.PayAmount.GreaterThan(o.TotalAmount) {
		return errors.New("pay amount exceeds total amount")
	}
	sum := decimal.Zero
	for i := range o.Lines {
		if err := o.Lines[i].Validate(); err != nil {
			return err
		}
		sum = sum.Add(o.Lines[i].Subtotal)
	}
	if len(o.Lines) > 0 && !sum.Equal(o.TotalAmount) {
		return errors.New("total amount does not match sum of line subtotals")
	}
	return nil
}

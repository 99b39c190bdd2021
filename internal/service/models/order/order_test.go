package order

import (
	"testing"

	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatus_CanTransitionTo(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		from    Status
		to      Status
		allowed bool
	}{
		{"pending to paid", StatusPending, StatusPaid, true},
		{"pending to closed", StatusPending, StatusClosed, true},
		{"pending to shipped", StatusPending, StatusShipped, false},
		{"pending to completed", StatusPending, StatusCompleted, false},
		{"paid to shipped", StatusPaid, StatusShipped, true},
		{"paid to closed", StatusPaid, StatusClosed, true},
		{"paid to completed", StatusPaid, StatusCompleted, false},
		{"paid to pending", StatusPaid, StatusPending, false},
		{"shipped to completed", StatusShipped, StatusCompleted, true},
		{"shipped to closed", StatusShipped, StatusClosed, false},
		{"completed to closed", StatusCompleted, StatusClosed, false},
		{"closed to paid", StatusClosed, StatusPaid, false},
		{"same state is not a transition", StatusPaid, StatusPaid, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_IsTerminal(t *testing.T) {
	t.Parallel()

	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusPaid.IsTerminal())
	assert.False(t, StatusShipped.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusClosed.IsTerminal())
}

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for code := 0; code <= 4; code++ {
		status, err := ParseStatus(code)
		require.NoError(t, err)
		assert.Equal(t, Status(code), status)
	}

	_, err := ParseStatus(5)
	assert.Error(t, err)
	_, err = ParseStatus(-1)
	assert.Error(t, err)
}

func TestOrder_TransitionTo(t *testing.T) {
	t.Parallel()

	o := Order{Status: StatusPending}

	require.NoError(t, o.TransitionTo(StatusPaid))
	assert.Equal(t, StatusPaid, o.Status)

	err := o.TransitionTo(StatusCompleted)
	require.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StatusPaid, o.Status, "rejected transition must not change state")
}

func TestOrder_Validate(t *testing.T) {
	t.Parallel()

	valid := Order{
		TotalAmount: decimal.NewFromInt(300),
		PayAmount:   decimal.NewFromInt(300),
		Lines: []orderline.OrderLine{{
			ProductID: "p1",
			Title:     "Bronze Mirror",
			UnitPrice: decimal.NewFromInt(100),
			Quantity:  3,
			Subtotal:  decimal.NewFromInt(300),
		}},
	}
	assert.NoError(t, valid.Validate())

	t.Run("pay amount above total", func(t *testing.T) {
		o := valid
		o.PayAmount = decimal.NewFromInt(400)
		assert.Error(t, o.Validate())
	})

	t.Run("negative amount", func(t *testing.T) {
		o := valid
		o.TotalAmount = decimal.NewFromInt(-1)
		assert.Error(t, o.Validate())
	})

	t.Run("total must match line subtotals", func(t *testing.T) {
		o := valid
		o.TotalAmount = decimal.NewFromInt(299)
		o.PayAmount = decimal.NewFromInt(299)
		assert.Error(t, o.Validate())
	})

	t.Run("line subtotal must match unit price times quantity", func(t *testing.T) {
		o := valid
		o.Lines = []orderline.OrderLine{{
			ProductID: "p1",
			Title:     "Bronze Mirror",
			UnitPrice: decimal.NewFromInt(100),
			Quantity:  3,
			Subtotal:  decimal.NewFromInt(250),
		}}
		assert.Error(t, o.Validate())
	})
}

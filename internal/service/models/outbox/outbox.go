package outbox

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/heritage-platform/commerce/internal/service/models/order"
)

// Routing keys for order lifecycle events.
const (
	RoutingKeyOrderCreated   = "order.created"
	RoutingKeyOrderPaid      = "order.paid"
	RoutingKeyOrderShipped   = "order.shipped"
	RoutingKeyOrderCompleted = "order.completed"
	RoutingKeyOrderClosed    = "order.closed"
)

// Message is a pending event awaiting publication to RabbitMQ. Rows are
// inserted in the same transaction as the state change they describe.
type Message struct {
	ID           int64
	QueueName    string
	ExchangeName string
	RoutingKey   string
	Payload      []byte
	ContentType  string
	RetryCount   int
	MaxRetries   int
	LastError    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	NextRetryAt  time.Time
}

// OrderEvent is the payload published for every order lifecycle transition.
type OrderEvent struct {
	OrderID     int64     `json:"orderId"`
	OrderNo     string    `json:"orderNo"`
	UserID      int64     `json:"userId"`
	TotalAmount string    `json:"totalAmount"`
	PayAmount   string    `json:"payAmount"`
	Status      string    `json:"status"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// NewOrderEventMessage builds an outbox message for an order transition.
func NewOrderEventMessage(routingKey string, o *order.Order, occurredAt time.Time) (Message, error) {
	payload, err := json.Marshal(OrderEvent{
		OrderID:     o.ID,
		OrderNo:     o.OrderNo,
		UserID:      o.UserID,
		TotalAmount: o.TotalAmount.String(),
		PayAmount:   o.PayAmount.String(),
		Status:      o.Status.String(),
		OccurredAt:  occurredAt,
	})
	if err != nil {
		return Message{}, fmt.Errorf("failed to marshal order event: %w", err)
	}

	return Message{
		QueueName:    "commerce.order.events",
		ExchangeName: "commerce.events",
		RoutingKey:   routingKey,
		Payload:      payload,
		ContentType:  "application/json",
		MaxRetries:   5,
		NextRetryAt:  occurredAt,
	}, nil
}

package createorder

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/services/ordersvc"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

// service is an interface for the service layer.
type service interface {
	CreateOrder(ctx context.Context, cmd ordersvc.CreateOrderCommand, ownerID int64) (*order.Order, error)
}

// createOrderRequest represents a checkout request.
type createOrderRequest struct {
	ProductID string `json:"productId" validate:"required"`
	Quantity  int    `json:"quantity"  validate:"gt=0"`
	AddressID int64  `json:"addressId" validate:"gt=0"`
	Remark    string `json:"remark"    validate:"max=500"`
}

// Validate validates the checkout request.
func (r *createOrderRequest) Validate() error {
	return validator.New().Struct(r)
}

func (r *createOrderRequest) toCommand() ordersvc.CreateOrderCommand {
	return ordersvc.CreateOrderCommand{
		ProductID: r.ProductID,
		Quantity:  r.Quantity,
		AddressID: r.AddressID,
		Remark:    r.Remark,
	}
}

// CreateOrder handles the checkout request.
func CreateOrder(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	req := createOrderRequest{}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding request body for create order", "error", err)

		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error validating request body for create order", "error", err)

		return
	}

	created, err := service.CreateOrder(r.Context(), req.toCommand(), identity.UserID)
	if err != nil {
		respond.Err(w, err)
		slog.Error("Error creating order", "error", err, "userId", identity.UserID)

		return
	}

	respond.JSON(w, http.StatusCreated, created)
}

package getorder

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

type service interface {
	GetOrderDetail(ctx context.Context, orderID, callerID int64, isAdmin bool) (*order.Order, error)
}

// GetOrder returns one order with its lines. Non-admin callers only see
// their own orders.
func GetOrder(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	detail, err := service.GetOrderDetail(r.Context(), orderID, identity.UserID, identity.IsAdmin)
	if err != nil {
		respond.Err(w, err)
		slog.Error("Error getting order detail", "error", err, "orderId", orderID)

		return
	}

	respond.JSON(w, http.StatusOK, detail)
}

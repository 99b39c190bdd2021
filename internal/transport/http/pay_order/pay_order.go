package payorder

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

type service interface {
	Pay(ctx context.Context, orderID, callerID int64, payType string) error
}

// PayOrder records a successful payment on a pending order.
func PayOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	payType := r.URL.Query().Get("payType")
	if payType == "" {
		http.Error(w, "payType is required", http.StatusBadRequest)
		return
	}

	if err := service.Pay(r.Context(), orderID, identity.UserID, payType); err != nil {
		respond.Err(w, err)
		slog.Error("Error paying order", "error", err, "orderId", orderID)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

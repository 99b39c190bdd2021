package cancelorder

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
	Cancel(ctx context.Context, orderID, callerID int64, isAdmin bool) error
}

// CancelOrder closes a pending or paid order and restores its stock.
func CancelOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	if err := service.Cancel(r.Context(), orderID, identity.UserID, identity.IsAdmin); err != nil {
		respond.Err(w, err)
		slog.Error("Error cancelling order", "error", err, "orderId", orderID)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

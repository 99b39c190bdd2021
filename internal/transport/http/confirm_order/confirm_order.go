package confirmorder

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
	Confirm(ctx context.Context, orderID, callerID int64) error
}

// ConfirmOrder marks a shipped order as received by its owner.
func ConfirmOrder(w http.ResponseWriter, r *http.Request, service service) {
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

	if err := service.Confirm(r.Context(), orderID, identity.UserID); err != nil {
		respond.Err(w, err)
		slog.Error("Error confirming order", "error", err, "orderId", orderID)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

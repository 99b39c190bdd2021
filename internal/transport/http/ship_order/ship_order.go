package shiporder

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

type service interface {
	Ship(ctx context.Context, orderID int64, logisticsNo string) error
}

// ShipOrder records the dispatch of a paid order. Admin only.
func ShipOrder(w http.ResponseWriter, r *http.Request, service service) {
	orderID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid order id", http.StatusBadRequest)
		return
	}

	logisticsNo := r.URL.Query().Get("logisticsNo")
	if logisticsNo == "" {
		http.Error(w, "logisticsNo is required", http.StatusBadRequest)
		return
	}

	if err := service.Ship(r.Context(), orderID, logisticsNo); err != nil {
		respond.Err(w, err)
		slog.Error("Error shipping order", "error", err, "orderId", orderID)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

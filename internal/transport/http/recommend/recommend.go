package recommend

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

const (
	defaultLimit = 10
	maxLimit     = 50
)

type service interface {
	Recommend(ctx context.Context, productID string, limit int) ([]string, error)
}

// Recommend returns product ids related to the given product, best
// match first.
func Recommend(w http.ResponseWriter, r *http.Request, service service) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		http.Error(w, "invalid product id", http.StatusBadRequest)
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	ids, err := service.Recommend(r.Context(), productID, limit)
	if err != nil {
		respond.Err(w, err)
		slog.Error("Error recommending products", "error", err, "productId", productID)

		return
	}

	respond.JSON(w, http.StatusOK, map[string]any{"productIds": ids})
}

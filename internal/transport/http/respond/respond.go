package respond

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/heritage-platform/commerce/internal/service/models/address"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/product"
)

// JSON writes v as a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// Err maps a service error onto an HTTP status. Business errors keep
// their message; anything unrecognized becomes an opaque 500.
func Err(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, product.ErrProductNotFound),
		errors.Is(err, address.ErrAddressNotFound):
		status = http.StatusNotFound
		message = err.Error()
	case errors.Is(err, order.ErrForbidden),
		errors.Is(err, address.ErrAddressNotOwned):
		status = http.StatusForbidden
		message = err.Error()
	case errors.Is(err, order.ErrInvalidTransition),
		errors.Is(err, product.ErrInsufficientStock),
		errors.Is(err, product.ErrProductUnavailable):
		status = http.StatusConflict
		message = err.Error()
	case errors.Is(err, product.ErrInvalidQuantity):
		status = http.StatusBadRequest
		message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if encErr := json.NewEncoder(w).Encode(map[string]string{"error": message}); encErr != nil {
		slog.Error("Error encoding error response", "error", encErr)
	}
}

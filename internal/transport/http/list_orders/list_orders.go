package listorders

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/schema"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/services/ordersvc"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	"github.com/heritage-platform/commerce/internal/transport/http/respond"
)

type service interface {
	ListOrders(ctx context.Context, model ordersvc.ListOrdersModel) (*ordersvc.OrderPage, error)
}

type queryOrdersRequest struct {
	Status      *int   `schema:"status,omitempty"`
	OrderNoLike string `schema:"orderNo,omitempty"`
	Current     int    `schema:"current,omitempty"`
	Size        int    `schema:"size,omitempty"`
}

func (q *queryOrdersRequest) toModel() (ordersvc.ListOrdersModel, error) {
	model := ordersvc.ListOrdersModel{
		OrderNoLike: q.OrderNoLike,
		Page:        q.Current,
		PageSize:    q.Size,
	}
	if q.Status != nil {
		status, err := order.ParseStatus(*q.Status)
		if err != nil {
			return ordersvc.ListOrdersModel{}, err
		}
		model.Status = &status
	}
	return model, nil
}

func decodeQuery(r *http.Request) (ordersvc.ListOrdersModel, error) {
	decoder := schema.NewDecoder()
	query := &queryOrdersRequest{}
	if err := decoder.Decode(query, r.URL.Query()); err != nil {
		return ordersvc.ListOrdersModel{}, err
	}
	return query.toModel()
}

// ListUserOrders returns a page of the caller's own orders.
func ListUserOrders(w http.ResponseWriter, r *http.Request, service service) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	model, err := decodeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding list orders request", "error", err)

		return
	}
	model.UserID = identity.UserID
	model.OrderNoLike = ""

	page, err := service.ListOrders(r.Context(), model)
	if err != nil {
		respond.Err(w, err)
		slog.Error("Error listing orders", "error", err, "userId", identity.UserID)

		return
	}

	respond.JSON(w, http.StatusOK, page)
}

// ListAdminOrders returns a page of orders across all users, optionally
// filtered by status and order number prefix.
func ListAdminOrders(w http.ResponseWriter, r *http.Request, service service) {
	model, err := decodeQuery(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		slog.Error("Error decoding admin list orders request", "error", err)

		return
	}

	page, err := service.ListOrders(r.Context(), model)
	if err != nil {
		respond.Err(w, err)
		slog.Error("Error listing orders for admin", "error", err)

		return
	}

	respond.JSON(w, http.StatusOK, page)
}

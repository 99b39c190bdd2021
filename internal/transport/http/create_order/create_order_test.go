package createorder

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/product"
	"github.com/heritage-platform/commerce/internal/service/services/ordersvc"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubService struct {
	gotCmd     ordersvc.CreateOrderCommand
	gotOwnerID int64
	result     *order.Order
	err        error
}

func (s *stubService) CreateOrder(_ context.Context, cmd ordersvc.CreateOrderCommand, ownerID int64) (*order.Order, error) {
	s.gotCmd = cmd
	s.gotOwnerID = ownerID
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func newRequest(body string, identity *auth.Identity) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/shop/order", strings.NewReader(body))
	if identity != nil {
		req = req.WithContext(auth.WithIdentity(req.Context(), *identity))
	}
	return req
}

func TestCreateOrder(t *testing.T) {
	t.Parallel()

	t.Run("valid request reaches the service", func(t *testing.T) {
		svc := &stubService{result: &order.Order{ID: 7, OrderNo: "202506150000011001000001"}}
		rec := httptest.NewRecorder()

		CreateOrder(rec, newRequest(
			`{"productId":"vase-01","quantity":2,"addressId":11,"remark":"fragile"}`,
			&auth.Identity{UserID: 1001},
		), svc)

		require.Equal(t, http.StatusCreated, rec.Code)
		assert.Equal(t, "vase-01", svc.gotCmd.ProductID)
		assert.Equal(t, 2, svc.gotCmd.Quantity)
		assert.Equal(t, int64(11), svc.gotCmd.AddressID)
		assert.Equal(t, int64(1001), svc.gotOwnerID)
		assert.Contains(t, rec.Body.String(), "202506150000011001000001")
	})

	t.Run("missing identity", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()

		CreateOrder(rec, newRequest(`{"productId":"vase-01","quantity":1,"addressId":11}`, nil), svc)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()

		CreateOrder(rec, newRequest(`{`, &auth.Identity{UserID: 1001}), svc)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero quantity fails validation", func(t *testing.T) {
		svc := &stubService{}
		rec := httptest.NewRecorder()

		CreateOrder(rec, newRequest(
			`{"productId":"vase-01","quantity":0,"addressId":11}`,
			&auth.Identity{UserID: 1001},
		), svc)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, svc.gotCmd.ProductID, "service must not be called")
	})

	t.Run("insufficient stock maps to conflict", func(t *testing.T) {
		svc := &stubService{err: product.ErrInsufficientStock}
		rec := httptest.NewRecorder()

		CreateOrder(rec, newRequest(
			`{"productId":"vase-01","quantity":5,"addressId":11}`,
			&auth.Identity{UserID: 1001},
		), svc)

		assert.Equal(t, http.StatusConflict, rec.Code)
	})
}

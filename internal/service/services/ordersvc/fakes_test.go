package ordersvc

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/heritage-platform/commerce/internal/dal/interfaces/iaddressrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iinventoryrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderlinerepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/ioutboxrepo"
	"github.com/heritage-platform/commerce/internal/service/models/address"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/heritage-platform/commerce/internal/service/models/outbox"
	"github.com/heritage-platform/commerce/internal/service/models/product"
)

// fakeStore is an in-memory stand-in for the postgres repositories. It also
// acts as the unit of work, recording commit and rollback calls.
type fakeStore struct {
	orders    map[int64]order.Order
	lines     map[int64]orderline.OrderLine
	products  map[string]product.Product
	addresses map[int64]address.Address
	outbox    []outbox.Message

	nextOrderID int64
	nextLineID  int64
	seq         int64

	begun      int
	committed  int
	rolledBack int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    make(map[int64]order.Order),
		lines:     make(map[int64]orderline.OrderLine),
		products:  make(map[string]product.Product),
		addresses: make(map[int64]address.Address),
	}
}

func (f *fakeStore) Begin(_ context.Context) error { f.begun++; return nil }
func (f *fakeStore) Commit(_ context.Context) error {
	f.committed++
	return nil
}
func (f *fakeStore) Rollback(_ context.Context) { f.rolledBack++ }

func (f *fakeStore) OrderRepository() iorderrepo.IOrderRepository         { return (*fakeOrderRepo)(f) }
func (f *fakeStore) OrderLineRepository() iorderlinerepo.IOrderLineRepository {
	return (*fakeOrderLineRepo)(f)
}
func (f *fakeStore) InventoryRepository() iinventoryrepo.IInventoryRepository {
	return (*fakeInventoryRepo)(f)
}
func (f *fakeStore) AddressRepository() iaddressrepo.IAddressRepository { return (*fakeAddressRepo)(f) }
func (f *fakeStore) OutboxRepository() ioutboxrepo.IOutboxRepository    { return (*fakeOutboxRepo)(f) }

type fakeOrderRepo fakeStore

func (f *fakeOrderRepo) Insert(_ context.Context, o order.Order) (order.Order, error) {
	f.nextOrderID++
	o.ID = f.nextOrderID
	f.orders[o.ID] = o
	return o, nil
}

func (f *fakeOrderRepo) GetByID(_ context.Context, id int64) (*order.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	return &o, nil
}

func (f *fakeOrderRepo) Update(_ context.Context, o *order.Order, expected order.Status) error {
	stored, ok := f.orders[o.ID]
	if !ok {
		return order.ErrOrderNotFound
	}
	if stored.Status != expected {
		return order.ErrInvalidTransition
	}
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeOrderRepo) matches(o order.Order, filter *order.QueryOrdersModel) bool {
	if filter.UserID != 0 && o.UserID != filter.UserID {
		return false
	}
	if filter.Status != nil && o.Status != *filter.Status {
		return false
	}
	if len(filter.Statuses) > 0 {
		found := false
		for _, st := range filter.Statuses {
			if o.Status == st {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if filter.OrderNoLike != "" && !strings.Contains(o.OrderNo, filter.OrderNoLike) {
		return false
	}
	return true
}

func (f *fakeOrderRepo) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	for _, o := range f.orders {
		if f.matches(o, filter) {
			result = append(result, o)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	if filter.Offset > 0 {
		if filter.Offset >= len(result) {
			return nil, nil
		}
		result = result[filter.Offset:]
	}
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (f *fakeOrderRepo) Count(_ context.Context, filter *order.QueryOrdersModel) (int64, error) {
	var count int64
	for _, o := range f.orders {
		if f.matches(o, filter) {
			count++
		}
	}
	return count, nil
}

func (f *fakeOrderRepo) NextOrderSeq(_ context.Context) (int64, error) {
	f.seq++
	return f.seq, nil
}

type fakeOrderLineRepo fakeStore

func (f *fakeOrderLineRepo) BulkInsert(_ context.Context, lines []orderline.OrderLine) ([]orderline.OrderLine, error) {
	inserted := make([]orderline.OrderLine, len(lines))
	for i, line := range lines {
		f.nextLineID++
		line.ID = f.nextLineID
		f.lines[line.ID] = line
		inserted[i] = line
	}
	return inserted, nil
}

func (f *fakeOrderLineRepo) Query(_ context.Context, filter *orderline.QueryOrderLinesModel) ([]orderline.OrderLine, error) {
	var result []orderline.OrderLine
	for _, line := range f.lines {
		if len(filter.OrderIds) > 0 && !containsInt64(filter.OrderIds, line.OrderID) {
			continue
		}
		if len(filter.ProductIds) > 0 && !containsString(filter.ProductIds, line.ProductID) {
			continue
		}
		result = append(result, line)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

type fakeInventoryRepo fakeStore

func (f *fakeInventoryRepo) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (f *fakeInventoryRepo) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var result []product.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *fakeInventoryRepo) ListPurchasable(_ context.Context, filter *product.ListPurchasableModel) ([]product.Product, error) {
	var result []product.Product
	for _, p := range f.products {
		if !p.Purchasable() {
			continue
		}
		if containsString(filter.ExcludeIds, p.ID) {
			continue
		}
		if filter.CategoryID != nil && p.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.ExcludeCategory != nil && p.CategoryID == *filter.ExcludeCategory {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})
	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (f *fakeInventoryRepo) Reserve(_ context.Context, productID string, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	if p.Stock < quantity {
		return product.ErrInsufficientStock
	}
	p.Stock -= quantity
	f.products[productID] = p
	return nil
}

func (f *fakeInventoryRepo) Restore(_ context.Context, productID string, quantity int) error {
	p, ok := f.products[productID]
	if !ok {
		return product.ErrProductNotFound
	}
	p.Stock += quantity
	f.products[productID] = p
	return nil
}

type fakeAddressRepo fakeStore

func (f *fakeAddressRepo) GetByID(_ context.Context, id int64) (*address.Address, error) {
	a, ok := f.addresses[id]
	if !ok {
		return nil, address.ErrAddressNotFound
	}
	return &a, nil
}

type fakeOutboxRepo fakeStore

func (f *fakeOutboxRepo) Insert(_ context.Context, msg outbox.Message) error {
	f.outbox = append(f.outbox, msg)
	return nil
}

func (f *fakeOutboxRepo) GetPendingMessages(_ context.Context, limit int) ([]outbox.Message, error) {
	if limit > len(f.outbox) {
		limit = len(f.outbox)
	}
	return f.outbox[:limit], nil
}

func (f *fakeOutboxRepo) Delete(_ context.Context, id int64) error { return nil }

func (f *fakeOutboxRepo) UpdateRetry(_ context.Context, _ int64, _ int, _ string, _ time.Time) error {
	return nil
}

func containsInt64(haystack []int64, needle int64) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

func containsString(haystack []string, needle string) bool {
	for _, v := range haystack {
		if v == needle {
			return true
		}
	}
	return false
}

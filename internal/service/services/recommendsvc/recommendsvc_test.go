package recommendsvc

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/heritage-platform/commerce/internal/dal/interfaces/iinventoryrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderlinerepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderrepo"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/heritage-platform/commerce/internal/service/models/product"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fakeCatalog is an in-memory stand-in for the read-only repositories the
// recommender consumes.
type fakeCatalog struct {
	orders   []order.Order
	lines    []orderline.OrderLine
	products map[string]product.Product

	nextOrderID int64
	nextLineID  int64
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{products: make(map[string]product.Product)}
}

func (f *fakeCatalog) OrderRepository() iorderrepo.IOrderRepository { return (*catalogOrders)(f) }
func (f *fakeCatalog) OrderLineRepository() iorderlinerepo.IOrderLineRepository {
	return (*catalogLines)(f)
}
func (f *fakeCatalog) InventoryRepository() iinventoryrepo.IInventoryRepository {
	return (*catalogProducts)(f)
}

// addProduct registers an on-sale product with stock.
func (f *fakeCatalog) addProduct(id string, categoryID int64, createdAt time.Time) {
	f.products[id] = product.Product{
		ID:         id,
		Title:      id,
		CategoryID: categoryID,
		Stock:      10,
		Status:     product.StatusOnSale,
		CreatedAt:  createdAt,
	}
}

// addPurchase records a paid single-line order for the user.
func (f *fakeCatalog) addPurchase(userID int64, productIds ...string) {
	f.nextOrderID++
	f.orders = append(f.orders, order.Order{
		ID:     f.nextOrderID,
		UserID: userID,
		Status: order.StatusPaid,
	})
	for _, id := range productIds {
		f.nextLineID++
		f.lines = append(f.lines, orderline.OrderLine{
			ID:        f.nextLineID,
			OrderID:   f.nextOrderID,
			ProductID: id,
			Quantity:  1,
		})
	}
}

type catalogOrders fakeCatalog

func (f *catalogOrders) Insert(_ context.Context, o order.Order) (order.Order, error) {
	return o, nil
}

func (f *catalogOrders) GetByID(_ context.Context, id int64) (*order.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			return &f.orders[i], nil
		}
	}
	return nil, order.ErrOrderNotFound
}

func (f *catalogOrders) Update(_ context.Context, _ *order.Order, _ order.Status) error {
	return nil
}

func (f *catalogOrders) Query(_ context.Context, filter *order.QueryOrdersModel) ([]order.Order, error) {
	var result []order.Order
	for _, o := range f.orders {
		if len(filter.Statuses) > 0 {
			found := false
			for _, st := range filter.Statuses {
				if o.Status == st {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, o)
	}
	return result, nil
}

func (f *catalogOrders) Count(_ context.Context, _ *order.QueryOrdersModel) (int64, error) {
	return int64(len(f.orders)), nil
}

func (f *catalogOrders) NextOrderSeq(_ context.Context) (int64, error) { return 0, nil }

type catalogLines fakeCatalog

func (f *catalogLines) BulkInsert(_ context.Context, lines []orderline.OrderLine) ([]orderline.OrderLine, error) {
	return lines, nil
}

func (f *catalogLines) Query(_ context.Context, filter *orderline.QueryOrderLinesModel) ([]orderline.OrderLine, error) {
	var result []orderline.OrderLine
	for _, line := range f.lines {
		if len(filter.OrderIds) > 0 {
			found := false
			for _, id := range filter.OrderIds {
				if line.OrderID == id {
					found = true
					break
				}
			}
			if !found {
				continue
			}
		}
		result = append(result, line)
	}
	return result, nil
}

type catalogProducts fakeCatalog

func (f *catalogProducts) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrProductNotFound
	}
	return &p, nil
}

func (f *catalogProducts) GetByIDs(_ context.Context, ids []string) ([]product.Product, error) {
	var result []product.Product
	for _, id := range ids {
		if p, ok := f.products[id]; ok {
			result = append(result, p)
		}
	}
	return result, nil
}

func (f *catalogProducts) ListPurchasable(_ context.Context, filter *product.ListPurchasableModel) ([]product.Product, error) {
	excluded := make(map[string]struct{}, len(filter.ExcludeIds))
	for _, id := range filter.ExcludeIds {
		excluded[id] = struct{}{}
	}

	var result []product.Product
	for _, p := range f.products {
		if !p.Purchasable() {
			continue
		}
		if _, ok := excluded[p.ID]; ok {
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

func (f *catalogProducts) Reserve(_ context.Context, _ string, _ int) error { return nil }
func (f *catalogProducts) Restore(_ context.Context, _ string, _ int) error { return nil }

type fakeCache struct {
	entries map[string][]string
	hits    int
	sets    int
}

func cacheKey(productID string, limit int) string {
	return fmt.Sprintf("%s:%d", productID, limit)
}

func (c *fakeCache) Get(_ context.Context, productID string, limit int) ([]string, bool) {
	ids, ok := c.entries[cacheKey(productID, limit)]
	if ok {
		c.hits++
	}
	return ids, ok
}

func (c *fakeCache) Set(_ context.Context, productID string, limit int, ids []string) {
	if c.entries == nil {
		c.entries = make(map[string][]string)
	}
	c.entries[cacheKey(productID, limit)] = ids
	c.sets++
}

func newTestService(catalog *fakeCatalog) *RecommendService {
	return MustNewRecommendService(
		WithRepositoriesFactory(func() repositories { return catalog }),
	)
}

func TestRecommendService_Recommend(t *testing.T) {
	t.Parallel()

	t.Run("ranks co-purchased products by cosine similarity", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("strong", 1, testNow)
		catalog.addProduct("weak", 1, testNow)

		// Four purchasers of the target. Two of them also bought "strong"
		// (its only purchasers), one also bought "weak".
		catalog.addPurchase(1, "target", "strong")
		catalog.addPurchase(2, "target", "strong")
		catalog.addPurchase(3, "target", "weak")
		catalog.addPurchase(4, "target")

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 2)

		require.NoError(t, err)
		// sim(strong) = 2/(sqrt(4)*sqrt(2)) ~ 0.707, sim(weak) = 1/(sqrt(4)*sqrt(1)) = 0.5
		assert.Equal(t, []string{"strong", "weak"}, got)
	})

	t.Run("global purchaser count dampens popular products", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("niche", 1, testNow)
		catalog.addProduct("bestseller", 1, testNow)

		catalog.addPurchase(1, "target", "niche", "bestseller")
		catalog.addPurchase(2, "target")
		// Heavy unrelated demand for the bestseller grows |U(p)| and
		// shrinks its score below the niche product's.
		for userID := int64(10); userID < 20; userID++ {
			catalog.addPurchase(userID, "bestseller")
		}

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"niche", "bestseller"}, got)
	})

	t.Run("only paid, shipped, and completed orders count", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("counted", 1, testNow.Add(-2*time.Hour))
		catalog.addProduct("uncounted", 1, testNow.Add(-1*time.Hour))

		catalog.addPurchase(1, "target", "counted")
		catalog.addPurchase(2, "target", "uncounted")
		catalog.orders[len(catalog.orders)-1].Status = order.StatusPending

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 3)

		require.NoError(t, err)
		// "counted" wins by similarity; the pending purchase of
		// "uncounted" contributes nothing, so it only appears through
		// the recency fallback (newer product first is irrelevant here
		// because similarity hits precede fallback hits).
		require.Len(t, got, 2)
		assert.Equal(t, "counted", got[0])
		assert.Equal(t, "uncounted", got[1])
	})

	t.Run("excludes the target and unpurchasable candidates", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("offshelf", 1, testNow)
		p := catalog.products["offshelf"]
		p.Status = product.StatusOffShelf
		catalog.products["offshelf"] = p

		catalog.addPurchase(1, "target", "offshelf")
		catalog.addPurchase(2, "target", "offshelf")

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 5)

		require.NoError(t, err)
		assert.NotContains(t, got, "target")
		assert.NotContains(t, got, "offshelf")
	})

	t.Run("cold start falls back to catalog recency", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("same-new", 1, testNow.Add(-1*time.Hour))
		catalog.addProduct("same-old", 1, testNow.Add(-2*time.Hour))
		catalog.addProduct("other-new", 2, testNow)

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 3)

		require.NoError(t, err)
		// Same category by recency first, then other categories.
		assert.Equal(t, []string{"same-new", "same-old", "other-new"}, got)
	})

	t.Run("fallback pads a short similarity list without duplicates", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("bought-with", 1, testNow.Add(-3*time.Hour))
		catalog.addProduct("filler", 1, testNow.Add(-1*time.Hour))

		catalog.addPurchase(1, "target", "bought-with")

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 3)

		require.NoError(t, err)
		assert.Equal(t, []string{"bought-with", "filler"}, got)
	})

	t.Run("unknown target still yields catalog fallback", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("a", 1, testNow)
		catalog.addProduct("b", 2, testNow.Add(-1*time.Hour))

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "ghost", 5)

		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, got)
	})

	t.Run("limit below one yields an empty list", func(t *testing.T) {
		catalog := newFakeCatalog()
		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 0)

		require.NoError(t, err)
		assert.Empty(t, got)
	})

	t.Run("result is deterministic across calls", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		for _, id := range []string{"a", "b", "c", "d"} {
			catalog.addProduct(id, 1, testNow.Add(-1*time.Hour))
		}
		catalog.addPurchase(1, "target", "a", "b", "c", "d")
		catalog.addPurchase(2, "target", "a", "b", "c", "d")

		svc := newTestService(catalog)

		first, err := svc.Recommend(context.Background(), "target", 4)
		require.NoError(t, err)
		for i := 0; i < 5; i++ {
			again, err := svc.Recommend(context.Background(), "target", 4)
			require.NoError(t, err)
			assert.Equal(t, first, again)
		}
	})

	t.Run("equal scores break ties by product recency", func(t *testing.T) {
		catalog := newFakeCatalog()
		catalog.addProduct("target", 1, testNow)
		catalog.addProduct("older", 1, testNow.Add(-2*time.Hour))
		catalog.addProduct("newer", 1, testNow.Add(-1*time.Hour))

		catalog.addPurchase(1, "target", "older", "newer")

		svc := newTestService(catalog)

		got, err := svc.Recommend(context.Background(), "target", 2)

		require.NoError(t, err)
		assert.Equal(t, []string{"newer", "older"}, got)
	})
}

func TestRecommendService_Cache(t *testing.T) {
	t.Parallel()

	catalog := newFakeCatalog()
	catalog.addProduct("target", 1, testNow)
	catalog.addProduct("other", 1, testNow.Add(-1*time.Hour))

	cache := &fakeCache{}
	svc := MustNewRecommendService(
		WithRepositoriesFactory(func() repositories { return catalog }),
		WithCache(cache),
	)

	first, err := svc.Recommend(context.Background(), "target", 2)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)
	assert.Equal(t, 0, cache.hits)

	second, err := svc.Recommend(context.Background(), "target", 2)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cache.hits)
	assert.Equal(t, 1, cache.sets, "a cache hit must not recompute")
}

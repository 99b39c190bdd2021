package recommendsvc

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"sort"

	"github.com/heritage-platform/commerce/internal/dal/interfaces/iinventoryrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderlinerepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderrepo"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/dal/uow"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/heritage-platform/commerce/internal/service/models/product"
)

// countedStatuses are the order states whose lines count as purchases.
var countedStatuses = []order.Status{
	order.StatusPaid,
	order.StatusShipped,
	order.StatusCompleted,
}

// repositories is the read-only slice of the dal this service consumes.
type repositories interface {
	OrderRepository() iorderrepo.IOrderRepository
	OrderLineRepository() iorderlinerepo.IOrderLineRepository
	InventoryRepository() iinventoryrepo.IInventoryRepository
}

// Cache is an optional read-through cache for recommendation lists.
// Failures degrade to computing directly.
type Cache interface {
	Get(ctx context.Context, productID string, limit int) ([]string, bool)
	Set(ctx context.Context, productID string, limit int, ids []string)
}

// RecommendService ranks products co-purchased with a target by item-based
// cosine similarity over binary purchase vectors, padding the result with a
// deterministic catalog fallback.
type RecommendService struct {
	pgClient *postgres.Client
	newRepos func() repositories
	cache    Cache
}

// option is a function that configures the RecommendService.
type option func(*RecommendService)

// MustNewRecommendService creates a new RecommendService.
func MustNewRecommendService(opts ...option) *RecommendService {
	s := &RecommendService{}
	for _, opt := range opts {
		opt(s)
	}
	if s.newRepos == nil {
		if s.pgClient == nil {
			panic("recommendsvc: postgres client or repositories factory required")
		}
		s.newRepos = func() repositories {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the RecommendService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *RecommendService) {
		s.pgClient = pgClient
	}
}

// WithRepositoriesFactory overrides the repositories factory (used by tests).
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithRepositoriesFactory(factory func() repositories) option {
	return func(s *RecommendService) {
		s.newRepos = factory
	}
}

// WithCache attaches a read-through recommendation cache.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithCache(cache Cache) option {
	return func(s *RecommendService) {
		s.cache = cache
	}
}

// Recommend returns up to limit product ids related to productID, best
// match first. Purchase-history failures degrade to the catalog fallback
// rather than surfacing to the caller.
func (s *RecommendService) Recommend(ctx context.Context, productID string, limit int) ([]string, error) {
	if limit < 1 {
		return []string{}, nil
	}

	if s.cache != nil {
		if ids, ok := s.cache.Get(ctx, productID, limit); ok {
			return ids, nil
		}
	}

	repos := s.newRepos()

	recommended, err := s.rankBySimilarity(ctx, repos, productID, limit)
	if err != nil {
		slog.WarnContext(ctx, "similarity ranking failed, falling back to catalog",
			"product_id", productID, "error", err)
		recommended = nil
	}

	if len(recommended) < limit {
		recommended, err = s.padWithFallback(ctx, repos, productID, recommended, limit)
		if err != nil {
			return nil, err
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, productID, limit, recommended)
	}

	return recommended, nil
}

// rankBySimilarity scores every product co-purchased with the target:
//
//	sim(target, p) = |U(target) ∩ U(p)| / (sqrt(|U(target)|) * sqrt(|U(p)|))
//
// with |U(p)| the global purchaser count of p. Unpurchasable products and
// the target itself are filtered out before ranking.
func (s *RecommendService) rankBySimilarity(
	ctx context.Context,
	repos repositories,
	productID string,
	limit int,
) ([]string, error) {
	matrix, err := s.buildUserProductMatrix(ctx, repos)
	if err != nil {
		return nil, err
	}
	if len(matrix) == 0 {
		return nil, nil
	}

	targetUsers := make(map[int64]struct{})
	globalCounts := make(map[string]int)
	for userID, products := range matrix {
		for id := range products {
			globalCounts[id]++
		}
		if _, ok := products[productID]; ok {
			targetUsers[userID] = struct{}{}
		}
	}
	if len(targetUsers) == 0 {
		return nil, nil
	}

	// Users who bought the target vote for everything else they bought.
	coPurchasers := make(map[string]int)
	for userID := range targetUsers {
		for id := range matrix[userID] {
			if id != productID {
				coPurchasers[id]++
			}
		}
	}
	if len(coPurchasers) == 0 {
		return nil, nil
	}

	candidateIds := make([]string, 0, len(coPurchasers))
	for id := range coPurchasers {
		candidateIds = append(candidateIds, id)
	}
	products, err := repos.InventoryRepository().GetByIDs(ctx, candidateIds)
	if err != nil {
		return nil, err
	}

	type scored struct {
		product product.Product
		score   float64
	}
	ranked := make([]scored, 0, len(products))
	targetNorm := math.Sqrt(float64(len(targetUsers)))
	for _, p := range products {
		if !p.Purchasable() {
			continue
		}
		common := coPurchasers[p.ID]
		ranked = append(ranked, scored{
			product: p,
			score:   float64(common) / (targetNorm * math.Sqrt(float64(globalCounts[p.ID]))),
		})
	}

	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].score != ranked[j].score {
			return ranked[i].score > ranked[j].score
		}
		if !ranked[i].product.CreatedAt.Equal(ranked[j].product.CreatedAt) {
			return ranked[i].product.CreatedAt.After(ranked[j].product.CreatedAt)
		}
		return ranked[i].product.ID > ranked[j].product.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	result := make([]string, len(ranked))
	for i := range ranked {
		result[i] = ranked[i].product.ID
	}

	return result, nil
}

// buildUserProductMatrix unions the line product ids of every counted order
// into its owner's purchased set.
func (s *RecommendService) buildUserProductMatrix(ctx context.Context, repos repositories) (map[int64]map[string]struct{}, error) {
	orders, err := repos.OrderRepository().Query(ctx, &order.QueryOrdersModel{
		Statuses: countedStatuses,
	})
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}

	orderOwner := make(map[int64]int64, len(orders))
	orderIds := make([]int64, len(orders))
	for i := range orders {
		orderIds[i] = orders[i].ID
		orderOwner[orders[i].ID] = orders[i].UserID
	}

	lines, err := repos.OrderLineRepository().Query(ctx, &orderline.QueryOrderLinesModel{
		OrderIds: orderIds,
	})
	if err != nil {
		return nil, err
	}

	matrix := make(map[int64]map[string]struct{})
	for _, line := range lines {
		userID := orderOwner[line.OrderID]
		if matrix[userID] == nil {
			matrix[userID] = make(map[string]struct{})
		}
		matrix[userID][line.ProductID] = struct{}{}
	}

	return matrix, nil
}

// padWithFallback fills the remainder of the list deterministically:
// purchasable products of the target's category by recency first, then any
// other category by recency, until limit is reached or the catalog runs out.
func (s *RecommendService) padWithFallback(
	ctx context.Context,
	repos repositories,
	productID string,
	selected []string,
	limit int,
) ([]string, error) {
	var categoryID *int64
	target, err := repos.InventoryRepository().GetByID(ctx, productID)
	if err != nil && !errors.Is(err, product.ErrProductNotFound) {
		return nil, err
	}
	if err == nil {
		categoryID = &target.CategoryID
	}

	exclude := append([]string{productID}, selected...)

	if categoryID != nil && len(selected) < limit {
		sameCategory, err := repos.InventoryRepository().ListPurchasable(ctx, &product.ListPurchasableModel{
			ExcludeIds: exclude,
			CategoryID: categoryID,
			Limit:      limit - len(selected),
		})
		if err != nil {
			return nil, err
		}
		for _, p := range sameCategory {
			selected = append(selected, p.ID)
			exclude = append(exclude, p.ID)
		}
	}

	if len(selected) < limit {
		filter := &product.ListPurchasableModel{
			ExcludeIds: exclude,
			Limit:      limit - len(selected),
		}
		if categoryID != nil {
			filter.ExcludeCategory = categoryID
		}
		others, err := repos.InventoryRepository().ListPurchasable(ctx, filter)
		if err != nil {
			return nil, err
		}
		for _, p := range others {
			selected = append(selected, p.ID)
		}
	}

	if selected == nil {
		selected = []string{}
	}

	return selected, nil
}

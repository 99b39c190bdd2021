package ordersvc

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/heritage-platform/commerce/internal/dal/interfaces/iaddressrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iinventoryrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderlinerepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/iorderrepo"
	"github.com/heritage-platform/commerce/internal/dal/interfaces/ioutboxrepo"
	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/dal/uow"
	"github.com/heritage-platform/commerce/internal/service/clock"
	"github.com/heritage-platform/commerce/internal/service/models/address"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/models/orderline"
	"github.com/heritage-platform/commerce/internal/service/models/outbox"
	"github.com/heritage-platform/commerce/internal/service/models/product"
	"github.com/shopspring/decimal"
)

// unitOfWork is the slice of the dal unit of work this service consumes.
type unitOfWork interface {
	Begin(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context)

	OrderRepository() iorderrepo.IOrderRepository
	OrderLineRepository() iorderlinerepo.IOrderLineRepository
	InventoryRepository() iinventoryrepo.IInventoryRepository
	AddressRepository() iaddressrepo.IAddressRepository
	OutboxRepository() ioutboxrepo.IOutboxRepository
}

// OrderService owns the order lifecycle: creation with stock reservation and
// the guarded status transitions.
type OrderService struct {
	pgClient *postgres.Client
	clock    clock.Clock
	newUOW   func() unitOfWork
}

// option is a function that configures the OrderService.
type option func(*OrderService)

// MustNewOrderService creates a new OrderService.
func MustNewOrderService(opts ...option) *OrderService {
	s := &OrderService{
		clock: clock.NewSystem(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.newUOW == nil {
		if s.pgClient == nil {
			panic("ordersvc: postgres client or unit of work factory required")
		}
		s.newUOW = func() unitOfWork {
			return uow.NewUnitOfWork(s.pgClient)
		}
	}

	return s
}

// WithPostgresClient sets the Postgres client for the OrderService.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithPostgresClient(pgClient *postgres.Client) option {
	return func(s *OrderService) {
		s.pgClient = pgClient
	}
}

// WithClock overrides the service clock.
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithClock(clk clock.Clock) option {
	return func(s *OrderService) {
		s.clock = clk
	}
}

// WithUnitOfWorkFactory overrides the unit of work factory (used by tests).
//
//goland:noinspection GoExportedFuncWithUnexportedType
func WithUnitOfWorkFactory(factory func() unitOfWork) option {
	return func(s *OrderService) {
		s.newUOW = factory
	}
}

// CreateOrderCommand carries the checkout request.
type CreateOrderCommand struct {
	ProductID string
	Quantity  int
	AddressID int64
	Remark    string
}

// CreateOrder validates the product and address, reserves stock, and
// persists the order aggregate in one transaction. If any step fails
// nothing is persisted and the reservation is rolled back.
func (s *OrderService) CreateOrder(ctx context.Context, cmd CreateOrderCommand, ownerID int64) (*order.Order, error) {
	if cmd.Quantity < 1 {
		return nil, product.ErrInvalidQuantity
	}

	now := s.clock.Now()

	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return nil, err
	}
	defer work.Rollback(ctx)

	prod, err := work.InventoryRepository().GetByID(ctx, cmd.ProductID)
	if err != nil {
		return nil, err
	}
	if !prod.OnSale() {
		return nil, product.ErrProductUnavailable
	}
	if !prod.HasStock(cmd.Quantity) {
		return nil, product.ErrInsufficientStock
	}

	addr, err := work.AddressRepository().GetByID(ctx, cmd.AddressID)
	if err != nil {
		return nil, err
	}
	if !addr.OwnedBy(ownerID) {
		return nil, address.ErrAddressNotOwned
	}

	totalAmount := prod.Price.Mul(decimal.NewFromInt(int64(cmd.Quantity)))
	payAmount := totalAmount // no discount engine

	seq, err := work.OrderRepository().NextOrderSeq(ctx)
	if err != nil {
		return nil, err
	}
	orderNo := generateOrderNo(now, ownerID, seq)

	// The conditional decrement is the real gate against overselling; the
	// read above only produces a friendlier error for the common case.
	if err := work.InventoryRepository().Reserve(ctx, prod.ID, cmd.Quantity); err != nil {
		return nil, err
	}

	o := order.Order{
		OrderNo:           orderNo,
		UserID:            ownerID,
		TotalAmount:       totalAmount,
		PayAmount:         payAmount,
		Status:            order.StatusPending,
		ReceiverAddressID: addr.ID,
		Remark:            cmd.Remark,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	o, err = work.OrderRepository().Insert(ctx, o)
	if err != nil {
		return nil, err
	}

	lines, err := work.OrderLineRepository().BulkInsert(ctx, []orderline.OrderLine{{
		OrderID:   o.ID,
		ProductID: prod.ID,
		SkuID:     prod.ID, // no SKU matrix, the product stands in
		Title:     prod.Title,
		SkuTitle:  prod.Subtitle,
		UnitPrice: prod.Price,
		Quantity:  cmd.Quantity,
		Subtotal:  totalAmount,
		CreatedAt: now,
	}})
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	if err := s.emitEvent(ctx, work, outbox.RoutingKeyOrderCreated, &o); err != nil {
		return nil, err
	}

	if err := work.Commit(ctx); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "order created",
		"order_no", o.OrderNo, "user_id", ownerID, "product_id", prod.ID, "quantity", cmd.Quantity)

	return &o, nil
}

// GetOrderDetail returns the order aggregate for its owner or an admin.
func (s *OrderService) GetOrderDetail(ctx context.Context, orderID, callerID int64, isAdmin bool) (*order.Order, error) {
	work := s.newUOW()

	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !isAdmin && !o.OwnedBy(callerID) {
		return nil, order.ErrForbidden
	}

	lines, err := work.OrderLineRepository().Query(ctx, &orderline.QueryOrderLinesModel{
		OrderIds: []int64{o.ID},
	})
	if err != nil {
		return nil, err
	}
	o.Lines = lines

	return o, nil
}

// ListOrdersModel scopes and pages an order listing. A zero UserID means
// admin scope.
type ListOrdersModel struct {
	UserID      int64
	Status      *order.Status
	OrderNoLike string
	Page        int
	PageSize    int
}

// OrderPage is one page of orders with the unpaged total.
type OrderPage struct {
	Items    []order.Order `json:"items"`
	Total    int64         `json:"total"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
}

// ListOrders returns a page of orders, newest first, with lines attached.
func (s *OrderService) ListOrders(ctx context.Context, model ListOrdersModel) (*OrderPage, error) {
	if model.Page < 1 {
		model.Page = 1
	}
	if model.PageSize < 1 {
		model.PageSize = 10
	}

	filter := &order.QueryOrdersModel{
		UserID:      model.UserID,
		Status:      model.Status,
		OrderNoLike: model.OrderNoLike,
		Limit:       model.PageSize,
		Offset:      (model.Page - 1) * model.PageSize,
	}

	work := s.newUOW()

	total, err := work.OrderRepository().Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	orders, err := work.OrderRepository().Query(ctx, filter)
	if err != nil {
		return nil, err
	}

	page := &OrderPage{
		Items:    orders,
		Total:    total,
		Page:     model.Page,
		PageSize: model.PageSize,
	}
	if len(orders) == 0 {
		page.Items = []order.Order{}
		return page, nil
	}

	orderIds := make([]int64, len(orders))
	for i := range orders {
		orderIds[i] = orders[i].ID
	}
	lines, err := work.OrderLineRepository().Query(ctx, &orderline.QueryOrderLinesModel{
		OrderIds: orderIds,
	})
	if err != nil {
		return nil, err
	}

	linesByOrder := make(map[int64][]orderline.OrderLine, len(orders))
	for _, line := range lines {
		linesByOrder[line.OrderID] = append(linesByOrder[line.OrderID], line)
	}
	for i := range page.Items {
		page.Items[i].Lines = linesByOrder[page.Items[i].ID]
	}

	return page, nil
}

// Pay moves a pending order to paid and records the payment method.
// Inventory is untouched: stock was already reserved at creation.
func (s *OrderService) Pay(ctx context.Context, orderID, callerID int64, payType string) error {
	return s.transition(ctx, orderID, order.StatusPaid, outbox.RoutingKeyOrderPaid,
		func(o *order.Order) error {
			if !o.OwnedBy(callerID) {
				return order.ErrForbidden
			}
			return nil
		},
		func(o *order.Order) {
			now := s.clock.Now()
			o.PayType = payType
			o.PayTime = &now
		},
		nil,
	)
}

// Ship moves a paid order to shipped and records the logistics number.
// Admin capability is enforced by the caller.
func (s *OrderService) Ship(ctx context.Context, orderID int64, logisticsNo string) error {
	return s.transition(ctx, orderID, order.StatusShipped, outbox.RoutingKeyOrderShipped,
		nil,
		func(o *order.Order) {
			o.LogisticsNo = logisticsNo
		},
		nil,
	)
}

// Confirm moves a shipped order to completed.
func (s *OrderService) Confirm(ctx context.Context, orderID, callerID int64) error {
	return s.transition(ctx, orderID, order.StatusCompleted, outbox.RoutingKeyOrderCompleted,
		func(o *order.Order) error {
			if !o.OwnedBy(callerID) {
				return order.ErrForbidden
			}
			return nil
		},
		nil,
		nil,
	)
}

// Cancel closes a pending or paid order and restores every line's reserved
// quantity. A second cancel fails on the transition guard and restores
// nothing.
func (s *OrderService) Cancel(ctx context.Context, orderID, callerID int64, isAdmin bool) error {
	return s.transition(ctx, orderID, order.StatusClosed, outbox.RoutingKeyOrderClosed,
		func(o *order.Order) error {
			if !isAdmin && !o.OwnedBy(callerID) {
				return order.ErrForbidden
			}
			return nil
		},
		nil,
		func(ctx context.Context, work unitOfWork, o *order.Order) error {
			lines, err := work.OrderLineRepository().Query(ctx, &orderline.QueryOrderLinesModel{
				OrderIds: []int64{o.ID},
			})
			if err != nil {
				return err
			}
			for _, line := range lines {
				if err := work.InventoryRepository().Restore(ctx, line.ProductID, line.Quantity); err != nil {
					return err
				}
			}
			return nil
		},
	)
}

// transition loads the order, checks authorization, applies the status
// change through the legality table, and commits every resulting write as
// one unit of work. Any failure leaves order, stock, and outbox untouched.
func (s *OrderService) transition(
	ctx context.Context,
	orderID int64,
	target order.Status,
	routingKey string,
	authorize func(*order.Order) error,
	mutate func(*order.Order),
	sideEffect func(context.Context, unitOfWork, *order.Order) error,
) error {
	work := s.newUOW()
	if err := work.Begin(ctx); err != nil {
		return err
	}
	defer work.Rollback(ctx)

	o, err := work.OrderRepository().GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	if authorize != nil {
		if err := authorize(o); err != nil {
			return err
		}
	}

	prev := o.Status
	if err := o.TransitionTo(target); err != nil {
		return err
	}
	if mutate != nil {
		mutate(o)
	}
	o.UpdatedAt = s.clock.Now()

	if err := work.OrderRepository().Update(ctx, o, prev); err != nil {
		return err
	}

	if sideEffect != nil {
		if err := sideEffect(ctx, work, o); err != nil {
			return err
		}
	}

	if err := s.emitEvent(ctx, work, routingKey, o); err != nil {
		return err
	}

	if err := work.Commit(ctx); err != nil {
		return err
	}

	slog.InfoContext(ctx, "order transitioned",
		"order_no", o.OrderNo, "from", prev.String(), "to", target.String())

	return nil
}

func (s *OrderService) emitEvent(ctx context.Context, work unitOfWork, routingKey string, o *order.Order) error {
	msg, err := outbox.NewOrderEventMessage(routingKey, o, s.clock.Now())
	if err != nil {
		return err
	}

	return work.OutboxRepository().Insert(ctx, msg)
}

// generateOrderNo builds the human-facing order number: creation timestamp,
// the last four digits of the owner id, and a six-digit slice of the
// database sequence so concurrent checkouts can never collide.
func generateOrderNo(now time.Time, ownerID, seq int64) string {
	return fmt.Sprintf("%s%04d%06d", now.Format("20060102150405"), ownerID%10000, seq%1000000)
}

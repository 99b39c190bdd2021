package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/heritage-platform/commerce/internal/service/models/order"
	"github.com/heritage-platform/commerce/internal/service/services/ordersvc"
	cancelorder "github.com/heritage-platform/commerce/internal/transport/http/cancel_order"
	confirmorder "github.com/heritage-platform/commerce/internal/transport/http/confirm_order"
	createorder "github.com/heritage-platform/commerce/internal/transport/http/create_order"
	getorder "github.com/heritage-platform/commerce/internal/transport/http/get_order"
	listorders "github.com/heritage-platform/commerce/internal/transport/http/list_orders"
	"github.com/heritage-platform/commerce/internal/transport/http/middleware/auth"
	payorder "github.com/heritage-platform/commerce/internal/transport/http/pay_order"
	"github.com/heritage-platform/commerce/internal/transport/http/recommend"
	shiporder "github.com/heritage-platform/commerce/internal/transport/http/ship_order"
	"github.com/heritage-platform/commerce/pkg/http/middleware/trace"
	"github.com/heritage-platform/commerce/pkg/logger"
	"github.com/spf13/viper"
)

type orderService interface {
	CreateOrder(ctx context.Context, cmd ordersvc.CreateOrderCommand, ownerID int64) (*order.Order, error)
	GetOrderDetail(ctx context.Context, orderID, callerID int64, isAdmin bool) (*order.Order, error)
	ListOrders(ctx context.Context, model ordersvc.ListOrdersModel) (*ordersvc.OrderPage, error)
	Pay(ctx context.Context, orderID, callerID int64, payType string) error
	Ship(ctx context.Context, orderID int64, logisticsNo string) error
	Confirm(ctx context.Context, orderID, callerID int64) error
	Cancel(ctx context.Context, orderID, callerID int64, isAdmin bool) error
}

type recommendService interface {
	Recommend(ctx context.Context, productID string, limit int) ([]string, error)
}

type HTTPTransport struct {
	server           *http.Server
	router           *chi.Mux
	orderService     orderService
	recommendService recommendService
}

func NewHTTPTransport(orderService orderService, recommendService recommendService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:           server,
		router:           router,
		orderService:     orderService,
		recommendService: recommendService,
	}
}

func (h *HTTPTransport) Run() error {
	return h.server.ListenAndServe()
}

func (h *HTTPTransport) Shutdown(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// RegisterRoutes registers the routes for the HTTPTransport.
func (h *HTTPTransport) RegisterRoutes() {
	authenticate := auth.NewAuthMiddleware()

	h.router.Route("/api/shop", func(r chi.Router) {
		r.Route("/order", func(r chi.Router) {
			r.Use(authenticate)

			r.Post("/", h.createOrder)
			r.Get("/page", h.listUserOrders)
			r.Get("/{id}", h.getOrder)
			r.Put("/{id}/pay", h.payOrder)
			r.Put("/{id}/confirm", h.confirmOrder)
			r.Put("/{id}/cancel", h.cancelOrder)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)
				r.Get("/admin/page", h.listAdminOrders)
				r.Put("/{id}/ship", h.shipOrder)
			})
		})

		r.Get("/product/{id}/recommendations", h.recommendProducts)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.orderService)
}

func (h *HTTPTransport) getOrder(w http.ResponseWriter, r *http.Request) {
	getorder.GetOrder(w, r, h.orderService)
}

func (h *HTTPTransport) listUserOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListUserOrders(w, r, h.orderService)
}

func (h *HTTPTransport) listAdminOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListAdminOrders(w, r, h.orderService)
}

func (h *HTTPTransport) payOrder(w http.ResponseWriter, r *http.Request) {
	payorder.PayOrder(w, r, h.orderService)
}

func (h *HTTPTransport) shipOrder(w http.ResponseWriter, r *http.Request) {
	shiporder.ShipOrder(w, r, h.orderService)
}

func (h *HTTPTransport) confirmOrder(w http.ResponseWriter, r *http.Request) {
	confirmorder.ConfirmOrder(w, r, h.orderService)
}

func (h *HTTPTransport) recommendProducts(w http.ResponseWriter, r *http.Request) {
	recommend.Recommend(w, r, h.recommendService)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.orderService)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(trace.NewTraceMiddleware)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))

	allowedOrigins := viper.GetStringSlice("server.http.cors.allowed_origins")
	allowedMethods := viper.GetStringSlice("server.http.cors.allowed_methods")
	allowedHeaders := viper.GetStringSlice("server.http.cors.allowed_headers")
	exposedHeaders := viper.GetStringSlice("server.http.cors.exposed_headers")
	allowCredentials := viper.GetBool("server.http.cors.allow_credentials")
	maxAge := viper.GetInt("server.http.cors.max_age")

	c := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   allowedMethods,
		AllowedHeaders:   allowedHeaders,
		ExposedHeaders:   exposedHeaders,
		AllowCredentials: allowCredentials,
		MaxAge:           maxAge,
	})

	router.Use(c.Handler)

	return router
}

func newServer(router http.Handler) *http.Server {
	return &http.Server{
		Addr:    "0.0.0.0:" + viper.GetString("server.http.port"),
		Handler: router,
	}
}

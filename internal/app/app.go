package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/heritage-platform/commerce/internal/dal/postgres"
	"github.com/heritage-platform/commerce/internal/dal/rabbitmq"
	"github.com/heritage-platform/commerce/internal/dal/rediscache"
	"github.com/heritage-platform/commerce/internal/dal/uow"
	"github.com/heritage-platform/commerce/internal/jaeger"
	"github.com/heritage-platform/commerce/internal/service/services/ordersvc"
	"github.com/heritage-platform/commerce/internal/service/services/recommendsvc"
	httptransport "github.com/heritage-platform/commerce/internal/transport/http"
	"github.com/heritage-platform/commerce/internal/worker/outbox"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
)

// App represents the application.
type App struct {
	orderSvc       *ordersvc.OrderService
	recommendSvc   *recommendsvc.RecommendService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outbox.Worker
	postgresClient *postgres.Client
	rabbitClient   *rabbitmq.Client
	redisCache     *rediscache.RecommendationCache
	tracerProvider *sdktrace.TracerProvider
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	tracerProvider := setupTracing()

	postgresClient := postgres.MustNewClient()
	rabbitClient := rabbitmq.MustNewClient()
	redisCache := rediscache.MustNewRecommendationCache()

	orderSvc := ordersvc.MustNewOrderService(
		ordersvc.WithPostgresClient(postgresClient),
	)
	recommendSvc := recommendsvc.MustNewRecommendService(
		recommendsvc.WithPostgresClient(postgresClient),
		recommendsvc.WithCache(redisCache),
	)

	transport := httptransport.NewHTTPTransport(orderSvc, recommendSvc)
	transport.RegisterRoutes()

	outboxWorker := outbox.NewWorker(
		uow.NewUnitOfWork(postgresClient).OutboxRepository(),
		rabbitClient,
	)

	return &App{
		orderSvc:       orderSvc,
		recommendSvc:   recommendSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		postgresClient: postgresClient,
		rabbitClient:   rabbitClient,
		redisCache:     redisCache,
		tracerProvider: tracerProvider,
	}
}

func setupTracing() *sdktrace.TracerProvider {
	exporter := jaeger.MustNewJaeger()

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceNameKey.String("commerce"),
		)),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tracerProvider
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	workerCtx, cancelWorker := context.WithCancel(context.Background())
	go a.outboxWorker.Start(workerCtx)

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	<-stop
	slog.Info("Shutdown signal received")

	cancelWorker()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.tracerProvider.Shutdown(ctx); err != nil {
		slog.Error("Tracer provider shutdown error", "error", err)
	}

	if err := a.rabbitClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	}

	if err := a.redisCache.Close(); err != nil {
		slog.Error("Redis connection close error", "error", err)
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	slog.Info("Application shutdown complete")
}

package app

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/inkwear/storefront/internal/config"
	"github.com/inkwear/storefront/internal/dal/postgres"
	"github.com/inkwear/storefront/internal/dal/rabbitmq"
	orderrepo "github.com/inkwear/storefront/internal/dal/repositories/order/postgres"
	outboxrepo "github.com/inkwear/storefront/internal/dal/repositories/outbox/postgres"
	productrepo "github.com/inkwear/storefront/internal/dal/repositories/product/postgres"
	"github.com/inkwear/storefront/internal/gateway/fulfillment"
	"github.com/inkwear/storefront/internal/gateway/payment"
	"github.com/inkwear/storefront/internal/otel"
	"github.com/inkwear/storefront/internal/service/services/catalogsvc"
	"github.com/inkwear/storefront/internal/service/services/checkoutsvc"
	"github.com/inkwear/storefront/internal/service/services/webhooksvc"
	httptransport "github.com/inkwear/storefront/internal/transport/http"
	catalogworker "github.com/inkwear/storefront/internal/worker/catalogsync"
	outboxworker "github.com/inkwear/storefront/internal/worker/outbox"
)

const orderEventsQueue = "storefront.order.events"

// App represents the application.
type App struct {
	checkoutSvc    *checkoutsvc.CheckoutService
	transport      *httptransport.HTTPTransport
	outboxWorker   *outboxworker.Worker
	catalogWorker  *catalogworker.Worker
	rabbitMqClient *rabbitmq.Client
	postgresClient *postgres.Client
	otelController *otel.OtelController
}

// MustNewApp creates a new application.
func MustNewApp() *App {
	otelController := otel.MustInitOtel()
	postgresClient := postgres.MustNewClient()
	rabbitMqClient := rabbitmq.MustNewClient()

	if _, err := rabbitMqClient.DeclareQueue(rabbitmq.DeclareQueueConfig{
		Name:    orderEventsQueue,
		Durable: true,
	}); err != nil {
		panic("failed to declare order events queue: " + err.Error())
	}

	cfg := config.NewConfig()

	paymentGateway := payment.NewClient(cfg)
	fulfillmentGateway := fulfillment.NewClient(cfg)

	checkoutSvc := checkoutsvc.MustNewCheckoutService(
		checkoutsvc.WithPostgresClient(postgresClient),
		checkoutsvc.WithConfig(cfg),
		checkoutsvc.WithPaymentGateway(paymentGateway),
		checkoutsvc.WithFulfillmentGateway(fulfillmentGateway),
	)

	// Pool-bound repositories for the paths that never span a transaction.
	orderRepository := orderrepo.NewPostgresOrderRepository(postgresClient.Pool())
	productRepository := productrepo.NewPostgresProductRepository(postgresClient.Pool())
	outboxRepository := outboxrepo.NewOutboxRepository(postgresClient.Pool())

	catalogSvc := catalogsvc.MustNewCatalogService(
		catalogsvc.WithGateway(fulfillmentGateway),
		catalogsvc.WithProductRepository(productRepository),
	)

	webhookSvc := webhooksvc.MustNewWebhookService(
		webhooksvc.WithOrderRepository(orderRepository),
		webhooksvc.WithProductRepository(productRepository),
	)

	transport := httptransport.NewHTTPTransport(checkoutSvc, webhookSvc)
	transport.RegisterRoutes()

	outboxWorker := outboxworker.NewWorker(outboxRepository, rabbitMqClient)
	catalogWorker := catalogworker.NewWorker(catalogSvc)

	return &App{
		checkoutSvc:    checkoutSvc,
		transport:      transport,
		outboxWorker:   outboxWorker,
		catalogWorker:  catalogWorker,
		rabbitMqClient: rabbitMqClient,
		postgresClient: postgresClient,
		otelController: otelController,
	}
}

// Run starts the application.
// Tracks interrupt signal to gracefully shut down the application.
func (a *App) Run() {
	// Create a channel to receive OS signals
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		slog.Info("Starting HTTP server")
		if err := a.transport.Run(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		slog.Info("Starting outbox worker")
		a.outboxWorker.Start(ctx)
	}()

	go func() {
		slog.Info("Starting catalog sync worker")
		a.catalogWorker.Start(ctx)
	}()

	<-stop
	slog.Info("Shutdown signal received")
	cancel()

	a.gracefulShutdown()
}

// gracefulShutdown performs graceful shutdown of all application components.
func (a *App) gracefulShutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	a.outboxWorker.Stop()
	slog.Info("Outbox worker stopped gracefully")

	a.catalogWorker.Stop()
	slog.Info("Catalog sync worker stopped gracefully")

	if err := a.transport.Shutdown(ctx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped gracefully")
	}

	if err := a.rabbitMqClient.Close(); err != nil {
		slog.Error("RabbitMQ connection close error", "error", err)
	} else {
		slog.Info("RabbitMQ connection closed gracefully")
	}

	a.postgresClient.Close()
	slog.Info("Database connection closed gracefully")

	if err := a.otelController.Shutdown(); err != nil {
		slog.Error("Otel trace provider connection close error", "error", err)
	} else {
		slog.Info("Otel trace provider connection closed gracefully")
	}

	select {
	case <-ctx.Done():
		slog.Warn("Shutdown timeout exceeded")
	default:
		slog.Info("Application shutdown complete")
	}
}

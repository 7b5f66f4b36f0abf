package httptransport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/inkwear/storefront/internal/service/models/order"
	"github.com/inkwear/storefront/internal/service/services/checkoutsvc"
	"github.com/inkwear/storefront/internal/service/services/webhooksvc"
	cancelorder "github.com/inkwear/storefront/internal/transport/http/cancel_order"
	completeorder "github.com/inkwear/storefront/internal/transport/http/complete_order"
	confirmfulfillment "github.com/inkwear/storefront/internal/transport/http/confirm_fulfillment"
	createorder "github.com/inkwear/storefront/internal/transport/http/create_order"
	listorders "github.com/inkwear/storefront/internal/transport/http/list_orders"
	"github.com/inkwear/storefront/internal/transport/http/webhook"
	"github.com/inkwear/storefront/pkg/http/middleware/trace"
	"github.com/inkwear/storefront/pkg/logger"
	"github.com/spf13/viper"
)

type checkoutService interface {
	CreateOrder(ctx context.Context, params checkoutsvc.CreateOrderParams) (*checkoutsvc.CreateOrderResult, error)
	CompleteOrder(ctx context.Context, orderID uuid.UUID, paymentRef string) (*checkoutsvc.CompleteOrderResult, error)
	CancelOrder(ctx context.Context, orderID uuid.UUID) error
	ConfirmDraftFulfillment(ctx context.Context, orderID uuid.UUID) error
	GetOrders(ctx context.Context, filter *order.QueryOrdersModel) ([]order.Order, error)
}

type webhookService interface {
	Apply(ctx context.Context, event webhooksvc.Event) error
}

type HTTPTransport struct {
	server     *http.Server
	router     *chi.Mux
	checkout   checkoutService
	webhookSvc webhookService
}

func NewHTTPTransport(checkout checkoutService, webhookSvc webhookService) *HTTPTransport {
	router := newRouter()
	server := newServer(router)
	return &HTTPTransport{
		server:     server,
		router:     router,
		checkout:   checkout,
		webhookSvc: webhookSvc,
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
	h.router.Route("/api", func(r chi.Router) {
		r.Post("/checkout", h.createOrder)
		r.Post("/checkout/{orderId}/complete", h.completeOrder)
		r.Get("/orders", h.listOrders)
		r.Post("/orders/{orderId}/cancel", h.cancelOrder)
		r.Post("/orders/{orderId}/confirm-fulfillment", h.confirmFulfillment)
		r.Post("/webhooks/fulfillment", h.fulfillmentWebhook)
	})
}

func (h *HTTPTransport) createOrder(w http.ResponseWriter, r *http.Request) {
	createorder.CreateOrder(w, r, h.checkout)
}

func (h *HTTPTransport) completeOrder(w http.ResponseWriter, r *http.Request) {
	completeorder.CompleteOrder(w, r, h.checkout)
}

func (h *HTTPTransport) cancelOrder(w http.ResponseWriter, r *http.Request) {
	cancelorder.CancelOrder(w, r, h.checkout)
}

func (h *HTTPTransport) confirmFulfillment(w http.ResponseWriter, r *http.Request) {
	confirmfulfillment.ConfirmFulfillment(w, r, h.checkout)
}

func (h *HTTPTransport) listOrders(w http.ResponseWriter, r *http.Request) {
	listorders.ListOrders(w, r, h.checkout)
}

func (h *HTTPTransport) fulfillmentWebhook(w http.ResponseWriter, r *http.Request) {
	webhook.HandleFulfillmentEvent(w, r, h.webhookSvc)
}

func newRouter() *chi.Mux {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(logger.NewLoggerMiddleware(slog.Default()))
	router.Use(trace.NewTraceMiddleware)

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

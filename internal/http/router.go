package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const serviceName = "foodcart-api"

type RouterConfig struct {
	Logger         *zap.Logger
	RequestTimeout time.Duration
	// Ready is checked by /health when set.
	Ready func(ctx context.Context) error
}

type Handlers struct {
	Products *ProductHandler
	Basket   *BasketHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Admin    *AdminHandler
}

// NewRouter builds the API. Event streams are exempt from the request timeout.
func NewRouter(cfg RouterConfig, h Handlers) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	timeout := middleware.Timeout(cfg.RequestTimeout)

	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(MockAuthMiddleware)
	r.Use(RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if cfg.Ready != nil {
			if err := cfg.Ready(r.Context()); err != nil {
				respondError(w, r, http.StatusServiceUnavailable, "not_ready", err.Error())
				return
			}
		}
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", h.Products.ListProducts)
			r.Get("/{product_id}", h.Products.GetProduct)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", h.Products.ListCategories)
			r.Get("/{category_id}/products", h.Products.CategoryProducts)
		})

		r.Route("/basket", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", h.Basket.GetBasket)
			r.Post("/items", h.Basket.AddItem)
			r.Patch("/items/{product_id}", h.Basket.UpdateQuantity)
			r.Delete("/items/{product_id}", h.Basket.RemoveItem)
		})

		r.Route("/checkout", func(r chi.Router) {
			r.Use(timeout)
			r.Get("/", h.Checkout.GetState)
			r.Post("/", h.Checkout.Initiate)
			r.Post("/navigation", h.Checkout.Navigation)
			r.Post("/abandon", h.Checkout.Abandon)
			r.Post("/retry-items", h.Checkout.RetryItems)
		})

		r.Route("/orders", func(r chi.Router) {
			r.With(timeout).Get("/", h.Orders.ListOrders)
			r.With(timeout).Get("/{order_id}", h.Orders.GetOrder)
			r.Get("/{order_id}/events", h.Orders.Events)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(h.Admin.RequireAdmin)
			r.Get("/orders/events", h.Admin.Events)
			r.With(timeout).Get("/orders", h.Admin.ListOrders)
			r.With(timeout).Get("/orders/{order_id}", h.Admin.GetOrder)
			r.With(timeout).Patch("/orders/{order_id}", h.Admin.UpdateStatus)
		})
	})

	return otelhttp.NewHandler(r, serviceName)
}

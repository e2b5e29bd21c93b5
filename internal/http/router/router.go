package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"food-delivery/internal/http/handlers"
	"food-delivery/internal/http/middleware"
	"food-delivery/internal/http/middleware/ratelimit"
	"food-delivery/internal/logx"
)

// Base holds what every service router shares.
type Base struct {
	Handlers  *handlers.Handlers
	Logger    logx.Logger
	Metrics   middleware.HTTPMetrics
	RateLimit *ratelimit.Middleware
	Gatherer  prometheus.Gatherer
	Timeout   time.Duration
}

// Mount registers a service's API routes.
type Mount func(r chi.Router)

// New constructs a chi-based http.Handler with base middleware, ops routes
// and the given API mounts. Only API routes are rate limited.
func New(b Base, mounts ...Mount) http.Handler {
	if b.Timeout <= 0 {
		b.Timeout = 15 * time.Second
	}
	if b.Gatherer == nil {
		b.Gatherer = prometheus.DefaultGatherer
	}
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.Observability(b.Logger, b.Metrics))
	r.Use(chimw.Recoverer)

	r.Get("/ping", b.Handlers.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(b.Handlers.HealthcheckHead))
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(b.Gatherer, promhttp.HandlerOpts{}))
	r.NotFound(http.HandlerFunc(b.Handlers.NotFound))

	r.Group(func(api chi.Router) {
		if b.RateLimit != nil {
			api.Use(b.RateLimit.Handler())
		}
		api.Use(chimw.Timeout(b.Timeout))
		for _, m := range mounts {
			m(api)
		}
	})

	return r
}

// Orders mounts the order API.
func Orders(h *handlers.OrderHandler) Mount {
	return func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.Place)
			r.Get("/{id}", h.Get)
			r.Get("/{id}/history", h.History)
			r.Patch("/{id}/status", h.UpdateStatus)
			r.Post("/{id}/cancel", h.Cancel)
		})
	}
}

// Deliveries mounts the delivery and courier APIs.
func Deliveries(d *handlers.DeliveryHandler, c *handlers.CourierHandler) Mount {
	return func(r chi.Router) {
		r.Route("/deliveries", func(r chi.Router) {
			r.Post("/retry-pending", d.RetryPending)
			r.Get("/order/{orderId}", d.GetByOrder)
			r.Get("/{id}", d.Get)
			r.Post("/{id}/pickup", d.PickUp)
			r.Post("/{id}/deliver", d.Deliver)
			r.Post("/{id}/cancel", d.Cancel)
			r.Post("/{id}/rate", d.Rate)
		})
		r.Route("/couriers", func(r chi.Router) {
			r.Get("/", c.List)
			r.Post("/", c.Register)
			r.Get("/{id}", c.GetByID)
			r.Patch("/{id}", c.Update)
			r.Put("/{id}", c.Update)
			r.Patch("/{id}/status", c.UpdateStatus)
			r.Put("/{id}/location", c.UpdateLocation)
		})
	}
}

// Payments mounts the payment API.
func Payments(h *handlers.PaymentHandler) Mount {
	return func(r chi.Router) {
		r.Route("/payments", func(r chi.Router) {
			r.Post("/", h.Process)
			r.Get("/order/{orderId}", h.GetByOrder)
		})
	}
}

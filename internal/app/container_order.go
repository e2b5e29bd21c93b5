package app

import (
	"net/http"

	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/gateway/guard"
	"food-delivery/internal/gateway/upstream"
	"food-delivery/internal/http/handlers"
	"food-delivery/internal/http/router"
	"food-delivery/internal/logx"
	"food-delivery/internal/repository"
	"food-delivery/internal/service/orders"
	"food-delivery/internal/transport/kafka"
)

func registerOrder(container *dig.Container) error {
	return provideAll(container,
		repository.NewOrderRepo,
		func() *http.Client { return &http.Client{} },
		func(cfg *config.Config, hc *http.Client, logger logx.Logger, m *Metrics) *upstream.Catalog {
			return upstream.NewCatalog(cfg.Upstream.CatalogURL, hc, newGuard("catalog", cfg.Upstream, logger, m), logger)
		},
		func(cfg *config.Config, hc *http.Client, logger logx.Logger, m *Metrics) *upstream.Users {
			return upstream.NewUsers(cfg.Upstream.UsersURL, hc, newGuard("users", cfg.Upstream, logger, m), logger)
		},
		func(cfg *config.Config, hc *http.Client, logger logx.Logger, m *Metrics) *upstream.Promo {
			return upstream.NewPromo(cfg.Upstream.PromoURL, hc, newGuard("promo", cfg.Upstream, logger, m))
		},
		newOrderService,
		func(logger logx.Logger, svc *orders.Service) *handlers.OrderHandler {
			return handlers.NewOrderHandler(logger, svc)
		},
		func(h *handlers.OrderHandler) []router.Mount {
			return []router.Mount{router.Orders(h)}
		},
		newOrderConsumer,
	)
}

func newGuard(name string, u config.Upstream, logger logx.Logger, m *Metrics) *guard.Guard {
	return guard.New(name, guard.Config{
		MaxAttempts:      u.Retry.Attempts,
		BaseDelay:        u.Retry.BaseDelay,
		MaxDelay:         u.Retry.MaxDelay,
		Timeout:          u.Timeout,
		BreakerErrors:    u.Breaker.Errors,
		BreakerSuccesses: u.Breaker.Successes,
		BreakerOpenFor:   u.Breaker.OpenFor,
	}, logger, m.GatewayRetries, m.BreakerRejections.WithLabelValues(name))
}

type orderServiceIn struct {
	dig.In
	Config    *config.Config
	Repo      *repository.OrderRepo
	Catalog   *upstream.Catalog
	Users     *upstream.Users
	Promo     *upstream.Promo
	Publisher kafka.Publisher
	Topics    events.Topics
	Logger    logx.Logger
}

func newOrderService(in orderServiceIn) *orders.Service {
	p := in.Config.Pricing
	pricing := orders.Pricing{
		BaseFee:           p.BaseFee,
		FeePerKm:          p.FeePerKm,
		DefaultDistanceKm: p.DefaultDistanceKm,
		PrepMinutes:       p.PrepMinutes,
		MinutesPerKm:      p.MinutesPerKm,
	}
	gw := orders.Gateways{Catalog: in.Catalog, Addresses: in.Users, Promo: in.Promo}
	return orders.NewService(in.Repo, gw, pricing, in.Publisher, in.Topics, in.Config.RequestTimeout, in.Logger)
}

// newOrderConsumer applies payment and delivery outcomes to orders.
func newOrderConsumer(in consumerIn, repo *repository.OrderRepo, pub kafka.Publisher, topics events.Topics) (*kafka.Consumer, error) {
	group := in.Config.Kafka.Groups.Order
	p := orders.NewProcessor(repo, pub, topics, group, in.Logger)
	return newConsumer(in, group, p.Routes())
}

package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/http/handlers"
	"food-delivery/internal/http/middleware/ratelimit"
	"food-delivery/internal/http/router"
	"food-delivery/internal/logx"
	"food-delivery/internal/repository"
)

// Kind names one of the deployable services.
type Kind string

const (
	KindOrder        Kind = "service-order"
	KindDelivery     Kind = "service-delivery"
	KindPayment      Kind = "service-payment"
	KindNotification Kind = "service-notification"
)

type dbConnectFunc func(ctx context.Context, logger logx.Logger, dsn string, retries int, delay time.Duration) (*pgxpool.Pool, error)

// ContainerBuilder is a dig container builder.
type ContainerBuilder struct {
	kind      Kind
	dbConnect dbConnectFunc
	migrate   func(context.Context, *pgxpool.Pool) error
	loadCfg   func() (*config.Config, error)
	logFatalf func(string, ...interface{})
}

// NewContainerBuilder returns a builder for the given service.
func NewContainerBuilder(kind Kind) *ContainerBuilder {
	return &ContainerBuilder{
		kind:      kind,
		dbConnect: connectDbWithRetry,
		migrate:   repository.Migrate,
		loadCfg:   config.Load,
		logFatalf: log.Fatalf,
	}
}

// WithDBConnect sets the database connection function
func (b *ContainerBuilder) WithDBConnect(fn dbConnectFunc) *ContainerBuilder {
	if fn != nil {
		b.dbConnect = fn
	}
	return b
}

// WithMigrate sets the schema migration function
func (b *ContainerBuilder) WithMigrate(fn func(context.Context, *pgxpool.Pool) error) *ContainerBuilder {
	if fn != nil {
		b.migrate = fn
	}
	return b
}

// WithConfig sets the configuration loader
func (b *ContainerBuilder) WithConfig(fn func() (*config.Config, error)) *ContainerBuilder {
	if fn != nil {
		b.loadCfg = fn
	}
	return b
}

// WithLogFatalf sets the log.Fatalf function
func (b *ContainerBuilder) WithLogFatalf(fn func(string, ...interface{})) *ContainerBuilder {
	if fn != nil {
		b.logFatalf = fn
	}
	return b
}

// MustBuild builds and returns a new dig container
func (b *ContainerBuilder) MustBuild(ctx context.Context) *dig.Container {
	container, err := b.build(ctx)
	if err != nil {
		b.logFatalf("failed to build container: %v", err)
	}
	return container
}

func (b *ContainerBuilder) build(ctx context.Context) (*dig.Container, error) {
	container := dig.New()

	if err := registerCore(container, ctx, b.kind, b.loadCfg); err != nil {
		return nil, fmt.Errorf("core: %w", err)
	}
	if b.kind != KindNotification {
		if err := registerDb(container, b.dbConnect, b.migrate); err != nil {
			return nil, fmt.Errorf("DB: %w", err)
		}
	}
	if err := registerKafka(container); err != nil {
		return nil, fmt.Errorf("kafka: %w", err)
	}

	var err error
	switch b.kind {
	case KindOrder:
		err = registerOrder(container)
	case KindDelivery:
		err = registerDelivery(container)
	case KindPayment:
		err = registerPayment(container)
	case KindNotification:
		err = registerNotification(container)
	default:
		return nil, fmt.Errorf("unknown service %q", b.kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.kind, err)
	}

	if err := registerHTTP(container); err != nil {
		return nil, fmt.Errorf("http: %w", err)
	}
	return container, nil
}

// MustBuildContainer builds the container of a service with production defaults.
func MustBuildContainer(ctx context.Context, kind Kind) *dig.Container {
	return NewContainerBuilder(kind).MustBuild(ctx)
}

func provideAll(container *dig.Container, providers ...any) error {
	for _, provider := range providers {
		if err := container.Provide(provider); err != nil {
			return fmt.Errorf("provide %T: %w", provider, err)
		}
	}
	return nil
}

func registerCore(container *dig.Container, ctx context.Context, kind Kind, loadCfg func() (*config.Config, error)) error {
	err := provideAll(container,
		func() context.Context { return ctx },
		func() Kind { return kind },
		loadCfg,
		func(cfg *config.Config, kind Kind) (logx.Logger, error) {
			logger, err := NewLogger(cfg.Log)
			if err != nil {
				return nil, err
			}
			return logger.With(logx.String("service", string(kind))), nil
		},
		func(cfg *config.Config) events.Topics { return cfg.Kafka.Topics },
		newResources,
		newRegistry,
		newMetrics,
	)
	if err != nil {
		return err
	}
	if err := container.Provide(
		func(m *Metrics) prometheus.Counter { return m.RateLimitExceeded },
		dig.Name("rate_limit_exceeded_total"),
	); err != nil {
		return fmt.Errorf("provide rate limit counter: %w", err)
	}
	return nil
}

func newRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

func registerDb(container *dig.Container, dbConnect dbConnectFunc, migrate func(context.Context, *pgxpool.Pool) error) error {
	providerDB := func(ctx context.Context, cfg *config.Config, logger logx.Logger, res *resources) (*pgxpool.Pool, error) {
		pool, err := dbConnect(ctx, logger, cfg.DB.DSN(), 10, time.Second)
		if err != nil {
			return nil, err
		}
		res.add("postgres", func(context.Context) error {
			pool.Close()
			return nil
		})
		if err := migrate(ctx, pool); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return pool, nil
	}
	return provideAll(container, providerDB)
}

func registerHTTP(container *dig.Container) error {
	handlerProvider := func(
		cfg *config.Config,
		base *handlers.Handlers,
		logger logx.Logger,
		m *Metrics,
		rl *ratelimit.Middleware,
		reg *prometheus.Registry,
		mounts []router.Mount,
	) http.Handler {
		return router.New(router.Base{
			Handlers:  base,
			Logger:    logger,
			Metrics:   m.HTTP,
			RateLimit: rl,
			Gatherer:  reg,
			Timeout:   cfg.RequestTimeout,
		}, mounts...)
	}
	serverProvider := func(cfg *config.Config, mux http.Handler) *http.Server {
		return &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
		}
	}
	return provideAll(container,
		handlers.New,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		handlerProvider,
		serverProvider,
	)
}

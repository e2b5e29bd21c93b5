package app

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/geo"
	"food-delivery/internal/http/handlers"
	"food-delivery/internal/http/router"
	"food-delivery/internal/jobs"
	"food-delivery/internal/logx"
	"food-delivery/internal/repository"
	"food-delivery/internal/service/assignment"
	"food-delivery/internal/service/courier"
	"food-delivery/internal/service/delivery"
	"food-delivery/internal/transport/kafka"
	"food-delivery/internal/workerpool"
)

func registerDelivery(container *dig.Container) error {
	return provideAll(container,
		repository.NewDeliveryRepo,
		repository.NewCourierRepo,
		newRedisClient,
		func(rdb *redis.Client, cfg *config.Config) *geo.RedisStore {
			return geo.NewRedisStore(rdb, cfg.Location.TTL)
		},
		newTracker,
		newAssignmentEngine,
		func(cfg *config.Config, repo *repository.DeliveryRepo, engine *assignment.Engine,
			pub kafka.Publisher, topics events.Topics, logger logx.Logger) *delivery.Service {
			return delivery.NewService(repo, engine, pub, topics, cfg.RequestTimeout, logger)
		},
		func(cfg *config.Config, repo *repository.CourierRepo, tracker *geo.Tracker, logger logx.Logger) *courier.Service {
			return courier.NewService(repo, tracker, cfg.RequestTimeout, logger)
		},
		func(logger logx.Logger, svc *delivery.Service) *handlers.DeliveryHandler {
			return handlers.NewDeliveryHandler(logger, svc)
		},
		func(logger logx.Logger, svc *courier.Service) *handlers.CourierHandler {
			return handlers.NewCourierHandler(logger, svc)
		},
		func(d *handlers.DeliveryHandler, c *handlers.CourierHandler) []router.Mount {
			return []router.Mount{router.Deliveries(d, c)}
		},
		newDeliveryConsumer,
		newPendingAssignmentJob,
	)
}

func newRedisClient(cfg *config.Config, res *resources) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	res.add("redis", func(context.Context) error { return rdb.Close() })
	return rdb
}

// newTracker puts location writes on their own pool, so a slow store never
// holds up courier requests.
func newTracker(cfg *config.Config, store *geo.RedisStore, logger logx.Logger, m *Metrics, res *resources) *geo.Tracker {
	loc := cfg.Location
	pool := workerpool.New("location", loc.Workers, loc.Queue, logger)
	res.add("location pool", pool.Stop)
	return geo.NewTracker(store, pool, logger, m.LocationFailures, loc.WriteTimeout)
}

func newAssignmentEngine(cfg *config.Config, repo *repository.DeliveryRepo, tracker *geo.Tracker,
	pub kafka.Publisher, topics events.Topics, logger logx.Logger, m *Metrics) *assignment.Engine {
	a := cfg.Assignment
	return assignment.NewEngine(repo, tracker, pub, assignment.Config{
		RadiusKm:      a.RadiusKm,
		MaxCandidates: a.MaxCandidates,
		FallbackLimit: a.FallbackLimit,
		Topic:         topics.DeliveryAssigned,
		Timeout:       a.Timeout,
	}, logger, m.Assignments, m.DistanceMismatch)
}

// newDeliveryConsumer opens deliveries for new orders and follows order
// cancellations. Both arrive on the order stream, so a cancel is never
// handled before the order it cancels.
func newDeliveryConsumer(in consumerIn, svc *delivery.Service, topics events.Topics) (*kafka.Consumer, error) {
	return newConsumer(in, in.Config.Kafka.Groups.Delivery, deliveryRoutes(svc, topics))
}

func deliveryRoutes(svc *delivery.Service, topics events.Topics) kafka.Routes {
	return kafka.NewRoutes(
		kafka.Route{Topic: topics.OrderCreated, EventType: events.TypeOrderCreated, Handle: kafka.JSON(svc.CreateFromOrder)},
		kafka.Route{Topic: topics.OrderStatusChanged, EventType: events.TypeOrderStatusChanged, Handle: kafka.JSON(svc.HandleOrderStatusChanged)},
	)
}

// newPendingAssignmentJob returns nil when the sweep is disabled.
func newPendingAssignmentJob(cfg *config.Config, svc *delivery.Service, logger logx.Logger) *jobs.PendingAssignmentJob {
	if cfg.Assignment.SweepSpec == "" {
		return nil
	}
	return jobs.NewPendingAssignmentJob(svc, cfg.Assignment.SweepSpec, 0, logger)
}

package app

import (
	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/http/router"
	"food-delivery/internal/logx"
	"food-delivery/internal/service/notification"
	"food-delivery/internal/transport/kafka"
	"food-delivery/internal/workerpool"
)

// The notification service has no API of its own, only the ops routes.
func registerNotification(container *dig.Container) error {
	return provideAll(container,
		newNotificationService,
		func() []router.Mount { return nil },
		func(in consumerIn, svc *notification.Service) (*kafka.Consumer, error) {
			return newConsumer(in, in.Config.Kafka.Groups.Notification, svc.Routes())
		},
	)
}

func newNotificationService(cfg *config.Config, topics events.Topics, logger logx.Logger, res *resources) *notification.Service {
	pool := workerpool.New("notification", cfg.Notify.Workers, cfg.Notify.Queue, logger)
	res.add("notification pool", pool.Stop)
	return notification.NewService(notification.NewLogSender(logger), pool, topics, logger)
}

package app

import (
	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/events"
	"food-delivery/internal/http/handlers"
	"food-delivery/internal/http/router"
	"food-delivery/internal/logx"
	"food-delivery/internal/repository"
	"food-delivery/internal/service/payment"
	"food-delivery/internal/transport/kafka"
	"food-delivery/internal/workerpool"
)

func registerPayment(container *dig.Container) error {
	return provideAll(container,
		repository.NewPaymentRepo,
		repository.NewAuditRepo,
		newPaymentService,
		func(logger logx.Logger, svc *payment.Service) *handlers.PaymentHandler {
			return handlers.NewPaymentHandler(logger, svc)
		},
		func(h *handlers.PaymentHandler) []router.Mount {
			return []router.Mount{router.Payments(h)}
		},
	)
}

func newPaymentService(cfg *config.Config, repo *repository.PaymentRepo, audit *repository.AuditRepo,
	pub kafka.Publisher, topics events.Topics, logger logx.Logger, res *resources) *payment.Service {
	p := cfg.Payment
	pool := workerpool.New("payment-audit", p.AuditWorkers, p.AuditQueue, logger)
	res.add("payment audit pool", pool.Stop)
	return payment.NewService(repo, audit, pool, payment.NewSimulatedCharger(p.SuccessRate),
		payment.FraudGuard{MaxFailedAttempts: p.MaxFailedAttempts, Window: p.FailureWindow},
		pub, topics, logger)
}

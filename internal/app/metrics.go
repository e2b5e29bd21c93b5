package app

import (
	"github.com/prometheus/client_golang/prometheus"

	"food-delivery/internal/http/middleware"
	"food-delivery/internal/metrics"
)

// Metrics holds every collector a service may export. All of them are
// registered on the service registry, so /metrics always has the same shape.
type Metrics struct {
	HTTP              middleware.HTTPMetrics
	RateLimitExceeded prometheus.Counter
	GatewayRetries    prometheus.Counter
	BreakerRejections *prometheus.CounterVec
	Consumed          *prometheus.CounterVec
	Published         *prometheus.CounterVec
	Assignments       *prometheus.CounterVec
	LocationFailures  prometheus.Counter
	DistanceMismatch  prometheus.Counter
}

func newMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		HTTP:              middleware.NewHTTPMetrics(),
		RateLimitExceeded: metrics.NewRateLimitExceededTotal(),
		GatewayRetries:    metrics.NewGatewayRetriesTotal(),
		BreakerRejections: metrics.NewBreakerRejectionsTotal(),
		Consumed:          metrics.NewConsumedEventsTotal(),
		Published:         metrics.NewPublishedEventsTotal(),
		Assignments:       metrics.NewAssignmentsTotal(),
		LocationFailures:  metrics.NewLocationWriteFailuresTotal(),
		DistanceMismatch:  metrics.NewDistanceMismatchTotal(),
	}
	cs := append(m.HTTP.Collectors(),
		m.RateLimitExceeded,
		m.GatewayRetries,
		m.BreakerRejections,
		m.Consumed,
		m.Published,
		m.Assignments,
		m.LocationFailures,
		m.DistanceMismatch,
	)
	if err := metrics.Register(reg, cs...); err != nil {
		return nil, err
	}
	return m, nil
}

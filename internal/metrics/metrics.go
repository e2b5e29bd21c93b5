package metrics

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewGatewayRetriesTotal returns a Prometheus counter for the number of retry attempts performed by gateways
func NewGatewayRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gateway_retries_total",
		Help: "Total number of retry attempts performed by gateways",
	})
}

// NewConsumedEventsTotal counts consumer outcomes by topic.
// outcome is one of acknowledged, retried, dead_lettered.
func NewConsumedEventsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_consumed_events_total",
		Help: "Consumed events by topic and outcome",
	}, []string{"topic", "outcome"})
}

// NewPublishedEventsTotal counts asynchronous publish confirmations by topic.
func NewPublishedEventsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "kafka_published_events_total",
		Help: "Published events by topic and outcome",
	}, []string{"topic", "outcome"})
}

// NewAssignmentsTotal counts courier assignment attempts by outcome.
func NewAssignmentsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "courier_assignments_total",
		Help: "Courier assignment attempts by outcome",
	}, []string{"outcome"})
}

// NewLocationWriteFailuresTotal counts dropped or failed location store writes.
func NewLocationWriteFailuresTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "location_write_failures_total",
		Help: "Location store writes that failed or were dropped",
	})
}

// NewDistanceMismatchTotal counts store/haversine distance disagreements.
func NewDistanceMismatchTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "assignment_distance_mismatch_total",
		Help: "Assignments where the location store distance disagreed with the haversine estimate",
	})
}

// NewBreakerRejectionsTotal counts calls short-circuited by an open breaker.
func NewBreakerRejectionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gateway_breaker_rejections_total",
		Help: "Upstream calls rejected by an open circuit breaker",
	}, []string{"upstream"})
}

// Register registers collectors, tolerating ones that are already registered.
func Register(reg prometheus.Registerer, cs ...prometheus.Collector) error {
	for _, c := range cs {
		if err := reg.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	return nil
}

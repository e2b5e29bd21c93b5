package config

import (
	"time"

	"github.com/shopspring/decimal"

	"food-delivery/internal/events"
)

const defaultPort = 8080

var defaultDB = DB{
	Host:    "127.0.0.1",
	Port:    "5432",
	User:    "myuser",
	Pass:    "mypassword",
	Name:    "food_delivery",
	SSLMode: "disable",
}

// DefaultPort returns the default port.
func DefaultPort() int {
	return defaultPort
}

// DefaultDB returns the default database settings.
func DefaultDB() DB {
	return defaultDB
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:            defaultPort,
		RequestTimeout:  15 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		DB:              defaultDB,
		Kafka: Kafka{
			Brokers:        []string{"localhost:9092"},
			Topics:         events.DefaultTopics(),
			Groups:         events.DefaultConsumerGroups(),
			Retry:          Retry{Retries: 3, Interval: 2 * time.Second},
			SessionTimeout: 30 * time.Second,
			MaxPollRecords: 10,
		},
		Redis: Redis{Addr: "localhost:6379"},
		Location: Location{
			TTL:          24 * time.Hour,
			Workers:      4,
			Queue:        1024,
			WriteTimeout: 2 * time.Second,
		},
		Assignment: Assignment{
			RadiusKm:      10,
			MaxCandidates: 10,
			FallbackLimit: 100,
			Timeout:       5 * time.Second,
			SweepSpec:     "@every 1m",
		},
		Upstream: Upstream{
			CatalogURL: "http://localhost:8082",
			UsersURL:   "http://localhost:8081",
			PromoURL:   "http://localhost:8086",
			Timeout:    2 * time.Second,
			Retry:      UpstreamRetry{Attempts: 3, BaseDelay: 100 * time.Millisecond, MaxDelay: time.Second},
			Breaker:    Breaker{Errors: 5, Successes: 1, OpenFor: 30 * time.Second},
		},
		Pricing: Pricing{
			BaseFee:           decimal.RequireFromString("2.50"),
			FeePerKm:          decimal.RequireFromString("0.50"),
			DefaultDistanceKm: 5,
			PrepMinutes:       20,
			MinutesPerKm:      3,
		},
		Payment: Payment{
			MaxFailedAttempts: 3,
			FailureWindow:     30 * time.Minute,
			SuccessRate:       0.9,
			AuditWorkers:      2,
			AuditQueue:        256,
		},
		Notify: Notify{Workers: 2, Queue: 256},
		RateLimit: RateLimit{
			Enabled:    true,
			RPS:        20,
			Burst:      40,
			TTL:        10 * time.Minute,
			MaxBuckets: 100000,
		},
		Log: Log{Format: "json", Level: "info"},
	}
}

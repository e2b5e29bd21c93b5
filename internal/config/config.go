package config

import (
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"

	"food-delivery/internal/events"
)

// Config stores the settings of one service process.
type Config struct {
	Port            int
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	DB         DB
	Kafka      Kafka
	Redis      Redis
	Location   Location
	Assignment Assignment
	Upstream   Upstream
	Pricing    Pricing
	Payment    Payment
	Notify     Notify
	RateLimit  RateLimit
	Pprof      Pprof
	Log        Log
}

// DB stores Postgres connection settings.
type DB struct {
	Host    string
	Port    string
	User    string
	Pass    string
	Name    string
	SSLMode string
}

// DSN renders a pgx connection string.
func (d DB) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Pass),
		Host:     d.Host + ":" + d.Port,
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + d.SSLMode,
	}
	return u.String()
}

// Retry is a fixed-interval bounded retry. Retries counts redeliveries
// after the first attempt.
type Retry struct {
	Retries  int
	Interval time.Duration
}

// Kafka stores broker, topic and consumer settings. Empty Brokers runs the
// service without Kafka.
type Kafka struct {
	Brokers        []string
	Topics         events.Topics
	Groups         events.ConsumerGroups
	Retry          Retry
	SessionTimeout time.Duration
	MaxPollRecords int
}

// Redis stores the location store connection.
type Redis struct {
	Addr     string
	Password string
	DB       int
}

// Location tunes live location writes.
type Location struct {
	TTL          time.Duration
	Workers      int
	Queue        int
	WriteTimeout time.Duration
}

// Assignment tunes the courier search and the pending sweep. An empty
// SweepSpec disables the scheduled sweep.
type Assignment struct {
	RadiusKm      float64
	MaxCandidates int
	FallbackLimit int
	Timeout       time.Duration
	SweepSpec     string
}

// Breaker configures upstream circuit breakers.
type Breaker struct {
	Errors    int
	Successes int
	OpenFor   time.Duration
}

// UpstreamRetry configures exponential upstream retry.
type UpstreamRetry struct {
	Attempts  int
	BaseDelay time.Duration
	MaxDelay  time.Duration
}

// Upstream stores the synchronous collaborators of the order service.
type Upstream struct {
	CatalogURL string
	UsersURL   string
	PromoURL   string
	Timeout    time.Duration
	Retry      UpstreamRetry
	Breaker    Breaker
}

// Pricing stores the delivery fee and ETA model.
type Pricing struct {
	BaseFee           decimal.Decimal
	FeePerKm          decimal.Decimal
	DefaultDistanceKm float64
	PrepMinutes       int
	MinutesPerKm      float64
}

// Payment stores the simulated gateway and fraud guard settings.
type Payment struct {
	MaxFailedAttempts int
	FailureWindow     time.Duration
	SuccessRate       float64
	AuditWorkers      int
	AuditQueue        int
}

// Notify sizes the notification send pool.
type Notify struct {
	Workers int
	Queue   int
}

// RateLimit configures the per-caller token bucket.
type RateLimit struct {
	Enabled    bool
	RPS        float64
	Burst      int
	TTL        time.Duration
	MaxBuckets int
}

// Pprof configures the debug server. Empty Addr disables it.
type Pprof struct {
	Addr string
	User string
	Pass string
}

// Log selects the logging backend.
type Log struct {
	Format string
	Level  string
}

// Load reads configuration in order: .env (if present) → environment → flags.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}

	e := &envReader{}
	cfg := fromEnv(e)
	if err := e.err(); err != nil {
		return nil, err
	}

	fs := pflag.CommandLine
	fs.IntVarP(&cfg.Port, "port", "p", cfg.Port, "port to listen on")
	fs.StringVar(&cfg.Log.Level, "log-level", cfg.Log.Level, "debug|info|warn|error")
	fs.StringVar(&cfg.Pprof.Addr, "pprof-addr", cfg.Pprof.Addr, "pprof listen address, empty disables")
	if err := fs.Parse(os.Args[1:]); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func fromEnv(e *envReader) *Config {
	d := Defaults()
	topics := d.Kafka.Topics
	groups := d.Kafka.Groups

	return &Config{
		Port:            e.int("PORT", d.Port),
		RequestTimeout:  e.duration("HTTP_REQUEST_TIMEOUT", d.RequestTimeout),
		ShutdownTimeout: e.duration("SHUTDOWN_TIMEOUT", d.ShutdownTimeout),
		DB: DB{
			Host:    e.string("POSTGRES_HOST", d.DB.Host),
			Port:    e.port("POSTGRES_PORT", d.DB.Port),
			User:    e.string("POSTGRES_USER", d.DB.User),
			Pass:    e.string("POSTGRES_PASSWORD", d.DB.Pass),
			Name:    e.string("POSTGRES_DB", d.DB.Name),
			SSLMode: e.string("POSTGRES_SSLMODE", d.DB.SSLMode),
		},
		Kafka: Kafka{
			Brokers: e.list("KAFKA_BROKERS", d.Kafka.Brokers),
			Topics: events.StreamTopics(
				e.string("KAFKA_TOPIC_ORDER_EVENTS", topics.OrderCreated),
				e.string("KAFKA_TOPIC_PAYMENT_EVENTS", topics.PaymentProcessed),
				e.string("KAFKA_TOPIC_DELIVERY_EVENTS", topics.DeliveryAssigned),
				e.string("KAFKA_DLQ_SUFFIX", topics.DeadLetterSuffix),
			),
			Groups: events.ConsumerGroups{
				Order:        e.string("KAFKA_GROUP_ORDER", groups.Order),
				Delivery:     e.string("KAFKA_GROUP_DELIVERY", groups.Delivery),
				Notification: e.string("KAFKA_GROUP_NOTIFICATION", groups.Notification),
			},
			Retry: Retry{
				Retries:  e.int("KAFKA_RETRIES", d.Kafka.Retry.Retries),
				Interval: e.duration("KAFKA_RETRY_INTERVAL", d.Kafka.Retry.Interval),
			},
			SessionTimeout: e.duration("KAFKA_SESSION_TIMEOUT", d.Kafka.SessionTimeout),
			MaxPollRecords: e.int("KAFKA_MAX_POLL_RECORDS", d.Kafka.MaxPollRecords),
		},
		Redis: Redis{
			Addr:     e.string("REDIS_ADDR", d.Redis.Addr),
			Password: e.string("REDIS_PASSWORD", d.Redis.Password),
			DB:       e.int("REDIS_DB", d.Redis.DB),
		},
		Location: Location{
			TTL:          e.duration("LOCATION_TTL", d.Location.TTL),
			Workers:      e.int("LOCATION_WORKERS", d.Location.Workers),
			Queue:        e.int("LOCATION_QUEUE", d.Location.Queue),
			WriteTimeout: e.duration("LOCATION_WRITE_TIMEOUT", d.Location.WriteTimeout),
		},
		Assignment: Assignment{
			RadiusKm:      e.float("ASSIGNMENT_RADIUS_KM", d.Assignment.RadiusKm),
			MaxCandidates: e.int("ASSIGNMENT_MAX_CANDIDATES", d.Assignment.MaxCandidates),
			FallbackLimit: e.int("ASSIGNMENT_FALLBACK_LIMIT", d.Assignment.FallbackLimit),
			Timeout:       e.duration("ASSIGNMENT_TIMEOUT", d.Assignment.Timeout),
			SweepSpec:     e.string("ASSIGNMENT_SWEEP_SPEC", d.Assignment.SweepSpec),
		},
		Upstream: Upstream{
			CatalogURL: e.string("UPSTREAM_CATALOG_URL", d.Upstream.CatalogURL),
			UsersURL:   e.string("UPSTREAM_USERS_URL", d.Upstream.UsersURL),
			PromoURL:   e.string("UPSTREAM_PROMO_URL", d.Upstream.PromoURL),
			Timeout:    e.duration("UPSTREAM_TIMEOUT", d.Upstream.Timeout),
			Retry: UpstreamRetry{
				Attempts:  e.int("UPSTREAM_RETRY_ATTEMPTS", d.Upstream.Retry.Attempts),
				BaseDelay: e.duration("UPSTREAM_RETRY_BASE_DELAY", d.Upstream.Retry.BaseDelay),
				MaxDelay:  e.duration("UPSTREAM_RETRY_MAX_DELAY", d.Upstream.Retry.MaxDelay),
			},
			Breaker: Breaker{
				Errors:    e.int("UPSTREAM_BREAKER_ERRORS", d.Upstream.Breaker.Errors),
				Successes: e.int("UPSTREAM_BREAKER_SUCCESSES", d.Upstream.Breaker.Successes),
				OpenFor:   e.duration("UPSTREAM_BREAKER_OPEN_FOR", d.Upstream.Breaker.OpenFor),
			},
		},
		Pricing: Pricing{
			BaseFee:           e.decimal("PRICING_BASE_FEE", d.Pricing.BaseFee),
			FeePerKm:          e.decimal("PRICING_FEE_PER_KM", d.Pricing.FeePerKm),
			DefaultDistanceKm: e.float("PRICING_DEFAULT_DISTANCE_KM", d.Pricing.DefaultDistanceKm),
			PrepMinutes:       e.int("PRICING_PREP_MINUTES", d.Pricing.PrepMinutes),
			MinutesPerKm:      e.float("PRICING_MINUTES_PER_KM", d.Pricing.MinutesPerKm),
		},
		Payment: Payment{
			MaxFailedAttempts: e.int("PAYMENT_MAX_FAILED_ATTEMPTS", d.Payment.MaxFailedAttempts),
			FailureWindow:     e.duration("PAYMENT_FAILURE_WINDOW", d.Payment.FailureWindow),
			SuccessRate:       e.float("PAYMENT_SUCCESS_RATE", d.Payment.SuccessRate),
			AuditWorkers:      e.int("PAYMENT_AUDIT_WORKERS", d.Payment.AuditWorkers),
			AuditQueue:        e.int("PAYMENT_AUDIT_QUEUE", d.Payment.AuditQueue),
		},
		Notify: Notify{
			Workers: e.int("NOTIFICATION_WORKERS", d.Notify.Workers),
			Queue:   e.int("NOTIFICATION_QUEUE", d.Notify.Queue),
		},
		RateLimit: RateLimit{
			Enabled:    e.bool("RATE_LIMIT_ENABLED", d.RateLimit.Enabled),
			RPS:        e.float("RATE_LIMIT_RPS", d.RateLimit.RPS),
			Burst:      e.int("RATE_LIMIT_BURST", d.RateLimit.Burst),
			TTL:        e.duration("RATE_LIMIT_TTL", d.RateLimit.TTL),
			MaxBuckets: e.int("RATE_LIMIT_MAX_BUCKETS", d.RateLimit.MaxBuckets),
		},
		Pprof: Pprof{
			Addr: e.string("PPROF_ADDR", d.Pprof.Addr),
			User: e.string("PPROF_USER", d.Pprof.User),
			Pass: e.string("PPROF_PASS", d.Pprof.Pass),
		},
		Log: Log{
			Format: e.string("LOG_FORMAT", d.Log.Format),
			Level:  e.string("LOG_LEVEL", d.Log.Level),
		},
	}
}

func (c *Config) validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port: %d", c.Port))
	}
	if c.Kafka.Retry.Retries < 0 {
		errs = append(errs, fmt.Errorf("KAFKA_RETRIES must not be negative, got %d", c.Kafka.Retry.Retries))
	}
	if c.Payment.SuccessRate < 0 || c.Payment.SuccessRate > 1 {
		errs = append(errs, fmt.Errorf("PAYMENT_SUCCESS_RATE must be within [0,1], got %v", c.Payment.SuccessRate))
	}
	if c.Assignment.RadiusKm <= 0 {
		errs = append(errs, fmt.Errorf("ASSIGNMENT_RADIUS_KM must be positive, got %v", c.Assignment.RadiusKm))
	}
	if c.Pricing.BaseFee.IsNegative() || c.Pricing.FeePerKm.IsNegative() {
		errs = append(errs, errors.New("pricing fees must not be negative"))
	}
	switch strings.ToLower(c.Log.Format) {
	case "json", "zap":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or zap, got %q", c.Log.Format))
	}
	return errors.Join(errs...)
}

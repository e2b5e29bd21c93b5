package config_test

import (
	"io"
	"os"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/config"
)

func resetFlags(t *testing.T) {
	t.Helper()
	oldArgs := os.Args
	old := pflag.CommandLine
	fs := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	pflag.CommandLine = fs
	os.Args = []string{"cmd"}
	t.Cleanup(func() {
		pflag.CommandLine = old
		os.Args = oldArgs
	})
}

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetFlags(t)
	clearEnv(t, "PORT", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER", "POSTGRES_PASSWORD",
		"POSTGRES_DB", "KAFKA_BROKERS", "KAFKA_RETRIES", "ASSIGNMENT_SWEEP_SPEC", "LOG_FORMAT")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 8080, cfg.Port)

	require.Equal(t, "127.0.0.1", cfg.DB.Host)
	require.Equal(t, "5432", cfg.DB.Port)
	require.Equal(t, "myuser", cfg.DB.User)
	require.Equal(t, "mypassword", cfg.DB.Pass)
	require.Equal(t, "food_delivery", cfg.DB.Name)

	require.Equal(t, []string{"localhost:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "order.events", cfg.Kafka.Topics.OrderCreated)
	require.Equal(t, "order.events", cfg.Kafka.Topics.OrderStatusChanged)
	require.Equal(t, "order.events.dlq", cfg.Kafka.Topics.DeadLetter(cfg.Kafka.Topics.OrderCreated))
	require.Equal(t, "order-service-group", cfg.Kafka.Groups.Order)
	require.Equal(t, config.Retry{Retries: 3, Interval: 2 * time.Second}, cfg.Kafka.Retry)

	require.Equal(t, 24*time.Hour, cfg.Location.TTL)
	require.Equal(t, "@every 1m", cfg.Assignment.SweepSpec)
	require.True(t, decimal.RequireFromString("2.5").Equal(cfg.Pricing.BaseFee))
	require.Equal(t, 3, cfg.Payment.MaxFailedAttempts)
	require.Equal(t, 30*time.Minute, cfg.Payment.FailureWindow)
	require.False(t, cfg.Pprof.Addr != "")
}

func TestLoad_EnvOverrides(t *testing.T) {
	resetFlags(t)

	t.Setenv("PORT", "9090")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_PORT", "15432")
	t.Setenv("POSTGRES_USER", "u")
	t.Setenv("POSTGRES_PASSWORD", "p")
	t.Setenv("POSTGRES_DB", "service")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092")
	t.Setenv("KAFKA_TOPIC_PAYMENT_EVENTS", "payments.v2")
	t.Setenv("KAFKA_RETRY_INTERVAL", "500ms")
	t.Setenv("ASSIGNMENT_RADIUS_KM", "3.5")
	t.Setenv("PRICING_FEE_PER_KM", "0.75")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("LOG_FORMAT", "zap")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.NotNil(t, cfg)

	require.Equal(t, 9090, cfg.Port)
	require.Equal(t, "db", cfg.DB.Host)
	require.Equal(t, "15432", cfg.DB.Port)
	require.Equal(t, "u", cfg.DB.User)
	require.Equal(t, "p", cfg.DB.Pass)
	require.Equal(t, "service", cfg.DB.Name)
	require.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	require.Equal(t, "payments.v2", cfg.Kafka.Topics.PaymentFailed)
	require.Equal(t, "payments.v2", cfg.Kafka.Topics.PaymentProcessed)
	require.Equal(t, "delivery.events", cfg.Kafka.Topics.DeliveryDelivered)
	require.Equal(t, 500*time.Millisecond, cfg.Kafka.Retry.Interval)
	require.Equal(t, 3.5, cfg.Assignment.RadiusKm)
	require.True(t, decimal.RequireFromString("0.75").Equal(cfg.Pricing.FeePerKm))
	require.False(t, cfg.RateLimit.Enabled)
	require.Equal(t, "zap", cfg.Log.Format)
}

func TestLoad_BrokersNoneDisablesKafka(t *testing.T) {
	resetFlags(t)
	t.Setenv("KAFKA_BROKERS", "none")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Empty(t, cfg.Kafka.Brokers)
}

func TestLoad_FlagsOverrideEnv(t *testing.T) {
	resetFlags(t)
	t.Setenv("PORT", "9090")
	os.Args = []string{"cmd", "--port=7070", "--pprof-addr=127.0.0.1:6060"}

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Port)
	require.Equal(t, "127.0.0.1:6060", cfg.Pprof.Addr)
}

func TestLoad_InvalidValues(t *testing.T) {
	cases := map[string]string{
		"PORT":                 "70000",
		"POSTGRES_PORT":        "not-a-number",
		"KAFKA_RETRY_INTERVAL": "bad-interval",
		"KAFKA_RETRIES":        "-1",
		"PAYMENT_SUCCESS_RATE": "1.5",
		"PRICING_BASE_FEE":     "two",
		"RATE_LIMIT_ENABLED":   "maybe",
		"LOG_FORMAT":           "xml",
	}
	for key, val := range cases {
		t.Run(key, func(t *testing.T) {
			resetFlags(t)
			t.Setenv(key, val)

			cfg, err := config.Load()
			require.Error(t, err)
			require.Nil(t, cfg)
		})
	}
}

func TestLoad_FlagsParseError(t *testing.T) {
	resetFlags(t)
	t.Setenv("PORT", "")
	os.Args = []string{"cmd", "--port=not-a-number"}

	cfg, err := config.Load()

	require.Error(t, err)
	require.Nil(t, cfg)
	require.Contains(t, err.Error(), "parse flags")
}

func TestDB_DSN(t *testing.T) {
	t.Parallel()

	db := config.DB{Host: "db", Port: "5432", User: "u", Pass: "p@ss", Name: "orders", SSLMode: "disable"}

	require.Equal(t, "postgres://u:p%40ss@db:5432/orders?sslmode=disable", db.DSN())
}

package guard

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/eapache/go-resiliency/breaker"

	"food-delivery/internal/apperr"
	"food-delivery/internal/logx"
)

type counter interface {
	Inc()
}

// Config describes retry and breaker behaviour of a Guard.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	// Timeout bounds a single attempt. Zero means the caller's context only.
	Timeout time.Duration

	BreakerErrors    int
	BreakerSuccesses int
	BreakerOpenFor   time.Duration
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:      3,
		BaseDelay:        100 * time.Millisecond,
		MaxDelay:         time.Second,
		Timeout:          2 * time.Second,
		BreakerErrors:    5,
		BreakerSuccesses: 1,
		BreakerOpenFor:   30 * time.Second,
	}
}

// StatusError is a non-2xx upstream reply.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream status %d", e.Code)
	}
	return fmt.Sprintf("upstream status %d: %s", e.Code, e.Body)
}

// Guard runs upstream calls with a per-attempt timeout, bounded exponential
// retry and a circuit breaker. Only transient failures trip the breaker.
type Guard struct {
	name       string
	cb         *breaker.Breaker
	logger     logx.Logger
	retries    counter
	rejections counter
	cfg        Config
	sleep      func(context.Context, time.Duration) bool
}

// New builds a Guard for the named upstream. Counters may be nil.
func New(name string, cfg Config, logger logx.Logger, retries, rejections counter) *Guard {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BreakerErrors <= 0 {
		cfg.BreakerErrors = DefaultConfig().BreakerErrors
	}
	if cfg.BreakerSuccesses <= 0 {
		cfg.BreakerSuccesses = 1
	}
	if cfg.BreakerOpenFor <= 0 {
		cfg.BreakerOpenFor = DefaultConfig().BreakerOpenFor
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Guard{
		name:       name,
		cb:         breaker.New(cfg.BreakerErrors, cfg.BreakerSuccesses, cfg.BreakerOpenFor),
		logger:     logger.With(logx.String("upstream", name)),
		retries:    retries,
		rejections: rejections,
		cfg:        cfg,
		sleep:      sleepWithContext,
	}
}

// Do runs fn under the guard. Exhausted transient failures and an open
// circuit are reported as apperr.Unavailable. Other errors pass through.
func (g *Guard) Do(ctx context.Context, method string, fn func(context.Context) error) error {
	var callErr error
	err := g.cb.Run(func() error {
		callErr = g.retry(ctx, method, fn)
		if callErr != nil && IsRetryable(callErr) {
			return callErr
		}
		return nil
	})
	if errors.Is(err, breaker.ErrBreakerOpen) {
		if g.rejections != nil {
			g.rejections.Inc()
		}
		g.logger.Warn("upstream circuit open", logx.String("method", method))
		return fmt.Errorf("%s %s: %w", g.name, method, apperr.Unavailable)
	}
	if callErr == nil {
		return nil
	}
	if IsRetryable(callErr) {
		return fmt.Errorf("%s %s: %w: %w", g.name, method, apperr.Unavailable, callErr)
	}
	return fmt.Errorf("%s %s: %w", g.name, method, callErr)
}

func (g *Guard) retry(ctx context.Context, method string, fn func(context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= g.cfg.MaxAttempts; attempt++ {
		err := g.attempt(ctx, fn)
		if err == nil {
			return nil
		}
		lastErr = err

		if ctx.Err() != nil || attempt == g.cfg.MaxAttempts || !IsRetryable(err) {
			break
		}

		delay := backoff(g.cfg.BaseDelay, g.cfg.MaxDelay, attempt)
		if g.retries != nil {
			g.retries.Inc()
		}
		g.logger.Warn("gateway retry",
			logx.String("method", method),
			logx.Int("attempt", attempt),
			logx.Duration("delay", delay),
			logx.Err(err),
		)
		if !g.sleep(ctx, delay) {
			break
		}
	}
	return lastErr
}

func (g *Guard) attempt(ctx context.Context, fn func(context.Context) error) error {
	if g.cfg.Timeout <= 0 {
		return fn(ctx)
	}
	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()
	return fn(ctx)
}

// IsRetryable reports whether err is a transient upstream failure:
// a 5xx or 429 reply, a timeout, or a refused connection.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code >= http.StatusInternalServerError || se.Code == http.StatusTooManyRequests
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return true
	}
	var oe *net.OpError
	return errors.As(err, &oe)
}

func backoff(base, max time.Duration, attempt int) time.Duration {
	d := base << (attempt - 1)
	if d > max {
		return max
	}
	return d
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"food-delivery/internal/logx"
)

type stubLimiter struct {
	allow bool
	wait  time.Duration
	keys  *[]string
}

func (s stubLimiter) Allow(key string) (bool, time.Duration) {
	if s.keys != nil {
		*s.keys = append(*s.keys, key)
	}
	return s.allow, s.wait
}

func TestMiddleware_Allows_RequestPassesToNext(t *testing.T) {
	t.Parallel()

	nextCalled := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	m := New(logx.Nop(), nil, stubLimiter{allow: true})
	h := m.Handler()(next)

	r := httptest.NewRequest(http.MethodGet, "http://example/orders/1", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, http.StatusOK, w.Code, "expected 200")
	require.Equal(t, 1, nextCalled, "expected next called once")
}

func TestMiddleware_Blocks_Returns429AndIncrementsCounter(t *testing.T) {
	t.Parallel()

	nextCalled := 0
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		nextCalled++
		w.WriteHeader(http.StatusOK)
	})

	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ratelimit_denied_total",
		Help: "denied requests",
	})

	m := New(logx.Nop(), counter, stubLimiter{allow: false, wait: 2500 * time.Millisecond})
	h := m.Handler()(next)

	r := httptest.NewRequest(http.MethodPost, "http://example/orders", nil)
	r.RemoteAddr = "1.2.3.4:5678"
	w := httptest.NewRecorder()

	h.ServeHTTP(w, r)

	require.Equal(t, 0, nextCalled, "expected next not called")
	require.Equal(t, http.StatusTooManyRequests, w.Code, "expected 429")
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.Equal(t, "3", w.Header().Get("Retry-After"))
	require.Equal(t, `{"error":"too many requests"}`, w.Body.String())
	require.Equal(t, float64(1), testutil.ToFloat64(counter), "expected counter=1")
}

func TestMiddleware_KeysByCaller(t *testing.T) {
	t.Parallel()

	var keys []string
	h := New(logx.Nop(), nil, stubLimiter{allow: true, keys: &keys}).Handler()(
		http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	withUser := httptest.NewRequest(http.MethodGet, "/", nil)
	withUser.RemoteAddr = "1.2.3.4:5678"
	withUser.Header.Set("X-User-ID", "42")
	h.ServeHTTP(httptest.NewRecorder(), withUser)

	bogusUser := httptest.NewRequest(http.MethodGet, "/", nil)
	bogusUser.RemoteAddr = "1.2.3.4:5678"
	bogusUser.Header.Set("X-User-ID", "drop table")
	h.ServeHTTP(httptest.NewRecorder(), bogusUser)

	require.Equal(t, []string{"user:42", "ip:1.2.3.4"}, keys)
}

func TestClientIP(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"10.0.0.1:443":   "10.0.0.1",
		"not-a-hostport": "not-a-hostport",
		"":               "unknown",
	}
	for addr, want := range cases {
		r := httptest.NewRequest(http.MethodGet, "http://example/", nil)
		r.RemoteAddr = addr
		require.Equal(t, want, clientIP(r), addr)
	}
}

func TestRetryAfter_RoundsUpToWholeSeconds(t *testing.T) {
	t.Parallel()

	require.Equal(t, "1", retryAfter(0))
	require.Equal(t, "1", retryAfter(200*time.Millisecond))
	require.Equal(t, "2", retryAfter(1001*time.Millisecond))
}

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"food-delivery/internal/config"
	"food-delivery/internal/logx"
	testlog "food-delivery/internal/testutil"
)

func runConfig() *config.Config {
	cfg := testConfig()
	cfg.ShutdownTimeout = time.Second
	return cfg
}

func newServeIn(ctx context.Context, cfg *config.Config, logger logx.Logger, res *resources) serveIn {
	return serveIn{
		Ctx:    ctx,
		Config: cfg,
		Logger: logger,
		Server: &http.Server{
			Addr:    "127.0.0.1:0",
			Handler: http.NewServeMux(),
		},
		Resources: res,
	}
}

func TestServe_StopsOnCancelAndReleasesResources(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rec := testlog.New()
	res := newResources()
	var order []string
	res.add("first", func(context.Context) error { order = append(order, "first"); return nil })
	res.add("second", func(context.Context) error { order = append(order, "second"); return errors.New("boom") })

	cfg := runConfig()
	cfg.Pprof.Addr = "127.0.0.1:0"

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := serve(newServeIn(ctx, cfg, rec.Logger(), res))
	require.NoError(t, err)

	require.Equal(t, []string{"second", "first"}, order)
	require.True(t, rec.Has("shutting down"))
	require.Equal(t, 2, rec.Count("http server listening"))
	require.True(t, rec.Has("close failed"))
}

func TestServe_ListenErrorStopsEverything(t *testing.T) {
	t.Parallel()

	res := newResources()
	var closed atomic.Bool
	res.add("sentinel", func(context.Context) error { closed.Store(true); return nil })

	in := newServeIn(context.Background(), runConfig(), logx.Nop(), res)
	in.Server.Addr = "127.0.0.1:-1"

	err := serve(in)
	require.Error(t, err)
	require.True(t, closed.Load())
}

func TestShutdown_DoesNotPanic(t *testing.T) {
	t.Parallel()

	srv := &http.Server{
		Addr:    "127.0.0.1:0",
		Handler: http.NewServeMux(),
	}

	require.NotPanics(t, func() {
		shutdown([]*http.Server{srv}, logx.Nop(), 100*time.Millisecond)
	})
}

func TestRun_InvokesServeViaContainer(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container := dig.New()
	require.NoError(t, provideAll(container,
		func() context.Context { return ctx },
		func() *config.Config { return runConfig() },
		logx.Nop,
		newResources,
		func() *http.Server {
			return &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
		},
	))

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	// neither a consumer nor a job is provided: both are optional
	require.NoError(t, run(container))
}

func TestRunner_MustRun_Canceled(t *testing.T) {
	t.Parallel()

	r := &Runner{
		runFn: func(*dig.Container) error { return context.Canceled },
		logFatalf: func(format string, args ...interface{}) {
			require.FailNowf(t, "logFatalf must not be called", format, args...)
		},
	}
	r.MustRun(dig.New())
}

func TestRunner_MustRun_StartupTimeout(t *testing.T) {
	t.Parallel()

	r := &Runner{
		runFn: func(*dig.Container) error { return context.DeadlineExceeded },
		logFatalf: func(format string, args ...interface{}) {
			require.FailNowf(t, "logFatalf must not be called", format, args...)
		},
	}
	r.MustRun(dig.New())
}

func TestRunner_MustRun_FailureIsFatal(t *testing.T) {
	t.Parallel()

	var got string
	r := &Runner{
		runFn:     func(*dig.Container) error { return errors.New("listen tcp: address in use") },
		logFatalf: func(format string, args ...interface{}) { got = fmt.Sprintf(format, args...) },
	}
	r.MustRun(dig.New())

	require.Equal(t, "run error: listen tcp: address in use", got)
}

func TestNewRunner_DefaultFields(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	require.NotNil(t, r)
	require.NotNil(t, r.logFatalf)
	require.Equal(t, fmt.Sprintf("%p", run), fmt.Sprintf("%p", r.runFn))
}

package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"time"

	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"food-delivery/internal/config"
	"food-delivery/internal/http/pprofserver"
	"food-delivery/internal/jobs"
	"food-delivery/internal/logx"
	"food-delivery/internal/transport/kafka"
)

// Runner starts a built container and blocks until its context is done.
type Runner struct {
	runFn     func(*dig.Container) error
	logFatalf func(string, ...interface{})
}

// NewRunner returns a Runner.
func NewRunner() *Runner {
	return &Runner{runFn: run, logFatalf: log.Fatalf}
}

// MustRun runs the service and exits the process on failure.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return
	case errors.Is(err, context.DeadlineExceeded):
		log.Println("startup aborted: startup timeout exceeded")
		return
	default:
		r.logFatalf("run error: %v", err)
	}
}

func run(container *dig.Container) error {
	return container.Invoke(serve)
}

type serveIn struct {
	dig.In
	Ctx       context.Context
	Config    *config.Config
	Logger    logx.Logger
	Server    *http.Server
	Resources *resources
	Consumer  *kafka.Consumer            `optional:"true"`
	Job       *jobs.PendingAssignmentJob `optional:"true"`
}

// serve runs the API server, the consumer, the sweep job and the pprof
// server until ctx is cancelled or one of them fails.
func serve(in serveIn) error {
	logger := in.Logger
	timeout := in.Config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		in.Resources.closeAll(ctx, logger)
		_ = logger.Sync()
	}()

	g, ctx := errgroup.WithContext(in.Ctx)

	servers := []*http.Server{in.Server}
	if pc := (pprofserver.Config{Addr: in.Config.Pprof.Addr, User: in.Config.Pprof.User, Pass: in.Config.Pprof.Pass}); pc.Enabled() {
		servers = append(servers, pprofserver.NewServer(pc))
	}
	for _, srv := range servers {
		g.Go(func() error {
			logger.Info("http server listening", logx.String("addr", srv.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdown(servers, logger, timeout)
		return nil
	})

	if in.Consumer != nil {
		g.Go(func() error {
			if err := in.Consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	if in.Job != nil {
		g.Go(func() error { return in.Job.Run(ctx) })
	}

	return g.Wait()
}

func shutdown(servers []*http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shCtx); err != nil {
			logger.Error("graceful shutdown error", logx.String("addr", srv.Addr), logx.Err(err))
		}
	}
}

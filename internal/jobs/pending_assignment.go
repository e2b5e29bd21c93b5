package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"food-delivery/internal/logx"
	"food-delivery/internal/service/delivery"
)

type sweeper interface {
	RetryPending(ctx context.Context) (delivery.RetryResult, error)
}

// PendingAssignmentJob retries courier assignment for PENDING deliveries on
// a cron schedule. A run still in progress makes the next tick a no-op.
type PendingAssignmentJob struct {
	sweeper sweeper
	spec    string
	timeout time.Duration
	logger  logx.Logger
}

// NewPendingAssignmentJob creates the job. spec uses standard cron syntax
// or descriptors such as "@every 1m".
func NewPendingAssignmentJob(s sweeper, spec string, timeout time.Duration, logger logx.Logger) *PendingAssignmentJob {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &PendingAssignmentJob{
		sweeper: s,
		spec:    spec,
		timeout: timeout,
		logger:  logger.With(logx.String("component", "pending_assignment_job")),
	}
}

// Run schedules the sweep and blocks until ctx is done, then waits for a
// running sweep to finish.
func (j *PendingAssignmentJob) Run(ctx context.Context) error {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(j.spec, func() { j.tick(ctx) }); err != nil {
		return fmt.Errorf("schedule %q: %w", j.spec, err)
	}

	c.Start()
	j.logger.Info("pending assignment job started", logx.String("spec", j.spec))

	<-ctx.Done()
	<-c.Stop().Done()
	j.logger.Info("pending assignment job stopped")
	return nil
}

func (j *PendingAssignmentJob) tick(parent context.Context) {
	ctx, cancel := context.WithTimeout(parent, j.timeout)
	defer cancel()

	res, err := j.sweeper.RetryPending(ctx)
	switch {
	case err == nil:
		if res.Checked > 0 {
			j.logger.Debug("pending assignment sweep done",
				logx.Int("checked", res.Checked),
				logx.Int("assigned", res.Assigned))
		}
	case errors.Is(err, context.Canceled):
	default:
		j.logger.Error("pending assignment sweep failed", logx.Err(err))
	}
}

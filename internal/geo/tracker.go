package geo

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"food-delivery/internal/domain"
	"food-delivery/internal/logx"
	"food-delivery/internal/workerpool"
)

type locationStore interface {
	Update(ctx context.Context, courierID int64, p domain.Point) error
	QueryNearby(ctx context.Context, center domain.Point, radiusKm float64, limit int) ([]Nearby, error)
	Remove(ctx context.Context, courierID int64) error
}

type submitter interface {
	Submit(t workerpool.Task) bool
}

const lockStripes = 64

// Tracker puts location writes on a dedicated pool so that a burst of
// position updates never waits on, or fails, the calling request.
//
// Writes for one courier reach the store in submission order: each task
// holds its courier's stripe lock and is skipped once a later write for the
// same courier has been submitted.
type Tracker struct {
	store    locationStore
	pool     submitter
	logger   logx.Logger
	failures prometheus.Counter
	timeout  time.Duration

	mu      sync.Mutex
	seq     uint64
	latest  map[int64]uint64
	stripes [lockStripes]sync.Mutex
}

// NewTracker wires a store to a pool.
func NewTracker(store locationStore, pool submitter, logger logx.Logger, failures prometheus.Counter, timeout time.Duration) *Tracker {
	if timeout <= 0 {
		timeout = time.Second
	}
	return &Tracker{
		store:    store,
		pool:     pool,
		logger:   logger,
		failures: failures,
		timeout:  timeout,
		latest:   make(map[int64]uint64),
	}
}

// submit queues op as the newest write for courierID.
func (t *Tracker) submit(courierID int64, op func(ctx context.Context)) bool {
	t.mu.Lock()
	t.seq++
	seq := t.seq
	prev, hadPrev := t.latest[courierID]
	t.latest[courierID] = seq
	t.mu.Unlock()

	ok := t.pool.Submit(func(ctx context.Context) {
		lock := &t.stripes[uint64(courierID)%lockStripes]
		lock.Lock()
		defer lock.Unlock()
		if !t.current(courierID, seq) {
			return
		}
		ctx, cancel := context.WithTimeout(ctx, t.timeout)
		defer cancel()
		op(ctx)
	})
	if !ok {
		// a rejected write must not supersede the one still queued
		t.mu.Lock()
		if t.latest[courierID] == seq {
			if hadPrev {
				t.latest[courierID] = prev
			} else {
				delete(t.latest, courierID)
			}
		}
		t.mu.Unlock()
	}
	return ok
}

func (t *Tracker) current(courierID int64, seq uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.latest[courierID] != seq {
		return false
	}
	delete(t.latest, courierID)
	return true
}

// Track records a position in the background. Failures are logged only.
func (t *Tracker) Track(courierID int64, p domain.Point) {
	ok := t.submit(courierID, func(ctx context.Context) {
		if err := t.store.Update(ctx, courierID, p); err != nil {
			t.fail("location update failed", courierID, err)
		}
	})
	if !ok {
		t.fail("location update dropped", courierID, nil)
	}
}

// Forget removes a position in the background.
func (t *Tracker) Forget(courierID int64) {
	ok := t.submit(courierID, func(ctx context.Context) {
		if err := t.store.Remove(ctx, courierID); err != nil {
			t.fail("location remove failed", courierID, err)
		}
	})
	if !ok {
		t.fail("location remove dropped", courierID, nil)
	}
}

// Nearby queries the store synchronously.
func (t *Tracker) Nearby(ctx context.Context, center domain.Point, radiusKm float64, limit int) ([]Nearby, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.store.QueryNearby(ctx, center, radiusKm, limit)
}

func (t *Tracker) fail(msg string, courierID int64, err error) {
	if t.failures != nil {
		t.failures.Inc()
	}
	t.logger.Warn(msg, logx.Int64("courier_id", courierID), logx.Err(err))
}

package workerpool

import (
	"context"
	"errors"
	"sync"

	"food-delivery/internal/logx"
)

// Task is a unit of work. ctx is cancelled when the pool is force-stopped.
type Task func(ctx context.Context)

// ErrStopped is returned by Stop when called twice.
var ErrStopped = errors.New("workerpool: stopped")

// Pool is a fixed set of workers reading from a bounded queue. Submit never
// blocks: when the queue is full the task is rejected.
type Pool struct {
	name   string
	tasks  chan Task
	logger logx.Logger

	mu     sync.RWMutex
	closed bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New starts workers goroutines with a queue of queueSize.
func New(name string, workers, queueSize int, logger logx.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		name:   name,
		tasks:  make(chan Task, queueSize),
		logger: logger.With(logx.String("pool", name)),
		ctx:    ctx,
		cancel: cancel,
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for t := range p.tasks {
		p.run(t)
	}
}

func (p *Pool) run(t Task) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("worker task panicked", logx.Any("panic", r))
		}
	}()
	t(p.ctx)
}

// Submit enqueues t. It returns false if the queue is full or the pool is stopped.
func (p *Pool) Submit(t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- t:
		return true
	default:
		return false
	}
}

// Stop stops accepting tasks and waits for queued ones. If ctx expires first
// the running tasks see their context cancelled.
func (p *Pool) Stop(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return ErrStopped
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-done
		return ctx.Err()
	}
}

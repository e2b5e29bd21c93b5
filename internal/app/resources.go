package app

import (
	"context"
	"sync"

	"food-delivery/internal/logx"
)

type closer struct {
	name string
	fn   func(context.Context) error
}

// resources collects everything a container opened. Providers run after
// their dependencies, so closing in reverse order releases dependents first.
type resources struct {
	mu      sync.Mutex
	closers []closer
}

func newResources() *resources { return &resources{} }

func (r *resources) add(name string, fn func(context.Context) error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, closer{name: name, fn: fn})
}

func (r *resources) closeAll(ctx context.Context, logger logx.Logger) {
	r.mu.Lock()
	cs := r.closers
	r.closers = nil
	r.mu.Unlock()

	for i := len(cs) - 1; i >= 0; i-- {
		if err := cs[i].fn(ctx); err != nil {
			logger.Error("close failed", logx.String("resource", cs[i].name), logx.Err(err))
		}
	}
}

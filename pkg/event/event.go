// Package event dispatches domain events to registered listeners.
//
// Dispatch runs listeners inline and joins their errors. DispatchAsync hands
// each listener to a worker pool with a context detached from the request, so
// side effects of a committed write still run after the client goes away.
package event

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/workerpool"
)

// Listener handles one event payload.
type Listener func(ctx context.Context, payload any) error

type Dispatcher struct {
	mu        sync.RWMutex
	listeners map[string][]Listener
	pool      *workerpool.Pool
}

// New returns a dispatcher. pool may be nil, in which case DispatchAsync
// falls back to inline dispatch.
func New(pool *workerpool.Pool) *Dispatcher {
	return &Dispatcher{listeners: map[string][]Listener{}, pool: pool}
}

func (d *Dispatcher) Listen(name string, l Listener) {
	d.mu.Lock()
	d.listeners[name] = append(d.listeners[name], l)
	d.mu.Unlock()
}

func (d *Dispatcher) Has(name string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.listeners[name]) > 0
}

func (d *Dispatcher) snapshot(name string) []Listener {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]Listener(nil), d.listeners[name]...)
}

// Dispatch calls every listener in registration order.
func (d *Dispatcher) Dispatch(ctx context.Context, name string, payload any) error {
	var errs []error
	for _, l := range d.snapshot(name) {
		if err := safeCall(ctx, l, payload); err != nil {
			errs = append(errs, fmt.Errorf("event %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// DispatchAsync schedules every listener on the pool. Listener failures are
// logged.
func (d *Dispatcher) DispatchAsync(ctx context.Context, name string, payload any) {
	if d == nil {
		return
	}
	if d.pool == nil {
		if err := d.Dispatch(ctx, name, payload); err != nil {
			logger.WithCtx(ctx).Error("event: listener failed", "event", name, "error", err)
		}
		return
	}

	bg := context.WithoutCancel(ctx)
	for _, l := range d.snapshot(name) {
		l := l
		err := d.pool.SubmitWait(func() {
			if err := safeCall(bg, l, payload); err != nil {
				logger.WithCtx(bg).Error("event: listener failed", "event", name, "error", err)
			}
		})
		if err != nil {
			logger.WithCtx(ctx).Warn("event: dropped", "event", name, "error", err)
		}
	}
}

func safeCall(ctx context.Context, l Listener, payload any) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()
	return l(ctx, payload)
}

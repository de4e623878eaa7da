// Package queue runs background jobs with retries.
//
// Jobs are serialised to JSON with their registered name and pushed to a
// Driver (in-process channel or Redis list). Factories registered with
// Register build an empty job carrying its dependencies; the worker decodes
// the payload into it and calls Handle.
//
//	q := queue.New(queue.NewMemoryDriver(1000), queue.Options{MaxRetry: 3})
//	q.Register("mail.order_confirmation", func() queue.Job { return jobs.NewOrderConfirmation(mailer, orders) })
//	q.Dispatch(ctx, &jobs.OrderConfirmation{OrderID: 42})
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
)

// Job is a unit of background work.
type Job interface {
	Handle(ctx context.Context) error
}

// Named jobs control the name they are registered and dispatched under.
// Other jobs use their Go type name.
type Named interface {
	JobName() string
}

// Driver stores serialised jobs.
type Driver interface {
	Push(ctx context.Context, payload []byte) error
	// Pop blocks until a payload is ready. A nil payload with a nil error
	// means the wait timed out.
	Pop(ctx context.Context) ([]byte, error)
}

// DelayedDriver can hold a payload until its delay expires.
type DelayedDriver interface {
	PushDelayed(ctx context.Context, payload []byte, delay time.Duration) error
}

// Runner is implemented by drivers that need a background loop.
type Runner interface {
	Run(ctx context.Context)
}

var ErrUnknownJob = errors.New("queue: unknown job type")

type Options struct {
	MaxRetry int
	Backoff  time.Duration
	// DB, when set, persists exhausted jobs to the failed_jobs table.
	DB *gorm.DB
}

type Manager struct {
	driver Driver
	opts   Options

	mu       sync.RWMutex
	registry map[string]func() Job
	failed   []FailedJob

	wg sync.WaitGroup
}

func New(d Driver, opts Options) *Manager {
	if opts.MaxRetry <= 0 {
		opts.MaxRetry = 3
	}
	if opts.Backoff <= 0 {
		opts.Backoff = time.Second
	}
	return &Manager{driver: d, opts: opts, registry: map[string]func() Job{}}
}

// Register makes a job type decodable by name.
func (m *Manager) Register(name string, factory func() Job) {
	m.mu.Lock()
	m.registry[name] = factory
	m.mu.Unlock()
}

type envelope struct {
	Type     string          `json:"type"`
	Payload  json.RawMessage `json:"payload"`
	QueuedAt time.Time       `json:"queued_at"`
}

func NameOf(job Job) string {
	if n, ok := job.(Named); ok {
		return n.JobName()
	}
	return fmt.Sprintf("%T", job)
}

func encode(job Job) ([]byte, error) {
	name := NameOf(job)
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("queue: marshal %s: %w", name, err)
	}
	return json.Marshal(envelope{Type: name, Payload: payload, QueuedAt: time.Now().UTC()})
}

// Dispatch queues job for immediate processing.
func (m *Manager) Dispatch(ctx context.Context, job Job) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	return m.driver.Push(ctx, raw)
}

// DispatchAfter queues job once delay has passed. Drivers without delayed
// support hold the job in a timer.
func (m *Manager) DispatchAfter(ctx context.Context, job Job, delay time.Duration) error {
	raw, err := encode(job)
	if err != nil {
		return err
	}
	if dd, ok := m.driver.(DelayedDriver); ok {
		return dd.PushDelayed(ctx, raw, delay)
	}
	bg := context.WithoutCancel(ctx)
	time.AfterFunc(delay, func() {
		if err := m.driver.Push(bg, raw); err != nil {
			logger.Error("queue: delayed dispatch failed", "type", NameOf(job), "error", err)
		}
	})
	return nil
}

// Start launches n workers that stop when ctx is cancelled. Wait blocks
// until they have returned.
func (m *Manager) Start(ctx context.Context, n int) {
	if n <= 0 {
		n = 1
	}
	if r, ok := m.driver.(Runner); ok {
		m.wg.Add(1)
		go func() {
			defer m.wg.Done()
			r.Run(ctx)
		}()
	}
	m.wg.Add(n)
	for i := 0; i < n; i++ {
		go m.work(ctx)
	}
	logger.Info("queue: workers started", "count", n)
}

func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) work(ctx context.Context) {
	defer m.wg.Done()
	for {
		raw, err := m.driver.Pop(ctx)
		if ctx.Err() != nil {
			return
		}
		if err != nil {
			logger.Warn("queue: pop failed", "error", err)
			if !sleep(ctx, 500*time.Millisecond) {
				return
			}
			continue
		}
		if raw == nil {
			continue
		}
		if err := m.Process(ctx, raw); err != nil {
			logger.Error("queue: job dropped", "error", err)
		}
	}
}

// Process decodes and runs one payload, retrying up to MaxRetry times.
func (m *Manager) Process(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("queue: bad envelope: %w", err)
	}

	m.mu.RLock()
	factory, ok := m.registry[env.Type]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, env.Type)
	}

	job := factory()
	if err := json.Unmarshal(env.Payload, job); err != nil {
		return fmt.Errorf("queue: decode %s: %w", env.Type, err)
	}

	start := time.Now()
	var lastErr error
	for attempt := 1; attempt <= m.opts.MaxRetry; attempt++ {
		if lastErr = job.Handle(ctx); lastErr == nil {
			metrics.RecordQueueJob(env.Type, "ok", start)
			return nil
		}
		logger.Warn("queue: job failed", "type", env.Type, "attempt", attempt, "error", lastErr)
		if attempt < m.opts.MaxRetry && !sleep(ctx, time.Duration(attempt)*m.opts.Backoff) {
			break
		}
	}

	metrics.RecordQueueJob(env.Type, "failed", start)
	m.recordFailure(ctx, env.Type, env.Payload, lastErr, m.opts.MaxRetry)
	logger.Error("queue: job exhausted retries", "type", env.Type, "error", lastErr)
	return nil
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

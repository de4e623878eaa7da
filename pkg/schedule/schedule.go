// Package schedule runs recurring tasks on an interval or a five-field cron
// expression.
//
//	s := schedule.New()
//	s.Every("stock.refresh_gauge", time.Hour, refreshGauge)
//	s.Cron("stock.daily_digest", "0 8 * * *", sendDigest)
//	go s.Run(ctx)
package schedule

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

type Task func(ctx context.Context) error

type entry struct {
	name     string
	interval time.Duration
	cron     *cronExpr
	task     Task

	mu      sync.Mutex
	lastRun time.Time
	running bool
}

type Scheduler struct {
	mu      sync.Mutex
	entries []*entry
	wg      sync.WaitGroup
	tick    time.Duration
}

func New() *Scheduler { return &Scheduler{tick: time.Second} }

// Every runs task once at start and then every interval.
func (s *Scheduler) Every(name string, interval time.Duration, task Task) {
	s.add(&entry{name: name, interval: interval, task: task})
}

// Cron runs task whenever the wall clock matches expr
// ("min hour dom month dow"; fields accept *, n, a-b, */n and lists).
func (s *Scheduler) Cron(name, expr string, task Task) error {
	c, err := parseCron(expr)
	if err != nil {
		return fmt.Errorf("schedule: %s: %w", name, err)
	}
	s.add(&entry{name: name, cron: c, task: task})
	return nil
}

func (s *Scheduler) add(e *entry) {
	s.mu.Lock()
	s.entries = append(s.entries, e)
	s.mu.Unlock()
}

// List describes the registered tasks, sorted by name.
func (s *Scheduler) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.entries))
	for _, e := range s.entries {
		freq := e.interval.String()
		if e.cron != nil {
			freq = e.cron.raw
		}
		out = append(out, fmt.Sprintf("%-28s %s", e.name, freq))
	}
	sort.Strings(out)
	return out
}

// Run dispatches due tasks until ctx is done, then waits for running tasks.
func (s *Scheduler) Run(ctx context.Context) {
	logger.Info("schedule: started", "tasks", len(s.List()))
	t := time.NewTicker(s.tick)
	defer t.Stop()

	s.RunDue(ctx, time.Now())
	for {
		select {
		case <-ctx.Done():
			s.wg.Wait()
			logger.Info("schedule: stopped")
			return
		case now := <-t.C:
			s.RunDue(ctx, now)
		}
	}
}

// RunDue starts every task that is due at now. A task still running from a
// previous dispatch is skipped.
func (s *Scheduler) RunDue(ctx context.Context, now time.Time) int {
	s.mu.Lock()
	current := append([]*entry(nil), s.entries...)
	s.mu.Unlock()

	started := 0
	for _, e := range current {
		if s.dispatch(ctx, e, now) {
			started++
		}
	}
	return started
}

// Wait blocks until dispatched tasks finish.
func (s *Scheduler) Wait() { s.wg.Wait() }

func (s *Scheduler) dispatch(ctx context.Context, e *entry, now time.Time) bool {
	e.mu.Lock()
	if e.running || !e.due(now) {
		e.mu.Unlock()
		return false
	}
	e.running = true
	e.lastRun = now
	e.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error("schedule: task panicked", "task", e.name, "panic", fmt.Sprint(r))
			}
			e.mu.Lock()
			e.running = false
			e.mu.Unlock()
		}()

		start := time.Now()
		if err := e.task(ctx); err != nil {
			logger.Error("schedule: task failed", "task", e.name, "error", err)
			return
		}
		logger.Debug("schedule: task done", "task", e.name, "duration", time.Since(start).String())
	}()
	return true
}

// due must be called with e.mu held.
func (e *entry) due(now time.Time) bool {
	if e.cron != nil {
		minute := now.Truncate(time.Minute)
		return e.cron.match(now) && !e.lastRun.Truncate(time.Minute).Equal(minute)
	}
	return e.lastRun.IsZero() || now.Sub(e.lastRun) >= e.interval
}

type cronExpr struct {
	raw    string
	fields [5]map[int]bool
}

var cronBounds = [5][2]int{{0, 59}, {0, 23}, {1, 31}, {1, 12}, {0, 6}}

func parseCron(expr string) (*cronExpr, error) {
	parts := strings.Fields(expr)
	if len(parts) != 5 {
		return nil, fmt.Errorf("cron %q: want 5 fields", expr)
	}
	c := &cronExpr{raw: expr}
	for i, p := range parts {
		set, err := parseField(p, cronBounds[i][0], cronBounds[i][1])
		if err != nil {
			return nil, fmt.Errorf("cron %q: %w", expr, err)
		}
		c.fields[i] = set
	}
	return c, nil
}

func parseField(field string, lo, hi int) (map[int]bool, error) {
	set := map[int]bool{}
	for _, part := range strings.Split(field, ",") {
		step := 1
		if base, s, ok := strings.Cut(part, "/"); ok {
			n, err := strconv.Atoi(s)
			if err != nil || n <= 0 {
				return nil, fmt.Errorf("bad step %q", part)
			}
			step, part = n, base
		}

		from, to := lo, hi
		switch {
		case part == "*":
		case strings.Contains(part, "-"):
			a, b, _ := strings.Cut(part, "-")
			var err1, err2 error
			from, err1 = strconv.Atoi(a)
			to, err2 = strconv.Atoi(b)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("bad range %q", part)
			}
		default:
			n, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("bad value %q", part)
			}
			from, to = n, n
		}
		if from < lo || to > hi || from > to {
			return nil, fmt.Errorf("%q out of range %d-%d", part, lo, hi)
		}
		for v := from; v <= to; v += step {
			set[v] = true
		}
	}
	return set, nil
}

func (c *cronExpr) match(t time.Time) bool {
	vals := [5]int{t.Minute(), t.Hour(), t.Day(), int(t.Month()), int(t.Weekday())}
	for i, v := range vals {
		if !c.fields[i][v] {
			return false
		}
	}
	return true
}

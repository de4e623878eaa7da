// Package seeders fills an empty database with the admin account, the
// category tree, collections and a few sample products.
//
// Seeders register themselves from init and are idempotent: rows are
// matched by e-mail or slug and existing ones are left alone.
package seeders

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

// SeederFunc inserts one family of rows.
type SeederFunc func(ctx context.Context, db *gorm.DB) error

type seederEntry struct {
	name string
	fn   SeederFunc
}

var (
	mu      sync.Mutex
	entries []seederEntry
)

// Register adds a seeder. Seeders run in registration order.
func Register(name string, fn SeederFunc) {
	mu.Lock()
	defer mu.Unlock()
	entries = append(entries, seederEntry{name: name, fn: fn})
}

// Names lists the registered seeders in run order.
func Names() []string {
	mu.Lock()
	defer mu.Unlock()
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.name
	}
	return out
}

// RunAll runs every seeder, stopping at the first failure.
func RunAll(ctx context.Context, db *gorm.DB) error {
	mu.Lock()
	current := append([]seederEntry(nil), entries...)
	mu.Unlock()

	for _, e := range current {
		start := time.Now()
		if err := e.fn(ctx, db.WithContext(ctx)); err != nil {
			return fmt.Errorf("seeder %q: %w", e.name, err)
		}
		logger.Info("seeder: done", "name", e.name, "duration", time.Since(start))
	}
	return nil
}

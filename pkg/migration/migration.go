// Package migration applies named schema changes in batches and records
// them in the schema_migrations table so rollback can undo the last batch.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
)

// Migration is one named, reversible change. Names are timestamp-prefixed
// and run in lexical order.
type Migration struct {
	Name string
	Up   func(tx *gorm.DB) error
	Down func(tx *gorm.DB) error
}

type record struct {
	ID    uint      `gorm:"primaryKey"`
	Name  string    `gorm:"uniqueIndex;size:255;not null"`
	Batch int       `gorm:"not null"`
	RunAt time.Time `gorm:"not null"`
}

func (record) TableName() string { return "schema_migrations" }

// Status is one row of `migrate:status`.
type Status struct {
	Name  string
	Ran   bool
	Batch int
}

type Runner struct {
	db         *gorm.DB
	migrations []Migration
}

func New(db *gorm.DB, migrations []Migration) *Runner {
	ms := append([]Migration(nil), migrations...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Name < ms[j].Name })
	return &Runner{db: db, migrations: ms}
}

func (r *Runner) ensure(ctx context.Context) error {
	return r.db.WithContext(ctx).AutoMigrate(&record{})
}

func (r *Runner) ran(ctx context.Context) (map[string]record, error) {
	var rows []record
	if err := r.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]record, len(rows))
	for _, row := range rows {
		out[row.Name] = row
	}
	return out, nil
}

func (r *Runner) lastBatch(ctx context.Context) (int, error) {
	var batch int
	err := r.db.WithContext(ctx).Model(&record{}).Select("COALESCE(MAX(batch), 0)").Row().Scan(&batch)
	return batch, err
}

// Up runs every pending migration in one new batch and returns their names.
func (r *Runner) Up(ctx context.Context) ([]string, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, fmt.Errorf("migration: ensure table: %w", err)
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil {
		return nil, err
	}
	batch++

	var applied []string
	for _, m := range r.migrations {
		if _, ok := done[m.Name]; ok {
			continue
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Up(tx); err != nil {
				return err
			}
			return tx.Create(&record{Name: m.Name, Batch: batch, RunAt: time.Now().UTC()}).Error
		})
		if err != nil {
			return applied, fmt.Errorf("migration: %s up: %w", m.Name, err)
		}
		logger.Info("migration: applied", "name", m.Name, "batch", batch)
		applied = append(applied, m.Name)
	}
	return applied, nil
}

// Rollback undoes the most recent batch in reverse order.
func (r *Runner) Rollback(ctx context.Context) ([]string, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	batch, err := r.lastBatch(ctx)
	if err != nil || batch == 0 {
		return nil, err
	}

	var rows []record
	if err := r.db.WithContext(ctx).Where("batch = ?", batch).Order("name DESC").Find(&rows).Error; err != nil {
		return nil, err
	}
	byName := make(map[string]Migration, len(r.migrations))
	for _, m := range r.migrations {
		byName[m.Name] = m
	}

	var reverted []string
	for _, row := range rows {
		m, ok := byName[row.Name]
		if !ok || m.Down == nil {
			return reverted, fmt.Errorf("migration: %s cannot be rolled back", row.Name)
		}
		err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := m.Down(tx); err != nil {
				return err
			}
			return tx.Delete(&record{}, row.ID).Error
		})
		if err != nil {
			return reverted, fmt.Errorf("migration: %s down: %w", row.Name, err)
		}
		logger.Info("migration: rolled back", "name", row.Name)
		reverted = append(reverted, row.Name)
	}
	return reverted, nil
}

// Reset rolls back every batch.
func (r *Runner) Reset(ctx context.Context) error {
	for {
		reverted, err := r.Rollback(ctx)
		if err != nil {
			return err
		}
		if len(reverted) == 0 {
			return nil
		}
	}
}

func (r *Runner) Status(ctx context.Context) ([]Status, error) {
	if err := r.ensure(ctx); err != nil {
		return nil, err
	}
	done, err := r.ran(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Status, 0, len(r.migrations))
	for _, m := range r.migrations {
		rec, ok := done[m.Name]
		out = append(out, Status{Name: m.Name, Ran: ok, Batch: rec.Batch})
	}
	return out, nil
}

var ErrDuplicate = errors.New("migration: duplicate name")

// Validate rejects empty or repeated names and missing Up functions.
func Validate(ms []Migration) error {
	seen := map[string]bool{}
	for _, m := range ms {
		if m.Name == "" || m.Up == nil {
			return fmt.Errorf("migration: %q is incomplete", m.Name)
		}
		if seen[m.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicate, m.Name)
		}
		seen[m.Name] = true
	}
	return nil
}

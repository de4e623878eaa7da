package database

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/shashiranjanraj/pehnawa/pkg/logger"
	"github.com/shashiranjanraj/pehnawa/pkg/metrics"
)

const startKey = "pehnawa:query_start"

// RegisterMetrics times every create/query/update/delete/row/raw statement
// into metrics.DBQueryDuration.
func RegisterMetrics(db *gorm.DB) error {
	cb := db.Callback()

	var errs []error
	add := func(err error) { errs = append(errs, err) }

	add(cb.Create().Before("gorm:create").Register("metrics:before_create", markStart))
	add(cb.Create().After("gorm:create").Register("metrics:after_create", observe("insert")))
	add(cb.Query().Before("gorm:query").Register("metrics:before_query", markStart))
	add(cb.Query().After("gorm:query").Register("metrics:after_query", observe("select")))
	add(cb.Update().Before("gorm:update").Register("metrics:before_update", markStart))
	add(cb.Update().After("gorm:update").Register("metrics:after_update", observe("update")))
	add(cb.Delete().Before("gorm:delete").Register("metrics:before_delete", markStart))
	add(cb.Delete().After("gorm:delete").Register("metrics:after_delete", observe("delete")))
	add(cb.Row().Before("gorm:row").Register("metrics:before_row", markStart))
	add(cb.Row().After("gorm:row").Register("metrics:after_row", observe("row")))
	add(cb.Raw().Before("gorm:raw").Register("metrics:before_raw", markStart))
	add(cb.Raw().After("gorm:raw").Register("metrics:after_raw", observe("raw")))

	return errors.Join(errs...)
}

func markStart(db *gorm.DB) {
	db.InstanceSet(startKey, time.Now())
}

func observe(op string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		v, ok := db.InstanceGet(startKey)
		if !ok {
			return
		}
		start, ok := v.(time.Time)
		if !ok {
			return
		}
		table := "unknown"
		if db.Statement != nil && db.Statement.Table != "" {
			table = db.Statement.Table
		}
		metrics.ObserveDBQuery(op, table, start)
	}
}

// gormLogger routes GORM's own logging through the request-scoped slog
// logger. Only errors and slow statements are emitted.
type gormLogger struct {
	slow  time.Duration
	level gormlogger.LogLevel
}

// NewGormLogger returns a gorm logger.Interface backed by pkg/logger.
func NewGormLogger(slow time.Duration) gormlogger.Interface {
	return &gormLogger{slow: slow, level: gormlogger.Warn}
}

func (l *gormLogger) LogMode(level gormlogger.LogLevel) gormlogger.Interface {
	next := *l
	next.level = level
	return &next
}

func (l *gormLogger) Info(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Info {
		logger.WithCtx(ctx).Info(msg, "args", args)
	}
}

func (l *gormLogger) Warn(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Warn {
		logger.WithCtx(ctx).Warn(msg, "args", args)
	}
}

func (l *gormLogger) Error(ctx context.Context, msg string, args ...interface{}) {
	if l.level >= gormlogger.Error {
		logger.WithCtx(ctx).Error(msg, "args", args)
	}
}

func (l *gormLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= gormlogger.Silent {
		return
	}

	elapsed := time.Since(begin)
	switch {
	case err != nil && !errors.Is(err, gorm.ErrRecordNotFound) && l.level >= gormlogger.Error:
		sql, rows := fc()
		logger.WithCtx(ctx).Error("db query failed", "sql", sql, "rows", rows, "elapsed", elapsed, "error", err)
	case l.slow > 0 && elapsed > l.slow && l.level >= gormlogger.Warn:
		sql, rows := fc()
		logger.WithCtx(ctx).Warn("slow query", "sql", sql, "rows", rows, "elapsed", elapsed)
	case l.level >= gormlogger.Info:
		sql, rows := fc()
		logger.WithCtx(ctx).Log(ctx, slog.LevelDebug, "db query", "sql", sql, "rows", rows, "elapsed", elapsed)
	}
}

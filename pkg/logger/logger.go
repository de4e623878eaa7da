// Package logger provides the process-wide slog logger.
//
// Handlers pull a request-scoped logger with WithCtx; the Logger middleware
// injects one pre-tagged with request_id, so every line a request produces
// can be correlated:
//
//	log := logger.WithCtx(r.Context())
//	log.Info("order placed", "order_number", o.OrderNumber)
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"

	"github.com/shashiranjanraj/pehnawa/config"
)

var (
	// L is the base logger. Prefer WithCtx inside request handlers.
	L *slog.Logger

	mu   sync.Mutex
	base slog.Handler
)

func init() {
	base = newConsoleHandler(config.IsProduction())
	L = slog.New(base)
	slog.SetDefault(L)
}

func newConsoleHandler(production bool) slog.Handler {
	if production {
		return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
}

// Attach fans every future record out to h in addition to the console.
// Used at boot to add the Mongo sink.
func Attach(h slog.Handler) {
	mu.Lock()
	defer mu.Unlock()

	L = slog.New(NewMultiHandler(base, h))
	slog.SetDefault(L)
}

// Reset drops attached sinks and returns to console-only output.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	L = slog.New(base)
	slog.SetDefault(L)
}

type ctxKey struct{}

// WithCtx returns the request-scoped logger stored in ctx, or L.
func WithCtx(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return L
	}
	if log, ok := ctx.Value(ctxKey{}).(*slog.Logger); ok && log != nil {
		return log
	}
	return L
}

// InjectLogger stores log in ctx for WithCtx to find.
func InjectLogger(ctx context.Context, log *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

func Debug(msg string, args ...any) { L.Debug(msg, args...) }
func Info(msg string, args ...any)  { L.Info(msg, args...) }
func Warn(msg string, args ...any)  { L.Warn(msg, args...) }
func Error(msg string, args ...any) { L.Error(msg, args...) }

package bootstrap_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/pehnawa/database/migrations"
	"github.com/shashiranjanraj/pehnawa/internal/bootstrap"
	"github.com/shashiranjanraj/pehnawa/pkg/migration"
)

func TestNewWiresTheApp(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_DSN", "file:bootstrap_test?mode=memory&cache=shared")
	t.Setenv("STORAGE_DISK", "local")
	t.Setenv("STORAGE_LOCAL_ROOT", t.TempDir())
	t.Setenv("CACHE_ENABLED", "false")
	t.Setenv("QUEUE_DRIVER", "memory")
	t.Setenv("MAIL_DRIVER", "log")
	t.Setenv("PAYMENT_DRIVER", "local")
	t.Setenv("LOG_MONGO_URI", "")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	ctx, cancel := context.WithCancel(context.Background())
	app, err := bootstrap.New(ctx)
	require.NoError(t, err)
	defer app.Close(context.Background())

	_, err = migration.New(app.DB, migrations.All()).Up(ctx)
	require.NoError(t, err)

	app.Start(ctx)

	for _, path := range []string{"/api/health", "/api/products", "/api/categories", "/metrics"} {
		rec := httptest.NewRecorder()
		app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	app.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/admin/dashboard", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	tasks := app.Scheduler.List()
	require.Len(t, tasks, 2)
	assert.Contains(t, tasks[0], "stock.daily_digest")
	assert.Contains(t, tasks[1], "stock.refresh_gauge")

	cancel()
	app.Wait()
}

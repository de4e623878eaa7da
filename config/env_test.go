package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFromFiles_Precedence(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "app.json")
	yamlPath := filepath.Join(dir, "app.yaml")
	envPath := filepath.Join(dir, ".env")

	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"app_port":"7000","shipping_fee":99,"mail_driver":"smtp"}`), 0o644))
	require.NoError(t, os.WriteFile(yamlPath, []byte("app_port: \"7100\"\ncache_enabled: true\n"), 0o644))
	require.NoError(t, os.WriteFile(envPath, []byte("APP_PORT=7200\nJWT_SECRET=\"s3cret\"\n# comment\n"), 0o644))

	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	require.NoError(t, loadFromFiles(jsonPath, yamlPath, envPath))

	assert.Equal(t, "7200", get("APP_PORT", ""))
	assert.Equal(t, "s3cret", get("JWT_SECRET", ""))
	assert.Equal(t, "99", get("SHIPPING_FEE", ""))
	assert.Equal(t, "true", get("CACHE_ENABLED", ""))
	assert.Equal(t, "smtp", get("MAIL_DRIVER", ""))
}

func TestLoadFromFiles_MissingFilesAreIgnored(t *testing.T) {
	dir := t.TempDir()
	t.Cleanup(func() {
		mu.Lock()
		values = defaultValues()
		mu.Unlock()
	})

	err := loadFromFiles(filepath.Join(dir, "a.json"), filepath.Join(dir, "a.yaml"), filepath.Join(dir, ".env"))
	require.NoError(t, err)
	assert.Equal(t, defaultAppPort, get("APP_PORT", ""))
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("FREE_SHIPPING_THRESHOLD", "5000")
	t.Setenv("JWT_ACCESS_TTL", "15m")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")

	assert.Equal(t, int64(5000), FreeShippingThreshold())
	assert.Equal(t, 15*time.Minute, JWTAccessTTL())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, CORSOrigins())
}

func TestTypedFallbacks(t *testing.T) {
	t.Setenv("QUEUE_WORKERS", "many")
	t.Setenv("JWT_REFRESH_TTL", "soon")

	assert.Equal(t, 4, QueueWorkers())
	assert.Equal(t, 7*24*time.Hour, JWTRefreshTTL())
	assert.Equal(t, int64(150), ShippingFee())
}

func TestDatabaseDriver_Unknown(t *testing.T) {
	t.Setenv("DB_DRIVER", "oracle")
	assert.Equal(t, "sqlite", DatabaseDriver())
}

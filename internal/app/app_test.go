package app

import (
	"context"
	nethttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/xapi-mis-backend/internal/data/db"
	"github.com/yungbote/xapi-mis-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("PORT", "")
	t.Setenv("DB_DRIVER", "")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, ":8080", cfg.Address())
	assert.Equal(t, "xapi-mis.db", cfg.SQLitePath)
	assert.Equal(t, 30*time.Second, cfg.DashboardCacheTTL)
	assert.Equal(t, 15*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.WriteTimeout)
	assert.Equal(t, "xapi-mis", cfg.Otel.ServiceName)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", ":9090")
	t.Setenv("DB_DRIVER", " SQLite ")
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/x")
	t.Setenv("DASHBOARD_CACHE_TTL", "2m")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example.com,https://b.example.com")
	t.Setenv("OTEL_ENABLED", "true")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, db.DriverSQLite, cfg.DBDriver)
	assert.Equal(t, 2*time.Minute, cfg.DashboardCacheTTL)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowOrigins)
	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, "postgres://u:p@db:5432/x", cfg.DBOptions().Postgres.DSN)
}

func TestLoadConfigRejectsBadDuration(t *testing.T) {
	t.Setenv("DASHBOARD_CACHE_TTL", "soon")
	_, err := LoadConfig()
	require.Error(t, err)
}

func TestNewServesOverSQLite(t *testing.T) {
	t.Setenv("DB_DRIVER", db.DriverSQLite)
	t.Setenv("SQLITE_PATH", db.MemoryPath)
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "false")
	cfg, err := LoadConfig()
	require.NoError(t, err)

	a, err := New(context.Background(), cfg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/health-check", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(nethttp.MethodGet, "/dashboard", nil))
	assert.Equal(t, nethttp.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalLearners":0`)
}

func TestRunRequiresInitializedApp(t *testing.T) {
	var a *App
	require.Error(t, a.Run(context.Background()))
}

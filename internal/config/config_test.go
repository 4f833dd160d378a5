package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	require.Equal(t, "helpdesk-service", cfg.App.Name)
	require.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
	require.Equal(t, 30*time.Second, cfg.App.RequestTimeout())
	require.Equal(t, 50, cfg.Pagination.DefaultPageSize)
	require.Equal(t, 100, cfg.Pagination.MaxPageSize)
	require.True(t, cfg.Postgres.RunMigrations)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("APP_PORT", "9090")
	t.Setenv("PAGINATION_MAX_PAGE_SIZE", "25")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "false")
	t.Setenv("REDIS_TICKET_TTL_SECONDS", "120")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "9090", cfg.App.Port)
	require.Equal(t, 25, cfg.Pagination.MaxPageSize)
	require.False(t, cfg.Postgres.RunMigrations)
	require.Equal(t, 2*time.Minute, cfg.Redis.TicketTTL())
}

func TestLoadRejectsBadRedisDB(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")

	_, err := Load()
	require.Error(t, err)
}

func TestEnvHelpersFallBackOnGarbage(t *testing.T) {
	t.Setenv("HTTP_REQUEST_TIMEOUT_SECONDS", "soon")
	t.Setenv("POSTGRES_RUN_MIGRATIONS", "maybe")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, 30, cfg.App.RequestTimeoutSeconds)
	require.True(t, cfg.Postgres.RunMigrations)
}

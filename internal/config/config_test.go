package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"marketplace/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "postgres://u:p@localhost/market?sslmode=disable")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:8080", cfg.ServerAddress)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 15*time.Second, cfg.ReadTimeoutDuration())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "postgres://localhost/market")
	t.Setenv("MARKETPLACE_SERVER_ADDRESS", "127.0.0.1:9000")
	t.Setenv("MARKETPLACE_LOG_LEVEL", "debug")
	t.Setenv("MARKETPLACE_LOG_PRETTY", "true")
	t.Setenv("MARKETPLACE_CORS_ALLOWED_ORIGINS", "http://localhost:4200, https://example.com")
	t.Setenv("MARKETPLACE_WRITE_TIMEOUT", "30")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ServerAddress)
	require.Equal(t, "debug", cfg.LogLevel)
	require.True(t, cfg.LogPretty)
	require.Equal(t, []string{"http://localhost:4200", "https://example.com"}, cfg.CORSAllowedOrigins)
	require.Equal(t, 30*time.Second, cfg.WriteTimeoutDuration())
}

func TestLoadRequiresPostgresConn(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownLogLevel(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "postgres://localhost/market")
	t.Setenv("MARKETPLACE_LOG_LEVEL", "loud")

	_, err := config.Load()
	require.Error(t, err)
}

func TestLoadSplitsCORSOrigins(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "postgres://localhost/market")
	t.Setenv("MARKETPLACE_CORS_ALLOWED_ORIGINS", "http://a.test,http://b.test,")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.CORSAllowedOrigins)
}

func TestLoadRejectsEmptyCORSOrigins(t *testing.T) {
	t.Setenv("MARKETPLACE_POSTGRES_CONN", "postgres://localhost/market")
	t.Setenv("MARKETPLACE_CORS_ALLOWED_ORIGINS", " , ")

	_, err := config.Load()
	require.Error(t, err)
}

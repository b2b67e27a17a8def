package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load("")

	require.Error(t, err)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placedir")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")

	require.NoError(t, err)
	require.Equal(t, "0.0.0.0", cfg.Server.Host)
	require.Equal(t, 8080, cfg.Server.Port)
	require.Equal(t, 25, cfg.Database.MaxConnections)
	require.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	require.True(t, cfg.Search.DegradeOnStoreError)
	require.Equal(t, "info", cfg.Logging.Level)
	require.Equal(t, "development", cfg.Environment)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placedir")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SEARCH_DEGRADE_ON_STORE_ERROR", "false")
	t.Setenv("DATABASE_QUERY_TIMEOUT", "2s")

	cfg, err := Load("")

	require.NoError(t, err)
	require.Equal(t, 9090, cfg.Server.Port)
	require.False(t, cfg.Search.DegradeOnStoreError)
	require.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
}

func TestLoadFileThenEnvPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7070
database:
  url: postgres://file-host/placedir
  query_timeout: 3s
auth:
  jwt_secret: file-secret
search:
  degrade_on_store_error: false
logging:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	t.Setenv("DATABASE_URL", "postgres://env-host/placedir")
	t.Setenv("JWT_SECRET", "")

	cfg, err := Load(path)

	require.NoError(t, err)
	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "postgres://env-host/placedir", cfg.Database.URL)
	require.Equal(t, "file-secret", cfg.Auth.JWTSecret)
	require.Equal(t, 3*time.Second, cfg.Database.QueryTimeout)
	require.False(t, cfg.Search.DegradeOnStoreError)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestCORSAllowAllOnlyInDevelopment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placedir")
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load("")
	require.NoError(t, err)
	require.True(t, cfg.CORS.AllowAllOrigins)

	t.Setenv("ENVIRONMENT", "production")
	cfg, err = Load("")
	require.NoError(t, err)
	require.False(t, cfg.CORS.AllowAllOrigins)

	t.Setenv("ENVIRONMENT", "development")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.placedir.dev")
	cfg, err = Load("")
	require.NoError(t, err)
	require.False(t, cfg.CORS.AllowAllOrigins)
	require.Equal(t, []string{"https://app.placedir.dev"}, cfg.CORS.AllowedOrigins)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/placedir")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "70000")

	_, err := Load("")

	require.Error(t, err)
}

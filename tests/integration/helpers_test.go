package integration

import (
	"context"
	"fmt"
	"io"
	"net/http/httptest"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/placedir/server/internal/api"
	"github.com/placedir/server/internal/config"
	"github.com/placedir/server/internal/domain/ids"
	"github.com/placedir/server/internal/storage/postgres"
)

type testEnv struct {
	Context context.Context
	Pool    *pgxpool.Pool
	Server  *httptest.Server
}

// setupTestEnv starts a disposable PostGIS container, applies migrations, and
// serves the full router against it. Skips when no container runtime is
// available.
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	container, err := tcpostgres.Run(
		ctx,
		"postgis/postgis:16-3.4",
		tcpostgres.WithDatabase("placedir"),
		tcpostgres.WithUsername("placedir"),
		tcpostgres.WithPassword("placedir_dev"),
	)
	if err != nil {
		t.Skipf("container runtime unavailable: %v", err)
	}
	t.Cleanup(func() {
		_ = container.Terminate(context.Background())
	})

	dbURL, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	migrationsPath := filepath.Join(projectRoot(t), "internal", "storage", "postgres", "migrations")
	require.NoError(t, migrateWithRetry(dbURL, migrationsPath, 30*time.Second))

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	handler, err := api.NewRouter(testConfig(dbURL), zerolog.New(io.Discard), pool, api.BuildInfo{Version: "test"})
	require.NoError(t, err)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return &testEnv{Context: ctx, Pool: pool, Server: server}
}

func testConfig(dbURL string) config.Config {
	return config.Config{
		Server: config.ServerConfig{
			Host:    "127.0.0.1",
			BaseURL: "http://localhost",
		},
		Database: config.DatabaseConfig{
			URL:            dbURL,
			MaxConnections: 5,
			QueryTimeout:   5 * time.Second,
		},
		Auth: config.AuthConfig{
			JWTSecret: "test-secret-32-bytes-minimum----",
			JWTExpiry: time.Hour,
		},
		RateLimit: config.RateLimitConfig{
			PublicPerMinute:   0,
			AdminPerMinute:    0,
			LoginPer15Minutes: 1000,
		},
		Search: config.SearchConfig{
			DegradeOnStoreError: true,
		},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "json",
		},
		Environment: "test",
	}
}

func projectRoot(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}

// Container readiness and migration application can race briefly after start.
func migrateWithRetry(databaseURL string, migrationsPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for {
		err := postgres.MigrateUp(databaseURL, migrationsPath)
		if err == nil {
			return nil
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(500 * time.Millisecond)
	}
}

type seedPlace struct {
	Name      string
	Category  string
	Rating    float64
	Reviews   int
	Latitude  float64
	Longitude float64
	Province  string
	City      string
}

// seed inserts an approved, active place with a location and returns its ULID.
func (env *testEnv) seed(t *testing.T, p seedPlace) string {
	t.Helper()

	ulid, err := ids.NewULID()
	require.NoError(t, err)

	var placeID int64
	err = env.Pool.QueryRow(env.Context, `
INSERT INTO places (ulid, owner_id, name, category, is_active, approval_status,
                    registration_status, rating_average, review_count)
VALUES ($1, $2, $3, $4, true, 'APPROVED', 'REGISTERED', $5, $6)
RETURNING id
`, ulid, "owner-"+ulid, p.Name, p.Category, p.Rating, p.Reviews).Scan(&placeID)
	require.NoError(t, err)

	_, err = env.Pool.Exec(env.Context, `
INSERT INTO place_locations (place_id, province, city, full_address, latitude, longitude, geom)
VALUES ($1, $2, $3, $4, $5, $6, ST_SetSRID(ST_MakePoint($6, $5), 4326)::geography)
`, placeID, p.Province, p.City, fmt.Sprintf("%s %s %s", p.Province, p.City, p.Name), p.Latitude, p.Longitude)
	require.NoError(t, err)

	return ulid
}

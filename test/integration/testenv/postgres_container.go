// Package testenv provides the shared PostgreSQL testcontainer setup for
// integration tests, bootstrapping this repository's own schema
// (internal/store/postgres/schema.sql) and returning a connected
// ledger.Store directly rather than a package-level singleton.
package testenv

import (
	"context"
	"testing"
	"time"

	"ledger-api/internal/store/postgres"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// ContainerConfig names the database and credentials the test container
// boots with.
type ContainerConfig struct {
	Database string
	Username string
	Password string
	Image    string
}

// DefaultContainerConfig returns the default configuration for test containers.
func DefaultContainerConfig() ContainerConfig {
	return ContainerConfig{
		Database: "ledger",
		Username: "ledger",
		Password: "ledger_test_pass",
		Image:    "postgres:16-alpine",
	}
}

// SetupPostgresStore starts a PostgreSQL testcontainer seeded with
// schema.sql and returns a connected *postgres.Store. The container and
// the connection pool are both torn down automatically via t.Cleanup.
func SetupPostgresStore(t *testing.T) *postgres.Store {
	t.Helper()
	ctx := context.Background()
	cfg := DefaultContainerConfig()

	container, err := tcpostgres.Run(ctx,
		cfg.Image,
		tcpostgres.WithDatabase(cfg.Database),
		tcpostgres.WithUsername(cfg.Username),
		tcpostgres.WithPassword(cfg.Password),
		tcpostgres.WithInitScripts("../../../internal/store/postgres/schema.sql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres testcontainer")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres testcontainer: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	store, err := postgres.New(ctx, &postgres.Config{
		Host:         host,
		Port:         port.Int(),
		Database:     cfg.Database,
		User:         cfg.Username,
		Password:     cfg.Password,
		SSLMode:      "disable",
		MaxOpenConns: 10,
		MaxIdleConns: 2,
	})
	require.NoError(t, err, "failed to connect to postgres testcontainer")
	t.Cleanup(store.Close)

	return store
}

// SetupPostgresStoreWithEnv is the Env-var-driven counterpart used by tests
// that exercise components.GetInstance(), which reads DB_* from the
// environment (internal/components.initStore).
func SetupPostgresStoreWithEnv(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	cfg := DefaultContainerConfig()

	container, err := tcpostgres.Run(ctx,
		cfg.Image,
		tcpostgres.WithDatabase(cfg.Database),
		tcpostgres.WithUsername(cfg.Username),
		tcpostgres.WithPassword(cfg.Password),
		tcpostgres.WithInitScripts("../../../internal/store/postgres/schema.sql"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres testcontainer")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate postgres testcontainer: %v", err)
		}
	})

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	t.Setenv("DB_HOST", host)
	t.Setenv("DB_PORT", port.Port())
	t.Setenv("DB_NAME", cfg.Database)
	t.Setenv("DB_USER", cfg.Username)
	t.Setenv("DB_PASSWORD", cfg.Password)
	t.Setenv("DB_SSLMODE", "disable")
}

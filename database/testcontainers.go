package database

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	tclog "github.com/testcontainers/testcontainers-go/log"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

type nopLogger struct{}

func (*nopLogger) Printf(_ string, _ ...any) {}

var _ tclog.Logger = (*nopLogger)(nil)

var (
	dbName = "testdb"
	dbUser = "testuser"
	dbPass = "testpass"
)

// TestContainer is a migrated Postgres container for tests that cannot hand
// a *testing.T to SetupTestDB, such as Ginkgo suites
type TestContainer struct {
	container *postgres.PostgresContainer

	// ConnString reaches the database as the superuser
	ConnString string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
}

// StartTestContainer runs a Postgres container and applies the schema
func StartTestContainer(ctx context.Context) (*TestContainer, error) {
	container, err := postgres.Run(
		ctx,
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPass),
		postgres.BasicWaitStrategies(),
		tc.WithLogger(&nopLogger{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start postgres container: %w", err)
	}

	tcdb := &TestContainer{
		container: container,
		User:      dbUser,
		Password:  dbPass,
		Database:  dbName,
	}
	if err := tcdb.init(ctx); err != nil {
		_ = tcdb.Terminate(ctx)
		return nil, err
	}
	return tcdb, nil
}

func (c *TestContainer) init(ctx context.Context) error {
	connStr, err := c.container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		return err
	}
	c.ConnString = connStr

	if c.Host, err = c.container.Host(ctx); err != nil {
		return err
	}
	port, err := c.container.MappedPort(ctx, "5432/tcp")
	if err != nil {
		return err
	}
	c.Port = port.Int()

	return MigrateUp(connStr, 0)
}

// Terminate removes the container
func (c *TestContainer) Terminate(ctx context.Context) error {
	return c.container.Terminate(ctx)
}

// SetupTestDB creates a Postgres container using testcontainers, applies the
// schema and returns a connection pool. Tests using it are skipped in -short mode.
func SetupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping database test in short mode")
	}

	ctx := context.Background()

	tcdb, err := StartTestContainer(ctx)
	require.NoError(t, err)

	// Exercise the down path once so broken down migrations fail fast
	require.NoError(t, MigrateDown(tcdb.ConnString, 0))
	require.NoError(t, MigrateUp(tcdb.ConnString, 0))

	pool, err := pgxpool.New(ctx, tcdb.ConnString)
	require.NoError(t, err)

	cleanupFunc := func() {
		pool.Close()
		tc.CleanupContainer(t, tcdb.container)
	}

	return pool, cleanupFunc
}

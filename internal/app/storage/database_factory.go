package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/oparl-sync/internal/app/storage/auth"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/notify"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/sync/writer"
)

// DatabaseFactory creates PostgreSQL-backed components
type DatabaseFactory struct {
	config *config.Config
	pool   *pgxpool.Pool
}

var _ Factory = (*DatabaseFactory)(nil)

// NewDatabaseFactory creates a new database-backed storage factory.
// It establishes a connection pool to the configured PostgreSQL database.
func NewDatabaseFactory(ctx context.Context, cfg *config.Config) (*DatabaseFactory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	pool, err := buildDatabaseConnectionPool(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	return &DatabaseFactory{
		config: cfg,
		pool:   pool,
	}, nil
}

// CreateStateService implements Factory
func (d *DatabaseFactory) CreateStateService(_ context.Context) (state.SourceStateService, error) {
	return state.NewDBStateService(d.pool, state.HealthPolicy{
		FailureThreshold: d.config.Sync.FailureThreshold,
	}), nil
}

// CreateSyncWriter implements Factory
func (d *DatabaseFactory) CreateSyncWriter(_ context.Context) (writer.SyncWriter, error) {
	return writer.NewDBSyncWriter(d.pool)
}

// CreateOutbox implements Factory
func (d *DatabaseFactory) CreateOutbox(_ context.Context, publisher notify.Publisher) (*notify.Outbox, error) {
	if publisher == nil {
		return nil, fmt.Errorf("publisher is required")
	}
	return notify.NewOutbox(d.pool, publisher), nil
}

// Pinger implements Factory
func (d *DatabaseFactory) Pinger() service.Pinger {
	return d.pool
}

// Cleanup closes the connection pool
func (d *DatabaseFactory) Cleanup() {
	if d.pool != nil {
		slog.Info("Closing database connection pool")
		d.pool.Close()
	}
}

// buildDatabaseConnectionPool creates the pool of the engine user. With
// dynamic auth every new connection fetches a fresh token.
func buildDatabaseConnectionPool(ctx context.Context, cfg *config.DatabaseConfig) (*pgxpool.Pool, error) {
	connStr, err := cfg.GetConnectionString()
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database connection string: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		poolConfig.MaxConns = cfg.MaxOpenConns
	}
	if cfg.MaxIdleConns > 0 {
		poolConfig.MinConns = cfg.MaxIdleConns
	}
	if cfg.ConnMaxLifetime != "" {
		lifetime, err := time.ParseDuration(cfg.ConnMaxLifetime)
		if err != nil {
			return nil, fmt.Errorf("failed to parse connMaxLifetime: %w", err)
		}
		poolConfig.MaxConnLifetime = lifetime
	}

	if cfg.DynamicAuth != nil {
		beforeConnect, err := auth.NewDynamicAuth(ctx, cfg, cfg.User)
		if err != nil {
			return nil, fmt.Errorf("failed to configure dynamic database auth: %w", err)
		}
		poolConfig.BeforeConnect = beforeConnect
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}

	slog.Info("Database connection pool created",
		"host", cfg.Host, "database", cfg.Database, "max_conns", poolConfig.MaxConns)
	return pool, nil
}

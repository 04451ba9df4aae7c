// Package storage creates the storage-dependent components of the engine.
// All of them share one PostgreSQL connection pool.
package storage

import (
	"context"
	"fmt"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/notify"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/sync/writer"
)

//go:generate mockgen -destination=mocks/mock_factory.go -package=mocks -source=factory.go Factory

// Factory creates storage-dependent components as a family and owns the
// resources they share.
type Factory interface {
	// CreateStateService creates the source and run state service
	CreateStateService(ctx context.Context) (state.SourceStateService, error)

	// CreateSyncWriter creates the writer that applies entity batches
	CreateSyncWriter(ctx context.Context) (writer.SyncWriter, error)

	// CreateOutbox creates the change outbox delivering to publisher
	CreateOutbox(ctx context.Context, publisher notify.Publisher) (*notify.Outbox, error)

	// Pinger reports whether the store is reachable
	Pinger() service.Pinger

	// Cleanup releases the resources held by the factory
	Cleanup()
}

// NewStorageFactory creates the storage factory for the configuration
func NewStorageFactory(ctx context.Context, cfg *config.Config) (Factory, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	return NewDatabaseFactory(ctx, cfg)
}

// Package state contains logic for managing the source and run state which the engine persists.
package state

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/status"
)

var (
	// ErrSourceNotFound is returned when a source can't be found.
	ErrSourceNotFound = errors.New("source not found")

	// ErrSourceExists is returned when adding a source whose id is taken.
	ErrSourceExists = errors.New("source already exists")

	// ErrRunNotFound is returned when a sync run can't be found.
	ErrRunNotFound = errors.New("sync run not found")

	// ErrRunNotActive is returned when a terminal run is modified.
	ErrRunNotActive = errors.New("sync run is not active")
)

// Source is a source definition together with its persisted state
type Source struct {
	Config config.SourceConfig
	State  status.SourceState
	// FromConfig is set for sources managed by the configuration file
	FromConfig bool
}

// FinishRequest carries the terminal outcome of a run
type FinishRequest struct {
	RunID      uuid.UUID
	SourceID   string
	Mode       status.RunMode
	Status     status.RunStatus
	Counts     status.Counts
	ErrorCount int
	Note       string
}

// SourceStateService persists sources, the run lock and run outcomes.
//
//go:generate mockgen -destination=mocks/mock_source_state_service.go -package=mocks github.com/stacklok/oparl-sync/internal/sync/state SourceStateService
type SourceStateService interface {
	// Initialize reconciles the configured sources with the store. Config
	// sources missing from the list are disabled, never deleted.
	Initialize(ctx context.Context, sources []config.SourceConfig) error
	// GetSource returns one source
	GetSource(ctx context.Context, sourceID string) (*Source, error)
	// ListSources returns every source ordered by id
	ListSources(ctx context.Context) ([]*Source, error)
	// AddSource registers a source created through the administrative surface
	AddSource(ctx context.Context, source *config.SourceConfig) error
	// SetEnabled enables or soft-disables a source
	SetEnabled(ctx context.Context, sourceID string, enabled bool) error

	// BeginRun takes the run lock of the source by inserting a PENDING run.
	// It fails with *syncerr.ConcurrentRunError when a run is already active.
	BeginRun(ctx context.Context, sourceID string, mode status.RunMode, trigger status.Trigger) (*status.SyncRun, error)
	// MarkRunning moves a PENDING run to RUNNING with the decided mode
	MarkRunning(ctx context.Context, runID uuid.UUID, mode status.RunMode) error
	// FinishRun finalizes the run and applies the health transition of its
	// source in the same transaction. It returns the updated source state.
	FinishRun(ctx context.Context, req FinishRequest) (*status.SourceState, error)
	// AbandonStale fails every non-terminal run, for crash recovery at startup
	AbandonStale(ctx context.Context) ([]status.SyncRun, error)

	// RecordErrors appends attributable errors to a run
	RecordErrors(ctx context.Context, runID uuid.UUID, errs []status.RunError) error
	// AdvanceCursor moves the modified cursor of a body forward, never back
	AdvanceCursor(ctx context.Context, bodyID uuid.UUID, cursor time.Time) (bool, error)

	// GetRun returns one run
	GetRun(ctx context.Context, runID uuid.UUID) (*status.SyncRun, error)
	// GetLatestRun returns the most recent run of a source, nil if none
	GetLatestRun(ctx context.Context, sourceID string) (*status.SyncRun, error)
	// ListRuns returns the most recent runs of a source
	ListRuns(ctx context.Context, sourceID string, limit int) ([]*status.SyncRun, error)
	// ListRunErrors pages through the errors of a run
	ListRunErrors(ctx context.Context, runID uuid.UUID, limit, offset int) ([]status.RunError, error)
}

// Package service provides the administrative operations on sources and sync runs
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/status"
)

const (
	// DefaultPageSize is the default number of items returned by list operations
	DefaultPageSize = 50
	// MaxPageSize caps the number of items a list operation returns
	MaxPageSize = 500
)

var (
	// ErrSourceNotFound is returned when a source is not found
	ErrSourceNotFound = errors.New("source not found")
	// ErrSourceExists is returned when adding a source whose id is taken
	ErrSourceExists = errors.New("source already exists")
	// ErrRunNotFound is returned when a sync run is not found
	ErrRunNotFound = errors.New("sync run not found")
	// ErrRunActive is returned when a sync is requested while a run is active
	ErrRunActive = errors.New("sync run already active")
	// ErrSourceDisabled is returned when a sync is requested for a disabled source
	ErrSourceDisabled = errors.New("source is disabled")
	// ErrQueueFull is returned when the scheduler cannot accept another job
	ErrQueueFull = errors.New("sync queue is full")
	// ErrInvalidInput is returned for malformed requests
	ErrInvalidInput = errors.New("invalid input")
	// ErrNotImplemented is returned when an operation is not available
	ErrNotImplemented = errors.New("not implemented")
)

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go AdminService

// AdminService defines the administrative surface over sources and runs
type AdminService interface {
	// CheckReadiness checks if the service is ready to serve requests
	CheckReadiness(ctx context.Context) error

	// ListSources returns every source with its latest run
	ListSources(ctx context.Context) ([]*SourceStatus, error)

	// AddSource registers a new source
	AddSource(ctx context.Context, source *config.SourceConfig) (*SourceStatus, error)

	// EnableSource enables a source and resets its health
	EnableSource(ctx context.Context, sourceID string) error

	// DisableSource stops scheduling a source. Its entities are kept.
	DisableSource(ctx context.Context, sourceID string) error

	// TriggerSync queues an immediate run. An empty mode lets the
	// orchestrator choose.
	TriggerSync(ctx context.Context, sourceID string, mode status.RunMode) error

	// GetSourceStatus returns the health and latest run of a source
	GetSourceStatus(ctx context.Context, sourceID string) (*SourceStatus, error)

	// ListRuns returns the most recent runs of a source
	ListRuns(ctx context.Context, sourceID string, opts ...Option[ListOptions]) ([]*status.SyncRun, error)

	// GetRun returns one run
	GetRun(ctx context.Context, runID string) (*status.SyncRun, error)

	// ListRunErrors pages through the errors of a run
	ListRunErrors(ctx context.Context, runID string, opts ...Option[ListOptions]) ([]status.RunError, error)
}

// SourceStatus is the administrative view of a source
type SourceStatus struct {
	Source     status.SourceState `json:"source"`
	FromConfig bool               `json:"fromConfig"`
	LatestRun  *status.SyncRun    `json:"latestRun,omitempty"`
}

// ListOptions is the options for paged list operations
type ListOptions struct {
	Limit  int
	Offset int
}

// Option is a function that sets an option for a list operation
type Option[T ListOptions] func(*T) error

// WithLimit sets the page size of a list operation
func WithLimit(limit int) Option[ListOptions] {
	return func(o *ListOptions) error {
		if limit <= 0 {
			return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidInput, limit)
		}
		o.Limit = min(limit, MaxPageSize)
		return nil
	}
}

// WithOffset sets the number of items a list operation skips
func WithOffset(offset int) Option[ListOptions] {
	return func(o *ListOptions) error {
		if offset < 0 {
			return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidInput, offset)
		}
		o.Offset = offset
		return nil
	}
}

func applyListOptions(opts []Option[ListOptions]) (*ListOptions, error) {
	o := &ListOptions{Limit: DefaultPageSize}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

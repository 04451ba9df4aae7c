package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/otel"
	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/sync/writer"
	"github.com/stacklok/oparl-sync/internal/syncerr"
	"github.com/stacklok/oparl-sync/internal/telemetry"
	"github.com/stacklok/oparl-sync/internal/transform"
)

// Decision is the fetch strategy chosen for the next run of a source
type Decision struct {
	Mode   status.RunMode
	Reason string
}

// Result contains the outcome of a sync run that reached a terminal status
type Result struct {
	Status status.RunStatus
	Counts status.Counts
	Errors []status.RunError
	Note   string

	// Bodies is the number of bodies discovered from the system
	Bodies int

	// Cursors holds the modified cursor candidate of every body that was
	// walked without page errors. Callers commit them only when Status
	// advances cursors.
	Cursors map[uuid.UUID]time.Time
}

// Mode selection reasons
const (
	ReasonFirstSync                = "first-sync"
	ReasonModifiedSinceUnsupported = "modified-since-unsupported"
	ReasonFullSyncDue              = "full-sync-due"
	ReasonIncremental              = "incremental-sync"
	ReasonManualFull               = "manual-full-sync"
	ReasonManualIncremental        = "manual-incremental-sync"
)

// Notes attached to runs that were cut short
const (
	NoteCancelled      = "cancelled"
	NoteBudgetExceeded = "run budget exceeded"
)

// Condition reasons for failed runs
const (
	conditionReasonInvalidRun           = "InvalidRun"
	conditionReasonClientCreationFailed = "ClientCreationFailed"
	conditionReasonSystemUnreachable    = "SystemUnreachable"
	conditionReasonBodyListUnreachable  = "BodyListUnreachable"
	conditionReasonBodiesUnreachable    = "BodiesUnreachable"
)

// Condition types
const (
	// ConditionSourceAvailable indicates whether the source could be reached
	ConditionSourceAvailable = "SourceAvailable"

	// ConditionSyncSuccessful indicates whether the run produced a usable result
	ConditionSyncSuccessful = "SyncSuccessful"
)

// Error represents a run that ended Failed, with condition information for the status surface
type Error struct {
	Err             error
	Message         string
	ConditionType   string
	ConditionReason string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs the synchronization of a single source
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/stacklok/oparl-sync/internal/sync Manager
type Manager interface {
	// ShouldSync selects the fetch mode of the next run. forced is the mode an
	// administrator asked for, empty for scheduled runs.
	ShouldSync(src *state.Source, now time.Time, forced status.RunMode) Decision

	// PerformSync executes run, which must hold the source's run lock and carry
	// the decided mode. A Failed run returns both its partial result and an Error.
	PerformSync(ctx context.Context, src *state.Source, run *status.SyncRun) (*Result, *Error)
}

// TracerName is the name used for the sync run tracer
const TracerName = "github.com/stacklok/oparl-sync/sync"

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	clients     sources.ClientFactory
	writer      writer.SyncWriter
	transformer transform.Transformer
	detector    ChangeDetector
	cfg         config.SyncConfig

	metrics *telemetry.SyncMetrics
	tracer  trace.Tracer
	now     func() time.Time
}

// Option configures the sync manager
type Option func(*defaultSyncManager)

// WithSyncMetrics sets the metrics the manager records page and entity outcomes on
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(m *defaultSyncManager) {
		m.metrics = metrics
	}
}

// WithTracer sets the tracer for run, body and page spans
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) {
		m.tracer = tracer
	}
}

// WithChangeDetector replaces the fingerprint based change detector
func WithChangeDetector(detector ChangeDetector) Option {
	return func(m *defaultSyncManager) {
		m.detector = detector
	}
}

// NewDefaultSyncManager creates a new defaultSyncManager
func NewDefaultSyncManager(
	clients sources.ClientFactory,
	syncWriter writer.SyncWriter,
	transformer transform.Transformer,
	cfg config.SyncConfig,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		clients:     clients,
		writer:      syncWriter,
		transformer: transformer,
		detector:    DefaultChangeDetector{},
		cfg:         cfg,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ShouldSync picks full or incremental mode. Incremental needs a previous
// success and a source that honours modified_since; a full run is forced
// once fullSyncInterval has passed since the last completed full run.
func (m *defaultSyncManager) ShouldSync(src *state.Source, now time.Time, forced status.RunMode) Decision {
	st := src.State

	switch forced {
	case status.RunModeFull:
		return Decision{Mode: status.RunModeFull, Reason: ReasonManualFull}
	case status.RunModeIncremental:
		if st.LastSuccessAt != nil && st.ModifiedSinceSupported {
			return Decision{Mode: status.RunModeIncremental, Reason: ReasonManualIncremental}
		}
	}

	switch {
	case st.LastSuccessAt == nil:
		return Decision{Mode: status.RunModeFull, Reason: ReasonFirstSync}
	case !st.ModifiedSinceSupported:
		return Decision{Mode: status.RunModeFull, Reason: ReasonModifiedSinceUnsupported}
	case st.LastFullSyncAt == nil || now.Sub(*st.LastFullSyncAt) >= m.cfg.FullSyncInterval:
		return Decision{Mode: status.RunModeFull, Reason: ReasonFullSyncDue}
	default:
		return Decision{Mode: status.RunModeIncremental, Reason: ReasonIncremental}
	}
}

// PerformSync walks every body of the source and writes the replica
func (m *defaultSyncManager) PerformSync(
	ctx context.Context, src *state.Source, run *status.SyncRun,
) (*Result, *Error) {
	runID, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, &Error{
			Err:             err,
			Message:         fmt.Sprintf("Invalid run id %q: %v", run.ID, err),
			ConditionType:   ConditionSyncSuccessful,
			ConditionReason: conditionReasonInvalidRun,
		}
	}

	sourceID := src.Config.ID
	logger := slog.With("source", sourceID, "run", run.ID, "mode", run.Mode)

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.run", trace.WithAttributes(
		otel.AttrSourceID.String(sourceID),
		otel.AttrRunID.String(run.ID),
		otel.AttrRunMode.String(string(run.Mode)),
	))
	defer span.End()

	runCtx := ctx
	if m.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, m.cfg.RunTimeout)
		defer cancel()
	}

	r := &syncRun{
		defaultSyncManager: m,
		source:             src,
		runID:              runID,
		mode:               run.Mode,
		logger:             logger,
		cursors:            make(map[uuid.UUID]time.Time),
	}

	client, err := m.clients.NewClient(runCtx, &src.Config)
	if err != nil {
		logger.Error("Failed to create source client", "error", err)
		return r.fail(err, "", ConditionSyncSuccessful, conditionReasonClientCreationFailed,
			fmt.Sprintf("Failed to create source client: %v", err))
	}
	r.client = client

	system, err := client.FetchSystem(runCtx)
	if err != nil {
		logger.Error("System object unreachable", "error", err)
		return r.fail(&syncerr.SourceUnreachableError{SourceID: sourceID, Err: err}, src.Config.BaseURL,
			ConditionSourceAvailable, conditionReasonSystemUnreachable,
			fmt.Sprintf("System unreachable: %v", err))
	}

	bodies, err := client.ListBodies(runCtx, system)
	if err != nil {
		logger.Error("Body list unreachable", "url", system.BodyListURL, "error", err)
		return r.fail(&syncerr.SourceUnreachableError{SourceID: sourceID, Err: err}, system.BodyListURL,
			ConditionSourceAvailable, conditionReasonBodyListUnreachable,
			fmt.Sprintf("Body list unreachable: %v", err))
	}
	logger.Info("Discovered bodies", "count", len(bodies), "oparl_version", system.OParlVersion)

	unreachable := r.syncBodies(runCtx, bodies)

	result := r.result()
	result.Bodies = len(bodies)

	var syncErr *Error
	switch {
	case ctx.Err() != nil:
		result.Status = status.RunStatusPartial
		result.Note = NoteCancelled
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.Status = status.RunStatusPartial
		result.Note = NoteBudgetExceeded
	case len(bodies) > 0 && unreachable == len(bodies):
		result.Status = status.RunStatusFailed
		result.Note = "all bodies unreachable"
		syncErr = &Error{
			Err:             &syncerr.SourceUnreachableError{SourceID: sourceID, Err: errors.New(result.Note)},
			Message:         fmt.Sprintf("All %d bodies unreachable", len(bodies)),
			ConditionType:   ConditionSourceAvailable,
			ConditionReason: conditionReasonBodiesUnreachable,
		}
	case len(result.Errors) > 0:
		result.Status = status.RunStatusPartial
	default:
		result.Status = status.RunStatusCompleted
	}

	otel.SetRunOutcome(span, result.Status, result.Counts)
	if syncErr != nil {
		otel.RecordError(span, syncErr)
	}

	logger.Info("Sync run finished",
		"status", result.Status,
		"bodies", result.Bodies,
		"fetched", result.Counts.Fetched,
		"created", result.Counts.Created,
		"updated", result.Counts.Updated,
		"unchanged", result.Counts.Unchanged,
		"tombstoned", result.Counts.Tombstoned,
		"errored", result.Counts.Errored,
		"errors", len(result.Errors))

	return result, syncErr
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/otel"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/sync/coordinator"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// ServiceTracerName is the name used for the admin service tracer
const ServiceTracerName = "github.com/stacklok/oparl-sync/service"

// Scheduler accepts manual sync requests
type Scheduler interface {
	Trigger(ctx context.Context, sourceID string, mode status.RunMode) error
}

// Pinger reports whether the backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// options holds configuration options for the admin service
type options struct {
	scheduler Scheduler
	pinger    Pinger
	tracer    trace.Tracer
}

// ServiceOption is a functional option for configuring the admin service
type ServiceOption func(*options) error

// WithScheduler sets the scheduler that executes manual syncs
func WithScheduler(scheduler Scheduler) ServiceOption {
	return func(o *options) error {
		if scheduler == nil {
			return errors.New("scheduler is required")
		}
		o.scheduler = scheduler
		return nil
	}
}

// WithPinger sets the readiness check of the backing store
func WithPinger(pinger Pinger) ServiceOption {
	return func(o *options) error {
		o.pinger = pinger
		return nil
	}
}

// WithTracer sets the OpenTelemetry tracer for the admin service.
// If not set, tracing is disabled.
func WithTracer(tracer trace.Tracer) ServiceOption {
	return func(o *options) error {
		o.tracer = tracer
		return nil
	}
}

// adminService implements AdminService on top of the source state service
type adminService struct {
	state     state.SourceStateService
	scheduler Scheduler
	pinger    Pinger
	tracer    trace.Tracer
}

var _ AdminService = (*adminService)(nil)

// New creates the admin service
func New(stateSvc state.SourceStateService, opts ...ServiceOption) (AdminService, error) {
	if stateSvc == nil {
		return nil, errors.New("state service is required")
	}

	o := &options{}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}

	return &adminService{
		state:     stateSvc,
		scheduler: o.scheduler,
		pinger:    o.pinger,
		tracer:    o.tracer,
	}, nil
}

// CheckReadiness implements AdminService
func (s *adminService) CheckReadiness(ctx context.Context) error {
	if s.pinger == nil {
		return nil
	}
	if err := s.pinger.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}
	return nil
}

// ListSources implements AdminService
func (s *adminService) ListSources(ctx context.Context) ([]*SourceStatus, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.ListSources")
	defer span.End()

	sources, err := s.state.ListSources(ctx)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}

	out := make([]*SourceStatus, 0, len(sources))
	for _, src := range sources {
		latest, err := s.state.GetLatestRun(ctx, src.Config.ID)
		if err != nil {
			otel.RecordError(span, err)
			return nil, err
		}
		out = append(out, &SourceStatus{Source: src.State, FromConfig: src.FromConfig, LatestRun: latest})
	}

	span.SetAttributes(otel.AttrResultCount.Int(len(out)))
	return out, nil
}

// AddSource implements AdminService
func (s *adminService) AddSource(ctx context.Context, source *config.SourceConfig) (*SourceStatus, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.AddSource")
	defer span.End()

	if source == nil {
		return nil, fmt.Errorf("%w: source is required", ErrInvalidInput)
	}
	span.SetAttributes(otel.AttrSourceID.String(source.ID))

	if source.ID == "" {
		return nil, fmt.Errorf("%w: source id is required", ErrInvalidInput)
	}
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := s.state.AddSource(ctx, source); err != nil {
		otel.RecordError(span, err)
		return nil, mapStateError(err)
	}

	slog.InfoContext(ctx, "Source added", "source", source.ID, "base_url", source.BaseURL)
	return s.GetSourceStatus(ctx, source.ID)
}

// EnableSource implements AdminService
func (s *adminService) EnableSource(ctx context.Context, sourceID string) error {
	return s.setEnabled(ctx, sourceID, true)
}

// DisableSource implements AdminService
func (s *adminService) DisableSource(ctx context.Context, sourceID string) error {
	return s.setEnabled(ctx, sourceID, false)
}

func (s *adminService) setEnabled(ctx context.Context, sourceID string, enabled bool) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.SetEnabled",
		trace.WithAttributes(otel.AttrSourceID.String(sourceID)))
	defer span.End()

	if err := s.state.SetEnabled(ctx, sourceID, enabled); err != nil {
		otel.RecordError(span, err)
		return mapStateError(err)
	}
	slog.InfoContext(ctx, "Source updated", "source", sourceID, "enabled", enabled)
	return nil
}

// TriggerSync implements AdminService
func (s *adminService) TriggerSync(ctx context.Context, sourceID string, mode status.RunMode) error {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.TriggerSync",
		trace.WithAttributes(otel.AttrSourceID.String(sourceID), otel.AttrRunMode.String(string(mode))))
	defer span.End()

	switch mode {
	case "", status.RunModeFull, status.RunModeIncremental:
	default:
		return fmt.Errorf("%w: unknown sync mode %q", ErrInvalidInput, mode)
	}
	if s.scheduler == nil {
		return ErrNotImplemented
	}

	err := s.scheduler.Trigger(ctx, sourceID, mode)
	if err == nil {
		return nil
	}
	otel.RecordError(span, err)

	var concurrent *syncerr.ConcurrentRunError
	switch {
	case errors.As(err, &concurrent):
		return fmt.Errorf("%w: %s", ErrRunActive, concurrent.RunID)
	case errors.Is(err, coordinator.ErrQueueFull):
		return ErrQueueFull
	case errors.Is(err, coordinator.ErrSourceDisabled):
		return fmt.Errorf("%w: %s", ErrSourceDisabled, sourceID)
	default:
		return mapStateError(err)
	}
}

// GetSourceStatus implements AdminService
func (s *adminService) GetSourceStatus(ctx context.Context, sourceID string) (*SourceStatus, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.GetSourceStatus",
		trace.WithAttributes(otel.AttrSourceID.String(sourceID)))
	defer span.End()

	src, err := s.state.GetSource(ctx, sourceID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, mapStateError(err)
	}
	latest, err := s.state.GetLatestRun(ctx, sourceID)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	return &SourceStatus{Source: src.State, FromConfig: src.FromConfig, LatestRun: latest}, nil
}

// ListRuns implements AdminService
func (s *adminService) ListRuns(
	ctx context.Context,
	sourceID string,
	opts ...Option[ListOptions],
) ([]*status.SyncRun, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.ListRuns",
		trace.WithAttributes(otel.AttrSourceID.String(sourceID)))
	defer span.End()

	o, err := applyListOptions(opts)
	if err != nil {
		return nil, err
	}
	if _, err := s.state.GetSource(ctx, sourceID); err != nil {
		otel.RecordError(span, err)
		return nil, mapStateError(err)
	}

	runs, err := s.state.ListRuns(ctx, sourceID, o.Limit)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(runs)))
	return runs, nil
}

// GetRun implements AdminService
func (s *adminService) GetRun(ctx context.Context, runID string) (*status.SyncRun, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.GetRun",
		trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}
	run, err := s.state.GetRun(ctx, id)
	if err != nil {
		otel.RecordError(span, err)
		return nil, mapStateError(err)
	}
	return run, nil
}

// ListRunErrors implements AdminService
func (s *adminService) ListRunErrors(
	ctx context.Context,
	runID string,
	opts ...Option[ListOptions],
) ([]status.RunError, error) {
	ctx, span := otel.StartSpan(ctx, s.tracer, "adminService.ListRunErrors",
		trace.WithAttributes(otel.AttrRunID.String(runID)))
	defer span.End()

	id, err := parseRunID(runID)
	if err != nil {
		return nil, err
	}
	o, err := applyListOptions(opts)
	if err != nil {
		return nil, err
	}

	// unknown runs are reported as such rather than as an empty list
	if _, err := s.state.GetRun(ctx, id); err != nil {
		otel.RecordError(span, err)
		return nil, mapStateError(err)
	}

	errs, err := s.state.ListRunErrors(ctx, id, o.Limit, o.Offset)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(errs)))
	return errs, nil
}

func parseRunID(runID string) (uuid.UUID, error) {
	id, err := uuid.Parse(runID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: run id %q is not a UUID", ErrInvalidInput, runID)
	}
	return id, nil
}

// mapStateError translates state sentinel errors into service errors
func mapStateError(err error) error {
	switch {
	case errors.Is(err, state.ErrSourceNotFound):
		return fmt.Errorf("%w: %w", ErrSourceNotFound, err)
	case errors.Is(err, state.ErrSourceExists):
		return fmt.Errorf("%w: %w", ErrSourceExists, err)
	case errors.Is(err, state.ErrRunNotFound):
		return fmt.Errorf("%w: %w", ErrRunNotFound, err)
	default:
		return err
	}
}

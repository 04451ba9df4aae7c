package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/status"
	pkgsync "github.com/stacklok/oparl-sync/internal/sync"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/syncerr"
	"github.com/stacklok/oparl-sync/internal/telemetry"
)

var (
	// ErrQueueFull is returned when a manual trigger finds the work queue full
	ErrQueueFull = errors.New("sync queue is full")
	// ErrSourceDisabled is returned when a run is requested for a disabled source
	ErrSourceDisabled = errors.New("source is disabled")
)

// Coordinator schedules and executes sync runs for every enabled source
type Coordinator interface {
	// Start begins background scheduling.
	// Blocks until the context is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop gracefully stops the coordinator and waits for in-flight runs
	Stop() error

	// Trigger queues a manual run of a source. An empty mode lets the
	// manager pick the mode. It fails with *syncerr.ConcurrentRunError when
	// the source already has an active run and with ErrQueueFull when the
	// queue cannot take the job.
	Trigger(ctx context.Context, sourceID string, mode status.RunMode) error

	// RunOnce executes one run of a source in the calling goroutine and
	// returns the finalized run
	RunOnce(ctx context.Context, sourceID string, mode status.RunMode) (*status.SyncRun, error)
}

// Flusher publishes the pending change events of a source
type Flusher interface {
	Flush(ctx context.Context, sourceID string) (int, error)
}

// job is one unit of work on the queue
type job struct {
	sourceID string
	forced   status.RunMode
	trigger  status.Trigger
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	stateSvc state.SourceStateService
	config   *config.Config
	outbox   Flusher

	queue chan job

	// Lifecycle management
	mu         sync.Mutex
	cancelFunc context.CancelFunc
	done       chan struct{}
	timers     map[string]context.CancelFunc
	wg         sync.WaitGroup

	// pending holds the sources with a scheduled job queued or executing
	pending map[string]bool

	startupJitter time.Duration
	now           func() time.Time

	// Metrics
	syncMetrics   *telemetry.SyncMetrics
	sourceMetrics *telemetry.SourceMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithSourceMetrics sets the source health metrics for the coordinator
func WithSourceMetrics(metrics *telemetry.SourceMetrics) Option {
	return func(c *defaultCoordinator) {
		c.sourceMetrics = metrics
	}
}

// WithOutbox publishes pending change events after every run
func WithOutbox(outbox Flusher) Option {
	return func(c *defaultCoordinator) {
		c.outbox = outbox
	}
}

// WithStartupJitter bounds the random delay before the first run of each source
func WithStartupJitter(d time.Duration) Option {
	return func(c *defaultCoordinator) {
		c.startupJitter = d
	}
}

// New creates a new coordinator with injected dependencies
func New(
	manager pkgsync.Manager,
	stateSvc state.SourceStateService,
	cfg *config.Config,
	opts ...Option,
) Coordinator {
	c := &defaultCoordinator{
		manager:       manager,
		stateSvc:      stateSvc,
		config:        cfg,
		queue:         make(chan job, max(cfg.Sync.QueueSize, 1)),
		done:          make(chan struct{}),
		timers:        make(map[string]context.CancelFunc),
		pending:       make(map[string]bool),
		startupJitter: defaultStartupJitter,
		now:           time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Start begins background sync coordination for all sources
func (c *defaultCoordinator) Start(ctx context.Context) error {
	workers := max(c.config.Sync.SchedulerWorkers, 1)
	slog.Info("Starting background sync coordinator",
		"source_count", len(c.config.Sources),
		"workers", workers,
		"queue_size", cap(c.queue))

	coordCtx, cancel := context.WithCancel(ctx)
	c.mu.Lock()
	c.cancelFunc = cancel
	c.mu.Unlock()
	defer func() {
		cancel()
		c.wg.Wait()
		close(c.done)
		slog.Info("Background sync coordinator shut down")
	}()

	if err := c.stateSvc.Initialize(coordCtx, c.config.Sources); err != nil {
		return fmt.Errorf("failed to initialize sources: %w", err)
	}

	abandoned, err := c.stateSvc.AbandonStale(coordCtx)
	if err != nil {
		return err
	}
	for _, run := range abandoned {
		slog.Warn("Abandoned run left by a previous process", "source", run.SourceID, "run", run.ID)
	}

	for range workers {
		c.wg.Go(func() { c.work(coordCtx) })
	}

	c.reconcile(coordCtx)

	ticker := time.NewTicker(calculatePollingInterval())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.reconcile(coordCtx)
			ticker.Reset(calculatePollingInterval())
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

// Stop gracefully stops the coordinator
func (c *defaultCoordinator) Stop() error {
	c.mu.Lock()
	cancel := c.cancelFunc
	c.mu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-c.done
	}
	return nil
}

// Trigger implements Coordinator
func (c *defaultCoordinator) Trigger(ctx context.Context, sourceID string, mode status.RunMode) error {
	src, err := c.stateSvc.GetSource(ctx, sourceID)
	if err != nil {
		return err
	}
	if !src.State.Enabled {
		return ErrSourceDisabled
	}

	latest, err := c.stateSvc.GetLatestRun(ctx, sourceID)
	if err != nil {
		return err
	}
	if latest != nil && !latest.Status.IsTerminal() {
		return &syncerr.ConcurrentRunError{SourceID: sourceID, RunID: latest.ID}
	}

	if !c.enqueue(job{sourceID: sourceID, forced: mode, trigger: status.TriggerManual}) {
		return ErrQueueFull
	}
	slog.Info("Manual sync queued", "source", sourceID, "mode", mode)
	return nil
}

// RunOnce implements Coordinator
func (c *defaultCoordinator) RunOnce(ctx context.Context, sourceID string, mode status.RunMode) (*status.SyncRun, error) {
	return c.execute(ctx, job{sourceID: sourceID, forced: mode, trigger: status.TriggerManual})
}

// enqueue offers j to the queue without blocking
func (c *defaultCoordinator) enqueue(j job) bool {
	select {
	case c.queue <- j:
		return true
	default:
		return false
	}
}

// setPending records whether a scheduled job of sourceID is outstanding.
// Marking reports false when one already was.
func (c *defaultCoordinator) setPending(sourceID string, pending bool) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if pending && c.pending[sourceID] {
		return false
	}
	if pending {
		c.pending[sourceID] = true
	} else {
		delete(c.pending, sourceID)
	}
	return true
}

// work consumes the queue until ctx is done
func (c *defaultCoordinator) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case j := <-c.queue:
			_, err := c.execute(ctx, j)
			if j.trigger == status.TriggerSchedule {
				c.setPending(j.sourceID, false)
			}
			if err != nil {
				var concurrent *syncerr.ConcurrentRunError
				switch {
				case errors.As(err, &concurrent):
					slog.Info("Sync run skipped, source already has an active run",
						"source", j.sourceID, "active_run", concurrent.RunID)
				case errors.Is(err, ErrSourceDisabled):
					slog.Debug("Sync run skipped, source disabled", "source", j.sourceID)
				default:
					slog.Error("Sync run could not be executed", "source", j.sourceID, "error", err)
				}
			}
		}
	}
}

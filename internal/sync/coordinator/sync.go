package coordinator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/stacklok/oparl-sync/internal/status"
	pkgsync "github.com/stacklok/oparl-sync/internal/sync"
	"github.com/stacklok/oparl-sync/internal/sync/state"
)

// execute takes the run lock of the source, performs the run and finalizes
// it. Finalization uses a context detached from ctx so a shutdown still
// releases the lock and records the outcome.
func (c *defaultCoordinator) execute(ctx context.Context, j job) (*status.SyncRun, error) {
	src, err := c.stateSvc.GetSource(ctx, j.sourceID)
	if err != nil {
		return nil, err
	}
	if !src.State.Enabled {
		return nil, ErrSourceDisabled
	}

	decision := c.manager.ShouldSync(src, c.now(), j.forced)
	run, err := c.stateSvc.BeginRun(ctx, j.sourceID, decision.Mode, j.trigger)
	if err != nil {
		return nil, err
	}
	runID, err := uuid.Parse(run.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid run id %q: %w", run.ID, err)
	}

	logger := slog.With("source", j.sourceID, "run", run.ID)
	logger.Info("Starting sync run",
		"mode", decision.Mode,
		"reason", decision.Reason,
		"trigger", j.trigger,
		"manual", pkgsync.IsManualSync(decision.Reason))

	finCtx := context.WithoutCancel(ctx)
	startTime := c.now()

	var result *pkgsync.Result
	if err := c.stateSvc.MarkRunning(ctx, runID, decision.Mode); err != nil {
		logger.Error("Failed to mark run as running", "error", err)
		result = &pkgsync.Result{Status: status.RunStatusFailed, Note: "could not start run"}
	} else {
		run.Status = status.RunStatusRunning
		run.Mode = decision.Mode

		var syncErr *pkgsync.Error
		result, syncErr = c.manager.PerformSync(ctx, src, run)
		if syncErr != nil {
			logger.Error("Sync run failed",
				"condition", syncErr.ConditionType,
				"reason", syncErr.ConditionReason,
				"error", syncErr.Message)
			if result == nil {
				result = &pkgsync.Result{Status: status.RunStatusFailed, Note: syncErr.Message}
			}
		}
	}

	c.finalize(finCtx, logger, src, runID, decision.Mode, result)
	c.syncMetrics.RecordRunDuration(finCtx, j.sourceID, c.now().Sub(startTime), string(result.Status))

	return c.stateSvc.GetRun(finCtx, runID)
}

// finalize persists errors, cursors and the terminal status of a run,
// then publishes its change events
func (c *defaultCoordinator) finalize(
	ctx context.Context,
	logger *slog.Logger,
	src *state.Source,
	runID uuid.UUID,
	mode status.RunMode,
	result *pkgsync.Result,
) {
	if err := c.stateSvc.RecordErrors(ctx, runID, result.Errors); err != nil {
		logger.Error("Failed to record run errors", "count", len(result.Errors), "error", err)
	}

	if result.Status.AdvancesCursor() {
		for bodyID, cursor := range result.Cursors {
			if _, err := c.stateSvc.AdvanceCursor(ctx, bodyID, cursor); err != nil {
				logger.Error("Failed to advance body cursor", "body", bodyID, "error", err)
			}
		}
	}

	next, err := c.stateSvc.FinishRun(ctx, state.FinishRequest{
		RunID:      runID,
		SourceID:   src.Config.ID,
		Mode:       mode,
		Status:     result.Status,
		Counts:     result.Counts,
		ErrorCount: len(result.Errors),
		Note:       result.Note,
	})
	if err != nil {
		logger.Error("Failed to finish run", "error", err)
	} else {
		if next.Health != src.State.Health {
			logger.Warn("Source health changed",
				"from", src.State.Health,
				"to", next.Health,
				"reason", next.HealthReason)
		}
		c.sourceMetrics.RecordHealth(ctx, src.Config.ID, string(next.Health))
	}

	logger.Info("Sync run finalized",
		"status", result.Status,
		"fetched", result.Counts.Fetched,
		"created", result.Counts.Created,
		"updated", result.Counts.Updated,
		"unchanged", result.Counts.Unchanged,
		"tombstoned", result.Counts.Tombstoned,
		"errors", len(result.Errors))

	if c.outbox == nil {
		return
	}
	delivered, err := c.outbox.Flush(ctx, src.Config.ID)
	if err != nil {
		logger.Error("Failed to publish change events, they stay pending", "delivered", delivered, "error", err)
		return
	}
	if delivered > 0 {
		logger.Info("Published change events", "count", delivered)
	}
}

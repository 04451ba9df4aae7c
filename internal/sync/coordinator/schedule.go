package coordinator

import (
	"context"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/sync/state"
)

const (
	// basePollingInterval is how often the set of scheduled sources is reconciled with the store
	basePollingInterval = 2 * time.Minute
	// pollingJitter is the maximum random offset (±30 seconds) applied to the polling interval
	pollingJitter = 30 * time.Second
	// defaultStartupJitter spreads the first runs of all sources after startup
	defaultStartupJitter = 30 * time.Second
	// intervalJitterFraction is the share of a source interval used as ± jitter
	intervalJitterFraction = 0.1
)

// calculatePollingInterval returns the base polling interval with a random jitter applied.
// The jitter is ±30 seconds so several instances do not poll the database simultaneously.
func calculatePollingInterval() time.Duration {
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	jitterOffset := time.Duration(rand.Int64N(int64(2*pollingJitter))) - pollingJitter
	return basePollingInterval + jitterOffset
}

// withJitter offsets d by up to ±fraction of itself
func withJitter(d time.Duration, fraction float64) time.Duration {
	j := int64(float64(d) * fraction)
	if j <= 0 {
		return d
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for schedule jitter
	return d + time.Duration(rand.Int64N(2*j)) - time.Duration(j)
}

// startupDelay returns a random delay in [0, bound)
func startupDelay(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for schedule jitter
	return time.Duration(rand.Int64N(int64(bound)))
}

// nextInterval returns the wait before the next scheduled run of src.
// A source degraded by failed runs backs off exponentially up to the
// configured cap; otherwise the source interval is jittered.
func (c *defaultCoordinator) nextInterval(src *state.Source) time.Duration {
	syncCfg := c.config.Sync
	base := src.Config.GetInterval(syncCfg.DefaultInterval)
	threshold := max(syncCfg.FailureThreshold, 1)

	failures := src.State.ConsecutiveFailures
	if src.State.Health != status.HealthDegraded || failures < threshold {
		return withJitter(base, intervalJitterFraction)
	}

	multiplier := syncCfg.DegradedMultiplier
	if multiplier < 1 {
		multiplier = 1
	}
	backoff := float64(base) * math.Pow(multiplier, float64(failures-threshold+1))

	limit := syncCfg.MaxDegradedInterval
	if limit <= 0 || backoff < float64(limit) {
		limit = time.Duration(backoff)
	}
	return withJitter(limit, intervalJitterFraction)
}

// reconcile starts a timer for every enabled source without one and stops
// the timers of sources that were disabled or removed
func (c *defaultCoordinator) reconcile(ctx context.Context) {
	sources, err := c.stateSvc.ListSources(ctx)
	if err != nil {
		slog.Error("Error listing sources", "error", err)
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	enabled := make(map[string]bool, len(sources))
	for _, src := range sources {
		c.sourceMetrics.RecordHealth(ctx, src.Config.ID, string(src.State.Health))
		if !src.State.Enabled {
			continue
		}
		id := src.Config.ID
		enabled[id] = true
		if _, ok := c.timers[id]; ok {
			continue
		}

		timerCtx, cancel := context.WithCancel(ctx)
		c.timers[id] = cancel
		delay := startupDelay(c.startupJitter)
		slog.Info("Scheduling source", "source", id, "first_run_in", delay)
		c.wg.Go(func() { c.runTimer(timerCtx, id, delay) })
	}

	for id, cancel := range c.timers {
		if !enabled[id] {
			cancel()
			delete(c.timers, id)
			slog.Info("Stopped scheduling source", "source", id)
		}
	}
}

// runTimer enqueues a scheduled job for sourceID every time its timer fires
func (c *defaultCoordinator) runTimer(ctx context.Context, sourceID string, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			c.scheduleTick(ctx, sourceID)

			next := c.config.Sync.DefaultInterval
			if src, err := c.stateSvc.GetSource(ctx, sourceID); err != nil {
				slog.Error("Error loading source for scheduling", "source", sourceID, "error", err)
			} else {
				next = c.nextInterval(src)
			}
			slog.Debug("Next scheduled sync", "source", sourceID, "in", next)
			timer.Reset(next)
		}
	}
}

// scheduleTick queues a scheduled run of sourceID unless one is already
// queued or the source has an active run
func (c *defaultCoordinator) scheduleTick(ctx context.Context, sourceID string) bool {
	if !c.setPending(sourceID, true) {
		slog.Debug("Scheduled tick skipped, a run is already queued", "source", sourceID)
		return false
	}

	latest, err := c.stateSvc.GetLatestRun(ctx, sourceID)
	switch {
	case err != nil:
		// BeginRun still refuses a second active run
		slog.Warn("Error checking for an active run", "source", sourceID, "error", err)
	case latest != nil && !latest.Status.IsTerminal():
		c.setPending(sourceID, false)
		slog.Info("Scheduled tick skipped, source has an active run", "source", sourceID, "active_run", latest.ID)
		return false
	}

	if !c.enqueue(job{sourceID: sourceID, trigger: status.TriggerSchedule}) {
		c.setPending(sourceID, false)
		slog.Warn("Sync queue full, dropping scheduled tick", "source", sourceID)
		return false
	}
	return true
}

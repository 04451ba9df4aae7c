package state

import (
	"fmt"
	"time"

	"github.com/stacklok/oparl-sync/internal/status"
)

// HealthPolicy decides when a source becomes degraded
type HealthPolicy struct {
	// FailureThreshold is the number of consecutive failed runs, and
	// separately of consecutive partial runs, that degrade a source
	FailureThreshold int
}

// Transition applies the outcome of a finished run to the state of its
// source. A failed run counts towards the failure backoff; a partial run
// resets it but repeated partial runs still degrade the source so the
// problem is visible. Disabled sources stay disabled. Success timestamps are
// set to startedAt, the point in time the run observed the source.
func (p HealthPolicy) Transition(
	current status.SourceState,
	runStatus status.RunStatus,
	mode status.RunMode,
	startedAt time.Time,
) status.SourceState {
	next := current
	threshold := max(p.FailureThreshold, 1)

	switch runStatus {
	case status.RunStatusFailed:
		next.ConsecutiveFailures++
		if next.ConsecutiveFailures >= threshold {
			next.Health = status.HealthDegraded
			next.HealthReason = fmt.Sprintf("%d consecutive failed sync runs", next.ConsecutiveFailures)
		}
	case status.RunStatusPartial:
		next.ConsecutiveFailures = 0
		next.ConsecutivePartials++
		next.LastSuccessAt = &startedAt
		if next.ConsecutivePartials >= threshold {
			next.Health = status.HealthDegraded
			next.HealthReason = fmt.Sprintf("%d consecutive partial sync runs", next.ConsecutivePartials)
		} else {
			next.Health = status.HealthHealthy
			next.HealthReason = ""
		}
	case status.RunStatusCompleted:
		next.ConsecutiveFailures = 0
		next.ConsecutivePartials = 0
		next.Health = status.HealthHealthy
		next.HealthReason = ""
		next.LastSuccessAt = &startedAt
		if mode == status.RunModeFull {
			next.LastFullSyncAt = &startedAt
		}
	}

	if !current.Enabled {
		next.Health = status.HealthDisabled
		next.HealthReason = current.HealthReason
	}
	return next
}

// Package status defines the run and health vocabulary shared by the sync
// engine, its persistence layer and the administrative surface.
package status

import "time"

// RunStatus represents the lifecycle state of a SyncRun
type RunStatus string

const (
	// RunStatusPending means the run lock was taken but work has not started
	RunStatusPending RunStatus = "PENDING"

	// RunStatusRunning means the run is walking the source
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted means the run finished without any error
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusPartial means the run finished but some pages or entities failed
	RunStatusPartial RunStatus = "PARTIAL"

	// RunStatusFailed means the source was unreachable or the run produced nothing usable
	RunStatusFailed RunStatus = "FAILED"
)

// IsTerminal reports whether the status can no longer change
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusPartial, RunStatusFailed:
		return true
	default:
		return false
	}
}

// AdvancesCursor reports whether a run ending in this status may move body cursors
func (s RunStatus) AdvancesCursor() bool {
	return s == RunStatusCompleted || s == RunStatusPartial
}

// RunMode selects the fetch strategy of a SyncRun
type RunMode string

const (
	// RunModeFull walks every collection and tombstones unseen entities
	RunModeFull RunMode = "FULL"

	// RunModeIncremental fetches only records modified since the body cursor
	RunModeIncremental RunMode = "INCREMENTAL"
)

// Trigger records what started a SyncRun
type Trigger string

const (
	// TriggerSchedule is a timer tick of the scheduler daemon
	TriggerSchedule Trigger = "SCHEDULE"

	// TriggerManual is an administrative request
	TriggerManual Trigger = "MANUAL"
)

// Health is the health state of a Source
type Health string

const (
	// HealthHealthy is the normal state
	HealthHealthy Health = "HEALTHY"

	// HealthDegraded means repeated failures; the scheduler backs off
	HealthDegraded Health = "DEGRADED"

	// HealthDisabled means the source was switched off administratively
	HealthDisabled Health = "DISABLED"
)

// Counts aggregates per-entity outcomes of a run
type Counts struct {
	Fetched    int `json:"fetched"`
	Created    int `json:"created"`
	Updated    int `json:"updated"`
	Unchanged  int `json:"unchanged"`
	Tombstoned int `json:"tombstoned"`
	Errored    int `json:"errored"`
}

// Add accumulates other into c
func (c *Counts) Add(other Counts) {
	c.Fetched += other.Fetched
	c.Created += other.Created
	c.Updated += other.Updated
	c.Unchanged += other.Unchanged
	c.Tombstoned += other.Tombstoned
	c.Errored += other.Errored
}

// RunError is one attributable failure recorded against a SyncRun
type RunError struct {
	Type       string    `json:"type"`
	Code       string    `json:"code"`
	BodyID     string    `json:"bodyId,omitempty"`
	EntityID   string    `json:"entityId,omitempty"`
	URL        string    `json:"url,omitempty"`
	Message    string    `json:"message"`
	OccurredAt time.Time `json:"occurredAt"`
}

// SyncRun is the persisted record of one synchronization attempt
type SyncRun struct {
	ID         string     `json:"id"`
	SourceID   string     `json:"sourceId"`
	Mode       RunMode    `json:"mode"`
	Status     RunStatus  `json:"status"`
	Trigger    Trigger    `json:"trigger"`
	StartedAt  time.Time  `json:"startedAt"`
	EndedAt    *time.Time `json:"endedAt,omitempty"`
	Counts     Counts     `json:"counts"`
	ErrorCount int        `json:"errorCount"`
	Note       string     `json:"note,omitempty"`
}

// SourceState is the mutable scheduling and health state of a Source
type SourceState struct {
	SourceID               string     `json:"sourceId"`
	Name                   string     `json:"name,omitempty"`
	BaseURL                string     `json:"baseUrl"`
	Enabled                bool       `json:"enabled"`
	ModifiedSinceSupported bool       `json:"modifiedSinceSupported"`
	Health                 Health     `json:"health"`
	HealthReason           string     `json:"healthReason,omitempty"`
	ConsecutiveFailures    int        `json:"consecutiveFailures"`
	ConsecutivePartials    int        `json:"consecutivePartials"`
	LastSuccessAt          *time.Time `json:"lastSuccessAt,omitempty"`
	LastFullSyncAt         *time.Time `json:"lastFullSyncAt,omitempty"`
	Interval               string     `json:"interval,omitempty"`
	Concurrency            int        `json:"concurrency,omitempty"`
	RequestsPerSecond      float64    `json:"requestsPerSecond,omitempty"`
}

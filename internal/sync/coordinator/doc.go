// Package coordinator schedules and executes sync runs for OParl sources.
//
// It sits on top of sync.Manager and handles:
//
//   - One timer per enabled source feeding a bounded work queue
//   - A fixed pool of workers consuming the queue
//   - Manual triggers with a forced run mode
//   - Run finalization, health transitions and change publication
//   - Crash recovery of runs left behind by a previous process
//
// # Architecture
//
//   - internal/sync: what a run does (mode selection, walking, writing)
//   - internal/sync/coordinator: when runs happen and how they are finalized
//   - cmd/oparl-sync/app: process lifecycle (starts and stops the coordinator)
//
// # Run Lifecycle
//
//  1. A timer tick or a manual trigger enqueues a job. A full queue drops
//     the tick.
//  2. A worker loads the source and asks Manager.ShouldSync for the mode.
//  3. state.BeginRun takes the run lock. A *syncerr.ConcurrentRunError
//     means another run is active; the job is skipped and logged.
//  4. Manager.PerformSync executes the run.
//  5. Errors and body cursors are persisted, and FinishRun records the
//     terminal status together with the health transition of the source.
//  6. Pending change events of the source are published.
//
// # Scheduling
//
// Healthy sources run every configured interval with ±10% jitter. Sources
// degraded by consecutive failed runs back off exponentially up to
// maxDegradedInterval. The set of scheduled sources is reconciled with the
// store every two minutes, so sources added or disabled through the
// administrative surface are picked up without a restart.
//
// # Usage Example
//
//	syncManager := sync.NewDefaultSyncManager(clients, syncWriter, transformer, cfg.Sync)
//	stateService := state.NewDBStateService(pool, state.HealthPolicy{FailureThreshold: 3})
//
//	coord := coordinator.New(syncManager, stateService, cfg,
//	    coordinator.WithOutbox(notify.NewOutbox(pool, publisher)))
//
//	go coord.Start(ctx)
//	defer coord.Stop()
package coordinator

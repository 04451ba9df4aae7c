// Package sync replicates OParl sources into the local store.
//
// # Core Interfaces
//
//   - Manager: selects the fetch mode of a run and executes it
//   - ChangeDetector: classifies fetched entities against their stored replica
//
// The sync/coordinator subpackage schedules runs, holds the per-source run
// lock through the state service and finalizes runs. The sync/writer and
// sync/state subpackages persist the replica and the run bookkeeping.
//
// # Runs
//
// A run discovers the bodies of a source from its System object and walks
// the organization, person, meeting and paper collections of every body,
// feeding each page through the transformer, the change detector and the
// writer. Bodies are processed by a bounded worker pool. Within a
// collection, the fetch of the next page overlaps the processing of the
// current one.
//
// Full runs tombstone the entities of a body that the run did not observe,
// but only for bodies whose collections were walked to the end without
// errors. Incremental runs pass the body's modified cursor as the
// modified_since filter and never tombstone by absence; records the source
// flags as deleted are tombstoned in either mode.
//
// # Terminal Status
//
//   - Completed: no page or entity error was recorded
//   - Partial: some errors were recorded, the run budget ran out, or the
//     run was cancelled
//   - Failed: the System object or body list could not be fetched, or every
//     body was unreachable
//
// Failed runs are reported through the Error type, which carries a
// condition type and reason for the status surface.
package sync

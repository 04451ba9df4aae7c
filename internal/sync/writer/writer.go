// Package writer contains the SyncWriter interface and implementations
package writer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/transform"
)

//go:generate mockgen -destination=mocks/mock_sync_writer.go -package=mocks -source=writer.go SyncWriter

// Classification is the outcome of comparing a fetched entity with its stored replica
type Classification string

const (
	// ClassificationNew marks an entity that is not stored yet
	ClassificationNew Classification = "new"
	// ClassificationChanged marks a stored entity whose content changed, or a
	// tombstoned entity that reappeared
	ClassificationChanged Classification = "changed"
	// ClassificationUnchanged marks a stored entity with an equal fingerprint
	ClassificationUnchanged Classification = "unchanged"
	// ClassificationDeleted marks a live entity the source flagged as deleted
	ClassificationDeleted Classification = "deleted"
)

// StoredEntity is the slice of a stored entity needed for change detection
type StoredEntity struct {
	ID          uuid.UUID
	ExternalID  string
	Kind        transform.Kind
	Fingerprint string
	Tombstoned  bool
}

// Diff is one classified entity ready to be applied
type Diff struct {
	SourceID       string
	BodyID         uuid.UUID
	Entity         *transform.Entity
	Stored         *StoredEntity
	Classification Classification
}

// EntityFailure is a diff that could not be written
type EntityFailure struct {
	Diff Diff
	Err  error
}

// BatchResult reports what Apply wrote
type BatchResult struct {
	Created    int
	Updated    int
	Tombstoned int
	Failed     []EntityFailure
}

// BodyRecord is the stored state of a Body
type BodyRecord struct {
	ID uuid.UUID
	// Cursor is the committed modified cursor, nil before the first advance
	Cursor *time.Time
}

// TombstonedEntity identifies an entity marked deleted by the tombstone pass
type TombstonedEntity struct {
	ExternalID string
	Kind       transform.Kind
}

// ResolveResult reports the outcome of a reference resolution pass
type ResolveResult struct {
	Resolved   int64
	Unresolved int64
}

// SyncWriter persists the replica of a source.
type SyncWriter interface {
	// UpsertBody stores a discovered Body and returns its local identity and cursor
	UpsertBody(ctx context.Context, sourceID string, body *sources.Body) (BodyRecord, error)

	// Lookup returns the stored entities among externalIDs, keyed by external id
	Lookup(ctx context.Context, sourceID string, externalIDs []string) (map[string]*StoredEntity, error)

	// Apply writes a batch of new, changed and deleted entities in one
	// transaction. Unchanged diffs are ignored. Entity-level failures are
	// reported in the result; the error return is reserved for failures that
	// left the whole batch unwritten.
	Apply(ctx context.Context, runID uuid.UUID, batch []Diff) (BatchResult, error)

	// Touch marks unchanged entities as seen by the run without writing content
	Touch(ctx context.Context, runID uuid.UUID, ids []uuid.UUID) error

	// ResolveReferences links deferred pointers whose target has arrived
	ResolveReferences(ctx context.Context, sourceID string) (ResolveResult, error)

	// TombstoneUnseen tombstones the live entities of a Body the run did not see
	TombstoneUnseen(ctx context.Context, sourceID string, bodyID, runID uuid.UUID) ([]TombstonedEntity, error)
}

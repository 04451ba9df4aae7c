package sync

import (
	"github.com/stacklok/oparl-sync/internal/sync/writer"
	"github.com/stacklok/oparl-sync/internal/transform"
)

// ChangeDetector classifies fetched entities against their stored replica
type ChangeDetector interface {
	// Classify compares entity with stored, which is nil for unknown entities
	Classify(entity *transform.Entity, stored *writer.StoredEntity) writer.Classification
}

// DefaultChangeDetector compares content fingerprints
type DefaultChangeDetector struct{}

var _ ChangeDetector = DefaultChangeDetector{}

// Classify implements ChangeDetector
func (DefaultChangeDetector) Classify(entity *transform.Entity, stored *writer.StoredEntity) writer.Classification {
	return Classify(entity, stored)
}

// Classify decides whether entity is new, changed, unchanged or deleted.
//
// The fingerprint is the only change signal; source timestamps are ignored.
// A tombstoned entity that shows up again is Changed, which clears its
// tombstone. A deletion flag on an entity that is unknown or already
// tombstoned has nothing to delete and is Unchanged.
func Classify(entity *transform.Entity, stored *writer.StoredEntity) writer.Classification {
	if entity.Deleted {
		if stored == nil || stored.Tombstoned {
			return writer.ClassificationUnchanged
		}
		return writer.ClassificationDeleted
	}

	switch {
	case stored == nil:
		return writer.ClassificationNew
	case stored.Tombstoned:
		return writer.ClassificationChanged
	case stored.Fingerprint == entity.Fingerprint:
		return writer.ClassificationUnchanged
	default:
		return writer.ClassificationChanged
	}
}

package transform

import (
	"encoding/json"
	"time"
)

// Reference is an outgoing pointer from an entity to another entity of the
// same source, identified by the target's external id
type Reference struct {
	Field  string
	Target string
}

// Entity is a normalized record
type Entity struct {
	ExternalID string
	Kind       Kind
	Name       string

	// Modified is the source-reported modification time, zero if absent
	Modified time.Time

	// Deleted is set for records the source flagged with deleted: true
	Deleted bool

	// Payload holds the normalized known fields. Embedded objects appear as
	// the external ids of the child entities.
	Payload map[string]any

	// Extra keeps unknown fields verbatim. It is stored but never fingerprinted.
	Extra map[string]json.RawMessage

	References []Reference

	// Children are the entities embedded in this record
	Children []*Entity

	Fingerprint string
}

// Flatten returns the entity followed by all its descendants, depth first
func (e *Entity) Flatten() []*Entity {
	out := []*Entity{e}
	for _, c := range e.Children {
		out = append(out, c.Flatten()...)
	}
	return out
}

// PayloadJSON encodes the payload for storage
func (e *Entity) PayloadJSON() ([]byte, error) {
	if e.Payload == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(e.Payload)
}

// ExtraJSON encodes the unknown fields for storage, nil when there are none
func (e *Entity) ExtraJSON() ([]byte, error) {
	if len(e.Extra) == 0 {
		return nil, nil
	}
	return json.Marshal(e.Extra)
}

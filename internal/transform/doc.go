// Package transform normalizes raw OParl records into entities.
//
// Every kind has a table of known fields with a class (string, timestamp,
// reference, embedded object, ...). The table drives both the structural JSON
// schema a record is validated against and the normalization of its fields.
// Embedded objects become child entities referenced by their parent; unknown
// fields are kept in Entity.Extra and do not contribute to the fingerprint.
package transform

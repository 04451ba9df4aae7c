// Package integration runs the complete oparl-sync engine against a real
// PostgreSQL container and an in-memory OParl endpoint, driving it through
// the administrative HTTP API.
package integration

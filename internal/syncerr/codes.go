// Package syncerr defines the error taxonomy of the sync engine.
//
// Every failure below the SyncRun level is represented by one of the typed
// errors in this package so that it can be classified (retry or skip),
// aggregated into the run's error list and surfaced with a stable code.
package syncerr

// Code is a stable, string-based identifier of an error condition.
type Code string

const (
	// CodeNetwork indicates a connection failure or 5xx response.
	CodeNetwork Code = "NETWORK_ERROR"

	// CodeTimeout indicates a request exceeded its time limit.
	CodeTimeout Code = "TIMEOUT"

	// CodeRateLimit indicates the source answered 429.
	CodeRateLimit Code = "RATE_LIMIT_EXCEEDED"

	// CodeInvalidRequest indicates a 4xx response other than 429.
	CodeInvalidRequest Code = "INVALID_REQUEST"

	// CodeNotFound indicates a 404 or 410 response.
	CodeNotFound Code = "NOT_FOUND"

	// CodeBrokenPagination indicates a malformed or cyclic next link.
	CodeBrokenPagination Code = "BROKEN_PAGINATION"

	// CodeMalformedResponse indicates a response body that is not a valid list or object.
	CodeMalformedResponse Code = "MALFORMED_RESPONSE"

	// CodeSchemaFailed indicates a record failed structural validation.
	CodeSchemaFailed Code = "SCHEMA_VALIDATION_FAILED"

	// CodeConflict indicates a storage conflict such as a serialization failure.
	CodeConflict Code = "CONFLICT"

	// CodeDatabase indicates any other storage failure.
	CodeDatabase Code = "DATABASE_ERROR"

	// CodeSourceUnreachable indicates the source could not be reached at all.
	CodeSourceUnreachable Code = "SOURCE_UNREACHABLE"

	// CodeAlreadyRunning indicates a non-terminal run already exists for the source.
	CodeAlreadyRunning Code = "ALREADY_RUNNING"

	// CodeAbandoned indicates work not started or not finished before the run budget ran out.
	CodeAbandoned Code = "ABANDONED"

	// CodeCancelled indicates work interrupted by shutdown.
	CodeCancelled Code = "CANCELLED"
)

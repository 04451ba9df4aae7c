package syncerr

import (
	"errors"
	"fmt"
	"time"
)

// Type names used when errors are persisted against a SyncRun.
const (
	TypeTransientNetwork  = "TransientNetworkError"
	TypePermanentRequest  = "PermanentRequestError"
	TypeTransform         = "TransformError"
	TypeStorageConflict   = "StorageConflictError"
	TypeStorage           = "StorageError"
	TypeSourceUnreachable = "SourceUnreachableError"
	TypeConcurrentRun     = "ConcurrentRunError"
	TypeRunBudget         = "RunBudgetError"
)

// TransientNetworkError is a failure that may succeed when retried:
// connection errors, timeouts, 5xx and 429 responses.
type TransientNetworkError struct {
	URL        string
	StatusCode int
	Code       Code
	// RetryAfter is the cooldown requested by the source, if any
	RetryAfter time.Duration
	Err        error
}

func (e *TransientNetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transient error fetching %s: HTTP %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("transient error fetching %s: %v", e.URL, e.Err)
}

func (e *TransientNetworkError) Unwrap() error { return e.Err }

// PermanentRequestError is a failure that will not succeed when retried.
// The affected page or resource is skipped and recorded.
type PermanentRequestError struct {
	URL        string
	StatusCode int
	Code       Code
	Message    string
	Err        error
}

func (e *PermanentRequestError) Error() string {
	switch {
	case e.Message != "":
		return fmt.Sprintf("permanent error fetching %s: %s", e.URL, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("permanent error fetching %s: HTTP %d", e.URL, e.StatusCode)
	default:
		return fmt.Sprintf("permanent error fetching %s: %v", e.URL, e.Err)
	}
}

func (e *PermanentRequestError) Unwrap() error { return e.Err }

// TransformError reports a record that could not be normalized.
type TransformError struct {
	ExternalID string
	Kind       string
	Code       Code
	Reason     string
	Err        error
}

func (e *TransformError) Error() string {
	id := e.ExternalID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("cannot transform %s %s: %s", e.Kind, id, e.Reason)
}

func (e *TransformError) Unwrap() error { return e.Err }

// StorageConflictError reports a batch that failed on a transactional conflict.
type StorageConflictError struct {
	SQLState string
	Err      error
}

func (e *StorageConflictError) Error() string {
	return fmt.Sprintf("storage conflict (SQLSTATE %s): %v", e.SQLState, e.Err)
}

func (e *StorageConflictError) Unwrap() error { return e.Err }

// SourceUnreachableError reports that the source could not serve its entry points.
type SourceUnreachableError struct {
	SourceID string
	Err      error
}

func (e *SourceUnreachableError) Error() string {
	return fmt.Sprintf("source %s unreachable: %v", e.SourceID, e.Err)
}

func (e *SourceUnreachableError) Unwrap() error { return e.Err }

// ConcurrentRunError reports that a non-terminal run already holds the source lock.
type ConcurrentRunError struct {
	SourceID string
	RunID    string
}

func (e *ConcurrentRunError) Error() string {
	if e.RunID != "" {
		return fmt.Sprintf("source %s already has active run %s", e.SourceID, e.RunID)
	}
	return fmt.Sprintf("source %s already has an active run", e.SourceID)
}

// IsRetryable reports whether err should be retried by the remote client.
func IsRetryable(err error) bool {
	var transient *TransientNetworkError
	return errors.As(err, &transient)
}

// IsConcurrentRun reports whether err is a ConcurrentRunError.
func IsConcurrentRun(err error) bool {
	var c *ConcurrentRunError
	return errors.As(err, &c)
}

// Classify returns the persisted type name and code for err.
func Classify(err error) (string, Code) {
	var (
		transient   *TransientNetworkError
		permanent   *PermanentRequestError
		transform   *TransformError
		conflict    *StorageConflictError
		unreachable *SourceUnreachableError
		concurrent  *ConcurrentRunError
	)
	switch {
	case errors.As(err, &unreachable):
		return TypeSourceUnreachable, CodeSourceUnreachable
	case errors.As(err, &transient):
		return TypeTransientNetwork, transient.Code
	case errors.As(err, &permanent):
		return TypePermanentRequest, permanent.Code
	case errors.As(err, &transform):
		return TypeTransform, transform.Code
	case errors.As(err, &conflict):
		return TypeStorageConflict, CodeConflict
	case errors.As(err, &concurrent):
		return TypeConcurrentRun, CodeAlreadyRunning
	default:
		return TypeStorage, CodeDatabase
	}
}

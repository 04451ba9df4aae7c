package sync

import (
	"errors"
	"time"

	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// IsManualSync checks if the decision reason indicates an administrative trigger
func IsManualSync(reason string) bool {
	return reason == ReasonManualFull || reason == ReasonManualIncremental
}

// newRunError converts err into a persisted run error
func newRunError(err error, bodyID, entityID, url string, at time.Time) status.RunError {
	errType, code := syncerr.Classify(err)

	var te *syncerr.TransformError
	if entityID == "" && errors.As(err, &te) {
		entityID = te.ExternalID
	}

	return status.RunError{
		Type:       errType,
		Code:       string(code),
		BodyID:     bodyID,
		EntityID:   entityID,
		URL:        url,
		Message:    err.Error(),
		OccurredAt: at.UTC(),
	}
}

// errorURL returns the URL a request error refers to, or fallback
func errorURL(err error, fallback string) string {
	var (
		transient *syncerr.TransientNetworkError
		permanent *syncerr.PermanentRequestError
	)
	switch {
	case errors.As(err, &transient) && transient.URL != "":
		return transient.URL
	case errors.As(err, &permanent) && permanent.URL != "":
		return permanent.URL
	default:
		return fallback
	}
}

// chunk splits items into slices of at most size elements. A size below one
// yields a single chunk.
func chunk[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size < 1 {
		return [][]T{items}
	}
	out := make([][]T, 0, (len(items)+size-1)/size)
	for size < len(items) {
		items, out = items[size:], append(out, items[:size:size])
	}
	return append(out, items)
}

// Package otel provides OpenTelemetry instrumentation utilities for the sync engine.
package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// Attribute keys shared by the sync pipeline and the admin service
const (
	AttrSourceID    = attribute.Key("oparl.source.id")
	AttrRunID       = attribute.Key("oparl.run.id")
	AttrRunMode     = attribute.Key("oparl.run.mode")
	AttrRunStatus   = attribute.Key("oparl.run.status")
	AttrBodyID      = attribute.Key("oparl.body.id")
	AttrCollection  = attribute.Key("oparl.collection")
	AttrPageURL     = attribute.Key("oparl.page.url")
	AttrResultCount = attribute.Key("result.count")
	AttrNotModified = attribute.Key("http.not_modified")

	AttrErrorType = attribute.Key("oparl.error.type")
	AttrErrorCode = attribute.Key("oparl.error.code")

	AttrFetched    = attribute.Key("oparl.run.fetched")
	AttrCreated    = attribute.Key("oparl.run.created")
	AttrUpdated    = attribute.Key("oparl.run.updated")
	AttrTombstoned = attribute.Key("oparl.run.tombstoned")
	AttrErrored    = attribute.Key("oparl.run.errored")
)

// StartSpan starts a span on tracer. A nil tracer yields the span already in
// ctx, usually a no-op one.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records err on span and marks it failed. The status
// description carries only the error code; the message, which may contain
// URLs or SQL, stays in the exception event.
func RecordError(span trace.Span, err error) {
	if err == nil || span == nil {
		return
	}
	errType, code := syncerr.Classify(err)
	span.RecordError(err)
	span.SetAttributes(AttrErrorType.String(errType), AttrErrorCode.String(string(code)))
	span.SetStatus(codes.Error, string(code))
}

// SetRunOutcome annotates a run span with its terminal status and counts.
// Partial and failed runs mark the span as an error.
func SetRunOutcome(span trace.Span, runStatus status.RunStatus, counts status.Counts) {
	if span == nil {
		return
	}
	span.SetAttributes(
		AttrRunStatus.String(string(runStatus)),
		AttrFetched.Int(counts.Fetched),
		AttrCreated.Int(counts.Created),
		AttrUpdated.Int(counts.Updated),
		AttrTombstoned.Int(counts.Tombstoned),
		AttrErrored.Int(counts.Errored),
	)
	if runStatus == status.RunStatusPartial || runStatus == status.RunStatusFailed {
		span.SetStatus(codes.Error, string(runStatus))
	}
}

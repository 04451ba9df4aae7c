package otel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

func recordSpan(t *testing.T, fn func(trace.Span)) tracetest.SpanStub {
	t.Helper()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := StartSpan(context.Background(), tp.Tracer("test"), "sync.run")
	fn(span)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	return spans[0]
}

func attrValue(attrs []attribute.KeyValue, key attribute.Key) (attribute.Value, bool) {
	for _, a := range attrs {
		if a.Key == key {
			return a.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	parent := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: trace.TraceID{1},
		SpanID:  trace.SpanID{2},
	}))

	ctx, span := StartSpan(parent, nil, "sync.body")
	assert.Equal(t, parent, ctx)
	assert.Equal(t, trace.SpanID{2}, span.SpanContext().SpanID())
	assert.NotPanics(t, func() { span.End() })
}

func TestRecordError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantType string
		wantCode string
	}{
		{
			name:     "source unreachable",
			err:      &syncerr.SourceUnreachableError{SourceID: "bonn", Err: errors.New("dial tcp: refused")},
			wantType: syncerr.TypeSourceUnreachable,
			wantCode: string(syncerr.CodeSourceUnreachable),
		},
		{
			name:     "wrapped storage failure",
			err:      errors.New("insert entity: connection reset"),
			wantType: syncerr.TypeStorage,
			wantCode: string(syncerr.CodeDatabase),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			stub := recordSpan(t, func(span trace.Span) { RecordError(span, tt.err) })

			assert.Equal(t, codes.Error, stub.Status.Code)
			assert.Equal(t, tt.wantCode, stub.Status.Description)
			assert.NotContains(t, stub.Status.Description, "refused")

			errType, ok := attrValue(stub.Attributes, AttrErrorType)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, errType.AsString())

			require.Len(t, stub.Events, 1)
			assert.Equal(t, "exception", stub.Events[0].Name)
		})
	}
}

func TestRecordError_NilSafety(t *testing.T) {
	t.Parallel()

	assert.NotPanics(t, func() { RecordError(nil, errors.New("x")) })

	stub := recordSpan(t, func(span trace.Span) { RecordError(span, nil) })
	assert.Equal(t, codes.Unset, stub.Status.Code)
	assert.Empty(t, stub.Events)
}

func TestSetRunOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		status   status.RunStatus
		wantCode codes.Code
	}{
		{status.RunStatusCompleted, codes.Unset},
		{status.RunStatusPartial, codes.Error},
		{status.RunStatusFailed, codes.Error},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			t.Parallel()

			counts := status.Counts{Fetched: 3, Created: 2, Updated: 1, Errored: 1}
			stub := recordSpan(t, func(span trace.Span) { SetRunOutcome(span, tt.status, counts) })

			assert.Equal(t, tt.wantCode, stub.Status.Code)

			runStatus, ok := attrValue(stub.Attributes, AttrRunStatus)
			require.True(t, ok)
			assert.Equal(t, string(tt.status), runStatus.AsString())

			fetched, ok := attrValue(stub.Attributes, AttrFetched)
			require.True(t, ok)
			assert.Equal(t, int64(3), fetched.AsInt64())
		})
	}
}

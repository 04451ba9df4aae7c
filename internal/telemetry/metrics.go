// Package telemetry provides OpenTelemetry instrumentation for the sync engine.
package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SourceMetricsMeterName is the name used for the source metrics meter
	SourceMetricsMeterName = "github.com/stacklok/oparl-sync/source"

	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/stacklok/oparl-sync/sync"
)

// Page fetch results
const (
	PageResultOK          = "ok"
	PageResultNotModified = "not_modified"
	PageResultError       = "error"
)

// SourceMetrics holds the OpenTelemetry instruments for source health
type SourceMetrics struct {
	health metric.Int64Gauge
}

// NewSourceMetrics creates a new SourceMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSourceMetrics(provider metric.MeterProvider) (*SourceMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SourceMetricsMeterName)

	health, err := meter.Int64Gauge(
		"oparl_sync_source_health",
		metric.WithDescription("Health of each source: 0 healthy, 1 degraded, 2 disabled"),
		metric.WithUnit("{state}"),
	)
	if err != nil {
		return nil, err
	}

	return &SourceMetrics{
		health: health,
	}, nil
}

// RecordHealth records the health state of a source
func (m *SourceMetrics) RecordHealth(ctx context.Context, sourceID, health string) {
	if m == nil || m.health == nil {
		return
	}

	var value int64
	switch health {
	case "DEGRADED":
		value = 1
	case "DISABLED":
		value = 2
	}

	m.health.Record(ctx, value, metric.WithAttributes(attribute.String("source", sourceID)))
}

// SyncMetrics holds the OpenTelemetry instruments for sync run metrics
type SyncMetrics struct {
	runDuration    metric.Float64Histogram
	entityOutcomes metric.Int64Counter
	pageFetches    metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}

	meter := provider.Meter(SyncMetricsMeterName)

	runDuration, err := meter.Float64Histogram(
		"oparl_sync_run_duration_seconds",
		metric.WithDescription("Duration of sync runs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(1, 5, 15, 30, 60, 300, 900, 1800, 3600, 7200),
	)
	if err != nil {
		return nil, err
	}

	entityOutcomes, err := meter.Int64Counter(
		"oparl_sync_entities_total",
		metric.WithDescription("Entities processed by outcome"),
		metric.WithUnit("{entity}"),
	)
	if err != nil {
		return nil, err
	}

	pageFetches, err := meter.Int64Counter(
		"oparl_sync_page_fetches_total",
		metric.WithDescription("List pages fetched by result"),
		metric.WithUnit("{page}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		runDuration:    runDuration,
		entityOutcomes: entityOutcomes,
		pageFetches:    pageFetches,
	}, nil
}

// RecordRunDuration records the duration of a finished run
func (m *SyncMetrics) RecordRunDuration(ctx context.Context, sourceID string, duration time.Duration, status string) {
	if m == nil || m.runDuration == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", sourceID),
		attribute.String("status", status),
	}

	m.runDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
}

// RecordEntities adds n entities of a kind with the given outcome
func (m *SyncMetrics) RecordEntities(ctx context.Context, sourceID, kind, outcome string, n int) {
	if m == nil || m.entityOutcomes == nil || n == 0 {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", sourceID),
		attribute.String("kind", kind),
		attribute.String("outcome", outcome),
	}

	m.entityOutcomes.Add(ctx, int64(n), metric.WithAttributes(attrs...))
}

// RecordPageFetch counts one page fetch
func (m *SyncMetrics) RecordPageFetch(ctx context.Context, sourceID, result string) {
	if m == nil || m.pageFetches == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("source", sourceID),
		attribute.String("result", result),
	}

	m.pageFetches.Add(ctx, 1, metric.WithAttributes(attrs...))
}

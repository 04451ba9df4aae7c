package telemetry

import (
	"context"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/resource"
)

func TestMetricReaders(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		metrics     *MetricsConfig
		registry    prometheus.Registerer
		wantReaders int
		wantErr     string
	}{
		{
			name:        "otlp push only",
			metrics:     &MetricsConfig{Enabled: true},
			wantReaders: 1,
		},
		{
			name:        "prometheus only",
			metrics:     &MetricsConfig{Prometheus: true},
			registry:    prometheus.NewRegistry(),
			wantReaders: 1,
		},
		{
			name:        "both exporters",
			metrics:     &MetricsConfig{Enabled: true, Prometheus: true},
			registry:    prometheus.NewRegistry(),
			wantReaders: 2,
		},
		{
			name:    "prometheus without registry",
			metrics: &MetricsConfig{Prometheus: true},
			wantErr: "requires a registry",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := (&Config{Enabled: true, Insecure: true, Metrics: tt.metrics}).resolved()
			readers, err := metricReaders(context.Background(), cfg, tt.registry)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, readers, tt.wantReaders)
			for _, r := range readers {
				_ = r.Shutdown(context.Background())
			}
		})
	}
}

func TestNewMeterProvider_SyncMetricsReachPrometheus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	reg := prometheus.NewRegistry()
	cfg := (&Config{Enabled: true, Metrics: &MetricsConfig{Prometheus: true}}).resolved()
	mp, err := newMeterProvider(ctx, cfg, resource.Empty(), reg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	sourceMetrics, err := NewSourceMetrics(mp)
	require.NoError(t, err)
	sourceMetrics.RecordHealth(ctx, "koeln", "DEGRADED")

	families, err := reg.Gather()
	require.NoError(t, err)

	found := false
	for _, f := range families {
		if strings.HasPrefix(f.GetName(), "oparl_sync_source_health") {
			found = true
		}
	}
	assert.True(t, found, "source health gauge should be registered")
}

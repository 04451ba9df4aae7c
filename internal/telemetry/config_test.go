package telemetry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/config"
)

func TestConfig_Resolved(t *testing.T) {
	t.Parallel()

	t.Run("empty config gets defaults", func(t *testing.T) {
		t.Parallel()

		got := (&Config{Enabled: true}).resolved()
		assert.Equal(t, DefaultServiceName, got.ServiceName)
		assert.Equal(t, "unknown", got.ServiceVersion)
		assert.Equal(t, DefaultEndpoint, got.Endpoint)
		assert.Equal(t, &TracingConfig{Sampling: DefaultSampling}, got.Tracing)
		assert.Equal(t, &MetricsConfig{Interval: DefaultMetricsInterval}, got.Metrics)
	})

	t.Run("explicit values are kept and the input is not modified", func(t *testing.T) {
		t.Parallel()

		in := &Config{
			Enabled:        true,
			ServiceName:    "council-sync",
			ServiceVersion: "1.2.0",
			Endpoint:       "otel:4318",
			Tracing:        &TracingConfig{Enabled: true, Sampling: 0.5},
			Metrics:        &MetricsConfig{Enabled: true, Interval: 15 * time.Second},
		}
		got := in.resolved()

		assert.Equal(t, "council-sync", got.ServiceName)
		assert.Equal(t, "otel:4318", got.Endpoint)
		assert.Equal(t, 0.5, got.Tracing.Sampling)
		assert.Equal(t, 15*time.Second, got.Metrics.Interval)
		assert.NotSame(t, in.Tracing, got.Tracing)

		got.Tracing.Sampling = 1
		assert.Equal(t, 0.5, in.Tracing.Sampling)
	})
}

func TestFromConfig(t *testing.T) {
	t.Parallel()

	assert.Nil(t, FromConfig(nil, "1.0.0"))

	headers := map[string]string{"Authorization": "Bearer abc"}
	cfg := FromConfig(&config.TelemetryConfig{
		Enabled:         true,
		ServiceName:     "council-sync",
		Endpoint:        "otel:4318",
		Insecure:        true,
		TracingEnabled:  true,
		SamplingRate:    0.25,
		Prometheus:      true,
		MetricsInterval: 30 * time.Second,
		Headers:         headers,
	}, "1.0.0")
	require.NotNil(t, cfg)

	assert.True(t, cfg.Enabled)
	assert.Equal(t, "1.0.0", cfg.ServiceVersion)
	assert.True(t, cfg.Insecure)
	assert.Equal(t, &TracingConfig{Enabled: true, Sampling: 0.25}, cfg.Tracing)
	assert.Equal(t, &MetricsConfig{Prometheus: true, Interval: 30 * time.Second}, cfg.Metrics)

	// the on-disk map is copied
	headers["Authorization"] = "changed"
	assert.Equal(t, "Bearer abc", cfg.Headers["Authorization"])
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		config  *Config
		wantErr []string
	}{
		{name: "nil config", config: nil},
		{
			name:   "disabled config skips validation",
			config: &Config{Endpoint: "https://otel:4318", Tracing: &TracingConfig{Enabled: true, Sampling: 3}},
		},
		{
			name:   "valid config",
			config: &Config{Enabled: true, Endpoint: "otel:4318", Tracing: &TracingConfig{Enabled: true, Sampling: 1}},
		},
		{
			name:   "disabled tracing ignores sampling",
			config: &Config{Enabled: true, Tracing: &TracingConfig{Sampling: -1}},
		},
		{
			name:    "sampling above one",
			config:  &Config{Enabled: true, Tracing: &TracingConfig{Enabled: true, Sampling: 1.5}},
			wantErr: []string{"tracing: sampling must be between 0.0 and 1.0"},
		},
		{
			name:    "endpoint with scheme",
			config:  &Config{Enabled: true, Endpoint: "http://otel:4318"},
			wantErr: []string{"without a scheme"},
		},
		{
			name:    "empty header name",
			config:  &Config{Enabled: true, Headers: map[string]string{" ": "x"}},
			wantErr: []string{"header names must not be empty"},
		},
		{
			name: "all problems are reported",
			config: &Config{
				Enabled:  true,
				Endpoint: "grpc://otel:4317",
				Tracing:  &TracingConfig{Enabled: true, Sampling: -0.1},
				Metrics:  &MetricsConfig{Enabled: true, Interval: -time.Second},
			},
			wantErr: []string{"without a scheme", "sampling must be between", "interval must not be negative"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.config.Validate()
			if len(tt.wantErr) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			for _, want := range tt.wantErr {
				assert.Contains(t, err.Error(), want)
			}
		})
	}
}

func TestSignalActive(t *testing.T) {
	t.Parallel()

	var tracing *TracingConfig
	assert.False(t, tracing.active())
	assert.True(t, (&TracingConfig{Enabled: true}).active())

	var metrics *MetricsConfig
	assert.False(t, metrics.active())
	assert.False(t, (&MetricsConfig{Interval: time.Second}).active())
	assert.True(t, (&MetricsConfig{Enabled: true}).active())
	assert.True(t, (&MetricsConfig{Prometheus: true}).active())
}

// Package telemetry provides OpenTelemetry instrumentation for the sync engine.
// Traces and metrics are exported over OTLP/HTTP; metrics can additionally be
// scraped from a Prometheus endpoint.
package telemetry

import (
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/stacklok/oparl-sync/internal/config"
)

const (
	DefaultServiceName = "oparl-sync"
	DefaultEndpoint    = "localhost:4318"

	// DefaultSampling applies to runs without a sampled parent
	DefaultSampling = 0.05

	// DefaultMetricsInterval is the push interval of the OTLP exporter
	DefaultMetricsInterval = 60 * time.Second
)

// Config describes which signals are exported and where
type Config struct {
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP collector in "host:port" form, without scheme
	Endpoint string
	Insecure bool

	// Headers are sent with every OTLP export, typically collector auth
	Headers map[string]string

	Tracing *TracingConfig
	Metrics *MetricsConfig
}

// TracingConfig enables span export
type TracingConfig struct {
	Enabled  bool
	Sampling float64
}

// MetricsConfig selects the metric exporters. Enabled turns on OTLP push,
// Prometheus the pull handler served at /metrics.
type MetricsConfig struct {
	Enabled    bool
	Prometheus bool
	Interval   time.Duration
}

// FromConfig converts the on-disk telemetry section. A nil section yields nil.
func FromConfig(c *config.TelemetryConfig, version string) *Config {
	if c == nil {
		return nil
	}
	return &Config{
		Enabled:        c.Enabled,
		ServiceName:    c.ServiceName,
		ServiceVersion: version,
		Endpoint:       c.Endpoint,
		Insecure:       c.Insecure,
		Headers:        maps.Clone(c.Headers),
		Tracing:        &TracingConfig{Enabled: c.TracingEnabled, Sampling: c.SamplingRate},
		Metrics: &MetricsConfig{
			Enabled:    c.MetricsEnabled,
			Prometheus: c.Prometheus,
			Interval:   c.MetricsInterval,
		},
	}
}

// resolved returns a copy with defaults filled in and both signal sections
// present, so exporters never have to nil-check
func (c *Config) resolved() *Config {
	out := *c
	if out.ServiceName == "" {
		out.ServiceName = DefaultServiceName
	}
	if out.ServiceVersion == "" {
		out.ServiceVersion = "unknown"
	}
	if out.Endpoint == "" {
		out.Endpoint = DefaultEndpoint
	}

	tracing := TracingConfig{}
	if c.Tracing != nil {
		tracing = *c.Tracing
	}
	if tracing.Sampling == 0 {
		tracing.Sampling = DefaultSampling
	}
	out.Tracing = &tracing

	metrics := MetricsConfig{}
	if c.Metrics != nil {
		metrics = *c.Metrics
	}
	if metrics.Interval == 0 {
		metrics.Interval = DefaultMetricsInterval
	}
	out.Metrics = &metrics
	return &out
}

func (c *TracingConfig) active() bool {
	return c != nil && c.Enabled
}

func (c *MetricsConfig) active() bool {
	return c != nil && (c.Enabled || c.Prometheus)
}

// Validate reports every problem of an enabled configuration at once
func (c *Config) Validate() error {
	if c == nil || !c.Enabled {
		return nil
	}

	var errs []error
	if strings.Contains(c.Endpoint, "://") {
		errs = append(errs, fmt.Errorf("endpoint must be host:port without a scheme, got %q", c.Endpoint))
	}
	for k := range c.Headers {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, errors.New("header names must not be empty"))
			break
		}
	}
	if c.Tracing.active() && (c.Tracing.Sampling < 0 || c.Tracing.Sampling > 1) {
		errs = append(errs, fmt.Errorf("tracing: sampling must be between 0.0 and 1.0, got %f", c.Tracing.Sampling))
	}
	if c.Metrics != nil && c.Metrics.Interval < 0 {
		errs = append(errs, fmt.Errorf("metrics: interval must not be negative, got %s", c.Metrics.Interval))
	}
	return errors.Join(errs...)
}

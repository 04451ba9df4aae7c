package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// Telemetry owns the tracer and meter providers of the process. Signals that
// are not configured are served by no-op providers.
type Telemetry struct {
	tracerProvider trace.TracerProvider
	meterProvider  metric.MeterProvider
	metricsHandler http.Handler

	mu        sync.Mutex
	shutdowns []func(context.Context) error
}

// Option is a function that configures the telemetry setup
type Option func(*options)

type options struct {
	config   *Config
	registry *prometheus.Registry
}

// WithTelemetryConfig sets the telemetry configuration
func WithTelemetryConfig(cfg *Config) Option {
	return func(o *options) {
		o.config = cfg
	}
}

// WithPrometheusRegistry makes the Prometheus exporter register with reg
// instead of a private registry
func WithPrometheusRegistry(reg *prometheus.Registry) Option {
	return func(o *options) {
		o.registry = reg
	}
}

// New builds the providers described by the configuration. A nil or disabled
// configuration yields no-op providers. Call Shutdown on exit to flush.
func New(ctx context.Context, opts ...Option) (*Telemetry, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	t := &Telemetry{
		tracerProvider: tracenoop.NewTracerProvider(),
		meterProvider:  metricnoop.NewMeterProvider(),
	}

	if o.config == nil || !o.config.Enabled {
		slog.Debug("Telemetry disabled")
		return t, nil
	}
	if err := o.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid telemetry configuration: %w", err)
	}
	cfg := o.config.resolved()

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
		),
		resource.WithHost(),
		resource.WithTelemetrySDK(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	if cfg.Tracing.active() {
		tp, err := newTracerProvider(ctx, cfg, res)
		if err != nil {
			return nil, fmt.Errorf("failed to create tracer provider: %w", err)
		}
		t.tracerProvider = tp
		t.shutdowns = append(t.shutdowns, tp.Shutdown)
	}

	if cfg.Metrics.active() {
		var reg *prometheus.Registry
		if cfg.Metrics.Prometheus {
			reg = o.registry
			if reg == nil {
				reg = prometheus.NewRegistry()
			}
			t.metricsHandler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
		}

		mp, err := newMeterProvider(ctx, cfg, res, reg)
		if err != nil {
			_ = t.Shutdown(ctx)
			return nil, fmt.Errorf("failed to create meter provider: %w", err)
		}
		t.meterProvider = mp
		t.shutdowns = append(t.shutdowns, mp.Shutdown)
	}

	slog.Info("Telemetry initialized",
		"service_name", cfg.ServiceName,
		"service_version", cfg.ServiceVersion,
		"tracing", cfg.Tracing.active(),
		"metrics", cfg.Metrics.active(),
	)
	return t, nil
}

// TracerProvider returns the configured tracer provider
func (t *Telemetry) TracerProvider() trace.TracerProvider {
	return t.tracerProvider
}

// MeterProvider returns the configured meter provider
func (t *Telemetry) MeterProvider() metric.MeterProvider {
	return t.meterProvider
}

// MetricsHandler returns the Prometheus scrape handler, or nil when the
// Prometheus exporter is off.
func (t *Telemetry) MetricsHandler() http.Handler {
	return t.metricsHandler
}

// Tracer returns a named tracer from the tracer provider
func (t *Telemetry) Tracer(name string, opts ...trace.TracerOption) trace.Tracer {
	return t.tracerProvider.Tracer(name, opts...)
}

// Shutdown flushes pending spans and metrics. Later calls are no-ops.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	t.mu.Lock()
	shutdowns := t.shutdowns
	t.shutdowns = nil
	t.mu.Unlock()

	if len(shutdowns) == 0 {
		return nil
	}
	slog.Info("Shutting down telemetry")

	var errs []error
	for i := len(shutdowns) - 1; i >= 0; i-- {
		if err := shutdowns[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

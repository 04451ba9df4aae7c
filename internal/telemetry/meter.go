package telemetry

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
)

// newMeterProvider builds an SDK meter provider with one reader per enabled
// exporter. cfg must be resolved; reg is required when the Prometheus
// exporter is on.
func newMeterProvider(
	ctx context.Context,
	cfg *Config,
	res *resource.Resource,
	reg prometheus.Registerer,
) (*sdkmetric.MeterProvider, error) {
	readers, err := metricReaders(ctx, cfg, reg)
	if err != nil {
		return nil, err
	}

	providerOpts := []sdkmetric.Option{sdkmetric.WithResource(res)}
	for _, r := range readers {
		providerOpts = append(providerOpts, sdkmetric.WithReader(r))
	}

	mp := sdkmetric.NewMeterProvider(providerOpts...)
	otel.SetMeterProvider(mp)
	return mp, nil
}

func metricReaders(ctx context.Context, cfg *Config, reg prometheus.Registerer) ([]sdkmetric.Reader, error) {
	var readers []sdkmetric.Reader

	if cfg.Metrics.Enabled {
		exporterOpts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
		if len(cfg.Headers) > 0 {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(cfg.Headers))
		}
		if cfg.Insecure {
			exporterOpts = append(exporterOpts, otlpmetrichttp.WithInsecure())
		}
		exporter, err := otlpmetrichttp.New(ctx, exporterOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create OTLP metrics exporter: %w", err)
		}
		readers = append(readers, sdkmetric.NewPeriodicReader(exporter,
			sdkmetric.WithInterval(cfg.Metrics.Interval)))
		slog.Info("OTLP metrics exporter configured",
			"endpoint", cfg.Endpoint, "interval", cfg.Metrics.Interval)
	}

	if cfg.Metrics.Prometheus {
		if reg == nil {
			return nil, fmt.Errorf("prometheus exporter requires a registry")
		}
		exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
		if err != nil {
			return nil, fmt.Errorf("failed to create Prometheus exporter: %w", err)
		}
		readers = append(readers, exporter)
		slog.Info("Prometheus metrics exporter configured")
	}

	return readers, nil
}

package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/netip"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/stacklok/oparl-sync/internal/api"
	"github.com/stacklok/oparl-sync/internal/app/storage"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/notify"
	"github.com/stacklok/oparl-sync/internal/secrets"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/sources"
	pkgsync "github.com/stacklok/oparl-sync/internal/sync"
	"github.com/stacklok/oparl-sync/internal/sync/coordinator"
	"github.com/stacklok/oparl-sync/internal/telemetry"
	"github.com/stacklok/oparl-sync/internal/transform"
	"github.com/stacklok/oparl-sync/internal/versions"
)

const (
	defaultRequestTimeout = 10 * time.Second
	defaultReadTimeout    = 10 * time.Second
	defaultWriteTimeout   = 15 * time.Second
	defaultIdleTimeout    = 60 * time.Second
)

// SyncAppOptions is a function that configures the sync app builder
type SyncAppOptions func(*syncAppConfig) error

// syncAppConfig collects the builder inputs. Every component can be
// injected; missing ones are built from the configuration.
type syncAppConfig struct {
	config *config.Config

	// Optional component overrides (primarily for testing)
	clientFactory  sources.ClientFactory
	syncManager    pkgsync.Manager
	storageFactory storage.Factory
	publisher      notify.Publisher
	telemetry      *telemetry.Telemetry
	startupJitter  *time.Duration
	watchPath      string

	// HTTP server options
	address        string
	middlewares    []func(http.Handler) http.Handler
	requestTimeout time.Duration
	readTimeout    time.Duration
	writeTimeout   time.Duration
	idleTimeout    time.Duration
}

func baseConfig(opts ...SyncAppOptions) (*syncAppConfig, error) {
	cfg := &syncAppConfig{
		requestTimeout: defaultRequestTimeout,
		readTimeout:    defaultReadTimeout,
		writeTimeout:   defaultWriteTimeout,
		idleTimeout:    defaultIdleTimeout,
	}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, err
		}
	}

	if cfg.config == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if cfg.address == "" {
		cfg.address = cfg.config.Server.Address
	}

	return cfg, nil
}

// NewSyncApp builds the engine: storage, sync pipeline, scheduler, admin
// service and admin HTTP server. Nothing is started.
func NewSyncApp(
	ctx context.Context,
	opts ...SyncAppOptions,
) (*SyncApp, error) {
	cfg, err := baseConfig(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to build base configuration: %w", err)
	}

	if cfg.telemetry == nil {
		cfg.telemetry, err = telemetry.New(ctx, telemetry.WithTelemetryConfig(
			telemetry.FromConfig(cfg.config.Telemetry, versions.GetInfo().Version)))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
		}
	}

	if cfg.storageFactory == nil {
		cfg.storageFactory, err = storage.NewStorageFactory(ctx, cfg.config)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage factory: %w", err)
		}
	}

	// Ensure cleanup happens on error
	var cleanupNeeded = true
	defer func() {
		if cleanupNeeded {
			cfg.storageFactory.Cleanup()
			if cfg.publisher != nil {
				_ = cfg.publisher.Close()
			}
		}
	}()

	components, err := buildSyncComponents(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to build sync components: %w", err)
	}

	components.AdminService, err = buildServiceComponents(cfg, components)
	if err != nil {
		return nil, fmt.Errorf("failed to build service components: %w", err)
	}

	httpServer, err := buildHTTPServer(cfg, components.AdminService)
	if err != nil {
		return nil, fmt.Errorf("failed to build HTTP server: %w", err)
	}

	cleanupNeeded = false

	appCtx, cancel := context.WithCancel(ctx)
	return &SyncApp{
		config:     cfg.config,
		components: components,
		httpServer: httpServer,
		telemetry:  cfg.telemetry,
		storage:    cfg.storageFactory,
		watchPath:  cfg.watchPath,
		ctx:        appCtx,
		cancelFunc: cancel,
	}, nil
}

// WithConfig sets the configuration
func WithConfig(c *config.Config) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.config = c
		return nil
	}
}

// WithAddress sets the HTTP server address, overriding server.address
func WithAddress(addr string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if addr == "" {
			return fmt.Errorf("address cannot be empty")
		}

		host, port, found := strings.Cut(addr, ":")
		if !found || port == "" {
			return fmt.Errorf("address is not a valid port: %s", addr)
		}
		if host == "localhost" {
			host = "127.0.0.1"
		}
		if host == "" {
			host = "0.0.0.0"
		}

		if _, err := netip.ParseAddrPort(host + ":" + port); err != nil {
			return fmt.Errorf("address is not a valid port: %w", err)
		}

		cfg.address = addr
		return nil
	}
}

// WithMiddlewares sets custom HTTP middlewares
func WithMiddlewares(mw ...func(http.Handler) http.Handler) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.middlewares = mw
		return nil
	}
}

// WithStorageFactory allows injecting a custom storage factory (for testing)
func WithStorageFactory(f storage.Factory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.storageFactory = f
		return nil
	}
}

// WithClientFactory allows injecting the factory of OParl clients (for testing)
func WithClientFactory(f sources.ClientFactory) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.clientFactory = f
		return nil
	}
}

// WithSyncManager allows injecting a custom sync manager (for testing)
func WithSyncManager(sm pkgsync.Manager) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.syncManager = sm
		return nil
	}
}

// WithPublisher replaces the publisher selected by notify.type
func WithPublisher(p notify.Publisher) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.publisher = p
		return nil
	}
}

// WithTelemetry sets the telemetry providers instead of building them from
// the telemetry section
func WithTelemetry(t *telemetry.Telemetry) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		cfg.telemetry = t
		return nil
	}
}

// WithStartupJitter bounds the random delay before the first scheduled run
// of each source. Zero starts every source immediately.
func WithStartupJitter(d time.Duration) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if d < 0 {
			return fmt.Errorf("startup jitter cannot be negative")
		}
		cfg.startupJitter = &d
		return nil
	}
}

// WithConfigWatch reloads the sources section whenever the file at path
// changes. Other sections need a restart.
func WithConfigWatch(path string) SyncAppOptions {
	return func(cfg *syncAppConfig) error {
		if path == "" {
			return fmt.Errorf("config watch path cannot be empty")
		}
		cfg.watchPath = path
		return nil
	}
}

// buildSyncComponents builds the sync manager, change outbox and coordinator
func buildSyncComponents(
	ctx context.Context,
	b *syncAppConfig,
) (*AppComponents, error) {
	slog.Info("Initializing sync components")

	stateService, err := b.storageFactory.CreateStateService(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create state service: %w", err)
	}

	meterProvider := b.telemetry.MeterProvider()
	syncMetrics, err := telemetry.NewSyncMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create sync metrics: %w", err)
	}
	sourceMetrics, err := telemetry.NewSourceMetrics(meterProvider)
	if err != nil {
		return nil, fmt.Errorf("failed to create source metrics: %w", err)
	}

	if b.syncManager == nil {
		syncWriter, err := b.storageFactory.CreateSyncWriter(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create sync writer: %w", err)
		}

		transformer, err := transform.New()
		if err != nil {
			return nil, fmt.Errorf("failed to create transformer: %w", err)
		}

		if b.clientFactory == nil {
			b.clientFactory = sources.NewClientFactory(b.config.Sync, secrets.NewResolver(),
				sources.WithUserAgent(versions.UserAgent()))
		}

		b.syncManager = pkgsync.NewDefaultSyncManager(
			b.clientFactory,
			syncWriter,
			transformer,
			b.config.Sync,
			pkgsync.WithSyncMetrics(syncMetrics),
			pkgsync.WithTracer(b.telemetry.Tracer(pkgsync.TracerName)),
		)
	}

	if b.publisher == nil {
		b.publisher, err = notify.NewPublisher(b.config.Notify)
		if err != nil {
			return nil, fmt.Errorf("failed to create change publisher: %w", err)
		}
	}

	outbox, err := b.storageFactory.CreateOutbox(ctx, b.publisher)
	if err != nil {
		return nil, fmt.Errorf("failed to create change outbox: %w", err)
	}

	coordOpts := []coordinator.Option{
		coordinator.WithSyncMetrics(syncMetrics),
		coordinator.WithSourceMetrics(sourceMetrics),
		coordinator.WithOutbox(outbox),
	}
	if b.startupJitter != nil {
		coordOpts = append(coordOpts, coordinator.WithStartupJitter(*b.startupJitter))
	}
	syncCoordinator := coordinator.New(b.syncManager, stateService, b.config, coordOpts...)
	slog.Info("Sync components initialized successfully", "notify", b.config.Notify.Type)

	return &AppComponents{
		SyncCoordinator: syncCoordinator,
		StateService:    stateService,
		Outbox:          outbox,
		Publisher:       b.publisher,
	}, nil
}

// buildServiceComponents builds the admin service on top of the coordinator
func buildServiceComponents(
	b *syncAppConfig,
	components *AppComponents,
) (service.AdminService, error) {
	svc, err := service.New(components.StateService,
		service.WithScheduler(components.SyncCoordinator),
		service.WithPinger(b.storageFactory.Pinger()),
		service.WithTracer(b.telemetry.Tracer(service.ServiceTracerName)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create admin service: %w", err)
	}
	return svc, nil
}

// buildHTTPServer builds the admin HTTP server with router and middleware
func buildHTTPServer(
	b *syncAppConfig,
	svc service.AdminService,
) (*http.Server, error) {
	if b.middlewares == nil {
		b.middlewares = []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Recoverer,
			middleware.Timeout(b.requestTimeout),
			api.LoggingMiddleware,
		}
	}

	instrumentation, err := telemetry.NewAdminInstrumentation(
		b.telemetry.TracerProvider(), b.telemetry.MeterProvider())
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP instrumentation: %w", err)
	}
	b.middlewares = append([]func(http.Handler) http.Handler{instrumentation.Middleware}, b.middlewares...)

	serverOpts := []api.ServerOption{api.WithMiddlewares(b.middlewares...)}
	if h := b.telemetry.MetricsHandler(); h != nil {
		serverOpts = append(serverOpts, api.WithMetricsHandler(h))
		slog.Info("Prometheus metrics endpoint enabled", "path", "/metrics")
	}

	server := &http.Server{
		Addr:         b.address,
		Handler:      api.NewServer(svc, serverOpts...),
		ReadTimeout:  b.readTimeout,
		WriteTimeout: b.writeTimeout,
		IdleTimeout:  b.idleTimeout,
	}

	slog.Info("HTTP server configured", "address", b.address)
	return server, nil
}

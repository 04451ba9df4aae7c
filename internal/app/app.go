// Package app provides application lifecycle management for the sync engine.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"reflect"
	"sync"
	"time"

	"github.com/stacklok/oparl-sync/internal/app/storage"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/telemetry"
)

// SyncApp encapsulates all components needed to run the sync engine.
// It provides lifecycle management and graceful shutdown capabilities.
type SyncApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server
	telemetry  *telemetry.Telemetry
	storage    storage.Factory
	watchPath  string

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// Start starts the sync coordinator in the background and serves the admin
// API. It blocks until the HTTP server stops or encounters an error.
func (app *SyncApp) Start() error {
	go func() {
		if err := app.components.SyncCoordinator.Start(app.ctx); err != nil {
			slog.Error("Sync coordinator failed", "error", err)
		}
	}()

	if app.watchPath != "" {
		watcher, err := config.NewWatcher(app.watchPath, app.config, app.reloadSources)
		if err != nil {
			return fmt.Errorf("failed to create config watcher: %w", err)
		}
		go func() {
			if err := watcher.Watch(app.ctx); err != nil {
				slog.Error("Config watcher failed", "error", err)
			}
		}()
	}

	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// RunOnce registers the configured sources and executes one run of
// sourceID in the calling goroutine. An empty mode lets the engine pick.
func (app *SyncApp) RunOnce(ctx context.Context, sourceID string, mode status.RunMode) (*status.SyncRun, error) {
	if err := app.components.StateService.Initialize(ctx, app.config.Sources); err != nil {
		return nil, fmt.Errorf("failed to initialize sources: %w", err)
	}
	return app.components.SyncCoordinator.RunOnce(ctx, sourceID, mode)
}

// reloadSources registers the sources of a reloaded configuration. The
// scheduler picks added, changed and removed sources up on its next
// reconcile.
func (app *SyncApp) reloadSources(ctx context.Context, cfg *config.Config) error {
	if err := app.components.StateService.Initialize(ctx, cfg.Sources); err != nil {
		return fmt.Errorf("failed to initialize sources: %w", err)
	}
	if !sameNonSourceSettings(app.config, cfg) {
		slog.Warn("Only the sources section is reloaded; restart to apply other changes")
	}
	return nil
}

func sameNonSourceSettings(a, b *config.Config) bool {
	return reflect.DeepEqual(a.Server, b.Server) &&
		reflect.DeepEqual(a.Database, b.Database) &&
		reflect.DeepEqual(a.Sync, b.Sync) &&
		reflect.DeepEqual(a.Notify, b.Notify) &&
		reflect.DeepEqual(a.Telemetry, b.Telemetry)
}

// Stop gracefully stops the application with the given timeout.
// In-flight runs finish before the HTTP server and the storage go away.
func (app *SyncApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if err := app.components.SyncCoordinator.Stop(); err != nil {
		slog.Error("Failed to stop sync coordinator", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var errs []error
	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server forced to shutdown: %w", err))
	}

	app.Close()

	if err := app.telemetry.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shutdown telemetry: %w", err))
	}

	slog.Info("Server shutdown complete")
	return errors.Join(errs...)
}

// Close releases the publisher and the storage without touching the HTTP
// server. One-shot commands call it instead of Stop.
func (app *SyncApp) Close() {
	app.closeOnce.Do(func() {
		if app.cancelFunc != nil {
			app.cancelFunc()
		}
		if app.components.Publisher != nil {
			if err := app.components.Publisher.Close(); err != nil {
				slog.Warn("Failed to close change publisher", "error", err)
			}
		}
		if app.storage != nil {
			app.storage.Cleanup()
		}
	})
}

// Service returns the admin service
func (app *SyncApp) Service() service.AdminService {
	return app.components.AdminService
}

// GetConfig returns the application configuration
func (app *SyncApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *SyncApp) GetHTTPServer() *http.Server {
	return app.httpServer
}

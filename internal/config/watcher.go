package config

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc applies a freshly loaded configuration. An error keeps the
// previous configuration active.
type ReloadFunc func(ctx context.Context, cfg *Config) error

// Watcher observes the configuration file and reloads it on external
// changes. The file is only read. An invalid update is logged and the last
// good configuration stays active.
type Watcher struct {
	path     string
	onReload ReloadFunc

	mu      sync.RWMutex
	current *Config

	watcherMu sync.Mutex
	watcher   *fsnotify.Watcher
}

// NewWatcher creates a watcher for path starting from the already loaded
// configuration initial
func NewWatcher(path string, initial *Config, onReload ReloadFunc) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("path is required")
	}
	if initial == nil {
		return nil, fmt.Errorf("initial configuration is required")
	}
	return &Watcher{path: path, current: initial, onReload: onReload}, nil
}

// Current returns the last configuration that loaded and applied cleanly
func (w *Watcher) Current() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.current
}

// Reload reads the file and applies it if it parses, validates and is
// accepted by the reload callback
func (w *Watcher) Reload(ctx context.Context) error {
	cfg, err := LoadConfig(WithConfigPath(w.path))
	if err != nil {
		return fmt.Errorf("failed to reload configuration: %w", err)
	}

	if w.onReload != nil {
		if err := w.onReload(ctx, cfg); err != nil {
			return fmt.Errorf("failed to apply configuration: %w", err)
		}
	}

	w.mu.Lock()
	w.current = cfg
	w.mu.Unlock()

	slog.Info("Configuration reloaded", "path", w.path, "sources", len(cfg.Sources))
	return nil
}

// Watch blocks until ctx is cancelled, reloading on every write or
// re-creation of the file
func (w *Watcher) Watch(ctx context.Context) error {
	w.watcherMu.Lock()
	if w.watcher != nil {
		w.watcherMu.Unlock()
		return fmt.Errorf("config watcher is already running")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.watcherMu.Unlock()
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	w.watcher = watcher
	w.watcherMu.Unlock()

	defer w.close()

	if err := watcher.Add(w.path); err != nil {
		return fmt.Errorf("failed to watch config file %s: %w", w.path, err)
	}
	slog.Info("Watching configuration file", "path", w.path)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping configuration watcher")
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return fmt.Errorf("watcher event channel closed")
			}

			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				if err := w.Reload(ctx); err != nil {
					slog.Error("Configuration update rejected", "path", w.path, "error", err)
				}
			}

			// atomic replacements (ConfigMap symlink swaps, editors) remove the
			// watched inode
			if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
				if err := watcher.Add(w.path); err != nil {
					slog.Debug("Configuration file not back yet", "path", w.path, "error", err)
				} else if err := w.Reload(ctx); err != nil {
					slog.Error("Configuration update rejected", "path", w.path, "error", err)
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher error channel closed")
			}
			slog.Error("File watcher error", "error", err)
		}
	}
}

func (w *Watcher) close() {
	w.watcherMu.Lock()
	defer w.watcherMu.Unlock()
	if w.watcher != nil {
		_ = w.watcher.Close()
		w.watcher = nil
	}
}

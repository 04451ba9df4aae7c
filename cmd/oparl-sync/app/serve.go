package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syncapp "github.com/stacklok/oparl-sync/internal/app"
)

// defaultGracefulTimeout leaves in-flight page batches time to commit
const defaultGracefulTimeout = 30 * time.Second

func newServeCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the sync daemon and the admin API",
		Long: `Run the background scheduler for every enabled source together with the
administrative HTTP API.

The configuration file (--config) lists the sources and the database,
notification and telemetry settings.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), v)
		},
	}

	cmd.Flags().String("address", "", "Address to listen on (overrides server.address)")
	if err := v.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Error binding address flag", "error", err)
	}
	cmd.Flags().Bool("watch-config", false, "Reload the sources section when the config file changes")
	if err := v.BindPFlag("watch-config", cmd.Flags().Lookup("watch-config")); err != nil {
		slog.Error("Error binding watch-config flag", "error", err)
	}
	return cmd
}

func runServe(ctx context.Context, v *viper.Viper) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	opts := []syncapp.SyncAppOptions{syncapp.WithConfig(cfg)}
	if address := v.GetString("address"); address != "" {
		opts = append(opts, syncapp.WithAddress(address))
	}
	if v.GetBool("watch-config") {
		opts = append(opts, syncapp.WithConfigWatch(v.GetString("config")))
	}

	app, err := syncapp.NewSyncApp(ctx, opts...)
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}

	slog.Info("Starting oparl-sync", "sources", len(cfg.Sources))

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Start()
	}()

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		_ = app.Stop(defaultGracefulTimeout)
		return err
	case <-sigCtx.Done():
	}

	return app.Stop(defaultGracefulTimeout)
}

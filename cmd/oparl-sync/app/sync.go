package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	syncapp "github.com/stacklok/oparl-sync/internal/app"
	"github.com/stacklok/oparl-sync/internal/status"
)

// errRunFailed makes the process exit non-zero after a failed run
var errRunFailed = errors.New("sync run failed")

func newSyncCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization of a source in the foreground",
		Long: `Run one synchronization of a source and wait for it to finish.

The engine picks full or incremental mode unless --full is given. The
command exits non-zero when the run ends FAILED; a PARTIAL run prints its
error count and succeeds.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sourceID, err := cmd.Flags().GetString("source")
			if err != nil {
				return err
			}
			full, err := cmd.Flags().GetBool("full")
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), v, cmd.OutOrStdout(), sourceID, full)
		},
	}

	cmd.Flags().String("source", "", "ID of the source to synchronize (required)")
	cmd.Flags().Bool("full", false, "Force a full synchronization")
	if err := cmd.MarkFlagRequired("source"); err != nil {
		panic(err)
	}
	return cmd
}

func runSync(ctx context.Context, v *viper.Viper, out io.Writer, sourceID string, full bool) error {
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	app, err := syncapp.NewSyncApp(ctx, syncapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build application: %w", err)
	}
	defer app.Close()

	// an interrupted run is finalized as FAILED by the orchestrator
	runCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var mode status.RunMode
	if full {
		mode = status.RunModeFull
	}

	run, err := app.RunOnce(runCtx, sourceID, mode)
	if err != nil {
		return err
	}

	if err := printRun(out, run); err != nil {
		return err
	}
	if run.Status == status.RunStatusFailed {
		slog.Error("Sync run failed", "source", sourceID, "run", run.ID, "note", run.Note)
		return errRunFailed
	}
	return nil
}

func printRun(w io.Writer, run *status.SyncRun) error {
	c := run.Counts
	_, err := fmt.Fprintf(w,
		"run %s: %s (%s)\n  fetched %d, created %d, updated %d, unchanged %d, tombstoned %d, errored %d\n",
		run.ID, run.Status, run.Mode,
		c.Fetched, c.Created, c.Updated, c.Unchanged, c.Tombstoned, c.Errored)
	if err == nil && run.Note != "" {
		_, err = fmt.Fprintf(w, "  note: %s\n", run.Note)
	}
	return err
}

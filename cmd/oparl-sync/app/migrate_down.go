package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/database"
)

func newMigrateDownCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Migrate the database schema down by reverting migrations.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  oparl-sync migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all synchronized data)
  oparl-sync migrate down --config config.yaml --yes`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateDown(cmd, v)
		},
	}
}

func runMigrateDown(cmd *cobra.Command, v *viper.Viper) error {
	target, err := setupMigration(cmd.Context(), cmd, v)
	if err != nil {
		return err
	}

	if !target.yes {
		question := fmt.Sprintf("Revert %d migration(s) on %s?", target.numSteps, target.db.Database)
		if target.numSteps == 0 {
			question = fmt.Sprintf("Revert ALL migrations on %s? All synchronized data will be lost.", target.db.Database)
		}
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), question)
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Warn("Reverting database migrations", "steps", target.numSteps)
	if err := database.MigrateDown(target.connString, target.numSteps); err != nil {
		return fmt.Errorf("failed to revert migrations: %w", err)
	}

	logSchemaVersion(target.connString)
	return nil
}

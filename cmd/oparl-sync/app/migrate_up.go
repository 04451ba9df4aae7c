package app

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/database"
)

func newMigrateUpCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply all pending database migrations to bring the schema up to date.
This command reads the database connection parameters from the config file
and applies all migrations that haven't been run yet.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runMigrateUp(cmd, v)
		},
	}
}

func runMigrateUp(cmd *cobra.Command, v *viper.Viper) error {
	target, err := setupMigration(cmd.Context(), cmd, v)
	if err != nil {
		return err
	}

	if !target.yes {
		user := target.db.GetMigrationUser()
		slog.Info("About to apply migrations",
			"database", target.db.Database, "host", target.db.Host, "port", target.db.Port, "user", user)
		ok, err := confirm(cmd.InOrStdin(), cmd.OutOrStdout(), "Continue?")
		if err != nil {
			return err
		}
		if !ok {
			slog.Info("Migration cancelled by user")
			return nil
		}
	}

	slog.Info("Applying database migrations", "steps", target.numSteps)
	if err := database.MigrateUp(target.connString, target.numSteps); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	logSchemaVersion(target.connString)
	return nil
}

package app

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/database"
	"github.com/stacklok/oparl-sync/internal/app/storage/auth"
	"github.com/stacklok/oparl-sync/internal/config"
)

func newMigrateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")

	cmd.AddCommand(newMigrateUpCmd(v))
	cmd.AddCommand(newMigrateDownCmd(v))
	return cmd
}

// migrationTarget is the resolved database a migration command works on
type migrationTarget struct {
	db         *config.DatabaseConfig
	connString string
	numSteps   uint
	yes        bool
}

func setupMigration(ctx context.Context, cmd *cobra.Command, v *viper.Viper) (*migrationTarget, error) {
	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return nil, fmt.Errorf("failed to get yes flag: %w", err)
	}
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return nil, fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	cfg, err := loadConfig(v)
	if err != nil {
		return nil, err
	}
	if cfg.Database == nil {
		return nil, fmt.Errorf("database configuration is required")
	}

	// Uses the migration user and its credentials when configured
	connString, err := auth.MigrationConnectionString(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to get migration connection string: %w", err)
	}

	return &migrationTarget{db: cfg.Database, connString: connString, numSteps: numSteps, yes: yes}, nil
}

// confirm asks on in/out unless --yes was given
func confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	if _, err := fmt.Fprintf(out, "%s (yes/no): ", question); err != nil {
		return false, err
	}
	response, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("failed to read user input: %w", err)
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "yes" || response == "y", nil
}

func logSchemaVersion(connString string) {
	version, dirty, err := database.GetVersion(connString)
	switch {
	case err != nil:
		slog.Warn("Unable to get migration version", "error", err)
	case dirty:
		slog.Warn("Database is in a dirty state", "version", version)
	default:
		slog.Info("Database schema version", "version", version)
	}
}

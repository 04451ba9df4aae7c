// Package app provides the command line interface of the oparl-sync engine.
package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/internal/app/storage"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/versions"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix(config.EnvPrefix)
	v.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:               "oparl-sync",
		DisableAutoGenTag: true,
		SilenceUsage:      true,
		Short:             "OParl council data synchronization engine",
		Long: `oparl-sync mirrors the public council information of OParl endpoints into
PostgreSQL. It keeps every configured source up to date incrementally and
publishes the resulting entity changes downstream.`,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				slog.Error("Error displaying help", "error", err)
			}
		},
	}

	rootCmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format, or OPARL_SYNC_CONFIG)")
	if err := v.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")); err != nil {
		slog.Error("Error binding config flag", "error", err)
	}

	rootCmd.AddCommand(newServeCmd(v))
	rootCmd.AddCommand(newSyncCmd(v))
	rootCmd.AddCommand(newSourceCmd(v))
	rootCmd.AddCommand(newStatusCmd(v))
	rootCmd.AddCommand(newMigrateCmd(v))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			return printVersion(cmd.OutOrStdout(), format, versions.GetInfo())
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

func printVersion(w io.Writer, format string, info versions.Info) error {
	if format == formatJSON {
		return writeJSON(w, info)
	}
	_, err := fmt.Fprintf(w, "oparl-sync %s\n  commit:   %s\n  built:    %s\n  go:       %s\n  platform: %s\n",
		info.Version, info.Commit, info.BuildDate, info.GoVersion, info.Platform)
	return err
}

// loadConfig reads the file named by --config or OPARL_SYNC_CONFIG
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := v.GetString("config")
	if path == "" {
		return nil, fmt.Errorf("a configuration file is required (--config or %s_CONFIG)", config.EnvPrefix)
	}

	cfg, err := config.LoadConfig(config.WithConfigPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	slog.Debug("Loaded configuration", "path", path, "sources", len(cfg.Sources))
	return cfg, nil
}

// withAdminService runs fn against an admin service backed by the database
// only. Manual triggers are unavailable through it; they need the daemon.
func withAdminService(ctx context.Context, v *viper.Viper, fn func(service.AdminService) error) error {
	cfg, err := loadConfig(v)
	if err != nil {
		return err
	}

	factory, err := storage.NewStorageFactory(ctx, cfg)
	if err != nil {
		return err
	}
	defer factory.Cleanup()

	stateSvc, err := factory.CreateStateService(ctx)
	if err != nil {
		return err
	}

	svc, err := service.New(stateSvc, service.WithPinger(factory.Pinger()))
	if err != nil {
		return err
	}
	return fn(svc)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func validateFormat(format string) error {
	switch format {
	case formatTable, formatJSON:
		return nil
	default:
		return fmt.Errorf("unsupported format %q: use %s or %s", format, formatTable, formatJSON)
	}
}

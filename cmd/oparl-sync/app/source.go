package app

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/service"
)

func newSourceCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "source",
		Short: "Manage the registered OParl sources",
	}

	cmd.AddCommand(newSourceAddCmd(v))
	cmd.AddCommand(newSourceToggleCmd(v, "enable", "Enable a source so the scheduler picks it up again",
		func(cmd *cobra.Command, svc service.AdminService, id string) error {
			return svc.EnableSource(cmd.Context(), id)
		}))
	cmd.AddCommand(newSourceToggleCmd(v, "disable", "Disable a source; an active run finishes normally",
		func(cmd *cobra.Command, svc service.AdminService, id string) error {
			return svc.DisableSource(cmd.Context(), id)
		}))
	cmd.AddCommand(newSourceListCmd(v))

	return cmd
}

func newSourceAddCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new source",
		Long: `Register a new source at runtime. Sources added this way live in the
database only; a restart keeps them, but they are not written back to the
configuration file.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			src, err := sourceFromFlags(cmd)
			if err != nil {
				return err
			}
			return withAdminService(cmd.Context(), v, func(svc service.AdminService) error {
				created, err := svc.AddSource(cmd.Context(), src)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), created)
			})
		},
	}

	cmd.Flags().String("id", "", "Stable identifier of the source (required)")
	cmd.Flags().String("name", "", "Human readable name")
	cmd.Flags().String("base-url", "", "URL of the OParl System object (required)")
	cmd.Flags().String("interval", "", "Sync interval, e.g. 30m")
	cmd.Flags().Int("concurrency", 0, "Maximum in-flight requests against the source")
	cmd.Flags().Float64("requests-per-second", 0, "Request rate limit (0 = unlimited)")
	cmd.Flags().Bool("no-modified-since", false, "The source ignores modified_since; always run full syncs")
	for _, name := range []string{"id", "base-url"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}

// sourceFromFlags maps the add flags onto a source definition
func sourceFromFlags(cmd *cobra.Command) (*config.SourceConfig, error) {
	flags := cmd.Flags()
	id, _ := flags.GetString("id")
	name, _ := flags.GetString("name")
	baseURL, _ := flags.GetString("base-url")
	interval, _ := flags.GetString("interval")
	concurrency, _ := flags.GetInt("concurrency")
	rps, _ := flags.GetFloat64("requests-per-second")
	noModifiedSince, _ := flags.GetBool("no-modified-since")

	if concurrency < 0 {
		return nil, fmt.Errorf("--concurrency must not be negative")
	}
	if rps < 0 {
		return nil, fmt.Errorf("--requests-per-second must not be negative")
	}

	src := &config.SourceConfig{
		ID:                id,
		Name:              name,
		BaseURL:           baseURL,
		Concurrency:       concurrency,
		RequestsPerSecond: rps,
	}
	if interval != "" {
		src.SyncPolicy = &config.SyncPolicyConfig{Interval: interval}
	}
	if noModifiedSince {
		supported := false
		src.ModifiedSinceSupported = &supported
	}
	return src, nil
}

func newSourceToggleCmd(
	v *viper.Viper,
	use, short string,
	apply func(*cobra.Command, service.AdminService, string) error,
) *cobra.Command {
	return &cobra.Command{
		Use:   use + " SOURCE_ID",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withAdminService(cmd.Context(), v, func(svc service.AdminService) error {
				if err := apply(cmd, svc, args[0]); err != nil {
					return err
				}
				_, err := fmt.Fprintf(cmd.OutOrStdout(), "source %s %sd\n", args[0], use)
				return err
			})
		},
	}
}

func newSourceListCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources with their health",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, _ := cmd.Flags().GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}
			return withAdminService(cmd.Context(), v, func(svc service.AdminService) error {
				sources, err := svc.ListSources(cmd.Context())
				if err != nil {
					return err
				}
				if format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), sources)
				}
				return printSourceTable(cmd.OutOrStdout(), sources)
			})
		},
	}
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	return cmd
}

func printSourceTable(w io.Writer, sources []*service.SourceStatus) error {
	table := tablewriter.NewWriter(w)
	table.Header("ID", "Enabled", "Health", "Failures", "Last Success", "Last Run")

	for _, s := range sources {
		lastRun := "-"
		if s.LatestRun != nil {
			lastRun = string(s.LatestRun.Status)
		}
		row := []string{
			s.Source.SourceID,
			strconv.FormatBool(s.Source.Enabled),
			string(s.Source.Health),
			strconv.Itoa(s.Source.ConsecutiveFailures),
			formatTime(s.Source.LastSuccessAt),
			lastRun,
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

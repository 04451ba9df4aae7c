package app

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/status"
)

const defaultStatusRuns = 10

func newStatusCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the health of a source and its recent runs",
		RunE: func(cmd *cobra.Command, _ []string) error {
			sourceID, _ := cmd.Flags().GetString("source")
			limit, _ := cmd.Flags().GetInt("runs")
			format, _ := cmd.Flags().GetString("format")
			if err := validateFormat(format); err != nil {
				return err
			}

			return withAdminService(cmd.Context(), v, func(svc service.AdminService) error {
				st, err := svc.GetSourceStatus(cmd.Context(), sourceID)
				if err != nil {
					return err
				}
				runs, err := svc.ListRuns(cmd.Context(), sourceID, service.WithLimit(limit))
				if err != nil {
					return err
				}

				if format == formatJSON {
					return writeJSON(cmd.OutOrStdout(), struct {
						*service.SourceStatus
						Runs []*status.SyncRun `json:"runs"`
					}{st, runs})
				}
				return printStatus(cmd.OutOrStdout(), st, runs)
			})
		},
	}

	cmd.Flags().String("source", "", "ID of the source (required)")
	cmd.Flags().Int("runs", defaultStatusRuns, "Number of recent runs to show")
	cmd.Flags().String("format", formatTable, "Output format (table or json)")
	if err := cmd.MarkFlagRequired("source"); err != nil {
		panic(err)
	}
	return cmd
}

func printStatus(w io.Writer, st *service.SourceStatus, runs []*status.SyncRun) error {
	s := st.Source
	health := string(s.Health)
	if s.HealthReason != "" {
		health += " (" + s.HealthReason + ")"
	}
	rate := "unlimited"
	if s.RequestsPerSecond > 0 {
		rate = strconv.FormatFloat(s.RequestsPerSecond, 'f', -1, 64) + " req/s"
	}
	if _, err := fmt.Fprintf(w,
		"Source:         %s\nBase URL:       %s\nEnabled:        %t\nHealth:         %s\nFailures:       %d\nRate limit:     %s\nLast success:   %s\nLast full sync: %s\n\n",
		s.SourceID, s.BaseURL, s.Enabled, health, s.ConsecutiveFailures, rate,
		formatTime(s.LastSuccessAt), formatTime(s.LastFullSyncAt)); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header("Run", "Mode", "Status", "Started", "Fetched", "Changed", "Tombstoned", "Errors")
	for _, r := range runs {
		row := []string{
			r.ID,
			string(r.Mode),
			string(r.Status),
			r.StartedAt.UTC().Format(time.RFC3339),
			strconv.Itoa(r.Counts.Fetched),
			strconv.Itoa(r.Counts.Created + r.Counts.Updated),
			strconv.Itoa(r.Counts.Tombstoned),
			strconv.Itoa(r.ErrorCount),
		}
		if err := table.Append(row); err != nil {
			return err
		}
	}
	return table.Render()
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

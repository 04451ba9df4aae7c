package app

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/versions"
)

func TestRootCommandStructure(t *testing.T) {
	t.Parallel()

	root := NewRootCmd()
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))

	for _, path := range [][]string{
		{"serve"},
		{"sync"},
		{"source", "add"},
		{"source", "enable"},
		{"source", "disable"},
		{"source", "list"},
		{"status"},
		{"migrate", "up"},
		{"migrate", "down"},
		{"version"},
	} {
		cmd, rest, err := root.Find(path)
		require.NoError(t, err, strings.Join(path, " "))
		assert.Empty(t, rest)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestVersionCommand(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out string)
	}{
		{
			name: "text",
			args: []string{"version"},
			check: func(t *testing.T, out string) {
				t.Helper()
				assert.True(t, strings.HasPrefix(out, "oparl-sync "+versions.GetInfo().Version))
				assert.Contains(t, out, "commit:")
			},
		},
		{
			name: "json",
			args: []string{"version", "--format", "json"},
			check: func(t *testing.T, out string) {
				t.Helper()
				var info versions.Info
				require.NoError(t, json.Unmarshal([]byte(out), &info))
				assert.Equal(t, versions.GetInfo(), info)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			var out bytes.Buffer
			root.SetOut(&out)
			root.SetArgs(tt.args)
			require.NoError(t, root.Execute())
			tt.check(t, out.String())
		})
	}
}

func TestCommandsRequireConfig(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"sync", "--source", "bonn"},
		{"source", "list"},
		{"status", "--source", "bonn"},
		{"migrate", "up", "--yes"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(args)
			err := root.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), "configuration file is required")
		})
	}
}

func TestRequiredFlags(t *testing.T) {
	t.Parallel()

	for _, args := range [][]string{
		{"sync"},
		{"status"},
		{"source", "add", "--id", "bonn"},
		{"source", "enable"},
	} {
		t.Run(strings.Join(args, " "), func(t *testing.T) {
			t.Parallel()

			root := NewRootCmd()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(append(args, "--config", "unused.yaml"))
			require.Error(t, root.Execute())
		})
	}
}

func TestValidateFormat(t *testing.T) {
	t.Parallel()

	require.NoError(t, validateFormat(formatTable))
	require.NoError(t, validateFormat(formatJSON))
	err := validateFormat("yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported format "yaml"`)
}

func TestSourceFromFlags(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{
			name: "minimal",
			args: []string{"--id", "bonn", "--base-url", "https://oparl.bonn.de/system"},
		},
		{
			name: "full",
			args: []string{
				"--id", "koeln", "--name", "Köln", "--base-url", "https://buergerinfo.stadt-koeln.de/oparl/system",
				"--interval", "15m", "--concurrency", "4", "--requests-per-second", "2.5", "--no-modified-since",
			},
		},
		{
			name:    "negative concurrency",
			args:    []string{"--id", "x", "--base-url", "https://x", "--concurrency", "-1"},
			wantErr: "--concurrency",
		},
		{
			name:    "negative rate",
			args:    []string{"--id", "x", "--base-url", "https://x", "--requests-per-second", "-2"},
			wantErr: "--requests-per-second",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cmd := newSourceAddCmd(nil)
			require.NoError(t, cmd.ParseFlags(tt.args))

			src, err := sourceFromFlags(cmd)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, src.ID)
			assert.NotEmpty(t, src.BaseURL)

			if tt.name == "minimal" {
				assert.Nil(t, src.SyncPolicy)
				assert.Nil(t, src.ModifiedSinceSupported)
				return
			}
			assert.Equal(t, "Köln", src.Name)
			require.NotNil(t, src.SyncPolicy)
			assert.Equal(t, "15m", src.SyncPolicy.Interval)
			assert.Equal(t, 4, src.Concurrency)
			assert.InDelta(t, 2.5, src.RequestsPerSecond, 0.0001)
			require.NotNil(t, src.ModifiedSinceSupported)
			assert.False(t, *src.ModifiedSinceSupported)
		})
	}
}

func TestPrintSourceTable(t *testing.T) {
	t.Parallel()

	success := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sources := []*service.SourceStatus{
		{
			Source: status.SourceState{
				SourceID: "bonn", Enabled: true, Health: status.HealthHealthy, LastSuccessAt: &success,
			},
			LatestRun: &status.SyncRun{Status: status.RunStatusPartial},
		},
		{
			Source: status.SourceState{
				SourceID: "koeln", Health: status.HealthDegraded, ConsecutiveFailures: 4,
			},
		},
	}

	var out bytes.Buffer
	require.NoError(t, printSourceTable(&out, sources))

	text := out.String()
	assert.Contains(t, text, "bonn")
	assert.Contains(t, text, "2026-03-01T12:00:00Z")
	assert.Contains(t, text, "PARTIAL")
	assert.Contains(t, text, "koeln")
	assert.Contains(t, text, "DEGRADED")
}

func TestPrintStatus(t *testing.T) {
	t.Parallel()

	st := &service.SourceStatus{Source: status.SourceState{
		SourceID:          "bonn",
		BaseURL:           "https://oparl.bonn.de/system",
		Enabled:           true,
		Health:            status.HealthDegraded,
		HealthReason:      "3 consecutive failed runs",
		RequestsPerSecond: 2.5,
	}}
	runs := []*status.SyncRun{{
		ID:        "run-1",
		Mode:      status.RunModeIncremental,
		Status:    status.RunStatusCompleted,
		StartedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Counts:    status.Counts{Fetched: 12, Created: 2, Updated: 3},
	}}

	var out bytes.Buffer
	require.NoError(t, printStatus(&out, st, runs))

	text := out.String()
	assert.Contains(t, text, "DEGRADED (3 consecutive failed runs)")
	assert.Contains(t, text, "Rate limit:     2.5 req/s")
	assert.Contains(t, text, "Last full sync: -")
	assert.Contains(t, text, "run-1")
	assert.Contains(t, text, "INCREMENTAL")
}

func TestPrintRun(t *testing.T) {
	t.Parallel()

	var out bytes.Buffer
	require.NoError(t, printRun(&out, &status.SyncRun{
		ID:     "run-7",
		Mode:   status.RunModeFull,
		Status: status.RunStatusFailed,
		Counts: status.Counts{Fetched: 0},
		Note:   "source unreachable",
	}))

	assert.Contains(t, out.String(), "run run-7: FAILED (FULL)")
	assert.Contains(t, out.String(), "note: source unreachable")
}

func TestConfirm(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  bool
	}{
		{input: "yes\n", want: true},
		{input: "Y\n", want: true},
		{input: "no\n", want: false},
		{input: "", want: false},
	}

	for _, tt := range tests {
		t.Run(strings.TrimSpace(tt.input), func(t *testing.T) {
			t.Parallel()

			var out bytes.Buffer
			got, err := confirm(strings.NewReader(tt.input), &out, "Continue?")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "Continue? (yes/no): ", out.String())
		})
	}
}

package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/database"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/db/sqlc"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

func newTestService(t *testing.T) (*dbStateService, context.Context) {
	t.Helper()

	pool, cleanup := database.SetupTestDB(t)
	t.Cleanup(cleanup)

	svc := NewDBStateService(pool, HealthPolicy{FailureThreshold: 2}).(*dbStateService)
	return svc, context.Background()
}

func testSources() []config.SourceConfig {
	disabled := false
	return []config.SourceConfig{
		{
			ID:      "bonn",
			Name:    "Bonn",
			BaseURL: "https://ris.bonn.example/oparl/system",
			Auth: &config.SourceAuthConfig{
				Type:      config.AuthTypeBearer,
				SecretEnv: "BONN_TOKEN",
			},
			SyncPolicy:        &config.SyncPolicyConfig{Interval: "30m"},
			Concurrency:       3,
			RequestsPerSecond: 2.5,
		},
		{
			ID:      "koeln",
			BaseURL: "https://ris.koeln.example/oparl/system",
			Enabled: &disabled,
		},
	}
}

func TestDBStateService_Initialize(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	bonn, err := svc.GetSource(ctx, "bonn")
	require.NoError(t, err)
	assert.True(t, bonn.FromConfig)
	assert.Equal(t, status.HealthHealthy, bonn.State.Health)
	assert.Equal(t, "30m", bonn.State.Interval)
	assert.Equal(t, 3, bonn.Config.Concurrency)
	assert.InDelta(t, 2.5, bonn.Config.RequestsPerSecond, 1e-9)
	assert.InDelta(t, 2.5, bonn.State.RequestsPerSecond, 1e-9)
	require.NotNil(t, bonn.Config.Auth)
	assert.Equal(t, "BONN_TOKEN", bonn.Config.Auth.SecretEnv)

	koeln, err := svc.GetSource(ctx, "koeln")
	require.NoError(t, err)
	assert.False(t, koeln.State.Enabled)
	assert.Equal(t, status.HealthDisabled, koeln.State.Health)
	assert.Zero(t, koeln.Config.RequestsPerSecond)

	// an API source survives reinitialization, a removed config source is disabled
	require.NoError(t, svc.AddSource(ctx, &config.SourceConfig{ID: "api-1", BaseURL: "https://api.example/system"}))
	require.ErrorIs(t, svc.AddSource(ctx, &config.SourceConfig{ID: "api-1", BaseURL: "https://api.example/system"}), ErrSourceExists)

	require.NoError(t, svc.Initialize(ctx, testSources()[1:]))

	all, err := svc.ListSources(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	byID := map[string]*Source{}
	for _, s := range all {
		byID[s.Config.ID] = s
	}
	assert.False(t, byID["bonn"].State.Enabled)
	assert.True(t, byID["api-1"].State.Enabled)
	assert.False(t, byID["api-1"].FromConfig)

	_, err = svc.GetSource(ctx, "missing")
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestSourceParamsRoundTrip(t *testing.T) {
	t.Parallel()

	for _, src := range testSources() {
		t.Run(src.ID, func(t *testing.T) {
			t.Parallel()

			params, err := sourceParams(&src)
			require.NoError(t, err)
			got, err := toSource(sqlc.Source{
				ID:                     params.ID,
				Name:                   params.Name,
				BaseUrl:                params.BaseUrl,
				Auth:                   params.Auth,
				Enabled:                params.Enabled,
				ModifiedSinceSupported: params.ModifiedSinceSupported,
				SyncInterval:           params.SyncInterval,
				Concurrency:            params.Concurrency,
				RequestsPerSecond:      params.RequestsPerSecond,
				CreationType:           params.CreationType,
				Health:                 sqlc.SourceHealthHEALTHY,
			})
			require.NoError(t, err)

			assert.Equal(t, src.ID, got.Config.ID)
			assert.Equal(t, src.BaseURL, got.Config.BaseURL)
			assert.Equal(t, src.IsEnabled(), got.Config.IsEnabled())
			assert.Equal(t, src.Concurrency, got.Config.Concurrency)
			assert.InDelta(t, src.RequestsPerSecond, got.Config.RequestsPerSecond, 1e-9)
			assert.Equal(t, src.Auth, got.Config.Auth)
			assert.Equal(t, src.SyncPolicy, got.Config.SyncPolicy)
		})
	}
}

func TestDBStateService_SetEnabled(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	require.NoError(t, svc.SetEnabled(ctx, "bonn", false))
	src, err := svc.GetSource(ctx, "bonn")
	require.NoError(t, err)
	assert.Equal(t, status.HealthDisabled, src.State.Health)

	require.NoError(t, svc.SetEnabled(ctx, "bonn", true))
	src, err = svc.GetSource(ctx, "bonn")
	require.NoError(t, err)
	assert.Equal(t, status.HealthHealthy, src.State.Health)

	require.ErrorIs(t, svc.SetEnabled(ctx, "missing", true), ErrSourceNotFound)
}

func TestDBStateService_RunLock(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	// concurrent attempts: exactly one wins
	const attempts = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		won      []*status.SyncRun
		rejected int
	)
	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			run, err := svc.BeginRun(ctx, "bonn", status.RunModeFull, status.TriggerSchedule)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				assert.True(t, syncerr.IsConcurrentRun(err), "unexpected error: %v", err)
				rejected++
				return
			}
			won = append(won, run)
		}()
	}
	wg.Wait()
	require.Len(t, won, 1)
	assert.Equal(t, attempts-1, rejected)

	run := won[0]
	assert.Equal(t, status.RunStatusPending, run.Status)
	runID := uuid.MustParse(run.ID)

	require.NoError(t, svc.MarkRunning(ctx, runID, status.RunModeIncremental))
	require.ErrorIs(t, svc.MarkRunning(ctx, runID, status.RunModeIncremental), ErrRunNotActive)

	state, err := svc.FinishRun(ctx, FinishRequest{
		RunID:    runID,
		SourceID: "bonn",
		Mode:     status.RunModeIncremental,
		Status:   status.RunStatusCompleted,
		Counts:   status.Counts{Fetched: 3, Created: 3},
	})
	require.NoError(t, err)
	assert.NotNil(t, state.LastSuccessAt)
	assert.Nil(t, state.LastFullSyncAt)

	// terminal runs are immutable
	_, err = svc.FinishRun(ctx, FinishRequest{RunID: runID, SourceID: "bonn", Status: status.RunStatusFailed})
	require.ErrorIs(t, err, ErrRunNotActive)

	got, err := svc.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, status.RunStatusCompleted, got.Status)
	assert.Equal(t, status.RunModeIncremental, got.Mode)
	assert.Equal(t, 3, got.Counts.Created)
	assert.NotNil(t, got.EndedAt)

	// the lock is free again
	next, err := svc.BeginRun(ctx, "bonn", status.RunModeFull, status.TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, status.TriggerManual, next.Trigger)

	_, err = svc.BeginRun(ctx, "missing", status.RunModeFull, status.TriggerManual)
	require.ErrorIs(t, err, ErrSourceNotFound)
}

func TestDBStateService_SuccessWatermarkIsRunStart(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	run, err := svc.BeginRun(ctx, "bonn", status.RunModeFull, status.TriggerSchedule)
	require.NoError(t, err)
	runID := uuid.MustParse(run.ID)
	started, err := svc.GetRun(ctx, runID)
	require.NoError(t, err)

	// the run finishes long after it started
	svc.now = func() time.Time { return started.StartedAt.Add(time.Hour) }

	state, err := svc.FinishRun(ctx, FinishRequest{
		RunID:    runID,
		SourceID: "bonn",
		Mode:     status.RunModeFull,
		Status:   status.RunStatusCompleted,
	})
	require.NoError(t, err)
	require.NotNil(t, state.LastSuccessAt)
	require.NotNil(t, state.LastFullSyncAt)
	assert.True(t, state.LastSuccessAt.Equal(started.StartedAt), "got %s, want %s", state.LastSuccessAt, started.StartedAt)
	assert.True(t, state.LastFullSyncAt.Equal(started.StartedAt))

	got, err := svc.GetRun(ctx, runID)
	require.NoError(t, err)
	require.NotNil(t, got.EndedAt)
	assert.True(t, state.LastSuccessAt.Before(*got.EndedAt) || state.LastSuccessAt.Equal(*got.EndedAt))
}

func TestDBStateService_FailuresDegradeSource(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	for i := 1; i <= 2; i++ {
		run, err := svc.BeginRun(ctx, "bonn", status.RunModeFull, status.TriggerSchedule)
		require.NoError(t, err)
		state, err := svc.FinishRun(ctx, FinishRequest{
			RunID:    uuid.MustParse(run.ID),
			SourceID: "bonn",
			Mode:     status.RunModeFull,
			Status:   status.RunStatusFailed,
			Note:     "system unreachable",
		})
		require.NoError(t, err)
		assert.Equal(t, i, state.ConsecutiveFailures)
	}

	src, err := svc.GetSource(ctx, "bonn")
	require.NoError(t, err)
	assert.Equal(t, status.HealthDegraded, src.State.Health)
	assert.Equal(t, "2 consecutive failed sync runs", src.State.HealthReason)
	assert.Nil(t, src.State.LastSuccessAt)

	latest, err := svc.GetLatestRun(ctx, "bonn")
	require.NoError(t, err)
	assert.Equal(t, "system unreachable", latest.Note)

	runs, err := svc.ListRuns(ctx, "bonn", 10)
	require.NoError(t, err)
	assert.Len(t, runs, 2)

	none, err := svc.GetLatestRun(ctx, "koeln")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestDBStateService_ErrorsCursorsAndRecovery(t *testing.T) {
	t.Parallel()

	svc, ctx := newTestService(t)
	require.NoError(t, svc.Initialize(ctx, testSources()))

	run, err := svc.BeginRun(ctx, "bonn", status.RunModeFull, status.TriggerSchedule)
	require.NoError(t, err)
	runID := uuid.MustParse(run.ID)

	require.NoError(t, svc.RecordErrors(ctx, runID, []status.RunError{
		{Type: syncerr.TypePermanentRequest, Code: string(syncerr.CodeNotFound), URL: "https://x/paper?page=2", Message: "gone"},
		{Type: syncerr.TypeTransform, Code: string(syncerr.CodeSchemaFailed), EntityID: "p9", BodyID: "b1", Message: "bad"},
	}))
	require.NoError(t, svc.RecordErrors(ctx, runID, nil))

	errs, err := svc.ListRunErrors(ctx, runID, 10, 0)
	require.NoError(t, err)
	require.Len(t, errs, 2)
	assert.Equal(t, "https://x/paper?page=2", errs[0].URL)
	assert.Equal(t, "p9", errs[1].EntityID)

	page, err := svc.ListRunErrors(ctx, runID, 1, 1)
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, "bad", page[0].Message)

	// cursors only move forward
	body, err := sqlc.New(svc.pool).UpsertBody(ctx, sqlc.UpsertBodyParams{
		SourceID: "bonn", ExternalID: "b1", Name: "B1", Collections: []byte("{}"), Fingerprint: "x",
	})
	require.NoError(t, err)
	t1 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	moved, err := svc.AdvanceCursor(ctx, body.ID, t1)
	require.NoError(t, err)
	assert.True(t, moved)
	moved, err = svc.AdvanceCursor(ctx, body.ID, t1.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, moved)

	// a crashed process left the run pending
	abandoned, err := svc.AbandonStale(ctx)
	require.NoError(t, err)
	require.Len(t, abandoned, 1)
	assert.Equal(t, run.ID, abandoned[0].ID)

	got, err := svc.GetRun(ctx, runID)
	require.NoError(t, err)
	assert.Equal(t, status.RunStatusFailed, got.Status)
	assert.Equal(t, "abandoned", got.Note)

	_, err = svc.GetRun(ctx, uuid.New())
	require.ErrorIs(t, err, ErrRunNotFound)
}

package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/db/sqlc"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

const uniqueViolation = "23505"

type dbStateService struct {
	pool   *pgxpool.Pool
	policy HealthPolicy
	now    func() time.Time
}

// NewDBStateService creates a new database-backed source state service
func NewDBStateService(pool *pgxpool.Pool, policy HealthPolicy) SourceStateService {
	return &dbStateService{
		pool:   pool,
		policy: policy,
		now:    time.Now,
	}
}

func (d *dbStateService) Initialize(ctx context.Context, sources []config.SourceConfig) error {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	queries := sqlc.New(d.pool).WithTx(tx)

	ids := make([]string, 0, len(sources))
	for i := range sources {
		src := &sources[i]
		params, err := sourceParams(src)
		if err != nil {
			return err
		}
		if err := queries.UpsertConfigSource(ctx, sqlc.UpsertConfigSourceParams{
			ID:                     params.ID,
			Name:                   params.Name,
			BaseUrl:                params.BaseUrl,
			Auth:                   params.Auth,
			Enabled:                params.Enabled,
			ModifiedSinceSupported: params.ModifiedSinceSupported,
			SyncInterval:           params.SyncInterval,
			Concurrency:            params.Concurrency,
			RequestsPerSecond:      params.RequestsPerSecond,
		}); err != nil {
			return fmt.Errorf("failed to upsert source %s: %w", src.ID, err)
		}
		ids = append(ids, src.ID)
	}

	disabled, err := queries.DisableConfigSourcesNotIn(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to disable removed sources: %w", err)
	}
	if disabled > 0 {
		slog.Info("Disabled sources removed from configuration", "count", disabled)
	}

	return tx.Commit(ctx)
}

func (d *dbStateService) GetSource(ctx context.Context, sourceID string) (*Source, error) {
	row, err := sqlc.New(d.pool).GetSource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("failed to get source %s: %w", sourceID, err)
	}
	return toSource(row)
}

func (d *dbStateService) ListSources(ctx context.Context) ([]*Source, error) {
	rows, err := sqlc.New(d.pool).ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list sources: %w", err)
	}
	out := make([]*Source, 0, len(rows))
	for _, row := range rows {
		src, err := toSource(row)
		if err != nil {
			return nil, err
		}
		out = append(out, src)
	}
	return out, nil
}

func (d *dbStateService) AddSource(ctx context.Context, source *config.SourceConfig) error {
	params, err := sourceParams(source)
	if err != nil {
		return err
	}
	params.CreationType = sqlc.CreationTypeAPI

	if err := sqlc.New(d.pool).InsertSource(ctx, params); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrSourceExists, source.ID)
		}
		return fmt.Errorf("failed to insert source %s: %w", source.ID, err)
	}
	return nil
}

func (d *dbStateService) SetEnabled(ctx context.Context, sourceID string, enabled bool) error {
	n, err := sqlc.New(d.pool).SetSourceEnabled(ctx, sqlc.SetSourceEnabledParams{
		Enabled: enabled,
		ID:      sourceID,
	})
	if err != nil {
		return fmt.Errorf("failed to update source %s: %w", sourceID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
	}
	return nil
}

func (d *dbStateService) BeginRun(
	ctx context.Context,
	sourceID string,
	mode status.RunMode,
	trigger status.Trigger,
) (*status.SyncRun, error) {
	queries := sqlc.New(d.pool)
	id := uuid.New()

	err := queries.InsertSyncRun(ctx, sqlc.InsertSyncRunParams{
		ID:       id,
		SourceID: sourceID,
		Mode:     sqlc.SyncRunMode(mode),
		Trigger:  sqlc.SyncTrigger(trigger),
	})
	if err != nil {
		if isUniqueViolation(err) {
			concurrent := &syncerr.ConcurrentRunError{SourceID: sourceID}
			if active, getErr := queries.GetActiveSyncRun(ctx, sourceID); getErr == nil {
				concurrent.RunID = active.ID.String()
			}
			return nil, concurrent
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return nil, fmt.Errorf("%w: %s", ErrSourceNotFound, sourceID)
		}
		return nil, fmt.Errorf("failed to insert sync run: %w", err)
	}

	row, err := queries.GetSyncRun(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to read sync run: %w", err)
	}
	return toRun(row), nil
}

func (d *dbStateService) MarkRunning(ctx context.Context, runID uuid.UUID, mode status.RunMode) error {
	n, err := sqlc.New(d.pool).MarkSyncRunRunning(ctx, sqlc.MarkSyncRunRunningParams{
		ID:   runID,
		Mode: sqlc.SyncRunMode(mode),
	})
	if err != nil {
		return fmt.Errorf("failed to mark run running: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotActive, runID)
	}
	return nil
}

func (d *dbStateService) FinishRun(ctx context.Context, req FinishRequest) (*status.SourceState, error) {
	if !req.Status.IsTerminal() {
		return nil, fmt.Errorf("run status %s is not terminal", req.Status)
	}

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer rollback(ctx, tx)

	queries := sqlc.New(d.pool).WithTx(tx)

	n, err := queries.FinishSyncRun(ctx, sqlc.FinishSyncRunParams{
		Status:     sqlc.SyncRunStatus(req.Status),
		Fetched:    int32(req.Counts.Fetched),
		Created:    int32(req.Counts.Created),
		Updated:    int32(req.Counts.Updated),
		Unchanged:  int32(req.Counts.Unchanged),
		Tombstoned: int32(req.Counts.Tombstoned),
		Errored:    int32(req.Counts.Errored),
		ErrorCount: int32(req.ErrorCount),
		Note:       pgText(req.Note),
		ID:         req.RunID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to finish sync run: %w", err)
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotActive, req.RunID)
	}

	row, err := queries.GetSourceForUpdate(ctx, req.SourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock source %s: %w", req.SourceID, err)
	}
	src, err := toSource(row)
	if err != nil {
		return nil, err
	}

	run, err := queries.GetSyncRun(ctx, req.RunID)
	if err != nil {
		return nil, fmt.Errorf("failed to get sync run %s: %w", req.RunID, err)
	}
	// the run saw the source as of its start; changes made while it ran are
	// left for the next run
	watermark := d.now().UTC()
	if run.StartedAt.Valid {
		watermark = run.StartedAt.Time.UTC()
	}

	next := d.policy.Transition(src.State, req.Status, req.Mode, watermark)
	if err := queries.UpdateSourceHealth(ctx, sqlc.UpdateSourceHealthParams{
		ID:                  req.SourceID,
		Health:              sqlc.SourceHealth(next.Health),
		HealthReason:        pgText(next.HealthReason),
		ConsecutiveFailures: int32(next.ConsecutiveFailures),
		ConsecutivePartials: int32(next.ConsecutivePartials),
		LastSuccessAt:       pgTimePtr(next.LastSuccessAt),
		LastFullSyncAt:      pgTimePtr(next.LastFullSyncAt),
	}); err != nil {
		return nil, fmt.Errorf("failed to update source health: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	if next.Health != src.State.Health {
		slog.Warn("Source health changed",
			"source", req.SourceID,
			"from", src.State.Health,
			"to", next.Health,
			"reason", next.HealthReason)
	}
	return &next, nil
}

func (d *dbStateService) AbandonStale(ctx context.Context) ([]status.SyncRun, error) {
	rows, err := sqlc.New(d.pool).AbandonActiveSyncRuns(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to abandon stale runs: %w", err)
	}
	out := make([]status.SyncRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, status.SyncRun{
			ID:       row.ID.String(),
			SourceID: row.SourceID,
			Status:   status.RunStatusFailed,
			Note:     "abandoned",
		})
	}
	return out, nil
}

func (d *dbStateService) RecordErrors(ctx context.Context, runID uuid.UUID, errs []status.RunError) error {
	if len(errs) == 0 {
		return nil
	}
	rows := make([]sqlc.InsertSyncRunErrorsParams, 0, len(errs))
	for _, e := range errs {
		occurred := e.OccurredAt
		if occurred.IsZero() {
			occurred = d.now()
		}
		rows = append(rows, sqlc.InsertSyncRunErrorsParams{
			RunID:            runID,
			ErrorType:        e.Type,
			Code:             e.Code,
			BodyExternalID:   pgText(e.BodyID),
			EntityExternalID: pgText(e.EntityID),
			Url:              pgText(e.URL),
			Message:          e.Message,
			OccurredAt:       pgtype.Timestamptz{Time: occurred, Valid: true},
		})
	}
	if _, err := sqlc.New(d.pool).InsertSyncRunErrors(ctx, rows); err != nil {
		return fmt.Errorf("failed to record run errors: %w", err)
	}
	return nil
}

func (d *dbStateService) AdvanceCursor(ctx context.Context, bodyID uuid.UUID, cursor time.Time) (bool, error) {
	n, err := sqlc.New(d.pool).AdvanceBodyCursor(ctx, sqlc.AdvanceBodyCursorParams{
		Cursor: pgtype.Timestamptz{Time: cursor, Valid: true},
		ID:     bodyID,
	})
	if err != nil {
		return false, fmt.Errorf("failed to advance body cursor: %w", err)
	}
	return n > 0, nil
}

func (d *dbStateService) GetRun(ctx context.Context, runID uuid.UUID) (*status.SyncRun, error) {
	row, err := sqlc.New(d.pool).GetSyncRun(ctx, runID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf("failed to get sync run: %w", err)
	}
	return toRun(row), nil
}

func (d *dbStateService) GetLatestRun(ctx context.Context, sourceID string) (*status.SyncRun, error) {
	row, err := sqlc.New(d.pool).GetLatestSyncRun(ctx, sourceID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get latest sync run: %w", err)
	}
	return toRun(row), nil
}

func (d *dbStateService) ListRuns(ctx context.Context, sourceID string, limit int) ([]*status.SyncRun, error) {
	rows, err := sqlc.New(d.pool).ListSyncRuns(ctx, sqlc.ListSyncRunsParams{
		SourceID: sourceID,
		Limit:    int32(limit),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list sync runs: %w", err)
	}
	out := make([]*status.SyncRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, toRun(row))
	}
	return out, nil
}

func (d *dbStateService) ListRunErrors(ctx context.Context, runID uuid.UUID, limit, offset int) ([]status.RunError, error) {
	rows, err := sqlc.New(d.pool).ListSyncRunErrors(ctx, sqlc.ListSyncRunErrorsParams{
		RunID:  runID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list run errors: %w", err)
	}
	out := make([]status.RunError, 0, len(rows))
	for _, row := range rows {
		out = append(out, status.RunError{
			Type:       row.ErrorType,
			Code:       row.Code,
			BodyID:     row.BodyExternalID.String,
			EntityID:   row.EntityExternalID.String,
			URL:        row.Url.String,
			Message:    row.Message,
			OccurredAt: row.OccurredAt.Time,
		})
	}
	return out, nil
}

// sourceParams maps a source definition onto its row. Only references to
// secrets are stored, never the secrets themselves.
func sourceParams(src *config.SourceConfig) (sqlc.InsertSourceParams, error) {
	params := sqlc.InsertSourceParams{
		ID:                     src.ID,
		Name:                   src.Name,
		BaseUrl:                src.BaseURL,
		Enabled:                src.IsEnabled(),
		ModifiedSinceSupported: src.SupportsModifiedSince(),
		CreationType:           sqlc.CreationTypeCONFIG,
	}
	if src.Auth != nil {
		auth, err := json.Marshal(src.Auth)
		if err != nil {
			return params, fmt.Errorf("failed to encode auth of source %s: %w", src.ID, err)
		}
		params.Auth = auth
	}
	if src.SyncPolicy != nil && src.SyncPolicy.Interval != "" {
		params.SyncInterval = pgtype.Text{String: src.SyncPolicy.Interval, Valid: true}
	}
	if src.Concurrency > 0 {
		params.Concurrency = pgtype.Int4{Int32: int32(src.Concurrency), Valid: true}
	}
	if src.RequestsPerSecond > 0 {
		params.RequestsPerSecond = pgtype.Float8{Float64: src.RequestsPerSecond, Valid: true}
	}
	return params, nil
}

func toSource(row sqlc.Source) (*Source, error) {
	enabled := row.Enabled
	modifiedSince := row.ModifiedSinceSupported
	src := &Source{
		Config: config.SourceConfig{
			ID:                     row.ID,
			Name:                   row.Name,
			BaseURL:                row.BaseUrl,
			Enabled:                &enabled,
			ModifiedSinceSupported: &modifiedSince,
		},
		State: status.SourceState{
			SourceID:               row.ID,
			Name:                   row.Name,
			BaseURL:                row.BaseUrl,
			Enabled:                row.Enabled,
			ModifiedSinceSupported: row.ModifiedSinceSupported,
			Health:                 status.Health(row.Health),
			HealthReason:           row.HealthReason.String,
			ConsecutiveFailures:    int(row.ConsecutiveFailures),
			ConsecutivePartials:    int(row.ConsecutivePartials),
			LastSuccessAt:          timePtr(row.LastSuccessAt),
			LastFullSyncAt:         timePtr(row.LastFullSyncAt),
		},
		FromConfig: row.CreationType == sqlc.CreationTypeCONFIG,
	}

	if len(row.Auth) > 0 {
		var auth config.SourceAuthConfig
		if err := json.Unmarshal(row.Auth, &auth); err != nil {
			return nil, fmt.Errorf("failed to decode auth of source %s: %w", row.ID, err)
		}
		src.Config.Auth = &auth
	}
	if row.SyncInterval.Valid {
		src.Config.SyncPolicy = &config.SyncPolicyConfig{Interval: row.SyncInterval.String}
		src.State.Interval = row.SyncInterval.String
	}
	if row.Concurrency.Valid {
		src.Config.Concurrency = int(row.Concurrency.Int32)
		src.State.Concurrency = int(row.Concurrency.Int32)
	}
	if row.RequestsPerSecond.Valid {
		src.Config.RequestsPerSecond = row.RequestsPerSecond.Float64
		src.State.RequestsPerSecond = row.RequestsPerSecond.Float64
	}
	return src, nil
}

func toRun(row sqlc.SyncRun) *status.SyncRun {
	return &status.SyncRun{
		ID:        row.ID.String(),
		SourceID:  row.SourceID,
		Mode:      status.RunMode(row.Mode),
		Status:    status.RunStatus(row.Status),
		Trigger:   status.Trigger(row.Trigger),
		StartedAt: row.StartedAt.Time,
		EndedAt:   timePtr(row.EndedAt),
		Counts: status.Counts{
			Fetched:    int(row.Fetched),
			Created:    int(row.Created),
			Updated:    int(row.Updated),
			Unchanged:  int(row.Unchanged),
			Tombstoned: int(row.Tombstoned),
			Errored:    int(row.Errored),
		},
		ErrorCount: int(row.ErrorCount),
		Note:       row.Note.String,
	}
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Debug("Rollback failed", "error", err)
	}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgTimePtr(t *time.Time) pgtype.Timestamptz {
	if t == nil {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: *t, Valid: true}
}

func timePtr(ts pgtype.Timestamptz) *time.Time {
	if !ts.Valid {
		return nil
	}
	t := ts.Time.UTC()
	return &t
}

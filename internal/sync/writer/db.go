package writer

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

	"github.com/stacklok/oparl-sync/internal/db/sqlc"
	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/syncerr"
	"github.com/stacklok/oparl-sync/internal/transform"
)

// conflictStates are the SQLSTATEs a batch is retried on
var conflictStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"23505": true, // unique_violation
	"23503": true, // foreign_key_violation
}

// unresolvedSample bounds the deferred pointers logged after a resolution pass
const unresolvedSample = 10

// dbSyncWriter is a SyncWriter implementation that persists data to a database
type dbSyncWriter struct {
	pool *pgxpool.Pool
}

// NewDBSyncWriter creates a new dbSyncWriter with the given connection pool.
// The caller is responsible for closing the pool when done.
func NewDBSyncWriter(pool *pgxpool.Pool) (SyncWriter, error) {
	if pool == nil {
		return nil, fmt.Errorf("pgx pool is required")
	}
	return &dbSyncWriter{pool: pool}, nil
}

// UpsertBody stores the body and its collection URLs
func (d *dbSyncWriter) UpsertBody(ctx context.Context, sourceID string, body *sources.Body) (BodyRecord, error) {
	collections := map[string]string{
		"organization":    body.OrganizationListURL,
		"person":          body.PersonListURL,
		"meeting":         body.MeetingListURL,
		"paper":           body.PaperListURL,
		"legislativeTerm": body.LegislativeTermListURL,
	}
	for k, v := range collections {
		if v == "" {
			delete(collections, k)
		}
	}
	collectionsJSON, err := json.Marshal(collections)
	if err != nil {
		return BodyRecord{}, fmt.Errorf("failed to encode collections of body %s: %w", body.ID, err)
	}
	fp, err := transform.Fingerprint(map[string]any{
		"name":        body.Name,
		"shortName":   body.ShortName,
		"collections": collections,
	})
	if err != nil {
		return BodyRecord{}, err
	}

	row, err := sqlc.New(d.pool).UpsertBody(ctx, sqlc.UpsertBodyParams{
		SourceID:    sourceID,
		ExternalID:  body.ID,
		Name:        body.Name,
		ShortName:   pgText(body.ShortName),
		Collections: collectionsJSON,
		Fingerprint: fp,
	})
	if err != nil {
		return BodyRecord{}, fmt.Errorf("failed to upsert body %s: %w", body.ID, err)
	}

	rec := BodyRecord{ID: row.ID}
	if row.ModifiedCursor.Valid {
		cursor := row.ModifiedCursor.Time.UTC()
		rec.Cursor = &cursor
	}
	return rec, nil
}

// Lookup loads the stored entities among externalIDs
func (d *dbSyncWriter) Lookup(ctx context.Context, sourceID string, externalIDs []string) (map[string]*StoredEntity, error) {
	out := make(map[string]*StoredEntity, len(externalIDs))
	if len(externalIDs) == 0 {
		return out, nil
	}

	rows, err := sqlc.New(d.pool).GetEntitiesByExternalIDs(ctx, sqlc.GetEntitiesByExternalIDsParams{
		SourceID:    sourceID,
		ExternalIds: externalIDs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to look up entities: %w", err)
	}
	for _, row := range rows {
		out[row.ExternalID] = &StoredEntity{
			ID:          row.ID,
			ExternalID:  row.ExternalID,
			Kind:        transform.Kind(row.Kind),
			Fingerprint: row.Fingerprint,
			Tombstoned:  row.Tombstoned,
		}
	}
	return out, nil
}

// Apply writes the batch in one transaction, each entity inside its own
// savepoint. A batch failing on a conflict is retried once. If it still
// fails, every diff is reported as failed and the cause is returned.
func (d *dbSyncWriter) Apply(ctx context.Context, runID uuid.UUID, batch []Diff) (BatchResult, error) {
	writes := make([]Diff, 0, len(batch))
	for _, diff := range batch {
		if diff.Classification != ClassificationUnchanged {
			writes = append(writes, diff)
		}
	}
	if len(writes) == 0 {
		return BatchResult{}, nil
	}

	var err error
	for attempt := 1; attempt <= 2; attempt++ {
		var result BatchResult
		result, err = d.applyOnce(ctx, runID, writes)
		if err == nil {
			return result, nil
		}

		var conflict *syncerr.StorageConflictError
		if !errors.As(err, &conflict) || ctx.Err() != nil {
			break
		}
		slog.Warn("Storage conflict while applying batch",
			"run", runID,
			"attempt", attempt,
			"sqlstate", conflict.SQLState,
			"size", len(writes))
	}

	failed := make([]EntityFailure, 0, len(writes))
	for _, diff := range writes {
		failed = append(failed, EntityFailure{Diff: diff, Err: err})
	}
	return BatchResult{Failed: failed}, err
}

func (d *dbSyncWriter) applyOnce(ctx context.Context, runID uuid.UUID, writes []Diff) (BatchResult, error) {
	var result BatchResult

	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return result, storageError("failed to begin transaction", err)
	}
	defer rollback(ctx, tx)

	for _, diff := range writes {
		savepoint, err := tx.Begin(ctx)
		if err != nil {
			return BatchResult{}, storageError("failed to create savepoint", err)
		}

		action, err := applyDiff(ctx, sqlc.New(savepoint), runID, diff)
		if err != nil {
			rollback(ctx, savepoint)
			if state, ok := conflictState(err); ok {
				return BatchResult{}, &syncerr.StorageConflictError{SQLState: state, Err: err}
			}
			if ctx.Err() != nil {
				return BatchResult{}, ctx.Err()
			}
			result.Failed = append(result.Failed, EntityFailure{Diff: diff, Err: err})
			continue
		}
		if err := savepoint.Commit(ctx); err != nil {
			return BatchResult{}, storageError("failed to release savepoint", err)
		}

		switch action {
		case sqlc.ChangeActionCreated:
			result.Created++
		case sqlc.ChangeActionUpdated:
			result.Updated++
		case sqlc.ChangeActionDeleted:
			result.Tombstoned++
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return BatchResult{}, storageError("failed to commit transaction", err)
	}
	return result, nil
}

// applyDiff writes one entity with its references and outbox row. It returns
// the recorded change action, empty when nothing changed.
func applyDiff(ctx context.Context, q *sqlc.Queries, runID uuid.UUID, diff Diff) (sqlc.ChangeAction, error) {
	e := diff.Entity

	if diff.Classification == ClassificationDeleted {
		n, err := q.TombstoneEntity(ctx, sqlc.TombstoneEntityParams{
			RunID:      pgUUID(runID),
			SourceID:   diff.SourceID,
			ExternalID: e.ExternalID,
		})
		if err != nil {
			return "", fmt.Errorf("failed to tombstone %s: %w", e.ExternalID, err)
		}
		if n == 0 {
			return "", nil
		}
		return sqlc.ChangeActionDeleted, insertChange(ctx, q, runID, diff.SourceID, e.Kind, e.ExternalID, sqlc.ChangeActionDeleted)
	}

	payload, err := e.PayloadJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode payload of %s: %w", e.ExternalID, err)
	}
	extra, err := e.ExtraJSON()
	if err != nil {
		return "", fmt.Errorf("failed to encode extra fields of %s: %w", e.ExternalID, err)
	}

	row, err := q.UpsertEntity(ctx, sqlc.UpsertEntityParams{
		SourceID:       diff.SourceID,
		ExternalID:     e.ExternalID,
		Kind:           string(e.Kind),
		BodyID:         pgUUID(diff.BodyID),
		Name:           pgText(e.Name),
		Payload:        payload,
		Extra:          extra,
		Fingerprint:    e.Fingerprint,
		SourceModified: pgTime(e.Modified),
		LastSeenRun:    pgUUID(runID),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upsert %s: %w", e.ExternalID, err)
	}

	if err := q.DeleteReferencesFrom(ctx, sqlc.DeleteReferencesFromParams{
		SourceID:       diff.SourceID,
		FromExternalID: e.ExternalID,
	}); err != nil {
		return "", fmt.Errorf("failed to clear references of %s: %w", e.ExternalID, err)
	}
	for _, ref := range e.References {
		if err := q.UpsertReference(ctx, sqlc.UpsertReferenceParams{
			SourceID:       diff.SourceID,
			ToExternalID:   ref.Target,
			FromExternalID: e.ExternalID,
			Field:          ref.Field,
		}); err != nil {
			return "", fmt.Errorf("failed to store reference %s of %s: %w", ref.Field, e.ExternalID, err)
		}
	}

	action := sqlc.ChangeActionUpdated
	if row.Inserted {
		action = sqlc.ChangeActionCreated
	}
	return action, insertChange(ctx, q, runID, diff.SourceID, e.Kind, e.ExternalID, action)
}

// Touch refreshes last_seen_at and last_seen_run only
func (d *dbSyncWriter) Touch(ctx context.Context, runID uuid.UUID, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := sqlc.New(d.pool).TouchEntities(ctx, sqlc.TouchEntitiesParams{
		RunID: pgUUID(runID),
		Ids:   ids,
	}); err != nil {
		return storageError("failed to touch entities", err)
	}
	return nil
}

// ResolveReferences links pointers whose target now exists. Pointers that
// stay unresolved are logged and kept for a later pass.
func (d *dbSyncWriter) ResolveReferences(ctx context.Context, sourceID string) (ResolveResult, error) {
	q := sqlc.New(d.pool)

	resolved, err := q.ResolveReferences(ctx, sourceID)
	if err != nil {
		return ResolveResult{}, storageError("failed to resolve references", err)
	}
	unresolved, err := q.CountUnresolvedReferences(ctx, sourceID)
	if err != nil {
		return ResolveResult{}, storageError("failed to count unresolved references", err)
	}

	if unresolved > 0 {
		sample, err := q.ListUnresolvedReferences(ctx, sqlc.ListUnresolvedReferencesParams{
			SourceID: sourceID,
			Limit:    unresolvedSample,
		})
		if err == nil {
			for _, ref := range sample {
				slog.Debug("Unresolved reference",
					"source", sourceID,
					"from", ref.FromExternalID,
					"field", ref.Field,
					"to", ref.ToExternalID)
			}
		}
	}

	return ResolveResult{Resolved: resolved, Unresolved: unresolved}, nil
}

// TombstoneUnseen tombstones the live entities of the body whose last
// observing run is not runID, recording a deleted change for each
func (d *dbSyncWriter) TombstoneUnseen(
	ctx context.Context,
	sourceID string,
	bodyID, runID uuid.UUID,
) ([]TombstonedEntity, error) {
	tx, err := d.pool.Begin(ctx)
	if err != nil {
		return nil, storageError("failed to begin transaction", err)
	}
	defer rollback(ctx, tx)

	q := sqlc.New(tx)
	rows, err := q.TombstoneUnseenEntities(ctx, sqlc.TombstoneUnseenEntitiesParams{
		BodyID: pgUUID(bodyID),
		RunID:  runID,
	})
	if err != nil {
		return nil, storageError("failed to tombstone unseen entities", err)
	}

	out := make([]TombstonedEntity, 0, len(rows))
	for _, row := range rows {
		kind := transform.Kind(row.Kind)
		if err := insertChange(ctx, q, runID, sourceID, kind, row.ExternalID, sqlc.ChangeActionDeleted); err != nil {
			return nil, err
		}
		out = append(out, TombstonedEntity{ExternalID: row.ExternalID, Kind: kind})
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, storageError("failed to commit transaction", err)
	}
	return out, nil
}

func insertChange(
	ctx context.Context,
	q *sqlc.Queries,
	runID uuid.UUID,
	sourceID string,
	kind transform.Kind,
	externalID string,
	action sqlc.ChangeAction,
) error {
	if err := q.InsertEntityChange(ctx, sqlc.InsertEntityChangeParams{
		ID:         uuid.New(),
		RunID:      runID,
		SourceID:   sourceID,
		Kind:       string(kind),
		ExternalID: externalID,
		Action:     action,
	}); err != nil {
		return fmt.Errorf("failed to record change of %s: %w", externalID, err)
	}
	return nil
}

func rollback(ctx context.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
		slog.Debug("Rollback failed", "error", err)
	}
}

func conflictState(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && conflictStates[pgErr.Code] {
		return pgErr.Code, true
	}
	return "", false
}

func storageError(msg string, err error) error {
	if state, ok := conflictState(err); ok {
		return &syncerr.StorageConflictError{SQLState: state, Err: fmt.Errorf("%s: %w", msg, err)}
	}
	return fmt.Errorf("%s: %w", msg, err)
}

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func pgText(s string) pgtype.Text {
	return pgtype.Text{String: s, Valid: s != ""}
}

func pgTime(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: !t.IsZero()}
}

package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stacklok/oparl-sync/internal/db/sqlc"
)

// DefaultBatchSize is the number of outbox rows published per round trip
const DefaultBatchSize = 500

// changeStore is the slice of the generated queries the outbox needs
type changeStore interface {
	ListPendingChanges(ctx context.Context, arg sqlc.ListPendingChangesParams) ([]sqlc.EntityChange, error)
	MarkChangesDelivered(ctx context.Context, ids []uuid.UUID) (int64, error)
}

// Outbox publishes undelivered change rows of a source
type Outbox struct {
	store     changeStore
	publisher Publisher
	batchSize int
}

// OutboxOption configures an Outbox
type OutboxOption func(*Outbox)

// WithBatchSize overrides DefaultBatchSize
func WithBatchSize(n int) OutboxOption {
	return func(o *Outbox) {
		if n > 0 {
			o.batchSize = n
		}
	}
}

// NewOutbox creates an outbox reading the entity_change table through pool
func NewOutbox(pool *pgxpool.Pool, publisher Publisher, opts ...OutboxOption) *Outbox {
	return newOutbox(sqlc.New(pool), publisher, opts...)
}

func newOutbox(store changeStore, publisher Publisher, opts ...OutboxOption) *Outbox {
	o := &Outbox{
		store:     store,
		publisher: publisher,
		batchSize: DefaultBatchSize,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Flush publishes pending changes of sourceID in batches until none remain
// and returns how many were delivered. Rows of a batch that failed to
// publish stay pending.
func (o *Outbox) Flush(ctx context.Context, sourceID string) (int, error) {
	delivered := 0
	for {
		rows, err := o.store.ListPendingChanges(ctx, sqlc.ListPendingChangesParams{
			SourceID: sourceID,
			Limit:    int32(o.batchSize), //nolint:gosec // batch size is small and positive
		})
		if err != nil {
			return delivered, fmt.Errorf("failed to list pending changes: %w", err)
		}
		if len(rows) == 0 {
			return delivered, nil
		}

		events := make([]ChangeEvent, 0, len(rows))
		ids := make([]uuid.UUID, 0, len(rows))
		for _, row := range rows {
			events = append(events, toEvent(row))
			ids = append(ids, row.ID)
		}

		if err := o.publisher.Publish(ctx, events); err != nil {
			return delivered, fmt.Errorf("failed to publish %d change events: %w", len(events), err)
		}
		if _, err := o.store.MarkChangesDelivered(ctx, ids); err != nil {
			return delivered, fmt.Errorf("failed to mark changes delivered: %w", err)
		}
		delivered += len(rows)

		slog.Debug("Flushed change batch", "source", sourceID, "count", len(rows))
		if len(rows) < o.batchSize {
			return delivered, nil
		}
	}
}

func toEvent(row sqlc.EntityChange) ChangeEvent {
	e := ChangeEvent{
		ID:         row.ID,
		RunID:      row.RunID,
		SourceID:   row.SourceID,
		Kind:       row.Kind,
		ExternalID: row.ExternalID,
		Action:     string(row.Action),
	}
	if row.OccurredAt.Valid {
		e.OccurredAt = row.OccurredAt.Time.UTC()
	}
	return e
}

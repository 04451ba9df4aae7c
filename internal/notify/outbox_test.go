package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/db/sqlc"
)

// memoryStore serves pending rows from memory in insertion order
type memoryStore struct {
	rows      []sqlc.EntityChange
	delivered map[uuid.UUID]bool
	listErr   error
	markErr   error
	lists     int
}

func newMemoryStore(n int) *memoryStore {
	s := &memoryStore{delivered: map[uuid.UUID]bool{}}
	runID := uuid.New()
	for i := range n {
		s.rows = append(s.rows, sqlc.EntityChange{
			ID:         uuid.New(),
			RunID:      runID,
			SourceID:   "ratsinfo",
			Kind:       "PAPER",
			ExternalID: "https://example.org/oparl/paper/" + string(rune('a'+i)),
			Action:     sqlc.ChangeActionCreated,
			OccurredAt: pgtype.Timestamptz{Time: time.Date(2024, 3, 1, 10, 0, i, 0, time.UTC), Valid: true},
		})
	}
	return s
}

func (s *memoryStore) ListPendingChanges(_ context.Context, arg sqlc.ListPendingChangesParams) ([]sqlc.EntityChange, error) {
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []sqlc.EntityChange
	for _, row := range s.rows {
		if row.SourceID == arg.SourceID && !s.delivered[row.ID] && len(out) < int(arg.Limit) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (s *memoryStore) MarkChangesDelivered(_ context.Context, ids []uuid.UUID) (int64, error) {
	if s.markErr != nil {
		return 0, s.markErr
	}
	for _, id := range ids {
		s.delivered[id] = true
	}
	return int64(len(ids)), nil
}

type recordingPublisher struct {
	batches [][]ChangeEvent
	err     error
}

func (p *recordingPublisher) Publish(_ context.Context, events []ChangeEvent) error {
	if p.err != nil {
		return p.err
	}
	p.batches = append(p.batches, events)
	return nil
}

func (*recordingPublisher) Close() error { return nil }

func TestOutbox_Flush(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		rows          int
		batchSize     int
		wantDelivered int
		wantBatches   []int
	}{
		{name: "nothing pending", rows: 0, batchSize: 2, wantDelivered: 0},
		{name: "single short batch", rows: 1, batchSize: 2, wantDelivered: 1, wantBatches: []int{1}},
		{name: "exact multiple of batch size", rows: 4, batchSize: 2, wantDelivered: 4, wantBatches: []int{2, 2}},
		{name: "remainder batch", rows: 5, batchSize: 2, wantDelivered: 5, wantBatches: []int{2, 2, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemoryStore(tt.rows)
			pub := &recordingPublisher{}
			outbox := newOutbox(store, pub, WithBatchSize(tt.batchSize))

			delivered, err := outbox.Flush(context.Background(), "ratsinfo")
			require.NoError(t, err)
			assert.Equal(t, tt.wantDelivered, delivered)

			sizes := make([]int, 0, len(pub.batches))
			for _, b := range pub.batches {
				sizes = append(sizes, len(b))
			}
			if tt.wantBatches == nil {
				assert.Empty(t, sizes)
			} else {
				assert.Equal(t, tt.wantBatches, sizes)
			}
			assert.Len(t, store.delivered, tt.rows)
		})
	}
}

func TestOutbox_FlushMapsRows(t *testing.T) {
	t.Parallel()

	store := newMemoryStore(1)
	pub := &recordingPublisher{}

	_, err := newOutbox(store, pub).Flush(context.Background(), "ratsinfo")
	require.NoError(t, err)

	require.Len(t, pub.batches, 1)
	row := store.rows[0]
	assert.Equal(t, ChangeEvent{
		ID:         row.ID,
		RunID:      row.RunID,
		SourceID:   "ratsinfo",
		Kind:       "PAPER",
		ExternalID: row.ExternalID,
		Action:     ActionCreated,
		OccurredAt: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
	}, pub.batches[0][0])
}

func TestOutbox_FlushFailures(t *testing.T) {
	t.Parallel()

	t.Run("publish failure keeps rows pending", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore(3)
		pub := &recordingPublisher{err: errors.New("broker down")}

		delivered, err := newOutbox(store, pub).Flush(context.Background(), "ratsinfo")
		require.ErrorContains(t, err, "broker down")
		assert.Zero(t, delivered)
		assert.Empty(t, store.delivered)
	})

	t.Run("list failure", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore(3)
		store.listErr = errors.New("connection reset")

		_, err := newOutbox(store, &recordingPublisher{}).Flush(context.Background(), "ratsinfo")
		require.ErrorContains(t, err, "failed to list pending changes")
	})

	t.Run("mark failure reports delivered count so far", func(t *testing.T) {
		t.Parallel()

		store := newMemoryStore(3)
		store.markErr = errors.New("read only transaction")
		pub := &recordingPublisher{}

		delivered, err := newOutbox(store, pub, WithBatchSize(2)).Flush(context.Background(), "ratsinfo")
		require.ErrorContains(t, err, "failed to mark changes delivered")
		assert.Zero(t, delivered)
		assert.Len(t, pub.batches, 1)
	})
}

func TestWithBatchSize_IgnoresNonPositive(t *testing.T) {
	t.Parallel()

	o := newOutbox(newMemoryStore(0), &recordingPublisher{}, WithBatchSize(0))
	assert.Equal(t, DefaultBatchSize, o.batchSize)
}

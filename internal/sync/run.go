package sync

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/stacklok/oparl-sync/internal/otel"
	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/sync/state"
	"github.com/stacklok/oparl-sync/internal/sync/writer"
	"github.com/stacklok/oparl-sync/internal/syncerr"
	"github.com/stacklok/oparl-sync/internal/telemetry"
	"github.com/stacklok/oparl-sync/internal/transform"
)

// Entity outcomes as recorded in metrics
const (
	outcomeCreated    = "created"
	outcomeUpdated    = "updated"
	outcomeUnchanged  = "unchanged"
	outcomeTombstoned = "tombstoned"
	outcomeErrored    = "errored"
)

// syncRun holds the state of one PerformSync call. Bodies are synced
// concurrently; the aggregate fields are guarded by mu.
type syncRun struct {
	*defaultSyncManager

	source *state.Source
	runID  uuid.UUID
	mode   status.RunMode
	client sources.Client
	logger *slog.Logger

	mu      sync.Mutex
	counts  status.Counts
	errors  []status.RunError
	cursors map[uuid.UUID]time.Time
}

func (r *syncRun) sourceID() string {
	return r.source.Config.ID
}

func (r *syncRun) fail(err error, url, conditionType, conditionReason, message string) (*Result, *Error) {
	r.recordError(err, "", "", url)
	result := r.result()
	result.Status = status.RunStatusFailed
	result.Note = message
	return result, &Error{
		Err:             err,
		Message:         message,
		ConditionType:   conditionType,
		ConditionReason: conditionReason,
	}
}

func (r *syncRun) result() *Result {
	r.mu.Lock()
	defer r.mu.Unlock()
	return &Result{
		Counts:  r.counts,
		Errors:  append([]status.RunError(nil), r.errors...),
		Cursors: maps.Clone(r.cursors),
	}
}

func (r *syncRun) add(c status.Counts) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts.Add(c)
}

func (r *syncRun) recordError(err error, bodyID, entityID, url string) {
	runErr := newRunError(err, bodyID, entityID, url, r.now())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, runErr)
}

func (r *syncRun) setCursor(bodyID uuid.UUID, cursor time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cursors[bodyID] = cursor
}

// syncBodies processes the bodies with bounded parallelism and returns how
// many of them were unreachable
func (r *syncRun) syncBodies(ctx context.Context, bodies []sources.Body) int {
	var (
		g           errgroup.Group
		mu          sync.Mutex
		unreachable int
	)
	g.SetLimit(max(1, r.cfg.BodyWorkers))

	for i := range bodies {
		body := &bodies[i]
		if ctx.Err() != nil {
			r.abandon(ctx, body)
			continue
		}
		g.Go(func() error {
			if ctx.Err() != nil {
				r.abandon(ctx, body)
				return nil
			}
			if !r.syncBody(ctx, body) {
				mu.Lock()
				unreachable++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return unreachable
}

// abandon records a body that was not started before the run ended
func (r *syncRun) abandon(ctx context.Context, body *sources.Body) {
	r.recordInterruption(ctx, body.ID, body.ID, "body not synced")
}

// recordInterruption records work skipped because the run was cancelled or
// ran out of budget. url is the first resource that was not processed.
func (r *syncRun) recordInterruption(ctx context.Context, bodyID, url, what string) {
	code, message := syncerr.CodeCancelled, what+" before shutdown"
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		code, message = syncerr.CodeAbandoned, what+" before the run budget ran out"
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.errors = append(r.errors, status.RunError{
		Type:       syncerr.TypeRunBudget,
		Code:       string(code),
		BodyID:     bodyID,
		URL:        url,
		Message:    message,
		OccurredAt: r.now(),
	})
}

// bodySync is the per-body state of a run. It is only touched by the
// goroutine syncing the body.
type bodySync struct {
	*syncRun

	body   *sources.Body
	record writer.BodyRecord
	logger *slog.Logger

	// complete stays true while every collection was walked to its end
	complete bool
	// cursor is the greatest source modification time seen
	cursor time.Time

	// failures counts record and write errors of the body's pages
	failures int

	pages         int
	walkErrors    int
	permanentErrs bool
}

// pageError records an error that left records of a page unprocessed
func (b *bodySync) pageError(err error, entityID, url string) {
	b.failures++
	b.recordError(err, b.body.ID, entityID, url)
}

// syncBody walks the collections of a body and reports whether the body was reachable
func (r *syncRun) syncBody(ctx context.Context, body *sources.Body) bool {
	ctx, span := otel.StartSpan(ctx, r.tracer, "sync.body", trace.WithAttributes(
		otel.AttrSourceID.String(r.sourceID()),
		otel.AttrBodyID.String(body.ID),
	))
	defer span.End()

	logger := r.logger.With("body", body.ID)

	rec, err := r.writer.UpsertBody(ctx, r.sourceID(), body)
	if err != nil {
		logger.Error("Failed to store body", "error", err)
		otel.RecordError(span, err)
		r.recordError(err, body.ID, "", body.ID)
		return true
	}

	b := &bodySync{
		syncRun:  r,
		body:     body,
		record:   rec,
		logger:   logger,
		complete: true,
	}

	if body.Deleted {
		logger.Info("Body flagged deleted by source, tombstoning its entities")
		b.tombstoneUnseen(ctx)
		return true
	}

	since := b.since()
	if b.mode == status.RunModeIncremental && since == nil {
		logger.Info("Body has no cursor yet, walking its collections without modified_since")
	}
	if b.wantsEmbeddedTerms(since) {
		b.processPage(ctx, transform.KindLegislativeTerm, &sources.Page{URL: body.ID, Records: body.LegislativeTerms})
	}
	for _, c := range bodyCollections(body) {
		if ctx.Err() != nil {
			b.complete = false
			break
		}
		b.walkCollection(ctx, c.kind, c.url, since)
	}

	resolved, err := r.writer.ResolveReferences(ctx, r.sourceID())
	switch {
	case err != nil:
		logger.Warn("Reference resolution failed", "error", err)
		r.recordError(err, body.ID, "", "")
	case resolved.Unresolved > 0:
		logger.Info("Unresolved references remain", "resolved", resolved.Resolved, "unresolved", resolved.Unresolved)
	}

	if ctx.Err() != nil {
		b.complete = false
	}

	if r.mode == status.RunModeFull {
		if b.complete {
			b.tombstoneUnseen(ctx)
		} else {
			logger.Warn("Skipping tombstone pass, body was not walked completely")
		}
	}

	if b.complete && !b.cursor.IsZero() && (rec.Cursor == nil || b.cursor.After(*rec.Cursor)) {
		r.setCursor(rec.ID, b.cursor)
	}

	return b.reachable()
}

// since returns the modified_since filter of an incremental run. Bodies
// without a cursor, new ones or ones never walked completely, get none so
// that everything they already hold is fetched.
func (b *bodySync) since() *time.Time {
	if b.mode != status.RunModeIncremental {
		return nil
	}
	return b.record.Cursor
}

// wantsEmbeddedTerms reports whether the terms embedded in the body object
// need processing. Incremental runs skip them unless the body changed.
func (b *bodySync) wantsEmbeddedTerms(since *time.Time) bool {
	if len(b.body.LegislativeTerms) == 0 {
		return false
	}
	if since == nil || b.body.Modified.IsZero() {
		return true
	}
	return b.body.Modified.After(*since)
}

// reachable is false when nothing could be fetched and every walk failed on
// a transient error
func (b *bodySync) reachable() bool {
	return b.pages > 0 || b.walkErrors == 0 || b.permanentErrs
}

// walkCollection fetches the pages of one collection. A producer goroutine
// fetches page N+1 while page N is processed.
func (b *bodySync) walkCollection(ctx context.Context, kind transform.Kind, listURL string, since *time.Time) {
	ctx, span := otel.StartSpan(ctx, b.tracer, "sync.collection", trace.WithAttributes(
		otel.AttrBodyID.String(b.body.ID),
		otel.AttrCollection.String(kind.String()),
	))
	defer span.End()

	startURL := listURL
	if since != nil {
		u, err := sources.ModifiedSinceURL(listURL, *since)
		if err != nil {
			b.complete = false
			b.recordError(&syncerr.PermanentRequestError{
				URL: listURL, Code: syncerr.CodeInvalidRequest, Message: err.Error(), Err: err,
			}, b.body.ID, "", listURL)
			return
		}
		startURL = u
	}

	var opts []sources.PageOption
	if b.mode == status.RunModeIncremental {
		opts = append(opts, sources.WithConditionalRequest())
	}

	pages := make(chan *sources.Page, 1)
	walkErr := make(chan error, 1)
	go func() {
		defer close(pages)
		walkErr <- sources.Walk(ctx, b.client, startURL, func(page *sources.Page) error {
			select {
			case pages <- page:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, opts...)
	}()

	var (
		first    *sources.Page
		next     = startURL
		failures = b.failures
	)
	for page := range pages {
		if first == nil {
			first = page
		}
		next = page.Next
		b.pages++
		result := telemetry.PageResultOK
		if page.Cache.NotModified {
			result = telemetry.PageResultNotModified
		}
		b.metrics.RecordPageFetch(ctx, b.sourceID(), result)
		b.processPage(ctx, kind, page)
	}

	err := <-walkErr
	if err == nil {
		// a 304 for the first page skips the whole walk, so its validators
		// are only kept once every record of the collection was processed
		if len(opts) > 0 && first != nil && first.Cache.Storable() && b.failures == failures {
			b.client.CommitValidators(first)
		}
		return
	}
	b.complete = false
	if ctx.Err() != nil {
		b.logger.Info("Collection walk interrupted", "collection", kind, "error", ctx.Err())
		if next == "" {
			next = startURL
		}
		b.recordInterruption(ctx, b.body.ID, next, kind.String()+" list not walked to its end")
		return
	}

	b.walkErrors++
	if !syncerr.IsRetryable(err) {
		b.permanentErrs = true
	}
	otel.RecordError(span, err)
	b.metrics.RecordPageFetch(ctx, b.sourceID(), telemetry.PageResultError)
	b.logger.Warn("Collection walk stopped", "collection", kind, "error", err)
	b.recordError(err, b.body.ID, "", errorURL(err, startURL))
}

// processPage transforms, classifies and writes the records of one page
func (b *bodySync) processPage(ctx context.Context, kind transform.Kind, page *sources.Page) {
	if len(page.Records) == 0 {
		return
	}

	counts := status.Counts{Fetched: len(page.Records)}
	entities, failedIDs := b.transformPage(ctx, kind, page, &counts)

	lookupIDs := make([]string, 0, len(entities)+len(failedIDs))
	for _, e := range entities {
		lookupIDs = append(lookupIDs, e.ExternalID)
	}
	lookupIDs = append(lookupIDs, failedIDs...)

	stored, err := b.writer.Lookup(ctx, b.sourceID(), lookupIDs)
	if err != nil {
		b.complete = false
		b.logger.Error("Failed to look up stored entities", "url", page.URL, "error", err)
		b.pageError(err, "", page.URL)
		counts.Errored += len(entities)
		b.metrics.RecordEntities(ctx, b.sourceID(), kind.String(), outcomeErrored, counts.Errored)
		b.add(counts)
		return
	}

	var touch []uuid.UUID
	live := func(st *writer.StoredEntity) {
		if st != nil && !st.Tombstoned {
			touch = append(touch, st.ID)
		}
	}

	byKind := make(map[transform.Kind][]writer.Diff)
	unchanged := make(map[transform.Kind]int)
	for _, e := range entities {
		st := stored[e.ExternalID]
		classification := b.detector.Classify(e, st)
		if classification == writer.ClassificationUnchanged {
			unchanged[e.Kind]++
			live(st)
			continue
		}
		byKind[e.Kind] = append(byKind[e.Kind], writer.Diff{
			SourceID:       b.sourceID(),
			BodyID:         b.record.ID,
			Entity:         e,
			Stored:         st,
			Classification: classification,
		})
	}
	// records that failed to transform are still present at the source
	for _, id := range failedIDs {
		live(stored[id])
	}

	for _, k := range transform.Kinds {
		counts.Unchanged += unchanged[k]
		b.metrics.RecordEntities(ctx, b.sourceID(), k.String(), outcomeUnchanged, unchanged[k])

		for _, batch := range chunk(byKind[k], b.cfg.PageBatchSize) {
			res, err := b.writer.Apply(ctx, b.runID, batch)
			if err != nil {
				b.logger.Warn("Batch not written", "kind", k, "size", len(batch), "error", err)
			}
			counts.Created += res.Created
			counts.Updated += res.Updated
			counts.Tombstoned += res.Tombstoned
			counts.Errored += len(res.Failed)
			for _, f := range res.Failed {
				b.pageError(f.Err, f.Diff.Entity.ExternalID, page.URL)
				live(f.Diff.Stored)
			}
			b.metrics.RecordEntities(ctx, b.sourceID(), k.String(), outcomeCreated, res.Created)
			b.metrics.RecordEntities(ctx, b.sourceID(), k.String(), outcomeUpdated, res.Updated)
			b.metrics.RecordEntities(ctx, b.sourceID(), k.String(), outcomeTombstoned, res.Tombstoned)
			b.metrics.RecordEntities(ctx, b.sourceID(), k.String(), outcomeErrored, len(res.Failed))
		}
	}

	if len(touch) > 0 {
		if err := b.writer.Touch(ctx, b.runID, touch); err != nil {
			// untouched entities would look unseen to the tombstone pass
			b.complete = false
			b.logger.Error("Failed to mark entities seen", "count", len(touch), "error", err)
			b.pageError(err, "", page.URL)
		}
	}

	b.add(counts)
}

// transformPage normalizes the records of a page. Duplicate ids keep their
// first occurrence. It returns the flattened entities and the ids of records
// that failed to transform.
func (b *bodySync) transformPage(
	ctx context.Context, kind transform.Kind, page *sources.Page, counts *status.Counts,
) ([]*transform.Entity, []string) {
	var (
		entities  []*transform.Entity
		failedIDs []string
	)
	seen := make(map[string]struct{})

	for _, raw := range page.Records {
		id := raw.ID()
		if _, dup := seen[id]; dup && id != "" {
			continue
		}
		seen[id] = struct{}{}

		e, err := b.transformer.Transform(raw, kind)
		if err != nil {
			counts.Errored++
			b.metrics.RecordEntities(ctx, b.sourceID(), kind.String(), outcomeErrored, 1)
			b.pageError(err, id, page.URL)
			if id != "" {
				failedIDs = append(failedIDs, id)
			}
			continue
		}
		if e.Modified.After(b.cursor) {
			b.cursor = e.Modified
		}

		for _, child := range e.Flatten()[1:] {
			if _, dup := seen[child.ExternalID]; dup {
				continue
			}
			seen[child.ExternalID] = struct{}{}
			entities = append(entities, child)
		}
		entities = append(entities, e)
	}
	return entities, failedIDs
}

// tombstoneUnseen marks entities of the body the run did not observe
func (b *bodySync) tombstoneUnseen(ctx context.Context) {
	tombstoned, err := b.writer.TombstoneUnseen(ctx, b.sourceID(), b.record.ID, b.runID)
	if err != nil {
		b.logger.Error("Tombstone pass failed", "error", err)
		b.recordError(err, b.body.ID, "", "")
		return
	}
	if len(tombstoned) == 0 {
		return
	}

	perKind := make(map[transform.Kind]int)
	for _, t := range tombstoned {
		perKind[t.Kind]++
	}
	for kind, n := range perKind {
		b.metrics.RecordEntities(ctx, b.sourceID(), kind.String(), outcomeTombstoned, n)
	}
	b.logger.Info("Tombstoned entities no longer listed by the source", "count", len(tombstoned))
	b.add(status.Counts{Tombstoned: len(tombstoned)})
}

type collection struct {
	kind transform.Kind
	url  string
}

// bodyCollections lists the collections of a body in walk order
func bodyCollections(body *sources.Body) []collection {
	all := []collection{
		{transform.KindOrganization, body.OrganizationListURL},
		{transform.KindPerson, body.PersonListURL},
		{transform.KindMeeting, body.MeetingListURL},
		{transform.KindPaper, body.PaperListURL},
	}
	out := all[:0]
	for _, c := range all {
		if c.url != "" {
			out = append(out, c)
		}
	}
	return out
}

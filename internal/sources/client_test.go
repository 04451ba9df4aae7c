package sources_test

import (
	"context"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stacklok/oparl-sync/internal/httpclient"
	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

func newClient(baseURL string) *sources.OParlClient {
	return sources.NewOParlClient(baseURL, httpclient.NewDefaultClient(
		httpclient.WithMaxAttempts(2),
		httpclient.WithBackoff(time.Millisecond, time.Millisecond),
	))
}

func newPapersServer(t *testing.T, n int) *sources.TestServer {
	t.Helper()
	srv := sources.NewTestServer()
	t.Cleanup(srv.Close)
	srv.AddBody("b1", "Stadt Musterhausen")
	for i := range n {
		id := srv.ObjectURL("paper", string(rune('a'+i)))
		srv.Put("b1", sources.CollectionPaper, sources.NewTestObject(id, "Paper",
			sources.WithField("name", "Drucksache "+id)))
	}
	return srv
}

func TestOParlClient_FetchSystemAndBodies(t *testing.T) {
	t.Parallel()

	srv := sources.NewTestServer()
	defer srv.Close()
	srv.AddBody("b1", "Stadt Musterhausen")
	srv.AddBody("b2", "Kreis Beispiel")
	srv.AddBody("b3", "Gemeinde Test")
	srv.AddLegislativeTerm("b1", "2020")

	client := newClient(srv.SystemURL())

	system, err := client.FetchSystem(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.SystemURL(), system.ID)
	assert.Equal(t, srv.URL+"/oparl/v1/bodies", system.BodyListURL)

	// three bodies with a page size of two span two pages
	bodies, err := client.ListBodies(context.Background(), system)
	require.NoError(t, err)
	require.Len(t, bodies, 3)
	assert.Equal(t, srv.BodyURL("b1"), bodies[0].ID)
	assert.Equal(t, "Stadt Musterhausen", bodies[0].Name)
	assert.Equal(t, "B1", bodies[0].ShortName)
	assert.Equal(t, srv.CollectionURL("b1", sources.CollectionPaper), bodies[0].PaperListURL)
	assert.Len(t, bodies[0].LegislativeTerms, 1)
	assert.Empty(t, bodies[1].LegislativeTerms)
	assert.False(t, bodies[0].Modified.IsZero())
}

func TestOParlClient_FetchSystemWithoutBodyList(t *testing.T) {
	t.Parallel()

	srv := newStaticServer(t, `{"id":"http://x/system","type":"https://schema.oparl.org/1.1/System"}`)
	_, err := newClient(srv).FetchSystem(context.Background())

	var pe *syncerr.PermanentRequestError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, syncerr.CodeMalformedResponse, pe.Code)
}

func TestWalk_FollowsNextLinks(t *testing.T) {
	t.Parallel()

	srv := newPapersServer(t, 5)
	client := newClient(srv.SystemURL())

	var (
		pages   int
		records []sources.RawRecord
	)
	err := sources.Walk(context.Background(), client, srv.CollectionURL("b1", sources.CollectionPaper),
		func(p *sources.Page) error {
			pages++
			records = append(records, p.Records...)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, pages)
	require.Len(t, records, 5)
	assert.Equal(t, srv.ObjectURL("paper", "a"), records[0].ID())
	assert.Equal(t, "https://schema.oparl.org/1.1/Paper", records[0].Type())
}

func TestWalk_ModifiedSince(t *testing.T) {
	t.Parallel()

	srv := newPapersServer(t, 3)
	changed := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	srv.Put("b1", sources.CollectionPaper, sources.NewTestObject(srv.ObjectURL("paper", "b"), "Paper",
		sources.WithModified(changed)))

	first, err := sources.ModifiedSinceURL(srv.CollectionURL("b1", sources.CollectionPaper), changed.Add(-time.Hour))
	require.NoError(t, err)
	u, err := url.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29T23:00:00Z", u.Query().Get(sources.ModifiedSinceParam))

	var records []sources.RawRecord
	err = sources.Walk(context.Background(), newClient(srv.SystemURL()), first, func(p *sources.Page) error {
		records = append(records, p.Records...)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	modified, ok := records[0].Modified()
	require.True(t, ok)
	assert.True(t, modified.Equal(changed))
}

func TestWalk_PermanentPageErrorStopsCollection(t *testing.T) {
	t.Parallel()

	srv := newPapersServer(t, 5)
	srv.FailPage("b1", sources.CollectionPaper, 2, http.StatusGone)

	var pages int
	err := sources.Walk(context.Background(), newClient(srv.SystemURL()),
		srv.CollectionURL("b1", sources.CollectionPaper),
		func(*sources.Page) error {
			pages++
			return nil
		})

	var pe *syncerr.PermanentRequestError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, http.StatusGone, pe.StatusCode)
	assert.Equal(t, 1, pages)
}

func TestWalk_TransientErrorsAreRetried(t *testing.T) {
	t.Parallel()

	srv := newPapersServer(t, 3)
	srv.FailPage("b1", sources.CollectionPaper, 1, http.StatusServiceUnavailable)

	var records int
	err := sources.Walk(context.Background(), newClient(srv.SystemURL()),
		srv.CollectionURL("b1", sources.CollectionPaper),
		func(p *sources.Page) error {
			records += len(p.Records)
			return nil
		})
	require.NoError(t, err)
	assert.Equal(t, 3, records)
}

func TestWalk_CyclicNextLink(t *testing.T) {
	t.Parallel()

	var self string
	srv := httptestHandler(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"x"}],"links":{"next":"` + self + `"}}`))
	})
	self = srv + "/list"

	err := sources.Walk(context.Background(), newClient(srv), self, func(*sources.Page) error { return nil })

	var pe *syncerr.PermanentRequestError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, syncerr.CodeBrokenPagination, pe.Code)
}

func TestFetchPage_MalformedEnvelopes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		wantCode syncerr.Code
	}{
		{name: "not json", body: `<html>`, wantCode: syncerr.CodeMalformedResponse},
		{name: "no data array", body: `{"items":[]}`, wantCode: syncerr.CodeMalformedResponse},
		{name: "data is an object", body: `{"data":{}}`, wantCode: syncerr.CodeMalformedResponse},
		{name: "next link with bad scheme", body: `{"data":[],"links":{"next":"ftp://x/list"}}`, wantCode: syncerr.CodeBrokenPagination},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := newStaticServer(t, tt.body)
			_, err := newClient(srv).FetchPage(context.Background(), srv+"/list", "")

			var pe *syncerr.PermanentRequestError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantCode, pe.Code)
		})
	}
}

func TestFetchPage_RelativeNextLink(t *testing.T) {
	t.Parallel()

	srv := newStaticServer(t, `{"data":[],"links":{"next":"/list?page=2"}}`)
	page, err := newClient(srv).FetchPage(context.Background(), srv+"/list", "")
	require.NoError(t, err)
	assert.Equal(t, srv+"/list?page=2", page.Next)
	assert.Empty(t, page.Records)
}

func TestFetchPage_Conditional(t *testing.T) {
	t.Parallel()

	srv := httptestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("If-None-Match") == `"p1"` {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", `"p1"`)
		_, _ = w.Write([]byte(`{"data":[{"id":"a"}],"links":{"next":"/list?page=2"}}`))
	})
	client := newClient(srv)

	page, err := client.FetchPage(context.Background(), srv+"/list", "", sources.WithConditionalRequest())
	require.NoError(t, err)
	assert.Len(t, page.Records, 1)
	assert.Equal(t, `"p1"`, page.Cache.ETag)

	// an uncommitted page is fetched in full again
	again, err := client.FetchPage(context.Background(), srv+"/list", "", sources.WithConditionalRequest())
	require.NoError(t, err)
	assert.Len(t, again.Records, 1)
	assert.False(t, again.Cache.NotModified)

	client.CommitValidators(page)
	page, err = client.FetchPage(context.Background(), srv+"/list", "", sources.WithConditionalRequest())
	require.NoError(t, err)
	assert.True(t, page.Cache.NotModified)
	assert.Empty(t, page.Records)
	assert.Empty(t, page.Next)
}

func TestFetchResource(t *testing.T) {
	t.Parallel()

	srv := newStaticServer(t, `{"id":"http://x/paper/1","deleted":true}`)
	rec, err := newClient(srv).FetchResource(context.Background(), srv+"/paper/1")
	require.NoError(t, err)
	assert.Equal(t, "http://x/paper/1", rec.ID())
	assert.True(t, rec.Deleted())

	arr := newStaticServer(t, `[1,2]`)
	_, err = newClient(arr).FetchResource(context.Background(), arr+"/paper/1")
	var pe *syncerr.PermanentRequestError
	require.ErrorAs(t, err, &pe)
}

func TestCommitValidators_SkipsNotModifiedPages(t *testing.T) {
	t.Parallel()

	cache := httpclient.NewValidatorCache()
	client := sources.NewOParlClient("http://oparl.example.org/system",
		httpclient.NewDefaultClient(httpclient.WithValidatorCache(cache)))

	client.CommitValidators(nil)
	client.CommitValidators(&sources.Page{URL: "http://x/list", Cache: sources.CacheMeta{NotModified: true, ETag: `"a"`}})
	client.CommitValidators(&sources.Page{URL: "http://x/list"})
	assert.Zero(t, cache.Len())

	client.CommitValidators(&sources.Page{URL: "http://x/list", Cache: sources.CacheMeta{LastModified: "Mon, 03 Jun 2024 10:00:00 GMT"}})
	v, ok := cache.Get("http://x/list")
	require.True(t, ok)
	assert.Equal(t, "Mon, 03 Jun 2024 10:00:00 GMT", v.LastModified)
}

package sources

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Collection names of a test body, matching the OParl Body fields
const (
	CollectionOrganization = "organization"
	CollectionPerson       = "person"
	CollectionMeeting      = "meeting"
	CollectionPaper        = "paper"
)

// TestServer is an in-memory OParl endpoint for tests. It serves a System
// object, a body list and the paginated collections of every body. It
// honours the modified_since filter and answers If-None-Match with 304.
type TestServer struct {
	*httptest.Server

	mu       sync.Mutex
	pageSize int
	bodies   []*testBody
	failures map[string][]int
	hits     map[string]int
	// notModified counts the 304 answers per path
	notModified map[string]int
}

type testBody struct {
	key         string
	name        string
	modified    time.Time
	deleted     bool
	terms       []map[string]any
	collections map[string][]map[string]any
}

// TestServerOption configures a TestServer
type TestServerOption func(*TestServer)

// WithPageSize sets the number of objects per list page
func WithPageSize(n int) TestServerOption {
	return func(s *TestServer) {
		s.pageSize = n
	}
}

// NewTestServer starts a TestServer. Callers close it with Close.
func NewTestServer(opts ...TestServerOption) *TestServer {
	s := &TestServer{
		pageSize: 2,
		failures:    make(map[string][]int),
		hits:        make(map[string]int),
		notModified: make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	s.Config.SetKeepAlivesEnabled(false)
	return s
}

// SystemURL is the base URL of the source
func (s *TestServer) SystemURL() string {
	return s.URL + "/oparl/v1/system"
}

// BodyURL returns the external id of a body
func (s *TestServer) BodyURL(bodyKey string) string {
	return s.URL + "/oparl/v1/body/" + bodyKey
}

// ObjectURL returns the external id of an object
func (s *TestServer) ObjectURL(kind, key string) string {
	return s.URL + "/oparl/v1/" + kind + "/" + key
}

// CollectionURL returns the list URL of a body collection
func (s *TestServer) CollectionURL(bodyKey, collection string) string {
	return s.BodyURL(bodyKey) + "/" + collection
}

// AddBody registers a body
func (s *TestServer) AddBody(key, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bodies = append(s.bodies, &testBody{
		key:         key,
		name:        name,
		modified:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		collections: make(map[string][]map[string]any),
	})
}

// AddLegislativeTerm embeds a legislative term in the body object
func (s *TestServer) AddLegislativeTerm(bodyKey, termKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.body(bodyKey)
	b.terms = append(b.terms, map[string]any{
		"id":        s.ObjectURL("legislativeterm", bodyKey+"-"+termKey),
		"type":      "https://schema.oparl.org/1.1/LegislativeTerm",
		"name":      termKey,
		"startDate": "2020-11-01",
		"endDate":   "2025-10-31",
	})
}

// DeleteBody flags a body as deleted in the body list
func (s *TestServer) DeleteBody(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.body(key)
	b.deleted = true
	b.modified = b.modified.Add(time.Hour)
}

// Put adds or replaces an object (matched by id) in a body collection
func (s *TestServer) Put(bodyKey, collection string, obj map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.body(bodyKey)
	items := b.collections[collection]
	for i, existing := range items {
		if existing["id"] == obj["id"] {
			items[i] = obj
			return
		}
	}
	b.collections[collection] = append(items, obj)
}

// Remove deletes an object from a body collection
func (s *TestServer) Remove(bodyKey, collection, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.body(bodyKey)
	items := b.collections[collection]
	for i, existing := range items {
		if existing["id"] == id {
			b.collections[collection] = append(items[:i], items[i+1:]...)
			return
		}
	}
}

// FailPage makes the given page (1-based) of a collection answer with the
// statuses in order, then recover
func (s *TestServer) FailPage(bodyKey, collection string, page int, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := fmt.Sprintf("/oparl/v1/body/%s/%s#%d", bodyKey, collection, page)
	s.failures[key] = append(s.failures[key], statuses...)
}

// FailPath makes requests to path answer with the statuses in order
func (s *TestServer) FailPath(path string, statuses ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[path] = append(s.failures[path], statuses...)
}

// Hits returns how often path was requested
func (s *TestServer) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// NotModifiedHits returns how often path was answered with 304
func (s *TestServer) NotModifiedHits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notModified[path]
}

func (s *TestServer) body(key string) *testBody {
	for _, b := range s.bodies {
		if b.key == key {
			return b
		}
	}
	panic("unknown test body " + key)
}

func (s *TestServer) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := r.URL.Path
	s.hits[path]++

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	for _, key := range []string{path, fmt.Sprintf("%s#%d", path, page)} {
		if statuses := s.failures[key]; len(statuses) > 0 {
			s.failures[key] = statuses[1:]
			w.WriteHeader(statuses[0])
			return
		}
	}

	parts := strings.Split(strings.TrimPrefix(path, "/oparl/v1/"), "/")
	switch {
	case path == "/oparl/v1/system":
		writeJSON(w, map[string]any{
			"id":           s.SystemURL(),
			"type":         "https://schema.oparl.org/1.1/System",
			"oparlVersion": "https://schema.oparl.org/1.1/",
			"name":         "Test system",
			"body":         s.URL + "/oparl/v1/bodies",
		})
	case path == "/oparl/v1/bodies":
		items := make([]map[string]any, 0, len(s.bodies))
		for _, b := range s.bodies {
			items = append(items, s.bodyObject(b))
		}
		s.writePage(w, r, items, page)
	case len(parts) == 3 && parts[0] == "body":
		b := s.body(parts[1])
		items := b.collections[parts[2]]
		if since := r.URL.Query().Get(ModifiedSinceParam); since != "" {
			items = filterModifiedSince(items, since)
		}
		s.writePage(w, r, items, page)
	default:
		http.NotFound(w, r)
	}
}

func (s *TestServer) bodyObject(b *testBody) map[string]any {
	obj := map[string]any{
		"id":           s.BodyURL(b.key),
		"type":         "https://schema.oparl.org/1.1/Body",
		"name":         b.name,
		"shortName":    strings.ToUpper(b.key),
		"modified":     b.modified.Format(time.RFC3339),
		"organization": s.CollectionURL(b.key, CollectionOrganization),
		"person":       s.CollectionURL(b.key, CollectionPerson),
		"meeting":      s.CollectionURL(b.key, CollectionMeeting),
		"paper":        s.CollectionURL(b.key, CollectionPaper),
	}
	if len(b.terms) > 0 {
		obj["legislativeTerm"] = b.terms
	}
	if b.deleted {
		obj["deleted"] = true
	}
	return obj
}

func (s *TestServer) writePage(w http.ResponseWriter, r *http.Request, items []map[string]any, page int) {
	start := (page - 1) * s.pageSize
	if start > len(items) {
		start = len(items)
	}
	end := min(start+s.pageSize, len(items))

	env := map[string]any{
		"data":  append([]map[string]any{}, items[start:end]...),
		"links": map[string]any{},
	}
	if end < len(items) {
		next := *r.URL
		next.Scheme = "http"
		next.Host = r.Host
		q := next.Query()
		q.Set("page", strconv.Itoa(page+1))
		next.RawQuery = q.Encode()
		env["links"] = map[string]any{"next": next.String()}
	}

	body, err := json.Marshal(env)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	etag := fmt.Sprintf(`"%x"`, sha256.Sum256(body))
	w.Header().Set("ETag", etag)
	if r.Header.Get("If-None-Match") == etag {
		s.notModified[r.URL.Path]++
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(body)
}

func filterModifiedSince(items []map[string]any, since string) []map[string]any {
	t, err := time.Parse(time.RFC3339, since)
	if err != nil {
		return items
	}
	var out []map[string]any
	for _, item := range items {
		m, _ := item["modified"].(string)
		mt, err := time.Parse(time.RFC3339, m)
		if err != nil || mt.After(t) {
			out = append(out, item)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// TestObjectOption configures an object built by NewTestObject
type TestObjectOption func(map[string]any)

// NewTestObject builds an OParl object of the given type name (e.g. "Paper")
func NewTestObject(id, typeName string, opts ...TestObjectOption) map[string]any {
	obj := map[string]any{
		"id":       id,
		"type":     "https://schema.oparl.org/1.1/" + typeName,
		"modified": "2024-01-01T00:00:00Z",
	}
	for _, opt := range opts {
		opt(obj)
	}
	return obj
}

// WithField sets a field of the object
func WithField(name string, value any) TestObjectOption {
	return func(obj map[string]any) {
		obj[name] = value
	}
}

// WithModified sets the modified timestamp of the object
func WithModified(t time.Time) TestObjectOption {
	return func(obj map[string]any) {
		obj["modified"] = t.UTC().Format(time.RFC3339)
	}
}

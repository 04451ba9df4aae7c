package sources

import (
	"context"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/oparl-sync/internal/config"
)

//go:generate mockgen -destination=mocks/mock_client.go -package=mocks -source=types.go Client,ClientFactory

// Client fetches OParl resources of a single source
type Client interface {
	// FetchSystem retrieves the System object the source's base URL points at
	FetchSystem(ctx context.Context) (*System, error)

	// ListBodies walks the system's body list and returns every Body
	ListBodies(ctx context.Context, system *System) ([]Body, error)

	// FetchPage retrieves one page of a list. cursor is the next-page URL
	// returned by the previous page; when empty, collectionURL is fetched.
	FetchPage(ctx context.Context, collectionURL, cursor string, opts ...PageOption) (*Page, error)

	// FetchResource retrieves a single object
	FetchResource(ctx context.Context, resourceURL string) (RawRecord, error)

	// CommitValidators stores the cache validators of a page whose records
	// were all processed. Later conditional requests for page.URL may then be
	// answered "not modified".
	CommitValidators(page *Page)
}

// ClientFactory creates clients for configured sources
type ClientFactory interface {
	NewClient(ctx context.Context, source *config.SourceConfig) (Client, error)
}

// RawRecord is one JSON object exactly as the source returned it
type RawRecord []byte

// ID returns the OParl id (the object's canonical URL)
func (r RawRecord) ID() string {
	return gjson.GetBytes(r, "id").String()
}

// Type returns the OParl type URL, e.g. https://schema.oparl.org/1.1/Paper
func (r RawRecord) Type() string {
	return gjson.GetBytes(r, "type").String()
}

// Modified returns the source-reported modification time, if parseable
func (r RawRecord) Modified() (time.Time, bool) {
	return parseTime(gjson.GetBytes(r, "modified").String())
}

// Deleted reports whether the source flagged the object as deleted
func (r RawRecord) Deleted() bool {
	return gjson.GetBytes(r, "deleted").Bool()
}

// CacheMeta carries the HTTP cache validators of a page response
type CacheMeta struct {
	ETag         string
	LastModified string
	NotModified  bool
}

// Storable reports whether the response carried validators worth keeping
func (c CacheMeta) Storable() bool {
	return !c.NotModified && (c.ETag != "" || c.LastModified != "")
}

// Page is one page of a list
type Page struct {
	// URL is the URL the page was fetched from
	URL     string
	Records []RawRecord
	// Next is the absolute URL of the following page, empty on the last page
	Next  string
	Cache CacheMeta
}

// System is the entry object of an OParl endpoint
type System struct {
	ID           string
	Name         string
	OParlVersion string
	BodyListURL  string
	Raw          RawRecord
}

// Body is an organizational subdivision exposed by a source
type Body struct {
	ID        string
	Name      string
	ShortName string
	Modified  time.Time
	Deleted   bool

	OrganizationListURL string
	PersonListURL       string
	MeetingListURL      string
	PaperListURL        string
	// LegislativeTermListURL is only offered by OParl 1.1 sources
	LegislativeTermListURL string

	// LegislativeTerms holds the terms embedded in the body object
	LegislativeTerms []RawRecord

	Raw RawRecord
}

// PageOption customizes a page request
type PageOption func(*pageOptions)

type pageOptions struct {
	conditional bool
}

// WithConditionalRequest sends the validators committed for the page URL. A
// "not modified" answer yields an empty page without a next link.
func WithConditionalRequest() PageOption {
	return func(o *pageOptions) {
		o.conditional = true
	}
}

func parseTime(value string) (time.Time, bool) {
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

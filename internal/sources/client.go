package sources

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/tidwall/gjson"

	"github.com/stacklok/oparl-sync/internal/httpclient"
	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// ModifiedSinceParam is the OParl list filter for incremental fetches
const ModifiedSinceParam = "modified_since"

// OParlClient reads one OParl source through an httpclient.Client
type OParlClient struct {
	baseURL    string
	httpClient httpclient.Client
}

var _ Client = (*OParlClient)(nil)

// NewOParlClient creates a client for the system at baseURL
func NewOParlClient(baseURL string, httpClient httpclient.Client) *OParlClient {
	return &OParlClient{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

// FetchSystem retrieves the System object
func (c *OParlClient) FetchSystem(ctx context.Context) (*System, error) {
	raw, err := c.FetchResource(ctx, c.baseURL)
	if err != nil {
		return nil, err
	}

	system := &System{
		ID:           raw.ID(),
		Name:         gjson.GetBytes(raw, "name").String(),
		OParlVersion: gjson.GetBytes(raw, "oparlVersion").String(),
		BodyListURL:  gjson.GetBytes(raw, "body").String(),
		Raw:          raw,
	}
	if system.BodyListURL == "" {
		return nil, &syncerr.PermanentRequestError{
			URL:     c.baseURL,
			Code:    syncerr.CodeMalformedResponse,
			Message: "system object has no body list",
		}
	}
	return system, nil
}

// ListBodies walks the body list of the system
func (c *OParlClient) ListBodies(ctx context.Context, system *System) ([]Body, error) {
	var bodies []Body
	err := Walk(ctx, c, system.BodyListURL, func(page *Page) error {
		for _, rec := range page.Records {
			body, err := parseBody(rec)
			if err != nil {
				slog.WarnContext(ctx, "Skipping malformed body", "url", page.URL, "error", err)
				continue
			}
			bodies = append(bodies, body)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return bodies, nil
}

// FetchPage retrieves a single list page
func (c *OParlClient) FetchPage(
	ctx context.Context, collectionURL, cursor string, opts ...PageOption,
) (*Page, error) {
	po := &pageOptions{}
	for _, opt := range opts {
		opt(po)
	}

	pageURL := collectionURL
	if cursor != "" {
		pageURL = cursor
	}

	var reqOpts []httpclient.RequestOption
	if po.conditional {
		reqOpts = append(reqOpts, httpclient.WithConditional())
	}

	resp, err := c.httpClient.Get(ctx, pageURL, reqOpts...)
	if err != nil {
		return nil, err
	}

	page := &Page{
		URL: pageURL,
		Cache: CacheMeta{
			ETag:         resp.ETag,
			LastModified: resp.LastModified,
			NotModified:  resp.NotModified,
		},
	}
	if resp.NotModified {
		return page, nil
	}

	if !gjson.ValidBytes(resp.Body) {
		return nil, malformed(pageURL, "list page is not valid JSON")
	}
	data := gjson.GetBytes(resp.Body, "data")
	if !data.IsArray() {
		return nil, malformed(pageURL, "list page has no data array")
	}
	data.ForEach(func(_, value gjson.Result) bool {
		page.Records = append(page.Records, RawRecord(value.Raw))
		return true
	})

	if next := gjson.GetBytes(resp.Body, "links.next"); next.Exists() && next.String() != "" {
		resolved, err := resolveLink(pageURL, next.String())
		if err != nil {
			return nil, &syncerr.PermanentRequestError{
				URL:     pageURL,
				Code:    syncerr.CodeBrokenPagination,
				Message: fmt.Sprintf("invalid next link %q", next.String()),
				Err:     err,
			}
		}
		page.Next = resolved
	}
	return page, nil
}

// FetchResource retrieves a single object
func (c *OParlClient) FetchResource(ctx context.Context, resourceURL string) (RawRecord, error) {
	resp, err := c.httpClient.Get(ctx, resourceURL)
	if err != nil {
		return nil, err
	}
	if !gjson.ValidBytes(resp.Body) || !gjson.ParseBytes(resp.Body).IsObject() {
		return nil, malformed(resourceURL, "resource is not a JSON object")
	}
	return RawRecord(resp.Body), nil
}

// validatorStore is implemented by HTTP clients that keep a validator cache
type validatorStore interface {
	Validators() *httpclient.ValidatorCache
}

// CommitValidators stores the validators of page. Not-modified pages and
// pages without validators leave the cache untouched.
func (c *OParlClient) CommitValidators(page *Page) {
	if page == nil || !page.Cache.Storable() {
		return
	}
	store, ok := c.httpClient.(validatorStore)
	if !ok {
		return
	}
	store.Validators().Put(page.URL, httpclient.Validators{
		ETag:         page.Cache.ETag,
		LastModified: page.Cache.LastModified,
	})
}

// ModifiedSinceURL adds the modified_since filter to a list URL
func ModifiedSinceURL(collectionURL string, since time.Time) (string, error) {
	u, err := url.Parse(collectionURL)
	if err != nil {
		return "", fmt.Errorf("invalid collection URL %q: %w", collectionURL, err)
	}
	q := u.Query()
	q.Set(ModifiedSinceParam, since.UTC().Format(time.RFC3339))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func resolveLink(base, link string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", err
	}
	l, err := url.Parse(link)
	if err != nil {
		return "", err
	}
	resolved := b.ResolveReference(l)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", fmt.Errorf("unsupported scheme %q", resolved.Scheme)
	}
	return resolved.String(), nil
}

func malformed(pageURL, msg string) error {
	return &syncerr.PermanentRequestError{URL: pageURL, Code: syncerr.CodeMalformedResponse, Message: msg}
}

func parseBody(rec RawRecord) (Body, error) {
	if !gjson.ParseBytes(rec).IsObject() {
		return Body{}, fmt.Errorf("body entry is not an object")
	}
	id := rec.ID()
	if id == "" {
		return Body{}, fmt.Errorf("body has no id")
	}

	parsed := gjson.GetManyBytes(rec,
		"name", "shortName", "organization", "person", "meeting", "paper", "legislativeTermList")
	body := Body{
		ID:                     id,
		Name:                   parsed[0].String(),
		ShortName:              parsed[1].String(),
		OrganizationListURL:    parsed[2].String(),
		PersonListURL:          parsed[3].String(),
		MeetingListURL:         parsed[4].String(),
		PaperListURL:           parsed[5].String(),
		LegislativeTermListURL: parsed[6].String(),
		Deleted:                rec.Deleted(),
		Raw:                    rec,
	}
	if modified, ok := rec.Modified(); ok {
		body.Modified = modified
	}
	gjson.GetBytes(rec, "legislativeTerm").ForEach(func(_, value gjson.Result) bool {
		if value.IsObject() {
			body.LegislativeTerms = append(body.LegislativeTerms, RawRecord(value.Raw))
		}
		return true
	})
	return body, nil
}

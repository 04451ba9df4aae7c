// Package httpclient provides the resilient HTTP client used to talk to
// council-information sources: conditional requests, error classification,
// bounded retries with jittered exponential backoff, a per-source concurrency
// bound and optional request pacing.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/stacklok/oparl-sync/internal/syncerr"
)

const (
	// DefaultTimeout is the default timeout for a single HTTP request
	DefaultTimeout = 30 * time.Second

	// DefaultMaxAttempts bounds the attempts per request, including the first one
	DefaultMaxAttempts = 5

	// DefaultConcurrency bounds in-flight requests per client
	DefaultConcurrency = 4

	// DefaultCooldown applies to 429 responses without a usable Retry-After
	DefaultCooldown = 60 * time.Second

	// MaxCooldown caps the wait requested by a Retry-After header
	MaxCooldown = 5 * time.Minute

	// MaxResponseSize is the maximum allowed response size (100MB)
	MaxResponseSize = 100 * 1024 * 1024

	// UserAgent is the user agent string for HTTP requests
	UserAgent = "oparl-sync/1.0"
)

// Client is an interface for HTTP operations against one source
type Client interface {
	// Get performs an HTTP GET request with retries and returns the response.
	// Errors are *syncerr.TransientNetworkError after retries were exhausted,
	// *syncerr.PermanentRequestError, or the context error.
	Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error)
}

// Response is a successful or not-modified response
type Response struct {
	URL          string
	StatusCode   int
	Body         []byte
	ETag         string
	LastModified string
	// NotModified is set when the server answered 304 to a conditional request
	NotModified bool
	// Attempts is the number of requests issued, including retries
	Attempts int
}

// RequestOption customizes a single request
type RequestOption func(*requestOptions)

type requestOptions struct {
	conditional bool
}

// WithConditional sends the cached validators of the URL. Validators of the
// response are not stored; the caller puts them into the cache once the
// response has been fully processed, so a failed page is fetched again.
func WithConditional() RequestOption {
	return func(o *requestOptions) {
		o.conditional = true
	}
}

// DefaultClient is the default HTTP client implementation
type DefaultClient struct {
	client         *http.Client
	timeout        time.Duration
	maxAttempts    uint
	initialBackoff time.Duration
	maxBackoff     time.Duration
	cooldown       time.Duration
	sem            *semaphore.Weighted
	limiter        *rate.Limiter
	validators     *ValidatorCache
	userAgent      string
	onAttempt      func(url string, status int, err error)
}

// Option configures a DefaultClient
type Option func(*DefaultClient)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(c *DefaultClient) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxAttempts sets the number of attempts per request
func WithMaxAttempts(n uint) Option {
	return func(c *DefaultClient) {
		if n > 0 {
			c.maxAttempts = n
		}
	}
}

// WithBackoff sets the initial and maximum retry interval
func WithBackoff(initial, maxInterval time.Duration) Option {
	return func(c *DefaultClient) {
		if initial > 0 {
			c.initialBackoff = initial
		}
		if maxInterval > 0 {
			c.maxBackoff = maxInterval
		}
	}
}

// WithCooldown sets the wait applied to 429 responses without Retry-After
func WithCooldown(d time.Duration) Option {
	return func(c *DefaultClient) {
		if d > 0 {
			c.cooldown = d
		}
	}
}

// WithConcurrency bounds the number of in-flight requests
func WithConcurrency(n int) Option {
	return func(c *DefaultClient) {
		if n > 0 {
			c.sem = semaphore.NewWeighted(int64(n))
		}
	}
}

// WithRateLimit paces requests to rps requests per second (0 disables pacing)
func WithRateLimit(rps float64) Option {
	return func(c *DefaultClient) {
		if rps > 0 {
			burst := int(rps)
			if burst < 1 {
				burst = 1
			}
			c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
		}
	}
}

// WithTransport sets the round tripper, e.g. an authenticating transport
func WithTransport(rt http.RoundTripper) Option {
	return func(c *DefaultClient) {
		if rt != nil {
			c.client.Transport = rt
		}
	}
}

// WithValidatorCache shares a validator cache between clients
func WithValidatorCache(cache *ValidatorCache) Option {
	return func(c *DefaultClient) {
		if cache != nil {
			c.validators = cache
		}
	}
}

// WithAttemptObserver registers a callback invoked after every attempt
func WithAttemptObserver(fn func(url string, status int, err error)) Option {
	return func(c *DefaultClient) {
		c.onAttempt = fn
	}
}

// WithUserAgent overrides the User-Agent header. Empty values are ignored.
func WithUserAgent(ua string) Option {
	return func(c *DefaultClient) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewDefaultClient creates a new HTTP client
func NewDefaultClient(opts ...Option) *DefaultClient {
	c := &DefaultClient{
		client:         &http.Client{},
		timeout:        DefaultTimeout,
		maxAttempts:    DefaultMaxAttempts,
		initialBackoff: 500 * time.Millisecond,
		maxBackoff:     30 * time.Second,
		cooldown:       DefaultCooldown,
		sem:            semaphore.NewWeighted(DefaultConcurrency),
		validators:     NewValidatorCache(),
		userAgent:      UserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.client.Timeout = c.timeout
	return c
}

// Validators exposes the conditional request cache
func (c *DefaultClient) Validators() *ValidatorCache {
	return c.validators
}

func (c *DefaultClient) newBackOff() *backoff.ExponentialBackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initialBackoff
	b.MaxInterval = c.maxBackoff
	b.RandomizationFactor = 0.5
	b.Multiplier = 2
	return b
}

// Get performs an HTTP GET request with retries
func (c *DefaultClient) Get(ctx context.Context, url string, opts ...RequestOption) (*Response, error) {
	ro := &requestOptions{}
	for _, opt := range opts {
		opt(ro)
	}

	var (
		attempts int
		lastErr  error
	)

	operation := func() (*Response, error) {
		attempts++
		resp, err := c.do(ctx, url, ro)
		if c.onAttempt != nil {
			status := 0
			if resp != nil {
				status = resp.StatusCode
			}
			c.onAttempt(url, status, err)
		}
		if err == nil {
			resp.Attempts = attempts
			return resp, nil
		}
		lastErr = err

		var transient *syncerr.TransientNetworkError
		if !errors.As(err, &transient) {
			return nil, backoff.Permanent(err)
		}

		slog.Debug("Transient fetch error", "url", url, "attempt", attempts, "error", err)
		if transient.RetryAfter > 0 {
			return nil, backoff.RetryAfter(int(transient.RetryAfter.Round(time.Second) / time.Second))
		}
		return nil, err
	}

	resp, err := backoff.Retry(ctx, operation,
		backoff.WithBackOff(c.newBackOff()),
		backoff.WithMaxTries(c.maxAttempts),
		backoff.WithMaxElapsedTime(0),
	)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// RetryAfter errors are control values; surface the typed cause instead
		var ra *backoff.RetryAfterError
		if errors.As(err, &ra) && lastErr != nil {
			return nil, lastErr
		}
		return nil, err
	}
	return resp, nil
}

// do performs a single attempt and classifies its outcome
func (c *DefaultClient) do(ctx context.Context, url string, ro *requestOptions) (*Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := c.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer c.sem.Release(1)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &syncerr.PermanentRequestError{
			URL: url, Code: syncerr.CodeInvalidRequest, Message: "failed to create request", Err: err,
		}
	}

	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	if ro.conditional {
		if v, ok := c.validators.Get(url); ok {
			if v.ETag != "" {
				req.Header.Set("If-None-Match", v.ETag)
			}
			if v.LastModified != "" {
				req.Header.Set("If-Modified-Since", v.LastModified)
			}
		}
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		code := syncerr.CodeNetwork
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			code = syncerr.CodeTimeout
		}
		return nil, &syncerr.TransientNetworkError{URL: url, Code: code, Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if err := classifyStatus(url, resp, c.cooldown); err != nil {
		return &Response{URL: url, StatusCode: resp.StatusCode}, err
	}

	if resp.StatusCode == http.StatusNotModified {
		return &Response{URL: url, StatusCode: resp.StatusCode, NotModified: true}, nil
	}

	if resp.ContentLength > MaxResponseSize {
		return nil, &syncerr.PermanentRequestError{
			URL: url, StatusCode: resp.StatusCode, Code: syncerr.CodeMalformedResponse,
			Message: fmt.Sprintf("response size %d bytes exceeds maximum allowed size of %d bytes",
				resp.ContentLength, MaxResponseSize),
		}
	}

	limitedReader := io.LimitReader(resp.Body, MaxResponseSize+1)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		// a truncated body is usually a dropped connection
		return nil, &syncerr.TransientNetworkError{URL: url, Code: syncerr.CodeNetwork, Err: err}
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, &syncerr.PermanentRequestError{
			URL: url, StatusCode: resp.StatusCode, Code: syncerr.CodeMalformedResponse,
			Message: fmt.Sprintf("response size exceeds maximum allowed size of %d bytes", MaxResponseSize),
		}
	}

	return &Response{
		URL:          url,
		StatusCode:   resp.StatusCode,
		Body:         body,
		ETag:         resp.Header.Get("ETag"),
		LastModified: resp.Header.Get("Last-Modified"),
	}, nil
}

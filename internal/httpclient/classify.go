package httpclient

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/stacklok/oparl-sync/internal/syncerr"
)

// classifyStatus maps a response status to nil (usable), a transient error
// (5xx, 429) or a permanent error (other 4xx, unexpected statuses).
func classifyStatus(url string, resp *http.Response, cooldown time.Duration) error {
	code := resp.StatusCode
	switch {
	case code == http.StatusOK, code == http.StatusNotModified:
		return nil
	case code == http.StatusTooManyRequests:
		wait := parseRetryAfter(resp.Header.Get("Retry-After"), time.Now())
		if wait <= 0 {
			wait = cooldown
		}
		if wait > MaxCooldown {
			wait = MaxCooldown
		}
		return &syncerr.TransientNetworkError{
			URL: url, StatusCode: code, Code: syncerr.CodeRateLimit, RetryAfter: wait,
		}
	case code >= 500:
		return &syncerr.TransientNetworkError{URL: url, StatusCode: code, Code: syncerr.CodeNetwork}
	case code == http.StatusNotFound, code == http.StatusGone:
		return &syncerr.PermanentRequestError{URL: url, StatusCode: code, Code: syncerr.CodeNotFound}
	default:
		return &syncerr.PermanentRequestError{URL: url, StatusCode: code, Code: syncerr.CodeInvalidRequest}
	}
}

// parseRetryAfter reads a Retry-After header given either in seconds or as an HTTP date.
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}

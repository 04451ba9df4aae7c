package sources

import (
	"context"
	"fmt"
	"net/http"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/httpclient"
	"github.com/stacklok/oparl-sync/internal/secrets"
)

// defaultClientFactory is the default implementation of ClientFactory
type defaultClientFactory struct {
	syncCfg    config.SyncConfig
	resolver   secrets.Resolver
	validators *httpclient.ValidatorCache
	transport  http.RoundTripper
	observer   func(url string, status int, err error)
	userAgent  string
}

var _ ClientFactory = (*defaultClientFactory)(nil)

// FactoryOption configures the client factory
type FactoryOption func(*defaultClientFactory)

// WithBaseTransport sets the transport credentials are layered on
func WithBaseTransport(rt http.RoundTripper) FactoryOption {
	return func(f *defaultClientFactory) {
		f.transport = rt
	}
}

// WithRequestObserver registers a callback invoked after every HTTP attempt
func WithRequestObserver(fn func(url string, status int, err error)) FactoryOption {
	return func(f *defaultClientFactory) {
		f.observer = fn
	}
}

// WithUserAgent sets the User-Agent sent to every source
func WithUserAgent(ua string) FactoryOption {
	return func(f *defaultClientFactory) {
		f.userAgent = ua
	}
}

// NewClientFactory creates a factory. All clients share one validator cache
// so conditional requests survive across runs of the same process.
func NewClientFactory(syncCfg config.SyncConfig, resolver secrets.Resolver, opts ...FactoryOption) ClientFactory {
	f := &defaultClientFactory{
		syncCfg:    syncCfg,
		resolver:   resolver,
		validators: httpclient.NewValidatorCache(),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// NewClient builds a client for the given source
func (f *defaultClientFactory) NewClient(ctx context.Context, source *config.SourceConfig) (Client, error) {
	if err := source.Validate(); err != nil {
		return nil, fmt.Errorf("invalid source %s: %w", source.ID, err)
	}

	transport, err := httpclient.NewAuthTransport(ctx, source.Auth, f.resolver, f.transport)
	if err != nil {
		return nil, fmt.Errorf("source %s: %w", source.ID, err)
	}

	httpClient := httpclient.NewDefaultClient(
		httpclient.WithTransport(transport),
		httpclient.WithTimeout(f.syncCfg.RequestTimeout),
		httpclient.WithMaxAttempts(f.syncCfg.MaxAttempts),
		httpclient.WithBackoff(f.syncCfg.InitialBackoff, f.syncCfg.MaxBackoff),
		httpclient.WithCooldown(f.syncCfg.DefaultCooldown),
		httpclient.WithConcurrency(source.GetConcurrency(f.syncCfg.DefaultConcurrency)),
		httpclient.WithRateLimit(source.RequestsPerSecond),
		httpclient.WithValidatorCache(f.validators),
		httpclient.WithAttemptObserver(f.observer),
		httpclient.WithUserAgent(f.userAgent),
	)
	return NewOParlClient(source.BaseURL, httpClient), nil
}

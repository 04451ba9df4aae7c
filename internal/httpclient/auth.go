package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/secrets"
)

// NewAuthTransport wraps base with the credentials described by auth.
// A nil auth block, or type none, returns base unchanged.
func NewAuthTransport(
	ctx context.Context,
	auth *config.SourceAuthConfig,
	resolver secrets.Resolver,
	base http.RoundTripper,
) (http.RoundTripper, error) {
	if base == nil {
		base = http.DefaultTransport
	}
	if auth == nil || auth.Type == "" || auth.Type == config.AuthTypeNone {
		return base, nil
	}

	secret, err := resolver.Resolve(ctx, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s credentials: %w", auth.Type, err)
	}

	switch auth.Type {
	case config.AuthTypeBasic:
		return &basicTransport{base: base, username: auth.Username, password: secret}, nil
	case config.AuthTypeBearer:
		return &oauth2.Transport{
			Base:   base,
			Source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: secret, TokenType: "Bearer"}),
		}, nil
	case config.AuthTypeOAuth2:
		cc := &clientcredentials.Config{
			ClientID:     auth.ClientID,
			ClientSecret: secret,
			TokenURL:     auth.TokenURL,
			Scopes:       auth.Scopes,
		}
		// the token endpoint is called through base, not through the wrapped transport
		tokenCtx := context.WithValue(context.WithoutCancel(ctx), oauth2.HTTPClient, &http.Client{Transport: base})
		return &oauth2.Transport{
			Base:   base,
			Source: oauth2.ReuseTokenSource(nil, cc.TokenSource(tokenCtx)),
		}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", auth.Type)
	}
}

type basicTransport struct {
	base     http.RoundTripper
	username string
	password string
}

func (t *basicTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.SetBasicAuth(t.username, t.password)
	return t.base.RoundTrip(clone)
}

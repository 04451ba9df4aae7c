// Package auth provides dynamic database authentication.
package auth

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/oparl-sync/internal/app/storage/auth/aws"
	"github.com/stacklok/oparl-sync/internal/config"
)

// TokenSource issues short-lived database passwords
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// newTokenSource returns nil without error when dynamic auth is off
func newTokenSource(ctx context.Context, cfg *config.DatabaseConfig, user string) (TokenSource, error) {
	if cfg == nil {
		return nil, fmt.Errorf("database configuration is required")
	}
	if cfg.DynamicAuth == nil {
		return nil, nil
	}
	if cfg.DynamicAuth.AWSRDSIAM != nil {
		ts, err := aws.NewTokenSource(ctx, cfg, user)
		if err != nil {
			return nil, err
		}
		return ts, nil
	}
	return nil, fmt.Errorf("dynamic auth is configured but no supported auth method (e.g., awsRdsIam) is specified")
}

// ResolveAuthToken returns one token for user, or "" when dynamic auth is
// off. Migrations use it since golang-migrate opens its own connection.
func ResolveAuthToken(ctx context.Context, cfg *config.DatabaseConfig, user string) (string, error) {
	ts, err := newTokenSource(ctx, cfg, user)
	if err != nil || ts == nil {
		return "", err
	}
	return ts.Token(ctx)
}

// NewDynamicAuth returns a pgx BeforeConnect hook that injects a fresh token
// into every new pool connection.
func NewDynamicAuth(
	ctx context.Context,
	cfg *config.DatabaseConfig,
	user string,
) (func(ctx context.Context, connConfig *pgx.ConnConfig) error, error) {
	ts, err := newTokenSource(ctx, cfg, user)
	if err != nil {
		return nil, err
	}
	if ts == nil {
		return nil, fmt.Errorf("dynamic authentication is not configured")
	}
	return BeforeConnect(ts), nil
}

// BeforeConnect adapts a TokenSource to pgxpool's BeforeConnect hook
func BeforeConnect(ts TokenSource) func(ctx context.Context, connConfig *pgx.ConnConfig) error {
	return func(ctx context.Context, connConfig *pgx.ConnConfig) error {
		token, err := ts.Token(ctx)
		if err != nil {
			return fmt.Errorf("failed to obtain database token: %w", err)
		}
		connConfig.Password = token
		return nil
	}
}

package auth

import (
	"context"
	"fmt"

	"github.com/stacklok/oparl-sync/internal/config"
)

// MigrationConnectionString builds a connection string for the migration user.
// With dynamic auth the token is embedded so golang-migrate, which opens its
// own connection, can authenticate. Without dynamic auth the configured static
// password is used when available, otherwise the string carries no password
// and libpq-style pgpass lookup applies.
func MigrationConnectionString(ctx context.Context, cfg *config.DatabaseConfig) (string, error) {
	if cfg == nil {
		return "", fmt.Errorf("database configuration is required")
	}

	user := cfg.GetMigrationUser()

	token, err := ResolveAuthToken(ctx, cfg, user)
	if err != nil {
		return "", fmt.Errorf("failed to resolve auth token for migration user: %w", err)
	}

	if token == "" && cfg.DynamicAuth == nil {
		if password, err := cfg.GetPassword(); err == nil {
			token = password
		}
	}

	return cfg.BuildConnectionStringWithAuth(user, token), nil
}

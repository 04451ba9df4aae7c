package helpers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/onsi/gomega"

	"github.com/stacklok/oparl-sync/database"
)

// SourceSpec is a source entry of a generated configuration file
type SourceSpec struct {
	ID       string
	BaseURL  string
	Interval string
	Disabled bool
}

// WriteConfigYAML writes a configuration file pointing at the test database.
// Retries are kept short so that failing pages settle quickly.
func WriteConfigYAML(dir string, db *database.TestContainer, sources ...SourceSpec) string {
	passwordFile := filepath.Join(dir, "db-password")
	gomega.Expect(os.WriteFile(passwordFile, []byte(db.Password), 0600)).To(gomega.Succeed())

	var b strings.Builder
	b.WriteString("sources:\n")
	for _, src := range sources {
		interval := src.Interval
		if interval == "" {
			interval = "1h"
		}
		fmt.Fprintf(&b, "  - id: %s\n    baseUrl: %s\n    syncPolicy:\n      interval: %s\n",
			src.ID, src.BaseURL, interval)
		if src.Disabled {
			b.WriteString("    enabled: false\n")
		}
	}

	fmt.Fprintf(&b, `
sync:
  maxAttempts: 2
  initialBackoff: 10ms
  maxBackoff: 50ms
  requestTimeout: 5s

database:
  host: %s
  port: %d
  user: %s
  passwordFile: %s
  database: %s
  sslMode: disable

notify:
  type: log
`, db.Host, db.Port, db.User, passwordFile, db.Database)

	configPath := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(configPath, []byte(b.String()), 0600)).To(gomega.Succeed())
	return configPath
}

// ResetDatabase removes every source and everything synchronized for it
func ResetDatabase(ctx context.Context, db *database.TestContainer) {
	conn, err := pgx.Connect(ctx, db.ConnString)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = conn.Close(ctx)
	}()

	_, err = conn.Exec(ctx, `TRUNCATE entity_change, sync_run_error, sync_run,
		entity_reference, entity, body, source CASCADE`)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
}

// CountEntities returns the number of live (not tombstoned) entities of a source
func CountEntities(ctx context.Context, db *database.TestContainer, sourceID string) int {
	conn, err := pgx.Connect(ctx, db.ConnString)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = conn.Close(ctx)
	}()

	var n int
	err = conn.QueryRow(ctx,
		`SELECT count(*) FROM entity WHERE source_id = $1 AND NOT tombstoned`, sourceID).Scan(&n)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	return n
}

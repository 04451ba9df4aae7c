package integration

import (
	"context"
	"log/slog"
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/oparl-sync/database"
)

var (
	ctx    context.Context
	cancel context.CancelFunc
	testDB *database.TestContainer
)

func TestOParlSyncIntegration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration suite in short mode")
	}
	RegisterFailHandler(Fail)
	RunSpecs(t, "oparl-sync Integration Suite")
}

var _ = BeforeSuite(func() {
	slog.SetDefault(slog.New(slog.NewTextHandler(GinkgoWriter, &slog.HandlerOptions{Level: slog.LevelDebug})))

	ctx, cancel = context.WithCancel(context.TODO())

	var err error
	testDB, err = database.StartTestContainer(ctx)
	Expect(err).NotTo(HaveOccurred())
})

var _ = AfterSuite(func() {
	if testDB != nil {
		Expect(testDB.Terminate(context.Background())).To(Succeed())
	}
	cancel()
})

// createTempDir creates a temporary directory for test files
func createTempDir(prefix string) string {
	dir, err := os.MkdirTemp("", prefix)
	Expect(err).NotTo(HaveOccurred())
	return dir
}

// cleanupTempDir removes a temporary directory
func cleanupTempDir(dir string) {
	if err := os.RemoveAll(dir); err != nil {
		By("Warning: failed to cleanup temp dir " + dir + ": " + err.Error())
	}
}

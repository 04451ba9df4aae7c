package integration

import (
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/stacklok/oparl-sync/internal/api/v1"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/versions"
	"github.com/stacklok/oparl-sync/test-integration/oparl-sync/helpers"
)

var _ = Describe("Admin API", Label("admin"), func() {
	var (
		tempDir      string
		oparl        *sources.TestServer
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("oparl-admin-")

		oparl = sources.NewTestServer()
		oparl.AddBody("koeln", "Stadt Köln")
		oparl.Put("koeln", sources.CollectionOrganization, sources.NewTestObject(
			oparl.ObjectURL("organization", "o1"), "Organization", sources.WithField("name", "Rat der Stadt Köln")))

		// the configured source stays idle for the whole test
		configFile := helpers.WriteConfigYAML(tempDir, testDB,
			helpers.SourceSpec{ID: "bonn", BaseURL: "http://127.0.0.1:1/oparl/v1/system", Disabled: true})

		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(30 * time.Second)
	})

	AfterEach(func() {
		Expect(serverHelper.StopServer()).To(Succeed())
		oparl.Close()
		helpers.ResetDatabase(ctx, testDB)
		cleanupTempDir(tempDir)
	})

	It("lists the configured sources", func() {
		resp, err := serverHelper.Get("/v1/sources")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var list v1.SourceListResponse
		Expect(json.NewDecoder(resp.Body).Decode(&list)).To(Succeed())
		Expect(list.Count).To(Equal(1))
		Expect(list.Sources[0].Source.SourceID).To(Equal("bonn"))
		Expect(list.Sources[0].Source.Enabled).To(BeFalse())
		Expect(list.Sources[0].FromConfig).To(BeTrue())
	})

	It("refuses to sync a disabled source", func() {
		Expect(serverHelper.TriggerSync("bonn", "")).To(Equal(http.StatusConflict))
	})

	It("answers 404 for unknown sources", func() {
		resp, err := serverHelper.Get("/v1/sources/nowhere/status")
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusNotFound))

		Expect(serverHelper.TriggerSync("nowhere", "")).To(Equal(http.StatusNotFound))
	})

	It("registers a source at runtime and synchronizes it", func() {
		resp, err := serverHelper.Post("/v1/sources", v1.AddSourceRequest{
			ID:       "koeln",
			Name:     "Stadt Köln",
			BaseURL:  oparl.SystemURL(),
			Interval: "1h",
		})
		Expect(err).NotTo(HaveOccurred())
		var created service.SourceStatus
		Expect(json.NewDecoder(resp.Body).Decode(&created)).To(Succeed())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusCreated))
		Expect(created.FromConfig).To(BeFalse())
		Expect(created.Source.Enabled).To(BeTrue())

		// the scheduler may have picked the source up already
		Expect(serverHelper.TriggerSync("koeln", "")).To(SatisfyAny(
			Equal(http.StatusAccepted), Equal(http.StatusConflict)))

		runs := serverHelper.WaitForTerminalRuns("koeln", 1, runTimeout)
		Expect(runs[len(runs)-1].Status).To(Equal(status.RunStatusCompleted))
		Expect(helpers.CountEntities(ctx, testDB, "koeln")).To(Equal(1))
	})

	It("rejects a duplicate source id", func() {
		resp, err := serverHelper.Post("/v1/sources", v1.AddSourceRequest{
			ID:      "bonn",
			BaseURL: oparl.SystemURL(),
		})
		Expect(err).NotTo(HaveOccurred())
		_ = resp.Body.Close()
		Expect(resp.StatusCode).To(Equal(http.StatusConflict))
	})

	It("enables and disables a source", func() {
		for _, step := range []struct {
			action  string
			enabled bool
		}{
			{action: "enable", enabled: true},
			{action: "disable", enabled: false},
		} {
			resp, err := serverHelper.Post("/v1/sources/bonn/"+step.action, nil)
			Expect(err).NotTo(HaveOccurred())
			var updated v1.SourceUpdatedResponse
			Expect(json.NewDecoder(resp.Body).Decode(&updated)).To(Succeed())
			_ = resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(updated.Enabled).To(Equal(step.enabled))
			Expect(serverHelper.GetSourceStatus("bonn").Source.Enabled).To(Equal(step.enabled))
		}
	})

	It("reports its version", func() {
		resp, err := serverHelper.Get("/version")
		Expect(err).NotTo(HaveOccurred())
		defer func() {
			_ = resp.Body.Close()
		}()

		var info versions.Info
		Expect(json.NewDecoder(resp.Body).Decode(&info)).To(Succeed())
		Expect(info.Version).To(Equal(versions.GetInfo().Version))
	})
})

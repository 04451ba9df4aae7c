package integration

import (
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/stacklok/oparl-sync/internal/sources"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/test-integration/oparl-sync/helpers"
)

const runTimeout = 60 * time.Second

var _ = Describe("Source synchronization", Label("sync"), func() {
	var (
		tempDir      string
		oparl        *sources.TestServer
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("oparl-sync-")

		oparl = sources.NewTestServer()
		oparl.AddBody("bonn", "Stadt Bonn")
		oparl.Put("bonn", sources.CollectionPaper, sources.NewTestObject(
			oparl.ObjectURL("paper", "p1"), "Paper", sources.WithField("name", "Drucksache 0815/24")))
		oparl.Put("bonn", sources.CollectionPaper, sources.NewTestObject(
			oparl.ObjectURL("paper", "p2"), "Paper", sources.WithField("name", "Drucksache 0816/24")))
		oparl.Put("bonn", sources.CollectionMeeting, sources.NewTestObject(
			oparl.ObjectURL("meeting", "m1"), "Meeting", sources.WithField("name", "Rat, 12. Sitzung")))
	})

	JustBeforeEach(func() {
		configFile := helpers.WriteConfigYAML(tempDir, testDB,
			helpers.SourceSpec{ID: "bonn", BaseURL: oparl.SystemURL()})

		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(30 * time.Second)
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
		}
		oparl.Close()
		helpers.ResetDatabase(ctx, testDB)
		cleanupTempDir(tempDir)
	})

	It("mirrors a new source with a scheduled full run", func() {
		runs := serverHelper.WaitForTerminalRuns("bonn", 1, runTimeout)
		run := runs[0]

		Expect(run.Mode).To(Equal(status.RunModeFull))
		Expect(run.Status).To(Equal(status.RunStatusCompleted))
		Expect(run.Trigger).To(Equal(status.TriggerSchedule))
		Expect(run.Counts.Created).To(BeNumerically(">=", 3))
		Expect(run.Counts.Errored).To(BeZero())

		Expect(helpers.CountEntities(ctx, testDB, "bonn")).To(Equal(3))

		st := serverHelper.GetSourceStatus("bonn")
		Expect(st.Source.Health).To(Equal(status.HealthHealthy))
		Expect(st.Source.LastFullSyncAt).NotTo(BeNil())
		Expect(st.Source.LastSuccessAt).NotTo(BeNil())
		Expect(st.FromConfig).To(BeTrue())
	})

	It("applies source changes with an incremental run", func() {
		serverHelper.WaitForTerminalRuns("bonn", 1, runTimeout)

		oparl.Put("bonn", sources.CollectionPaper, sources.NewTestObject(
			oparl.ObjectURL("paper", "p1"), "Paper",
			sources.WithField("name", "Drucksache 0815/24 (geändert)"),
			sources.WithModified(time.Now())))

		Expect(serverHelper.TriggerSync("bonn", "incremental")).To(Equal(http.StatusAccepted))

		runs := serverHelper.WaitForTerminalRuns("bonn", 2, runTimeout)
		run := runs[0]
		Expect(run.Mode).To(Equal(status.RunModeIncremental))
		Expect(run.Trigger).To(Equal(status.TriggerManual))
		Expect(run.Status).To(Equal(status.RunStatusCompleted))
		Expect(run.Counts.Updated).To(Equal(1))
		Expect(run.Counts.Created).To(BeZero())
		Expect(run.Counts.Tombstoned).To(BeZero())
	})

	It("tombstones entities that vanished from the source on a full run", func() {
		serverHelper.WaitForTerminalRuns("bonn", 1, runTimeout)

		oparl.Remove("bonn", sources.CollectionPaper, oparl.ObjectURL("paper", "p2"))
		Expect(serverHelper.TriggerSync("bonn", "full")).To(Equal(http.StatusAccepted))

		runs := serverHelper.WaitForTerminalRuns("bonn", 2, runTimeout)
		Expect(runs[0].Mode).To(Equal(status.RunModeFull))
		Expect(runs[0].Counts.Tombstoned).To(Equal(1))
		Expect(helpers.CountEntities(ctx, testDB, "bonn")).To(Equal(2))
	})

	It("rejects an unknown sync mode", func() {
		Expect(serverHelper.TriggerSync("bonn", "sideways")).To(Equal(http.StatusBadRequest))
	})

	Context("when a collection page keeps failing", func() {
		BeforeEach(func() {
			oparl.FailPage("bonn", sources.CollectionPaper, 1,
				http.StatusInternalServerError, http.StatusInternalServerError)
		})

		It("finishes the run as partial and records the page error", func() {
			runs := serverHelper.WaitForTerminalRuns("bonn", 1, runTimeout)
			run := runs[0]
			Expect(run.Status).To(Equal(status.RunStatusPartial))
			Expect(run.ErrorCount).To(BeNumerically(">=", 1))

			errs := serverHelper.ListRunErrors(run.ID)
			Expect(errs).NotTo(BeEmpty())
			Expect(errs).To(ContainElement(Satisfy(func(e status.RunError) bool {
				return strings.Contains(e.URL, "/"+sources.CollectionPaper)
			})))

			// the meeting collection was unaffected
			Expect(helpers.CountEntities(ctx, testDB, "bonn")).To(Equal(1))

			st := serverHelper.GetSourceStatus("bonn")
			Expect(st.Source.Health).To(Equal(status.HealthHealthy))
		})
	})
})

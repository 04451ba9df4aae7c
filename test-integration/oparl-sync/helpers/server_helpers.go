package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	v1 "github.com/stacklok/oparl-sync/internal/api/v1"
	syncapp "github.com/stacklok/oparl-sync/internal/app"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/status"
)

// ServerTestHelper manages the engine lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *syncapp.SyncApp
}

// NewServerTestHelper creates a helper listening on a free local port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	address := freeAddress()
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    address,
		baseURL:    "http://" + address,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func freeAddress() string {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	addr := listener.Addr().String()
	gomega.Expect(listener.Close()).To(gomega.Succeed())
	return addr
}

// StartServer builds and starts the engine. Scheduled first runs start
// without delay.
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewSyncApp(s.ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(s.address),
		syncapp.WithStartupJitter(0),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the engine
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(10 * time.Second)
	}
	return nil
}

// WaitForServerReady waits until the readiness endpoint answers OK
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 200*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// Get makes a GET request against the admin API
func (s *ServerTestHelper) Get(path string) (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + path)
}

// Post makes a POST request with an optional JSON body
func (s *ServerTestHelper) Post(path string, body any) (*http.Response, error) {
	var reader io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}
	return s.httpClient.Post(s.baseURL+path, "application/json", reader)
}

// TriggerSync asks for a run of the source and returns the response status
func (s *ServerTestHelper) TriggerSync(sourceID, mode string) int {
	path := "/v1/sources/" + sourceID + "/sync"
	if mode != "" {
		path += "?mode=" + mode
	}
	resp, err := s.Post(path, nil)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	_ = resp.Body.Close()
	return resp.StatusCode
}

// GetSourceStatus returns the status of a source
func (s *ServerTestHelper) GetSourceStatus(sourceID string) *service.SourceStatus {
	var st service.SourceStatus
	s.getJSON("/v1/sources/"+sourceID+"/status", &st)
	return &st
}

// ListRuns returns the runs of a source, newest first
func (s *ServerTestHelper) ListRuns(sourceID string) []*status.SyncRun {
	var list v1.RunListResponse
	s.getJSON("/v1/sources/"+sourceID+"/runs", &list)
	return list.Runs
}

// ListRunErrors returns the errors recorded for a run
func (s *ServerTestHelper) ListRunErrors(runID string) []status.RunError {
	var list v1.RunErrorListResponse
	s.getJSON("/v1/runs/"+runID+"/errors", &list)
	return list.Errors
}

// WaitForTerminalRuns waits until the source has n runs and none is active,
// then returns them newest first
func (s *ServerTestHelper) WaitForTerminalRuns(sourceID string, n int, timeout time.Duration) []*status.SyncRun {
	var runs []*status.SyncRun
	gomega.Eventually(func() error {
		runs = s.ListRuns(sourceID)
		if len(runs) < n {
			return fmt.Errorf("have %d runs, want %d", len(runs), n)
		}
		for _, r := range runs {
			if !r.Status.IsTerminal() {
				return fmt.Errorf("run %s is %s", r.ID, r.Status)
			}
		}
		return nil
	}, timeout, 200*time.Millisecond).Should(gomega.Succeed())
	return runs
}

func (s *ServerTestHelper) getJSON(path string, out any) {
	resp, err := s.Get(path)
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() {
		_ = resp.Body.Close()
	}()
	gomega.Expect(resp.StatusCode).To(gomega.Equal(http.StatusOK), "GET %s", path)
	gomega.Expect(json.NewDecoder(resp.Body).Decode(out)).To(gomega.Succeed())
}

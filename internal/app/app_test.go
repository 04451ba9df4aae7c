package app

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/stacklok/oparl-sync/internal/app/storage"
	"github.com/stacklok/oparl-sync/internal/config"
	mocknotify "github.com/stacklok/oparl-sync/internal/notify/mocks"
	mocksvc "github.com/stacklok/oparl-sync/internal/service/mocks"
	"github.com/stacklok/oparl-sync/internal/status"
	"github.com/stacklok/oparl-sync/internal/sync/coordinator"
	mockstate "github.com/stacklok/oparl-sync/internal/sync/state/mocks"
	"github.com/stacklok/oparl-sync/internal/telemetry"
)

// mockCoordinator implements the coordinator.Coordinator interface for testing
type mockCoordinator struct {
	mu          sync.Mutex
	startCalled bool
	stopCalled  bool
	startErr    error
	stopErr     error
	runs        []string
}

func (m *mockCoordinator) Start(ctx context.Context) error {
	m.mu.Lock()
	m.startCalled = true
	err := m.startErr
	m.mu.Unlock()

	if err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}

func (m *mockCoordinator) Stop() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopCalled = true
	return m.stopErr
}

func (*mockCoordinator) Trigger(context.Context, string, status.RunMode) error {
	return nil
}

func (m *mockCoordinator) RunOnce(_ context.Context, sourceID string, mode status.RunMode) (*status.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, sourceID)
	return &status.SyncRun{ID: uuid.NewString(), SourceID: sourceID, Mode: mode, Status: status.RunStatusCompleted}, nil
}

func (m *mockCoordinator) wasStartCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.startCalled
}

func (m *mockCoordinator) wasStopCalled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopCalled
}

// countingFactory is a storage factory that only counts Cleanup calls
type countingFactory struct {
	storage.Factory

	mu       sync.Mutex
	cleanups int
}

func (f *countingFactory) Cleanup() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleanups++
}

func (f *countingFactory) cleanupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cleanups
}

type testApp struct {
	*SyncApp
	coord     *mockCoordinator
	stateSvc  *mockstate.MockSourceStateService
	publisher *mocknotify.MockPublisher
	cleanups  func() int
}

// createTestApp builds a SyncApp around mocked components without going
// through NewSyncApp
func createTestApp(t *testing.T, ctrl *gomock.Controller, addr string) *testApp {
	t.Helper()

	ctx := context.Background()
	tel, err := telemetry.New(ctx)
	require.NoError(t, err)

	mockSvc := mocksvc.NewMockAdminService(ctrl)
	mockSvc.EXPECT().CheckReadiness(gomock.Any()).Return(nil).AnyTimes()
	publisher := mocknotify.NewMockPublisher(ctrl)
	publisher.EXPECT().Close().Return(nil).MaxTimes(1)
	stateSvc := mockstate.NewMockSourceStateService(ctrl)
	coord := &mockCoordinator{}

	cfg := createTestAppConfig()
	appCfg := &syncAppConfig{
		config:         cfg,
		address:        addr,
		telemetry:      tel,
		requestTimeout: 10 * time.Second,
		readTimeout:    10 * time.Second,
		writeTimeout:   15 * time.Second,
		idleTimeout:    60 * time.Second,
	}

	server, err := buildHTTPServer(appCfg, mockSvc)
	require.NoError(t, err)

	factory := &countingFactory{}
	appCtx, cancel := context.WithCancel(ctx)
	return &testApp{
		SyncApp: &SyncApp{
			config: cfg,
			components: &AppComponents{
				SyncCoordinator: coord,
				StateService:    stateSvc,
				AdminService:    mockSvc,
				Publisher:       publisher,
			},
			httpServer: server,
			telemetry:  tel,
			storage:    factory,
			ctx:        appCtx,
			cancelFunc: cancel,
		},
		coord:     coord,
		stateSvc:  stateSvc,
		publisher: publisher,
		cleanups:  factory.cleanupCount,
	}
}

// createTestAppConfig creates a minimal valid config for testing
func createTestAppConfig() *config.Config {
	cfg, err := config.Parse([]byte(`
sources:
  - id: bonn
    baseUrl: https://oparl.bonn.de/system
    syncPolicy:
      interval: 30m
`))
	if err != nil {
		panic(err)
	}
	return cfg
}

func TestSyncApp_Start(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		addr string
	}{
		{name: "ephemeral port", addr: ":0"},
		{name: "localhost", addr: "127.0.0.1:0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctrl := gomock.NewController(t)
			app := createTestApp(t, ctrl, tt.addr)

			errChan := make(chan error, 1)
			go func() {
				errChan <- app.Start()
			}()

			assert.Eventually(t, app.coord.wasStartCalled, 2*time.Second, 10*time.Millisecond,
				"sync coordinator should be started")

			require.NoError(t, app.Stop(5*time.Second))

			select {
			case startErr := <-errChan:
				require.NoError(t, startErr)
			case <-time.After(5 * time.Second):
				t.Fatal("Start() did not return after Stop()")
			}
			assert.True(t, app.coord.wasStopCalled())
			assert.Equal(t, 1, app.cleanups())
		})
	}
}

func TestSyncApp_ServesAdminAPI(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	actualAddr := listener.Addr().String()
	require.NoError(t, listener.Close())
	app.httpServer.Addr = actualAddr

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + actualAddr + "/readiness")
		if err != nil {
			return false
		}
		_ = resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	require.NoError(t, app.Stop(5*time.Second))
	require.NoError(t, <-errChan)
}

func TestSyncApp_StartError_AddressInUse(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()

	app := createTestApp(t, ctrl, listener.Addr().String())

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	select {
	case startErr := <-errChan:
		require.Error(t, startErr)
		assert.Contains(t, startErr.Error(), "HTTP server failed")
	case <-time.After(5 * time.Second):
		_ = app.Stop(time.Second)
		t.Fatal("expected Start() to fail with the port in use")
	}
	require.NoError(t, app.Stop(time.Second))
}

func TestSyncApp_StopIdempotent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	require.NoError(t, app.Stop(5*time.Second))
	_ = app.Stop(5 * time.Second)

	// publisher and storage are released once
	assert.Equal(t, 1, app.cleanups())
}

func TestSyncApp_StopReportsCoordinatorErrorWithoutFailing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")
	app.coord.stopErr = errors.New("boom")
	app.cancelFunc = nil

	require.NoError(t, app.Stop(5*time.Second))
	assert.True(t, app.coord.wasStopCalled())
}

func TestSyncApp_RunOnce(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	app.stateSvc.EXPECT().Initialize(gomock.Any(), app.config.Sources).Return(nil)

	run, err := app.RunOnce(context.Background(), "bonn", status.RunModeFull)
	require.NoError(t, err)
	assert.Equal(t, "bonn", run.SourceID)
	assert.Equal(t, status.RunModeFull, run.Mode)
	assert.Equal(t, []string{"bonn"}, app.coord.runs)
}

func TestSyncApp_RunOnceInitializeError(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	app.stateSvc.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	_, err := app.RunOnce(context.Background(), "bonn", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize sources")
	assert.Empty(t, app.coord.runs)
}

func TestSyncApp_ReloadSources(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":0")

	reloaded, err := config.Parse([]byte(`
sources:
  - id: bonn
    baseUrl: https://oparl.bonn.de/system
  - id: koeln
    baseUrl: https://buergerinfo.stadt-koeln.de/oparl/system
`))
	require.NoError(t, err)

	app.stateSvc.EXPECT().Initialize(gomock.Any(), reloaded.Sources).Return(nil)
	require.NoError(t, app.reloadSources(context.Background(), reloaded))

	app.stateSvc.EXPECT().Initialize(gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))
	err = app.reloadSources(context.Background(), reloaded)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to initialize sources")
}

func TestSameNonSourceSettings(t *testing.T) {
	t.Parallel()

	a := createTestAppConfig()
	b := createTestAppConfig()
	b.Sources = nil
	assert.True(t, sameNonSourceSettings(a, b))

	b.Server.Address = ":9090"
	assert.False(t, sameNonSourceSettings(a, b))
}

func TestSyncApp_Accessors(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	app := createTestApp(t, ctrl, ":8080")

	require.NotNil(t, app.GetConfig())
	assert.Equal(t, "bonn", app.GetConfig().Sources[0].ID)
	assert.Equal(t, ":8080", app.GetHTTPServer().Addr)
	assert.Same(t, app.components.AdminService, app.Service())
}

// Verify that Coordinator interface is properly defined
var _ coordinator.Coordinator = (*mockCoordinator)(nil)

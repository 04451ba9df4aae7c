package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	mockstorage "github.com/stacklok/oparl-sync/internal/app/storage/mocks"
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/notify"
	mocknotify "github.com/stacklok/oparl-sync/internal/notify/mocks"
	mocksvc "github.com/stacklok/oparl-sync/internal/service/mocks"
	mocksources "github.com/stacklok/oparl-sync/internal/sources/mocks"
	mocksync "github.com/stacklok/oparl-sync/internal/sync/mocks"
	mockstate "github.com/stacklok/oparl-sync/internal/sync/state/mocks"
	mockwriter "github.com/stacklok/oparl-sync/internal/sync/writer/mocks"
	"github.com/stacklok/oparl-sync/internal/telemetry"
)

func noopTelemetry(t *testing.T) *telemetry.Telemetry {
	t.Helper()
	tel, err := telemetry.New(context.Background())
	require.NoError(t, err)
	return tel
}

func TestBaseConfig(t *testing.T) {
	t.Parallel()

	t.Run("config is required", func(t *testing.T) {
		t.Parallel()
		_, err := baseConfig()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "config cannot be nil")
	})

	t.Run("address defaults to server.address", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(WithConfig(createTestAppConfig()))
		require.NoError(t, err)
		assert.Equal(t, ":8080", built.address)
		assert.Equal(t, defaultRequestTimeout, built.requestTimeout)
	})

	t.Run("explicit address wins", func(t *testing.T) {
		t.Parallel()
		built, err := baseConfig(WithConfig(createTestAppConfig()), WithAddress("127.0.0.1:9090"))
		require.NoError(t, err)
		assert.Equal(t, "127.0.0.1:9090", built.address)
	})

	t.Run("option errors are returned", func(t *testing.T) {
		t.Parallel()
		_, err := baseConfig(WithConfig(createTestAppConfig()), WithAddress(""))
		require.Error(t, err)
	})
}

func TestWithAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		addr    string
		wantErr bool
	}{
		{name: "port only", addr: ":8080"},
		{name: "ipv4 and port", addr: "127.0.0.1:8080"},
		{name: "localhost", addr: "localhost:8080"},
		{name: "empty", addr: "", wantErr: true},
		{name: "missing port", addr: "127.0.0.1", wantErr: true},
		{name: "empty port", addr: "127.0.0.1:", wantErr: true},
		{name: "port out of range", addr: ":70000", wantErr: true},
		{name: "hostname", addr: "example.com:8080", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := &syncAppConfig{}
			err := WithAddress(tt.addr)(cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.addr, cfg.address)
		})
	}
}

func TestWithStartupJitter(t *testing.T) {
	t.Parallel()

	cfg := &syncAppConfig{}
	require.NoError(t, WithStartupJitter(0)(cfg))
	require.NotNil(t, cfg.startupJitter)
	assert.Zero(t, *cfg.startupJitter)

	require.Error(t, WithStartupJitter(-time.Second)(&syncAppConfig{}))
}

func TestWithConfigWatch(t *testing.T) {
	t.Parallel()

	cfg := &syncAppConfig{}
	require.NoError(t, WithConfigWatch("/etc/oparl-sync/config.yaml")(cfg))
	assert.Equal(t, "/etc/oparl-sync/config.yaml", cfg.watchPath)

	require.Error(t, WithConfigWatch("")(&syncAppConfig{}))
}

func TestBuildHTTPServer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		middlewares     []func(http.Handler) http.Handler
		address         string
		wantMiddlewares int
	}{
		{
			name:            "default middlewares plus telemetry",
			address:         ":8080",
			wantMiddlewares: 6,
		},
		{
			name:    "custom middlewares plus telemetry",
			address: "127.0.0.1:3000",
			middlewares: []func(http.Handler) http.Handler{
				func(next http.Handler) http.Handler { return next },
			},
			wantMiddlewares: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)

			cfg := &syncAppConfig{
				address:        tt.address,
				middlewares:    tt.middlewares,
				telemetry:      noopTelemetry(t),
				requestTimeout: 5 * time.Second,
				readTimeout:    5 * time.Second,
				writeTimeout:   10 * time.Second,
				idleTimeout:    30 * time.Second,
			}

			server, err := buildHTTPServer(cfg, mocksvc.NewMockAdminService(ctrl))
			require.NoError(t, err)
			assert.Equal(t, tt.address, server.Addr)
			assert.Equal(t, 5*time.Second, server.ReadTimeout)
			assert.Equal(t, 10*time.Second, server.WriteTimeout)
			assert.Equal(t, 30*time.Second, server.IdleTimeout)
			assert.Len(t, cfg.middlewares, tt.wantMiddlewares)

			rec := httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, http.StatusOK, rec.Code)

			// without a Prometheus reader there is no scrape endpoint
			rec = httptest.NewRecorder()
			server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
			assert.Equal(t, http.StatusNotFound, rec.Code)
		})
	}
}

func TestBuildHTTPServer_PrometheusEndpoint(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)

	tel, err := telemetry.New(context.Background(), telemetry.WithTelemetryConfig(
		telemetry.FromConfig(&config.TelemetryConfig{Enabled: true, Prometheus: true}, "v1.0.0")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tel.Shutdown(context.Background()) })

	svc := mocksvc.NewMockAdminService(ctrl)
	svc.EXPECT().ListSources(gomock.Any()).Return(nil, nil)

	server, err := buildHTTPServer(&syncAppConfig{address: ":0", telemetry: tel}, svc)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/sources", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "oparl_sync_http_requests_total")
	assert.Contains(t, string(body), `route="/v1/sources"`)
}

type appMocks struct {
	storage   *mockstorage.MockFactory
	state     *mockstate.MockSourceStateService
	writer    *mockwriter.MockSyncWriter
	publisher *mocknotify.MockPublisher
	clients   *mocksources.MockClientFactory
}

func newAppMocks(ctrl *gomock.Controller) *appMocks {
	return &appMocks{
		storage:   mockstorage.NewMockFactory(ctrl),
		state:     mockstate.NewMockSourceStateService(ctrl),
		writer:    mockwriter.NewMockSyncWriter(ctrl),
		publisher: mocknotify.NewMockPublisher(ctrl),
		clients:   mocksources.NewMockClientFactory(ctrl),
	}
}

func (m *appMocks) options(t *testing.T) []SyncAppOptions {
	t.Helper()
	return []SyncAppOptions{
		WithConfig(createTestAppConfig()),
		WithTelemetry(noopTelemetry(t)),
		WithStorageFactory(m.storage),
		WithClientFactory(m.clients),
		WithPublisher(m.publisher),
	}
}

func TestNewSyncApp(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	m := newAppMocks(ctrl)

	m.storage.EXPECT().CreateStateService(gomock.Any()).Return(m.state, nil)
	m.storage.EXPECT().CreateSyncWriter(gomock.Any()).Return(m.writer, nil)
	m.storage.EXPECT().CreateOutbox(gomock.Any(), m.publisher).Return(notify.NewOutbox(nil, m.publisher), nil)
	m.storage.EXPECT().Pinger().Return(nil)

	app, err := NewSyncApp(context.Background(), append(m.options(t), WithAddress("127.0.0.1:0"))...)
	require.NoError(t, err)
	require.NotNil(t, app)

	assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)
	assert.NotNil(t, app.components.SyncCoordinator)
	assert.NotNil(t, app.components.Outbox)
	assert.Same(t, m.publisher, app.components.Publisher)
	require.NotNil(t, app.Service())

	// the admin service reads through the injected state service
	m.state.EXPECT().ListSources(gomock.Any()).Return(nil, nil)
	sources, err := app.Service().ListSources(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sources)

	m.publisher.EXPECT().Close().Return(nil)
	m.storage.EXPECT().Cleanup()
	app.Close()
}

func TestNewSyncApp_InjectedManagerSkipsWriter(t *testing.T) {
	t.Parallel()
	ctrl := gomock.NewController(t)
	m := newAppMocks(ctrl)

	m.storage.EXPECT().CreateStateService(gomock.Any()).Return(m.state, nil)
	m.storage.EXPECT().CreateOutbox(gomock.Any(), m.publisher).Return(notify.NewOutbox(nil, m.publisher), nil)
	m.storage.EXPECT().Pinger().Return(nil)

	opts := append(m.options(t), WithSyncManager(mocksync.NewMockManager(ctrl)))
	app, err := NewSyncApp(context.Background(), opts...)
	require.NoError(t, err)

	m.publisher.EXPECT().Close().Return(nil)
	m.storage.EXPECT().Cleanup()
	app.Close()
}

func TestNewSyncApp_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(m *appMocks)
		wantErr string
	}{
		{
			name: "state service",
			setup: func(m *appMocks) {
				m.storage.EXPECT().CreateStateService(gomock.Any()).Return(nil, errors.New("pool closed"))
			},
			wantErr: "failed to create state service",
		},
		{
			name: "sync writer",
			setup: func(m *appMocks) {
				m.storage.EXPECT().CreateStateService(gomock.Any()).Return(m.state, nil)
				m.storage.EXPECT().CreateSyncWriter(gomock.Any()).Return(nil, errors.New("prepare failed"))
			},
			wantErr: "failed to create sync writer",
		},
		{
			name: "outbox",
			setup: func(m *appMocks) {
				m.storage.EXPECT().CreateStateService(gomock.Any()).Return(m.state, nil)
				m.storage.EXPECT().CreateSyncWriter(gomock.Any()).Return(m.writer, nil)
				m.storage.EXPECT().CreateOutbox(gomock.Any(), gomock.Any()).Return(nil, errors.New("no table"))
			},
			wantErr: "failed to create change outbox",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctrl := gomock.NewController(t)
			m := newAppMocks(ctrl)
			tt.setup(m)

			// resources acquired so far are released
			m.storage.EXPECT().Cleanup()
			m.publisher.EXPECT().Close().Return(nil)

			app, err := NewSyncApp(context.Background(), m.options(t)...)
			require.Error(t, err)
			assert.Nil(t, app)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewSyncApp_RequiresDatabaseWithoutStorageFactory(t *testing.T) {
	t.Parallel()

	_, err := NewSyncApp(context.Background(),
		WithConfig(createTestAppConfig()),
		WithTelemetry(noopTelemetry(t)),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database configuration is required")
}

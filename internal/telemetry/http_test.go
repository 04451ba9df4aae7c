package telemetry

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

func newTestRouter(mw func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()
	r.Use(mw)
	r.Get("/v1/sources/{id}/status", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Get("/v1/runs/{runID}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return r
}

func TestNewAdminInstrumentation_Nil(t *testing.T) {
	t.Parallel()

	a, err := NewAdminInstrumentation(nil, nil)
	require.NoError(t, err)
	require.Nil(t, a)

	rec := httptest.NewRecorder()
	newTestRouter(a.Middleware).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminInstrumentation_Metrics(t *testing.T) {
	t.Parallel()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(t.Context()) })

	a, err := NewAdminInstrumentation(nil, mp)
	require.NoError(t, err)
	router := newTestRouter(a.Middleware)

	for _, path := range []string{"/v1/sources/bonn/status", "/v1/sources/koeln/status", "/v1/runs/abc", "/health"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	data := collect(t, reader, AdminScope)
	total, ok := data["oparl_sync_http_requests_total"].(metricdata.Sum[int64])
	require.True(t, ok)

	byRoute := map[string]int64{}
	for _, dp := range total.DataPoints {
		route, _ := dp.Attributes.Value("route")
		code, _ := dp.Attributes.Value("status_code")
		byRoute[route.AsString()+" "+code.AsString()] += dp.Value
	}
	assert.Equal(t, map[string]int64{
		"/v1/sources/{id}/status 200": 2,
		"/v1/runs/{runID} 500":        1,
		"/health 200":                 1,
	}, byRoute)

	active, ok := data["oparl_sync_http_active_requests"].(metricdata.Sum[int64])
	require.True(t, ok)
	for _, dp := range active.DataPoints {
		assert.Zero(t, dp.Value)
	}
}

func TestAdminInstrumentation_Tracing(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		path       string
		wantSpan   bool
		wantName   string
		wantStatus codes.Code
		wantAttrs  []attribute.KeyValue
	}{
		{
			name:       "source route",
			path:       "/v1/sources/bonn/status",
			wantSpan:   true,
			wantName:   "GET /v1/sources/{id}/status",
			wantStatus: codes.Ok,
			wantAttrs: []attribute.KeyValue{
				semconv.HTTPRouteKey.String("/v1/sources/{id}/status"),
				attribute.String("oparl.source_id", "bonn"),
			},
		},
		{
			name:       "failing run route",
			path:       "/v1/runs/abc",
			wantSpan:   true,
			wantName:   "GET /v1/runs/{runID}",
			wantStatus: codes.Error,
			wantAttrs: []attribute.KeyValue{
				semconv.HTTPResponseStatusCode(http.StatusInternalServerError),
				attribute.String("oparl.run_id", "abc"),
			},
		},
		{
			name: "health endpoint",
			path: "/health",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			exporter := tracetest.NewInMemoryExporter()
			tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
			t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

			a, err := NewAdminInstrumentation(tp, nil)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			newTestRouter(a.Middleware).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			spans := exporter.GetSpans()
			if !tt.wantSpan {
				assert.Equal(t, http.StatusOK, rec.Code)
				assert.Empty(t, spans)
				return
			}
			require.Len(t, spans, 1)
			assert.Equal(t, tt.wantName, spans[0].Name)
			assert.Equal(t, tt.wantStatus, spans[0].Status.Code)
			for _, attr := range tt.wantAttrs {
				assert.Contains(t, spans[0].Attributes, attr)
			}
		})
	}
}

func TestAdminInstrumentation_ContinuesCallerTrace(t *testing.T) {
	t.Parallel()

	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	a, err := NewAdminInstrumentation(tp, nil)
	require.NoError(t, err)
	a.propagator = propagation.TraceContext{}

	req := httptest.NewRequest(http.MethodGet, "/v1/sources/bonn/status", nil)
	req.Header.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	newTestRouter(a.Middleware).ServeHTTP(httptest.NewRecorder(), req)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext.TraceID().String())
	assert.Equal(t, "00f067aa0ba902b7", spans[0].Parent.SpanID().String())
}

func TestRoutePattern_Unrouted(t *testing.T) {
	t.Parallel()

	assert.Equal(t, unknownRoute, routePattern(httptest.NewRequest(http.MethodGet, "/nowhere", nil)))
}

func TestTruncateUserAgent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "curl/8.0", truncateUserAgent("curl/8.0"))
	assert.Len(t, truncateUserAgent(strings.Repeat("a", 1000)), maxUserAgentBytes)
}

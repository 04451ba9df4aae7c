package telemetry

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// AdminScope names the tracer and meter of the admin HTTP surface
const AdminScope = "github.com/stacklok/oparl-sync/http"

const (
	unknownRoute      = "unknown_route"
	maxUserAgentBytes = 256
)

// health endpoints are polled constantly; they are measured but not traced
var healthPaths = map[string]bool{
	"/health":    true,
	"/readiness": true,
	"/metrics":   true,
}

// route parameters copied onto admin spans
var spanParams = map[string]attribute.Key{
	"id":    "oparl.source_id",
	"runID": "oparl.run_id",
}

// AdminInstrumentation traces and measures admin API requests. Either half
// may be absent; a nil *AdminInstrumentation passes requests through.
type AdminInstrumentation struct {
	tracer     trace.Tracer
	propagator propagation.TextMapPropagator

	duration metric.Float64Histogram
	requests metric.Int64Counter
	inFlight metric.Int64UpDownCounter
}

// NewAdminInstrumentation returns nil when both providers are nil
func NewAdminInstrumentation(tp trace.TracerProvider, mp metric.MeterProvider) (*AdminInstrumentation, error) {
	if tp == nil && mp == nil {
		return nil, nil
	}

	a := &AdminInstrumentation{}
	if tp != nil {
		a.tracer = tp.Tracer(AdminScope)
		a.propagator = otel.GetTextMapPropagator()
	}
	if mp == nil {
		return a, nil
	}

	meter := mp.Meter(AdminScope)
	var err error
	if a.duration, err = meter.Float64Histogram(
		"oparl_sync_http_request_duration_seconds",
		metric.WithDescription("Duration of admin HTTP requests in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10),
	); err != nil {
		return nil, err
	}
	if a.requests, err = meter.Int64Counter(
		"oparl_sync_http_requests_total",
		metric.WithDescription("Admin HTTP requests by route and status"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	if a.inFlight, err = meter.Int64UpDownCounter(
		"oparl_sync_http_active_requests",
		metric.WithDescription("Admin HTTP requests currently being served"),
		metric.WithUnit("{request}"),
	); err != nil {
		return nil, err
	}
	return a, nil
}

// Middleware wraps next. Install it outermost so that timeouts and
// recovered panics are observed.
func (a *AdminInstrumentation) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		ctx := r.Context()

		if a.inFlight != nil {
			a.inFlight.Add(ctx, 1)
			defer a.inFlight.Add(ctx, -1)
		}

		var span trace.Span
		if a.tracer != nil && !healthPaths[r.URL.Path] {
			ctx = a.propagator.Extract(ctx, propagation.HeaderCarrier(r.Header))
			// renamed once chi has matched a route
			ctx, span = a.tracer.Start(ctx, r.Method+" "+r.URL.Path,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.UserAgentOriginal(truncateUserAgent(r.UserAgent())),
				),
			)
			defer span.End()
			r = r.WithContext(ctx)
		}

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		code := ww.Status()
		if span != nil {
			finishAdminSpan(span, r, route, code)
		}
		if a.requests != nil {
			attrs := metric.WithAttributes(
				attribute.String("method", r.Method),
				attribute.String("route", route),
				attribute.String("status_code", strconv.Itoa(code)),
			)
			a.duration.Record(ctx, time.Since(start).Seconds(), attrs)
			a.requests.Add(ctx, 1, attrs)
		}
	})
}

func finishAdminSpan(span trace.Span, r *http.Request, route string, code int) {
	span.SetName(r.Method + " " + route)
	span.SetAttributes(
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCode(code),
	)
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		for param, key := range spanParams {
			if v := rctx.URLParam(param); v != "" {
				span.SetAttributes(key.String(v))
			}
		}
	}
	if code >= http.StatusInternalServerError {
		span.SetStatus(codes.Error, http.StatusText(code))
		return
	}
	span.SetStatus(codes.Ok, "")
}

// routePattern keeps label cardinality bounded for unrouted requests
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return unknownRoute
}

func truncateUserAgent(ua string) string {
	if len(ua) > maxUserAgentBytes {
		return ua[:maxUserAgentBytes]
	}
	return ua
}

// Package v1 provides the administrative endpoints for sources and sync runs.
package v1

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/oparl-sync/internal/api/common"
	"github.com/stacklok/oparl-sync/internal/service"
)

// queueFullRetryAfter is sent with 503 replies when the scheduler queue is full
const queueFullRetryAfter = 30

// Routes handles HTTP requests for the v1 admin endpoints.
type Routes struct {
	service service.AdminService
}

// NewRoutes creates a new Routes instance with the given service.
func NewRoutes(svc service.AdminService) *Routes {
	return &Routes{
		service: svc,
	}
}

// Router creates and configures the HTTP router for the v1 admin endpoints.
func Router(svc service.AdminService) http.Handler {
	routes := NewRoutes(svc)

	r := chi.NewRouter()

	r.Get("/sources", routes.listSources)
	r.Post("/sources", routes.addSource)
	r.Route("/sources/{id}", func(r chi.Router) {
		r.Get("/status", routes.getSourceStatus)
		r.Get("/runs", routes.listRuns)
		r.Post("/enable", routes.enableSource)
		r.Post("/disable", routes.disableSource)
		r.Post("/sync", routes.triggerSync)
	})

	r.Route("/runs/{runID}", func(r chi.Router) {
		r.Get("/", routes.getRun)
		r.Get("/errors", routes.listRunErrors)
	})

	return r
}

// writeServiceError maps service errors to HTTP status codes. Unexpected
// errors are logged and reported without detail.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrSourceNotFound), errors.Is(err, service.ErrRunNotFound):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrInvalidInput):
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, service.ErrSourceExists),
		errors.Is(err, service.ErrRunActive),
		errors.Is(err, service.ErrSourceDisabled):
		common.WriteErrorResponse(w, err.Error(), http.StatusConflict)
	case errors.Is(err, service.ErrQueueFull):
		w.Header().Set("Retry-After", strconv.Itoa(queueFullRetryAfter))
		common.WriteErrorResponse(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, service.ErrNotImplemented):
		common.WriteErrorResponse(w, err.Error(), http.StatusNotImplemented)
	default:
		slog.ErrorContext(r.Context(), "Admin request failed", "path", r.URL.Path, "error", err)
		common.WriteErrorResponse(w, "Internal server error", http.StatusInternalServerError)
	}
}

// listOptions reads the limit and offset query parameters
func listOptions(r *http.Request) ([]service.Option[service.ListOptions], error) {
	var opts []service.Option[service.ListOptions]

	limit, ok, err := common.QueryInt(r, "limit")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, service.WithLimit(limit))
	}

	offset, ok, err := common.QueryInt(r, "offset")
	if err != nil {
		return nil, err
	}
	if ok {
		opts = append(opts, service.WithOffset(offset))
	}

	return opts, nil
}

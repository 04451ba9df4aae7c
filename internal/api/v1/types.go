package v1

import (
	"github.com/stacklok/oparl-sync/internal/config"
	"github.com/stacklok/oparl-sync/internal/service"
	"github.com/stacklok/oparl-sync/internal/status"
)

// AddSourceRequest is the body of POST /v1/sources
type AddSourceRequest struct {
	ID                     string                   `json:"id"`
	Name                   string                   `json:"name,omitempty"`
	BaseURL                string                   `json:"baseUrl"`
	Enabled                *bool                    `json:"enabled,omitempty"`
	Interval               string                   `json:"interval,omitempty"`
	Concurrency            int                      `json:"concurrency,omitempty"`
	RequestsPerSecond      float64                  `json:"requestsPerSecond,omitempty"`
	ModifiedSinceSupported *bool                    `json:"modifiedSinceSupported,omitempty"`
	Auth                   *config.SourceAuthConfig `json:"auth,omitempty"`
}

// toSourceConfig converts the request into a source definition
func (req *AddSourceRequest) toSourceConfig() *config.SourceConfig {
	src := &config.SourceConfig{
		ID:                     req.ID,
		Name:                   req.Name,
		BaseURL:                req.BaseURL,
		Enabled:                req.Enabled,
		Auth:                   req.Auth,
		Concurrency:            req.Concurrency,
		RequestsPerSecond:      req.RequestsPerSecond,
		ModifiedSinceSupported: req.ModifiedSinceSupported,
	}
	if req.Interval != "" {
		src.SyncPolicy = &config.SyncPolicyConfig{Interval: req.Interval}
	}
	return src
}

// SourceListResponse is the reply of GET /v1/sources
type SourceListResponse struct {
	Sources []*service.SourceStatus `json:"sources"`
	Count   int                     `json:"count"`
}

// RunListResponse is the reply of GET /v1/sources/{id}/runs
type RunListResponse struct {
	Runs  []*status.SyncRun `json:"runs"`
	Count int               `json:"count"`
}

// RunErrorListResponse is the reply of GET /v1/runs/{runID}/errors
type RunErrorListResponse struct {
	RunID  string            `json:"runId"`
	Errors []status.RunError `json:"errors"`
	Count  int               `json:"count"`
}

// SyncAcceptedResponse is the reply of POST /v1/sources/{id}/sync
type SyncAcceptedResponse struct {
	Status   string         `json:"status"`
	SourceID string         `json:"sourceId"`
	Mode     status.RunMode `json:"mode,omitempty"`
}

// SourceUpdatedResponse is the reply of the enable and disable endpoints
type SourceUpdatedResponse struct {
	SourceID string `json:"sourceId"`
	Enabled  bool   `json:"enabled"`
}

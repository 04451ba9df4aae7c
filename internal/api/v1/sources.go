package v1

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/stacklok/oparl-sync/internal/api/common"
	"github.com/stacklok/oparl-sync/internal/status"
)

// listSources handles GET /v1/sources
//
// @Summary		List sources
// @Description	Every configured source with its health and latest run
// @Tags			sources
// @Produce		json
// @Success		200	{object}	SourceListResponse
// @Router			/v1/sources [get]
func (routes *Routes) listSources(w http.ResponseWriter, r *http.Request) {
	sources, err := routes.service.ListSources(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, SourceListResponse{Sources: sources, Count: len(sources)}, http.StatusOK)
}

// addSource handles POST /v1/sources
//
// @Summary		Register a source
// @Tags			sources
// @Accept			json
// @Produce		json
// @Param			source	body		AddSourceRequest	true	"Source definition"
// @Success		201		{object}	service.SourceStatus
// @Failure		400		{object}	common.ErrorResponse
// @Failure		409		{object}	common.ErrorResponse
// @Router			/v1/sources [post]
func (routes *Routes) addSource(w http.ResponseWriter, r *http.Request) {
	var req AddSourceRequest
	if err := common.DecodeJSONBody(w, r, &req); err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	created, err := routes.service.AddSource(r.Context(), req.toSourceConfig())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	w.Header().Set("Location", fmt.Sprintf("/v1/sources/%s/status", created.Source.SourceID))
	common.WriteJSONResponse(w, created, http.StatusCreated)
}

// getSourceStatus handles GET /v1/sources/{id}/status
//
// @Summary		Source status
// @Description	Health, health reason and latest run of a source
// @Tags			sources
// @Produce		json
// @Param			id	path		string	true	"Source ID"
// @Success		200	{object}	service.SourceStatus
// @Failure		404	{object}	common.ErrorResponse
// @Router			/v1/sources/{id}/status [get]
func (routes *Routes) getSourceStatus(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	st, err := routes.service.GetSourceStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, st, http.StatusOK)
}

func (routes *Routes) enableSource(w http.ResponseWriter, r *http.Request) {
	routes.setEnabled(w, r, true)
}

func (routes *Routes) disableSource(w http.ResponseWriter, r *http.Request) {
	routes.setEnabled(w, r, false)
}

// setEnabled handles POST /v1/sources/{id}/enable and /disable. Disabling
// stops scheduling; stored entities are kept.
func (routes *Routes) setEnabled(w http.ResponseWriter, r *http.Request, enabled bool) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if enabled {
		err = routes.service.EnableSource(r.Context(), id)
	} else {
		err = routes.service.DisableSource(r.Context(), id)
	}
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, SourceUpdatedResponse{SourceID: id, Enabled: enabled}, http.StatusOK)
}

// triggerSync handles POST /v1/sources/{id}/sync
//
// @Summary		Trigger a sync run
// @Description	Queues an immediate run. Without mode the engine picks full or incremental.
// @Tags			sources
// @Produce		json
// @Param			id		path		string	true	"Source ID"
// @Param			mode	query		string	false	"Run mode"	Enums(full,incremental)
// @Success		202		{object}	SyncAcceptedResponse
// @Failure		404		{object}	common.ErrorResponse
// @Failure		409		{object}	common.ErrorResponse	"A run is already active or the source is disabled"
// @Failure		503		{object}	common.ErrorResponse	"Scheduler queue is full"
// @Router			/v1/sources/{id}/sync [post]
func (routes *Routes) triggerSync(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	mode, err := parseMode(r.URL.Query().Get("mode"))
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := routes.service.TriggerSync(r.Context(), id, mode); err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, SyncAcceptedResponse{Status: "queued", SourceID: id, Mode: mode}, http.StatusAccepted)
}

// listRuns handles GET /v1/sources/{id}/runs
func (routes *Routes) listRuns(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	runs, err := routes.service.ListRuns(r.Context(), id, opts...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, RunListResponse{Runs: runs, Count: len(runs)}, http.StatusOK)
}

func parseMode(raw string) (status.RunMode, error) {
	switch strings.ToLower(raw) {
	case "":
		return "", nil
	case "full":
		return status.RunModeFull, nil
	case "incremental":
		return status.RunModeIncremental, nil
	default:
		return "", fmt.Errorf("invalid mode %q: must be full or incremental", raw)
	}
}

package v1

import (
	"net/http"

	"github.com/stacklok/oparl-sync/internal/api/common"
)

// getRun handles GET /v1/runs/{runID}
//
// @Summary		Get a sync run
// @Tags			runs
// @Produce		json
// @Param			runID	path		string	true	"Run ID (UUID)"
// @Success		200		{object}	status.SyncRun
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/runs/{runID} [get]
func (routes *Routes) getRun(w http.ResponseWriter, r *http.Request) {
	runID, err := common.GetAndValidateURLParam(r, "runID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := routes.service.GetRun(r.Context(), runID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, run, http.StatusOK)
}

// listRunErrors handles GET /v1/runs/{runID}/errors
//
// @Summary		List the errors of a sync run
// @Tags			runs
// @Produce		json
// @Param			runID	path		string	true	"Run ID (UUID)"
// @Param			limit	query		int		false	"Page size"
// @Param			offset	query		int		false	"Items to skip"
// @Success		200		{object}	RunErrorListResponse
// @Failure		400		{object}	common.ErrorResponse
// @Failure		404		{object}	common.ErrorResponse
// @Router			/v1/runs/{runID}/errors [get]
func (routes *Routes) listRunErrors(w http.ResponseWriter, r *http.Request) {
	runID, err := common.GetAndValidateURLParam(r, "runID")
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	opts, err := listOptions(r)
	if err != nil {
		common.WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	runErrors, err := routes.service.ListRunErrors(r.Context(), runID, opts...)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	common.WriteJSONResponse(w, RunErrorListResponse{RunID: runID, Errors: runErrors, Count: len(runErrors)}, http.StatusOK)
}

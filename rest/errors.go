package rest

import (
	"errors"
	"net/http"

	"github.com/mohitkumar/autopilot/model"
	"github.com/mohitkumar/autopilot/pattern"
	"github.com/mohitkumar/autopilot/service"
	"github.com/mohitkumar/autopilot/util"
	"github.com/mohitkumar/autopilot/workflow"
)

func statusFor(err error) int {
	var verr *workflow.ValidationError
	switch {
	case errors.Is(err, pattern.ErrPatternNotFound),
		errors.Is(err, pattern.ErrNoMatchingPattern),
		errors.Is(err, service.ErrWorkflowNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidLearnRequest), errors.Is(err, model.ErrInvalidContext), errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, util.ErrWorkerFull):
		return http.StatusServiceUnavailable
	}
	if _, ok := pattern.AsExecutionError(err); ok {
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func respondWithServiceError(w http.ResponseWriter, err error) {
	if execErr, ok := pattern.AsExecutionError(err); ok {
		respondWithJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error":     execErr.Reason,
			"kind":      string(execErr.Kind),
			"patternId": execErr.PatternId,
		})
		return
	}
	respondWithError(w, statusFor(err), err.Error())
}

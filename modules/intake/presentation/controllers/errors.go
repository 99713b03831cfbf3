package controllers

import (
	"errors"
	"net/http"

	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/httpapi"
	"github.com/coursecraft/platform/pkg/serrors"
)

var statusByCode = map[string]int{
	"INTAKE_NOT_FOUND":      http.StatusNotFound,
	"WORKSPACE_NOT_FOUND":   http.StatusNotFound,
	"INTAKE_FORBIDDEN":      http.StatusForbidden,
	"WORKSPACE_FORBIDDEN":   http.StatusForbidden,
	"INTAKE_STATE_CONFLICT": http.StatusConflict,
	"INTAKE_VALIDATION":     http.StatusBadRequest,
	"FIELD_REQUIRED":        http.StatusBadRequest,
	"FIELD_INVALID":         http.StatusBadRequest,
}

type missingResponsesPayload struct {
	Message          string                       `json:"message"`
	Code             string                       `json:"code"`
	MissingResponses []submission.MissingQuestion `json:"missingResponses"`
}

// writeServiceError maps service-layer failures onto the API error
// envelope. Anything unrecognized is logged and hidden behind a 500.
func writeServiceError(r *http.Request, w http.ResponseWriter, err error) {
	var missing *submission.MissingResponsesError
	if errors.As(err, &missing) {
		_ = httpapi.WriteJSON(w, http.StatusBadRequest, &missingResponsesPayload{
			Message:          missing.Error(),
			Code:             "INTAKE_MISSING_REQUIRED",
			MissingResponses: missing.Missing,
		})
		return
	}

	var base *serrors.BaseError
	if errors.As(err, &base) {
		status, ok := statusByCode[base.Code]
		if !ok {
			status = http.StatusBadRequest
		}
		_ = httpapi.WriteBaseError(w, status, base)
		return
	}

	if errors.Is(err, composables.ErrNoUser) {
		_ = httpapi.WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "authentication required", nil)
		return
	}

	composables.UseLogger(r.Context()).WithError(err).Error("intake: unhandled service error")
	_ = httpapi.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error", nil)
}

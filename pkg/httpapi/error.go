package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/coursecraft/platform/pkg/serrors"
)

// ErrorEnvelope standardizes JSON error responses for API namespaces.
type ErrorEnvelope struct {
	Message string            `json:"message"`
	Code    string            `json:"code"`
	Meta    map[string]string `json:"meta,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}

// WriteBaseError renders a structured service error with the given status.
func WriteBaseError(w http.ResponseWriter, status int, err *serrors.BaseError) error {
	return WriteError(w, status, err.Code, err.Message, err.Details)
}

// WriteValidationErrors renders field-level validation failures as a 400.
func WriteValidationErrors(w http.ResponseWriter, errs serrors.ValidationErrors) error {
	return WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "request validation failed",
		serrors.MapValidationErrors(errs))
}

package controllers

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"github.com/coursecraft/platform/modules/intake/presentation/controllers/dtos"
	"github.com/coursecraft/platform/modules/intake/services"
	"github.com/coursecraft/platform/pkg/constants"
	"github.com/coursecraft/platform/pkg/httpapi"
	"github.com/coursecraft/platform/pkg/serrors"
)

// IntakeAPIController serves the respondent side of the intake flow. All
// routes are authenticated by the bearer token in the path; no session or
// user context is required.
type IntakeAPIController struct {
	intake   *services.IntakeService
	limiter  mux.MiddlewareFunc
	basePath string
}

func NewIntakeAPIController(intake *services.IntakeService, limiter mux.MiddlewareFunc) *IntakeAPIController {
	return &IntakeAPIController{
		intake:   intake,
		limiter:  limiter,
		basePath: "/intake/api/form",
	}
}

func (c *IntakeAPIController) Key() string {
	return c.basePath
}

func (c *IntakeAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	if c.limiter != nil {
		router.Use(c.limiter)
	}
	router.HandleFunc("/{token}", c.GetForm).Methods(http.MethodGet)
	router.HandleFunc("/{token}/responses", c.SaveResponses).Methods(http.MethodPost)
	router.HandleFunc("/{token}/submit", c.Submit).Methods(http.MethodPost)
}

func (c *IntakeAPIController) GetForm(w http.ResponseWriter, r *http.Request) {
	view, err := c.intake.FetchForm(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, view)
}

func (c *IntakeAPIController) SaveResponses(w http.ResponseWriter, r *http.Request) {
	var dto dtos.SaveResponsesRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	if err := constants.Validate.Struct(&dto); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok {
			_ = httpapi.WriteValidationErrors(w, serrors.ProcessValidatorErrors(errs))
			return
		}
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}

	result, err := c.intake.SaveResponses(r.Context(), mux.Vars(r)["token"], dto.ToInputs(), dto.ChangedBy)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, result)
}

func (c *IntakeAPIController) Submit(w http.ResponseWriter, r *http.Request) {
	result, err := c.intake.Submit(r.Context(), mux.Vars(r)["token"])
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, result)
}

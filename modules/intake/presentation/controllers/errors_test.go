package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	workspace "github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/composables"
)

func testRequest(t *testing.T) *http.Request {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	r := httptest.NewRequest(http.MethodGet, "/intake/api/form/abc", nil)
	return r.WithContext(composables.WithLogger(r.Context(), logrus.NewEntry(log)))
}

func TestWriteServiceError_StatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"token not found", accesstoken.ErrNotFound, http.StatusNotFound, "INTAKE_NOT_FOUND"},
		{"token inactive", accesstoken.ErrInactive, http.StatusForbidden, "INTAKE_FORBIDDEN"},
		{"submission not found", submission.ErrNotFound, http.StatusNotFound, "INTAKE_NOT_FOUND"},
		{"workspace denied", workspace.ErrDenied, http.StatusForbidden, "WORKSPACE_FORBIDDEN"},
		{"unknown training type", catalog.ErrUnknownTrainingType, http.StatusBadRequest, "INTAKE_VALIDATION"},
		{"state conflict", submission.ValidateTransition(submission.StatusApproved, submission.StatusSubmitted), http.StatusConflict, "INTAKE_STATE_CONFLICT"},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError, "INTERNAL"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			writeServiceError(testRequest(t), w, tc.err)

			require.Equal(t, tc.status, w.Code)
			var body struct {
				Code string `json:"code"`
			}
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			require.Equal(t, tc.code, body.Code)
		})
	}
}

func TestWriteServiceError_MissingResponsesPayload(t *testing.T) {
	w := httptest.NewRecorder()
	writeServiceError(testRequest(t), w, &submission.MissingResponsesError{
		Missing: []submission.MissingQuestion{
			{QuestionID: "pp_business_goal", QuestionText: "What business outcome is currently falling short?", Section: "Business Context"},
		},
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Code             string `json:"code"`
		MissingResponses []struct {
			QuestionID string `json:"questionId"`
			Section    string `json:"section"`
		} `json:"missingResponses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, "INTAKE_MISSING_REQUIRED", body.Code)
	require.Len(t, body.MissingResponses, 1)
	require.Equal(t, "pp_business_goal", body.MissingResponses[0].QuestionID)
}

package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/presentation/controllers/dtos"
	"github.com/coursecraft/platform/modules/intake/services"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/constants"
	"github.com/coursecraft/platform/pkg/httpapi"
	"github.com/coursecraft/platform/pkg/serrors"
)

// ReviewAPIController exposes the reviewer-facing workflow. Every handler
// resolves the acting user from the request context and defers the
// workspace role check to the service layer.
type ReviewAPIController struct {
	tokens   *services.TokenService
	review   *services.ReviewService
	tokenTTL time.Duration
	basePath string
}

// NewReviewAPIController builds the controller. tokenTTL is the default
// lifetime applied to new links when the request carries no expiry; zero
// means links do not expire.
func NewReviewAPIController(tokens *services.TokenService, review *services.ReviewService, tokenTTL time.Duration) *ReviewAPIController {
	return &ReviewAPIController{
		tokens:   tokens,
		review:   review,
		tokenTTL: tokenTTL,
		basePath: "/intake/api",
	}
}

func (c *ReviewAPIController) Key() string {
	return c.basePath
}

func (c *ReviewAPIController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/workspaces/{workspaceID}/submissions", c.ListSubmissions).Methods(http.MethodGet)
	router.HandleFunc("/workspaces/{workspaceID}/tokens", c.CreateToken).Methods(http.MethodPost)
	router.HandleFunc("/workspaces/{workspaceID}/tokens", c.ListTokens).Methods(http.MethodGet)
	router.HandleFunc("/submissions/{id}", c.GetSubmission).Methods(http.MethodGet)
	router.HandleFunc("/submissions/{id}/review", c.StartReview).Methods(http.MethodPost)
	router.HandleFunc("/submissions/{id}/request-revision", c.RequestRevision).Methods(http.MethodPost)
	router.HandleFunc("/submissions/{id}/approve", c.Approve).Methods(http.MethodPost)
	router.HandleFunc("/tokens/{id}/deactivate", c.DeactivateToken).Methods(http.MethodPost)
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(mux.Vars(r)[name])
	if err != nil {
		return uuid.Nil, serrors.NewInvalidFieldError(name, "must be a UUID")
	}
	return id, nil
}

func (c *ReviewAPIController) CreateToken(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	workspaceID, err := pathUUID(r, "workspaceID")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	var dto dtos.CreateTokenRequest
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

	expiresAt := dto.ExpiresAt
	if expiresAt == nil && c.tokenTTL > 0 {
		t := time.Now().Add(c.tokenTTL)
		expiresAt = &t
	}

	token, sub, err := c.tokens.Create(r.Context(), actorID, services.CreateTokenParams{
		WorkspaceID:      workspaceID,
		TrainingType:     dto.TrainingType,
		StakeholderName:  dto.StakeholderName,
		StakeholderEmail: dto.StakeholderEmail,
		ExpiresAt:        expiresAt,
	})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	_ = httpapi.WriteJSON(w, http.StatusCreated, &dtos.TokenCreatedResponse{
		ID:           token.ID.String(),
		Secret:       token.Secret,
		FormPath:     "/intake/api/form/" + token.Secret,
		TrainingType: token.TrainingType,
		SubmissionID: sub.ID.String(),
		ExpiresAt:    token.ExpiresAt,
	})
}

func (c *ReviewAPIController) ListTokens(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	workspaceID, err := pathUUID(r, "workspaceID")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	tokens, err := c.tokens.ListByWorkspace(r.Context(), actorID, workspaceID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	views := make([]dtos.TokenView, 0, len(tokens))
	for _, token := range tokens {
		views = append(views, dtos.NewTokenView(token))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, views)
}

func (c *ReviewAPIController) DeactivateToken(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	tokenID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	if err := c.tokens.Deactivate(r.Context(), actorID, tokenID); err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusNoContent, nil)
}

func (c *ReviewAPIController) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	workspaceID, err := pathUUID(r, "workspaceID")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	params := &submission.FindParams{
		WorkspaceID: workspaceID,
		Status:      submission.Status(r.URL.Query().Get("status")),
	}
	if limit := r.URL.Query().Get("limit"); limit != "" {
		params.Limit, _ = strconv.Atoi(limit)
	}
	if offset := r.URL.Query().Get("offset"); offset != "" {
		params.Offset, _ = strconv.Atoi(offset)
	}

	subs, err := c.review.ListSubmissions(r.Context(), actorID, params)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	summary, err := c.review.Summary(r.Context(), actorID, workspaceID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	out := &dtos.ListSubmissionsResponse{
		Submissions: make([]dtos.SubmissionView, 0, len(subs)),
		Counts:      make(map[string]int64, len(summary.ByStatus)),
	}
	for _, sub := range subs {
		out.Submissions = append(out.Submissions, dtos.NewSubmissionView(sub))
	}
	for status, count := range summary.ByStatus {
		out.Counts[string(status)] = count
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *ReviewAPIController) GetSubmission(w http.ResponseWriter, r *http.Request) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	submissionID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	detail, err := c.review.Detail(r.Context(), actorID, submissionID)
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, detail)
}

func (c *ReviewAPIController) StartReview(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionCtx) (*submission.Submission, error) {
		return c.review.StartReview(ctx.reqCtx, ctx.actorID, ctx.submissionID)
	})
}

func (c *ReviewAPIController) Approve(w http.ResponseWriter, r *http.Request) {
	c.transition(w, r, func(ctx *transitionCtx) (*submission.Submission, error) {
		return c.review.Approve(ctx.reqCtx, ctx.actorID, ctx.submissionID)
	})
}

func (c *ReviewAPIController) RequestRevision(w http.ResponseWriter, r *http.Request) {
	var dto dtos.RequestRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_BODY", "invalid request body", nil)
		return
	}
	c.transition(w, r, func(ctx *transitionCtx) (*submission.Submission, error) {
		return c.review.RequestRevision(ctx.reqCtx, ctx.actorID, ctx.submissionID, dto.RevisionNotes)
	})
}

type transitionCtx struct {
	reqCtx       context.Context
	actorID      uuid.UUID
	submissionID uuid.UUID
}

func (c *ReviewAPIController) transition(
	w http.ResponseWriter,
	r *http.Request,
	fn func(ctx *transitionCtx) (*submission.Submission, error),
) {
	actorID, err := composables.UseUserID(r.Context())
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	submissionID, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(r, w, err)
		return
	}

	sub, err := fn(&transitionCtx{reqCtx: r.Context(), actorID: actorID, submissionID: submissionID})
	if err != nil {
		writeServiceError(r, w, err)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, dtos.NewSubmissionView(sub))
}

package services_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/response"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/services"
	workspace "github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/eventbus"
)

// stubTx satisfies the transaction reuse check in composables.InTx. The
// in-memory repositories never touch it.
type stubTx struct {
	pgx.Tx
}

type tokenRepoStub struct {
	items map[uuid.UUID]*accesstoken.AccessToken
}

func newTokenRepoStub() *tokenRepoStub {
	return &tokenRepoStub{items: map[uuid.UUID]*accesstoken.AccessToken{}}
}

func (r *tokenRepoStub) Create(_ context.Context, token *accesstoken.AccessToken) error {
	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}
	stored := *token
	r.items[token.ID] = &stored
	return nil
}

func (r *tokenRepoStub) GetByID(_ context.Context, id uuid.UUID) (*accesstoken.AccessToken, error) {
	token, ok := r.items[id]
	if !ok {
		return nil, accesstoken.ErrNotFound
	}
	out := *token
	return &out, nil
}

func (r *tokenRepoStub) GetBySecret(_ context.Context, secret string) (*accesstoken.AccessToken, error) {
	for _, token := range r.items {
		if token.Secret == secret {
			out := *token
			return &out, nil
		}
	}
	return nil, accesstoken.ErrNotFound
}

func (r *tokenRepoStub) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	token, ok := r.items[id]
	if !ok {
		return accesstoken.ErrNotFound
	}
	token.IsActive = active
	return nil
}

func (r *tokenRepoStub) SetStakeholder(_ context.Context, id uuid.UUID, name, email string) error {
	token, ok := r.items[id]
	if !ok {
		return accesstoken.ErrNotFound
	}
	if token.StakeholderName == "" {
		token.StakeholderName = name
	}
	if token.StakeholderEmail == "" {
		token.StakeholderEmail = email
	}
	return nil
}

func (r *tokenRepoStub) ListByWorkspace(_ context.Context, workspaceID uuid.UUID) ([]*accesstoken.AccessToken, error) {
	var out []*accesstoken.AccessToken
	for _, token := range r.items {
		if token.WorkspaceID == workspaceID {
			t := *token
			out = append(out, &t)
		}
	}
	return out, nil
}

type submissionRepoStub struct {
	items map[uuid.UUID]*submission.Submission
}

func newSubmissionRepoStub() *submissionRepoStub {
	return &submissionRepoStub{items: map[uuid.UUID]*submission.Submission{}}
}

func (r *submissionRepoStub) Create(_ context.Context, sub *submission.Submission) error {
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	stored := *sub
	r.items[sub.ID] = &stored
	return nil
}

func (r *submissionRepoStub) GetByID(_ context.Context, id uuid.UUID) (*submission.Submission, error) {
	sub, ok := r.items[id]
	if !ok {
		return nil, submission.ErrNotFound
	}
	out := *sub
	return &out, nil
}

func (r *submissionRepoStub) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	return r.GetByID(ctx, id)
}

func (r *submissionRepoStub) GetByTokenID(_ context.Context, tokenID uuid.UUID) (*submission.Submission, error) {
	for _, sub := range r.items {
		if sub.TokenID == tokenID {
			out := *sub
			return &out, nil
		}
	}
	return nil, submission.ErrNotFound
}

func (r *submissionRepoStub) Update(_ context.Context, sub *submission.Submission) error {
	if _, ok := r.items[sub.ID]; !ok {
		return submission.ErrNotFound
	}
	stored := *sub
	stored.UpdatedAt = time.Now()
	r.items[sub.ID] = &stored
	return nil
}

func (r *submissionRepoStub) List(_ context.Context, params *submission.FindParams) ([]*submission.Submission, error) {
	var out []*submission.Submission
	for _, sub := range r.items {
		if sub.WorkspaceID != params.WorkspaceID {
			continue
		}
		if params.Status != "" && sub.Status != params.Status {
			continue
		}
		s := *sub
		out = append(out, &s)
	}
	return out, nil
}

func (r *submissionRepoStub) CountByStatus(_ context.Context, workspaceID uuid.UUID) (map[submission.Status]int64, error) {
	out := map[submission.Status]int64{}
	for _, sub := range r.items {
		if sub.WorkspaceID == workspaceID {
			out[sub.Status]++
		}
	}
	return out, nil
}

type responseRepoStub struct {
	items []*response.Response
	log   []*response.ChangeLogEntry
}

func (r *responseRepoStub) ListBySubmission(_ context.Context, submissionID uuid.UUID) ([]*response.Response, error) {
	var out []*response.Response
	for _, resp := range r.items {
		if resp.SubmissionID == submissionID {
			copied := *resp
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *responseRepoStub) Create(_ context.Context, resp *response.Response) error {
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	now := time.Now()
	resp.CreatedAt = now
	resp.UpdatedAt = now
	stored := *resp
	r.items = append(r.items, &stored)
	return nil
}

func (r *responseRepoStub) UpdateValue(_ context.Context, id uuid.UUID, value, updatedBy string) error {
	for _, resp := range r.items {
		if resp.ID == id {
			resp.Value = value
			resp.UpdatedBy = updatedBy
			resp.UpdatedAt = time.Now()
			return nil
		}
	}
	return submission.ErrNotFound
}

func (r *responseRepoStub) AppendChangeLog(_ context.Context, entry *response.ChangeLogEntry) error {
	stored := *entry
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	if stored.ChangedAt.IsZero() {
		stored.ChangedAt = time.Now()
	}
	r.log = append(r.log, &stored)
	return nil
}

func (r *responseRepoStub) ListChangeLog(_ context.Context, submissionID uuid.UUID) ([]*response.ChangeLogEntry, error) {
	var out []*response.ChangeLogEntry
	for _, entry := range r.log {
		if entry.SubmissionID == submissionID {
			copied := *entry
			out = append(out, &copied)
		}
	}
	return out, nil
}

type memberKey struct {
	actorID     uuid.UUID
	workspaceID uuid.UUID
}

type authorizerStub struct {
	roles map[memberKey]workspace.Role
}

func (a *authorizerStub) grant(actorID, workspaceID uuid.UUID, role workspace.Role) {
	a.roles[memberKey{actorID, workspaceID}] = role
}

func (a *authorizerStub) Authorize(_ context.Context, actorID, workspaceID uuid.UUID, allowed ...workspace.Role) (workspace.Role, error) {
	role, ok := a.roles[memberKey{actorID, workspaceID}]
	if !ok {
		return "", workspace.ErrNotMember
	}
	for _, candidate := range allowed {
		if candidate == role {
			return role, nil
		}
	}
	return "", workspace.ErrDenied
}

type workspaceRepoStub struct {
	items map[uuid.UUID]*workspace.Workspace
}

func (r *workspaceRepoStub) GetByID(_ context.Context, id uuid.UUID) (*workspace.Workspace, error) {
	ws, ok := r.items[id]
	if !ok {
		return nil, workspace.ErrNotFound
	}
	out := *ws
	return &out, nil
}

func (r *workspaceRepoStub) GetMemberRole(_ context.Context, _, _ uuid.UUID) (workspace.Role, error) {
	return "", workspace.ErrNotMember
}

type fixture struct {
	ctx         context.Context
	workspaceID uuid.UUID
	reviewerID  uuid.UUID
	viewerID    uuid.UUID

	tokens      *tokenRepoStub
	submissions *submissionRepoStub
	responses   *responseRepoStub
	auth        *authorizerStub
	bus         eventbus.EventBus

	tokenSvc  *services.TokenService
	intakeSvc *services.IntakeService
	reviewSvc *services.ReviewService
}

func setup(t *testing.T) *fixture {
	t.Helper()

	log := logrus.New()
	log.SetOutput(io.Discard)

	f := &fixture{
		ctx:         composables.WithTx(context.Background(), stubTx{}),
		workspaceID: uuid.New(),
		reviewerID:  uuid.New(),
		viewerID:    uuid.New(),
		tokens:      newTokenRepoStub(),
		submissions: newSubmissionRepoStub(),
		responses:   &responseRepoStub{},
		auth:        &authorizerStub{roles: map[memberKey]workspace.Role{}},
		bus:         eventbus.NewEventPublisher(log),
	}
	workspaces := &workspaceRepoStub{items: map[uuid.UUID]*workspace.Workspace{
		f.workspaceID: {ID: f.workspaceID, Name: "Acme Learning", CreatedAt: time.Now()},
	}}
	f.auth.grant(f.reviewerID, f.workspaceID, workspace.RoleAdmin)
	f.auth.grant(f.viewerID, f.workspaceID, workspace.RoleViewer)

	resolver := catalog.Default()
	f.tokenSvc = services.NewTokenService(f.tokens, f.submissions, resolver, f.auth)
	f.intakeSvc = services.NewIntakeService(services.IntakeServiceConfig{
		Tokens:      f.tokenSvc,
		TokenRepo:   f.tokens,
		Submissions: f.submissions,
		Responses:   f.responses,
		Catalog:     resolver,
		Workspaces:  workspaces,
		Publisher:   f.bus,
	})
	f.reviewSvc = services.NewReviewService(f.submissions, f.responses, f.tokens, resolver, f.auth, f.bus)
	return f
}

func (f *fixture) mintToken(t *testing.T, params services.CreateTokenParams) (*accesstoken.AccessToken, *submission.Submission) {
	t.Helper()
	if params.WorkspaceID == uuid.Nil {
		params.WorkspaceID = f.workspaceID
	}
	if params.TrainingType == "" {
		params.TrainingType = "PERFORMANCE_PROBLEM"
	}
	token, sub, err := f.tokenSvc.Create(f.ctx, f.reviewerID, params)
	require.NoError(t, err)
	return token, sub
}

// performanceProblemAnswers fills every required question on the
// "has not been tried before" branch, leaving pp_tried_details irrelevant.
func performanceProblemAnswers() []services.ResponseInput {
	return []services.ResponseInput{
		{QuestionID: "pp_business_goal", Value: "Close rate is 12% against a 20% target"},
		{QuestionID: "pp_affected_group", Value: "40 account executives"},
		{QuestionID: "pp_observed_gap", Value: "Discovery calls skip budget questions"},
		{QuestionID: "pp_tried_before", Value: "no"},
		{QuestionID: "pp_success_measure", Value: "Close rate back above 18%"},
	}
}

func (f *fixture) submitFilled(t *testing.T) (*accesstoken.AccessToken, *submission.Submission) {
	t.Helper()
	token, sub := f.mintToken(t, services.CreateTokenParams{StakeholderName: "Dana Ruiz"})
	_, err := f.intakeSvc.SaveResponses(f.ctx, token.Secret, performanceProblemAnswers(), "Dana Ruiz")
	require.NoError(t, err)
	_, err = f.intakeSvc.Submit(f.ctx, token.Secret)
	require.NoError(t, err)
	return token, sub
}

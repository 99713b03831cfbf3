package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	workspace "github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/metrics"
	"github.com/coursecraft/platform/pkg/serrors"
)

// TokenService mints respondent links and resolves presented secrets.
type TokenService struct {
	tokens      accesstoken.Repository
	submissions submission.Repository
	catalog     catalog.Resolver
	authorizer  workspace.Authorizer
}

func NewTokenService(
	tokens accesstoken.Repository,
	submissions submission.Repository,
	resolver catalog.Resolver,
	authorizer workspace.Authorizer,
) *TokenService {
	return &TokenService{
		tokens:      tokens,
		submissions: submissions,
		catalog:     resolver,
		authorizer:  authorizer,
	}
}

type CreateTokenParams struct {
	WorkspaceID      uuid.UUID
	TrainingType     string
	StakeholderName  string
	StakeholderEmail string
	ExpiresAt        *time.Time
}

// Create mints a token and its draft submission in one transaction.
// The training type is copied onto the submission and never changes after.
func (s *TokenService) Create(ctx context.Context, actorID uuid.UUID, params CreateTokenParams) (*accesstoken.AccessToken, *submission.Submission, error) {
	if _, err := s.authorizer.Authorize(ctx, actorID, params.WorkspaceID, workspace.ReviewerRoles...); err != nil {
		return nil, nil, err
	}
	if _, err := s.catalog.QuestionsFor(params.TrainingType); err != nil {
		return nil, nil, err
	}

	secret, err := accesstoken.GenerateSecret()
	if err != nil {
		return nil, nil, err
	}

	token := &accesstoken.AccessToken{
		WorkspaceID:      params.WorkspaceID,
		Secret:           secret,
		TrainingType:     params.TrainingType,
		CreatedByID:      actorID,
		StakeholderName:  strings.TrimSpace(params.StakeholderName),
		StakeholderEmail: strings.TrimSpace(params.StakeholderEmail),
		IsActive:         true,
		ExpiresAt:        params.ExpiresAt,
	}
	sub := &submission.Submission{
		WorkspaceID:  params.WorkspaceID,
		TrainingType: params.TrainingType,
		Status:       submission.StatusDraft,
	}

	err = composables.InTx(ctx, func(txCtx context.Context) error {
		if err := s.tokens.Create(txCtx, token); err != nil {
			return err
		}
		sub.TokenID = token.ID
		return s.submissions.Create(txCtx, sub)
	})
	if err != nil {
		return nil, nil, err
	}
	return token, sub, nil
}

// Validate resolves a presented secret to its token and submission.
// It runs at the start of every respondent-facing operation; results are
// never cached because a revision request can reactivate a token between
// calls.
func (s *TokenService) Validate(ctx context.Context, secret string) (*accesstoken.AccessToken, *submission.Submission, error) {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return nil, nil, serrors.NewError("INTAKE_VALIDATION", "token is required")
	}

	token, err := s.tokens.GetBySecret(ctx, secret)
	if err != nil {
		if err == accesstoken.ErrNotFound {
			metrics.TokenRejections.WithLabelValues("not_found").Inc()
		}
		return nil, nil, err
	}
	if err := token.Usable(time.Now()); err != nil {
		reason := "inactive"
		if err == accesstoken.ErrExpired {
			reason = "expired"
		}
		metrics.TokenRejections.WithLabelValues(reason).Inc()
		return nil, nil, err
	}

	sub, err := s.submissions.GetByTokenID(ctx, token.ID)
	if err != nil {
		return nil, nil, err
	}
	return token, sub, nil
}

// Deactivate is the manual kill switch for a leaked or abandoned link.
func (s *TokenService) Deactivate(ctx context.Context, actorID, tokenID uuid.UUID) error {
	token, err := s.tokens.GetByID(ctx, tokenID)
	if err != nil {
		return err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, token.WorkspaceID, workspace.ReviewerRoles...); err != nil {
		return err
	}
	return s.tokens.SetActive(ctx, tokenID, false)
}

func (s *TokenService) ListByWorkspace(ctx context.Context, actorID, workspaceID uuid.UUID) ([]*accesstoken.AccessToken, error) {
	allowed := append([]workspace.Role{workspace.RoleViewer}, workspace.ReviewerRoles...)
	if _, err := s.authorizer.Authorize(ctx, actorID, workspaceID, allowed...); err != nil {
		return nil, err
	}
	return s.tokens.ListByWorkspace(ctx, workspaceID)
}

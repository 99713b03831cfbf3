package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/modules/workspace/domain"
)

// AuthorizerService resolves workspace membership into a capability decision.
type AuthorizerService struct {
	repo domain.Repository
}

func NewAuthorizerService(repo domain.Repository) *AuthorizerService {
	return &AuthorizerService{repo: repo}
}

func (s *AuthorizerService) Authorize(ctx context.Context, actorID, workspaceID uuid.UUID, allowed ...domain.Role) (domain.Role, error) {
	role, err := s.repo.GetMemberRole(ctx, workspaceID, actorID)
	if err != nil {
		return "", err
	}
	for _, a := range allowed {
		if role == a {
			return role, nil
		}
	}
	return "", domain.ErrDenied
}

func (s *AuthorizerService) Workspace(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	return s.repo.GetByID(ctx, id)
}

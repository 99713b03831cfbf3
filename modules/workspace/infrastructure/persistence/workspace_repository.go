package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/composables"
)

type WorkspaceRepository struct{}

func NewWorkspaceRepository() domain.Repository {
	return &WorkspaceRepository{}
}

func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	var ws domain.Workspace
	err = tx.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM workspaces
		WHERE id = $1
	`, id).Scan(&ws.ID, &ws.Name, &ws.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ws, nil
}

func (r *WorkspaceRepository) GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (domain.Role, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return "", err
	}

	var role domain.Role
	err = tx.QueryRow(ctx, `
		SELECT role
		FROM workspace_members
		WHERE workspace_id = $1 AND user_id = $2
	`, workspaceID, userID).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotMember
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

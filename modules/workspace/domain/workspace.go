package domain

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/pkg/serrors"
)

type Role string

const (
	RoleOwner    Role = "owner"
	RoleAdmin    Role = "admin"
	RoleDesigner Role = "designer"
	RoleViewer   Role = "viewer"
)

// ReviewerRoles are the roles allowed to drive intake review transitions.
var ReviewerRoles = []Role{RoleOwner, RoleAdmin, RoleDesigner}

type Workspace struct {
	ID        uuid.UUID
	Name      string
	CreatedAt time.Time
}

type Member struct {
	WorkspaceID uuid.UUID
	UserID      uuid.UUID
	Role        Role
	CreatedAt   time.Time
}

var (
	ErrNotFound  = serrors.NewError("WORKSPACE_NOT_FOUND", "workspace not found")
	ErrNotMember = serrors.NewError("WORKSPACE_FORBIDDEN", "not a member of this workspace")
	ErrDenied    = serrors.NewError("WORKSPACE_FORBIDDEN", "permission denied")
)

// Authorizer is the capability check consumed by the intake review flow:
// it answers with the actor's role when the actor holds one of the allowed
// roles in the workspace, and an error otherwise.
type Authorizer interface {
	Authorize(ctx context.Context, actorID, workspaceID uuid.UUID, allowed ...Role) (Role, error)
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Workspace, error)
	GetMemberRole(ctx context.Context, workspaceID, userID uuid.UUID) (Role, error)
}

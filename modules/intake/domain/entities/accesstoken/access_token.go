package accesstoken

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/pkg/serrors"
)

const secretBytes = 32

// AccessToken is the opaque bearer secret granting an unauthenticated
// stakeholder write access to exactly one submission.
type AccessToken struct {
	ID               uuid.UUID
	WorkspaceID      uuid.UUID
	Secret           string
	TrainingType     string
	CreatedByID      uuid.UUID
	StakeholderName  string
	StakeholderEmail string
	IsActive         bool
	ExpiresAt        *time.Time
	CreatedAt        time.Time
}

var (
	ErrNotFound = serrors.NewError("INTAKE_NOT_FOUND", "intake link not found")
	ErrInactive = serrors.NewError("INTAKE_FORBIDDEN", "link inactive")
	ErrExpired  = serrors.NewError("INTAKE_FORBIDDEN", "link expired")
)

// Usable reports whether the token may be presented at the given time.
// A token is usable iff it is active and either has no expiry or the
// expiry is in the future.
func (t *AccessToken) Usable(now time.Time) error {
	if !t.IsActive {
		return ErrInactive
	}
	if t.ExpiresAt != nil && !t.ExpiresAt.After(now) {
		return ErrExpired
	}
	return nil
}

// GenerateSecret returns a hex-encoded random secret of 32 bytes entropy.
func GenerateSecret() (string, error) {
	buf := make([]byte, secretBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}

type Repository interface {
	Create(ctx context.Context, token *AccessToken) error
	GetByID(ctx context.Context, id uuid.UUID) (*AccessToken, error)
	GetBySecret(ctx context.Context, secret string) (*AccessToken, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	SetStakeholder(ctx context.Context, id uuid.UUID, name, email string) error
	ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*AccessToken, error)
}

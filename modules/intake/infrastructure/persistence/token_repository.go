package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/infrastructure/persistence/models"
	"github.com/coursecraft/platform/pkg/composables"
)

const tokenColumns = `id, workspace_id, secret, training_type, created_by_id,
	stakeholder_name, stakeholder_email, is_active, expires_at, created_at`

type TokenRepository struct{}

func NewTokenRepository() accesstoken.Repository {
	return &TokenRepository{}
}

func scanToken(row pgx.Row) (*accesstoken.AccessToken, error) {
	var m models.IntakeAccessToken
	err := row.Scan(
		&m.ID,
		&m.WorkspaceID,
		&m.Secret,
		&m.TrainingType,
		&m.CreatedByID,
		&m.StakeholderName,
		&m.StakeholderEmail,
		&m.IsActive,
		&m.ExpiresAt,
		&m.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, accesstoken.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainAccessToken(&m), nil
}

func (r *TokenRepository) Create(ctx context.Context, token *accesstoken.AccessToken) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}
	if token.CreatedAt.IsZero() {
		token.CreatedAt = time.Now()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO intake_access_tokens (
			id, workspace_id, secret, training_type, created_by_id,
			stakeholder_name, stakeholder_email, is_active, expires_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`,
		token.ID,
		token.WorkspaceID,
		token.Secret,
		token.TrainingType,
		token.CreatedByID,
		nullableString(token.StakeholderName),
		nullableString(token.StakeholderEmail),
		token.IsActive,
		token.ExpiresAt,
		token.CreatedAt,
	)
	return err
}

func (r *TokenRepository) GetByID(ctx context.Context, id uuid.UUID) (*accesstoken.AccessToken, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return scanToken(tx.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM intake_access_tokens
		WHERE id = $1
	`, id))
}

func (r *TokenRepository) GetBySecret(ctx context.Context, secret string) (*accesstoken.AccessToken, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return scanToken(tx.QueryRow(ctx, `
		SELECT `+tokenColumns+`
		FROM intake_access_tokens
		WHERE secret = $1
	`, secret))
}

func (r *TokenRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE intake_access_tokens
		SET is_active = $2
		WHERE id = $1
	`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accesstoken.ErrNotFound
	}
	return nil
}

func (r *TokenRepository) SetStakeholder(ctx context.Context, id uuid.UUID, name, email string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE intake_access_tokens
		SET stakeholder_name = COALESCE(stakeholder_name, $2),
		    stakeholder_email = COALESCE(stakeholder_email, $3)
		WHERE id = $1
	`, id, nullableString(name), nullableString(email))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return accesstoken.ErrNotFound
	}
	return nil
}

func (r *TokenRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*accesstoken.AccessToken, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT `+tokenColumns+`
		FROM intake_access_tokens
		WHERE workspace_id = $1
		ORDER BY created_at DESC
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*accesstoken.AccessToken
	for rows.Next() {
		var m models.IntakeAccessToken
		if err := rows.Scan(
			&m.ID,
			&m.WorkspaceID,
			&m.Secret,
			&m.TrainingType,
			&m.CreatedByID,
			&m.StakeholderName,
			&m.StakeholderEmail,
			&m.IsActive,
			&m.ExpiresAt,
			&m.CreatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainAccessToken(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

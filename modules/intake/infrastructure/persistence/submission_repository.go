package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/infrastructure/persistence/models"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/repo"
)

const submissionColumns = `id, token_id, workspace_id, training_type, status,
	submitted_at, reviewed_at, reviewed_by_id, revision_notes, created_at, updated_at`

type SubmissionRepository struct{}

func NewSubmissionRepository() submission.Repository {
	return &SubmissionRepository{}
}

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	var m models.IntakeSubmission
	err := row.Scan(
		&m.ID,
		&m.TokenID,
		&m.WorkspaceID,
		&m.TrainingType,
		&m.Status,
		&m.SubmittedAt,
		&m.ReviewedAt,
		&m.ReviewedByID,
		&m.RevisionNotes,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, submission.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return toDomainSubmission(&m), nil
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *submission.Submission) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = now
	}
	sub.UpdatedAt = now

	_, err = tx.Exec(ctx, `
		INSERT INTO intake_submissions (
			id, token_id, workspace_id, training_type, status,
			submitted_at, reviewed_at, reviewed_by_id, revision_notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		sub.ID,
		sub.TokenID,
		sub.WorkspaceID,
		sub.TrainingType,
		string(sub.Status),
		sub.SubmittedAt,
		sub.ReviewedAt,
		sub.ReviewedByID,
		nullableString(sub.RevisionNotes),
		sub.CreatedAt,
		sub.UpdatedAt,
	)
	return err
}

func (r *SubmissionRepository) GetByID(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return scanSubmission(tx.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM intake_submissions
		WHERE id = $1
	`, id))
}

func (r *SubmissionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*submission.Submission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return scanSubmission(tx.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM intake_submissions
		WHERE id = $1
		FOR UPDATE
	`, id))
}

func (r *SubmissionRepository) GetByTokenID(ctx context.Context, tokenID uuid.UUID) (*submission.Submission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	return scanSubmission(tx.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM intake_submissions
		WHERE token_id = $1
	`, tokenID))
}

func (r *SubmissionRepository) Update(ctx context.Context, sub *submission.Submission) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	sub.UpdatedAt = time.Now()
	tag, err := tx.Exec(ctx, `
		UPDATE intake_submissions
		SET status = $2,
		    submitted_at = $3,
		    reviewed_at = $4,
		    reviewed_by_id = $5,
		    revision_notes = $6,
		    updated_at = $7
		WHERE id = $1
	`,
		sub.ID,
		string(sub.Status),
		sub.SubmittedAt,
		sub.ReviewedAt,
		sub.ReviewedByID,
		nullableString(sub.RevisionNotes),
		sub.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return submission.ErrNotFound
	}
	return nil
}

func (r *SubmissionRepository) List(ctx context.Context, params *submission.FindParams) ([]*submission.Submission, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	where, args := buildSubmissionFilters(params)
	query := `
		SELECT ` + submissionColumns + `
		FROM intake_submissions
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_at DESC
	`
	if params != nil {
		query += " " + repo.FormatLimitOffset(params.Limit, params.Offset)
	}

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*submission.Submission
	for rows.Next() {
		var m models.IntakeSubmission
		if err := rows.Scan(
			&m.ID,
			&m.TokenID,
			&m.WorkspaceID,
			&m.TrainingType,
			&m.Status,
			&m.SubmittedAt,
			&m.ReviewedAt,
			&m.ReviewedByID,
			&m.RevisionNotes,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainSubmission(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *SubmissionRepository) CountByStatus(ctx context.Context, workspaceID uuid.UUID) (map[submission.Status]int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT status, COUNT(*)
		FROM intake_submissions
		WHERE workspace_id = $1
		GROUP BY status
	`, workspaceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[submission.Status]int64)
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		counts[submission.Status(status)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return counts, nil
}

func buildSubmissionFilters(params *submission.FindParams) ([]string, []interface{}) {
	where := []string{"1 = 1"}
	args := []interface{}{}
	argPos := 1
	if params == nil {
		return where, args
	}

	if params.WorkspaceID != uuid.Nil {
		where = append(where, fmt.Sprintf("workspace_id = $%d", argPos))
		args = append(args, params.WorkspaceID)
		argPos++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", argPos))
		args = append(args, string(params.Status))
	}
	return where, args
}

package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/modules/intake/domain/entities/response"
	"github.com/coursecraft/platform/modules/intake/infrastructure/persistence/models"
	"github.com/coursecraft/platform/pkg/composables"
)

type ResponseRepository struct{}

func NewResponseRepository() response.Repository {
	return &ResponseRepository{}
}

func (r *ResponseRepository) ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*response.Response, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, submission_id, question_id, value, updated_by, created_at, updated_at
		FROM intake_responses
		WHERE submission_id = $1
		ORDER BY created_at
	`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*response.Response
	for rows.Next() {
		var m models.IntakeResponse
		if err := rows.Scan(
			&m.ID,
			&m.SubmissionID,
			&m.QuestionID,
			&m.Value,
			&m.UpdatedBy,
			&m.CreatedAt,
			&m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainResponse(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (r *ResponseRepository) Create(ctx context.Context, resp *response.Response) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	if resp.ID == uuid.Nil {
		resp.ID = uuid.New()
	}
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now

	// The unique (submission_id, question_id) index backs the at-most-one
	// invariant; a concurrent insert of the same pair fails instead of
	// duplicating.
	_, err = tx.Exec(ctx, `
		INSERT INTO intake_responses (
			id, submission_id, question_id, value, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		resp.ID,
		resp.SubmissionID,
		resp.QuestionID,
		resp.Value,
		resp.UpdatedBy,
		resp.CreatedAt,
		resp.UpdatedAt,
	)
	return err
}

func (r *ResponseRepository) UpdateValue(ctx context.Context, id uuid.UUID, value, updatedBy string) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		UPDATE intake_responses
		SET value = $2, updated_by = $3, updated_at = $4
		WHERE id = $1
	`, id, value, updatedBy, time.Now())
	return err
}

func (r *ResponseRepository) AppendChangeLog(ctx context.Context, entry *response.ChangeLogEntry) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.ChangedAt.IsZero() {
		entry.ChangedAt = time.Now()
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO intake_change_log (
			id, submission_id, question_id, changed_by, previous_value, new_value, changed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		entry.ID,
		entry.SubmissionID,
		entry.QuestionID,
		entry.ChangedBy,
		entry.PreviousValue,
		entry.NewValue,
		entry.ChangedAt,
	)
	return err
}

func (r *ResponseRepository) ListChangeLog(ctx context.Context, submissionID uuid.UUID) ([]*response.ChangeLogEntry, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := tx.Query(ctx, `
		SELECT id, submission_id, question_id, changed_by, previous_value, new_value, changed_at
		FROM intake_change_log
		WHERE submission_id = $1
		ORDER BY changed_at
	`, submissionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*response.ChangeLogEntry
	for rows.Next() {
		var m models.IntakeChangeLogEntry
		if err := rows.Scan(
			&m.ID,
			&m.SubmissionID,
			&m.QuestionID,
			&m.ChangedBy,
			&m.PreviousValue,
			&m.NewValue,
			&m.ChangedAt,
		); err != nil {
			return nil, err
		}
		results = append(results, toDomainChangeLogEntry(&m))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

package submission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/pkg/serrors"
)

type Status string

const (
	StatusDraft             Status = "DRAFT"
	StatusSubmitted         Status = "SUBMITTED"
	StatusUnderReview       Status = "UNDER_REVIEW"
	StatusApproved          Status = "APPROVED"
	StatusRevisionRequested Status = "REVISION_REQUESTED"
)

// Submission is the lifecycle-tracked aggregate of one stakeholder's answers
// for one training-type questionnaire. It belongs to exactly one access token.
type Submission struct {
	ID            uuid.UUID
	TokenID       uuid.UUID
	WorkspaceID   uuid.UUID
	TrainingType  string
	Status        Status
	SubmittedAt   *time.Time
	ReviewedAt    *time.Time
	ReviewedByID  *uuid.UUID
	RevisionNotes string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Writable reports whether the stakeholder may still edit responses.
func (s *Submission) Writable() bool {
	return s.Status == StatusDraft || s.Status == StatusRevisionRequested
}

var transitions = map[Status][]Status{
	StatusDraft:             {StatusSubmitted},
	StatusSubmitted:         {StatusUnderReview, StatusApproved, StatusRevisionRequested},
	StatusUnderReview:       {StatusApproved, StatusRevisionRequested},
	StatusRevisionRequested: {StatusSubmitted},
}

// ValidateTransition re-checks the current status against the attempted
// target. Callers must invoke this against a freshly read status inside the
// same transaction that applies the transition.
func ValidateTransition(from, to Status) error {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return nil
		}
	}
	return serrors.NewError(
		"INTAKE_STATE_CONFLICT",
		fmt.Sprintf("cannot transition submission from %s to %s", from, to),
	).WithDetails(map[string]string{
		"from": string(from),
		"to":   string(to),
	})
}

// MissingQuestion identifies one unmet required question at submit time.
type MissingQuestion struct {
	QuestionID   string `json:"questionId"`
	QuestionText string `json:"questionText"`
	Section      string `json:"section"`
}

// MissingResponsesError is returned as structured data so clients can
// highlight the exact unmet fields.
type MissingResponsesError struct {
	Missing []MissingQuestion
}

func (e *MissingResponsesError) Error() string {
	return fmt.Sprintf("%d required questions are unanswered", len(e.Missing))
}

var ErrNotFound = serrors.NewError("INTAKE_NOT_FOUND", "submission not found")

type FindParams struct {
	WorkspaceID uuid.UUID
	Status      Status
	Limit       int
	Offset      int
}

type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByID(ctx context.Context, id uuid.UUID) (*Submission, error)
	// GetByIDForUpdate locks the row for the remainder of the transaction so
	// concurrent reviewer transitions serialize at the status check.
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*Submission, error)
	GetByTokenID(ctx context.Context, tokenID uuid.UUID) (*Submission, error)
	Update(ctx context.Context, sub *Submission) error
	List(ctx context.Context, params *FindParams) ([]*Submission, error)
	CountByStatus(ctx context.Context, workspaceID uuid.UUID) (map[Status]int64, error)
}

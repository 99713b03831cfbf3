package response

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Response holds the current value for one (submission, question) pair.
// At most one row exists per pair; writes go through upsert semantics.
type Response struct {
	ID           uuid.UUID
	SubmissionID uuid.UUID
	QuestionID   string
	Value        string
	UpdatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ChangeLogEntry is the immutable audit record of one value transition.
// PreviousValue is nil for the first write. Entries are never updated or
// deleted, and identical-value writes produce no entry.
type ChangeLogEntry struct {
	ID            uuid.UUID
	SubmissionID  uuid.UUID
	QuestionID    string
	ChangedBy     string
	PreviousValue *string
	NewValue      string
	ChangedAt     time.Time
}

type Repository interface {
	ListBySubmission(ctx context.Context, submissionID uuid.UUID) ([]*Response, error)
	Create(ctx context.Context, resp *Response) error
	UpdateValue(ctx context.Context, id uuid.UUID, value, updatedBy string) error
	AppendChangeLog(ctx context.Context, entry *ChangeLogEntry) error
	ListChangeLog(ctx context.Context, submissionID uuid.UUID) ([]*ChangeLogEntry, error)
}

package events

import (
	"time"

	"github.com/google/uuid"
)

// Lifecycle events published after the owning transaction commits.

type SubmissionSubmitted struct {
	SubmissionID uuid.UUID
	WorkspaceID  uuid.UUID
	TrainingType string
	SubmittedAt  time.Time
}

type ReviewStarted struct {
	SubmissionID uuid.UUID
	WorkspaceID  uuid.UUID
	ReviewerID   uuid.UUID
}

type RevisionRequested struct {
	SubmissionID uuid.UUID
	WorkspaceID  uuid.UUID
	ReviewerID   uuid.UUID
	Notes        string
}

type SubmissionApproved struct {
	SubmissionID uuid.UUID
	WorkspaceID  uuid.UUID
	ReviewerID   uuid.UUID
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type IntakeAccessToken struct {
	ID               uuid.UUID
	WorkspaceID      uuid.UUID
	Secret           string
	TrainingType     string
	CreatedByID      uuid.UUID
	StakeholderName  *string
	StakeholderEmail *string
	IsActive         bool
	ExpiresAt        *time.Time
	CreatedAt        time.Time
}

type IntakeSubmission struct {
	ID            uuid.UUID
	TokenID       uuid.UUID
	WorkspaceID   uuid.UUID
	TrainingType  string
	Status        string
	SubmittedAt   *time.Time
	ReviewedAt    *time.Time
	ReviewedByID  *uuid.UUID
	RevisionNotes *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type IntakeResponse struct {
	ID           uuid.UUID
	SubmissionID uuid.UUID
	QuestionID   string
	Value        string
	UpdatedBy    string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type IntakeChangeLogEntry struct {
	ID            uuid.UUID
	SubmissionID  uuid.UUID
	QuestionID    string
	ChangedBy     string
	PreviousValue *string
	NewValue      string
	ChangedAt     time.Time
}

package persistence

import (
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/response"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/infrastructure/persistence/models"
)

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func toDomainAccessToken(row *models.IntakeAccessToken) *accesstoken.AccessToken {
	return &accesstoken.AccessToken{
		ID:               row.ID,
		WorkspaceID:      row.WorkspaceID,
		Secret:           row.Secret,
		TrainingType:     row.TrainingType,
		CreatedByID:      row.CreatedByID,
		StakeholderName:  derefString(row.StakeholderName),
		StakeholderEmail: derefString(row.StakeholderEmail),
		IsActive:         row.IsActive,
		ExpiresAt:        row.ExpiresAt,
		CreatedAt:        row.CreatedAt,
	}
}

func toDomainSubmission(row *models.IntakeSubmission) *submission.Submission {
	return &submission.Submission{
		ID:            row.ID,
		TokenID:       row.TokenID,
		WorkspaceID:   row.WorkspaceID,
		TrainingType:  row.TrainingType,
		Status:        submission.Status(row.Status),
		SubmittedAt:   row.SubmittedAt,
		ReviewedAt:    row.ReviewedAt,
		ReviewedByID:  row.ReviewedByID,
		RevisionNotes: derefString(row.RevisionNotes),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDomainResponse(row *models.IntakeResponse) *response.Response {
	return &response.Response{
		ID:           row.ID,
		SubmissionID: row.SubmissionID,
		QuestionID:   row.QuestionID,
		Value:        row.Value,
		UpdatedBy:    row.UpdatedBy,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}

func toDomainChangeLogEntry(row *models.IntakeChangeLogEntry) *response.ChangeLogEntry {
	return &response.ChangeLogEntry{
		ID:            row.ID,
		SubmissionID:  row.SubmissionID,
		QuestionID:    row.QuestionID,
		ChangedBy:     row.ChangedBy,
		PreviousValue: row.PreviousValue,
		NewValue:      row.NewValue,
		ChangedAt:     row.ChangedAt,
	}
}

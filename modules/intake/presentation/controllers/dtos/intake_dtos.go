package dtos

import (
	"time"

	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/services"
)

type ResponseEntry struct {
	QuestionID string `json:"questionId"`
	Value      any    `json:"value"`
}

type SaveResponsesRequest struct {
	Responses []ResponseEntry `json:"responses" validate:"required"`
	ChangedBy string          `json:"changedBy"`
}

func (r *SaveResponsesRequest) ToInputs() []services.ResponseInput {
	inputs := make([]services.ResponseInput, 0, len(r.Responses))
	for _, entry := range r.Responses {
		inputs = append(inputs, services.ResponseInput{
			QuestionID: entry.QuestionID,
			Value:      entry.Value,
		})
	}
	return inputs
}

type CreateTokenRequest struct {
	TrainingType     string     `json:"trainingType" validate:"required"`
	StakeholderName  string     `json:"stakeholderName"`
	StakeholderEmail string     `json:"stakeholderEmail" validate:"omitempty,email"`
	ExpiresAt        *time.Time `json:"expiresAt"`
}

type RequestRevisionRequest struct {
	RevisionNotes string `json:"revisionNotes" validate:"required"`
}

// TokenCreatedResponse carries the secret exactly once; it is not
// retrievable afterwards.
type TokenCreatedResponse struct {
	ID           string     `json:"id"`
	Secret       string     `json:"secret"`
	FormPath     string     `json:"formPath"`
	TrainingType string     `json:"trainingType"`
	SubmissionID string     `json:"submissionId"`
	ExpiresAt    *time.Time `json:"expiresAt,omitempty"`
}

type TokenView struct {
	ID              string     `json:"id"`
	TrainingType    string     `json:"trainingType"`
	StakeholderName string     `json:"stakeholderName,omitempty"`
	IsActive        bool       `json:"isActive"`
	ExpiresAt       *time.Time `json:"expiresAt,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
}

func NewTokenView(token *accesstoken.AccessToken) TokenView {
	return TokenView{
		ID:              token.ID.String(),
		TrainingType:    token.TrainingType,
		StakeholderName: token.StakeholderName,
		IsActive:        token.IsActive,
		ExpiresAt:       token.ExpiresAt,
		CreatedAt:       token.CreatedAt,
	}
}

type SubmissionView struct {
	ID            string     `json:"id"`
	TrainingType  string     `json:"trainingType"`
	Status        string     `json:"status"`
	SubmittedAt   *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt    *time.Time `json:"reviewedAt,omitempty"`
	RevisionNotes string     `json:"revisionNotes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func NewSubmissionView(sub *submission.Submission) SubmissionView {
	return SubmissionView{
		ID:            sub.ID.String(),
		TrainingType:  sub.TrainingType,
		Status:        string(sub.Status),
		SubmittedAt:   sub.SubmittedAt,
		ReviewedAt:    sub.ReviewedAt,
		RevisionNotes: sub.RevisionNotes,
		CreatedAt:     sub.CreatedAt,
		UpdatedAt:     sub.UpdatedAt,
	}
}

type ListSubmissionsResponse struct {
	Submissions []SubmissionView `json:"submissions"`
	Counts      map[string]int64 `json:"counts"`
}

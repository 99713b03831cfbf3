package services

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/response"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/domain/events"
	workspace "github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/composables"
	"github.com/coursecraft/platform/pkg/eventbus"
	"github.com/coursecraft/platform/pkg/metrics"
	"github.com/coursecraft/platform/pkg/serrors"
)

// ReviewService is the reviewer side of the workflow: inspecting
// submissions and driving the status transitions that the respondent
// cannot perform.
type ReviewService struct {
	submissions submission.Repository
	responses   response.Repository
	tokens      accesstoken.Repository
	catalog     catalog.Resolver
	authorizer  workspace.Authorizer
	publisher   eventbus.EventBus
}

func NewReviewService(
	submissions submission.Repository,
	responses response.Repository,
	tokens accesstoken.Repository,
	resolver catalog.Resolver,
	authorizer workspace.Authorizer,
	publisher eventbus.EventBus,
) *ReviewService {
	return &ReviewService{
		submissions: submissions,
		responses:   responses,
		tokens:      tokens,
		catalog:     resolver,
		authorizer:  authorizer,
		publisher:   publisher,
	}
}

// AnsweredQuestion merges a catalog question with its current answer for
// the reviewer detail view. Internal notes are included here, unlike the
// respondent form.
type AnsweredQuestion struct {
	QuestionID   string `json:"questionId"`
	Section      string `json:"section"`
	Text         string `json:"text"`
	InternalNote string `json:"internalNote,omitempty"`
	Required     bool   `json:"required"`
	Answer       string `json:"answer"`
	Answered     bool   `json:"answered"`
}

// ChangeLogView annotates a raw change-log entry with the question text so
// the audit trail reads without a catalog lookup on the client.
type ChangeLogView struct {
	QuestionID    string    `json:"questionId"`
	QuestionText  string    `json:"questionText"`
	ChangedBy     string    `json:"changedBy"`
	PreviousValue *string   `json:"previousValue"`
	NewValue      string    `json:"newValue"`
	ChangedAt     time.Time `json:"changedAt"`
}

type SubmissionDetail struct {
	Submission      *submission.Submission `json:"submission"`
	StakeholderName string                 `json:"stakeholderName"`
	TokenActive     bool                   `json:"tokenActive"`
	Questions       []AnsweredQuestion     `json:"questions"`
	ChangeLog       []ChangeLogView        `json:"changeLog"`
}

// Detail returns the full reviewer view of one submission.
func (s *ReviewService) Detail(ctx context.Context, actorID, submissionID uuid.UUID) (*SubmissionDetail, error) {
	sub, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	allowed := append([]workspace.Role{workspace.RoleViewer}, workspace.ReviewerRoles...)
	if _, err := s.authorizer.Authorize(ctx, actorID, sub.WorkspaceID, allowed...); err != nil {
		return nil, err
	}

	token, err := s.tokens.GetByID(ctx, sub.TokenID)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.QuestionsFor(sub.TrainingType)
	if err != nil {
		return nil, err
	}
	answers, err := s.responses.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}
	log, err := s.responses.ListChangeLog(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	byQuestion := make(map[string]string, len(answers))
	for _, resp := range answers {
		byQuestion[resp.QuestionID] = resp.Value
	}
	textByID := make(map[string]string, len(questions))

	detail := &SubmissionDetail{
		Submission:      sub,
		StakeholderName: token.StakeholderName,
		TokenActive:     token.IsActive,
		Questions:       make([]AnsweredQuestion, 0, len(questions)),
		ChangeLog:       make([]ChangeLogView, 0, len(log)),
	}
	for _, q := range questions {
		textByID[q.ID] = q.Text
		answer, answered := byQuestion[q.ID]
		detail.Questions = append(detail.Questions, AnsweredQuestion{
			QuestionID:   q.ID,
			Section:      q.Section,
			Text:         q.Text,
			InternalNote: q.InternalNote,
			Required:     catalog.IsRequired(q, byQuestion),
			Answer:       answer,
			Answered:     answered,
		})
	}
	for _, entry := range log {
		detail.ChangeLog = append(detail.ChangeLog, ChangeLogView{
			QuestionID:    entry.QuestionID,
			QuestionText:  textByID[entry.QuestionID],
			ChangedBy:     entry.ChangedBy,
			PreviousValue: entry.PreviousValue,
			NewValue:      entry.NewValue,
			ChangedAt:     entry.ChangedAt,
		})
	}
	return detail, nil
}

// StartReview marks a submitted questionnaire as being worked on. Optional
// in the lifecycle: a reviewer may approve or request revision straight
// from SUBMITTED.
func (s *ReviewService) StartReview(ctx context.Context, actorID, submissionID uuid.UUID) (*submission.Submission, error) {
	sub, err := s.transition(ctx, actorID, submissionID, submission.StatusUnderReview, func(sub *submission.Submission, now time.Time) {
		sub.ReviewedByID = &actorID
		sub.ReviewedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(&events.ReviewStarted{
		SubmissionID: sub.ID,
		WorkspaceID:  sub.WorkspaceID,
		ReviewerID:   actorID,
	})
	return sub, nil
}

// RequestRevision reopens the submission for the stakeholder. The token is
// reactivated in the same transaction so the original link works again;
// all existing responses stay in place.
func (s *ReviewService) RequestRevision(ctx context.Context, actorID, submissionID uuid.UUID, notes string) (*submission.Submission, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, serrors.NewFieldRequiredError("notes")
	}
	sub, err := s.transition(ctx, actorID, submissionID, submission.StatusRevisionRequested, func(sub *submission.Submission, now time.Time) {
		sub.ReviewedByID = &actorID
		sub.ReviewedAt = &now
		sub.RevisionNotes = notes
	})
	if err != nil {
		return nil, err
	}
	s.publish(&events.RevisionRequested{
		SubmissionID: sub.ID,
		WorkspaceID:  sub.WorkspaceID,
		ReviewerID:   actorID,
		Notes:        notes,
	})
	return sub, nil
}

// Approve is terminal. The token stays inactive and the submission becomes
// read-only for everyone.
func (s *ReviewService) Approve(ctx context.Context, actorID, submissionID uuid.UUID) (*submission.Submission, error) {
	sub, err := s.transition(ctx, actorID, submissionID, submission.StatusApproved, func(sub *submission.Submission, now time.Time) {
		sub.ReviewedByID = &actorID
		sub.ReviewedAt = &now
	})
	if err != nil {
		return nil, err
	}
	s.publish(&events.SubmissionApproved{
		SubmissionID: sub.ID,
		WorkspaceID:  sub.WorkspaceID,
		ReviewerID:   actorID,
	})
	return sub, nil
}

// transition applies one status change under a row lock. The status is
// re-read inside the transaction so two reviewers racing the same
// submission serialize, and the loser gets a state conflict.
func (s *ReviewService) transition(
	ctx context.Context,
	actorID, submissionID uuid.UUID,
	to submission.Status,
	apply func(sub *submission.Submission, now time.Time),
) (*submission.Submission, error) {
	current, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, current.WorkspaceID, workspace.ReviewerRoles...); err != nil {
		return nil, err
	}

	result, err := composables.InTxResult(ctx, func(txCtx context.Context) (*submission.Submission, error) {
		sub, err := s.submissions.GetByIDForUpdate(txCtx, submissionID)
		if err != nil {
			return nil, err
		}
		if err := submission.ValidateTransition(sub.Status, to); err != nil {
			return nil, err
		}

		now := time.Now()
		sub.Status = to
		apply(sub, now)
		if err := s.submissions.Update(txCtx, sub); err != nil {
			return nil, err
		}
		if to == submission.StatusRevisionRequested {
			if err := s.tokens.SetActive(txCtx, sub.TokenID, true); err != nil {
				return nil, err
			}
		}
		return sub, nil
	})
	if err != nil {
		return nil, err
	}
	metrics.SubmissionTransitions.WithLabelValues(string(to)).Inc()
	return result, nil
}

func (s *ReviewService) publish(event any) {
	if s.publisher != nil {
		s.publisher.Publish(event)
	}
}

// ListSubmissions returns the workspace's submissions, optionally filtered
// by status.
func (s *ReviewService) ListSubmissions(ctx context.Context, actorID uuid.UUID, params *submission.FindParams) ([]*submission.Submission, error) {
	allowed := append([]workspace.Role{workspace.RoleViewer}, workspace.ReviewerRoles...)
	if _, err := s.authorizer.Authorize(ctx, actorID, params.WorkspaceID, allowed...); err != nil {
		return nil, err
	}
	return s.submissions.List(ctx, params)
}

type WorkspaceSummary struct {
	ByStatus     map[submission.Status]int64 `json:"byStatus"`
	TotalTokens  int                         `json:"totalTokens"`
	ActiveTokens int                         `json:"activeTokens"`
}

// Summary gives reviewers the workspace-level picture: how many
// submissions sit in each status and how many links are outstanding.
func (s *ReviewService) Summary(ctx context.Context, actorID, workspaceID uuid.UUID) (*WorkspaceSummary, error) {
	allowed := append([]workspace.Role{workspace.RoleViewer}, workspace.ReviewerRoles...)
	if _, err := s.authorizer.Authorize(ctx, actorID, workspaceID, allowed...); err != nil {
		return nil, err
	}

	counts, err := s.submissions.CountByStatus(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	tokens, err := s.tokens.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, err
	}

	summary := &WorkspaceSummary{
		ByStatus:    counts,
		TotalTokens: len(tokens),
	}
	now := time.Now()
	for _, token := range tokens {
		if token.Usable(now) == nil {
			summary.ActiveTokens++
		}
	}
	return summary, nil
}

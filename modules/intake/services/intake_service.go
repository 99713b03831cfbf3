package services

import (
	"context"
	"strings"
	"time"

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

var errNotWritable = serrors.NewError("INTAKE_FORBIDDEN", "submission can no longer be edited")

// IntakeServiceConfig collects the collaborators of the respondent flow.
type IntakeServiceConfig struct {
	Tokens      *TokenService
	TokenRepo   accesstoken.Repository
	Submissions submission.Repository
	Responses   response.Repository
	Catalog     catalog.Resolver
	Workspaces  workspace.Repository
	Publisher   eventbus.EventBus
}

// IntakeService drives the respondent-facing operations: fetching the form,
// autosaving responses and submitting. Every operation starts with a fresh
// token validation.
type IntakeService struct {
	tokens      *TokenService
	tokenRepo   accesstoken.Repository
	submissions submission.Repository
	responses   response.Repository
	catalog     catalog.Resolver
	workspaces  workspace.Repository
	publisher   eventbus.EventBus
}

func NewIntakeService(cfg IntakeServiceConfig) *IntakeService {
	return &IntakeService{
		tokens:      cfg.Tokens,
		tokenRepo:   cfg.TokenRepo,
		submissions: cfg.Submissions,
		responses:   cfg.Responses,
		catalog:     cfg.Catalog,
		workspaces:  cfg.Workspaces,
		publisher:   cfg.Publisher,
	}
}

// RespondentQuestion is the catalog view sent to the stakeholder: internal
// annotations are stripped, the conditional rule stays so the client can
// show and hide dependent fields.
type RespondentQuestion struct {
	ID          string               `json:"id"`
	Section     string               `json:"section"`
	Text        string               `json:"text"`
	FieldType   catalog.FieldType    `json:"fieldType"`
	Required    bool                 `json:"required"`
	Options     []string             `json:"options,omitempty"`
	Order       int                  `json:"order"`
	Conditional *catalog.Conditional `json:"conditional,omitempty"`
}

type FormView struct {
	WorkspaceName     string               `json:"workspaceName"`
	TrainingType      string               `json:"trainingType"`
	TrainingTypeLabel string               `json:"trainingTypeLabel"`
	Status            submission.Status    `json:"status"`
	RevisionNotes     string               `json:"revisionNotes,omitempty"`
	Questions         []RespondentQuestion `json:"questions"`
	Answers           map[string]string    `json:"answers"`
}

// FetchForm assembles everything the respondent UI needs in one call.
func (s *IntakeService) FetchForm(ctx context.Context, secret string) (*FormView, error) {
	token, sub, err := s.tokens.Validate(ctx, secret)
	if err != nil {
		return nil, err
	}

	ws, err := s.workspaces.GetByID(ctx, token.WorkspaceID)
	if err != nil {
		return nil, err
	}
	questions, err := s.catalog.QuestionsFor(sub.TrainingType)
	if err != nil {
		return nil, err
	}
	existing, err := s.responses.ListBySubmission(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	view := &FormView{
		WorkspaceName:     ws.Name,
		TrainingType:      sub.TrainingType,
		TrainingTypeLabel: s.catalog.TrainingTypeLabel(sub.TrainingType),
		Status:            sub.Status,
		RevisionNotes:     sub.RevisionNotes,
		Questions:         make([]RespondentQuestion, 0, len(questions)),
		Answers:           make(map[string]string, len(existing)),
	}
	for _, q := range questions {
		view.Questions = append(view.Questions, RespondentQuestion{
			ID:          q.ID,
			Section:     q.Section,
			Text:        q.Text,
			FieldType:   q.FieldType,
			Required:    q.Required,
			Options:     q.Options,
			Order:       q.Order,
			Conditional: q.Conditional,
		})
	}
	for _, resp := range existing {
		view.Answers[resp.QuestionID] = resp.Value
	}
	return view, nil
}

// ResponseInput is one inbound answer. Value stays untyped so malformed
// entries can be skipped instead of failing the batch.
type ResponseInput struct {
	QuestionID string
	Value      any
}

type SaveResult struct {
	Saved   int `json:"saved"`
	Changed int `json:"changed"`
}

// SaveResponses applies a batch of answers with upsert-with-diff semantics:
// the current rows are loaded once, the diff is computed against that
// snapshot, and all writes land in a single transaction. Unchanged values
// produce no write and no change-log entry.
func (s *IntakeService) SaveResponses(ctx context.Context, secret string, entries []ResponseInput, changedBy string) (*SaveResult, error) {
	token, current, err := s.tokens.Validate(ctx, secret)
	if err != nil {
		return nil, err
	}

	changedBy = strings.TrimSpace(changedBy)
	if changedBy == "" {
		changedBy = token.StakeholderName
	}
	if changedBy == "" {
		return nil, serrors.NewFieldRequiredError("changedBy")
	}

	result := &SaveResult{}
	err = composables.InTx(ctx, func(txCtx context.Context) error {
		// Re-read under lock: a reviewer approving concurrently must not race
		// a late autosave.
		sub, err := s.submissions.GetByIDForUpdate(txCtx, current.ID)
		if err != nil {
			return err
		}
		if !sub.Writable() {
			return errNotWritable
		}

		existing, err := s.responses.ListBySubmission(txCtx, sub.ID)
		if err != nil {
			return err
		}
		byQuestion := make(map[string]*response.Response, len(existing))
		for _, resp := range existing {
			byQuestion[resp.QuestionID] = resp
		}

		for _, entry := range entries {
			value, ok := entry.Value.(string)
			if entry.QuestionID == "" || !ok {
				continue
			}
			result.Saved++

			current, exists := byQuestion[entry.QuestionID]
			if exists && current.Value == value {
				continue
			}

			if exists {
				if err := s.responses.UpdateValue(txCtx, current.ID, value, changedBy); err != nil {
					return err
				}
				prev := current.Value
				if err := s.responses.AppendChangeLog(txCtx, &response.ChangeLogEntry{
					SubmissionID:  sub.ID,
					QuestionID:    entry.QuestionID,
					ChangedBy:     changedBy,
					PreviousValue: &prev,
					NewValue:      value,
				}); err != nil {
					return err
				}
			} else {
				created := &response.Response{
					SubmissionID: sub.ID,
					QuestionID:   entry.QuestionID,
					Value:        value,
					UpdatedBy:    changedBy,
				}
				if err := s.responses.Create(txCtx, created); err != nil {
					return err
				}
				byQuestion[entry.QuestionID] = created
				if err := s.responses.AppendChangeLog(txCtx, &response.ChangeLogEntry{
					SubmissionID: sub.ID,
					QuestionID:   entry.QuestionID,
					ChangedBy:    changedBy,
					NewValue:     value,
				}); err != nil {
					return err
				}
			}
			result.Changed++
		}

		// Capture the stakeholder identity on first use.
		if token.StakeholderName == "" {
			return s.tokenRepo.SetStakeholder(txCtx, token.ID, changedBy, "")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ResponsesChanged.Add(float64(result.Changed))
	return result, nil
}

type SubmitResult struct {
	Success      bool              `json:"success"`
	SubmissionID string            `json:"submissionId"`
	Status       submission.Status `json:"status"`
	SubmittedAt  time.Time         `json:"submittedAt"`
}

// Submit finalizes the questionnaire. Completeness is checked against the
// catalog with conditional requirements evaluated on a snapshot of all
// current answers; on success the status flips to SUBMITTED and the link
// stops working, in one transaction.
func (s *IntakeService) Submit(ctx context.Context, secret string) (*SubmitResult, error) {
	token, current, err := s.tokens.Validate(ctx, secret)
	if err != nil {
		return nil, err
	}

	questions, err := s.catalog.QuestionsFor(token.TrainingType)
	if err != nil {
		return nil, err
	}

	var submitted *events.SubmissionSubmitted
	result, err := composables.InTxResult(ctx, func(txCtx context.Context) (*SubmitResult, error) {
		sub, err := s.submissions.GetByIDForUpdate(txCtx, current.ID)
		if err != nil {
			return nil, err
		}
		if err := submission.ValidateTransition(sub.Status, submission.StatusSubmitted); err != nil {
			return nil, err
		}

		existing, err := s.responses.ListBySubmission(txCtx, sub.ID)
		if err != nil {
			return nil, err
		}
		answers := make(map[string]string, len(existing))
		for _, resp := range existing {
			answers[resp.QuestionID] = resp.Value
		}

		var missing []submission.MissingQuestion
		for _, q := range questions {
			if !catalog.IsRequired(q, answers) {
				continue
			}
			if strings.TrimSpace(answers[q.ID]) == "" {
				missing = append(missing, submission.MissingQuestion{
					QuestionID:   q.ID,
					QuestionText: q.Text,
					Section:      q.Section,
				})
			}
		}
		if len(missing) > 0 {
			return nil, &submission.MissingResponsesError{Missing: missing}
		}

		now := time.Now()
		sub.Status = submission.StatusSubmitted
		sub.SubmittedAt = &now
		if err := s.submissions.Update(txCtx, sub); err != nil {
			return nil, err
		}
		if err := s.tokenRepo.SetActive(txCtx, token.ID, false); err != nil {
			return nil, err
		}

		submitted = &events.SubmissionSubmitted{
			SubmissionID: sub.ID,
			WorkspaceID:  sub.WorkspaceID,
			TrainingType: sub.TrainingType,
			SubmittedAt:  now,
		}
		return &SubmitResult{
			Success:      true,
			SubmissionID: sub.ID.String(),
			Status:       sub.Status,
			SubmittedAt:  now,
		}, nil
	})
	if err != nil {
		return nil, err
	}

	metrics.SubmissionTransitions.WithLabelValues(string(submission.StatusSubmitted)).Inc()
	if s.publisher != nil {
		s.publisher.Publish(submitted)
	}
	return result, nil
}

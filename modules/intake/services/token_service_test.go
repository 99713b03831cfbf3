package services_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/coursecraft/platform/modules/intake/domain/catalog"
	"github.com/coursecraft/platform/modules/intake/domain/entities/accesstoken"
	"github.com/coursecraft/platform/modules/intake/domain/entities/submission"
	"github.com/coursecraft/platform/modules/intake/services"
	workspace "github.com/coursecraft/platform/modules/workspace/domain"
	"github.com/coursecraft/platform/pkg/serrors"
)

func TestTokenService_CreateMintsDraftSubmission(t *testing.T) {
	f := setup(t)

	token, sub, err := f.tokenSvc.Create(f.ctx, f.reviewerID, services.CreateTokenParams{
		WorkspaceID:     f.workspaceID,
		TrainingType:    "PERFORMANCE_PROBLEM",
		StakeholderName: "Dana Ruiz",
	})
	require.NoError(t, err)

	require.Len(t, token.Secret, 64)
	require.True(t, token.IsActive)
	require.Equal(t, f.reviewerID, token.CreatedByID)

	require.Equal(t, submission.StatusDraft, sub.Status)
	require.Equal(t, token.ID, sub.TokenID)
	require.Equal(t, "PERFORMANCE_PROBLEM", sub.TrainingType)
	require.Equal(t, f.workspaceID, sub.WorkspaceID)
}

func TestTokenService_CreateRejectsUnknownTrainingType(t *testing.T) {
	f := setup(t)

	_, _, err := f.tokenSvc.Create(f.ctx, f.reviewerID, services.CreateTokenParams{
		WorkspaceID:  f.workspaceID,
		TrainingType: "TEAM_BUILDING",
	})
	require.ErrorIs(t, err, catalog.ErrUnknownTrainingType)
}

func TestTokenService_CreateRequiresReviewerRole(t *testing.T) {
	f := setup(t)

	_, _, err := f.tokenSvc.Create(f.ctx, f.viewerID, services.CreateTokenParams{
		WorkspaceID:  f.workspaceID,
		TrainingType: "PERFORMANCE_PROBLEM",
	})
	require.ErrorIs(t, err, workspace.ErrDenied)
}

func TestTokenService_Validate(t *testing.T) {
	f := setup(t)
	token, sub := f.mintToken(t, services.CreateTokenParams{})

	t.Run("happy path", func(t *testing.T) {
		gotToken, gotSub, err := f.tokenSvc.Validate(f.ctx, token.Secret)
		require.NoError(t, err)
		require.Equal(t, token.ID, gotToken.ID)
		require.Equal(t, sub.ID, gotSub.ID)
	})

	t.Run("blank secret", func(t *testing.T) {
		_, _, err := f.tokenSvc.Validate(f.ctx, "   ")
		var baseErr *serrors.BaseError
		require.ErrorAs(t, err, &baseErr)
		require.Equal(t, "INTAKE_VALIDATION", baseErr.Code)
	})

	t.Run("unknown secret", func(t *testing.T) {
		_, _, err := f.tokenSvc.Validate(f.ctx, "deadbeef")
		require.ErrorIs(t, err, accesstoken.ErrNotFound)
	})

	t.Run("expired", func(t *testing.T) {
		expired, _ := f.mintToken(t, services.CreateTokenParams{})
		past := time.Now().Add(-time.Hour)
		f.tokens.items[expired.ID].ExpiresAt = &past

		_, _, err := f.tokenSvc.Validate(f.ctx, expired.Secret)
		require.ErrorIs(t, err, accesstoken.ErrExpired)
	})
}

func TestTokenService_Deactivate(t *testing.T) {
	f := setup(t)
	token, _ := f.mintToken(t, services.CreateTokenParams{})

	require.NoError(t, f.tokenSvc.Deactivate(f.ctx, f.reviewerID, token.ID))

	_, _, err := f.tokenSvc.Validate(f.ctx, token.Secret)
	require.ErrorIs(t, err, accesstoken.ErrInactive)
}

func TestTokenService_DeactivateRequiresReviewerRole(t *testing.T) {
	f := setup(t)
	token, _ := f.mintToken(t, services.CreateTokenParams{})

	err := f.tokenSvc.Deactivate(f.ctx, f.viewerID, token.ID)
	require.ErrorIs(t, err, workspace.ErrDenied)
}

func TestTokenService_ListByWorkspace(t *testing.T) {
	f := setup(t)
	f.mintToken(t, services.CreateTokenParams{})
	f.mintToken(t, services.CreateTokenParams{TrainingType: "COMPLIANCE_REFRESH"})

	tokens, err := f.tokenSvc.ListByWorkspace(f.ctx, f.viewerID, f.workspaceID)
	require.NoError(t, err)
	require.Len(t, tokens, 2)
}

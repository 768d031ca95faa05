package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genpire-backend/internal/database"
	"genpire-backend/internal/logger"
	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
	"genpire-backend/internal/supabase"
)

type viewFixture struct {
	service   *services.ViewService
	revisions *fakeRevisionStore
	approvals *fakeApprovalStore
	generator *fakeGenerator
	storage   *fakeStorage
}

func newViewFixture() *viewFixture {
	revisions := newFakeRevisionStore()
	approvals := newFakeApprovalStore()
	generator := &fakeGenerator{image: []byte("png-data")}
	storage := newFakeStorage()
	service := services.NewViewService(
		revisions, approvals, generator, &fakeAnalyzer{}, storage,
		supabase.NewRealtimeClient(nil), logger.Nop(),
	)
	return &viewFixture{
		service:   service,
		revisions: revisions,
		approvals: approvals,
		generator: generator,
		storage:   storage,
	}
}

func TestGenerateFrontView_FreshOpensPendingApproval(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  productID,
		UserID:     userID,
		UserPrompt: "a red hoodie with a dragon print",
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, result.ApprovalID)
	assert.NotEmpty(t, result.FrontViewURL)

	approval, err := f.approvals.GetApproval(context.Background(), result.ApprovalID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalPending, approval.Status)
	assert.False(t, approval.IsEdit)

	// No revision exists until the front view is approved.
	assert.Equal(t, 0, f.revisions.revisionCount(productID, models.ViewFront))
	assert.Equal(t, 1, f.generator.generateCalls)
}

func TestGenerateFrontView_RetriesTransientFailures(t *testing.T) {
	f := newViewFixture()
	f.generator.failures = 2

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  uuid.New(),
		UserID:     uuid.New(),
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, result.FrontViewURL)
	assert.Equal(t, 3, f.generator.generateCalls)
}

func TestGenerateFrontView_RequiresPrompt(t *testing.T) {
	f := newViewFixture()

	_, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID: uuid.New(),
		UserID:    uuid.New(),
	})
	require.Error(t, err)
	assert.Equal(t, 0, f.generator.generateCalls)
}

func TestHandleFrontViewDecision_RejectDeletesStagedImage(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  productID,
		UserID:     userID,
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)

	err = f.service.HandleFrontViewDecision(context.Background(), services.DecisionInput{
		ApprovalID: result.ApprovalID,
		UserID:     userID,
		Action:     "reject",
	})
	require.NoError(t, err)

	approval, err := f.approvals.GetApproval(context.Background(), result.ApprovalID)
	require.NoError(t, err)
	assert.Equal(t, models.ApprovalRejected, approval.Status)
	assert.Len(t, f.storage.deleted, 1)
	assert.Equal(t, 0, f.revisions.revisionCount(productID, models.ViewFront))
}

func TestHandleFrontViewDecision_ResolvedGateIsOneShot(t *testing.T) {
	f := newViewFixture()
	userID := uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  uuid.New(),
		UserID:     userID,
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)

	decide := func(action string) error {
		return f.service.HandleFrontViewDecision(context.Background(), services.DecisionInput{
			ApprovalID: result.ApprovalID,
			UserID:     userID,
			Action:     action,
		})
	}
	require.NoError(t, decide("approve"))
	err = decide("reject")
	assert.ErrorIs(t, err, database.ErrApprovalResolved)
}

func TestHandleFrontViewDecision_ApproveEditRecordsRevision(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:            productID,
		UserID:               userID,
		UserPrompt:           "make the logo bigger",
		PreviousFrontViewURL: "https://storage.test/previous-front.png",
		IsEdit:               true,
	})
	require.NoError(t, err)

	err = f.service.HandleFrontViewDecision(context.Background(), services.DecisionInput{
		ApprovalID: result.ApprovalID,
		UserID:     userID,
		Action:     "approve",
	})
	require.NoError(t, err)

	active := f.revisions.activeRevision(productID, models.ViewFront)
	require.NotNil(t, active)
	assert.Equal(t, result.ApprovalID, active.ID)
	assert.Equal(t, models.EditTypeEdit, active.EditType)
	assert.Equal(t, result.FrontViewURL, active.ImageURL)
	assert.Equal(t, result.FrontViewURL, f.revisions.productViewURL(productID, models.ViewFront))
}

func TestGenerateRemainingViews_RequiresApprovedGate(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  productID,
		UserID:     userID,
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)

	_, err = f.service.GenerateRemainingViews(context.Background(), services.FanOutInput{
		ProductID:  productID,
		UserID:     userID,
		ApprovalID: result.ApprovalID,
	})
	assert.ErrorIs(t, err, services.ErrNotApproved)
}

func TestGenerateRemainingViews_GeneratesDependentViews(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  productID,
		UserID:     userID,
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)
	require.NoError(t, f.service.HandleFrontViewDecision(context.Background(), services.DecisionInput{
		ApprovalID: result.ApprovalID,
		UserID:     userID,
		Action:     "approve",
	}))

	fanOut, err := f.service.GenerateRemainingViews(context.Background(), services.FanOutInput{
		ProductID:  productID,
		UserID:     userID,
		ApprovalID: result.ApprovalID,
	})
	require.NoError(t, err)
	require.Len(t, fanOut.GeneratedViews, 3)

	for _, view := range []models.ViewType{models.ViewBack, models.ViewSide, models.ViewBottom} {
		active := f.revisions.activeRevision(productID, view)
		require.NotNil(t, active, "no active revision for %s", view)
		assert.Equal(t, 1, active.RevisionNumber)
		assert.Equal(t, models.EditTypeInitial, active.EditType)
		assert.Equal(t, fanOut.GeneratedViews[view], active.ImageURL)
		assert.Equal(t, active.ImageURL, f.revisions.productViewURL(productID, view))
	}
}

func TestGenerateRemainingViews_PartialFailureReportsCompleted(t *testing.T) {
	f := newViewFixture()
	productID, userID := uuid.New(), uuid.New()

	result, err := f.service.GenerateFrontView(context.Background(), services.GenerateFrontViewInput{
		ProductID:  productID,
		UserID:     userID,
		UserPrompt: "a hoodie",
	})
	require.NoError(t, err)
	require.NoError(t, f.service.HandleFrontViewDecision(context.Background(), services.DecisionInput{
		ApprovalID: result.ApprovalID,
		UserID:     userID,
		Action:     "approve",
	}))

	// The front view took one generator call. In the fan-out the back view
	// succeeds on call 2, then every call fails, so the side view exhausts
	// its retries.
	f.generator.failFromCall = 3

	fanOut, err := f.service.GenerateRemainingViews(context.Background(), services.FanOutInput{
		ProductID:  productID,
		UserID:     userID,
		ApprovalID: result.ApprovalID,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "side view generation failed")

	require.NotNil(t, fanOut)
	assert.Len(t, fanOut.GeneratedViews, 1)
	assert.Contains(t, fanOut.GeneratedViews, models.ViewBack)

	// The completed back view is persisted; the failed views are not.
	assert.NotNil(t, f.revisions.activeRevision(productID, models.ViewBack))
	assert.Nil(t, f.revisions.activeRevision(productID, models.ViewSide))
	assert.Nil(t, f.revisions.activeRevision(productID, models.ViewBottom))
}

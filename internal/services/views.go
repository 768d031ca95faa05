package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"genpire-backend/internal/logger"
	"genpire-backend/internal/models"
	"genpire-backend/internal/retry"
	"genpire-backend/internal/supabase"
)

// ViewService runs the progressive multi-view workflow: generate a front
// view, gate it behind a human decision, and only after approval fan out to
// the dependent views.
//
// Per generation attempt the states are
// GENERATING_FRONT -> AWAITING_DECISION -> {APPROVED | REJECTED}; terminal
// states never transition back. A new attempt creates a new approval.
type ViewService struct {
	revisions RevisionStore
	approvals ApprovalStore
	generator ImageGenerator
	analyzer  VisionAnalyzer
	storage   ObjectStorage
	realtime  *supabase.RealtimeClient
	log       *logger.Logger

	genPolicy retry.Policy
}

func NewViewService(
	revisions RevisionStore,
	approvals ApprovalStore,
	generator ImageGenerator,
	analyzer VisionAnalyzer,
	storage ObjectStorage,
	realtime *supabase.RealtimeClient,
	log *logger.Logger,
) *ViewService {
	return &ViewService{
		revisions: revisions,
		approvals: approvals,
		generator: generator,
		analyzer:  analyzer,
		storage:   storage,
		realtime:  realtime,
		log:       log.With("service", "views"),
		genPolicy: retry.Policy{
			MaxAttempts: 3,
			Backoff:     retry.LinearBackoff(time.Second),
		},
	}
}

type GenerateFrontViewInput struct {
	ProductID            uuid.UUID
	UserID               uuid.UUID
	UserPrompt           string
	PreviousFrontViewURL string
	IsEdit               bool
}

type GenerateFrontViewResult struct {
	FrontViewURL string
	ApprovalID   uuid.UUID
}

// GenerateFrontView produces a single front-view image and opens the
// decision gate. The edit path first analyzes the reference image into a
// typed ProductAnalysis so the edit instruction can spell out which
// features must not change; without that inventory, general-purpose image
// editors drift into generating an unrelated product.
func (s *ViewService) GenerateFrontView(ctx context.Context, input GenerateFrontViewInput) (*GenerateFrontViewResult, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if input.UserPrompt == "" {
		return nil, fmt.Errorf("a prompt is required")
	}

	var imageData []byte
	if input.IsEdit && input.PreviousFrontViewURL != "" {
		analysis, err := s.analyzer.AnalyzeProductImage(ctx, input.PreviousFrontViewURL)
		if err != nil {
			return nil, fmt.Errorf("reference analysis failed: %w", err)
		}

		reference, err := s.storage.FetchURL(input.PreviousFrontViewURL)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reference image: %w", err)
		}

		prompt := editFrontPrompt(analysis, input.UserPrompt)
		err = s.genPolicy.Do(ctx, func(ctx context.Context) error {
			var genErr error
			imageData, genErr = s.generator.EditImage(ctx, reference, "image/png", prompt)
			return genErr
		})
		if err != nil {
			return nil, fmt.Errorf("front view edit failed: %w", err)
		}
	} else {
		prompt := freshFrontPrompt(input.UserPrompt)
		err := s.genPolicy.Do(ctx, func(ctx context.Context) error {
			var genErr error
			imageData, genErr = s.generator.GenerateImage(ctx, prompt)
			return genErr
		})
		if err != nil {
			return nil, fmt.Errorf("front view generation failed: %w", err)
		}
	}

	approvalID := uuid.New()
	filename := fmt.Sprintf("front_pending_%s.png", approvalID.String())
	storagePath, imageURL, err := s.storage.UploadProductImage(input.UserID, input.ProductID, filename, imageData, "image/png")
	if err != nil {
		return nil, fmt.Errorf("failed to store front view: %w", err)
	}

	approval := &models.FrontViewApproval{
		ID:          approvalID,
		ProductID:   input.ProductID,
		UserID:      input.UserID,
		ImageURL:    imageURL,
		StoragePath: storagePath,
		Prompt:      input.UserPrompt,
		IsEdit:      input.IsEdit,
	}
	if err := s.approvals.CreateApproval(ctx, approval); err != nil {
		return nil, fmt.Errorf("failed to create approval: %w", err)
	}

	s.log.Info("front view awaiting decision",
		"product_id", input.ProductID, "approval_id", approval.ID, "is_edit", input.IsEdit)
	s.realtime.PublishProductEvent(input.ProductID, "front_view_ready",
		supabase.FrontViewReadyPayload(input.ProductID, approval.ID, imageURL))

	return &GenerateFrontViewResult{
		FrontViewURL: imageURL,
		ApprovalID:   approval.ID,
	}, nil
}

type DecisionInput struct {
	ApprovalID uuid.UUID
	UserID     uuid.UUID
	Action     string // "approve" or "reject"
}

// HandleFrontViewDecision resolves the gate. Approving an edit-path
// approval records the new front revision, reusing the approval id as the
// revision id so callers can reference it directly. Rejecting discards the
// staged image (best-effort) and never touches revision history.
func (s *ViewService) HandleFrontViewDecision(ctx context.Context, input DecisionInput) error {
	if input.UserID == uuid.Nil {
		return ErrUnauthenticated
	}

	var status string
	switch input.Action {
	case "approve":
		status = models.ApprovalApproved
	case "reject":
		status = models.ApprovalRejected
	default:
		return fmt.Errorf("action must be \"approve\" or \"reject\", got %q", input.Action)
	}

	approval, err := s.approvals.ResolveApproval(ctx, input.ApprovalID, status)
	if err != nil {
		return err
	}

	if status == models.ApprovalRejected {
		if approval.StoragePath != "" {
			if err := s.storage.DeleteFile(approval.StoragePath); err != nil {
				s.log.Warn("failed to delete rejected front view",
					"approval_id", approval.ID, "error", err)
			}
		}
		return nil
	}

	if approval.IsEdit {
		rev := &models.ProductImageRevision{
			ID:        approval.ID,
			ProductID: approval.ProductID,
			ViewType:  models.ViewFront,
			ImageURL:  approval.ImageURL,
			EditType:  models.EditTypeEdit,
			IsActive:  true,
			Metadata: models.RevisionMetadata{
				Source:  "front_view_edit",
				BatchID: approval.ID.String(),
			},
		}
		rev.EditPrompt = nullString(approval.Prompt)
		if _, err := s.revisions.InsertRevision(ctx, rev); err != nil {
			return fmt.Errorf("failed to record approved revision: %w", err)
		}
		if err := s.revisions.UpdateProductViewURL(ctx, approval.ProductID, models.ViewFront, approval.ImageURL); err != nil {
			return fmt.Errorf("failed to update product front image: %w", err)
		}
	}

	s.log.Info("front view decision", "approval_id", approval.ID, "action", input.Action)
	return nil
}

// fanOutViews are generated in this order once the front view is approved.
var fanOutViews = []models.ViewType{models.ViewBack, models.ViewSide, models.ViewBottom}

type FanOutInput struct {
	ProductID  uuid.UUID
	UserID     uuid.UUID
	ApprovalID uuid.UUID
}

type FanOutResult struct {
	// GeneratedViews maps each completed view to its stored image URL.
	// On error it holds the views that finished before the failure.
	GeneratedViews map[models.ViewType]string
}

// GenerateRemainingViews fans out from an approved front view to the
// dependent views, one at a time, preserving product identity by
// conditioning each generation on the approved image.
func (s *ViewService) GenerateRemainingViews(ctx context.Context, input FanOutInput) (*FanOutResult, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	approval, err := s.approvals.GetApproval(ctx, input.ApprovalID)
	if err != nil {
		return nil, err
	}
	if approval.ProductID != input.ProductID {
		return nil, fmt.Errorf("approval %s does not belong to product %s", input.ApprovalID, input.ProductID)
	}
	if approval.Status != models.ApprovalApproved {
		return nil, fmt.Errorf("%w: approval %s is %s", ErrNotApproved, approval.ID, approval.Status)
	}

	reference, err := s.storage.FetchURL(approval.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch approved front view: %w", err)
	}

	analysis, err := s.analyzer.AnalyzeProductImage(ctx, approval.ImageURL)
	if err != nil {
		return nil, fmt.Errorf("reference analysis failed: %w", err)
	}

	editType := models.EditTypeInitial
	if approval.IsEdit {
		editType = models.EditTypeEdit
	}

	result := &FanOutResult{GeneratedViews: make(map[models.ViewType]string)}
	for i, viewType := range fanOutViews {
		prompt := fanOutPrompt(analysis, viewType)

		var imageData []byte
		err := s.genPolicy.Do(ctx, func(ctx context.Context) error {
			var genErr error
			imageData, genErr = s.generator.EditImage(ctx, reference, "image/png", prompt)
			return genErr
		})
		if err != nil {
			s.realtime.PublishProductEvent(input.ProductID, "generation_failed",
				supabase.GenerationFailedPayload(input.ProductID, string(viewType), err.Error()))
			return result, fmt.Errorf("%s view generation failed: %w", viewType, err)
		}

		filename := fmt.Sprintf("%s_%s.png", viewType, approval.ID.String())
		_, imageURL, err := s.storage.UploadProductImage(input.UserID, input.ProductID, filename, imageData, "image/png")
		if err != nil {
			return result, fmt.Errorf("failed to store %s view: %w", viewType, err)
		}

		rev := &models.ProductImageRevision{
			ProductID: input.ProductID,
			ViewType:  viewType,
			ImageURL:  imageURL,
			EditType:  editType,
			IsActive:  true,
			Metadata: models.RevisionMetadata{
				Source:  "multi_view_fan_out",
				BatchID: approval.ID.String(),
			},
		}
		if _, err := s.revisions.InsertRevision(ctx, rev); err != nil {
			return result, fmt.Errorf("failed to record %s revision: %w", viewType, err)
		}
		if err := s.revisions.UpdateProductViewURL(ctx, input.ProductID, viewType, imageURL); err != nil {
			return result, fmt.Errorf("failed to update product %s image: %w", viewType, err)
		}

		result.GeneratedViews[viewType] = imageURL
		progress := (i + 1) * 100 / len(fanOutViews)
		s.realtime.PublishProductEvent(input.ProductID, "view_generated",
			supabase.ViewGeneratedPayload(input.ProductID, string(viewType), imageURL, progress))
	}

	s.log.Info("multi-view fan-out complete",
		"product_id", input.ProductID, "approval_id", approval.ID, "views", len(result.GeneratedViews))
	return result, nil
}

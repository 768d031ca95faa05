package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"genpire-backend/internal/logger"
	"genpire-backend/internal/models"
	"genpire-backend/internal/supabase"
)

// RevisionService manages per-view revision history. Every generation or
// edit appends a revision; nothing is overwritten in place, so any earlier
// version can be reactivated later.
type RevisionService struct {
	revisions  RevisionStore
	frontEdits FrontViewEditor
	realtime   *supabase.RealtimeClient
	log        *logger.Logger
}

func NewRevisionService(
	revisions RevisionStore,
	frontEdits FrontViewEditor,
	realtime *supabase.RealtimeClient,
	log *logger.Logger,
) *RevisionService {
	return &RevisionService{
		revisions:  revisions,
		frontEdits: frontEdits,
		realtime:   realtime,
		log:        log.With("service", "revisions"),
	}
}

type ApplyImageEditInput struct {
	ProductID       uuid.UUID
	UserID          uuid.UUID
	ViewType        models.ViewType
	CurrentImageURL string
	EditPrompt      string
}

type ImageEditResult struct {
	ImageURL string
	// RevisionID is the approval id opened for the edit; on approval it
	// becomes the id of the new front revision.
	RevisionID uuid.UUID
}

// ApplyImageEdit routes a front-view edit through the approval-gated
// generation path. Dependent views (back, side, bottom, illustration) are
// never edited directly: the workflow is to edit the front view and
// regenerate the rest from it, so any other view is refused before
// anything is generated or written.
func (s *RevisionService) ApplyImageEdit(ctx context.Context, input ApplyImageEditInput) (*ImageEditResult, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if input.ViewType != models.ViewFront {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedView, input.ViewType)
	}
	if input.EditPrompt == "" {
		return nil, fmt.Errorf("an edit prompt is required")
	}
	if input.CurrentImageURL == "" {
		return nil, fmt.Errorf("the current image URL is required")
	}

	result, err := s.frontEdits.GenerateFrontView(ctx, GenerateFrontViewInput{
		ProductID:            input.ProductID,
		UserID:               input.UserID,
		UserPrompt:           input.EditPrompt,
		PreviousFrontViewURL: input.CurrentImageURL,
		IsEdit:               true,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("front view edit staged",
		"product_id", input.ProductID, "approval_id", result.ApprovalID)
	return &ImageEditResult{
		ImageURL:   result.FrontViewURL,
		RevisionID: result.ApprovalID,
	}, nil
}

// GetRevisionsForProduct returns the product's revision history grouped by
// view, newest first within each view. A nil viewType returns all views.
func (s *RevisionService) GetRevisionsForProduct(ctx context.Context, userID, productID uuid.UUID, viewType *models.ViewType) (map[models.ViewType][]models.ProductImageRevision, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	revs, err := s.revisions.ListRevisions(ctx, productID, viewType)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}

	grouped := make(map[models.ViewType][]models.ProductImageRevision)
	for _, rev := range revs {
		grouped[rev.ViewType] = append(grouped[rev.ViewType], rev)
	}
	return grouped, nil
}

// SetActiveRevision activates a historical revision and propagates its
// image URL to the product record, so the product always displays whatever
// revision is active.
func (s *RevisionService) SetActiveRevision(ctx context.Context, userID, productID, revisionID uuid.UUID, viewType models.ViewType) (string, error) {
	if userID == uuid.Nil {
		return "", ErrUnauthenticated
	}

	imageURL, err := s.revisions.SetActiveRevision(ctx, revisionID, productID, viewType)
	if err != nil {
		return "", err
	}

	s.log.Info("revision activated",
		"product_id", productID, "view_type", viewType, "revision_id", revisionID)
	s.realtime.PublishProductEvent(productID, "revision_activated",
		supabase.RevisionActivatedPayload(productID, string(viewType), imageURL))
	return imageURL, nil
}

type InitialImage struct {
	ImageURL     string
	ThumbnailURL string
}

// SaveInitialRevisions seeds revision number 1 for each provided view when
// a product is first created. Each image is recorded twice: as the first
// active revision of its view and in the upload ledger.
func (s *RevisionService) SaveInitialRevisions(ctx context.Context, userID, productID uuid.UUID, images map[models.ViewType]InitialImage) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	if len(images) == 0 {
		return fmt.Errorf("at least one view image is required")
	}

	for viewType, img := range images {
		if img.ImageURL == "" {
			return fmt.Errorf("view %q has no image URL", viewType)
		}

		rev := &models.ProductImageRevision{
			ProductID:    productID,
			ViewType:     viewType,
			ImageURL:     img.ImageURL,
			ThumbnailURL: nullString(img.ThumbnailURL),
			EditType:     models.EditTypeInitial,
			IsActive:     true,
			Metadata:     models.RevisionMetadata{Source: "product_creation", IsOriginal: true},
		}
		if _, err := s.revisions.InsertRevision(ctx, rev); err != nil {
			return fmt.Errorf("failed to record initial %s revision: %w", viewType, err)
		}

		upload := &models.ImageUpload{
			UserID:    userID,
			ProductID: productID,
			ViewType:  viewType,
			URL:       img.ImageURL,
			Source:    "product_creation",
		}
		if err := s.revisions.RecordImageUpload(ctx, upload); err != nil {
			s.log.Warn("failed to record upload", "product_id", productID, "view_type", viewType, "error", err)
		}
	}

	s.log.Info("initial revisions saved", "product_id", productID, "views", len(images))
	return nil
}

package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/database"
	"genpire-backend/internal/logger"
	"genpire-backend/internal/models"
	"genpire-backend/internal/supabase"
)

// Model3DService manages versioned 3D model generation: submitting multi
// image reconstruction jobs, reflecting their remote status locally, and
// switching between versions.
type Model3DService struct {
	store    ModelStore
	meshy    MeshyAPI
	realtime *supabase.RealtimeClient
	log      *logger.Logger
}

func NewModel3DService(store ModelStore, meshyAPI MeshyAPI, realtime *supabase.RealtimeClient, log *logger.Logger) *Model3DService {
	return &Model3DService{
		store:    store,
		meshy:    meshyAPI,
		realtime: realtime,
		log:      log.With("service", "models3d"),
	}
}

type SubmitGenerationInput struct {
	UserID      uuid.UUID
	SourceType  models.SourceType
	SourceID    string
	InputImages models.InputImageURLs
}

// SubmitGeneration validates the input image set, creates the remote
// reconstruction task, and records a new PENDING version. The new version
// is created active, deactivating any previous active version, so the
// source always points at its latest submission.
func (s *Model3DService) SubmitGeneration(ctx context.Context, input SubmitGenerationInput) (*models.Product3DModel, error) {
	if input.UserID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if input.SourceID == "" {
		return nil, fmt.Errorf("sourceId is required")
	}
	if input.InputImages.Front == "" || input.InputImages.Back == "" {
		return nil, fmt.Errorf("%w: front and back images are required", ErrMissingViews)
	}

	// Meshy expects the images ordered front, back, side, top with the
	// optional ones simply omitted.
	imageURLs := []string{input.InputImages.Front, input.InputImages.Back}
	if input.InputImages.Side != "" {
		imageURLs = append(imageURLs, input.InputImages.Side)
	}
	if input.InputImages.Top != "" {
		imageURLs = append(imageURLs, input.InputImages.Top)
	}

	taskID, err := s.meshy.CreateTask(ctx, imageURLs)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation task: %w", err)
	}

	model := &models.Product3DModel{
		UserID:      input.UserID,
		SourceType:  input.SourceType,
		SourceID:    input.SourceID,
		TaskID:      taskID,
		Status:      models.ModelStatusPending,
		InputImages: input.InputImages,
	}
	if err := s.store.CreateModel(ctx, model); err != nil {
		return nil, fmt.Errorf("failed to record model version: %w", err)
	}

	s.log.Info("3d generation submitted",
		"source_type", input.SourceType, "source_id", input.SourceID,
		"task_id", taskID, "version", model.Version)
	return model, nil
}

// PollStatus fetches the remote task state and writes it onto the local
// record. Safe to call repeatedly in any task state: completed tasks just
// rewrite the same terminal row.
func (s *Model3DService) PollStatus(ctx context.Context, userID uuid.UUID, taskID string) (*models.Product3DModel, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}

	model, err := s.store.GetModelByTaskID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	task, err := s.meshy.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if err := s.applyTaskState(ctx, taskID, task); err != nil {
		return nil, err
	}

	updated, err := s.store.GetModel(ctx, model.ID)
	if err != nil {
		return nil, err
	}
	if sourceUUID, err := uuid.Parse(updated.SourceID); err == nil {
		s.realtime.PublishProductEvent(sourceUUID, "model_3d_status",
			supabase.Model3DStatusPayload(updated.SourceID, updated.Status, updated.Progress))
	}
	return updated, nil
}

// HandleTaskUpdate applies a pushed task notification, as delivered by the
// webhook. Notifications can arrive before the local record exists; the
// store reports that as ErrRecordNotFound so the caller can ask the sender
// to retry.
func (s *Model3DService) HandleTaskUpdate(ctx context.Context, task *meshy.TaskResponse) error {
	if task.ID == "" {
		return fmt.Errorf("task id is required")
	}
	return s.applyTaskState(ctx, task.ID, task)
}

func (s *Model3DService) applyTaskState(ctx context.Context, taskID string, task *meshy.TaskResponse) error {
	upd := database.ModelTaskUpdate{
		Status:       task.Status,
		Progress:     task.Progress,
		ThumbnailURL: task.ThumbnailURL,
	}
	if len(task.ModelURLs) > 0 {
		upd.ModelURLs = &models.ModelURLs{
			GLB:  task.ModelURLs["glb"],
			FBX:  task.ModelURLs["fbx"],
			OBJ:  task.ModelURLs["obj"],
			USDZ: task.ModelURLs["usdz"],
			MTL:  task.ModelURLs["mtl"],
		}
	}
	for _, t := range task.TextureURLs {
		upd.TextureURLs = append(upd.TextureURLs, models.TextureURLs{
			BaseColor: t.BaseColor,
			Metallic:  t.Metallic,
			Normal:    t.Normal,
			Roughness: t.Roughness,
		})
	}
	if task.TaskError != nil {
		upd.TaskError = task.TaskError.Message
	}
	if finished, ok := task.FinishedTime(); ok {
		upd.FinishedAt = &finished
	}

	if err := s.store.UpdateModelTask(ctx, taskID, upd); err != nil {
		return err
	}

	if task.Status == models.ModelStatusFailed || task.Status == models.ModelStatusExpired {
		s.log.Warn("3d generation failed", "task_id", taskID, "status", task.Status, "error", upd.TaskError)
	}
	return nil
}

// ListVersions returns a source's model versions, newest first. By default
// only versions worth showing are returned: the active one plus every
// completed one. includeAll adds pending and failed versions.
func (s *Model3DService) ListVersions(ctx context.Context, userID uuid.UUID, sourceType models.SourceType, sourceID string, includeAll bool) ([]models.Product3DModel, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	return s.store.ListModels(ctx, sourceType, sourceID, includeAll)
}

// SetActiveVersion switches the source's active model to an earlier or
// later version.
func (s *Model3DService) SetActiveVersion(ctx context.Context, userID, modelID uuid.UUID) (*models.Product3DModel, error) {
	if userID == uuid.Nil {
		return nil, ErrUnauthenticated
	}
	if err := s.store.SetActiveModel(ctx, modelID); err != nil {
		return nil, err
	}
	model, err := s.store.GetModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	s.log.Info("3d model activated",
		"source_type", model.SourceType, "source_id", model.SourceID, "version", model.Version)
	return model, nil
}

// DeleteVersion removes an inactive version. Deleting the active version
// is refused; callers must activate another version first.
func (s *Model3DService) DeleteVersion(ctx context.Context, userID, modelID uuid.UUID) error {
	if userID == uuid.Nil {
		return ErrUnauthenticated
	}
	return s.store.DeleteModel(ctx, modelID)
}

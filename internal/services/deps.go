package services

import (
	"context"

	"github.com/google/uuid"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/database"
	"genpire-backend/internal/models"
)

// The services accept narrow interfaces so tests can substitute fakes for
// the database, object storage, and the external AI providers.

type RevisionStore interface {
	InsertRevision(ctx context.Context, rev *models.ProductImageRevision) (*models.ProductImageRevision, error)
	ListRevisions(ctx context.Context, productID uuid.UUID, viewType *models.ViewType) ([]models.ProductImageRevision, error)
	SetActiveRevision(ctx context.Context, revisionID, productID uuid.UUID, viewType models.ViewType) (string, error)
	UpdateProductViewURL(ctx context.Context, productID uuid.UUID, viewType models.ViewType, imageURL string) error
	RecordImageUpload(ctx context.Context, upload *models.ImageUpload) error
}

type ApprovalStore interface {
	CreateApproval(ctx context.Context, approval *models.FrontViewApproval) error
	GetApproval(ctx context.Context, approvalID uuid.UUID) (*models.FrontViewApproval, error)
	ResolveApproval(ctx context.Context, approvalID uuid.UUID, status string) (*models.FrontViewApproval, error)
}

type ModelStore interface {
	CreateModel(ctx context.Context, m *models.Product3DModel) error
	GetModel(ctx context.Context, modelID uuid.UUID) (*models.Product3DModel, error)
	GetModelByTaskID(ctx context.Context, taskID string) (*models.Product3DModel, error)
	UpdateModelTask(ctx context.Context, taskID string, upd database.ModelTaskUpdate) error
	ListModels(ctx context.Context, sourceType models.SourceType, sourceID string, includeAll bool) ([]models.Product3DModel, error)
	SetActiveModel(ctx context.Context, modelID uuid.UUID) error
	DeleteModel(ctx context.Context, modelID uuid.UUID) error
}

// FrontViewEditor is the approval-gated front-view edit path.
type FrontViewEditor interface {
	GenerateFrontView(ctx context.Context, input GenerateFrontViewInput) (*GenerateFrontViewResult, error)
}

// ImageGenerator is the Gemini seam: fresh synthesis and
// reference-constrained editing.
type ImageGenerator interface {
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	EditImage(ctx context.Context, reference []byte, mimeType, prompt string) ([]byte, error)
}

// VisionAnalyzer is the OpenAI seam: structured product analysis and
// print-prompt extraction from an image URL.
type VisionAnalyzer interface {
	AnalyzeProductImage(ctx context.Context, imageURL string) (*models.ProductAnalysis, error)
	ExtractPrintPrompt(ctx context.Context, imageURL string) (string, error)
}

// ObjectStorage is the Supabase storage seam.
type ObjectStorage interface {
	UploadProductImage(userID, productID uuid.UUID, filename string, data []byte, contentType string) (string, string, error)
	DeleteFile(storagePath string) error
	FetchURL(url string) ([]byte, error)
}

// MeshyAPI is the 3D reconstruction seam.
type MeshyAPI interface {
	CreateTask(ctx context.Context, imageURLs []string) (string, error)
	GetTask(ctx context.Context, taskID string) (*meshy.TaskResponse, error)
}

// Converter is the CloudConvert seam used for EPS derivation.
type Converter interface {
	Convert(ctx context.Context, filename string, data []byte, outputFormat string) ([]byte, error)
}

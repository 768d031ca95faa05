package models

import "time"

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

type Generate3DModelResponse struct {
	Success bool   `json:"success"`
	TaskID  string `json:"taskId"`
	ModelID string `json:"modelId"`
	Message string `json:"message"`
}

// Model3DStatusResponse mirrors the persisted state of a generation task.
// Pointer fields serialize as null until the task finishes.
type Model3DStatusResponse struct {
	Status      string        `json:"status"`
	Progress    int           `json:"progress"`
	ModelURLs   *ModelURLs    `json:"model_urls"`
	Thumbnail   *string       `json:"thumbnail_url"`
	TextureURLs []TextureURLs `json:"texture_urls"`
	TaskError   *string       `json:"task_error"`
	FinishedAt  *time.Time    `json:"finished_at"`
}

type Model3DVersionResponse struct {
	ID           string     `json:"id"`
	SourceType   string     `json:"source_type"`
	SourceID     string     `json:"source_id"`
	TaskID       string     `json:"task_id"`
	Status       string     `json:"status"`
	Progress     int        `json:"progress"`
	ModelURLs    *ModelURLs `json:"model_urls,omitempty"`
	ThumbnailURL string     `json:"thumbnail_url,omitempty"`
	Version      int        `json:"version"`
	IsActive     bool       `json:"is_active"`
	CreatedAt    time.Time  `json:"created_at"`
}

type FrontViewResponse struct {
	Success      bool   `json:"success"`
	FrontViewURL string `json:"frontViewUrl,omitempty"`
	ApprovalID   string `json:"approvalId,omitempty"`
	Error        string `json:"error,omitempty"`
}

type DecisionResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type FanOutResponse struct {
	Success        bool              `json:"success"`
	GeneratedViews map[string]string `json:"generated_views,omitempty"` // view -> url
	Error          string            `json:"error,omitempty"`
}

type ImageEditResponse struct {
	Success    bool   `json:"success"`
	ImageURL   string `json:"image_url,omitempty"`
	RevisionID string `json:"revision_id,omitempty"`
	ApprovalID string `json:"approval_id,omitempty"`
	Error      string `json:"error,omitempty"`
}

type RevisionResponse struct {
	ID             string           `json:"id"`
	RevisionNumber int              `json:"revision_number"`
	ImageURL       string           `json:"image_url"`
	ThumbnailURL   string           `json:"thumbnail_url,omitempty"`
	EditPrompt     string           `json:"edit_prompt,omitempty"`
	EditType       string           `json:"edit_type"`
	IsActive       bool             `json:"is_active"`
	Metadata       RevisionMetadata `json:"metadata"`
	CreatedAt      time.Time        `json:"created_at"`
}

// RevisionsResponse groups revision history by view type, newest first
// within each group.
type RevisionsResponse struct {
	Revisions map[string][]RevisionResponse `json:"revisions"`
}

type PrintPackResponse struct {
	Success       bool     `json:"success"`
	ArchiveURL    string   `json:"archive_url,omitempty"`
	Included      []string `json:"included"`
	PatternPrompt string   `json:"pattern_prompt,omitempty"`
	Error         string   `json:"error,omitempty"`
}

type PDFScanResponse struct {
	Success bool                  `json:"success"`
	Data    *ExtractedProductData `json:"data,omitempty"`
	Error   string                `json:"error,omitempty"`
}

package models

// Generate3DModelRequest is the body for POST /api/generate-3d-model.
// Front and back image URLs are required; side and top are optional.
type Generate3DModelRequest struct {
	ImageURLs  InputImageURLs `json:"imageUrls"`
	SourceType string         `json:"sourceType"`
	SourceID   string         `json:"sourceId"`
}

type GenerateFrontViewRequest struct {
	UserPrompt           string `json:"user_prompt"`
	PreviousFrontViewURL string `json:"previous_front_view_url,omitempty"`
	IsEdit               bool   `json:"is_edit"`
}

type FrontViewDecisionRequest struct {
	Action string `json:"action"` // "approve" or "reject"
}

type FanOutRequest struct {
	ApprovalID string `json:"approval_id"`
}

type ApplyImageEditRequest struct {
	ViewType        string `json:"view_type"`
	CurrentImageURL string `json:"current_image_url"`
	EditPrompt      string `json:"edit_prompt"`
}

type InitialRevisionsRequest struct {
	// Keyed by view type: front, back, side, bottom, illustration.
	Images map[string]InitialImage `json:"images"`
}

type InitialImage struct {
	URL          string `json:"url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

type PrintPackRequest struct {
	FrontImageURL string `json:"front_image_url"`
	Title         string `json:"title,omitempty"`
}

// PDFScanRequest is the JSON variant of POST /api/pdf-scanner; the multipart
// variant carries the file directly.
type PDFScanRequest struct {
	FileURL string `json:"fileUrl"`
}

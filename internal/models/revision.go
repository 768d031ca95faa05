package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ViewType is one axis of a product's image set; each view keeps its own
// revision chain.
type ViewType string

const (
	ViewFront        ViewType = "front"
	ViewBack         ViewType = "back"
	ViewSide         ViewType = "side"
	ViewBottom       ViewType = "bottom"
	ViewIllustration ViewType = "illustration"
)

func ParseViewType(s string) (ViewType, error) {
	switch ViewType(s) {
	case ViewFront, ViewBack, ViewSide, ViewBottom, ViewIllustration:
		return ViewType(s), nil
	}
	return "", fmt.Errorf("unknown view type %q", s)
}

const (
	EditTypeInitial = "initial"
	EditTypeEdit    = "edit"
)

// RevisionMetadata is the closed set of metadata fields revisions actually
// carry. SchemaVersion guards future additions.
type RevisionMetadata struct {
	SchemaVersion int    `json:"schema_version"`
	Source        string `json:"source,omitempty"`
	BatchID       string `json:"batch_id,omitempty"`
	IsOriginal    bool   `json:"is_original,omitempty"`
}

const RevisionMetadataSchemaVersion = 1

// ProductImageRevision is one historical version of a single product view.
// At most one revision per (product, view) is active.
type ProductImageRevision struct {
	ID             uuid.UUID
	ProductID      uuid.UUID
	ViewType       ViewType
	RevisionNumber int
	ImageURL       string
	ThumbnailURL   sql.NullString
	EditPrompt     sql.NullString
	EditType       string
	IsActive       bool
	Metadata       RevisionMetadata
	CreatedAt      time.Time
}

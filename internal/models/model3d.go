package models

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// SourceType identifies what a 3D model was generated for.
type SourceType string

const (
	SourceProduct    SourceType = "product"
	SourceCollection SourceType = "collection"
)

func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceProduct, SourceCollection:
		return SourceType(s), nil
	}
	return "", fmt.Errorf("sourceType must be \"product\" or \"collection\", got %q", s)
}

// Generation job statuses, mirroring the Meshy task vocabulary.
const (
	ModelStatusPending    = "PENDING"
	ModelStatusInProgress = "IN_PROGRESS"
	ModelStatusSucceeded  = "SUCCEEDED"
	ModelStatusFailed     = "FAILED"
	ModelStatusExpired    = "EXPIRED"
)

// ModelURLs maps output format to a download URL.
type ModelURLs struct {
	GLB  string `json:"glb,omitempty"`
	FBX  string `json:"fbx,omitempty"`
	OBJ  string `json:"obj,omitempty"`
	USDZ string `json:"usdz,omitempty"`
	MTL  string `json:"mtl,omitempty"`
}

// TextureURLs is one set of material maps.
type TextureURLs struct {
	BaseColor string `json:"base_color,omitempty"`
	Metallic  string `json:"metallic,omitempty"`
	Normal    string `json:"normal,omitempty"`
	Roughness string `json:"roughness,omitempty"`
}

// InputImageURLs holds the per-view source images submitted for
// reconstruction. Front and back are required; side and top are optional.
type InputImageURLs struct {
	Front string `json:"front,omitempty"`
	Back  string `json:"back,omitempty"`
	Side  string `json:"side,omitempty"`
	Top   string `json:"top,omitempty"`
}

// Product3DModel is one version of a generated 3D model for a source entity.
// At most one version per (source_type, source_id) is active.
type Product3DModel struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	SourceType   SourceType
	SourceID     string
	TaskID       string
	Status       string
	Progress     int
	ModelURLs    *ModelURLs
	ThumbnailURL sql.NullString
	TextureURLs  []TextureURLs
	InputImages  InputImageURLs
	TaskError    sql.NullString
	Version      int
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
	FinishedAt   sql.NullTime
}

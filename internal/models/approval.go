package models

import (
	"database/sql"
	"time"

	"github.com/google/uuid"
)

// Decision gate states for a generated front view. The gate is one-shot:
// a resolved approval never returns to pending.
const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// FrontViewApproval holds a generated front-view image awaiting an
// approve/reject decision before the multi-view fan-out may proceed.
type FrontViewApproval struct {
	ID          uuid.UUID
	ProductID   uuid.UUID
	UserID      uuid.UUID
	ImageURL    string
	StoragePath string
	Prompt      string
	IsEdit      bool
	Status      string
	CreatedAt   time.Time
	ResolvedAt  sql.NullTime
}

// ImageUpload is one row in the flat upload ledger. Writes to it are
// best-effort and never abort the surrounding operation.
type ImageUpload struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	ProductID uuid.UUID
	ViewType  ViewType
	URL       string
	Source    string
	CreatedAt time.Time
}

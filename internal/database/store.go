package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"

	"genpire-backend/internal/models"
)

// Store is the relational persistence layer for revisions, 3D model
// versions, approvals and the upload ledger. The single-active invariants
// are enforced here with row locks inside transactions, backed by partial
// unique indexes in the schema.
type Store struct {
	db *sql.DB
}

func NewStore(connectionString string) (*Store, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// ---- revisions ----

const revisionColumns = "id, product_id, view_type, revision_number, image_url, thumbnail_url, edit_prompt, edit_type, is_active, metadata, created_at"

func scanRevision(row interface{ Scan(...interface{}) error }) (*models.ProductImageRevision, error) {
	var rev models.ProductImageRevision
	var metadata []byte
	err := row.Scan(
		&rev.ID, &rev.ProductID, &rev.ViewType, &rev.RevisionNumber,
		&rev.ImageURL, &rev.ThumbnailURL, &rev.EditPrompt, &rev.EditType,
		&rev.IsActive, &metadata, &rev.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rev.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode revision metadata: %w", err)
		}
	}
	return &rev, nil
}

// InsertRevision assigns the next revision number for (product, view) and
// inserts the row. When the new revision is active, all prior revisions for
// the pair are deactivated in the same transaction. The pair's rows are
// locked for the duration so concurrent inserts serialize and numbers stay
// monotonic.
func (s *Store) InsertRevision(ctx context.Context, rev *models.ProductImageRevision) (*models.ProductImageRevision, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		SELECT id FROM product_multiview_revisions
		WHERE product_id = $1 AND view_type = $2
		FOR UPDATE
	`, rev.ProductID, rev.ViewType); err != nil {
		return nil, fmt.Errorf("failed to lock revisions: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(revision_number), 0) + 1
		FROM product_multiview_revisions
		WHERE product_id = $1 AND view_type = $2
	`, rev.ProductID, rev.ViewType).Scan(&next); err != nil {
		return nil, fmt.Errorf("failed to compute next revision number: %w", err)
	}

	if rev.IsActive {
		if _, err := tx.ExecContext(ctx, `
			UPDATE product_multiview_revisions
			SET is_active = FALSE
			WHERE product_id = $1 AND view_type = $2 AND is_active
		`, rev.ProductID, rev.ViewType); err != nil {
			return nil, fmt.Errorf("failed to deactivate prior revisions: %w", err)
		}
	}

	if rev.ID == uuid.Nil {
		rev.ID = uuid.New()
	}
	rev.RevisionNumber = next
	rev.Metadata.SchemaVersion = models.RevisionMetadataSchemaVersion
	metadata, err := json.Marshal(rev.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode revision metadata: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO product_multiview_revisions
			(id, product_id, view_type, revision_number, image_url, thumbnail_url, edit_prompt, edit_type, is_active, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at
	`, rev.ID, rev.ProductID, rev.ViewType, rev.RevisionNumber,
		rev.ImageURL, rev.ThumbnailURL, rev.EditPrompt, rev.EditType,
		rev.IsActive, metadata,
	).Scan(&rev.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to insert revision: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit revision insert: %w", err)
	}

	return rev, nil
}

// ListRevisions returns revision history for a product, optionally filtered
// to one view, newest first within each view.
func (s *Store) ListRevisions(ctx context.Context, productID uuid.UUID, viewType *models.ViewType) ([]models.ProductImageRevision, error) {
	query := `
		SELECT ` + revisionColumns + `
		FROM product_multiview_revisions
		WHERE product_id = $1
	`
	args := []interface{}{productID}
	if viewType != nil {
		query += " AND view_type = $2"
		args = append(args, *viewType)
	}
	query += " ORDER BY view_type, created_at DESC"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list revisions: %w", err)
	}
	defer rows.Close()

	var revisions []models.ProductImageRevision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan revision: %w", err)
		}
		revisions = append(revisions, *rev)
	}

	return revisions, rows.Err()
}

// SetActiveRevision performs the activation switch in a single transaction:
// lock the pair's rows, deactivate everything, activate the target (which
// must belong to the same product and view), then propagate the image URL
// into the product's denormalized column. Returns the activated image URL.
func (s *Store) SetActiveRevision(ctx context.Context, revisionID, productID uuid.UUID, viewType models.ViewType) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		SELECT id FROM product_multiview_revisions
		WHERE product_id = $1 AND view_type = $2
		FOR UPDATE
	`, productID, viewType); err != nil {
		return "", fmt.Errorf("failed to lock revisions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE product_multiview_revisions
		SET is_active = FALSE
		WHERE product_id = $1 AND view_type = $2 AND is_active
	`, productID, viewType); err != nil {
		return "", fmt.Errorf("failed to deactivate revisions: %w", err)
	}

	var imageURL string
	err = tx.QueryRowContext(ctx, `
		UPDATE product_multiview_revisions
		SET is_active = TRUE
		WHERE id = $1 AND product_id = $2 AND view_type = $3
		RETURNING image_url
	`, revisionID, productID, viewType).Scan(&imageURL)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrRecordNotFound
		}
		return "", fmt.Errorf("failed to activate revision: %w", err)
	}

	// Denormalized current-image column on the parent product. Only runs
	// once the activation itself has succeeded inside this transaction.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`
		UPDATE products
		SET %s = $1, updated_at = NOW()
		WHERE id = $2
	`, viewColumn(viewType)), imageURL, productID); err != nil {
		return "", fmt.Errorf("failed to update product image: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit activation: %w", err)
	}

	return imageURL, nil
}

// viewColumn maps a view type to the product table's denormalized column.
// ViewType is a closed enum, so this is safe to interpolate.
func viewColumn(viewType models.ViewType) string {
	switch viewType {
	case models.ViewFront:
		return "front_image_url"
	case models.ViewBack:
		return "back_image_url"
	case models.ViewSide:
		return "side_image_url"
	case models.ViewBottom:
		return "bottom_image_url"
	default:
		return "illustration_image_url"
	}
}

// UpdateProductViewURL writes the denormalized current-image column directly
// (used by the fan-out path where the revision insert already activated).
func (s *Store) UpdateProductViewURL(ctx context.Context, productID uuid.UUID, viewType models.ViewType, imageURL string) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE products
		SET %s = $1, updated_at = NOW()
		WHERE id = $2
	`, viewColumn(viewType)), imageURL, productID)
	return err
}

// RecordImageUpload appends to the flat upload ledger.
func (s *Store) RecordImageUpload(ctx context.Context, upload *models.ImageUpload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO images_uploads (id, user_id, product_id, view_type, url, source)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, upload.ID, upload.UserID, upload.ProductID, upload.ViewType, upload.URL, upload.Source)
	return err
}

// ---- front view approvals ----

func (s *Store) CreateApproval(ctx context.Context, approval *models.FrontViewApproval) error {
	if approval.ID == uuid.Nil {
		approval.ID = uuid.New()
	}
	if approval.Status == "" {
		approval.Status = models.ApprovalPending
	}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO front_view_approvals (id, product_id, user_id, image_url, storage_path, prompt, is_edit, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`, approval.ID, approval.ProductID, approval.UserID, approval.ImageURL,
		approval.StoragePath, approval.Prompt, approval.IsEdit, approval.Status,
	).Scan(&approval.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create approval: %w", err)
	}
	return nil
}

func (s *Store) GetApproval(ctx context.Context, approvalID uuid.UUID) (*models.FrontViewApproval, error) {
	var a models.FrontViewApproval
	err := s.db.QueryRowContext(ctx, `
		SELECT id, product_id, user_id, image_url, storage_path, prompt, is_edit, status, created_at, resolved_at
		FROM front_view_approvals
		WHERE id = $1
	`, approvalID).Scan(
		&a.ID, &a.ProductID, &a.UserID, &a.ImageURL, &a.StoragePath,
		&a.Prompt, &a.IsEdit, &a.Status, &a.CreatedAt, &a.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get approval: %w", err)
	}
	return &a, nil
}

// ResolveApproval moves a pending approval to its terminal status. A second
// resolution attempt fails with ErrApprovalResolved.
func (s *Store) ResolveApproval(ctx context.Context, approvalID uuid.UUID, status string) (*models.FrontViewApproval, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var a models.FrontViewApproval
	err = tx.QueryRowContext(ctx, `
		SELECT id, product_id, user_id, image_url, storage_path, prompt, is_edit, status, created_at, resolved_at
		FROM front_view_approvals
		WHERE id = $1
		FOR UPDATE
	`, approvalID).Scan(
		&a.ID, &a.ProductID, &a.UserID, &a.ImageURL, &a.StoragePath,
		&a.Prompt, &a.IsEdit, &a.Status, &a.CreatedAt, &a.ResolvedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load approval: %w", err)
	}

	if a.Status != models.ApprovalPending {
		return nil, ErrApprovalResolved
	}

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE front_view_approvals
		SET status = $1, resolved_at = $2
		WHERE id = $3
	`, status, now, approvalID); err != nil {
		return nil, fmt.Errorf("failed to resolve approval: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval resolution: %w", err)
	}

	a.Status = status
	a.ResolvedAt = sql.NullTime{Time: now, Valid: true}
	return &a, nil
}

// ---- 3D model versions ----

const modelColumns = "id, user_id, source_type, source_id, task_id, status, progress, model_urls, thumbnail_url, texture_urls, input_images, task_error, version, is_active, created_at, updated_at, finished_at"

func scanModel(row interface{ Scan(...interface{}) error }) (*models.Product3DModel, error) {
	var m models.Product3DModel
	var modelURLs, textureURLs, inputImages []byte
	err := row.Scan(
		&m.ID, &m.UserID, &m.SourceType, &m.SourceID, &m.TaskID,
		&m.Status, &m.Progress, &modelURLs, &m.ThumbnailURL, &textureURLs,
		&inputImages, &m.TaskError, &m.Version, &m.IsActive,
		&m.CreatedAt, &m.UpdatedAt, &m.FinishedAt,
	)
	if err != nil {
		return nil, err
	}
	if len(modelURLs) > 0 {
		m.ModelURLs = &models.ModelURLs{}
		if err := json.Unmarshal(modelURLs, m.ModelURLs); err != nil {
			return nil, fmt.Errorf("failed to decode model urls: %w", err)
		}
	}
	if len(textureURLs) > 0 {
		if err := json.Unmarshal(textureURLs, &m.TextureURLs); err != nil {
			return nil, fmt.Errorf("failed to decode texture urls: %w", err)
		}
	}
	if len(inputImages) > 0 {
		if err := json.Unmarshal(inputImages, &m.InputImages); err != nil {
			return nil, fmt.Errorf("failed to decode input images: %w", err)
		}
	}
	return &m, nil
}

// CreateModel deactivates any existing active version for the source and
// then inserts the new PENDING row with the next version number. The
// deactivate-before-insert ordering matters: the partial unique index on
// active rows would otherwise reject the insert.
func (s *Store) CreateModel(ctx context.Context, m *models.Product3DModel) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		SELECT id FROM product_3d_models
		WHERE source_type = $1 AND source_id = $2
		FOR UPDATE
	`, m.SourceType, m.SourceID); err != nil {
		return fmt.Errorf("failed to lock model versions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE product_3d_models
		SET is_active = FALSE, updated_at = NOW()
		WHERE source_type = $1 AND source_id = $2 AND is_active
	`, m.SourceType, m.SourceID); err != nil {
		return fmt.Errorf("failed to deactivate model versions: %w", err)
	}

	var next int
	if err := tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(version), 0) + 1
		FROM product_3d_models
		WHERE source_type = $1 AND source_id = $2
	`, m.SourceType, m.SourceID).Scan(&next); err != nil {
		return fmt.Errorf("failed to compute next version: %w", err)
	}

	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Version = next
	m.IsActive = true
	if m.Status == "" {
		m.Status = models.ModelStatusPending
	}

	inputImages, err := json.Marshal(m.InputImages)
	if err != nil {
		return fmt.Errorf("failed to encode input images: %w", err)
	}

	err = tx.QueryRowContext(ctx, `
		INSERT INTO product_3d_models
			(id, user_id, source_type, source_id, task_id, status, progress, input_images, version, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at
	`, m.ID, m.UserID, m.SourceType, m.SourceID, m.TaskID,
		m.Status, m.Progress, inputImages, m.Version, m.IsActive,
	).Scan(&m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit model insert: %w", err)
	}

	return nil
}

func (s *Store) GetModel(ctx context.Context, modelID uuid.UUID) (*models.Product3DModel, error) {
	m, err := scanModel(s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+`
		FROM product_3d_models
		WHERE id = $1
	`, modelID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model: %w", err)
	}
	return m, nil
}

func (s *Store) GetModelByTaskID(ctx context.Context, taskID string) (*models.Product3DModel, error) {
	m, err := scanModel(s.db.QueryRowContext(ctx, `
		SELECT `+modelColumns+`
		FROM product_3d_models
		WHERE task_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get model by task: %w", err)
	}
	return m, nil
}

// ModelTaskUpdate carries the writable fields of a status poll result.
type ModelTaskUpdate struct {
	Status       string
	Progress     int
	ModelURLs    *models.ModelURLs
	ThumbnailURL string
	TextureURLs  []models.TextureURLs
	TaskError    string
	FinishedAt   *time.Time
}

// UpdateModelTask writes a poll result back onto the local record. Writing
// the same completed state twice is a no-op beyond updated_at.
func (s *Store) UpdateModelTask(ctx context.Context, taskID string, upd ModelTaskUpdate) error {
	var modelURLs, textureURLs []byte
	var err error
	if upd.ModelURLs != nil {
		if modelURLs, err = json.Marshal(upd.ModelURLs); err != nil {
			return fmt.Errorf("failed to encode model urls: %w", err)
		}
	}
	if upd.TextureURLs != nil {
		if textureURLs, err = json.Marshal(upd.TextureURLs); err != nil {
			return fmt.Errorf("failed to encode texture urls: %w", err)
		}
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE product_3d_models
		SET status = $1,
		    progress = $2,
		    model_urls = COALESCE($3, model_urls),
		    thumbnail_url = COALESCE(NULLIF($4, ''), thumbnail_url),
		    texture_urls = COALESCE($5, texture_urls),
		    task_error = COALESCE(NULLIF($6, ''), task_error),
		    finished_at = COALESCE($7, finished_at),
		    updated_at = NOW()
		WHERE task_id = $8
	`, upd.Status, upd.Progress, modelURLs, upd.ThumbnailURL, textureURLs,
		upd.TaskError, upd.FinishedAt, taskID)
	if err != nil {
		return fmt.Errorf("failed to update model task: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check update result: %w", err)
	}
	if affected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// ListModels returns versions newest-version-first. When includeAll is
// false, only the active version and succeeded versions are returned.
func (s *Store) ListModels(ctx context.Context, sourceType models.SourceType, sourceID string, includeAll bool) ([]models.Product3DModel, error) {
	query := `
		SELECT ` + modelColumns + `
		FROM product_3d_models
		WHERE source_type = $1 AND source_id = $2
	`
	if !includeAll {
		query += " AND (is_active OR status = 'SUCCEEDED')"
	}
	query += " ORDER BY version DESC"

	rows, err := s.db.QueryContext(ctx, query, sourceType, sourceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list models: %w", err)
	}
	defer rows.Close()

	var out []models.Product3DModel
	for rows.Next() {
		m, err := scanModel(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan model: %w", err)
		}
		out = append(out, *m)
	}

	return out, rows.Err()
}

// SetActiveModel activates one version with the same locked
// deactivate-then-activate discipline as revisions.
func (s *Store) SetActiveModel(ctx context.Context, modelID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var sourceType models.SourceType
	var sourceID string
	err = tx.QueryRowContext(ctx, `
		SELECT source_type, source_id
		FROM product_3d_models
		WHERE id = $1
		FOR UPDATE
	`, modelID).Scan(&sourceType, &sourceID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		SELECT id FROM product_3d_models
		WHERE source_type = $1 AND source_id = $2
		FOR UPDATE
	`, sourceType, sourceID); err != nil {
		return fmt.Errorf("failed to lock model versions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE product_3d_models
		SET is_active = FALSE, updated_at = NOW()
		WHERE source_type = $1 AND source_id = $2 AND is_active
	`, sourceType, sourceID); err != nil {
		return fmt.Errorf("failed to deactivate model versions: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		UPDATE product_3d_models
		SET is_active = TRUE, updated_at = NOW()
		WHERE id = $1
	`, modelID); err != nil {
		return fmt.Errorf("failed to activate model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit activation: %w", err)
	}

	return nil
}

// DeleteModel removes a non-active version. The active flag is re-checked
// here so the rule holds even when a UI skips its own check.
func (s *Store) DeleteModel(ctx context.Context, modelID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var isActive bool
	err = tx.QueryRowContext(ctx, `
		SELECT is_active FROM product_3d_models
		WHERE id = $1
		FOR UPDATE
	`, modelID).Scan(&isActive)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRecordNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to load model: %w", err)
	}
	if isActive {
		return ErrActiveVersion
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM product_3d_models WHERE id = $1
	`, modelID); err != nil {
		return fmt.Errorf("failed to delete model: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit delete: %w", err)
	}

	return nil
}

package services_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/database"
	"genpire-backend/internal/models"
)

// fakeRevisionStore keeps revisions in memory with the same semantics the
// SQL store enforces: monotonic numbering and one active revision per
// (product, view).
type fakeRevisionStore struct {
	mu           sync.Mutex
	revisions    []*models.ProductImageRevision
	productViews map[string]string // productID/viewType -> image URL
	uploads      []*models.ImageUpload
}

func newFakeRevisionStore() *fakeRevisionStore {
	return &fakeRevisionStore{productViews: make(map[string]string)}
}

func (f *fakeRevisionStore) InsertRevision(ctx context.Context, rev *models.ProductImageRevision) (*models.ProductImageRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *rev
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	maxNumber := 0
	for _, r := range f.revisions {
		if r.ProductID == stored.ProductID && r.ViewType == stored.ViewType {
			if r.RevisionNumber > maxNumber {
				maxNumber = r.RevisionNumber
			}
			if stored.IsActive {
				r.IsActive = false
			}
		}
	}
	stored.RevisionNumber = maxNumber + 1
	stored.Metadata.SchemaVersion = models.RevisionMetadataSchemaVersion
	f.revisions = append(f.revisions, &stored)

	out := stored
	return &out, nil
}

func (f *fakeRevisionStore) ListRevisions(ctx context.Context, productID uuid.UUID, viewType *models.ViewType) ([]models.ProductImageRevision, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []models.ProductImageRevision
	for _, r := range f.revisions {
		if r.ProductID != productID {
			continue
		}
		if viewType != nil && r.ViewType != *viewType {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (f *fakeRevisionStore) SetActiveRevision(ctx context.Context, revisionID, productID uuid.UUID, viewType models.ViewType) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var target *models.ProductImageRevision
	for _, r := range f.revisions {
		if r.ID == revisionID && r.ProductID == productID && r.ViewType == viewType {
			target = r
			break
		}
	}
	if target == nil {
		return "", database.ErrRecordNotFound
	}
	for _, r := range f.revisions {
		if r.ProductID == productID && r.ViewType == viewType {
			r.IsActive = false
		}
	}
	target.IsActive = true
	f.productViews[viewKey(productID, viewType)] = target.ImageURL
	return target.ImageURL, nil
}

func (f *fakeRevisionStore) UpdateProductViewURL(ctx context.Context, productID uuid.UUID, viewType models.ViewType, imageURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.productViews[viewKey(productID, viewType)] = imageURL
	return nil
}

func (f *fakeRevisionStore) RecordImageUpload(ctx context.Context, upload *models.ImageUpload) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, upload)
	return nil
}

func (f *fakeRevisionStore) activeRevision(productID uuid.UUID, viewType models.ViewType) *models.ProductImageRevision {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.revisions {
		if r.ProductID == productID && r.ViewType == viewType && r.IsActive {
			out := *r
			return &out
		}
	}
	return nil
}

func (f *fakeRevisionStore) revisionCount(productID uuid.UUID, viewType models.ViewType) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.revisions {
		if r.ProductID == productID && r.ViewType == viewType {
			n++
		}
	}
	return n
}

func (f *fakeRevisionStore) productViewURL(productID uuid.UUID, viewType models.ViewType) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.productViews[viewKey(productID, viewType)]
}

func viewKey(productID uuid.UUID, viewType models.ViewType) string {
	return productID.String() + "/" + string(viewType)
}

type fakeApprovalStore struct {
	mu        sync.Mutex
	approvals map[uuid.UUID]*models.FrontViewApproval
}

func newFakeApprovalStore() *fakeApprovalStore {
	return &fakeApprovalStore{approvals: make(map[uuid.UUID]*models.FrontViewApproval)}
}

func (f *fakeApprovalStore) CreateApproval(ctx context.Context, approval *models.FrontViewApproval) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored := *approval
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.Status = models.ApprovalPending
	f.approvals[stored.ID] = &stored
	approval.ID = stored.ID
	approval.Status = stored.Status
	return nil
}

func (f *fakeApprovalStore) GetApproval(ctx context.Context, approvalID uuid.UUID) (*models.FrontViewApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[approvalID]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	out := *a
	return &out, nil
}

func (f *fakeApprovalStore) ResolveApproval(ctx context.Context, approvalID uuid.UUID, status string) (*models.FrontViewApproval, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.approvals[approvalID]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	if a.Status != models.ApprovalPending {
		return nil, database.ErrApprovalResolved
	}
	a.Status = status
	out := *a
	return &out, nil
}

type fakeModelStore struct {
	mu     sync.Mutex
	models map[uuid.UUID]*models.Product3DModel
}

func newFakeModelStore() *fakeModelStore {
	return &fakeModelStore{models: make(map[uuid.UUID]*models.Product3DModel)}
}

func (f *fakeModelStore) CreateModel(ctx context.Context, m *models.Product3DModel) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	maxVersion := 0
	for _, existing := range f.models {
		if existing.SourceType == m.SourceType && existing.SourceID == m.SourceID {
			if existing.Version > maxVersion {
				maxVersion = existing.Version
			}
			existing.IsActive = false
		}
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Version = maxVersion + 1
	m.IsActive = true
	stored := *m
	f.models[m.ID] = &stored
	return nil
}

func (f *fakeModelStore) GetModel(ctx context.Context, modelID uuid.UUID) (*models.Product3DModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[modelID]
	if !ok {
		return nil, database.ErrRecordNotFound
	}
	out := *m
	return &out, nil
}

func (f *fakeModelStore) GetModelByTaskID(ctx context.Context, taskID string) (*models.Product3DModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.models {
		if m.TaskID == taskID {
			out := *m
			return &out, nil
		}
	}
	return nil, database.ErrRecordNotFound
}

func (f *fakeModelStore) UpdateModelTask(ctx context.Context, taskID string, upd database.ModelTaskUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.models {
		if m.TaskID != taskID {
			continue
		}
		m.Status = upd.Status
		m.Progress = upd.Progress
		if upd.ModelURLs != nil {
			m.ModelURLs = upd.ModelURLs
		}
		if upd.ThumbnailURL != "" {
			m.ThumbnailURL.String = upd.ThumbnailURL
			m.ThumbnailURL.Valid = true
		}
		if len(upd.TextureURLs) > 0 {
			m.TextureURLs = upd.TextureURLs
		}
		if upd.TaskError != "" {
			m.TaskError.String = upd.TaskError
			m.TaskError.Valid = true
		}
		if upd.FinishedAt != nil {
			m.FinishedAt.Time = *upd.FinishedAt
			m.FinishedAt.Valid = true
		}
		return nil
	}
	return database.ErrRecordNotFound
}

func (f *fakeModelStore) ListModels(ctx context.Context, sourceType models.SourceType, sourceID string, includeAll bool) ([]models.Product3DModel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product3DModel
	for _, m := range f.models {
		if m.SourceType != sourceType || m.SourceID != sourceID {
			continue
		}
		if !includeAll && !m.IsActive && m.Status != models.ModelStatusSucceeded {
			continue
		}
		out = append(out, *m)
	}
	return out, nil
}

func (f *fakeModelStore) SetActiveModel(ctx context.Context, modelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	target, ok := f.models[modelID]
	if !ok {
		return database.ErrRecordNotFound
	}
	for _, m := range f.models {
		if m.SourceType == target.SourceType && m.SourceID == target.SourceID {
			m.IsActive = false
		}
	}
	target.IsActive = true
	return nil
}

func (f *fakeModelStore) DeleteModel(ctx context.Context, modelID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.models[modelID]
	if !ok {
		return database.ErrRecordNotFound
	}
	if m.IsActive {
		return database.ErrActiveVersion
	}
	delete(f.models, modelID)
	return nil
}

// fakeGenerator returns canned image bytes. failures makes the next N calls
// fail; failFromCall makes every call from that ordinal onward fail.
type fakeGenerator struct {
	mu            sync.Mutex
	image         []byte
	failures      int
	failFromCall  int
	generateCalls int
	editCalls     int
	lastPrompt    string
	lastReference []byte
}

func (f *fakeGenerator) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.generateCalls++
	f.lastPrompt = prompt
	return f.result(f.generateCalls + f.editCalls)
}

func (f *fakeGenerator) EditImage(ctx context.Context, reference []byte, mimeType, prompt string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editCalls++
	f.lastPrompt = prompt
	f.lastReference = reference
	return f.result(f.generateCalls + f.editCalls)
}

func (f *fakeGenerator) result(call int) ([]byte, error) {
	if f.failFromCall > 0 && call >= f.failFromCall {
		return nil, fmt.Errorf("generation overloaded")
	}
	if f.failures > 0 {
		f.failures--
		return nil, fmt.Errorf("generation overloaded")
	}
	return f.image, nil
}

type fakeAnalyzer struct {
	analysis    *models.ProductAnalysis
	printPrompt string
	err         error
}

func (f *fakeAnalyzer) AnalyzeProductImage(ctx context.Context, imageURL string) (*models.ProductAnalysis, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.analysis != nil {
		return f.analysis, nil
	}
	return &models.ProductAnalysis{ProductType: "t-shirt", Color: "red"}, nil
}

func (f *fakeAnalyzer) ExtractPrintPrompt(ctx context.Context, imageURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	if f.printPrompt != "" {
		return f.printPrompt, nil
	}
	return "red roses on a cream background", nil
}

// fakeStorage records uploads and deletions and serves FetchURL from a
// canned byte map.
type fakeStorage struct {
	mu       sync.Mutex
	urls     map[string][]byte
	uploads  map[string][]byte
	types    map[string]string
	deleted  []string
	fetchErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		urls:    make(map[string][]byte),
		uploads: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeStorage) UploadProductImage(userID, productID uuid.UUID, filename string, data []byte, contentType string) (string, string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	path := fmt.Sprintf("users/%s/products/%s/%s", userID, productID, filename)
	url := "https://storage.test/" + path
	f.uploads[filename] = data
	f.types[filename] = contentType
	f.urls[url] = data
	return path, url, nil
}

func (f *fakeStorage) DeleteFile(storagePath string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, storagePath)
	return nil
}

func (f *fakeStorage) FetchURL(url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	if data, ok := f.urls[url]; ok {
		return data, nil
	}
	return []byte("reference-image"), nil
}

type fakeMeshy struct {
	mu        sync.Mutex
	taskID    string
	createErr error
	task      *meshy.TaskResponse
	getErr    error
	created   [][]string
}

func (f *fakeMeshy) CreateTask(ctx context.Context, imageURLs []string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = append(f.created, imageURLs)
	if f.taskID == "" {
		f.taskID = "task-" + uuid.New().String()
	}
	return f.taskID, nil
}

func (f *fakeMeshy) GetTask(ctx context.Context, taskID string) (*meshy.TaskResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.task != nil {
		out := *f.task
		return &out, nil
	}
	return &meshy.TaskResponse{ID: taskID, Status: models.ModelStatusInProgress, Progress: 40}, nil
}

type fakeConverter struct {
	mu     sync.Mutex
	output []byte
	err    error
	calls  int
	format string
}

func (f *fakeConverter) Convert(ctx context.Context, filename string, data []byte, outputFormat string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.format = outputFormat
	if f.err != nil {
		return nil, f.err
	}
	if f.output != nil {
		return f.output, nil
	}
	return []byte("%!PS-Adobe-3.0 EPSF-3.0"), nil
}

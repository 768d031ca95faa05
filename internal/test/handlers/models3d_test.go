package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/database"
	"genpire-backend/internal/handlers"
	"genpire-backend/internal/logger"
	"genpire-backend/internal/middleware"
	"genpire-backend/internal/models"
	"genpire-backend/internal/services"
	"genpire-backend/internal/supabase"
)

// stubModelStore records created models in memory; everything it does not
// hold reports ErrRecordNotFound.
type stubModelStore struct {
	created []*models.Product3DModel
}

func (s *stubModelStore) CreateModel(ctx context.Context, m *models.Product3DModel) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.Version = len(s.created) + 1
	m.IsActive = true
	s.created = append(s.created, m)
	return nil
}

func (s *stubModelStore) GetModel(ctx context.Context, modelID uuid.UUID) (*models.Product3DModel, error) {
	for _, m := range s.created {
		if m.ID == modelID {
			return m, nil
		}
	}
	return nil, database.ErrRecordNotFound
}

func (s *stubModelStore) GetModelByTaskID(ctx context.Context, taskID string) (*models.Product3DModel, error) {
	for _, m := range s.created {
		if m.TaskID == taskID {
			return m, nil
		}
	}
	return nil, database.ErrRecordNotFound
}

func (s *stubModelStore) UpdateModelTask(ctx context.Context, taskID string, upd database.ModelTaskUpdate) error {
	for _, m := range s.created {
		if m.TaskID == taskID {
			m.Status = upd.Status
			m.Progress = upd.Progress
			return nil
		}
	}
	return database.ErrRecordNotFound
}

func (s *stubModelStore) ListModels(ctx context.Context, sourceType models.SourceType, sourceID string, includeAll bool) ([]models.Product3DModel, error) {
	return nil, nil
}

func (s *stubModelStore) SetActiveModel(ctx context.Context, modelID uuid.UUID) error {
	return database.ErrRecordNotFound
}

func (s *stubModelStore) DeleteModel(ctx context.Context, modelID uuid.UUID) error {
	return database.ErrRecordNotFound
}

type stubMeshy struct {
	taskID string
	task   *meshy.TaskResponse
	err    error
}

func (s *stubMeshy) CreateTask(ctx context.Context, imageURLs []string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.taskID, nil
}

func (s *stubMeshy) GetTask(ctx context.Context, taskID string) (*meshy.TaskResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.task != nil {
		return s.task, nil
	}
	return &meshy.TaskResponse{ID: taskID, Status: models.ModelStatusPending}, nil
}

// injectUser stands in for the auth middleware.
func injectUser(userID uuid.UUID) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserIDKey, userID)
		c.Next()
	}
}

func model3DRouter(store *stubModelStore, api *stubMeshy) *gin.Engine {
	gin.SetMode(gin.TestMode)
	service := services.NewModel3DService(store, api, supabase.NewRealtimeClient(nil), logger.Nop())
	handler := handlers.NewModel3DHandler(service)

	router := gin.New()
	router.Use(injectUser(uuid.New()))
	router.POST("/api/generate-3d-model", handler.Generate)
	router.GET("/api/generate-3d-model", handler.Status)
	return router
}

func postJSON(t *testing.T, router *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req, _ := http.NewRequest("POST", path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGenerate_InvalidSourceType(t *testing.T) {
	router := model3DRouter(&stubModelStore{}, &stubMeshy{taskID: "task-1"})

	w := postJSON(t, router, "/api/generate-3d-model", models.Generate3DModelRequest{
		SourceType: "warehouse",
		SourceID:   "prod-1",
		ImageURLs: models.InputImageURLs{
			Front: "https://storage.test/front.png",
			Back:  "https://storage.test/back.png",
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sourceType")
}

func TestGenerate_MissingSourceID(t *testing.T) {
	router := model3DRouter(&stubModelStore{}, &stubMeshy{taskID: "task-1"})

	w := postJSON(t, router, "/api/generate-3d-model", models.Generate3DModelRequest{
		SourceType: "product",
		ImageURLs: models.InputImageURLs{
			Front: "https://storage.test/front.png",
			Back:  "https://storage.test/back.png",
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "sourceId is required")
}

func TestGenerate_MissingBackImage(t *testing.T) {
	store := &stubModelStore{}
	router := model3DRouter(store, &stubMeshy{taskID: "task-1"})

	w := postJSON(t, router, "/api/generate-3d-model", models.Generate3DModelRequest{
		SourceType: "product",
		SourceID:   "prod-1",
		ImageURLs: models.InputImageURLs{
			Front: "https://storage.test/front.png",
		},
	})

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "front and back images are required")
	assert.Empty(t, store.created)
}

func TestGenerate_Success(t *testing.T) {
	store := &stubModelStore{}
	router := model3DRouter(store, &stubMeshy{taskID: "task-42"})

	w := postJSON(t, router, "/api/generate-3d-model", models.Generate3DModelRequest{
		SourceType: "product",
		SourceID:   "prod-1",
		ImageURLs: models.InputImageURLs{
			Front: "https://storage.test/front.png",
			Back:  "https://storage.test/back.png",
		},
	})

	require.Equal(t, http.StatusOK, w.Code)

	var resp models.Generate3DModelResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "task-42", resp.TaskID)
	assert.NotEmpty(t, resp.ModelID)
	require.Len(t, store.created, 1)
	assert.Equal(t, models.ModelStatusPending, store.created[0].Status)
}

func TestStatus_MissingTaskID(t *testing.T) {
	router := model3DRouter(&stubModelStore{}, &stubMeshy{taskID: "task-1"})

	req, _ := http.NewRequest("GET", "/api/generate-3d-model", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "taskId is required")
}

func TestStatus_UnknownTask(t *testing.T) {
	router := model3DRouter(&stubModelStore{}, &stubMeshy{taskID: "task-1"})

	req, _ := http.NewRequest("GET", "/api/generate-3d-model?taskId=task-unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatus_PropagatesUpstreamCode(t *testing.T) {
	store := &stubModelStore{}
	api := &stubMeshy{taskID: "task-1"}
	router := model3DRouter(store, api)

	w := postJSON(t, router, "/api/generate-3d-model", models.Generate3DModelRequest{
		SourceType: "product",
		SourceID:   "prod-1",
		ImageURLs: models.InputImageURLs{
			Front: "https://storage.test/front.png",
			Back:  "https://storage.test/back.png",
		},
	})
	require.Equal(t, http.StatusOK, w.Code)

	api.err = &meshy.StatusError{StatusCode: http.StatusTooManyRequests, Body: "rate limited"}

	req, _ := http.NewRequest("GET", "/api/generate-3d-model?taskId=task-1", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

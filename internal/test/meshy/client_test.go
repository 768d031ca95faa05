package meshy_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genpire-backend/internal/clients/meshy"
)

func TestCreateTask(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/multi-image-to-3d", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req meshy.CreateTaskRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Len(t, req.ImageURLs, 2)
		assert.True(t, req.ShouldTexture)

		json.NewEncoder(w).Encode(meshy.CreateTaskResponse{Result: "task-123"})
	}))
	defer server.Close()

	client := meshy.NewClient(server.URL, "test-key")
	taskID, err := client.CreateTask(context.Background(), []string{
		"https://storage.test/front.png",
		"https://storage.test/back.png",
	})
	require.NoError(t, err)
	assert.Equal(t, "task-123", taskID)
}

func TestCreateTask_UpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"message":"insufficient credits"}`))
	}))
	defer server.Close()

	client := meshy.NewClient(server.URL, "test-key")
	_, err := client.CreateTask(context.Background(), []string{"https://storage.test/front.png"})
	require.Error(t, err)

	var statusErr *meshy.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusPaymentRequired, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "insufficient credits")
}

func TestGetTask(t *testing.T) {
	finished := time.Now().UnixMilli()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/multi-image-to-3d/task-123", r.URL.Path)

		json.NewEncoder(w).Encode(meshy.TaskResponse{
			ID:         "task-123",
			Status:     "SUCCEEDED",
			Progress:   100,
			ModelURLs:  map[string]string{"glb": "https://assets.test/model.glb"},
			FinishedAt: finished,
		})
	}))
	defer server.Close()

	client := meshy.NewClient(server.URL, "test-key")
	task, err := client.GetTask(context.Background(), "task-123")
	require.NoError(t, err)
	assert.Equal(t, "SUCCEEDED", task.Status)
	assert.Equal(t, "https://assets.test/model.glb", task.ModelURLs["glb"])

	finishedAt, ok := task.FinishedTime()
	require.True(t, ok)
	assert.Equal(t, time.UnixMilli(finished), finishedAt)
}

func TestFinishedTime_ZeroWhileRunning(t *testing.T) {
	task := &meshy.TaskResponse{Status: "IN_PROGRESS"}
	_, ok := task.FinishedTime()
	assert.False(t, ok)
}

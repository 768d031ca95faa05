package meshy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to the Meshy multi-image-to-3D API. Jobs are asynchronous
// and take on the order of minutes; callers submit, keep the task id, and
// poll for status.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

type CreateTaskRequest struct {
	ImageURLs     []string `json:"image_urls"`
	ShouldTexture bool     `json:"should_texture,omitempty"`
	EnablePBR     bool     `json:"enable_pbr,omitempty"`
}

type CreateTaskResponse struct {
	Result string `json:"result"`
}

type TaskError struct {
	Message string `json:"message"`
}

type TextureURL struct {
	BaseColor string `json:"base_color,omitempty"`
	Metallic  string `json:"metallic,omitempty"`
	Normal    string `json:"normal,omitempty"`
	Roughness string `json:"roughness,omitempty"`
}

type TaskResponse struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"` // PENDING, IN_PROGRESS, SUCCEEDED, FAILED, EXPIRED
	Progress     int               `json:"progress"`
	ModelURLs    map[string]string `json:"model_urls"`
	ThumbnailURL string            `json:"thumbnail_url"`
	TextureURLs  []TextureURL      `json:"texture_urls"`
	TaskError    *TaskError        `json:"task_error"`
	FinishedAt   int64             `json:"finished_at"` // unix millis, 0 while running
}

// FinishedTime converts the millisecond timestamp, reporting whether the
// task has finished at all.
func (t *TaskResponse) FinishedTime() (time.Time, bool) {
	if t.FinishedAt == 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(t.FinishedAt), true
}

// StatusError carries the upstream HTTP status so handlers can propagate it.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("meshy request failed: status %d, body: %s", e.StatusCode, e.Body)
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// CreateTask submits the view images for reconstruction and returns the
// task id.
func (c *Client) CreateTask(ctx context.Context, imageURLs []string) (string, error) {
	jsonData, err := json.Marshal(CreateTaskRequest{
		ImageURLs:     imageURLs,
		ShouldTexture: true,
		EnablePBR:     true,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/multi-image-to-3d"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return "", &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result CreateTaskResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.Result == "" {
		return "", fmt.Errorf("task id is empty in response, body: %s", string(body))
	}

	return result.Result, nil
}

// GetTask fetches the current state of a generation task.
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskResponse, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/multi-image-to-3d/" + taskID
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var result TaskResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return &result, nil
}

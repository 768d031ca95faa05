package cloudconvert

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"genpire-backend/internal/retry"
)

// Client drives CloudConvert jobs: import the source image, convert it to
// the target format, export by URL, then download the result. Jobs are
// asynchronous, so Convert polls with a bounded fixed-interval policy.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	// PollPolicy bounds how long Convert waits for a job to finish.
	PollPolicy retry.Policy
}

type jobRequest struct {
	Tasks map[string]map[string]interface{} `json:"tasks"`
}

type jobResponse struct {
	Data struct {
		ID     string `json:"id"`
		Status string `json:"status"` // waiting, processing, finished, error
		Tasks  []struct {
			Name      string `json:"name"`
			Operation string `json:"operation"`
			Status    string `json:"status"`
			Message   string `json:"message"`
			Result    struct {
				Files []struct {
					Filename string `json:"filename"`
					URL      string `json:"url"`
				} `json:"files"`
			} `json:"result"`
		} `json:"tasks"`
	} `json:"data"`
}

func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		PollPolicy: retry.Policy{
			MaxAttempts: 15,
			Backoff:     retry.FixedBackoff(2 * time.Second),
		},
	}
}

// Convert runs a full import-convert-export job and returns the converted
// bytes. Poll exhaustion surfaces as an error; the caller decides whether
// that is fatal.
func (c *Client) Convert(ctx context.Context, filename string, data []byte, outputFormat string) ([]byte, error) {
	jobID, err := c.createJob(ctx, filename, data, outputFormat)
	if err != nil {
		return nil, err
	}

	var downloadURL string
	err = c.PollPolicy.Do(ctx, func(ctx context.Context) error {
		job, err := c.getJob(ctx, jobID)
		if err != nil {
			return err
		}
		switch job.Data.Status {
		case "finished":
			url, err := exportURL(job)
			if err != nil {
				return err
			}
			downloadURL = url
			return nil
		case "error":
			return fmt.Errorf("conversion job %s failed: %s", jobID, jobError(job))
		default:
			return fmt.Errorf("conversion job %s still %s", jobID, job.Data.Status)
		}
	})
	if err != nil {
		return nil, err
	}

	return c.download(ctx, downloadURL)
}

func (c *Client) createJob(ctx context.Context, filename string, data []byte, outputFormat string) (string, error) {
	reqBody := jobRequest{
		Tasks: map[string]map[string]interface{}{
			"import-file": {
				"operation": "import/base64",
				"file":      base64.StdEncoding.EncodeToString(data),
				"filename":  filename,
			},
			"convert-file": {
				"operation":     "convert",
				"input":         "import-file",
				"output_format": outputFormat,
			},
			"export-file": {
				"operation": "export/url",
				"input":     "convert-file",
			},
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job request: %w", err)
	}

	url := strings.TrimSuffix(c.baseURL, "/") + "/jobs"
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

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("failed to create conversion job: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result jobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	if result.Data.ID == "" {
		return "", fmt.Errorf("job id is empty in response, body: %s", string(body))
	}

	return result.Data.ID, nil
}

func (c *Client) getJob(ctx context.Context, jobID string) (*jobResponse, error) {
	url := strings.TrimSuffix(c.baseURL, "/") + "/jobs/" + jobID
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
		return nil, fmt.Errorf("failed to get conversion job: status %d, body: %s", resp.StatusCode, string(body))
	}

	var result jobResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w, body: %s", err, string(body))
	}

	return &result, nil
}

func (c *Client) download(ctx context.Context, downloadURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", downloadURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("failed to download result: status %d, body: %s", resp.StatusCode, string(body))
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read result: %w", err)
	}

	return data, nil
}

func exportURL(job *jobResponse) (string, error) {
	for _, task := range job.Data.Tasks {
		if task.Operation == "export/url" && len(task.Result.Files) > 0 {
			return task.Result.Files[0].URL, nil
		}
	}
	return "", fmt.Errorf("finished job has no export url")
}

func jobError(job *jobResponse) string {
	for _, task := range job.Data.Tasks {
		if task.Status == "error" && task.Message != "" {
			return task.Message
		}
	}
	return "unknown error"
}

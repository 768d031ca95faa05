package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// Client wraps the Gemini image model for product-view generation and
// reference-constrained editing.
type Client struct {
	api   *genai.Client
	model string
}

func NewClient(ctx context.Context, apiKey, model string) (*Client, error) {
	api, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{api: api, model: model}, nil
}

// GenerateImage synthesizes an image from a text prompt and returns the raw
// image bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) ([]byte, error) {
	resp, err := c.api.Models.GenerateContent(ctx, c.model, genai.Text(prompt), &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate image: %w", err)
	}

	return firstImage(resp)
}

// EditImage generates an image conditioned on a reference image plus an
// instruction. Callers are expected to have folded identity-preservation
// constraints into the prompt already.
func (c *Client) EditImage(ctx context.Context, reference []byte, mimeType, prompt string) ([]byte, error) {
	if mimeType == "" {
		mimeType = "image/png"
	}
	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				genai.NewPartFromBytes(reference, mimeType),
				genai.NewPartFromText(prompt),
			},
		},
	}

	resp, err := c.api.Models.GenerateContent(ctx, c.model, contents, &genai.GenerateContentConfig{
		ResponseModalities: []string{"IMAGE", "TEXT"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to edit image: %w", err)
	}

	return firstImage(resp)
}

func firstImage(resp *genai.GenerateContentResponse) ([]byte, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("image model returned no candidates")
	}
	for _, part := range resp.Candidates[0].Content.Parts {
		if part.InlineData != nil && len(part.InlineData.Data) > 0 {
			return part.InlineData.Data, nil
		}
	}
	return nil, fmt.Errorf("image model returned no image data")
}

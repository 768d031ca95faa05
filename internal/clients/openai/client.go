package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"genpire-backend/internal/models"
)

// Client wraps the OpenAI vision-capable chat models for the two text
// extractions the generation pipeline needs: structured product analysis of
// a reference image, and fabric-print prompt extraction.
type Client struct {
	api   *openai.Client
	model string
}

func NewClient(apiKey, model string) *Client {
	return &Client{
		api:   openai.NewClient(apiKey),
		model: model,
	}
}

const analysisPrompt = `Analyze the product in this image and respond with a JSON object containing exactly these fields:
{"product_type": "...", "category": "...", "color": "...", "key_features": ["...", "..."], "style": "..."}
product_type is what the item is (e.g. "hoodie", "tote bag"). category is its product family. color is the dominant color. key_features lists every distinctive visual element that identifies this specific product (prints, hardware, stitching, silhouette details). style is the overall design style. Respond with the JSON object only.`

// AnalyzeProductImage extracts a structured description of the product in
// the referenced image. The result is threaded into edit prompts so the
// image model keeps the product's identity instead of inventing a new one.
func (c *Client) AnalyzeProductImage(ctx context.Context, imageURL string) (*models.ProductAnalysis, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: analysisPrompt,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to analyze product image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("product analysis returned no choices")
	}

	var analysis models.ProductAnalysis
	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if err := json.Unmarshal([]byte(content), &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode product analysis: %w, content: %s", err, content)
	}
	if analysis.ProductType == "" {
		return nil, fmt.Errorf("product analysis missing product_type, content: %s", content)
	}

	return &analysis, nil
}

const printPromptInstruction = `Look at the repeating print pattern on the product in this image. Describe that pattern as a close-up, seamless, square fabric tile: the motif, its density, and the exact color palette. Describe only the flat printed pattern itself. Exclude the garment's shape, any body or background context, folds, and shadows. Respond with the description text only.`

// ExtractPrintPrompt describes the product's repeating print pattern as a
// seamless square tile, for use as an image-generation prompt.
func (c *Client) ExtractPrintPrompt(ctx context.Context, imageURL string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{
						Type: openai.ChatMessagePartTypeText,
						Text: printPromptInstruction,
					},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    imageURL,
							Detail: openai.ImageURLDetailHigh,
						},
					},
				},
			},
		},
	})
	if err != nil {
		return "", fmt.Errorf("failed to extract print prompt: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("print prompt extraction returned no choices")
	}

	prompt := strings.TrimSpace(resp.Choices[0].Message.Content)
	if prompt == "" {
		return "", fmt.Errorf("print prompt extraction returned empty text")
	}

	return prompt, nil
}

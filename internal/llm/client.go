// Package llm abstracts the text-generation collaborator. One call per
// email, stateless, no conversation state carried between calls.
package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Client is the model collaborator contract consumed by the extraction
// engine.
type Client interface {
	// Generate submits a fixed instruction block together with one input
	// document and returns the model's raw text response.
	Generate(ctx context.Context, instructions, input string) (string, error)
	// Close releases any resources held by the client.
	Close() error
}

// GeminiClient implements Client on Google Gemini.
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGemini creates a Gemini-backed client. The API key is required; a
// missing or rejected key is a fatal, caller-surfaced error.
func NewGemini(ctx context.Context, model, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if model == "" {
		return nil, fmt.Errorf("model name is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{client: client, model: model}, nil
}

// Generate implements Client. Instructions ride as the system instruction so
// the email body is the only user content.
func (c *GeminiClient) Generate(ctx context.Context, instructions, input string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(0.1) // low temperature for consistent structured output
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(instructions)},
	}

	resp, err := model.GenerateContent(ctx, genai.Text(input))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}

	return extractTextFromResponse(resp)
}

// Close releases resources held by the client.
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse joins the text parts of the first candidate.
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

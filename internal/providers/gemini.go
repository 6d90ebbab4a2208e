package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

const (
	GeminiName         = "gemini"
	geminiDefaultModel = "gemini-1.5-flash"
)

// GeminiConfig holds configuration for the Gemini client.
type GeminiConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
}

// GeminiClient implements Generator using the google.golang.org/genai SDK.
// Gemini returns content as segmented parts that must be concatenated.
type GeminiClient struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = geminiDefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.APIKey})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GeminiClient{
		client:    client,
		model:     cfg.Model,
		maxTokens: int32(cfg.MaxOutputTokens),
	}, nil
}

// Name returns the provider identifier.
func (c *GeminiClient) Name() string { return GeminiName }

// Generate sends one generation request and concatenates the response parts.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{MaxOutputTokens: c.maxTokens},
	)
	if err != nil {
		var apiErr genai.APIError
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Provider: GeminiName,
				Kind:     KindAPI,
				Message:  fmt.Sprintf("status %d: %s", apiErr.Code, apiErr.Message),
				Err:      err,
			}
		}
		return nil, &ProviderError{
			Provider: GeminiName,
			Kind:     KindTransport,
			Message:  err.Error(),
			Err:      err,
		}
	}

	if resp == nil {
		return nil, &ProviderError{
			Provider: GeminiName,
			Kind:     KindBadResponse,
			Message:  "nil response from genai",
		}
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return &Result{Model: c.model}, nil
	}

	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			b.WriteString(part.Text)
		}
	}

	return &Result{Text: b.String(), Model: c.model}, nil
}

package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	OpenRouterName    = "openrouter"
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"

	openRouterDefaultModel = "anthropic/claude-3.5-sonnet"
)

// OpenRouterConfig holds configuration for the OpenRouter client.
type OpenRouterConfig struct {
	APIKey          string
	BaseURL         string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
	HTTPClient      *http.Client // Optional (tests)
}

// OpenRouterClient implements Generator over OpenRouter's chat-completions
// endpoint. The response wraps content in a choice list.
type OpenRouterClient struct {
	apiKey    string
	baseURL   string
	model     string
	maxTokens int
	client    *http.Client
}

type openRouterMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openRouterRequest struct {
	Model     string              `json:"model"`
	Messages  []openRouterMessage `json:"messages"`
	MaxTokens int                 `json:"max_tokens,omitempty"`
}

type openRouterResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Code    any    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenRouterClient creates a new OpenRouter client.
func NewOpenRouterClient(cfg OpenRouterConfig) *OpenRouterClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = OpenRouterBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = openRouterDefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenRouterClient{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		model:     cfg.Model,
		maxTokens: cfg.MaxOutputTokens,
		client:    client,
	}
}

// Name returns the provider identifier.
func (c *OpenRouterClient) Name() string { return OpenRouterName }

// Generate sends a single chat-completion request, no retries.
func (c *OpenRouterClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	orReq := openRouterRequest{
		Model: c.model,
		Messages: []openRouterMessage{
			{Role: "user", Content: prompt},
		},
		MaxTokens: c.maxTokens,
	}

	bodyBytes, err := json.Marshal(orReq)
	if err != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindBadResponse,
			Message:  fmt.Sprintf("marshal request: %v", err),
			Err:      err,
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindTransport,
			Message:  fmt.Sprintf("create request: %v", err),
			Err:      err,
		}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindTransport,
			Message:  err.Error(),
			Err:      err,
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindTransport,
			Message:  fmt.Sprintf("read response: %v", err),
			Err:      err,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindAPI,
			Message:  fmt.Sprintf("status %d: %s", resp.StatusCode, string(respBody)),
		}
	}

	var orResp openRouterResponse
	if err := json.Unmarshal(respBody, &orResp); err != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindBadResponse,
			Message:  fmt.Sprintf("unmarshal response: %v", err),
			Err:      err,
		}
	}

	if orResp.Error != nil {
		return nil, &ProviderError{
			Provider: OpenRouterName,
			Kind:     KindAPI,
			Message:  fmt.Sprintf("code %v: %s", orResp.Error.Code, orResp.Error.Message),
		}
	}

	// No choices is treated as an empty answer, not a malformed one: the API
	// accepted the request and declared no content.
	if len(orResp.Choices) == 0 {
		return &Result{Model: orResp.Model}, nil
	}

	return &Result{Text: orResp.Choices[0].Message.Content, Model: orResp.Model}, nil
}

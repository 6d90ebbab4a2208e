package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4.1"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	MaxOutputTokens int
	Timeout         time.Duration
	BaseURL         string       // Optional (tests)
	HTTPClient      *http.Client // Optional (tests)
}

// OpenAIClient implements Generator using the official OpenAI SDK's
// Responses API, which exposes the output as a single text field.
type OpenAIClient struct {
	client    openai.Client
	model     string
	maxTokens int64
}

// NewOpenAIClient creates a new OpenAI client. SDK-level retries are
// disabled; the lifecycle controller owns retry policy.
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openAIDefaultModel
	}
	if cfg.MaxOutputTokens <= 0 {
		cfg.MaxOutputTokens = 2048
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		client:    openai.NewClient(opts...),
		model:     cfg.Model,
		maxTokens: int64(cfg.MaxOutputTokens),
	}, nil
}

// Name returns the provider identifier.
func (c *OpenAIClient) Name() string { return OpenAIName }

// Generate sends one generation request through the Responses API.
func (c *OpenAIClient) Generate(ctx context.Context, prompt string) (*Result, error) {
	resp, err := c.client.Responses.New(ctx, responses.ResponseNewParams{
		Model:           shared.ResponsesModel(c.model),
		Input:           responses.ResponseNewParamsInputUnion{OfString: openai.String(prompt)},
		MaxOutputTokens: openai.Int(c.maxTokens),
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return nil, &ProviderError{
				Provider: OpenAIName,
				Kind:     KindAPI,
				Message:  fmt.Sprintf("status %d: %v", apiErr.StatusCode, apiErr),
				Err:      err,
			}
		}
		return nil, &ProviderError{
			Provider: OpenAIName,
			Kind:     KindTransport,
			Message:  err.Error(),
			Err:      err,
		}
	}

	if resp == nil {
		return nil, &ProviderError{
			Provider: OpenAIName,
			Kind:     KindBadResponse,
			Message:  "nil response from openai",
		}
	}

	return &Result{Text: resp.OutputText(), Model: string(resp.Model)}, nil
}

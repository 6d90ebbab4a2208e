// Package config loads process configuration from the environment and fails
// fast when mandatory settings are absent.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Provider names accepted by LLM_PROVIDER.
const (
	ProviderGemini     = "gemini"
	ProviderOpenAI     = "openai"
	ProviderOpenRouter = "openrouter"
)

// ConfigurationError is fatal: the process must not start without the store
// location, the task queue, and a credential for the selected provider.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Config holds everything the api and worker binaries need at startup.
type Config struct {
	SubmissionsTable string
	TasksQueueURL    string
	TTLWindow        time.Duration

	Provider         string
	GeminiAPIKey     string
	GeminiModel      string
	OpenAIAPIKey     string
	OpenAIModel      string
	OpenRouterAPIKey string
	OpenRouterModel  string
	MaxOutputTokens  int

	MetricsNamespace string
	RunLocal         bool
	ListenAddr       string
}

// Load reads configuration from the environment and validates it.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("LLM_PROVIDER", ProviderGemini)
	v.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	v.SetDefault("OPENAI_MODEL", "gpt-4.1")
	v.SetDefault("OPENROUTER_MODEL", "anthropic/claude-3.5-sonnet")
	v.SetDefault("MAX_OUTPUT_TOKENS", 2048)
	v.SetDefault("RECORD_TTL_HOURS", 48)
	v.SetDefault("METRICS_NAMESPACE", "formflow")
	v.SetDefault("LISTEN_ADDR", ":8080")

	cfg := &Config{
		SubmissionsTable: v.GetString("SUBMISSIONS_TABLE"),
		TasksQueueURL:    v.GetString("TASKS_QUEUE_URL"),
		TTLWindow:        time.Duration(v.GetInt("RECORD_TTL_HOURS")) * time.Hour,
		Provider:         strings.ToLower(v.GetString("LLM_PROVIDER")),
		GeminiAPIKey:     v.GetString("GEMINI_API_KEY"),
		GeminiModel:      v.GetString("GEMINI_MODEL"),
		OpenAIAPIKey:     v.GetString("OPENAI_API_KEY"),
		OpenAIModel:      v.GetString("OPENAI_MODEL"),
		OpenRouterAPIKey: v.GetString("OPENROUTER_API_KEY"),
		OpenRouterModel:  v.GetString("OPENROUTER_MODEL"),
		MaxOutputTokens:  v.GetInt("MAX_OUTPUT_TOKENS"),
		MetricsNamespace: v.GetString("METRICS_NAMESPACE"),
		RunLocal:         v.GetBool("RUN_LOCAL"),
		ListenAddr:       v.GetString("LISTEN_ADDR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.SubmissionsTable == "" {
		return &ConfigurationError{Reason: "SUBMISSIONS_TABLE is required"}
	}
	if c.TasksQueueURL == "" {
		return &ConfigurationError{Reason: "TASKS_QUEUE_URL is required"}
	}

	switch c.Provider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return &ConfigurationError{Reason: "GEMINI_API_KEY is required when LLM_PROVIDER=gemini"}
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return &ConfigurationError{Reason: "OPENAI_API_KEY is required when LLM_PROVIDER=openai"}
		}
	case ProviderOpenRouter:
		if c.OpenRouterAPIKey == "" {
			return &ConfigurationError{Reason: "OPENROUTER_API_KEY is required when LLM_PROVIDER=openrouter"}
		}
	default:
		return &ConfigurationError{Reason: fmt.Sprintf("unknown LLM_PROVIDER %q", c.Provider)}
	}

	return nil
}

package providers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/formsight/formflow/internal/config"
)

// Registry holds the configured Generators and provides thread-safe access.
// Provider selection happens here, by configuration, never by conditional
// chains at call sites.
type Registry struct {
	mu         sync.RWMutex
	generators map[string]Generator
	logger     *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		generators: make(map[string]Generator),
		logger:     logger,
	}
}

// Register adds a Generator under a name.
func (r *Registry) Register(name string, g Generator) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generators[name] = g
	r.logger.Info("registered LLM provider", zap.String("provider", name))
}

// Get returns a Generator by name.
func (r *Registry) Get(name string) (Generator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.generators[name]
	if !ok {
		return nil, fmt.Errorf("LLM provider not found: %s", name)
	}
	return g, nil
}

// Names returns all registered provider names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.generators))
	for name := range r.generators {
		names = append(names, name)
	}
	return names
}

// NewRegistryFromConfig instantiates every provider that has a credential
// configured. The selected provider missing its credential is already a
// startup configuration failure, so at least one registration succeeds.
func NewRegistryFromConfig(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Registry, error) {
	r := NewRegistry(logger)

	if cfg.GeminiAPIKey != "" {
		client, err := NewGeminiClient(ctx, GeminiConfig{
			APIKey:          cfg.GeminiAPIKey,
			Model:           cfg.GeminiModel,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("init gemini provider: %w", err)
		}
		r.Register(GeminiName, client)
	}

	if cfg.OpenAIAPIKey != "" {
		client, err := NewOpenAIClient(OpenAIConfig{
			APIKey:          cfg.OpenAIAPIKey,
			Model:           cfg.OpenAIModel,
			MaxOutputTokens: cfg.MaxOutputTokens,
		})
		if err != nil {
			return nil, fmt.Errorf("init openai provider: %w", err)
		}
		r.Register(OpenAIName, client)
	}

	if cfg.OpenRouterAPIKey != "" {
		r.Register(OpenRouterName, NewOpenRouterClient(OpenRouterConfig{
			APIKey:          cfg.OpenRouterAPIKey,
			Model:           cfg.OpenRouterModel,
			MaxOutputTokens: cfg.MaxOutputTokens,
		}))
	}

	if _, err := r.Get(cfg.Provider); err != nil {
		return nil, fmt.Errorf("selected provider %q is not configured: %w", cfg.Provider, err)
	}

	return r, nil
}

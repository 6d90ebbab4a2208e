// Package providers abstracts the interchangeable LLM backends behind a
// single Generator capability. Backends differ only in endpoint, model
// identifier, and response-shape parsing; callers never see backend-specific
// error types.
package providers

import (
	"context"
	"errors"
	"fmt"
)

// Generator turns a prompt into generated text or a normalized failure.
// Implementations perform exactly one attempt per call: retry policy belongs
// to the lifecycle controller, not here.
type Generator interface {
	// Generate sends the prompt to the backend. A nil error with an empty
	// Result.Text means the provider answered with no content.
	Generate(ctx context.Context, prompt string) (*Result, error)

	// Name returns the provider identifier (e.g. "gemini").
	Name() string
}

// Result is a normalized successful response.
type Result struct {
	// Text is the generated text, empty when the backend returned no content.
	Text string
	// Model is the model that served the request, when the backend reports it.
	Model string
}

// ErrorKind is the machine-readable failure category.
type ErrorKind string

const (
	// KindTransport covers network and HTTP-level failures.
	KindTransport ErrorKind = "transport"
	// KindAPI covers provider-declared API errors (auth, quota, bad request).
	KindAPI ErrorKind = "api"
	// KindBadResponse covers malformed or unexpected response shapes.
	KindBadResponse ErrorKind = "bad_response"
)

// ProviderError normalizes every backend failure mode.
type ProviderError struct {
	Provider string
	Kind     ErrorKind
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s provider %s error: %s", e.Provider, e.Kind, e.Message)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// AsProviderError unwraps err into a *ProviderError when possible.
func AsProviderError(err error) (*ProviderError, bool) {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

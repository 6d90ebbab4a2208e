package providers

import (
	"context"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockGenerator is a Generator for testing.
type MockGenerator struct {
	// Configurable behavior
	Latency time.Duration
	Text    string
	Err     error

	// State
	callCount atomic.Int64
}

// NewMockGenerator returns a mock that answers with fixed text.
func NewMockGenerator(text string) *MockGenerator {
	return &MockGenerator{Text: text}
}

// Name returns the provider identifier.
func (m *MockGenerator) Name() string { return MockName }

// Generate returns the configured text or error after the configured latency.
func (m *MockGenerator) Generate(ctx context.Context, prompt string) (*Result, error) {
	m.callCount.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, &ProviderError{Provider: MockName, Kind: KindTransport, Message: ctx.Err().Error(), Err: ctx.Err()}
		case <-time.After(m.Latency):
		}
	}

	if m.Err != nil {
		return nil, m.Err
	}
	return &Result{Text: m.Text, Model: "mock-model"}, nil
}

// Calls reports how many times Generate was invoked.
func (m *MockGenerator) Calls() int64 {
	return m.callCount.Load()
}

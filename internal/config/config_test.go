package config

import (
	"errors"
	"testing"
)

func setRequiredEnv(t *testing.T) {
	t.Helper()
	t.Setenv("SUBMISSIONS_TABLE", "submissions")
	t.Setenv("TASKS_QUEUE_URL", "https://sqs.us-east-1.amazonaws.com/1/tasks")
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "test-key")
}

func TestLoad_Defaults(t *testing.T) {
	setRequiredEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.GeminiModel != "gemini-1.5-flash" {
		t.Fatalf("unexpected default model: %s", cfg.GeminiModel)
	}
	if cfg.TTLWindow.Hours() != 48 {
		t.Fatalf("unexpected default TTL: %v", cfg.TTLWindow)
	}
	if cfg.ListenAddr != ":8080" {
		t.Fatalf("unexpected default listen addr: %s", cfg.ListenAddr)
	}
}

func TestLoad_MissingTable(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("SUBMISSIONS_TABLE", "")

	_, err := Load()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestLoad_MissingProviderCredential(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("OPENAI_API_KEY", "")

	_, err := Load()
	var cfgErr *ConfigurationError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigurationError, got %v", err)
	}
}

func TestLoad_UnknownProvider(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("LLM_PROVIDER", "hal9000")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

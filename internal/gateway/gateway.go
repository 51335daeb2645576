// Package gateway abstracts the LLM behind a minimal completion interface.
// The pipeline never talks to a provider API directly; validation treats the
// model's output as untrusted text either way.
package gateway

import (
	"context"
	"fmt"

	"advisor/internal/config"
)

// LLMClient is the completion contract the pipeline depends on.
type LLMClient interface {
	// CompleteWithSystem sends a system + user prompt pair and returns the
	// raw completion text.
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)

	// Name returns the client name for logging.
	Name() string
}

// New creates an LLM client based on configuration.
func New(cfg config.LLMConfig) (LLMClient, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (use 'gemini')", cfg.Provider)
	}
}

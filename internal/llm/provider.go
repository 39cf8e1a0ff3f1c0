package llm

import (
	"context"
	"fmt"

	"github.com/chitralabs/chitra/internal/config"
)

// Provider is one chat-completion backend. The model and endpoint come from
// configuration; swapping models requires zero code change.
type Provider interface {
	// ID returns the provider identifier for logs.
	ID() string

	// Complete sends one request and returns the assistant message's raw
	// text. Transport faults (unreachable, timeout, non-2xx) return an error.
	Complete(ctx context.Context, req *ChatRequest) (string, error)

	// Close releases network resources.
	Close() error
}

// NewProvider builds the configured provider.
func NewProvider(cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case "", "ollama":
		return NewOllamaProvider(cfg.BaseURL, cfg.Model, cfg.Timeout()), nil
	case "openai":
		return NewOpenAIProvider(cfg.BaseURL, cfg.APIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

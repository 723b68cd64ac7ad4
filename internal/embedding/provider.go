package embedding

import (
	"context"
	"fmt"
)

// Provider generates embeddings from text.
// Dimensions are fixed per model and stable across calls.
type Provider interface {
	// Embed generates an embedding for the given text.
	Embed(ctx context.Context, text string) (Embedding, error)

	// ModelName returns the name of the embedding model.
	ModelName() string

	// Dimensions returns the expected vector dimensions.
	Dimensions() int
}

// Provider kinds accepted by NewProvider.
const (
	KindOllama = "ollama"
	KindOpenAI = "openai"
)

// ProviderConfig selects and configures a Provider.
type ProviderConfig struct {
	Kind       string // "ollama" (default) or "openai"
	Model      string
	BaseURL    string
	Dimensions int
	APIKeyEnv  string // environment variable holding the API key (openai only)
}

// NewProvider builds the provider described by cfg.
// Zero-valued fields fall back to each provider's defaults.
func NewProvider(cfg ProviderConfig) (Provider, error) {
	switch cfg.Kind {
	case "", KindOllama:
		var opts []OllamaOption
		if cfg.BaseURL != "" {
			opts = append(opts, WithBaseURL(cfg.BaseURL))
		}
		if cfg.Model != "" {
			opts = append(opts, WithModel(cfg.Model))
		}
		if cfg.Dimensions > 0 {
			opts = append(opts, WithDimensions(cfg.Dimensions))
		}
		return NewOllamaProvider(opts...), nil
	case KindOpenAI:
		return NewOpenAIProvider(cfg.APIKeyEnv, cfg.Model, cfg.BaseURL, cfg.Dimensions)
	default:
		return nil, fmt.Errorf("unknown embedding provider %q (valid: %s, %s)", cfg.Kind, KindOllama, KindOpenAI)
	}
}

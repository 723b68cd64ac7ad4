package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const (
	// DefaultOllamaURL is the local Ollama server.
	DefaultOllamaURL = "http://localhost:11434"

	// DefaultModel is the embedding model used when none is configured.
	DefaultModel = "nomic-embed-text"

	// DefaultTimeout bounds one embedding request.
	// The first request after Ollama starts includes model load time.
	DefaultTimeout = 30 * time.Second

	ollamaPathTags  = "/api/tags"
	ollamaPathEmbed = "/api/embed"
)

// OllamaProvider embeds text with a model served by Ollama.
type OllamaProvider struct {
	baseURL    string
	model      string
	dimensions int // 0 when the model is unknown; vectors are then not checked
	client     *http.Client
}

// OllamaOption configures an OllamaProvider.
type OllamaOption func(*OllamaProvider)

// WithBaseURL points the provider at another Ollama server.
func WithBaseURL(url string) OllamaOption {
	return func(p *OllamaProvider) {
		p.baseURL = strings.TrimRight(url, "/")
	}
}

// WithModel selects the embedding model.
func WithModel(model string) OllamaOption {
	return func(p *OllamaProvider) {
		p.model = model
	}
}

// WithDimensions overrides the expected vector size.
func WithDimensions(dims int) OllamaOption {
	return func(p *OllamaProvider) {
		p.dimensions = dims
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(timeout time.Duration) OllamaOption {
	return func(p *OllamaProvider) {
		p.client.Timeout = timeout
	}
}

// NewOllamaProvider creates a provider for DefaultModel on the local server.
// Without WithDimensions the size comes from KnownDimensions.
func NewOllamaProvider(opts ...OllamaOption) *OllamaProvider {
	p := &OllamaProvider{
		baseURL: DefaultOllamaURL,
		model:   DefaultModel,
		client:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.dimensions <= 0 {
		p.dimensions, _ = KnownDimensions(p.model)
	}
	return p
}

// send issues a request against the Ollama API and decodes a JSON reply into out.
func (p *OllamaProvider) send(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshaling request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, ollamaErrorMessage(resp.Body))
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// ollamaErrorMessage extracts the "error" field Ollama sends, or the raw body.
func ollamaErrorMessage(body io.Reader) string {
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Sprintf("(failed to read response body: %v)", err)
	}
	var parsed struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(data, &parsed) == nil && parsed.Error != "" {
		return parsed.Error
	}
	return strings.TrimSpace(string(data))
}

// Embed returns the model's vector for text.
func (p *OllamaProvider) Embed(ctx context.Context, text string) (Embedding, error) {
	var result ollamaEmbedResponse
	if err := p.send(ctx, http.MethodPost, ollamaPathEmbed, ollamaEmbedRequest{Model: p.model, Input: text}, &result); err != nil {
		return Embedding{}, err
	}

	if len(result.Embeddings) != 1 {
		return Embedding{}, fmt.Errorf("ollama returned %d embeddings for one input", len(result.Embeddings))
	}
	vec := result.Embeddings[0]
	if p.dimensions > 0 && len(vec) != p.dimensions {
		return Embedding{}, fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), p.dimensions)
	}

	return Embedding{Vector: vec}, nil
}

// ModelName returns the configured model.
func (p *OllamaProvider) ModelName() string {
	return p.model
}

// Dimensions returns the expected vector size, or 0 when unknown.
func (p *OllamaProvider) Dimensions() int {
	return p.dimensions
}

// IsAvailable reports whether the Ollama server answers.
func (p *OllamaProvider) IsAvailable(ctx context.Context) error {
	var tags ollamaTagsResponse
	if err := p.send(ctx, http.MethodGet, ollamaPathTags, nil, &tags); err != nil {
		return fmt.Errorf("ollama is not running: %w", err)
	}
	return nil
}

// HasModel reports whether the model has been pulled.
// A model configured without a tag matches its ":latest" tag.
func (p *OllamaProvider) HasModel(ctx context.Context) (bool, error) {
	var tags ollamaTagsResponse
	if err := p.send(ctx, http.MethodGet, ollamaPathTags, nil, &tags); err != nil {
		return false, fmt.Errorf("checking models: %w", err)
	}

	want := p.model
	if !strings.Contains(want, ":") {
		want += ":latest"
	}
	for _, m := range tags.Models {
		if m.Name == p.model || m.Name == want {
			return true, nil
		}
	}
	return false, nil
}

type ollamaEmbedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type ollamaEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

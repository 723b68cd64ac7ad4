// Package config handles repository and global configuration.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/papersim/internal/embedding"
	"github.com/matsen/papersim/internal/similarity"
)

// Config represents repository configuration stored in .papersim/config.json.
type Config struct {
	Provider   string `json:"provider"`              // Embedding provider: ollama or openai
	Model      string `json:"model"`                 // Embedding model name
	BaseURL    string `json:"base_url,omitempty"`    // Provider endpoint; empty uses the provider default
	Dimensions int    `json:"dimensions,omitempty"`  // Expected vector size; 0 uses the model default
	APIKeyEnv  string `json:"api_key_env,omitempty"` // Environment variable holding the API key (openai)

	Method      string `json:"method"`                 // Default similarity method
	TopK        int    `json:"top_k"`                  // Default number of similar papers to return
	Workers     int    `json:"workers,omitempty"`      // Concurrent encodes in batch mode; 0 or 1 is sequential
	CacheMisses bool   `json:"cache_misses,omitempty"` // Add on-the-fly encodes to the table

	FetchTimeout string `json:"fetch_timeout,omitempty"` // arXiv request timeout, e.g. "30s"
	RateInterval string `json:"rate_interval,omitempty"` // Minimum spacing between arXiv requests, e.g. "3s"
}

const (
	PapersimDir = ".papersim"
	ConfigFile  = "config.json"
	PapersFile  = "papers.jsonl"
	CacheDir    = "cache"
	DBFile      = "papers.db"

	// DefaultTopK is the number of similar papers returned when not configured.
	DefaultTopK = 5
)

// Default returns the configuration written by 'papersim init'.
func Default() *Config {
	return &Config{
		Provider: embedding.KindOllama,
		Model:    embedding.DefaultModel,
		Method:   string(similarity.DefaultMethod),
		TopK:     DefaultTopK,
	}
}

// PapersimPath returns the path to the .papersim directory from a root path.
func PapersimPath(root string) string {
	return filepath.Join(root, PapersimDir)
}

// ConfigPath returns the path to config.json from a root path.
func ConfigPath(root string) string {
	return filepath.Join(root, PapersimDir, ConfigFile)
}

// PapersPath returns the path to papers.jsonl from a root path.
func PapersPath(root string) string {
	return filepath.Join(root, PapersimDir, PapersFile)
}

// CachePath returns the path to the cache directory from a root path.
func CachePath(root string) string {
	return filepath.Join(root, PapersimDir, CacheDir)
}

// DBPath returns the path to papers.db from a root path.
func DBPath(root string) string {
	return filepath.Join(root, PapersimDir, CacheDir, DBFile)
}

// IsRepository checks if the given path contains a papersim repository.
func IsRepository(root string) bool {
	info, err := os.Stat(PapersimPath(root))
	return err == nil && info.IsDir()
}

// FindRepository walks up from the given path to find a papersim repository.
// Returns the repository root path or an error if not found.
func FindRepository(start string) (string, error) {
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolving path: %w", err)
	}

	for {
		if IsRepository(abs) {
			return abs, nil
		}

		parent := filepath.Dir(abs)
		if parent == abs {
			return "", fmt.Errorf("not in a papersim repository (no %s directory found)", PapersimDir)
		}
		abs = parent
	}
}

// Load reads configuration from the repository at the given root.
// Fields missing from the file keep their Default values.
func Load(root string) (*Config, error) {
	data, err := os.ReadFile(ConfigPath(root))
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	return cfg, nil
}

// Save writes configuration to the repository at the given root.
func (c *Config) Save(root string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(root), data, 0644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// Validate checks every field that has a constrained set of values.
func (c *Config) Validate() error {
	switch c.Provider {
	case "", embedding.KindOllama, embedding.KindOpenAI:
	default:
		return fmt.Errorf("invalid provider: %s (valid: %s, %s)", c.Provider, embedding.KindOllama, embedding.KindOpenAI)
	}
	if c.Method != "" {
		if _, err := similarity.ParseMethod(c.Method); err != nil {
			return err
		}
	}
	if c.TopK < 0 {
		return fmt.Errorf("invalid top_k: %d (must be >= 0)", c.TopK)
	}
	if c.Workers < 0 {
		return fmt.Errorf("invalid workers: %d (must be >= 0)", c.Workers)
	}
	if _, err := c.FetchTimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.RateIntervalDuration(); err != nil {
		return err
	}
	return nil
}

// ProviderConfig returns the embedding provider settings.
func (c *Config) ProviderConfig() embedding.ProviderConfig {
	return embedding.ProviderConfig{
		Kind:       c.Provider,
		Model:      c.Model,
		BaseURL:    c.BaseURL,
		Dimensions: c.Dimensions,
		APIKeyEnv:  c.APIKeyEnv,
	}
}

// SimilarityMethod returns the configured method, or the default when unset.
func (c *Config) SimilarityMethod() (similarity.Method, error) {
	if c.Method == "" {
		return similarity.DefaultMethod, nil
	}
	return similarity.ParseMethod(c.Method)
}

// FetchTimeoutDuration parses FetchTimeout. Zero means "use the client default".
func (c *Config) FetchTimeoutDuration() (time.Duration, error) {
	return parseDuration("fetch_timeout", c.FetchTimeout)
}

// RateIntervalDuration parses RateInterval. Zero means "use the client default".
func (c *Config) RateIntervalDuration() (time.Duration, error) {
	return parseDuration("rate_interval", c.RateInterval)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q: %w", field, value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid %s: %q (must not be negative)", field, value)
	}
	return d, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matsen/papersim/internal/similarity"
)

func TestPathFunctions(t *testing.T) {
	root := "/test/root"

	tests := []struct {
		name string
		fn   func(string) string
		want string
	}{
		{"PapersimPath", PapersimPath, "/test/root/.papersim"},
		{"ConfigPath", ConfigPath, "/test/root/.papersim/config.json"},
		{"PapersPath", PapersPath, "/test/root/.papersim/papers.jsonl"},
		{"CachePath", CachePath, "/test/root/.papersim/cache"},
		{"DBPath", DBPath, "/test/root/.papersim/cache/papers.db"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(root); got != tt.want {
				t.Errorf("%s(%q) = %q, want %q", tt.name, root, got, tt.want)
			}
		})
	}
}

func TestIsRepository(t *testing.T) {
	tmpDir := t.TempDir()

	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true for empty directory")
	}

	if err := os.MkdirAll(PapersimPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	if !IsRepository(tmpDir) {
		t.Error("IsRepository() = false after creating .papersim")
	}
}

func TestIsRepository_FileNotDir(t *testing.T) {
	tmpDir := t.TempDir()

	if err := os.WriteFile(PapersimPath(tmpDir), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	if IsRepository(tmpDir) {
		t.Error("IsRepository() = true when .papersim is a file")
	}
}

func TestFindRepository(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(PapersimPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}

	nested := filepath.Join(tmpDir, "a", "b", "c")
	if err := os.MkdirAll(nested, 0755); err != nil {
		t.Fatal(err)
	}

	got, err := FindRepository(nested)
	if err != nil {
		t.Fatalf("FindRepository() error = %v", err)
	}

	want, _ := filepath.Abs(tmpDir)
	if got != want {
		t.Errorf("FindRepository() = %q, want %q", got, want)
	}
}

func TestFindRepository_NotFound(t *testing.T) {
	_, err := FindRepository(t.TempDir())
	if err == nil {
		t.Error("FindRepository() should fail outside a repository")
	}
}

func TestConfig_SaveAndLoad(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(PapersimPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		Provider:     "openai",
		Model:        "text-embedding-3-small",
		APIKeyEnv:    "MY_KEY",
		Method:       "euclidean",
		TopK:         10,
		Workers:      4,
		FetchTimeout: "10s",
		RateInterval: "1s",
	}
	if err := cfg.Save(tmpDir); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *loaded != *cfg {
		t.Errorf("Load() = %+v, want %+v", loaded, cfg)
	}
}

func TestLoad_MissingFieldsUseDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(PapersimPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte(`{"top_k": 3}`), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpDir)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	def := Default()
	if cfg.TopK != 3 {
		t.Errorf("TopK = %d, want 3", cfg.TopK)
	}
	if cfg.Model != def.Model || cfg.Provider != def.Provider || cfg.Method != def.Method {
		t.Errorf("Load() = %+v, want defaults for unset fields", cfg)
	}
}

func TestLoad_NotFound(t *testing.T) {
	if _, err := Load(t.TempDir()); err == nil {
		t.Error("Load() should fail when config.json is missing")
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.MkdirAll(PapersimPath(tmpDir), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(ConfigPath(tmpDir), []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(tmpDir); err == nil {
		t.Error("Load() should fail on invalid JSON")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"default is valid", func(*Config) {}, ""},
		{"openai provider", func(c *Config) { c.Provider = "openai" }, ""},
		{"unknown provider", func(c *Config) { c.Provider = "bert" }, "invalid provider"},
		{"unknown method", func(c *Config) { c.Method = "manhattan" }, "unknown comparison method"},
		{"negative top_k", func(c *Config) { c.TopK = -1 }, "invalid top_k"},
		{"negative workers", func(c *Config) { c.Workers = -2 }, "invalid workers"},
		{"bad timeout", func(c *Config) { c.FetchTimeout = "soon" }, "invalid fetch_timeout"},
		{"negative interval", func(c *Config) { c.RateInterval = "-1s" }, "invalid rate_interval"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSimilarityMethod(t *testing.T) {
	cfg := &Config{}
	m, err := cfg.SimilarityMethod()
	if err != nil || m != similarity.DefaultMethod {
		t.Errorf("SimilarityMethod() = %q, %v; want default", m, err)
	}

	cfg.Method = "Dot"
	m, err = cfg.SimilarityMethod()
	if err != nil || m != similarity.Dot {
		t.Errorf("SimilarityMethod() = %q, %v; want dot", m, err)
	}
}

func TestDurations(t *testing.T) {
	cfg := &Config{FetchTimeout: "45s"}

	d, err := cfg.FetchTimeoutDuration()
	if err != nil || d != 45*time.Second {
		t.Errorf("FetchTimeoutDuration() = %v, %v; want 45s", d, err)
	}

	d, err = cfg.RateIntervalDuration()
	if err != nil || d != 0 {
		t.Errorf("RateIntervalDuration() = %v, %v; want 0 when unset", d, err)
	}
}

func TestProviderConfig(t *testing.T) {
	cfg := &Config{Provider: "ollama", Model: "nomic-embed-text", BaseURL: "http://gpu:11434", Dimensions: 768}
	pc := cfg.ProviderConfig()
	if pc.Kind != "ollama" || pc.Model != "nomic-embed-text" || pc.BaseURL != "http://gpu:11434" || pc.Dimensions != 768 {
		t.Errorf("ProviderConfig() = %+v", pc)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	if got := ExpandPath("~/papers"); got != filepath.Join(home, "papers") {
		t.Errorf("ExpandPath(~/papers) = %q", got)
	}
	if got := ExpandPath("/abs/path"); got != "/abs/path" {
		t.Errorf("ExpandPath(/abs/path) = %q", got)
	}
	if got := ExpandPath(""); got != "" {
		t.Errorf("ExpandPath(\"\") = %q", got)
	}
}

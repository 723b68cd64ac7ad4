package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// GlobalConfig represents configuration stored in ~/.config/papersim/config.yml.
type GlobalConfig struct {
	RepoPath     string `yaml:"repo_path,omitempty"`      // Repository used outside any .papersim tree
	OpenAIAPIKey string `yaml:"openai_api_key,omitempty"` // Fallback when the key env var is unset
	ArXivBaseURL string `yaml:"arxiv_base_url,omitempty"` // Override for the arXiv export API
	OllamaURL    string `yaml:"ollama_url,omitempty"`     // Default Ollama endpoint for new repositories
}

const (
	// GlobalConfigDir is the directory name under XDG_CONFIG_HOME.
	GlobalConfigDir = "papersim"
	// GlobalConfigFile is the config file name.
	GlobalConfigFile = "config.yml"
)

// globalConfigCache caches the loaded global config.
var globalConfigCache *GlobalConfig

// GlobalConfigPath returns the path to the global config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/papersim/config.yml.
func GlobalConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, GlobalConfigDir, GlobalConfigFile)
}

// LoadGlobalConfig loads the global configuration file.
// Returns an empty config (not an error) if the file doesn't exist.
func LoadGlobalConfig() (*GlobalConfig, error) {
	if globalConfigCache != nil {
		return globalConfigCache, nil
	}

	path := GlobalConfigPath()
	if path == "" {
		return &GlobalConfig{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &GlobalConfig{}, nil
		}
		return nil, fmt.Errorf("reading global config: %w", err)
	}

	var cfg GlobalConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing global config: %w", err)
	}

	if cfg.RepoPath != "" {
		cfg.RepoPath = ExpandPath(cfg.RepoPath)
	}

	globalConfigCache = &cfg
	return &cfg, nil
}

// ResetGlobalConfigCache clears the cached global config.
// Useful for testing.
func ResetGlobalConfigCache() {
	globalConfigCache = nil
}

// GetConfigValue returns the environment variable envKey if set, else configValue.
func GetConfigValue(envKey, configValue string) string {
	if v := os.Getenv(envKey); v != "" {
		return v
	}
	return configValue
}

// ResolveRepository finds the repository for start, falling back to the
// global repo_path when start is not inside one.
func ResolveRepository(start string) (string, error) {
	root, err := FindRepository(start)
	if err == nil {
		return root, nil
	}

	cfg, cfgErr := LoadGlobalConfig()
	if cfgErr != nil || cfg.RepoPath == "" {
		return "", fmt.Errorf("%w\n\n%s", err, HelpfulConfigMessage())
	}
	if !IsRepository(cfg.RepoPath) {
		return "", fmt.Errorf("configured repo_path is not a papersim repository: %s", cfg.RepoPath)
	}
	return cfg.RepoPath, nil
}

// HelpfulConfigMessage returns a hint for when no repository is found.
func HelpfulConfigMessage() string {
	configPath := GlobalConfigPath()
	return fmt.Sprintf(`Run 'papersim init' to create a repository here, or set a default in %s:
  mkdir -p %s
  echo 'repo_path: /path/to/your/repo' > %s`,
		configPath,
		filepath.Dir(configPath),
		configPath)
}

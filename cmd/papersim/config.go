package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/config"
)

func init() {
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get or set configuration values",
	Long: `Get or set repository configuration values.

Usage:
  papersim config                      # Show all config
  papersim config model                # Get specific value
  papersim config model nomic-embed-text
  papersim config method euclidean

Keys:
  provider       Embedding provider (ollama, openai)
  model          Embedding model name
  base-url       Provider endpoint
  dimensions     Expected vector size (0 for the model default)
  api-key-env    Environment variable holding the API key (openai)
  method         Default similarity method (cosine, euclidean, dot)
  top-k          Default number of similar papers
  workers        Papers encoded concurrently by 'index build/add'
  cache-misses   Add on-the-fly encodes to the table (true, false)
  fetch-timeout  arXiv request timeout (e.g. 30s)
  rate-interval  Minimum spacing between arXiv requests (e.g. 3s)`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

// UpdateResponse is the response for config set commands.
type UpdateResponse struct {
	Status string `json:"status"`
	Key    string `json:"key"`
	Value  string `json:"value"`
}

// configKeys lists the settable keys in display order.
var configKeys = []string{
	"provider", "model", "base-url", "dimensions", "api-key-env",
	"method", "top-k", "workers", "cache-misses", "fetch-timeout", "rate-interval",
}

func runConfig(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}

	if len(args) == 0 {
		if humanOutput {
			for _, key := range configKeys {
				value, _ := getConfigValue(cfg, key)
				fmt.Printf("%-14s %s\n", key+":", value)
			}
		} else {
			outputJSON(cfg)
		}
		return nil
	}

	key := normalizeKey(args[0])

	if len(args) == 1 {
		value, err := getConfigValue(cfg, key)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		if humanOutput {
			fmt.Println(value)
		} else {
			outputJSON(map[string]string{strings.ReplaceAll(key, "-", "_"): value})
		}
		return nil
	}

	value := args[1]
	if err := setConfigValue(cfg, key, value); err != nil {
		exitWithError(ExitError, "%v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid value for %s: %v", key, err)
	}
	if err := cfg.Save(repoRoot); err != nil {
		exitWithError(ExitError, "saving config: %v", err)
	}

	if humanOutput {
		fmt.Printf("Set %s = %s\n", key, value)
	} else {
		outputJSON(UpdateResponse{Status: "updated", Key: key, Value: value})
	}
	return nil
}

// normalizeKey accepts snake_case and dash-case keys.
func normalizeKey(key string) string {
	return strings.ToLower(strings.ReplaceAll(key, "_", "-"))
}

func getConfigValue(cfg *config.Config, key string) (string, error) {
	switch key {
	case "provider":
		return cfg.Provider, nil
	case "model":
		return cfg.Model, nil
	case "base-url":
		return cfg.BaseURL, nil
	case "dimensions":
		return strconv.Itoa(cfg.Dimensions), nil
	case "api-key-env":
		return cfg.APIKeyEnv, nil
	case "method":
		return cfg.Method, nil
	case "top-k":
		return strconv.Itoa(cfg.TopK), nil
	case "workers":
		return strconv.Itoa(cfg.Workers), nil
	case "cache-misses":
		return strconv.FormatBool(cfg.CacheMisses), nil
	case "fetch-timeout":
		return cfg.FetchTimeout, nil
	case "rate-interval":
		return cfg.RateInterval, nil
	}
	return "", fmt.Errorf("unknown configuration key: %s", key)
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch key {
	case "provider":
		cfg.Provider = value
	case "model":
		cfg.Model = value
	case "base-url":
		cfg.BaseURL = value
	case "api-key-env":
		cfg.APIKeyEnv = value
	case "method":
		cfg.Method = strings.ToLower(value)
	case "fetch-timeout":
		cfg.FetchTimeout = value
	case "rate-interval":
		cfg.RateInterval = value
	case "dimensions", "top-k", "workers":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be an integer: %q", key, value)
		}
		switch key {
		case "dimensions":
			cfg.Dimensions = n
		case "top-k":
			cfg.TopK = n
		case "workers":
			cfg.Workers = n
		}
	case "cache-misses":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("cache-misses must be true or false: %q", value)
		}
		cfg.CacheMisses = b
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	return nil
}

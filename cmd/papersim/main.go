// Package main provides the papersim CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/arxiv"
	"github.com/matsen/papersim/internal/config"
	"github.com/matsen/papersim/internal/embedding"
	"github.com/matsen/papersim/internal/semantic"
	"github.com/matsen/papersim/internal/storage"
)

// Version is set at build time via ldflags
var Version = "dev"

var (
	// humanOutput controls whether to use human-readable output
	humanOutput bool

	// verbosity raises the logger's V-level; each -v adds one
	verbosity int

	// logger is built from the persistent flags before any command runs
	logger = logr.Discard()
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// SilenceErrors hides cobra's own errors, such as missing arguments
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "papersim",
	Short: "Embed arXiv papers and compare them by vector similarity",
	Long: `papersim fetches arXiv paper metadata, embeds each paper's title and
abstract with a text embedding model, and compares papers by cosine
similarity, euclidean distance, or dot product.

Embeddings are kept in a gob table under .papersim/cache, fetched metadata
in an ephemeral SQLite database with a git-versionable JSONL export.
All commands output JSON by default for easy integration with other tools.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// Load .env for API keys (ignore error if file doesn't exist)
		_ = godotenv.Load()
		logger = newLogger(os.Stderr, verbosity)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (repeatable)")
	rootCmd.Version = Version
}

// getStartingDirectory returns the directory to start searching for a repository.
// PAPERSIM_ROOT overrides the current working directory.
func getStartingDirectory() string {
	if root := os.Getenv("PAPERSIM_ROOT"); root != "" {
		return root
	}

	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	return cwd
}

// mustFindRepository finds and validates the repository, exits on error.
// Returns the repository root path.
func mustFindRepository() string {
	repoRoot, err := config.ResolveRepository(getStartingDirectory())
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return repoRoot
}

// mustLoadConfig loads and validates configuration, exits on error.
func mustLoadConfig(repoRoot string) *config.Config {
	cfg, err := config.Load(repoRoot)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustOpenDatabase opens the SQLite database, exits on error.
// The caller is responsible for calling Close() on the returned DB.
func mustOpenDatabase(repoRoot string) *storage.DB {
	if err := os.MkdirAll(config.CachePath(repoRoot), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}
	db, err := storage.OpenDB(config.DBPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	return db
}

// mustLoadTable loads the embedding table, exits on error.
func mustLoadTable(repoRoot string) *semantic.Table {
	path := semantic.TablePath(repoRoot)
	if !semantic.TableExists(path) {
		exitWithError(ExitConfigError, "Embedding table not found\n\nRun 'papersim index build <arxiv-id>...' to create it.")
	}
	table, err := semantic.LoadTable(path)
	if err != nil {
		exitWithErr(err, "loading embedding table")
	}
	return table
}

// mustNewProvider builds the configured embedding provider.
// Ollama providers are checked for a running server and a pulled model.
func mustNewProvider(ctx context.Context, cfg *config.Config) embedding.Provider {
	pc := cfg.ProviderConfig()
	if pc.Kind == embedding.KindOpenAI {
		keyEnv := pc.APIKeyEnv
		if keyEnv == "" {
			keyEnv = embedding.DefaultOpenAIKeyEnv
		}
		if global, err := config.LoadGlobalConfig(); err == nil {
			if key := config.GetConfigValue(keyEnv, global.OpenAIAPIKey); key != "" {
				os.Setenv(keyEnv, key)
			}
		}
	}

	provider, err := embedding.NewProvider(pc)
	if err != nil {
		exitWithError(ExitModelError, "creating embedding provider: %v", err)
	}

	if ollama, ok := provider.(*embedding.OllamaProvider); ok {
		mustValidateOllama(ctx, ollama)
	}
	return provider
}

// mustValidateOllama checks that Ollama is running and has the embedding model.
func mustValidateOllama(ctx context.Context, provider *embedding.OllamaProvider) {
	if err := provider.IsAvailable(ctx); err != nil {
		exitWithError(ExitModelError, "Ollama is not running\n\nStart Ollama with 'ollama serve' or install from https://ollama.ai")
	}

	hasModel, err := provider.HasModel(ctx)
	if err != nil {
		exitWithError(ExitModelError, "checking model availability: %v", err)
	}
	if !hasModel {
		exitWithError(ExitModelError, "Embedding model '%s' not found\n\nRun 'ollama pull %s' to download it.", provider.ModelName(), provider.ModelName())
	}
}

// newArxivClient builds the metadata client from repository and global config.
func newArxivClient(cfg *config.Config) *arxiv.Client {
	var opts []arxiv.ClientOption

	if timeout, _ := cfg.FetchTimeoutDuration(); timeout > 0 {
		opts = append(opts, arxiv.WithTimeout(timeout))
	}
	if interval, _ := cfg.RateIntervalDuration(); interval > 0 {
		opts = append(opts, arxiv.WithRateInterval(interval))
	}
	if global, err := config.LoadGlobalConfig(); err == nil && global.ArXivBaseURL != "" {
		opts = append(opts, arxiv.WithBaseURL(global.ArXivBaseURL))
	}

	return arxiv.NewClient(opts...)
}

// newEncoder builds an encoder that records into db when db is non-nil.
func newEncoder(cfg *config.Config, db *storage.DB, opts ...semantic.Option) *semantic.Encoder {
	base := []semantic.Option{
		semantic.WithLogger(logger),
		semantic.WithWorkers(cfg.Workers),
		semantic.WithCacheMisses(cfg.CacheMisses),
	}
	if db != nil {
		base = append(base, semantic.WithDB(db))
	}
	return semantic.NewEncoder(newArxivClient(cfg), append(base, opts...)...)
}

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/config"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new papersim repository",
	Long: `Initialize a new papersim repository in the current directory.

Creates:
  .papersim/
  ├── papers.jsonl    # Empty file, exported metadata of encoded papers
  ├── config.json     # Default config
  └── cache/          # Embedding table and SQLite database (gitignored)`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := getStartingDirectory()

	if config.IsRepository(root) {
		exitWithError(ExitError, "directory already contains a papersim repository")
	}

	if err := os.MkdirAll(config.CachePath(root), 0755); err != nil {
		exitWithError(ExitError, "creating cache directory: %v", err)
	}

	papersFile, err := os.Create(config.PapersPath(root))
	if err != nil {
		exitWithError(ExitError, "creating %s: %v", config.PapersFile, err)
	}
	papersFile.Close()

	if err := os.WriteFile(filepath.Join(config.PapersimPath(root), ".gitignore"), []byte(config.CacheDir+"/\n"), 0644); err != nil {
		exitWithError(ExitError, "creating .gitignore: %v", err)
	}

	cfg := config.Default()
	if global, err := config.LoadGlobalConfig(); err == nil && global.OllamaURL != "" {
		cfg.BaseURL = global.OllamaURL
	}
	if err := cfg.Save(root); err != nil {
		exitWithError(ExitError, "creating %s: %v", config.ConfigFile, err)
	}

	if humanOutput {
		fmt.Printf("Initialized papersim repository in %s\n", root)
		fmt.Printf("  Model: %s (%s)\n", cfg.Model, cfg.Provider)
	} else {
		outputJSON(StatusResponse{
			Status: "initialized",
			Path:   root,
		})
	}

	return nil
}

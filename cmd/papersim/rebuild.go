package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/config"
)

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the metadata database from papers.jsonl",
	Long: `Rebuild the SQLite paper database from the papers.jsonl export.

Use this after pulling changes from git or if the database becomes corrupted.
Embedding metadata and the embedding table are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runRebuild,
}

// RebuildResult is the response for the rebuild command.
type RebuildResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
}

func runRebuild(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	count, err := db.RebuildFromJSONL(config.PapersPath(repoRoot))
	if err != nil {
		exitWithError(ExitDataError, "rebuilding database: %v", err)
	}

	if humanOutput {
		fmt.Printf("Rebuilt database with %d papers\n", count)
	} else {
		outputJSON(RebuildResult{
			Status: "rebuilt",
			Papers: count,
		})
	}

	return nil
}

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/semantic"
)

var (
	similarTopK   int
	similarMethod string
	similarCache  bool
	similarPDF    string
)

func init() {
	rootCmd.AddCommand(similarCmd)

	similarCmd.Flags().IntVarP(&similarTopK, "top-k", "k", -1, "Maximum number of results; 0 returns all (default from config)")
	similarCmd.Flags().StringVarP(&similarMethod, "method", "m", "", "Similarity method: cosine, euclidean, or dot (default from config)")
	similarCmd.Flags().BoolVar(&similarCache, "cache", false, "Add the paper to the table if it had to be encoded")
	similarCmd.Flags().StringVar(&similarPDF, "pdf", "", "Read the arXiv ID from a downloaded PDF instead of an argument")
}

// SimilarResponse is the response for the similar papers command.
type SimilarResponse struct {
	Source  string        `json:"source"`
	Method  string        `json:"method"`
	Model   string        `json:"model"`
	Similar []PaperResult `json:"similar"`
	Total   int           `json:"total"`
	Cached  bool          `json:"cached,omitempty"`
}

var similarCmd = &cobra.Command{
	Use:   "similar [arxiv-id]",
	Short: "Find papers in the table most similar to a paper",
	Long: `Rank the papers in the embedding table by similarity to a given paper.

If the paper is not in the table it is fetched and encoded on the fly;
--cache (or cache_misses in config) then adds it to the table.
The paper itself is excluded from results.

Requires the table to be built first with 'papersim index build'.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSimilar,
}

func runSimilar(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	paperID := resolvePaperArg(args, similarPDF)

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	method := mustResolveMethod(cfg, similarMethod)

	topK := cfg.TopK
	if similarTopK >= 0 {
		topK = similarTopK
	}
	if similarCache {
		cfg.CacheMisses = true
	}

	table := mustLoadTable(repoRoot)
	provider := mustNewProvider(ctx, cfg)
	if table.ModelName != provider.ModelName() {
		exitWithError(ExitTableStale, "Embedding table was built with '%s' but the configured model is '%s'\n\nRebuild with 'papersim index build' or change the model with 'papersim config model %s'.",
			table.ModelName, provider.ModelName(), table.ModelName)
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	// 0 asks for every paper in the table.
	if topK == 0 {
		topK = table.Len()
	}

	before := table.Len()
	results, err := newEncoder(cfg, db).FindSimilar(ctx, paperID, table, provider, topK, method)
	if err != nil {
		exitWithErr(err, "finding similar papers")
	}

	cached := table.Len() > before
	if cached {
		if err := table.Save(semantic.TablePath(repoRoot)); err != nil {
			exitWithError(ExitError, "saving embedding table: %v", err)
		}
	}

	paperResults := buildPaperResults(results, db)

	if humanOutput {
		fmt.Printf("Papers similar to: %s\n", paperID)
		if ref, err := db.GetByID(paperID); err == nil && ref != nil {
			fmt.Printf("\"%s\"\n", truncateString(ref.Title, DetailTitleMaxLen))
		}
		fmt.Printf("Method: %s\n\n", method)
		printPaperResultsHuman(paperResults)
		if cached {
			fmt.Printf("Added %s to the embedding table.\n", paperID)
		}
	} else {
		outputJSON(SimilarResponse{
			Source:  paperID,
			Method:  string(method),
			Model:   table.ModelName,
			Similar: paperResults,
			Total:   len(paperResults),
			Cached:  cached,
		})
	}

	return nil
}

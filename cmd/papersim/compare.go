package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/config"
	"github.com/matsen/papersim/internal/similarity"
)

var compareMethod string

func init() {
	rootCmd.AddCommand(compareCmd)

	compareCmd.Flags().StringVarP(&compareMethod, "method", "m", "", "Similarity method: cosine, euclidean, or dot (default from config)")
}

// CompareResponse is the response for the compare command.
type CompareResponse struct {
	Paper1 string  `json:"paper1"`
	Paper2 string  `json:"paper2"`
	Method string  `json:"method"`
	Model  string  `json:"model"`
	Score  float64 `json:"score"`
}

var compareCmd = &cobra.Command{
	Use:   "compare <arxiv-id> <arxiv-id>",
	Short: "Compare two papers",
	Long: `Embed two papers and report their similarity.

For cosine and dot, higher scores mean more similar papers; for euclidean,
lower distances do. Both papers are fetched fresh from arXiv.`,
	Args: cobra.ExactArgs(2),
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	method := mustResolveMethod(cfg, compareMethod)
	provider := mustNewProvider(ctx, cfg)

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	score, err := newEncoder(cfg, db).ComparePapers(ctx, args[0], args[1], provider, method)
	if err != nil {
		exitWithErr(err, "comparing papers")
	}

	if humanOutput {
		label := "similarity"
		if !method.HigherIsBetter() {
			label = "distance"
		}
		fmt.Printf("%s vs %s\n", args[0], args[1])
		fmt.Printf("  %s %s: %.4f\n", method, label, score)
	} else {
		outputJSON(CompareResponse{
			Paper1: args[0],
			Paper2: args[1],
			Method: string(method),
			Model:  provider.ModelName(),
			Score:  score,
		})
	}

	return nil
}

// mustResolveMethod returns the flag's method, or the configured one when the flag is empty.
func mustResolveMethod(cfg *config.Config, flag string) similarity.Method {
	if flag != "" {
		m, err := similarity.ParseMethod(flag)
		if err != nil {
			exitWithError(ExitDataError, "%v", err)
		}
		return m
	}
	m, err := cfg.SimilarityMethod()
	if err != nil {
		exitWithError(ExitConfigError, "%v", err)
	}
	return m
}

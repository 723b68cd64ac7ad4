package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matsen/papersim/internal/config"
	"github.com/matsen/papersim/internal/semantic"
	"github.com/matsen/papersim/internal/storage"
)

var (
	indexFile       string
	indexNoProgress bool
	indexWorkers    int
	indexCategories []string
	indexYears      string
	indexMax        int
)

func init() {
	rootCmd.AddCommand(indexCmd)
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexAddCmd)
	indexCmd.AddCommand(indexCheckCmd)
	indexCmd.AddCommand(indexExportCmd)

	for _, c := range []*cobra.Command{indexBuildCmd, indexAddCmd} {
		c.Flags().StringVarP(&indexFile, "file", "f", "", "Read arXiv IDs from a file, one per line ('-' for stdin)")
		c.Flags().BoolVar(&indexNoProgress, "no-progress", false, "Suppress progress output")
		c.Flags().IntVarP(&indexWorkers, "workers", "w", 0, "Papers to encode concurrently (default from config)")
		c.Flags().StringSliceVar(&indexCategories, "category", nil, "Also encode recent papers listed in an arXiv category (repeatable, e.g. cs.LG)")
		c.Flags().StringVar(&indexYears, "years", "", "Limit --category to submission years: 2022 or 2020-2023")
		c.Flags().IntVar(&indexMax, "max", 100, "Maximum papers to list with --category")
	}
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Manage the embedding table",
	Long:  `Commands for building, extending, and checking the embedding table.`,
}

// IndexBuildResult is the response for the index build and add commands.
type IndexBuildResult struct {
	Status          string   `json:"status"`
	Requested       int      `json:"requested"`
	Encoded         int      `json:"encoded"`
	Failed          int      `json:"failed"`
	FailedIDs       []string `json:"failed_ids,omitempty"`
	TableSize       int      `json:"table_size"`
	DurationSeconds float64  `json:"duration_seconds"`
	Model           string   `json:"model"`
	TableSizeBytes  int64    `json:"table_size_bytes"`
}

var indexBuildCmd = &cobra.Command{
	Use:   "build [arxiv-id...]",
	Short: "Build the embedding table from scratch",
	Long: `Encode every given paper and replace the embedding table with the result.

Papers that cannot be fetched or embedded are skipped and reported;
the table holds the papers that succeeded, in input order.

With --category, the newest papers in those arXiv categories are listed
and encoded after any explicit IDs:

  papersim index build --category cs.LG --category stat.ML --years 2022-2023 --max 500`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexEncode(args, false)
	},
}

var indexAddCmd = &cobra.Command{
	Use:   "add [arxiv-id...]",
	Short: "Encode papers and add them to the embedding table",
	Long: `Encode the given papers and merge them into the existing embedding table.

Papers already in the table are re-encoded and keep their position.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIndexEncode(args, true)
	},
}

func runIndexEncode(args []string, merge bool) error {
	// Ctrl-C stops the batch; papers encoded so far are still saved.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	if indexWorkers > 0 {
		cfg.Workers = indexWorkers
	}

	ids := mustCollectIDs(ctx, cfg, args, indexFile)
	provider := mustNewProvider(ctx, cfg)

	var existing *semantic.Table
	tablePath := semantic.TablePath(repoRoot)
	if merge {
		t, err := semantic.LoadTable(tablePath)
		switch {
		case err == nil:
			existing = t
		case errors.Is(err, semantic.ErrTableNotFound):
			existing = semantic.NewTable(provider.ModelName(), provider.Dimensions())
		default:
			exitWithErr(err, "loading embedding table")
		}
		if existing.ModelName != provider.ModelName() {
			exitWithError(ExitTableStale, "Embedding table was built with '%s' but the configured model is '%s'\n\nRun 'papersim index build' to rebuild it.",
				existing.ModelName, provider.ModelName())
		}
	}

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	var opts []semantic.Option
	if humanOutput && !indexNoProgress {
		opts = append(opts, semantic.WithProgressReporter(newProgressReporter(len(ids), "Encoding")))
	}

	status := "complete"
	table, stats, err := newEncoder(cfg, db, opts...).EncodeBatch(ctx, ids, provider)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			exitWithError(ExitError, "encoding papers: %v", err)
		}
		status = "interrupted"
	}

	if existing != nil {
		if err := existing.Merge(table); err != nil {
			exitWithError(ExitDataError, "merging into embedding table: %v", err)
		}
		table = existing
	}

	if err := table.Save(tablePath); err != nil {
		exitWithError(ExitError, "saving embedding table: %v", err)
	}

	var tableBytes int64
	if info, err := os.Stat(tablePath); err == nil {
		tableBytes = info.Size()
	}

	if humanOutput {
		fmt.Printf("\nEncoded %d of %d papers (%s)\n", stats.Encoded, stats.Requested, status)
		if stats.Failed > 0 {
			fmt.Printf("  Failed: %s\n", formatIDList(stats.FailedIDs, ListIDMaxShown))
		}
		fmt.Printf("  Table size: %d papers (%s)\n", table.Len(), formatBytes(tableBytes))
		fmt.Printf("  Time elapsed: %s\n", formatDuration(stats.Duration))
		fmt.Printf("  Model: %s\n", provider.ModelName())
	} else {
		outputJSON(IndexBuildResult{
			Status:          status,
			Requested:       stats.Requested,
			Encoded:         stats.Encoded,
			Failed:          stats.Failed,
			FailedIDs:       stats.FailedIDs,
			TableSize:       table.Len(),
			DurationSeconds: stats.Duration.Seconds(),
			Model:           provider.ModelName(),
			TableSizeBytes:  tableBytes,
		})
	}

	return nil
}

// IndexCheckResult is the response for the index check command.
type IndexCheckResult struct {
	Status             string   `json:"status"`
	TableSize          int      `json:"table_size"`
	Model              string   `json:"model"`
	ConfiguredModel    string   `json:"configured_model"`
	Dimensions         int      `json:"dimensions"`
	TableCreated       string   `json:"table_created"`
	PapersStored       int      `json:"papers_stored"`
	EmbeddingsRecorded int      `json:"embeddings_recorded"`
	MissingMetadata    []string `json:"missing_metadata,omitempty"`
	ModelMismatches    []string `json:"model_mismatches,omitempty"`
	Recommendation     string   `json:"recommendation,omitempty"`
}

var indexCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check embedding table health",
	Long: `Check the embedding table against the configured model and the
recorded embedding metadata.`,
	Args: cobra.NoArgs,
	RunE: runIndexCheck,
}

func runIndexCheck(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()
	cfg := mustLoadConfig(repoRoot)
	table := mustLoadTable(repoRoot)

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	result, err := checkTable(table, cfg, db)
	if err != nil {
		exitWithError(ExitError, "checking embedding table: %v", err)
	}

	if humanOutput {
		fmt.Printf("Embedding table: %s\n", result.Status)
		fmt.Printf("  Papers: %d (%d with stored metadata)\n", result.TableSize, result.TableSize-len(result.MissingMetadata))
		fmt.Printf("  Model: %s (configured: %s)\n", result.Model, result.ConfiguredModel)
		fmt.Printf("  Dimensions: %d\n", result.Dimensions)
		fmt.Printf("  Created: %s\n", result.TableCreated)
		if len(result.MissingMetadata) > 0 {
			fmt.Printf("  Missing metadata: %s\n", formatIDList(result.MissingMetadata, ListIDMaxShown))
		}
		if len(result.ModelMismatches) > 0 {
			fmt.Printf("  Encoded with another model: %s\n", formatIDList(result.ModelMismatches, ListIDMaxShown))
		}
		if result.Recommendation != "" {
			fmt.Printf("\n%s\n", result.Recommendation)
		}
	} else {
		outputJSON(result)
	}

	if result.Status == "stale" {
		os.Exit(ExitTableStale)
	}
	return nil
}

// checkTable compares the table with the configured model and stored metadata.
func checkTable(table *semantic.Table, cfg *config.Config, db *storage.DB) (IndexCheckResult, error) {
	result := IndexCheckResult{
		Status:          "healthy",
		TableSize:       table.Len(),
		Model:           table.ModelName,
		ConfiguredModel: cfg.Model,
		Dimensions:      table.Dimensions,
		TableCreated:    table.CreatedAt.Format("2006-01-02 15:04:05"),
	}

	stored, err := db.Count()
	if err != nil {
		return result, fmt.Errorf("counting papers: %w", err)
	}
	result.PapersStored = stored

	if result.EmbeddingsRecorded, err = db.CountEmbeddingMetadata(); err != nil {
		return result, fmt.Errorf("counting embedding metadata: %w", err)
	}

	mismatched, err := db.ListModelMismatches(table.ModelName)
	if err != nil {
		return result, fmt.Errorf("listing model mismatches: %w", err)
	}
	stale := make(map[string]bool, len(mismatched))
	for _, id := range mismatched {
		stale[id] = true
	}

	for _, id := range table.IDs {
		if stale[id] {
			result.ModelMismatches = append(result.ModelMismatches, id)
			continue
		}
		meta, err := db.GetEmbeddingMetadata(id)
		if err != nil {
			return result, fmt.Errorf("reading embedding metadata for %s: %w", id, err)
		}
		if meta == nil {
			result.MissingMetadata = append(result.MissingMetadata, id)
		}
	}

	switch {
	case cfg.Model != "" && table.ModelName != cfg.Model:
		result.Status = "stale"
		result.Recommendation = fmt.Sprintf("The table was built with '%s'. Run 'papersim index build' to re-encode with '%s'.", table.ModelName, cfg.Model)
	case len(result.ModelMismatches) > 0:
		result.Status = "stale"
		result.Recommendation = "Some papers were last encoded with a different model. Run 'papersim index add' on them to refresh."
	case len(result.MissingMetadata) > 0:
		result.Status = "incomplete"
		result.Recommendation = "Some papers have no stored metadata. Run 'papersim rebuild' if papers.jsonl is newer than the database."
	}

	return result, nil
}

// IndexExportResult is the response for the index export command.
type IndexExportResult struct {
	Status string `json:"status"`
	Papers int    `json:"papers"`
	Path   string `json:"path"`
}

var indexExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored paper metadata to papers.jsonl",
	Long: `Write the metadata of every fetched paper to .papersim/papers.jsonl,
the git-versionable copy that 'papersim rebuild' reads back.`,
	Args: cobra.NoArgs,
	RunE: runIndexExport,
}

func runIndexExport(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	db := mustOpenDatabase(repoRoot)
	defer db.Close()

	refs, err := db.ListAll(0)
	if err != nil {
		exitWithError(ExitError, "listing papers: %v", err)
	}

	path := config.PapersPath(repoRoot)
	existing, err := storage.ReadAll(path)
	if err != nil {
		exitWithError(ExitDataError, "reading %s: %v", config.PapersFile, err)
	}
	merged := storage.Merge(existing, refs)

	if err := storage.WriteAll(path, merged); err != nil {
		exitWithError(ExitError, "writing %s: %v", config.PapersFile, err)
	}

	if humanOutput {
		fmt.Printf("Exported %d papers to %s\n", len(merged), path)
	} else {
		outputJSON(IndexExportResult{Status: "exported", Papers: len(merged), Path: path})
	}
	return nil
}

// mustCollectIDs gathers paper IDs from args, from file when set, and from
// the arXiv listing of --category when given.
func mustCollectIDs(ctx context.Context, cfg *config.Config, args []string, file string) []string {
	ids := append([]string(nil), args...)
	if file != "" {
		fromFile, err := readIDs(file)
		if err != nil {
			exitWithError(ExitDataError, "reading IDs: %v", err)
		}
		ids = append(ids, fromFile...)
	}

	if len(indexCategories) > 0 {
		from, to, err := parseYearRange(indexYears)
		if err != nil {
			exitWithError(ExitError, "%v", err)
		}
		listed, err := newArxivClient(cfg).ListByCategory(ctx, indexCategories, from, to, indexMax)
		if err != nil {
			exitWithErr(err, "listing arXiv papers")
		}
		logger.V(1).Info("listed papers", "categories", indexCategories, "count", len(listed))
		ids = append(ids, listed...)
	}

	if len(ids) == 0 {
		exitWithError(ExitError, "no arXiv IDs given (pass them as arguments, with --file, or with --category)")
	}
	return ids
}

// parseYearRange parses "" (no limit), "2022", or "2020-2023".
func parseYearRange(s string) (from, to int, err error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, 0, nil
	}

	lo, hi, isRange := strings.Cut(s, "-")
	if from, err = strconv.Atoi(strings.TrimSpace(lo)); err != nil || from <= 0 {
		return 0, 0, fmt.Errorf("invalid --years %q: want YYYY or YYYY-YYYY", s)
	}
	to = from
	if isRange {
		if to, err = strconv.Atoi(strings.TrimSpace(hi)); err != nil || to <= 0 {
			return 0, 0, fmt.Errorf("invalid --years %q: want YYYY or YYYY-YYYY", s)
		}
	}
	if from > to {
		return 0, 0, fmt.Errorf("invalid --years %q: start is after end", s)
	}
	return from, to, nil
}

// readIDs reads one identifier per line. Blank lines and '#' comments are skipped.
func readIDs(path string) ([]string, error) {
	f := os.Stdin
	if path != "-" {
		var err error
		f, err = os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
	}
	return parseIDs(bufio.NewScanner(f))
}

func parseIDs(scanner *bufio.Scanner) ([]string, error) {
	var ids []string
	for scanner.Scan() {
		line := scanner.Text()
		if i := strings.IndexByte(line, '#'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if line != "" {
			ids = append(ids, line)
		}
	}
	return ids, scanner.Err()
}

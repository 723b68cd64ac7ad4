package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/matsen/papersim/internal/arxiv"
	"github.com/matsen/papersim/internal/reference"
	"github.com/matsen/papersim/internal/semantic"
	"github.com/matsen/papersim/internal/storage"
)

// Constants for output formatting.
const (
	SearchTitleMaxLen = 70 // Used in similar result summaries
	DetailTitleMaxLen = 70 // Used for the source paper heading
	ListIDMaxShown    = 10 // Failed/missing IDs listed in human output
)

// outputJSON writes a value as formatted JSON to stdout.
func outputJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// exitWithError outputs an error in the appropriate format (human or JSON) and exits.
func exitWithError(code int, format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	if humanOutput {
		fmt.Fprintf(os.Stderr, "error: %s\n", msg)
	} else {
		outputJSON(ErrorResponse{Error: msg})
	}
	os.Exit(code)
}

// exitWithErr exits with the code exitCodeFor picks for err.
func exitWithErr(err error, action string) {
	if arxiv.IsRateLimited(err) {
		exitWithError(exitCodeFor(err), "%s: %v\n\narXiv is throttling requests; raise rate_interval with 'papersim config rate-interval 5s'.", action, err)
	}
	exitWithError(exitCodeFor(err), "%s: %v", action, err)
}

// StatusResponse is a generic response for commands that return status.
type StatusResponse struct {
	Status string `json:"status"`
	Path   string `json:"path,omitempty"`
}

// ErrorResponse is a JSON error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PaperResult is one paper in similar results, enriched with stored metadata when known.
type PaperResult struct {
	ID      string             `json:"id"`
	Title   string             `json:"title,omitempty"`
	Authors []reference.Author `json:"authors,omitempty"`
	Year    int                `json:"year,omitempty"`
	Score   float64            `json:"score"`
}

// buildPaperResults joins ranked results with stored metadata.
// Papers absent from the database keep only their ID and score.
func buildPaperResults(results []semantic.SearchResult, db *storage.DB) []PaperResult {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.PaperID
	}

	refs, err := db.GetByIDs(ids)
	if err != nil {
		logger.Error(err, "looking up paper metadata")
		refs = nil
	}

	out := make([]PaperResult, 0, len(results))
	for _, r := range results {
		pr := PaperResult{ID: r.PaperID, Score: r.Score}
		if ref, ok := refs[r.PaperID]; ok {
			pr.Title = ref.Title
			pr.Authors = ref.Authors
			pr.Year = ref.Published.Year
		}
		out = append(out, pr)
	}
	return out
}

// printPaperResultsHuman prints ranked papers in human-readable format.
func printPaperResultsHuman(results []PaperResult) {
	for i, r := range results {
		fmt.Printf("%d. [%.4f] %s\n", i+1, r.Score, r.ID)
		if r.Title != "" {
			fmt.Printf("   %s\n", truncateString(r.Title, SearchTitleMaxLen))
		}
		if len(r.Authors) > 0 {
			fmt.Printf("   %s (%d)\n", formatAuthorsShort(r.Authors, 3), r.Year)
		}
		fmt.Println()
	}
}

// truncateString truncates a string to maxLen, adding "..." if truncated.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

// formatAuthorShort formats an author as "Last F" (abbreviated first name).
func formatAuthorShort(a reference.Author) string {
	if a.First != "" {
		return a.Last + " " + string(a.First[0])
	}
	return a.Last
}

// formatAuthorsShort formats authors with abbreviation and "et al." for more than maxCount.
func formatAuthorsShort(authors []reference.Author, maxCount int) string {
	if len(authors) == 0 {
		return ""
	}

	var names []string
	for i, a := range authors {
		if i >= maxCount {
			names = append(names, "et al.")
			break
		}
		names = append(names, formatAuthorShort(a))
	}
	return strings.Join(names, ", ")
}

// formatIDList formats IDs as a comma-separated string, eliding past maxShown.
func formatIDList(ids []string, maxShown int) string {
	if len(ids) <= maxShown {
		return strings.Join(ids, ", ")
	}
	return fmt.Sprintf("%s, ... (%d more)", strings.Join(ids[:maxShown], ", "), len(ids)-maxShown)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	minutes := int(d.Minutes())
	seconds := int(d.Seconds()) % 60
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

// formatBytes formats bytes in a human-readable way.
func formatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

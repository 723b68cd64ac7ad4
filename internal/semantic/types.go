// Package semantic encodes arXiv papers into embeddings and ranks papers by
// vector similarity.
package semantic

import "time"

// SearchResult is one ranked candidate from FindSimilar.
type SearchResult struct {
	PaperID string  `json:"id"`
	Score   float64 `json:"score"`
}

// BatchStats summarizes one EncodeBatch run.
type BatchStats struct {
	Requested int           `json:"requested"`
	Encoded   int           `json:"encoded"`
	Failed    int           `json:"failed"`
	FailedIDs []string      `json:"failed_ids,omitempty"`
	Duration  time.Duration `json:"duration"`
}

// ProgressReporter receives progress updates during batch encoding.
type ProgressReporter interface {
	// OnProgress is called after each paper is processed, successful or not.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

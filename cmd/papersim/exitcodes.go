package main

import (
	"errors"

	"github.com/matsen/papersim/internal/semantic"
	"github.com/matsen/papersim/internal/similarity"
)

// Exit codes returned by every command.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (no repository, bad config, table not found)
	ExitDataError   = 3 // Data error (dimension mismatch, unknown method, bad input file)
	ExitFetchError  = 4 // Paper metadata could not be fetched
	ExitModelError  = 5 // Embedding provider unavailable or model not found
	ExitTableStale  = 6 // Embedding table was built with a different model
)

// exitCodeFor maps an error returned by the semantic layer to an exit code.
func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return ExitSuccess
	case errors.Is(err, semantic.ErrMetadataFetch):
		return ExitFetchError
	case errors.Is(err, similarity.ErrDimensionMismatch), errors.Is(err, similarity.ErrUnknownMethod):
		return ExitDataError
	case errors.Is(err, semantic.ErrTableNotFound), errors.Is(err, semantic.ErrUnsupportedVersion):
		return ExitConfigError
	default:
		return ExitError
	}
}

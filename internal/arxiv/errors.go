package arxiv

import (
	"errors"
	"fmt"
)

// Common errors returned by the arXiv client.
var (
	// ErrNotFound indicates arXiv has no paper under the identifier.
	ErrNotFound = errors.New("paper not found on arXiv")

	// ErrInvalidID indicates the identifier is not a recognizable arXiv ID.
	ErrInvalidID = errors.New("invalid arXiv identifier")

	// ErrRateLimited indicates arXiv refused the request for load reasons.
	ErrRateLimited = errors.New("arXiv rate limit exceeded")

	// ErrNetworkError indicates a network connectivity issue.
	ErrNetworkError = errors.New("network error communicating with arXiv")

	// ErrInvalidResponse indicates an unexpected API response.
	ErrInvalidResponse = errors.New("invalid response from arXiv")
)

// APIError represents an error reported by the arXiv API.
type APIError struct {
	StatusCode int
	Code       string // "api_error", or the fragment of an arXiv error entry ID
	Message    string
	PaperID    string
}

func (e *APIError) Error() string {
	if e.PaperID != "" {
		return fmt.Sprintf("arXiv API error (status %d, code %s): %s (paper: %s)", e.StatusCode, e.Code, e.Message, e.PaperID)
	}
	return fmt.Sprintf("arXiv API error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound returns true if the error indicates the paper does not exist.
func IsNotFound(err error) bool {
	if errors.Is(err, ErrNotFound) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 404
	}
	return false
}

// IsRateLimited returns true if the error indicates rate limiting.
func IsRateLimited(err error) bool {
	if errors.Is(err, ErrRateLimited) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429 || apiErr.StatusCode == 503
	}
	return false
}

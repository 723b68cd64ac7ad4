package main

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/matsen/papersim/internal/reference"
	"github.com/matsen/papersim/internal/semantic"
	"github.com/matsen/papersim/internal/similarity"
)

func TestTruncateString(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{"short", "Attention", 20, "Attention"},
		{"exact", "Attention", 9, "Attention"},
		{"truncated", "Attention Is All You Need", 12, "Attention..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncateString(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncateString(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.want)
			}
		})
	}
}

func TestFormatAuthorsShort(t *testing.T) {
	authors := []reference.Author{
		{First: "Ashish", Last: "Vaswani"},
		{First: "Noam", Last: "Shazeer"},
		{First: "Niki", Last: "Parmar"},
		{Last: "Uszkoreit"},
	}

	tests := []struct {
		name     string
		authors  []reference.Author
		maxCount int
		want     string
	}{
		{"none", nil, 3, ""},
		{"one", authors[:1], 3, "Vaswani A"},
		{"last name only", authors[3:], 3, "Uszkoreit"},
		{"et al", authors, 2, "Vaswani A, Shazeer N, et al."},
		{"all fit", authors, 4, "Vaswani A, Shazeer N, Parmar N, Uszkoreit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := formatAuthorsShort(tt.authors, tt.maxCount); got != tt.want {
				t.Errorf("formatAuthorsShort() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatIDList(t *testing.T) {
	ids := []string{"a", "b", "c", "d"}

	if got := formatIDList(ids, 10); got != "a, b, c, d" {
		t.Errorf("formatIDList(all) = %q", got)
	}
	if got := formatIDList(ids, 2); got != "a, b, ... (2 more)" {
		t.Errorf("formatIDList(elided) = %q", got)
	}
	if got := formatIDList(nil, 2); got != "" {
		t.Errorf("formatIDList(nil) = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{1500 * time.Millisecond, "1.5s"},
		{59 * time.Second, "59.0s"},
		{2*time.Minute + 5*time.Second, "2m 5s"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.d); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.d, got, tt.want)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes int64
		want  string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		if got := formatBytes(tt.bytes); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.bytes, got, tt.want)
		}
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"fetch", &semantic.MetadataFetchError{PaperID: "2106.15928", Err: errors.New("timeout")}, ExitFetchError},
		{"dimension mismatch", fmt.Errorf("scoring: %w", similarity.ErrDimensionMismatch), ExitDataError},
		{"unknown method", similarity.ErrUnknownMethod, ExitDataError},
		{"table missing", semantic.ErrTableNotFound, ExitConfigError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

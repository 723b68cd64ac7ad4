// Package reference defines the paper record kept for every fetched paper.
package reference

import "time"

// Reference is the stored metadata of one paper.
type Reference struct {
	// Identity
	ID      string `json:"id"`       // Identifier the paper was requested under
	ArXivID string `json:"arxiv_id"` // Versioned arXiv ID reported by the API (e.g. 2106.15928v2)
	DOI     string `json:"doi,omitempty"`

	// Metadata
	Title      string   `json:"title"`
	Authors    []Author `json:"authors"`
	Abstract   string   `json:"abstract"`
	Venue      string   `json:"venue,omitempty"` // Journal reference, if published
	Categories []string `json:"categories,omitempty"`

	Published PublicationDate `json:"published"`

	URL string `json:"url,omitempty"`

	// Import Tracking
	Source    ImportSource `json:"source"`
	FetchedAt time.Time    `json:"fetched_at"`
}

// PublicationDate represents a publication date with optional month and day.
type PublicationDate struct {
	Year  int `json:"year"`
	Month int `json:"month,omitempty"` // 1-12, 0 if unknown
	Day   int `json:"day,omitempty"`   // 1-31, 0 if unknown
}

// ImportSource tracks where a reference was fetched from.
type ImportSource struct {
	Type string `json:"type"` // arxiv
	ID   string `json:"id"`   // ID in the source system
}

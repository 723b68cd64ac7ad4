// Package pdf pulls identifiers out of downloaded paper PDFs.
package pdf

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

// maxSearchPages is how many leading pages are scanned for an identifier.
// arXiv stamps the ID in the left margin of page 1.
const maxSearchPages = 3

var (
	// stampPattern matches the margin stamp, e.g. "arXiv:1706.03762v7 [cs.CL] 2 Aug 2023".
	stampPattern = regexp.MustCompile(`(?i)arxiv:\s*(\d{4}\.\d{4,5}(?:v\d+)?|[a-z\-]+(?:\.[A-Z]{2})?/\d{7}(?:v\d+)?)`)

	// urlPattern matches abs/pdf links in the text.
	urlPattern = regexp.MustCompile(`arxiv\.org/(?:abs|pdf)/(\d{4}\.\d{4,5}(?:v\d+)?)`)
)

// ExtractArXivID finds an arXiv identifier in the first pages of a PDF.
// Returns "" (not an error) when no identifier is present.
func ExtractArXivID(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("opening pdf: %w", err)
	}
	defer f.Close()

	pages := maxSearchPages
	if r.NumPage() < pages {
		pages = r.NumPage()
	}

	for i := 1; i <= pages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}

		if id := findArXivID(text); id != "" {
			return id, nil
		}
	}

	return "", nil
}

// findArXivID returns the first arXiv identifier in text.
// The margin stamp wins over links, since reference lists link to other papers.
func findArXivID(text string) string {
	if m := stampPattern.FindStringSubmatch(text); m != nil {
		return strings.TrimRight(m[1], ".,;:)")
	}
	if m := urlPattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return ""
}

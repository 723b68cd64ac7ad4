package arxiv

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	// newIDPattern matches post-2007 IDs: YYMM.NNNN or YYMM.NNNNN with optional version.
	newIDPattern = regexp.MustCompile(`^\d{4}\.\d{4,5}(v\d+)?$`)

	// oldIDPattern matches pre-2007 IDs such as hep-th/9901001 or math.GT/0309136.
	oldIDPattern = regexp.MustCompile(`^[a-z]+(-[a-z]+)*(\.[A-Z]{2})?/\d{7}(v\d+)?$`)

	versionSuffix = regexp.MustCompile(`v\d+$`)
)

// urlPrefixes are stripped from identifiers given as arXiv URLs.
var urlPrefixes = []string{
	"https://arxiv.org/abs/",
	"http://arxiv.org/abs/",
	"https://arxiv.org/pdf/",
	"http://arxiv.org/pdf/",
	"https://export.arxiv.org/abs/",
	"http://export.arxiv.org/abs/",
	"arxiv.org/abs/",
	"arxiv.org/pdf/",
}

// NormalizeID converts an identifier into the form the export API accepts.
// Supports formats:
//   - 2106.15928, 2106.15928v2
//   - arXiv:2106.15928, ARXIV:2106.15928
//   - https://arxiv.org/abs/2106.15928
//   - https://arxiv.org/pdf/2106.15928v1.pdf
//   - hep-th/9901001
//
// Version suffixes are kept.
func NormalizeID(id string) (string, error) {
	s := strings.TrimSpace(id)

	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(strings.ToLower(s), prefix) {
			s = s[len(prefix):]
			break
		}
	}
	if strings.HasPrefix(strings.ToLower(s), "arxiv:") {
		s = s[len("arxiv:"):]
	}
	s = strings.TrimSuffix(s, ".pdf")
	s = strings.TrimSuffix(s, "/")

	if newIDPattern.MatchString(s) || oldIDPattern.MatchString(s) {
		return s, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
}

// StripVersion removes a trailing version suffix ("v2") from an ID.
func StripVersion(id string) string {
	return versionSuffix.ReplaceAllString(id, "")
}

// idFromEntryURL extracts the versioned ID from an entry's abs URL.
func idFromEntryURL(u string) string {
	for _, prefix := range urlPrefixes {
		if strings.HasPrefix(u, prefix) {
			return u[len(prefix):]
		}
	}
	return u
}

// collapseWhitespace joins the hard-wrapped lines arXiv puts in titles and abstracts.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

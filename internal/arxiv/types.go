package arxiv

import (
	"strings"
	"time"
)

// Paper is the metadata arXiv reports for one paper.
type Paper struct {
	ID              string // Versioned ID, e.g. "2106.15928v2"
	Title           string
	Summary         string
	Authors         []Author
	Published       time.Time
	Updated         time.Time
	PrimaryCategory string
	Categories      []string
	DOI             string
	JournalRef      string
	Comment         string
	AbsURL          string
	PDFURL          string
}

// Author is an arXiv author entry.
type Author struct {
	Name        string
	Affiliation string
}

// BaseID returns the ID without its version suffix.
func (p Paper) BaseID() string {
	return StripVersion(p.ID)
}

// Atom feed structures returned by the export API.
// Default-namespace elements match by local name; arXiv extensions need the full namespace.

type atomFeed struct {
	TotalResults int         `xml:"http://a9.com/-/spec/opensearch/1.1/ totalResults"`
	Entries      []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID              string         `xml:"id"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Published       string         `xml:"published"`
	Updated         string         `xml:"updated"`
	Authors         []atomAuthor   `xml:"author"`
	Links           []atomLink     `xml:"link"`
	Categories      []atomCategory `xml:"category"`
	PrimaryCategory atomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
	DOI             string         `xml:"http://arxiv.org/schemas/atom doi"`
	JournalRef      string         `xml:"http://arxiv.org/schemas/atom journal_ref"`
	Comment         string         `xml:"http://arxiv.org/schemas/atom comment"`
}

type atomAuthor struct {
	Name        string `xml:"name"`
	Affiliation string `xml:"http://arxiv.org/schemas/atom affiliation"`
}

type atomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

// errorIDPrefix marks entries arXiv uses to report request errors.
const errorIDPrefix = "http://arxiv.org/api/errors"

func (e atomEntry) isError() bool {
	return strings.HasPrefix(e.ID, errorIDPrefix)
}

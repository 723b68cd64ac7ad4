package arxiv

import (
	"time"

	"github.com/matsen/papersim/internal/reference"
)

// SourceType identifies arXiv as the origin of a stored reference.
const SourceType = "arxiv"

// MapToReference converts a Paper to the stored Reference.
// requestedID is the identifier the caller asked for; it becomes the reference ID.
func MapToReference(requestedID string, paper Paper, fetchedAt time.Time) reference.Reference {
	ref := reference.Reference{
		ID:         requestedID,
		ArXivID:    paper.ID,
		DOI:        paper.DOI,
		Title:      paper.Title,
		Abstract:   paper.Summary,
		Venue:      paper.JournalRef,
		Categories: paper.Categories,
		URL:        paper.AbsURL,
		Authors:    mapAuthors(paper.Authors),
		Source: reference.ImportSource{
			Type: SourceType,
			ID:   paper.BaseID(),
		},
		FetchedAt: fetchedAt,
	}

	if !paper.Published.IsZero() {
		ref.Published = reference.PublicationDate{
			Year:  paper.Year(),
			Month: int(paper.Published.Month()),
			Day:   paper.Published.Day(),
		}
	}

	return ref
}

// mapAuthors converts arXiv authors to Reference authors.
func mapAuthors(authors []Author) []reference.Author {
	out := make([]reference.Author, 0, len(authors))
	for _, a := range authors {
		first, last := reference.SplitName(a.Name)
		out = append(out, reference.Author{
			First:       first,
			Last:        last,
			Affiliation: a.Affiliation,
		})
	}
	return out
}

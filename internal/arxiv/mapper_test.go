package arxiv

import (
	"testing"
	"time"
)

func TestMapToReference(t *testing.T) {
	fetched := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	paper := Paper{
		ID:         "1706.03762v7",
		Title:      "Attention Is All You Need",
		Summary:    "The dominant sequence transduction models.",
		Authors:    []Author{{Name: "Ashish Vaswani", Affiliation: "Google Brain"}, {Name: "Noam Shazeer"}},
		Published:  time.Date(2017, 6, 12, 17, 57, 34, 0, time.UTC),
		Categories: []string{"cs.CL", "cs.LG"},
		DOI:        "10.48550/arXiv.1706.03762",
		JournalRef: "NeurIPS 2017",
		AbsURL:     "http://arxiv.org/abs/1706.03762v7",
	}

	ref := MapToReference("arXiv:1706.03762", paper, fetched)

	if ref.ID != "arXiv:1706.03762" {
		t.Errorf("ID = %q, want the requested identifier", ref.ID)
	}
	if ref.ArXivID != "1706.03762v7" || ref.Source.ID != "1706.03762" || ref.Source.Type != SourceType {
		t.Errorf("identity = %q / %+v", ref.ArXivID, ref.Source)
	}
	if ref.Abstract != paper.Summary || ref.Venue != "NeurIPS 2017" {
		t.Errorf("abstract/venue = %q / %q", ref.Abstract, ref.Venue)
	}
	if ref.Published.Year != 2017 || ref.Published.Month != 6 || ref.Published.Day != 12 {
		t.Errorf("Published = %+v", ref.Published)
	}
	if len(ref.Authors) != 2 || ref.Authors[0].Last != "Vaswani" || ref.Authors[0].Affiliation != "Google Brain" {
		t.Errorf("Authors = %+v", ref.Authors)
	}
	if !ref.FetchedAt.Equal(fetched) {
		t.Errorf("FetchedAt = %v", ref.FetchedAt)
	}
}

func TestMapToReference_NoDate(t *testing.T) {
	ref := MapToReference("x", Paper{ID: "2101.00001"}, time.Now())
	if ref.Published.Year != 0 {
		t.Errorf("Published = %+v, want zero", ref.Published)
	}
}

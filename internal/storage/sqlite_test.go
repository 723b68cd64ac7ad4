package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/papersim/internal/reference"
)

func testRefs() []reference.Reference {
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []reference.Reference{
		{
			ID:       "2106.15928",
			ArXivID:  "2106.15928v2",
			DOI:      "10.1234/smith",
			Title:    "Machine Learning in Biology",
			Abstract: "This paper discusses machine learning applications.",
			Venue:    "Nature 600 (2021)",
			Authors: []reference.Author{
				{First: "John", Last: "Smith", Affiliation: "Fred Hutch"},
				{First: "Jane", Last: "Doe"},
			},
			Categories: []string{"q-bio.PE", "cs.LG"},
			Published:  reference.PublicationDate{Year: 2021, Month: 6, Day: 30},
			URL:        "http://arxiv.org/abs/2106.15928v2",
			Source:     reference.ImportSource{Type: "arxiv", ID: "2106.15928v2"},
			FetchedAt:  fetched,
		},
		{
			ID:       "1706.03762",
			ArXivID:  "1706.03762v7",
			Title:    "Attention Is All You Need",
			Abstract: "The dominant sequence transduction models...",
			Authors: []reference.Author{
				{First: "Ashish", Last: "Vaswani"},
			},
			Published: reference.PublicationDate{Year: 2017, Month: 6},
			Source:    reference.ImportSource{Type: "arxiv", ID: "1706.03762v7"},
			FetchedAt: fetched,
		},
		{
			ID:        "hep-th/9901001",
			Title:     "An Old Style Identifier",
			Published: reference.PublicationDate{Year: 1999},
			Source:    reference.ImportSource{Type: "arxiv"},
			FetchedAt: fetched,
		},
	}
}

// setupTestDB creates a test database rebuilt from a JSONL file of test papers.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	tmpDir := t.TempDir()
	jsonlPath := filepath.Join(tmpDir, "papers.jsonl")

	if err := WriteAll(jsonlPath, testRefs()); err != nil {
		t.Fatalf("Failed to write test JSONL: %v", err)
	}

	db, err := OpenDB(filepath.Join(tmpDir, "papers.db"))
	if err != nil {
		t.Fatalf("Failed to open test DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	count, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("Failed to rebuild DB: %v", err)
	}
	if count != 3 {
		t.Fatalf("RebuildFromJSONL() = %d, want 3", count)
	}

	return db
}

func TestGetByID(t *testing.T) {
	db := setupTestDB(t)

	ref, err := db.GetByID("2106.15928")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ref == nil {
		t.Fatal("GetByID() returned nil")
	}

	want := testRefs()[0]
	if ref.Title != want.Title {
		t.Errorf("Title = %q, want %q", ref.Title, want.Title)
	}
	if ref.ArXivID != want.ArXivID {
		t.Errorf("ArXivID = %q, want %q", ref.ArXivID, want.ArXivID)
	}
	if len(ref.Authors) != 2 || ref.Authors[0].Affiliation != "Fred Hutch" {
		t.Errorf("Authors = %+v", ref.Authors)
	}
	if len(ref.Categories) != 2 || ref.Categories[0] != "q-bio.PE" {
		t.Errorf("Categories = %v", ref.Categories)
	}
	if ref.Published != want.Published {
		t.Errorf("Published = %+v, want %+v", ref.Published, want.Published)
	}
	if !ref.FetchedAt.Equal(want.FetchedAt) {
		t.Errorf("FetchedAt = %v, want %v", ref.FetchedAt, want.FetchedAt)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := setupTestDB(t)

	ref, err := db.GetByID("0000.00000")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if ref != nil {
		t.Errorf("GetByID() = %+v, want nil", ref)
	}
}

func TestGetByID_EmptyOptionalFields(t *testing.T) {
	db := setupTestDB(t)

	ref, err := db.GetByID("hep-th/9901001")
	if err != nil || ref == nil {
		t.Fatalf("GetByID() = %v, %v", ref, err)
	}
	if ref.DOI != "" || ref.Abstract != "" || len(ref.Categories) != 0 {
		t.Errorf("optional fields should be empty, got %+v", ref)
	}
	if ref.Published.Month != 0 || ref.Published.Day != 0 {
		t.Errorf("Published = %+v, want year only", ref.Published)
	}
}

func TestGetByIDs(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetByIDs([]string{"2106.15928", "1706.03762", "missing"})
	if err != nil {
		t.Fatalf("GetByIDs() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("GetByIDs() returned %d papers, want 2", len(got))
	}
	if got["1706.03762"].Title != "Attention Is All You Need" {
		t.Errorf("unexpected title %q", got["1706.03762"].Title)
	}

	empty, err := db.GetByIDs(nil)
	if err != nil || len(empty) != 0 {
		t.Errorf("GetByIDs(nil) = %v, %v; want empty", empty, err)
	}
}

func TestListAllAndCount(t *testing.T) {
	db := setupTestDB(t)

	all, err := db.ListAll(0)
	if err != nil {
		t.Fatalf("ListAll() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("ListAll() returned %d papers, want 3", len(all))
	}
	if all[0].ID != "1706.03762" {
		t.Errorf("ListAll()[0].ID = %q, want ordering by ID", all[0].ID)
	}

	limited, err := db.ListAll(2)
	if err != nil {
		t.Fatalf("ListAll(2) error = %v", err)
	}
	if len(limited) != 2 {
		t.Errorf("ListAll(2) returned %d papers, want 2", len(limited))
	}

	count, err := db.Count()
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 3 {
		t.Errorf("Count() = %d, want 3", count)
	}
}

func TestSaveReference_Replaces(t *testing.T) {
	db := setupTestDB(t)

	ref := testRefs()[1]
	ref.Title = "Attention Is Still All You Need"
	if err := db.SaveReference(ref); err != nil {
		t.Fatalf("SaveReference() error = %v", err)
	}

	got, err := db.GetByID(ref.ID)
	if err != nil || got == nil {
		t.Fatalf("GetByID() = %v, %v", got, err)
	}
	if got.Title != ref.Title {
		t.Errorf("Title = %q, want %q", got.Title, ref.Title)
	}

	count, _ := db.Count()
	if count != 3 {
		t.Errorf("Count() = %d after replace, want 3", count)
	}
}

func TestEmbeddingMetadata(t *testing.T) {
	db := setupTestDB(t)

	meta := EmbeddingMetadata{
		PaperID:    "2106.15928",
		ModelName:  "nomic-embed-text",
		Dimensions: 768,
		IndexedAt:  1700000000,
		TextHash:   "abc123",
	}
	if err := db.SaveEmbeddingMetadata(meta); err != nil {
		t.Fatalf("SaveEmbeddingMetadata() error = %v", err)
	}
	if err := db.SaveEmbeddingMetadata(EmbeddingMetadata{
		PaperID: "1706.03762", ModelName: "all-minilm", Dimensions: 384, IndexedAt: 1700000001, TextHash: "def",
	}); err != nil {
		t.Fatalf("SaveEmbeddingMetadata() error = %v", err)
	}

	got, err := db.GetEmbeddingMetadata("2106.15928")
	if err != nil {
		t.Fatalf("GetEmbeddingMetadata() error = %v", err)
	}
	if got == nil || *got != meta {
		t.Errorf("GetEmbeddingMetadata() = %+v, want %+v", got, meta)
	}

	missing, err := db.GetEmbeddingMetadata("hep-th/9901001")
	if err != nil || missing != nil {
		t.Errorf("GetEmbeddingMetadata(missing) = %v, %v; want nil, nil", missing, err)
	}

	count, err := db.CountEmbeddingMetadata()
	if err != nil || count != 2 {
		t.Errorf("CountEmbeddingMetadata() = %d, %v; want 2", count, err)
	}

	mismatched, err := db.ListModelMismatches("nomic-embed-text")
	if err != nil {
		t.Fatalf("ListModelMismatches() error = %v", err)
	}
	if len(mismatched) != 1 || mismatched[0] != "1706.03762" {
		t.Errorf("ListModelMismatches() = %v, want [1706.03762]", mismatched)
	}
}

func TestRebuildFromJSONL_KeepsEmbeddingMetadata(t *testing.T) {
	db := setupTestDB(t)

	if err := db.SaveEmbeddingMetadata(EmbeddingMetadata{
		PaperID: "2106.15928", ModelName: "m", Dimensions: 2, IndexedAt: 1, TextHash: "h",
	}); err != nil {
		t.Fatalf("SaveEmbeddingMetadata() error = %v", err)
	}

	jsonlPath := filepath.Join(t.TempDir(), "papers.jsonl")
	if err := WriteAll(jsonlPath, testRefs()[:1]); err != nil {
		t.Fatalf("WriteAll() error = %v", err)
	}
	count, err := db.RebuildFromJSONL(jsonlPath)
	if err != nil {
		t.Fatalf("RebuildFromJSONL() error = %v", err)
	}
	if count != 1 {
		t.Errorf("RebuildFromJSONL() = %d, want 1", count)
	}

	metaCount, _ := db.CountEmbeddingMetadata()
	if metaCount != 1 {
		t.Errorf("CountEmbeddingMetadata() = %d after rebuild, want 1", metaCount)
	}
}

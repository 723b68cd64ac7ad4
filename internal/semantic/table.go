package semantic

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/matsen/papersim/internal/config"
)

// Errors returned by embedding table operations.
var (
	ErrTableNotFound      = errors.New("embedding table not found")
	ErrUnsupportedVersion = errors.New("unsupported table version")
)

const (
	// TableFileName is the name of the persisted embedding table.
	TableFileName = "embeddings.gob"

	// CurrentTableVersion is the format version for compatibility checking.
	// Increment this when making breaking changes to the table format.
	CurrentTableVersion = 1
)

// Table maps paper identifiers to embedding vectors.
// It remembers insertion order so rankings over it are deterministic.
// A Table is not safe for concurrent mutation.
type Table struct {
	Version    int
	ModelName  string
	Dimensions int
	CreatedAt  time.Time

	// IDs holds every key of Embeddings, in insertion order.
	IDs        []string
	Embeddings map[string][]float32
}

// NewTable creates an empty table for vectors produced by modelName.
// A dimensions value of zero is fixed by the first vector added.
func NewTable(modelName string, dimensions int) *Table {
	return &Table{
		Version:    CurrentTableVersion,
		ModelName:  modelName,
		Dimensions: dimensions,
		CreatedAt:  time.Now(),
		Embeddings: make(map[string][]float32),
	}
}

// TablePath returns the path to the embedding table file.
func TablePath(repoRoot string) string {
	return filepath.Join(config.CachePath(repoRoot), TableFileName)
}

// Add stores vec under paperID. Re-adding an ID replaces its vector and
// keeps its original position.
func (t *Table) Add(paperID string, vec []float32) error {
	if t.Dimensions == 0 {
		t.Dimensions = len(vec)
	}
	if len(vec) != t.Dimensions {
		return fmt.Errorf("embedding dimension mismatch for %s: got %d, want %d", paperID, len(vec), t.Dimensions)
	}
	if t.Embeddings == nil {
		t.Embeddings = make(map[string][]float32)
	}
	if _, exists := t.Embeddings[paperID]; !exists {
		t.IDs = append(t.IDs, paperID)
	}
	t.Embeddings[paperID] = vec
	return nil
}

// Get returns the vector stored for paperID.
func (t *Table) Get(paperID string) ([]float32, bool) {
	vec, ok := t.Embeddings[paperID]
	return vec, ok
}

// Has reports whether paperID is in the table.
func (t *Table) Has(paperID string) bool {
	_, ok := t.Embeddings[paperID]
	return ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	return len(t.IDs)
}

// Merge adds every entry of other, in other's order.
func (t *Table) Merge(other *Table) error {
	for _, id := range other.IDs {
		if err := t.Add(id, other.Embeddings[id]); err != nil {
			return err
		}
	}
	return nil
}

// Save persists the table to path using gob encoding.
func (t *Table) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	// Write to a temp file first, then rename for atomicity
	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	if err := gob.NewEncoder(f).Encode(t); err != nil {
		f.Close()
		os.Remove(tempPath)
		return fmt.Errorf("encoding table: %w", err)
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("closing file: %w", err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}

	return nil
}

// LoadTable reads a table from path.
// Returns ErrTableNotFound when the file does not exist and
// ErrUnsupportedVersion when it was written in an incompatible format.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrTableNotFound
		}
		return nil, fmt.Errorf("opening table file: %w", err)
	}
	defer f.Close()

	var t Table
	if err := gob.NewDecoder(f).Decode(&t); err != nil {
		return nil, fmt.Errorf("decoding table: %w", err)
	}

	if t.Version != CurrentTableVersion {
		return nil, fmt.Errorf("%w: got %d, want %d (rebuild with 'papersim index build')",
			ErrUnsupportedVersion, t.Version, CurrentTableVersion)
	}
	if t.Embeddings == nil {
		t.Embeddings = make(map[string][]float32)
	}
	if len(t.IDs) != len(t.Embeddings) {
		return nil, fmt.Errorf("decoding table: %d ids for %d embeddings", len(t.IDs), len(t.Embeddings))
	}

	return &t, nil
}

// TableExists checks if a table file exists at path.
func TableExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

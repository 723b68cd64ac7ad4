package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/matsen/papersim/internal/reference"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// selectPaperFields contains the standard field list for SELECT queries.
const selectPaperFields = `id, arxiv_id, doi, title, abstract, venue,
	pub_year, pub_month, pub_day, url,
	source_type, source_id, fetched_at,
	authors_json, categories_json`

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- Metadata of every paper fetched for embedding
		CREATE TABLE IF NOT EXISTS papers (
			id TEXT PRIMARY KEY,
			arxiv_id TEXT,
			doi TEXT,
			title TEXT NOT NULL,
			abstract TEXT,
			venue TEXT,
			pub_year INTEGER NOT NULL,
			pub_month INTEGER,
			pub_day INTEGER,
			url TEXT,
			source_type TEXT NOT NULL,
			source_id TEXT,
			fetched_at INTEGER NOT NULL,
			authors_json TEXT NOT NULL,
			categories_json TEXT
		);

		-- Which model embedded which text, for staleness checks
		CREATE TABLE IF NOT EXISTS embedding_metadata (
			paper_id TEXT PRIMARY KEY,
			model_name TEXT NOT NULL,
			dimensions INTEGER NOT NULL,
			indexed_at INTEGER NOT NULL,
			text_hash TEXT NOT NULL
		);
	`

	_, err := db.Exec(schema)
	return err
}

const upsertPaperSQL = `
	INSERT OR REPLACE INTO papers (
		id, arxiv_id, doi, title, abstract, venue,
		pub_year, pub_month, pub_day, url,
		source_type, source_id, fetched_at,
		authors_json, categories_json
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// execer is satisfied by *sql.DB, *sql.Tx and *sql.Stmt callers below.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func upsertPaper(e execer, ref reference.Reference) error {
	authorsJSON, err := json.Marshal(ref.Authors)
	if err != nil {
		return fmt.Errorf("marshaling authors for %s: %w", ref.ID, err)
	}
	var categoriesJSON []byte
	if len(ref.Categories) > 0 {
		categoriesJSON, err = json.Marshal(ref.Categories)
		if err != nil {
			return fmt.Errorf("marshaling categories for %s: %w", ref.ID, err)
		}
	}

	_, err = e.Exec(upsertPaperSQL,
		ref.ID, nullableStringValue(ref.ArXivID), nullableStringValue(ref.DOI),
		ref.Title, nullableStringValue(ref.Abstract), nullableStringValue(ref.Venue),
		ref.Published.Year, ref.Published.Month, ref.Published.Day, nullableStringValue(ref.URL),
		ref.Source.Type, nullableStringValue(ref.Source.ID), ref.FetchedAt.Unix(),
		string(authorsJSON), nullableString(categoriesJSON),
	)
	if err != nil {
		return fmt.Errorf("saving paper %s: %w", ref.ID, err)
	}
	return nil
}

// SaveReference inserts or replaces a paper.
func (d *DB) SaveReference(ref reference.Reference) error {
	return upsertPaper(d.db, ref)
}

// RebuildFromJSONL clears the papers table and rebuilds it from a JSONL file.
// Embedding metadata is left alone.
func (d *DB) RebuildFromJSONL(jsonlPath string) (int, error) {
	refs, err := ReadAll(jsonlPath)
	if err != nil {
		return 0, fmt.Errorf("reading JSONL: %w", err)
	}

	tx, err := d.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM papers"); err != nil {
		return 0, fmt.Errorf("clearing papers table: %w", err)
	}

	for _, ref := range refs {
		if err := upsertPaper(tx, ref); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing rebuild: %w", err)
	}

	return len(refs), nil
}

// GetByID retrieves a paper by its ID. Returns nil, nil when absent.
func (d *DB) GetByID(id string) (*reference.Reference, error) {
	row := d.db.QueryRow(`SELECT `+selectPaperFields+` FROM papers WHERE id = ?`, id)
	return scanReference(row)
}

// GetByIDs retrieves several papers keyed by ID. Missing IDs are absent from the map.
func (d *DB) GetByIDs(ids []string) (map[string]reference.Reference, error) {
	result := make(map[string]reference.Reference, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}

	rows, err := d.db.Query(`SELECT `+selectPaperFields+` FROM papers WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return nil, fmt.Errorf("looking up papers: %w", err)
	}
	defer rows.Close()

	refs, err := scanReferences(rows)
	if err != nil {
		return nil, err
	}
	for _, ref := range refs {
		result[ref.ID] = ref
	}
	return result, nil
}

// ListAll returns all papers ordered by ID, optionally limited.
func (d *DB) ListAll(limit int) ([]reference.Reference, error) {
	query := `SELECT ` + selectPaperFields + ` FROM papers ORDER BY id`
	var args []any

	if limit > 0 {
		query += " LIMIT ?"
		args = []any{limit}
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing papers: %w", err)
	}
	defer rows.Close()

	return scanReferences(rows)
}

// Count returns the total number of papers.
func (d *DB) Count() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM papers").Scan(&count)
	return count, err
}

// scanner interface for sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...any) error
}

func scanReference(s scanner) (*reference.Reference, error) {
	var ref reference.Reference
	var arxivID, doi, abstract, venue, url, sourceID sql.NullString
	var authorsJSON, categoriesJSON sql.NullString
	var pubMonth, pubDay sql.NullInt64
	var fetchedAt int64

	err := s.Scan(
		&ref.ID, &arxivID, &doi, &ref.Title, &abstract, &venue,
		&ref.Published.Year, &pubMonth, &pubDay, &url,
		&ref.Source.Type, &sourceID, &fetchedAt,
		&authorsJSON, &categoriesJSON,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	ref.ArXivID = arxivID.String
	ref.DOI = doi.String
	ref.Abstract = abstract.String
	ref.Venue = venue.String
	ref.URL = url.String
	ref.Source.ID = sourceID.String
	ref.FetchedAt = time.Unix(fetchedAt, 0).UTC()

	if pubMonth.Valid {
		ref.Published.Month = int(pubMonth.Int64)
	}
	if pubDay.Valid {
		ref.Published.Day = int(pubDay.Int64)
	}

	if authorsJSON.Valid {
		if err := json.Unmarshal([]byte(authorsJSON.String), &ref.Authors); err != nil {
			return nil, fmt.Errorf("parsing authors JSON for %s: %w", ref.ID, err)
		}
	}
	if categoriesJSON.Valid && categoriesJSON.String != "" {
		if err := json.Unmarshal([]byte(categoriesJSON.String), &ref.Categories); err != nil {
			return nil, fmt.Errorf("parsing categories JSON for %s: %w", ref.ID, err)
		}
	}

	return &ref, nil
}

func scanReferences(rows *sql.Rows) ([]reference.Reference, error) {
	var refs []reference.Reference
	for rows.Next() {
		ref, err := scanReference(rows)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			refs = append(refs, *ref)
		}
	}
	return refs, rows.Err()
}

func nullableString(b []byte) sql.NullString {
	if len(b) == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

// nullableStringValue converts a string to sql.NullString, treating empty as NULL.
func nullableStringValue(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// EmbeddingMetadata records which model embedded a paper's text.
type EmbeddingMetadata struct {
	PaperID    string
	ModelName  string
	Dimensions int
	IndexedAt  int64  // Unix timestamp
	TextHash   string // SHA256 of the embedded text
}

// SaveEmbeddingMetadata saves or updates embedding metadata for a paper.
func (d *DB) SaveEmbeddingMetadata(meta EmbeddingMetadata) error {
	_, err := d.db.Exec(`
		INSERT OR REPLACE INTO embedding_metadata (paper_id, model_name, dimensions, indexed_at, text_hash)
		VALUES (?, ?, ?, ?, ?)
	`, meta.PaperID, meta.ModelName, meta.Dimensions, meta.IndexedAt, meta.TextHash)
	return err
}

// GetEmbeddingMetadata retrieves embedding metadata for a paper. Returns nil, nil when absent.
func (d *DB) GetEmbeddingMetadata(paperID string) (*EmbeddingMetadata, error) {
	var meta EmbeddingMetadata
	err := d.db.QueryRow(`
		SELECT paper_id, model_name, dimensions, indexed_at, text_hash
		FROM embedding_metadata
		WHERE paper_id = ?
	`, paperID).Scan(&meta.PaperID, &meta.ModelName, &meta.Dimensions, &meta.IndexedAt, &meta.TextHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &meta, nil
}

// CountEmbeddingMetadata returns the number of papers with embedding metadata.
func (d *DB) CountEmbeddingMetadata() (int, error) {
	var count int
	err := d.db.QueryRow("SELECT COUNT(*) FROM embedding_metadata").Scan(&count)
	return count, err
}

// ListModelMismatches returns IDs of papers embedded with a model other than modelName.
func (d *DB) ListModelMismatches(modelName string) ([]string, error) {
	rows, err := d.db.Query("SELECT paper_id FROM embedding_metadata WHERE model_name != ? ORDER BY paper_id", modelName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

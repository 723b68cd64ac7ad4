package semantic

import (
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-logr/logr"

	"github.com/matsen/papersim/internal/arxiv"
	"github.com/matsen/papersim/internal/embedding"
	"github.com/matsen/papersim/internal/storage"
)

// ErrMetadataFetch matches every *MetadataFetchError.
var ErrMetadataFetch = errors.New("failed to fetch paper metadata")

// MetadataFetchError reports that a paper's metadata could not be retrieved.
// It unwraps to the metadata client's error.
type MetadataFetchError struct {
	PaperID string
	Err     error
}

func (e *MetadataFetchError) Error() string {
	return fmt.Sprintf("%s for %s: %v", ErrMetadataFetch, e.PaperID, e.Err)
}

func (e *MetadataFetchError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrMetadataFetch) hold.
func (e *MetadataFetchError) Is(target error) bool {
	return target == ErrMetadataFetch
}

// MetadataSource looks up a single paper by identifier.
// *arxiv.Client satisfies it.
type MetadataSource interface {
	GetPaper(ctx context.Context, paperID string) (*arxiv.Paper, error)
}

// Encoder turns paper identifiers into embeddings and compares them.
type Encoder struct {
	source      MetadataSource
	log         logr.Logger
	db          *storage.DB
	progress    ProgressReporter
	workers     int
	cacheMisses bool
	now         func() time.Time
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log logr.Logger) Option {
	return func(e *Encoder) {
		e.log = log
	}
}

// WithDB records fetched metadata and embedding provenance in db.
func WithDB(db *storage.DB) Option {
	return func(e *Encoder) {
		e.db = db
	}
}

// WithProgressReporter sets the batch progress reporter.
func WithProgressReporter(reporter ProgressReporter) Option {
	return func(e *Encoder) {
		e.progress = reporter
	}
}

// WithWorkers sets how many papers EncodeBatch encodes at once.
// Values below 2 keep batches sequential.
func WithWorkers(n int) Option {
	return func(e *Encoder) {
		e.workers = n
	}
}

// WithCacheMisses makes FindSimilar add the target's vector to the table
// when it had to be encoded on the fly.
func WithCacheMisses(enabled bool) Option {
	return func(e *Encoder) {
		e.cacheMisses = enabled
	}
}

// NewEncoder creates an encoder that fetches metadata from source.
func NewEncoder(source MetadataSource, opts ...Option) *Encoder {
	e := &Encoder{
		source:  source,
		log:     logr.Discard(),
		workers: 1,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// PaperText is the text embedded for a paper: its title and abstract.
func PaperText(p arxiv.Paper) string {
	return p.Title + ". " + p.Summary
}

// Encode fetches paperID's metadata and embeds its title and abstract with model.
// Fetch failures are returned as *MetadataFetchError.
func (e *Encoder) Encode(ctx context.Context, paperID string, model embedding.Provider) (embedding.Embedding, error) {
	paper, err := e.source.GetPaper(ctx, paperID)
	if err == nil && paper == nil {
		err = fmt.Errorf("%w: %s", arxiv.ErrNotFound, paperID)
	}
	if err != nil {
		e.log.Error(err, "fetching paper metadata failed", "paperID", paperID)
		return embedding.Embedding{}, &MetadataFetchError{PaperID: paperID, Err: err}
	}

	text := PaperText(*paper)
	emb, err := model.Embed(ctx, text)
	if err != nil {
		e.log.Error(err, "embedding paper failed", "paperID", paperID, "model", model.ModelName())
		return embedding.Embedding{}, fmt.Errorf("embedding paper %s: %w", paperID, err)
	}

	e.record(paperID, *paper, text, model, len(emb.Vector))
	e.log.V(1).Info("encoded paper", "paperID", paperID, "title", paper.Title, "dimensions", len(emb.Vector))
	return emb, nil
}

// record stores what was embedded. Failures are logged and never fail the encode.
func (e *Encoder) record(paperID string, paper arxiv.Paper, text string, model embedding.Provider, dims int) {
	if e.db == nil {
		return
	}
	now := e.now()
	if err := e.db.SaveReference(arxiv.MapToReference(paperID, paper, now)); err != nil {
		e.log.Error(err, "recording paper metadata failed", "paperID", paperID)
		return
	}
	meta := storage.EmbeddingMetadata{
		PaperID:    paperID,
		ModelName:  model.ModelName(),
		Dimensions: dims,
		IndexedAt:  now.Unix(),
		TextHash:   hashText(text),
	}
	if err := e.db.SaveEmbeddingMetadata(meta); err != nil {
		e.log.Error(err, "recording embedding metadata failed", "paperID", paperID)
	}
}

// hashText computes a SHA256 hash of the embedded text.
func hashText(text string) string {
	h := sha256.New()
	io.WriteString(h, text)
	return fmt.Sprintf("%x", h.Sum(nil))
}

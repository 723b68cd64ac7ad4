// Package embedding turns text into fixed-length vectors.
//
// Any text-encoding model is a Provider; Ollama and OpenAI-compatible HTTP
// APIs are the two shipped implementations.
package embedding

import (
	"errors"
	"strings"
)

// ErrDimensionMismatch is returned when a model produces a vector whose
// length differs from the dimensions it advertises.
var ErrDimensionMismatch = errors.New("unexpected embedding dimensions")

// Embedding is the vector a model produced for one text.
type Embedding struct {
	Vector []float32
}

// Dimensions returns the dimensionality of the embedding.
func (e Embedding) Dimensions() int {
	return len(e.Vector)
}

// knownDimensions maps embedding model names to their output size.
var knownDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
	"jina-embeddings-v3":     1024,
	"nomic-embed-text":       768,
	"mxbai-embed-large":      1024,
	"all-minilm":             384,
	"snowflake-arctic-embed": 1024,
	"bge-m3":                 1024,
}

// KnownDimensions returns the output size of a well-known model.
// Ollama tags ("nomic-embed-text:latest", "all-minilm:l6-v2") are ignored.
func KnownDimensions(model string) (int, bool) {
	if dims, ok := knownDimensions[model]; ok {
		return dims, true
	}
	name, _, _ := strings.Cut(model, ":")
	dims, ok := knownDimensions[name]
	return dims, ok
}

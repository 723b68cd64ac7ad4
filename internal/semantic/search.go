package semantic

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/matsen/papersim/internal/embedding"
	"github.com/matsen/papersim/internal/similarity"
)

// ErrInvalidTopK is returned by FindSimilar for a negative result count.
var ErrInvalidTopK = errors.New("top-k must not be negative")

// FindSimilar ranks the papers in table by similarity to targetID.
//
// The target's vector comes from the table, or from one call to Encode when
// it is missing. The target itself is never part of the results. Euclidean
// results are ordered by ascending distance, cosine and dot by descending
// score; ties keep table insertion order. At most topK results are
// returned, so topK == 0 yields an empty slice.
func (e *Encoder) FindSimilar(ctx context.Context, targetID string, table *Table, model embedding.Provider, topK int, method similarity.Method) ([]SearchResult, error) {
	if !method.Valid() {
		return nil, &similarity.UnknownMethodError{Method: string(method)}
	}
	if topK < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidTopK, topK)
	}
	if table == nil {
		table = NewTable(model.ModelName(), model.Dimensions())
	}

	target, found := table.Get(targetID)
	if !found {
		e.log.V(1).Info("paper not in table, encoding", "paperID", targetID)
		emb, err := e.Encode(ctx, targetID, model)
		if err != nil {
			return nil, err
		}
		target = emb.Vector
	}

	results := make([]SearchResult, 0, table.Len())
	for _, id := range table.IDs {
		if id == targetID {
			continue
		}
		score, err := similarity.Compare(target, table.Embeddings[id], method)
		if err != nil {
			return nil, fmt.Errorf("comparing %s with %s: %w", targetID, id, err)
		}
		results = append(results, SearchResult{PaperID: id, Score: score})
	}

	if method.HigherIsBetter() {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score > results[j].Score
		})
	} else {
		sort.SliceStable(results, func(i, j int) bool {
			return results[i].Score < results[j].Score
		})
	}

	if len(results) > topK {
		results = results[:topK]
	}

	if !found && e.cacheMisses {
		if err := table.Add(targetID, target); err != nil {
			return nil, fmt.Errorf("caching %s: %w", targetID, err)
		}
	}

	return results, nil
}

// ComparePapers encodes two papers and compares their embeddings.
func (e *Encoder) ComparePapers(ctx context.Context, id1, id2 string, model embedding.Provider, method similarity.Method) (float64, error) {
	if !method.Valid() {
		return 0, &similarity.UnknownMethodError{Method: string(method)}
	}

	emb1, err := e.Encode(ctx, id1, model)
	if err != nil {
		return 0, err
	}
	emb2, err := e.Encode(ctx, id2, model)
	if err != nil {
		return 0, err
	}

	score, err := similarity.Compare(emb1.Vector, emb2.Vector, method)
	if err != nil {
		return 0, fmt.Errorf("comparing %s with %s: %w", id1, id2, err)
	}

	e.log.Info("compared papers", "paper1", id1, "paper2", id2, "method", string(method), "score", score)
	return score, nil
}

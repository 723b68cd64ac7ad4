package semantic

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/matsen/papersim/internal/arxiv"
	"github.com/matsen/papersim/internal/embedding"
)

// fakeSource serves papers from memory and counts lookups.
type fakeSource struct {
	mu     sync.Mutex
	papers map[string]*arxiv.Paper
	errs   map[string]error
	calls  map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		papers: make(map[string]*arxiv.Paper),
		errs:   make(map[string]error),
		calls:  make(map[string]int),
	}
}

// add registers a paper whose title and abstract are derived from id.
func (s *fakeSource) add(id string) *arxiv.Paper {
	p := &arxiv.Paper{ID: id + "v1", Title: "Title " + id, Summary: "Abstract of " + id}
	s.papers[id] = p
	return p
}

func (s *fakeSource) GetPaper(ctx context.Context, paperID string) (*arxiv.Paper, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls[paperID]++

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err, ok := s.errs[paperID]; ok {
		return nil, err
	}
	p, ok := s.papers[paperID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", arxiv.ErrNotFound, paperID)
	}
	return p, nil
}

func (s *fakeSource) callCount(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[id]
}

func (s *fakeSource) totalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

// fakeProvider returns fixed vectors keyed by the embedded text.
type fakeProvider struct {
	mu    sync.Mutex
	dims  int
	vecs  map[string][]float32
	texts []string
	fail  bool
}

func newFakeProvider(dims int) *fakeProvider {
	return &fakeProvider{dims: dims, vecs: make(map[string][]float32)}
}

// set assigns vec to the paper text of p.
func (f *fakeProvider) set(p *arxiv.Paper, vec ...float32) {
	f.vecs[PaperText(*p)] = vec
}

func (f *fakeProvider) Embed(ctx context.Context, text string) (embedding.Embedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)

	if f.fail {
		return embedding.Embedding{}, errors.New("model unavailable")
	}
	vec, ok := f.vecs[text]
	if !ok {
		vec = make([]float32, f.dims)
	}
	return embedding.Embedding{Vector: vec}, nil
}

func (f *fakeProvider) ModelName() string { return "fake-model" }

func (f *fakeProvider) Dimensions() int { return f.dims }

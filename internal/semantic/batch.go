package semantic

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matsen/papersim/internal/embedding"
)

type slotState int

const (
	slotPending slotState = iota
	slotEncoded
	slotFailed
)

// slot holds the outcome for one position of the input.
type slot struct {
	state slotState
	vec   []float32
}

// EncodeBatch encodes every identifier in paperIDs and collects the vectors
// into a table in input order. Papers that fail are logged and skipped.
// The error is non-nil only when ctx is done; the partial table and stats
// are returned alongside it.
func (e *Encoder) EncodeBatch(ctx context.Context, paperIDs []string, model embedding.Provider) (*Table, *BatchStats, error) {
	start := time.Now()
	slots := make([]slot, len(paperIDs))

	if e.workers > 1 {
		e.encodeConcurrent(ctx, paperIDs, model, slots)
	} else {
		e.encodeSequential(ctx, paperIDs, model, slots)
	}

	table := NewTable(model.ModelName(), model.Dimensions())
	stats := &BatchStats{Requested: len(paperIDs)}
	for i, id := range paperIDs {
		switch slots[i].state {
		case slotEncoded:
			if err := table.Add(id, slots[i].vec); err != nil {
				e.log.Info("skipping paper", "paperID", id, "reason", err.Error())
				stats.Failed++
				stats.FailedIDs = append(stats.FailedIDs, id)
				continue
			}
			stats.Encoded++
		case slotFailed:
			stats.Failed++
			stats.FailedIDs = append(stats.FailedIDs, id)
		}
	}
	stats.Duration = time.Since(start)

	e.log.Info(fmt.Sprintf("encoded %d of %d papers", stats.Encoded, stats.Requested),
		"failed", stats.Failed, "duration", stats.Duration.String())

	return table, stats, ctx.Err()
}

func (e *Encoder) encodeSequential(ctx context.Context, paperIDs []string, model embedding.Provider, slots []slot) {
	for i, id := range paperIDs {
		if ctx.Err() != nil {
			return
		}
		slots[i] = e.encodeOne(ctx, id, model)
		e.reportProgress(i+1, len(paperIDs))
	}
}

func (e *Encoder) encodeConcurrent(ctx context.Context, paperIDs []string, model embedding.Provider, slots []slot) {
	var g errgroup.Group
	g.SetLimit(e.workers)

	var mu sync.Mutex
	done := 0

	for i, id := range paperIDs {
		if ctx.Err() != nil {
			break
		}
		i, id := i, id
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			// Each goroutine owns slots[i]; no lock needed for the write.
			slots[i] = e.encodeOne(ctx, id, model)

			mu.Lock()
			done++
			e.reportProgress(done, len(paperIDs))
			mu.Unlock()
			return nil
		})
	}
	g.Wait()
}

// encodeOne runs Encode for one identifier. A failure caused by ctx ending
// leaves the slot pending rather than failed.
func (e *Encoder) encodeOne(ctx context.Context, paperID string, model embedding.Provider) slot {
	emb, err := e.Encode(ctx, paperID, model)
	if err != nil {
		if ctx.Err() != nil {
			return slot{}
		}
		e.log.Info("skipping paper", "paperID", paperID, "reason", err.Error())
		return slot{state: slotFailed}
	}
	return slot{state: slotEncoded, vec: emb.Vector}
}

func (e *Encoder) reportProgress(current, total int) {
	if e.progress != nil {
		e.progress.OnProgress(current, total)
	}
}

package semantic

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/matsen/papersim/internal/arxiv"
)

func TestEncodeBatch_SkipsFailures(t *testing.T) {
	src := newFakeSource()
	a := src.add("A")
	c := src.add("C")
	src.errs["B"] = arxiv.ErrNotFound
	model := newFakeProvider(2)
	model.set(a, 1, 0)
	model.set(c, 0, 1)

	table, stats, err := NewEncoder(src).EncodeBatch(context.Background(), []string{"A", "B", "C"}, model)
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	if table.Len() != 2 || table.IDs[0] != "A" || table.IDs[1] != "C" {
		t.Errorf("table IDs = %v, want [A C]", table.IDs)
	}
	if table.Has("B") {
		t.Error("failed paper should not be in the table")
	}
	if stats.Requested != 3 || stats.Encoded != 2 || stats.Failed != 1 {
		t.Errorf("stats = %+v, want 2 of 3 encoded", stats)
	}
	if len(stats.FailedIDs) != 1 || stats.FailedIDs[0] != "B" {
		t.Errorf("FailedIDs = %v, want [B]", stats.FailedIDs)
	}
}

func TestEncodeBatch_Empty(t *testing.T) {
	table, stats, err := NewEncoder(newFakeSource()).EncodeBatch(context.Background(), nil, newFakeProvider(2))
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}
	if table.Len() != 0 || stats.Requested != 0 || stats.Encoded != 0 {
		t.Errorf("table = %v, stats = %+v; want empty", table.IDs, stats)
	}
}

func TestEncodeBatch_Duplicates(t *testing.T) {
	src := newFakeSource()
	src.add("A")
	src.add("B")
	model := newFakeProvider(2)

	table, stats, err := NewEncoder(src).EncodeBatch(context.Background(), []string{"A", "B", "A"}, model)
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}
	if src.callCount("A") != 2 {
		t.Errorf("A fetched %d times, want 2", src.callCount("A"))
	}
	if table.Len() != 2 || table.IDs[0] != "A" {
		t.Errorf("table IDs = %v, want [A B]", table.IDs)
	}
	if stats.Encoded != 3 {
		t.Errorf("Encoded = %d, want 3", stats.Encoded)
	}
}

func TestEncodeBatch_Progress(t *testing.T) {
	src := newFakeSource()
	src.add("A")
	src.add("C")

	var calls [][2]int
	enc := NewEncoder(src, WithProgressReporter(ProgressFunc(func(current, total int) {
		calls = append(calls, [2]int{current, total})
	})))

	if _, _, err := enc.EncodeBatch(context.Background(), []string{"A", "B", "C"}, newFakeProvider(2)); err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	want := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(calls) != len(want) {
		t.Fatalf("progress calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("progress call %d = %v, want %v", i, calls[i], want[i])
		}
	}
}

func TestEncodeBatch_Cancelled(t *testing.T) {
	src := newFakeSource()
	src.add("A")
	src.add("B")

	ctx, cancel := context.WithCancel(context.Background())
	enc := NewEncoder(src, WithProgressReporter(ProgressFunc(func(current, total int) {
		if current == 1 {
			cancel()
		}
	})))

	table, stats, err := enc.EncodeBatch(ctx, []string{"A", "B"}, newFakeProvider(2))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("EncodeBatch() error = %v, want context.Canceled", err)
	}
	if table == nil || table.Len() != 1 || !table.Has("A") {
		t.Errorf("partial table = %v, want [A]", table)
	}
	if stats.Encoded != 1 || stats.Failed != 0 {
		t.Errorf("stats = %+v, want 1 encoded and nothing failed", stats)
	}
	if src.callCount("B") != 0 {
		t.Error("B should not be fetched after cancellation")
	}
}

func TestEncodeBatch_WorkersPreserveOrder(t *testing.T) {
	src := newFakeSource()
	model := newFakeProvider(1)
	ids := []string{"p0", "p1", "p2", "p3", "p4", "p5", "p6", "p7"}
	for i, id := range ids {
		if id == "p3" {
			src.errs[id] = arxiv.ErrNetworkError
			continue
		}
		model.set(src.add(id), float32(i))
	}

	var mu sync.Mutex
	maxSeen := 0
	enc := NewEncoder(src, WithWorkers(3), WithProgressReporter(ProgressFunc(func(current, total int) {
		mu.Lock()
		defer mu.Unlock()
		if current > maxSeen {
			maxSeen = current
		}
	})))

	table, stats, err := enc.EncodeBatch(context.Background(), ids, model)
	if err != nil {
		t.Fatalf("EncodeBatch() error = %v", err)
	}

	want := []string{"p0", "p1", "p2", "p4", "p5", "p6", "p7"}
	if table.Len() != len(want) {
		t.Fatalf("table IDs = %v, want %v", table.IDs, want)
	}
	for i, id := range want {
		if table.IDs[i] != id {
			t.Errorf("IDs[%d] = %q, want %q", i, table.IDs[i], id)
		}
	}
	if vec, _ := table.Get("p5"); vec[0] != 5 {
		t.Errorf("Get(p5) = %v, want [5]", vec)
	}
	if stats.Encoded != 7 || stats.Failed != 1 || stats.FailedIDs[0] != "p3" {
		t.Errorf("stats = %+v", stats)
	}
	if maxSeen != len(ids) {
		t.Errorf("final progress = %d, want %d", maxSeen, len(ids))
	}
}

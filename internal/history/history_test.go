package history

import (
	"context"
	"errors"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/richhaase/repowiki/internal/agent"
	"github.com/richhaase/repowiki/internal/docstatus"
	"github.com/richhaase/repowiki/internal/generator"
	"github.com/richhaase/repowiki/internal/mapping"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: filepath.Join(t.TempDir(), "zh", "meta", FileName)})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func batch(id string, op generator.Operation, started time.Time) generator.BatchResult {
	return generator.BatchResult{
		BatchID:   id,
		Operation: op,
		StartedAt: started,
		Success:   1,
		Failed:    1,
		Skipped:   2,
		Duration:  1500 * time.Millisecond,
		Errors:    []string{"B: boom", "C: timed out after 5m0s"},
	}
}

func mustRecordBatch(t *testing.T, s *Store, b generator.BatchResult) {
	t.Helper()
	if err := s.RecordBatch(context.Background(), b); err != nil {
		t.Fatalf("RecordBatch(%s) error = %v", b.BatchID, err)
	}
}

func TestRecordBatch_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	now := time.Now()

	mustRecordBatch(t, s, batch("11111111-aaaa", generator.OpInitialize, now.Add(-time.Hour)))
	mustRecordBatch(t, s, batch("22222222-bbbb", generator.OpUpdate, now))

	batches, err := s.RecentBatches(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 2 {
		t.Fatalf("RecentBatches() returned %d batches, want 2", len(batches))
	}
	if batches[0].ID != "22222222-bbbb" {
		t.Errorf("batches[0].ID = %q, want newest first", batches[0].ID)
	}
	if batches[0].Operation != "update" {
		t.Errorf("Operation = %q, want update", batches[0].Operation)
	}
	if got := batches[0].Duration(); got != 1500*time.Millisecond {
		t.Errorf("Duration() = %v, want 1.5s", got)
	}
	if got := batches[0].ErrorList(); !slices.Equal(got, []string{"B: boom", "C: timed out after 5m0s"}) {
		t.Errorf("ErrorList() = %v", got)
	}

	limited, err := s.RecentBatches(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Errorf("RecentBatches(1) returned %d batches", len(limited))
	}
}

func TestRecordBatch_UpsertsTotals(t *testing.T) {
	s := openTestStore(t)
	b := batch("33333333", generator.OpUpdate, time.Now())

	mustRecordBatch(t, s, b)
	b.Success = 5
	b.Errors = nil
	mustRecordBatch(t, s, b)

	batches, err := s.RecentBatches(context.Background(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 1 {
		t.Fatalf("RecentBatches() returned %d batches, want 1", len(batches))
	}
	if batches[0].Succeeded != 5 {
		t.Errorf("Succeeded = %d, want 5", batches[0].Succeeded)
	}
	if got := batches[0].ErrorList(); got != nil {
		t.Errorf("ErrorList() = %v, want nil", got)
	}
}

func TestRecordBatch_RequiresID(t *testing.T) {
	s := openTestStore(t)
	if err := s.RecordBatch(context.Background(), generator.BatchResult{}); err == nil {
		t.Error("RecordBatch() without an ID should fail")
	}
}

func TestRecordItem_GenerationsAndLastSuccess(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	m := mapping.Mapping{Source: "a.go", Doc: "zh/content/a.md", Title: "A"}

	if err := s.RecordItem(ctx, "b1", generator.ItemResult{
		Mapping: m, Status: docstatus.Missing, Agent: agent.TypeClaude, Success: true, Duration: time.Second,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.RecordItem(ctx, "b2", generator.ItemResult{
		Mapping: m, Status: docstatus.Outdated, Agent: agent.TypeCodex, Error: "boom",
	}); err != nil {
		t.Fatal(err)
	}

	gens, err := s.Generations(ctx, "b1")
	if err != nil {
		t.Fatal(err)
	}
	if len(gens) != 1 {
		t.Fatalf("Generations() returned %d rows, want 1", len(gens))
	}
	if gens[0].Status != "missing" || gens[0].DurationMs != 1000 {
		t.Errorf("generation = %+v, want status missing and 1000ms", gens[0])
	}

	last, err := s.LastSuccess(ctx, m.Doc)
	if err != nil {
		t.Fatal(err)
	}
	if last == nil {
		t.Fatal("LastSuccess() = nil, want the b1 generation")
	}
	if last.BatchID != "b1" || last.Agent != "claude" {
		t.Errorf("LastSuccess() = batch %q agent %q, want b1 and claude", last.BatchID, last.Agent)
	}

	none, err := s.LastSuccess(ctx, "zh/content/other.md")
	if err != nil {
		t.Fatal(err)
	}
	if none != nil {
		t.Errorf("LastSuccess(other) = %+v, want nil", none)
	}
}

func TestFindBatch_Prefix(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	mustRecordBatch(t, s, batch("abc11111", generator.OpUpdate, time.Now()))
	mustRecordBatch(t, s, batch("abc22222", generator.OpUpdate, time.Now()))

	b, err := s.FindBatch(ctx, "abc1")
	if err != nil {
		t.Fatal(err)
	}
	if b == nil || b.ID != "abc11111" {
		t.Errorf("FindBatch(abc1) = %+v, want abc11111", b)
	}

	if _, err := s.FindBatch(ctx, "abc"); !errors.Is(err, ErrAmbiguousID) {
		t.Errorf("FindBatch(abc) error = %v, want ErrAmbiguousID", err)
	}

	missing, err := s.FindBatch(ctx, "zzz")
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Errorf("FindBatch(zzz) = %+v, want nil", missing)
	}
}

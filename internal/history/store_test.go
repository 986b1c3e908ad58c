package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"vidlingo/internal/history"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	entries := []history.Entry{
		{JobID: "j1", VideoID: "abc", Language: "Spanish", Outcome: history.OutcomePublished, PublishedURL: "https://youtu.be/x", SubmittedAt: base, StartedAt: base, FinishedAt: base.Add(time.Minute)},
		{JobID: "j2", VideoID: "def", Language: "Thai", Outcome: history.OutcomeFailed, FailedStage: "media", ErrorKind: "delegate", ErrorMessage: "download failed", SubmittedAt: base, StartedAt: base, FinishedAt: base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record(%s): %v", e.JobID, err)
		}
	}

	got, err := store.List(ctx, 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got[0].JobID != "j2" || got[0].FailedStage != "media" {
		t.Fatalf("expected newest failure first, got %+v", got[0])
	}
	if got[1].PublishedURL != "https://youtu.be/x" || !got[1].FinishedAt.Equal(base.Add(time.Minute)) {
		t.Fatalf("unexpected published entry %+v", got[1])
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Published != 1 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestRecordValidates(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	if err := store.Record(ctx, history.Entry{Outcome: history.OutcomeFailed}); err == nil {
		t.Fatal("expected error for missing job id")
	}
	if err := store.Record(ctx, history.Entry{JobID: "x", Outcome: "pending"}); err == nil {
		t.Fatal("expected error for non-terminal outcome")
	}
	e := history.Entry{JobID: "dup", VideoID: "v", Language: "French", Outcome: history.OutcomeFailed}
	if err := store.Record(ctx, e); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := store.Record(ctx, e); err == nil {
		t.Fatal("expected duplicate job id to be rejected")
	}
}

func TestPrune(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	old := time.Now().Add(-48 * time.Hour)
	for i, finished := range []time.Time{old, time.Now()} {
		e := history.Entry{JobID: string(rune('a' + i)), VideoID: "v", Language: "German", Outcome: history.OutcomePublished, FinishedAt: finished}
		if err := store.Record(ctx, e); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	removed, err := store.Prune(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Prune: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 pruned row, got %d", removed)
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	_ = store.Close()
	store, err = history.Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	_ = store.Close()
}

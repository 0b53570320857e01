package history

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "db", "history.db"))
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndList(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	first, err := store.Record(ctx, Entry{
		WeekStart:   "2026-01-08",
		ContentHash: "aaa",
		ItemCount:   3,
		RunID:       "run-1",
		SentAt:      time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if first.ID == 0 {
		t.Fatal("expected assigned id")
	}
	if _, err := store.Record(ctx, Entry{WeekStart: "2026-01-15", ContentHash: "bbb", ItemCount: 1, Forced: true}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].WeekStart != "2026-01-15" || !entries[0].Forced {
		t.Fatalf("unexpected newest entry %+v", entries[0])
	}
	if entries[1].RunID != "run-1" || entries[1].ItemCount != 3 {
		t.Fatalf("unexpected oldest entry %+v", entries[1])
	}
	if !entries[1].SentAt.Equal(time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected sent_at %v", entries[1].SentAt)
	}

	limited, err := store.List(ctx, 1)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(limited))
	}
}

func TestForWeek(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()
	for _, hash := range []string{"a", "b"} {
		if _, err := store.Record(ctx, Entry{WeekStart: "2026-01-15", ContentHash: hash}); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}
	if _, err := store.Record(ctx, Entry{WeekStart: "2026-01-22", ContentHash: "c"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}

	entries, err := store.ForWeek(ctx, "2026-01-15")
	if err != nil {
		t.Fatalf("ForWeek failed: %v", err)
	}
	if len(entries) != 2 || entries[0].ContentHash != "a" || entries[1].ContentHash != "b" {
		t.Fatalf("unexpected entries %+v", entries)
	}
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := store.Record(ctx, Entry{WeekStart: "2026-01-15", ContentHash: "a"}); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	_ = store.Close()

	reopened, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()
	entries, err := reopened.List(ctx, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	ctx := context.Background()

	store, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_ = store.Close()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open failed: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 99"); err != nil {
		t.Fatalf("update version: %v", err)
	}
	_ = db.Close()

	if _, err := Open(ctx, path); !errors.Is(err, ErrSchemaMismatch) {
		t.Fatalf("expected schema mismatch, got %v", err)
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open(context.Background(), " "); err == nil {
		t.Fatal("expected error for empty path")
	}
}

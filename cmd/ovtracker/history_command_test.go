package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"ovtracker/internal/history"
	"ovtracker/internal/testsupport"
)

func TestHistoryListsEntries(t *testing.T) {
	env := setupCLITestEnv(t)

	stdout, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, stdout, "No digests sent yet")

	ctx := context.Background()
	store, err := history.Open(ctx, env.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	sentAt := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	for i, week := range []string{"2026-01-08", "2026-01-15"} {
		if _, err := store.Record(ctx, history.Entry{
			WeekStart:   week,
			ContentHash: "0123456789abcdef0123",
			ItemCount:   3 + i,
			Forced:      i == 1,
			RunID:       "run",
			SentAt:      sentAt.AddDate(0, 0, 7*i),
		}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	stdout, _, err = env.run(t, "history", "-n", "1")
	if err != nil {
		t.Fatalf("history -n 1: %v", err)
	}
	requireContains(t, stdout, "2026-01-15")
	requireContains(t, stdout, "0123456789ab")
	requireNotContains(t, stdout, "2026-01-08")

	stdout, _, err = env.run(t, "--json", "history")
	if err != nil {
		t.Fatalf("history --json: %v", err)
	}
	var views []historyEntryView
	if err := json.Unmarshal([]byte(stdout), &views); err != nil {
		t.Fatalf("decode: %v\n%s", err, stdout)
	}
	if len(views) != 2 || views[0].WeekStart != "2026-01-15" || !views[0].Forced {
		t.Fatalf("unexpected history %+v", views)
	}
}

func TestHistoryDisabled(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithoutHistory())

	if _, _, err := env.run(t, "history"); err == nil {
		t.Fatal("expected error when history is disabled")
	}
}

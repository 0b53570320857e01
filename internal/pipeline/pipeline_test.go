package pipeline_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"ovtracker/internal/config"
	"ovtracker/internal/history"
	"ovtracker/internal/identification/tmdb"
	"ovtracker/internal/pipeline"
	"ovtracker/internal/services"
	"ovtracker/internal/state"
	"ovtracker/internal/testsupport"
)

const botToken = "123:secret"

type fixture struct {
	cfg      *config.Config
	telegram *testsupport.TelegramServer
	tmdb     *testsupport.TMDBServer
	page     atomic.Value
	now      time.Time
}

func berlin(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// completePage lists OV films on Thursday to Saturday and a non-OV film on
// Wednesday, which makes the week complete.
func completePage(loc *time.Location) string {
	today := time.Date(2026, 1, 15, 0, 0, 0, 0, loc)
	return testsupport.SchedulePage(today,
		testsupport.Film{Title: "Iron Man (OV)", Sessions: []time.Time{
			time.Date(2026, 1, 17, 18, 0, 0, 0, loc),
			time.Date(2026, 1, 15, 20, 0, 0, 0, loc),
			time.Date(2026, 1, 22, 20, 0, 0, 0, loc),
		}},
		testsupport.Film{Title: "Dune OmU", Sessions: []time.Time{
			time.Date(2026, 1, 16, 18, 0, 0, 0, loc),
		}},
		testsupport.Film{Title: "Wicked", Sessions: []time.Time{
			time.Date(2026, 1, 21, 20, 0, 0, 0, loc),
		}},
	)
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) *fixture {
	t.Helper()
	loc := berlin(t)
	f := &fixture{now: time.Date(2026, 1, 15, 10, 0, 0, 0, loc)}
	f.page.Store(completePage(loc))

	schedule := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := f.page.Load().(string)
		if page == "" {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(schedule.Close)

	f.telegram = testsupport.NewTelegramServer(t, botToken)
	f.tmdb = testsupport.NewTMDBServer(t, map[string][]tmdb.Result{
		"Iron Man": {{ID: 1726, Title: "Iron Man", ReleaseDate: "2008-04-30", VoteCount: 25000}},
		"Dune":     {{ID: 693134, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", VoteCount: 6000}},
	})

	base := []testsupport.ConfigOption{
		testsupport.WithScheduleURL(schedule.URL),
		testsupport.WithTMDB(f.tmdb.URL, "tmdb-key"),
		testsupport.WithTelegram(f.telegram.Endpoint(), botToken, "-100123"),
	}
	f.cfg = testsupport.NewConfig(t, append(base, opts...)...)
	return f
}

func (f *fixture) run(t *testing.T, opts pipeline.Options) (pipeline.Report, error) {
	t.Helper()
	asm, err := pipeline.Assemble(context.Background(), f.cfg, nil, pipeline.WithClock(func() time.Time { return f.now }))
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	defer asm.Close()
	ctx := services.WithRunID(context.Background(), "run-test")
	return asm.Runner.Run(ctx, opts)
}

func (f *fixture) history(t *testing.T) []history.Entry {
	t.Helper()
	store, err := history.Open(context.Background(), f.cfg.History.Path)
	if err != nil {
		t.Fatalf("open history: %v", err)
	}
	defer store.Close()
	entries, err := store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	return entries
}

func TestRunSendsDigestAndRecordsState(t *testing.T) {
	f := newFixture(t)

	report, err := f.run(t, pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeSent {
		t.Fatalf("expected sent, got %s", report.Outcome)
	}
	if report.Sessions != 5 || report.OVSessions != 3 {
		t.Fatalf("unexpected session counts %d/%d", report.Sessions, report.OVSessions)
	}
	if len(report.Items) != 2 || report.Items[0].Title != "Iron Man" || report.Items[1].Title != "Dune" {
		t.Fatalf("unexpected items %+v", report.Items)
	}
	if len(report.Missing) != 1 || report.Missing[0] != "Dune" {
		t.Fatalf("unexpected missing %v", report.Missing)
	}

	msgs := f.telegram.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message, got %d", len(msgs))
	}
	if msgs[0].ChatID != "-100123" || msgs[0].ParseMode != "HTML" || !msgs[0].DisableWebPagePreview {
		t.Fatalf("unexpected message options %+v", msgs[0])
	}
	for _, want := range []string{
		"🎬 CineStar Konstanz — OV (15–21.01)",
		"• Iron Man — Чт 15.01 20:00",
		"https://letterboxd.com/tmdb/1726/",
		"• Dune — Пт 16.01 18:00",
	} {
		if !strings.Contains(msgs[0].Text, want) {
			t.Fatalf("message missing %q:\n%s", want, msgs[0].Text)
		}
	}

	st := state.Load(f.cfg.StatePath(), nil)
	if week, ok := st.LastSentWeek(); !ok || week != "2026-01-15" {
		t.Fatalf("unexpected last sent week %q", week)
	}
	if hash, _ := st.LastContentHash(); hash != report.Hash {
		t.Fatalf("stored hash %q != report hash %q", hash, report.Hash)
	}
	if id, ok := st.CachedFilm("Iron Man"); !ok || id != 1726 {
		t.Fatalf("expected cached Iron Man, got %d %v", id, ok)
	}
	if _, ok := st.CachedFilm("Dune"); ok {
		t.Fatal("low-score match must not be cached")
	}

	entries := f.history(t)
	if len(entries) != 1 || entries[0].WeekStart != "2026-01-15" || entries[0].ItemCount != 2 || entries[0].RunID != "run-test" {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestRunSkipsAlreadySentWeekUnlessForced(t *testing.T) {
	f := newFixture(t)
	if _, err := f.run(t, pipeline.Options{}); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	report, err := f.run(t, pipeline.Options{})
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeAlreadySent {
		t.Fatalf("expected already sent, got %s", report.Outcome)
	}
	if len(f.telegram.Messages()) != 1 {
		t.Fatal("already-sent week must not be resent")
	}

	report, err = f.run(t, pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("forced run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeSent || !report.Decision.Forced {
		t.Fatalf("expected forced send, got %s %+v", report.Outcome, report.Decision)
	}
	if len(f.telegram.Messages()) != 2 {
		t.Fatal("forced run must resend")
	}
	entries := f.history(t)
	if len(entries) != 2 || !entries[0].Forced {
		t.Fatalf("unexpected history %+v", entries)
	}
}

func TestRunAlreadySentWithChangedContentDoesNotResend(t *testing.T) {
	f := newFixture(t)
	st := state.New()
	st.RecordPublish("2026-01-15", "stale-hash")
	if err := st.Save(f.cfg.StatePath()); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	report, err := f.run(t, pipeline.Options{})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeAlreadySent {
		t.Fatalf("expected already sent, got %s", report.Outcome)
	}
	if !report.Decision.ContentChanged(report.Hash) {
		t.Fatal("expected content change to be detected")
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("changed content must not trigger a resend")
	}
	reloaded := state.Load(f.cfg.StatePath(), nil)
	if hash, _ := reloaded.LastContentHash(); hash != "stale-hash" {
		t.Fatalf("publish hash must be untouched, got %q", hash)
	}
	if _, ok := reloaded.CachedFilm("Iron Man"); !ok {
		t.Fatal("new cache entries should be persisted on skip")
	}
}

func TestRunIncompleteWeekSkipsEvenWhenForced(t *testing.T) {
	f := newFixture(t)
	loc := berlin(t)
	f.page.Store(testsupport.SchedulePage(time.Date(2026, 1, 15, 0, 0, 0, 0, loc),
		testsupport.Film{Title: "Iron Man (OV)", Sessions: []time.Time{time.Date(2026, 1, 20, 23, 59, 0, 0, loc)}},
	))

	report, err := f.run(t, pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeIncomplete {
		t.Fatalf("expected incomplete, got %s", report.Outcome)
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("incomplete week must not be sent")
	}
	if _, err := os.Stat(f.cfg.StatePath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("state must not be written, stat err %v", err)
	}
}

func TestRunEmptyDigestSkips(t *testing.T) {
	f := newFixture(t)
	loc := berlin(t)
	f.page.Store(testsupport.SchedulePage(time.Date(2026, 1, 15, 0, 0, 0, 0, loc),
		testsupport.Film{Title: "Wicked", Sessions: []time.Time{time.Date(2026, 1, 21, 20, 0, 0, 0, loc)}},
	))

	report, err := f.run(t, pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeEmpty {
		t.Fatalf("expected empty, got %s", report.Outcome)
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("empty digest must not be sent")
	}
}

func TestRunUntitledOVSessionsCountAsEmpty(t *testing.T) {
	f := newFixture(t)
	loc := berlin(t)
	f.page.Store(testsupport.SchedulePage(time.Date(2026, 1, 15, 0, 0, 0, 0, loc),
		testsupport.Film{Title: "(OV)", Sessions: []time.Time{time.Date(2026, 1, 16, 20, 0, 0, 0, loc)}},
		testsupport.Film{Title: "Wicked", Sessions: []time.Time{time.Date(2026, 1, 21, 20, 0, 0, 0, loc)}},
	))

	report, err := f.run(t, pipeline.Options{Force: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.OVSessions != 1 || len(report.Items) != 0 {
		t.Fatalf("unexpected counts ov=%d items=%d", report.OVSessions, len(report.Items))
	}
	if report.Outcome != pipeline.OutcomeEmpty {
		t.Fatalf("expected empty, got %s", report.Outcome)
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("digest without films must not be sent")
	}
	st := state.Load(f.cfg.StatePath(), nil)
	if _, ok := st.LastSentWeek(); ok {
		t.Fatal("empty digest must not mark the week sent")
	}
}

func TestRunDryRunIgnoresGatesAndNeverSends(t *testing.T) {
	f := newFixture(t)
	loc := berlin(t)
	f.page.Store(testsupport.SchedulePage(time.Date(2026, 1, 15, 0, 0, 0, 0, loc),
		testsupport.Film{Title: "Iron Man (OV)", Sessions: []time.Time{time.Date(2026, 1, 16, 20, 0, 0, 0, loc)}},
	))

	report, err := f.run(t, pipeline.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if report.Outcome != pipeline.OutcomeDryRun {
		t.Fatalf("expected dry run, got %s", report.Outcome)
	}
	if !strings.Contains(report.Message, "• Iron Man — Пт 16.01 20:00") {
		t.Fatalf("unexpected message:\n%s", report.Message)
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("dry run must not send")
	}
	st := state.Load(f.cfg.StatePath(), nil)
	if _, ok := st.LastSentWeek(); ok {
		t.Fatal("dry run must not touch publish fields")
	}
	if _, ok := st.CachedFilm("Iron Man"); !ok {
		t.Fatal("dry run should persist new cache entries")
	}
}

func TestRunMissingCredentialsIsConfigurationError(t *testing.T) {
	f := newFixture(t, testsupport.WithTelegram("", "", ""))

	_, err := f.run(t, pipeline.Options{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if services.ExitCode(err) == 0 {
		t.Fatal("configuration error must exit non-zero")
	}
	st := state.Load(f.cfg.StatePath(), nil)
	if _, ok := st.LastSentWeek(); ok {
		t.Fatal("state must not be marked sent")
	}
}

func TestRunTransportFailureLeavesStateUntouched(t *testing.T) {
	f := newFixture(t)
	f.telegram.FailSends(true)

	_, err := f.run(t, pipeline.Options{})
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if _, statErr := os.Stat(f.cfg.StatePath()); !errors.Is(statErr, os.ErrNotExist) {
		t.Fatalf("state must not be written after transport failure, stat err %v", statErr)
	}
	if entries := f.history(t); len(entries) != 0 {
		t.Fatalf("no history expected, got %+v", entries)
	}
}

func TestRunFetchExhaustionIsFatal(t *testing.T) {
	f := newFixture(t)
	f.page.Store("")

	_, err := f.run(t, pipeline.Options{})
	if !errors.Is(err, services.ErrFetchExhausted) {
		t.Fatalf("expected fetch exhaustion, got %v", err)
	}
	if !services.Fatal(err) {
		t.Fatal("fetch exhaustion must be fatal")
	}
	if len(f.telegram.Messages()) != 0 {
		t.Fatal("nothing should be sent")
	}
}

func TestRunUsesOverridesBeforeSearch(t *testing.T) {
	f := newFixture(t, testsupport.WithOverrides("Dune: 438631\n"))

	report, err := f.run(t, pipeline.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(report.Missing) != 0 {
		t.Fatalf("expected all titles resolved, missing %v", report.Missing)
	}
	for _, search := range f.tmdb.Searches() {
		if strings.HasSuffix(search, "|Dune") {
			t.Fatalf("override title must not be searched, saw %q", search)
		}
	}
}

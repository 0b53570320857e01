package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"ovtracker/internal/digest"
	"ovtracker/internal/pipeline"
	"ovtracker/internal/services"
	"ovtracker/internal/state"
	"ovtracker/internal/testsupport"
)

const testBotToken = "123:secret"

func TestRunRequiresMode(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := env.run(t, "run"); err == nil {
		t.Fatal("expected error without --dry-run or --send")
	}
	if _, _, err := env.run(t, "run", "--dry-run", "--send"); err == nil {
		t.Fatal("expected error for --dry-run with --send")
	}
	_, _, err := env.run(t, "run", "--dry-run", "--force")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for --force without --send, got %v", err)
	}
	if code := services.ExitCode(err); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
}

func TestRunDryRunPrintsDigest(t *testing.T) {
	page, w := currentWeekPage(t, true)
	env := setupCLITestEnv(t,
		testsupport.WithScheduleURL(page.URL),
		testsupport.WithOverrides("Iron Man: 1726\n"),
	)

	stdout, _, err := env.run(t, "run", "--dry-run", "--dump-missing")
	if err != nil {
		t.Fatalf("run --dry-run: %v", err)
	}
	requireContains(t, stdout, "Iron Man")
	requireContains(t, stdout, "https://letterboxd.com/tmdb/1726/")
	requireNotContains(t, stdout, "Wicked")
	requireContains(t, stdout, "# all titles resolved")

	st := state.Load(env.cfg.StatePath(), nil)
	if week, ok := st.LastSentWeek(); ok {
		t.Fatalf("dry run recorded publish for %s (window %s)", week, w.Key())
	}
}

func TestPrintMissing(t *testing.T) {
	var buf bytes.Buffer
	printMissing(&buf, pipeline.Report{Outcome: pipeline.OutcomeIncomplete})
	requireContains(t, buf.String(), "# titles not resolved (run stopped: incomplete)")
	requireNotContains(t, buf.String(), "all titles resolved")

	buf.Reset()
	printMissing(&buf, pipeline.Report{Outcome: pipeline.OutcomeEmpty, Items: []digest.Item{}})
	requireContains(t, buf.String(), "# all titles resolved")

	buf.Reset()
	printMissing(&buf, pipeline.Report{
		Outcome: pipeline.OutcomeDryRun,
		Items:   []digest.Item{{Title: "Unknown Movie"}},
		Missing: []string{"Unknown Movie"},
	})
	requireContains(t, buf.String(), "# Missing TMDB IDs (add to overrides file):")
	requireContains(t, buf.String(), "\"Unknown Movie\": # TODO_ID")
}

func TestRunSendIncompleteWeekSkipsResolution(t *testing.T) {
	page, _ := currentWeekPage(t, false)
	telegram := testsupport.NewTelegramServer(t, testBotToken)
	env := setupCLITestEnv(t,
		testsupport.WithScheduleURL(page.URL),
		testsupport.WithTelegram(telegram.Endpoint(), testBotToken, "42"),
	)

	stdout, _, err := env.run(t, "run", "--send", "--dump-missing")
	if err != nil {
		t.Fatalf("run --send: %v", err)
	}
	requireContains(t, stdout, "# titles not resolved (run stopped: incomplete)")
	if len(telegram.Messages()) != 0 {
		t.Fatal("incomplete week must not be sent")
	}
}

func TestRunSendPublishesOncePerWeek(t *testing.T) {
	page, w := currentWeekPage(t, true)
	telegram := testsupport.NewTelegramServer(t, testBotToken)
	env := setupCLITestEnv(t,
		testsupport.WithScheduleURL(page.URL),
		testsupport.WithTelegram(telegram.Endpoint(), testBotToken, "-100123"),
	)

	stdout, _, err := env.run(t, "run", "--send")
	if err != nil {
		t.Fatalf("run --send: %v", err)
	}
	requireContains(t, stdout, "Digest sent for week "+w.Key())
	if got := len(telegram.Messages()); got != 1 {
		t.Fatalf("expected 1 message, got %d", got)
	}

	stdout, _, err = env.run(t, "run", "--send")
	if err != nil {
		t.Fatalf("second run --send: %v", err)
	}
	requireContains(t, stdout, "already published")
	if got := len(telegram.Messages()); got != 1 {
		t.Fatalf("expected no second message, got %d", got)
	}

	stdout, _, err = env.run(t, "--json", "run", "--send", "--force")
	if err != nil {
		t.Fatalf("forced run: %v", err)
	}
	var summary runSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("decode summary: %v\n%s", err, stdout)
	}
	if summary.Outcome != "sent" || !summary.Forced || summary.WeekStart != w.Key() {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.RunID == "" || len(summary.Hash) != 64 {
		t.Fatalf("summary missing run id or hash: %+v", summary)
	}
	if len(summary.Missing) != 1 || summary.Missing[0] != "Iron Man" {
		t.Fatalf("missing = %v", summary.Missing)
	}

	historyOut, _, err := env.run(t, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if strings.Count(historyOut, w.Key()) != 2 {
		t.Fatalf("expected two history rows for %s\n%s", w.Key(), historyOut)
	}
}

func TestRunSendWithoutCredentialsIsConfigurationError(t *testing.T) {
	page, _ := currentWeekPage(t, true)
	env := setupCLITestEnv(t, testsupport.WithScheduleURL(page.URL))

	_, _, err := env.run(t, "run", "--send")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestRunSendTransportFailure(t *testing.T) {
	page, _ := currentWeekPage(t, true)
	telegram := testsupport.NewTelegramServer(t, testBotToken)
	telegram.FailSends(true)
	env := setupCLITestEnv(t,
		testsupport.WithScheduleURL(page.URL),
		testsupport.WithTelegram(telegram.Endpoint(), testBotToken, "@ovdigest"),
	)

	_, _, err := env.run(t, "run", "--send")
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if code := services.ExitCode(err); code != 3 {
		t.Fatalf("exit code = %d, want 3", code)
	}
	st := state.Load(env.cfg.StatePath(), nil)
	if _, ok := st.LastSentWeek(); ok {
		t.Fatal("failed send must not record the week")
	}
}

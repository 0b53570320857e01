package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"ovtracker/internal/config"
	"ovtracker/internal/testsupport"
	"ovtracker/internal/week"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
}

// setupCLITestEnv writes cfg to a config file inside an isolated HOME and
// clears the secret environment variables.
func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))
	t.Setenv("TMDB_API_KEY", "")
	t.Setenv("TELEGRAM_BOT_TOKEN", "")
	t.Setenv("TELEGRAM_CHAT_ID", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	testsupport.WriteFile(t, path, string(data))
}

// run executes the CLI with the env's config and no dotenv file.
func (e *cliTestEnv) run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	full := append([]string{"--config", e.configPath, "--env-file", filepath.Join(e.baseDir, "missing.env")}, args...)
	return runCLI(t, full...)
}

func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err := cmd.ExecuteContext(ctx)
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substring string) {
	t.Helper()
	if !strings.Contains(output, substring) {
		t.Fatalf("expected output to contain %q\noutput:\n%s", substring, output)
	}
}

func requireNotContains(t *testing.T, output, substring string) {
	t.Helper()
	if strings.Contains(output, substring) {
		t.Fatalf("expected output not to contain %q\noutput:\n%s", substring, output)
	}
}

func berlinLocation(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Europe/Berlin")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

// currentWeekPage serves a schedule for the running week: one OV film early in
// the window and, when complete is set, a regular film on Wednesday.
func currentWeekPage(t *testing.T, complete bool) (*httptest.Server, week.Window) {
	t.Helper()

	loc := berlinLocation(t)
	now := time.Now().In(loc)
	w := week.Compute(now, loc)
	at := func(offset, hour int) time.Time {
		d := w.Start.AddDate(0, 0, offset)
		return time.Date(d.Year(), d.Month(), d.Day(), hour, 30, 0, 0, loc)
	}
	films := []testsupport.Film{
		{Title: "Iron Man (OV)", Sessions: []time.Time{at(1, 20), at(2, 17)}},
	}
	if complete {
		films = append(films, testsupport.Film{Title: "Wicked", Sessions: []time.Time{at(6, 20)}})
	}
	page := testsupport.SchedulePage(now, films...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(srv.Close)
	return srv, w
}

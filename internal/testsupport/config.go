// Package testsupport builds isolated configurations and fake upstream
// services for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"ovtracker/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Secrets are blank and ticket probing is disabled unless options say otherwise.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")
	cfgVal.TMDB.OverridesPath = filepath.Join(base, "overrides.yaml")
	cfgVal.TMDB.APIKey = ""
	cfgVal.TMDB.RequestsPerSecond = 0
	cfgVal.Tickets.BaseURL = ""
	cfgVal.Telegram.BotToken = ""
	cfgVal.Telegram.ChatID = ""
	cfgVal.Schedule.RetryBackoffSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithScheduleURL points the fetcher at url.
func WithScheduleURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Schedule.URL = url
	}
}

// WithTMDB configures the film database endpoint and key.
func WithTMDB(baseURL, apiKey string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.TMDB.BaseURL = baseURL
		b.cfg.TMDB.APIKey = apiKey
	}
}

// WithTelegram configures the Bot API endpoint template and credentials.
func WithTelegram(endpoint, token, chatID string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Telegram.APIEndpoint = endpoint
		b.cfg.Telegram.BotToken = token
		b.cfg.Telegram.ChatID = chatID
	}
}

// WithTicketBaseURL enables ticket page probing against url.
func WithTicketBaseURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Tickets.BaseURL = url
	}
}

// WithOverrides writes content to the overrides file.
func WithOverrides(content string) ConfigOption {
	return func(b *configBuilder) {
		WriteFile(b.t, b.cfg.TMDB.OverridesPath, content)
	}
}

// WithoutHistory disables the publish journal.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	StateDir string `toml:"state_dir"`
	LogDir   string `toml:"log_dir"`
}

// Schedule contains configuration for retrieving the cinema schedule.
type Schedule struct {
	URL                 string   `toml:"url"`
	DiscoveryURL        string   `toml:"discovery_url"`
	CinemaName          string   `toml:"cinema_name"`
	Timezone            string   `toml:"timezone"`
	RequestTimeout      int      `toml:"request_timeout"`
	RequestRetries      int      `toml:"request_retries"`
	RetryBackoffSeconds int      `toml:"retry_backoff_seconds"`
	UserAgent           string   `toml:"user_agent"`
	OVMarkers           []string `toml:"ov_markers"`
}

// Tickets contains configuration for cinema ticket link probing.
type Tickets struct {
	BaseURL      string `toml:"base_url"`
	ProbeTimeout int    `toml:"probe_timeout"`
}

// TMDB contains configuration for The Movie Database API.
type TMDB struct {
	APIKey            string  `toml:"api_key"`
	BaseURL           string  `toml:"base_url"`
	PrimaryLanguage   string  `toml:"primary_language"`
	FallbackLanguage  string  `toml:"fallback_language"`
	RequestTimeout    int     `toml:"request_timeout"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	OverridesPath     string  `toml:"overrides_path"`
}

// Telegram contains configuration for the digest transport.
type Telegram struct {
	BotToken       string `toml:"bot_token"`
	ChatID         string `toml:"chat_id"`
	APIEndpoint    string `toml:"api_endpoint"`
	RequestTimeout int    `toml:"request_timeout"`
}

// History contains configuration for the publish audit journal.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format     string `toml:"format"`
	Level      string `toml:"level"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// Config encapsulates all configuration values for ovtracker.
//
// Configuration sections by subsystem:
//   - Paths: state and log directories
//   - Schedule: kinoprogramm source, retries, time zone, OV markers
//   - Tickets: cinema ticket page probing
//   - TMDB: film identity resolution and the override table
//   - Telegram: digest transport
//   - History: SQLite journal of successful publishes
//   - Logging: log format, level, and rotation
type Config struct {
	Paths    Paths    `toml:"paths"`
	Schedule Schedule `toml:"schedule"`
	Tickets  Tickets  `toml:"tickets"`
	TMDB     TMDB     `toml:"tmdb"`
	Telegram Telegram `toml:"telegram"`
	History  History  `toml:"history"`
	Logging  Logging  `toml:"logging"`

	location *time.Location
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/ovtracker/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ovtracker.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// StatePath returns the publish state document location.
func (c *Config) StatePath() string {
	return filepath.Join(c.Paths.StateDir, "state.json")
}

// LockPath returns the run lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "ovtracker.lock")
}

// Location returns the cinema time zone. It falls back to UTC when the config
// was built by hand without going through Load.
func (c *Config) Location() *time.Location {
	if c == nil || c.location == nil {
		if c != nil {
			if loc, err := time.LoadLocation(c.Schedule.Timezone); err == nil {
				return loc
			}
		}
		return time.UTC
	}
	return c.location
}

// RequestTimeout returns the schedule fetch timeout.
func (c *Config) RequestTimeout() time.Duration {
	return secondsOr(c.Schedule.RequestTimeout, defaultRequestTimeout)
}

// TMDBTimeout returns the per-request timeout for film database lookups.
func (c *Config) TMDBTimeout() time.Duration {
	return secondsOr(c.TMDB.RequestTimeout, defaultTMDBRequestTimeout)
}

// TelegramTimeout returns the transport request timeout.
func (c *Config) TelegramTimeout() time.Duration {
	return secondsOr(c.Telegram.RequestTimeout, defaultTelegramRequestTimeout)
}

// TicketProbeTimeout returns the ticket page probe timeout.
func (c *Config) TicketProbeTimeout() time.Duration {
	return secondsOr(c.Tickets.ProbeTimeout, defaultTicketProbeTimeout)
}

func secondsOr(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeSchedule(); err != nil {
		return err
	}
	c.normalizeTickets()
	if err := c.normalizeTMDB(); err != nil {
		return err
	}
	c.normalizeTelegram()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeSchedule() error {
	c.Schedule.URL = strings.TrimSpace(c.Schedule.URL)
	if c.Schedule.URL == "" {
		c.Schedule.URL = defaultScheduleURL
	}
	c.Schedule.DiscoveryURL = strings.TrimSpace(c.Schedule.DiscoveryURL)
	c.Schedule.CinemaName = strings.TrimSpace(c.Schedule.CinemaName)
	if c.Schedule.CinemaName == "" {
		c.Schedule.CinemaName = defaultCinemaName
	}
	c.Schedule.Timezone = strings.TrimSpace(c.Schedule.Timezone)
	if c.Schedule.Timezone == "" {
		c.Schedule.Timezone = defaultTimezone
	}
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("schedule.timezone: %w", err)
	}
	c.location = loc
	if c.Schedule.RequestTimeout <= 0 {
		c.Schedule.RequestTimeout = defaultRequestTimeout
	}
	if c.Schedule.RequestRetries < 0 {
		c.Schedule.RequestRetries = 0
	}
	if c.Schedule.RetryBackoffSeconds < 0 {
		c.Schedule.RetryBackoffSeconds = 0
	}
	c.Schedule.UserAgent = strings.TrimSpace(c.Schedule.UserAgent)
	if c.Schedule.UserAgent == "" {
		c.Schedule.UserAgent = defaultUserAgent
	}
	markers := make([]string, 0, len(c.Schedule.OVMarkers))
	for _, marker := range c.Schedule.OVMarkers {
		if trimmed := strings.TrimSpace(marker); trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	c.Schedule.OVMarkers = markers
	return nil
}

func (c *Config) normalizeTickets() {
	c.Tickets.BaseURL = strings.TrimRight(strings.TrimSpace(c.Tickets.BaseURL), "/")
	if c.Tickets.ProbeTimeout <= 0 {
		c.Tickets.ProbeTimeout = defaultTicketProbeTimeout
	}
}

func (c *Config) normalizeTMDB() error {
	if c.TMDB.APIKey == "" {
		if value, ok := os.LookupEnv("TMDB_API_KEY"); ok {
			c.TMDB.APIKey = value
		}
	}
	c.TMDB.APIKey = strings.TrimSpace(c.TMDB.APIKey)
	c.TMDB.BaseURL = strings.TrimSpace(c.TMDB.BaseURL)
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	c.TMDB.PrimaryLanguage = strings.TrimSpace(c.TMDB.PrimaryLanguage)
	if c.TMDB.PrimaryLanguage == "" {
		c.TMDB.PrimaryLanguage = defaultTMDBPrimaryLanguage
	}
	c.TMDB.FallbackLanguage = strings.TrimSpace(c.TMDB.FallbackLanguage)
	if c.TMDB.RequestTimeout <= 0 {
		c.TMDB.RequestTimeout = defaultTMDBRequestTimeout
	}
	if c.TMDB.RequestsPerSecond < 0 {
		c.TMDB.RequestsPerSecond = 0
	}
	if strings.TrimSpace(c.TMDB.OverridesPath) != "" {
		var err error
		if c.TMDB.OverridesPath, err = expandPath(strings.TrimSpace(c.TMDB.OverridesPath)); err != nil {
			return fmt.Errorf("tmdb.overrides_path: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeTelegram() {
	if c.Telegram.BotToken == "" {
		if value, ok := os.LookupEnv("TELEGRAM_BOT_TOKEN"); ok {
			c.Telegram.BotToken = value
		}
	}
	if c.Telegram.ChatID == "" {
		if value, ok := os.LookupEnv("TELEGRAM_CHAT_ID"); ok {
			c.Telegram.ChatID = value
		}
	}
	c.Telegram.BotToken = strings.TrimSpace(c.Telegram.BotToken)
	c.Telegram.ChatID = strings.TrimSpace(c.Telegram.ChatID)
	c.Telegram.APIEndpoint = strings.TrimSpace(c.Telegram.APIEndpoint)
	if c.Telegram.APIEndpoint == "" {
		c.Telegram.APIEndpoint = defaultTelegramAPIEndpoint
	}
	if c.Telegram.RequestTimeout <= 0 {
		c.Telegram.RequestTimeout = defaultTelegramRequestTimeout
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

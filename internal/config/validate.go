package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
//
// Telegram credentials are not checked here: dry runs and status queries work
// without them. Use ValidateTransport before sending.
func (c *Config) Validate() error {
	if err := c.validateSchedule(); err != nil {
		return err
	}
	if err := c.validateTickets(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateSchedule() error {
	if err := validateHTTPURL("schedule.url", c.Schedule.URL); err != nil {
		return err
	}
	if c.Schedule.DiscoveryURL != "" {
		if err := validateHTTPURL("schedule.discovery_url", c.Schedule.DiscoveryURL); err != nil {
			return err
		}
	}
	if c.Schedule.RequestRetries > 10 {
		return errors.New("schedule.request_retries must be at most 10")
	}
	if len(c.Schedule.OVMarkers) == 0 {
		return errors.New("schedule.ov_markers must contain at least one marker")
	}
	return nil
}

func (c *Config) validateTickets() error {
	if c.Tickets.BaseURL == "" {
		return nil
	}
	return validateHTTPURL("tickets.base_url", c.Tickets.BaseURL)
}

func (c *Config) validateTMDB() error {
	if err := validateHTTPURL("tmdb.base_url", c.TMDB.BaseURL); err != nil {
		return err
	}
	if c.TMDB.FallbackLanguage != "" && strings.EqualFold(c.TMDB.FallbackLanguage, c.TMDB.PrimaryLanguage) {
		return errors.New("tmdb.fallback_language must differ from tmdb.primary_language")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level %q is not supported (use debug, info, warn or error)", c.Logging.Level)
	}
}

// ValidateTransport reports whether the Telegram credentials required for
// sending are present.
func (c *Config) ValidateTransport() error {
	var missing []string
	if c.Telegram.BotToken == "" {
		missing = append(missing, "telegram.bot_token (TELEGRAM_BOT_TOKEN)")
	}
	if c.Telegram.ChatID == "" {
		missing = append(missing, "telegram.chat_id (TELEGRAM_CHAT_ID)")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing %s", strings.Join(missing, " and "))
	}
	return nil
}

func validateHTTPURL(field, value string) error {
	parsed, err := url.Parse(value)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("%s must be an http(s) URL, got %q", field, value)
	}
	return nil
}

package config

const (
	defaultStateDir               = "~/.local/share/ovtracker/state"
	defaultLogDir                 = "~/.local/share/ovtracker/logs"
	defaultScheduleURL            = "https://www.kinoprogramm.com/kino/konstanz/cinestar-konstanz-10043"
	defaultDiscoveryURL           = "https://www.kinoprogramm.com/kinos/konstanz"
	defaultCinemaName             = "CineStar Konstanz"
	defaultTimezone               = "Europe/Berlin"
	defaultRequestTimeout         = 15
	defaultRequestRetries         = 1
	defaultRetryBackoffSeconds    = 2
	defaultUserAgent              = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	defaultTicketBaseURL          = "https://www.cinestar.de/kino-konstanz/film"
	defaultTicketProbeTimeout     = 2
	defaultTMDBBaseURL            = "https://api.themoviedb.org/3"
	defaultTMDBPrimaryLanguage    = "de-DE"
	defaultTMDBFallbackLanguage   = "en-US"
	defaultTMDBRequestTimeout     = 5
	defaultTMDBRequestsPerSecond  = 4
	defaultOverridesPath          = "~/.config/ovtracker/overrides.yaml"
	defaultTelegramAPIEndpoint    = "https://api.telegram.org/bot%s/%s"
	defaultTelegramRequestTimeout = 10
	defaultHistoryPath            = "~/.local/share/ovtracker/history.db"
	defaultLogFormat              = "console"
	defaultLogLevel               = "info"
	defaultLogMaxSizeMB           = 10
	defaultLogMaxBackups          = 5
)

func defaultOVMarkers() []string {
	return []string{"OV", "OmU", "OmeU", "Originalfassung", "Originalversion"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
		},
		Schedule: Schedule{
			URL:                 defaultScheduleURL,
			DiscoveryURL:        defaultDiscoveryURL,
			CinemaName:          defaultCinemaName,
			Timezone:            defaultTimezone,
			RequestTimeout:      defaultRequestTimeout,
			RequestRetries:      defaultRequestRetries,
			RetryBackoffSeconds: defaultRetryBackoffSeconds,
			UserAgent:           defaultUserAgent,
			OVMarkers:           defaultOVMarkers(),
		},
		Tickets: Tickets{
			BaseURL:      defaultTicketBaseURL,
			ProbeTimeout: defaultTicketProbeTimeout,
		},
		TMDB: TMDB{
			BaseURL:           defaultTMDBBaseURL,
			PrimaryLanguage:   defaultTMDBPrimaryLanguage,
			FallbackLanguage:  defaultTMDBFallbackLanguage,
			RequestTimeout:    defaultTMDBRequestTimeout,
			RequestsPerSecond: defaultTMDBRequestsPerSecond,
			OverridesPath:     defaultOverridesPath,
		},
		Telegram: Telegram{
			APIEndpoint:    defaultTelegramAPIEndpoint,
			RequestTimeout: defaultTelegramRequestTimeout,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}

package pipeline

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"ovtracker/internal/config"
	"ovtracker/internal/history"
	"ovtracker/internal/identification"
	"ovtracker/internal/identification/overrides"
	"ovtracker/internal/identification/tmdb"
	"ovtracker/internal/logging"
	"ovtracker/internal/notifications"
	"ovtracker/internal/schedule"
	"ovtracker/internal/state"
	"ovtracker/internal/tickets"
)

// Assembly is a Runner wired to the real collaborators described by a config.
type Assembly struct {
	Runner  *Runner
	State   *state.State
	History *history.Store
}

// Close releases the history database.
func (a *Assembly) Close() error {
	if a == nil || a.History == nil {
		return nil
	}
	return a.History.Close()
}

// AssembleOption adjusts the assembled collaborators.
type AssembleOption func(*Dependencies)

// WithClock replaces the wall clock.
func WithClock(clock func() time.Time) AssembleOption {
	return func(d *Dependencies) {
		d.Clock = clock
	}
}

// WithNotifier replaces the configured transport.
func WithNotifier(svc notifications.Service) AssembleOption {
	return func(d *Dependencies) {
		d.Notifier = svc
	}
}

// Assemble loads the state and builds every collaborator from cfg. A history
// database that cannot be opened is logged and skipped.
func Assemble(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...AssembleOption) (*Assembly, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	st := state.Load(cfg.StatePath(), logger)

	fetcher, err := schedule.NewFetcher(cfg.Schedule.URL,
		schedule.WithHTTPClient(&http.Client{Timeout: cfg.RequestTimeout()}),
		schedule.WithDiscovery(cfg.Schedule.DiscoveryURL, cfg.Schedule.CinemaName),
		schedule.WithRetries(cfg.Schedule.RequestRetries, time.Duration(cfg.Schedule.RetryBackoffSeconds)*time.Second),
		schedule.WithUserAgent(cfg.Schedule.UserAgent),
		schedule.WithLogger(logger),
	)
	if err != nil {
		return nil, err
	}

	resolver, err := NewResolver(cfg, st, logger)
	if err != nil {
		return nil, err
	}

	linker := tickets.NewLinker(cfg.Tickets.BaseURL, cfg.TicketProbeTimeout(),
		tickets.WithCache(st), tickets.WithLogger(logger))

	asm := &Assembly{State: st}
	var journal Journal
	if cfg.History.Enabled {
		store, err := history.Open(ctx, cfg.History.Path)
		if err != nil {
			logging.WarnWithContext(logging.NewComponentLogger(logger, "history"), "publish history unavailable", "history_open_failed",
				logging.Error(err),
				logging.String("path", cfg.History.Path),
				logging.String(logging.FieldImpact, "sends will not be journaled"),
				logging.String(logging.FieldErrorHint, "check history.path or disable history"),
			)
		} else {
			asm.History = store
			journal = store
		}
	}

	deps := Dependencies{
		Fetcher:   fetcher,
		Resolver:  resolver,
		Linker:    linker,
		Notifier:  notifications.NewService(cfg, logger),
		Journal:   journal,
		State:     st,
		StatePath: cfg.StatePath(),
	}
	for _, opt := range opts {
		opt(&deps)
	}
	asm.Runner = New(cfg, deps, logger)
	return asm, nil
}

// NewResolver builds the film resolver for cfg using st as its cache. Without
// an API key the resolver still answers from overrides and the cache.
func NewResolver(cfg *config.Config, st *state.State, logger *slog.Logger) (*identification.Resolver, error) {
	searcher, err := NewSearcher(cfg)
	if err != nil {
		return nil, err
	}
	var overrideSource identification.OverrideSource
	if catalog := overrides.NewCatalog(cfg.TMDB.OverridesPath, logger); catalog != nil {
		overrideSource = catalog
	}
	var cache identification.Cache
	if st != nil {
		cache = st
	}
	return identification.NewResolver(searcher, overrideSource, cache,
		identification.WithLanguages(cfg.TMDB.PrimaryLanguage, cfg.TMDB.FallbackLanguage),
		identification.WithLogger(logger),
	), nil
}

// NewSearcher returns a TMDB client, or nil when no API key is configured.
func NewSearcher(cfg *config.Config) (tmdb.Searcher, error) {
	if cfg.TMDB.APIKey == "" {
		return nil, nil
	}
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.PrimaryLanguage,
		tmdb.WithHTTPClient(&http.Client{Timeout: cfg.TMDBTimeout()}),
		tmdb.WithRateLimit(cfg.TMDB.RequestsPerSecond),
	)
	if err != nil {
		return nil, err
	}
	return client, nil
}

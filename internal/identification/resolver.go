package identification

import (
	"context"
	"log/slog"
	"strings"

	"ovtracker/internal/identification/tmdb"
	"ovtracker/internal/logging"
)

// Resolution reasons.
const (
	ReasonOverride       = "override"
	ReasonCache          = "cache"
	ReasonMatch          = "match"
	ReasonNoAPIKey       = "no_api_key"
	ReasonNoResults      = "no_results"
	ReasonLowScorePrefix = "low_score_"
)

// Resolution is the outcome of resolving one title.
type Resolution struct {
	FilmID int64
	Found  bool
	Reason string
	Score  float64
}

// OverrideSource supplies user-pinned identifiers.
type OverrideSource interface {
	Lookup(title string) (int64, bool, error)
}

// Cache stores accepted resolutions across runs.
type Cache interface {
	CachedFilm(title string) (int64, bool)
	CacheFilm(title string, id int64)
}

// Resolver maps normalized titles to TMDB movie identifiers.
type Resolver struct {
	searcher  tmdb.Searcher
	overrides OverrideSource
	cache     Cache
	languages []string
	logger    *slog.Logger
}

// ResolverOption configures a Resolver.
type ResolverOption func(*Resolver)

// WithLanguages sets the search locales in order. Empty values are skipped.
func WithLanguages(languages ...string) ResolverOption {
	return func(r *Resolver) {
		cleaned := make([]string, 0, len(languages))
		for _, lang := range languages {
			if lang = strings.TrimSpace(lang); lang != "" {
				cleaned = append(cleaned, lang)
			}
		}
		if len(cleaned) > 0 {
			r.languages = cleaned
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ResolverOption {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver builds a Resolver. searcher may be nil when no API key is
// configured; overrides and cache may be nil as well.
func NewResolver(searcher tmdb.Searcher, overrides OverrideSource, cache Cache, opts ...ResolverOption) *Resolver {
	r := &Resolver{
		searcher:  searcher,
		overrides: overrides,
		cache:     cache,
		languages: []string{"de-DE", "en-US"},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "tmdb")
	return r
}

// Resolve returns the film identifier for a normalized title. year 0 means
// the release year is unknown.
func (r *Resolver) Resolve(ctx context.Context, title string, year int) Resolution {
	logger := logging.WithContext(ctx, r.logger).With(logging.String("title", title))

	if r.overrides != nil {
		id, ok, err := r.overrides.Lookup(title)
		switch {
		case err != nil:
			logging.WarnWithContext(logger, "override lookup failed", "override_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "overrides ignored for this title"),
				logging.String(logging.FieldErrorHint, "fix the syntax of the overrides file"),
			)
		case ok:
			return r.resolved(logger, id, ReasonOverride, 0)
		}
	}

	if r.cache != nil {
		if id, ok := r.cache.CachedFilm(title); ok {
			return r.resolved(logger, id, ReasonCache, 0)
		}
	}

	if r.searcher == nil {
		return r.unresolved(logger, ReasonNoAPIKey, 0)
	}

	candidates := r.search(ctx, logger, title, year)
	if len(candidates) == 0 {
		return r.unresolved(logger, ReasonNoResults, 0)
	}

	best, score := selectBest(logger, title, year, candidates)
	if score < AcceptThreshold {
		return r.unresolved(logger, lowScoreReason(score), score)
	}
	if r.cache != nil {
		r.cache.CacheFilm(title, best.ID)
	}
	logger.Debug("search match accepted",
		logging.Int64("tmdb_id", best.ID),
		logging.String("candidate_title", best.Title),
	)
	return r.resolved(logger, best.ID, ReasonMatch, score)
}

// search queries each locale in turn and stops at the first that yields
// candidates. A failed request counts as zero candidates for that locale.
func (r *Resolver) search(ctx context.Context, logger *slog.Logger, title string, year int) []tmdb.Result {
	for _, lang := range r.languages {
		resp, err := r.searcher.SearchMovieWithOptions(ctx, title, tmdb.SearchOptions{Year: year, Language: lang})
		if err != nil {
			logging.WarnWithContext(logger, "tmdb search failed", "tmdb_search_failed",
				logging.String("language", lang),
				logging.Error(err),
				logging.String(logging.FieldImpact, "locale treated as having no candidates"),
				logging.String(logging.FieldErrorHint, "check TMDB_API_KEY and network connectivity"),
			)
			continue
		}
		if resp != nil && len(resp.Results) > 0 {
			logger.Debug("tmdb candidates found",
				logging.String("language", lang),
				logging.Int("result_count", len(resp.Results)),
			)
			return resp.Results
		}
	}
	return nil
}

func (r *Resolver) resolved(logger *slog.Logger, id int64, reason string, score float64) Resolution {
	attrs := append(logging.DecisionAttrs("tmdb_resolution", "resolved", reason), logging.Int64("tmdb_id", id))
	logger.Debug("title resolved", logging.Args(attrs...)...)
	return Resolution{FilmID: id, Found: true, Reason: reason, Score: score}
}

func (r *Resolver) unresolved(logger *slog.Logger, reason string, score float64) Resolution {
	attrs := append(logging.DecisionAttrs("tmdb_resolution", "unresolved", reason),
		logging.Float64("score", score),
		logging.String(logging.FieldImpact, "title shown without letterboxd link"),
		logging.String(logging.FieldErrorHint, "add the title to the overrides file"),
	)
	logging.WarnWithContext(logger, "title not resolved", "tmdb_unresolved", attrs...)
	return Resolution{Reason: reason, Score: score}
}

// Package tickets resolves the cinema's own ticket page for a film.
package tickets

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"ovtracker/internal/logging"
	"ovtracker/internal/titles"
)

// Cache remembers ticket pages that were confirmed by a probe.
type Cache interface {
	CachedTicket(title string) (string, bool)
	CacheTicket(title, url string)
}

// Linker probes slug-based ticket pages on the cinema site.
type Linker struct {
	baseURL string
	client  *http.Client
	cache   Cache
	logger  *slog.Logger
}

// Option configures a Linker.
type Option func(*Linker)

// WithHTTPClient overrides the probe client.
func WithHTTPClient(client *http.Client) Option {
	return func(l *Linker) {
		if client != nil {
			l.client = client
		}
	}
}

// WithCache skips the probe for titles with a confirmed page and records new
// confirmations.
func WithCache(cache Cache) Option {
	return func(l *Linker) {
		l.cache = cache
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Linker) {
		l.logger = logger
	}
}

// NewLinker builds a Linker for baseURL. An empty baseURL disables probing.
func NewLinker(baseURL string, timeout time.Duration, opts ...Option) *Linker {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	l := &Linker{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		client:  &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(l)
	}
	l.logger = logging.NewComponentLogger(l.logger, "tickets")
	return l
}

// CandidateURL returns the ticket page URL derived from title, or "" when
// the title has no usable slug.
func (l *Linker) CandidateURL(title string) string {
	if l == nil || l.baseURL == "" {
		return ""
	}
	slug := titles.Slugify(title)
	if slug == "" {
		return ""
	}
	return l.baseURL + "/" + slug
}

// Link returns the ticket page for title when it answers HEAD with 200,
// otherwise fallback.
func (l *Linker) Link(ctx context.Context, title, fallback string) string {
	candidate := l.CandidateURL(title)
	if candidate == "" {
		return fallback
	}
	if l.cache != nil {
		if cached, ok := l.cache.CachedTicket(title); ok && cached == candidate {
			return cached
		}
	}
	logger := logging.WithContext(ctx, l.logger).With(logging.String("url", candidate))

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, candidate, nil)
	if err != nil {
		logger.Debug("ticket probe request invalid", logging.Error(err))
		return fallback
	}
	resp, err := l.client.Do(req)
	if err != nil {
		logger.Debug("ticket probe failed", logging.Error(err))
		return fallback
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		logger.Debug("ticket page not found", logging.Int("status", resp.StatusCode))
		return fallback
	}
	if l.cache != nil {
		l.cache.CacheTicket(title, candidate)
	}
	return candidate
}

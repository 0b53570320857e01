package schedule

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/avast/retry-go/v4"

	"ovtracker/internal/logging"
	"ovtracker/internal/services"
)

const maxPageBytes = 8 << 20

// Fetcher downloads the schedule page.
type Fetcher struct {
	url          string
	discoveryURL string
	cinemaName   string
	userAgent    string
	retries      int
	backoff      time.Duration
	httpClient   *http.Client
	logger       *slog.Logger
}

// FetcherOption configures a Fetcher.
type FetcherOption func(*Fetcher)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *Fetcher) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithDiscovery enables the moved-page fallback: when the schedule URL returns
// 404 the listing at discoveryURL is searched for a link naming the cinema.
func WithDiscovery(discoveryURL, cinemaName string) FetcherOption {
	return func(f *Fetcher) {
		f.discoveryURL = strings.TrimSpace(discoveryURL)
		f.cinemaName = strings.TrimSpace(cinemaName)
	}
}

// WithRetries sets the number of extra attempts and the fixed delay between them.
func WithRetries(retries int, backoff time.Duration) FetcherOption {
	return func(f *Fetcher) {
		if retries >= 0 {
			f.retries = retries
		}
		if backoff >= 0 {
			f.backoff = backoff
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(agent string) FetcherOption {
	return func(f *Fetcher) {
		if agent = strings.TrimSpace(agent); agent != "" {
			f.userAgent = agent
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = logger
	}
}

// NewFetcher creates a Fetcher for the schedule page at pageURL.
func NewFetcher(pageURL string, opts ...FetcherOption) (*Fetcher, error) {
	pageURL = strings.TrimSpace(pageURL)
	if pageURL == "" {
		return nil, errors.New("schedule url required")
	}
	f := &Fetcher{
		url:        pageURL,
		retries:    1,
		backoff:    2 * time.Second,
		userAgent:  "ovtracker",
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(f)
	}
	f.logger = logging.NewComponentLogger(f.logger, "fetch")
	return f, nil
}

// URL returns the schedule page currently in use, which differs from the
// configured one after a successful discovery.
func (f *Fetcher) URL() string {
	return f.url
}

// Fetch returns the schedule markup. After retries+1 failed attempts it
// returns an error marked services.ErrFetchExhausted.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	attempts := uint(f.retries + 1)
	body, err := retry.DoWithData(
		func() (string, error) { return f.attempt(ctx) },
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(f.backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			logging.WarnWithContext(f.logger, "schedule fetch attempt failed", "schedule_fetch_retry",
				logging.Int("attempt", int(n)+1),
				logging.Int("max_attempts", int(attempts)),
				logging.String("url", f.url),
				logging.Error(err),
				logging.String(logging.FieldImpact, "retrying after backoff"),
			)
		}),
	)
	if err != nil {
		return "", services.Wrap(services.ErrFetchExhausted, "fetch", "get schedule",
			fmt.Sprintf("%d attempts failed", attempts), err)
	}
	f.logger.Info("schedule fetched",
		logging.String("url", f.url),
		logging.Int("bytes", len(body)),
	)
	return body, nil
}

func (f *Fetcher) attempt(ctx context.Context) (string, error) {
	body, err := f.get(ctx, f.url)
	if err == nil || !errors.Is(err, services.ErrNotFound) || f.discoveryURL == "" {
		return body, err
	}

	moved, derr := f.discover(ctx)
	if derr != nil {
		return "", fmt.Errorf("%w (discovery: %v)", err, derr)
	}
	f.logger.Info("schedule page moved",
		logging.String("previous_url", f.url),
		logging.String("url", moved),
		logging.String(logging.FieldEventType, "schedule_url_discovered"),
	)
	f.url = moved
	return f.get(ctx, moved)
}

// discover scans the listing page for the first link whose text or title
// names the cinema.
func (f *Fetcher) discover(ctx context.Context) (string, error) {
	markup, err := f.get(ctx, f.discoveryURL)
	if err != nil {
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse discovery page: %w", err)
	}
	needle := strings.ToLower(f.cinemaName)
	var href string
	doc.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		text := strings.ToLower(a.Text() + " " + a.AttrOr("title", ""))
		if needle != "" && strings.Contains(text, needle) {
			href = a.AttrOr("href", "")
			return false
		}
		return true
	})
	if strings.TrimSpace(href) == "" {
		return "", fmt.Errorf("no link for %q on %s", f.cinemaName, f.discoveryURL)
	}
	base, err := url.Parse(f.discoveryURL)
	if err != nil {
		return "", fmt.Errorf("parse discovery url: %w", err)
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", fmt.Errorf("parse discovered link: %w", err)
	}
	return base.ResolveReference(ref).String(), nil
}

func (f *Fetcher) get(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "de-DE,de;q=0.9,en-US;q=0.8,en;q=0.7")

	requestStart := time.Now()
	resp, err := f.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return "", fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", services.Wrap(services.ErrNotFound, "fetch", "get", target, nil)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("GET %s returned %d (latency=%v)", target, resp.StatusCode, latency)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	return string(data), nil
}

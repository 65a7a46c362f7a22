package scraper

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/cenkalti/backoff/v4"

	"github.com/ucanscrapex/eventsync/internal/logger"
)

const (
	UserAgent      = "eventsync/1.0 (github.com/ucanscrapex/eventsync)"
	Timeout        = 30 * time.Second
	DefaultRetries = 3
)

// Fetcher downloads and parses HTML pages, retrying transient failures.
type Fetcher struct {
	client        *http.Client
	userAgent     string
	retries       uint64
	retryInterval time.Duration
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option {
	return func(f *Fetcher) { f.client = c }
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// WithRetries sets how many times a failed request is retried.
func WithRetries(n int) Option {
	return func(f *Fetcher) {
		if n >= 0 {
			f.retries = uint64(n)
		}
	}
}

// WithRetryInterval sets the initial wait between retries.
func WithRetryInterval(d time.Duration) Option {
	return func(f *Fetcher) { f.retryInterval = d }
}

// NewFetcher creates a Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:        &http.Client{Timeout: Timeout},
		userAgent:     UserAgent,
		retries:       DefaultRetries,
		retryInterval: 500 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url and parses the response body as HTML.
// Network errors and 5xx responses are retried with exponential backoff;
// other non-200 responses fail immediately.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	var b backoff.BackOff = backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(f.retryInterval),
		backoff.WithMaxElapsedTime(0),
	)
	b = backoff.WithContext(backoff.WithMaxRetries(b, f.retries), ctx)

	attempt := 0
	return backoff.RetryWithData(func() (*goquery.Document, error) {
		attempt++
		doc, err := f.fetchOnce(ctx, url)
		if err != nil {
			logger.Debug("Fetch failed", logger.Fields{
				"url":     url,
				"attempt": attempt,
				"error":   err.Error(),
			})
		}
		return doc, err
	}, b)
}

func (f *Fetcher) fetchOnce(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("creating request: %w", err))
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, backoff.Permanent(fmt.Errorf("fetching page: %w", err))
		}
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, backoff.Permanent(fmt.Errorf("unexpected status code: %d", resp.StatusCode))
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("parsing HTML: %w", err))
	}
	return doc, nil
}

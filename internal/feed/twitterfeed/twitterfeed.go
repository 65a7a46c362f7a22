// Package twitterfeed renders a venue's X/Twitter user timeline through the
// v1.1 API. Each Advance requests the next page of older tweets using max_id.
package twitterfeed

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/dghubble/oauth1"

	"github.com/ucanscrapex/eventsync/internal/feed"
	"github.com/ucanscrapex/eventsync/internal/logger"
)

// DefaultPageSize is the number of tweets requested per page.
const DefaultPageSize = 20

// ErrMissingCredentials is returned by NewClient when any credential is empty.
var ErrMissingCredentials = errors.New("missing required Twitter credentials")

// Credentials are the OAuth 1.0a user-context keys.
type Credentials struct {
	APIKey       string
	APISecret    string
	AccessToken  string
	AccessSecret string
}

// NewClient creates an authenticated API client.
func NewClient(creds Credentials) (*twitter.Client, error) {
	if creds.APIKey == "" || creds.APISecret == "" || creds.AccessToken == "" || creds.AccessSecret == "" {
		return nil, ErrMissingCredentials
	}

	config := oauth1.NewConfig(creds.APIKey, creds.APISecret)
	token := oauth1.NewToken(creds.AccessToken, creds.AccessSecret)
	return twitter.NewClient(config.Client(oauth1.NoContext, token)), nil
}

// Timeline is the part of the API the renderer reads from.
// *twitter.TimelineService implements it.
type Timeline interface {
	UserTimeline(params *twitter.UserTimelineParams) ([]twitter.Tweet, *http.Response, error)
}

// Renderer implements feed.Renderer over one user timeline.
type Renderer struct {
	timeline      Timeline
	screenName    string
	pageSize      int
	retries       uint64
	retryInterval time.Duration

	started bool
	done    bool
	maxID   int64
	seen    map[int64]struct{}
	items   []feed.Element
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithPageSize sets the number of tweets requested per page.
func WithPageSize(n int) Option {
	return func(r *Renderer) {
		if n > 0 {
			r.pageSize = n
		}
	}
}

// WithRetries sets how many times a failed page request is retried.
func WithRetries(n int, interval time.Duration) Option {
	return func(r *Renderer) {
		if n >= 0 {
			r.retries = uint64(n)
		}
		r.retryInterval = interval
	}
}

// New creates a renderer for screenName's timeline.
func New(tl Timeline, screenName string, opts ...Option) *Renderer {
	r := &Renderer{
		timeline:      tl,
		screenName:    strings.TrimPrefix(screenName, "@"),
		pageSize:      DefaultPageSize,
		retries:       2,
		retryInterval: time.Second,
		seen:          make(map[int64]struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Items returns every tweet loaded so far, newest first.
func (r *Renderer) Items(ctx context.Context) ([]feed.Element, error) {
	if err := r.ensureStarted(ctx); err != nil {
		return nil, err
	}
	return r.items, nil
}

// Advance requests the next page of older tweets. Once the API returns an
// empty page it does nothing.
func (r *Renderer) Advance(ctx context.Context) error {
	if err := r.ensureStarted(ctx); err != nil {
		return err
	}
	if r.done {
		return nil
	}
	return r.loadPage(ctx)
}

// Extent returns the number of tweets loaded.
func (r *Renderer) Extent(ctx context.Context) (int, error) {
	if err := r.ensureStarted(ctx); err != nil {
		return 0, err
	}
	return len(r.items), nil
}

func (r *Renderer) ensureStarted(ctx context.Context) error {
	if r.started {
		return nil
	}
	if err := r.loadPage(ctx); err != nil {
		return err
	}
	r.started = true
	return nil
}

func (r *Renderer) loadPage(ctx context.Context) error {
	params := &twitter.UserTimelineParams{
		ScreenName:      r.screenName,
		Count:           r.pageSize,
		TweetMode:       "extended",
		IncludeRetweets: twitter.Bool(true),
		ExcludeReplies:  twitter.Bool(true),
	}
	if r.maxID > 0 {
		params.MaxID = r.maxID
	}

	var b backoff.BackOff = backoff.NewExponentialBackOff(
		backoff.WithInitialInterval(r.retryInterval),
		backoff.WithMaxElapsedTime(0),
	)
	b = backoff.WithContext(backoff.WithMaxRetries(b, r.retries), ctx)

	tweets, err := backoff.RetryWithData(func() ([]twitter.Tweet, error) {
		if err := ctx.Err(); err != nil {
			return nil, backoff.Permanent(err)
		}
		tweets, resp, err := r.timeline.UserTimeline(params)
		if err != nil {
			logger.Debug("Timeline request failed", logger.Fields{
				"screen_name": r.screenName,
				"max_id":      r.maxID,
				"error":       err.Error(),
			})
			if resp != nil && resp.StatusCode < http.StatusInternalServerError && resp.StatusCode != http.StatusTooManyRequests {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		return tweets, nil
	}, b)
	if err != nil {
		return fmt.Errorf("reading timeline of %s: %w", r.screenName, err)
	}

	if len(tweets) == 0 {
		r.done = true
		return nil
	}

	lowest := int64(0)
	for _, t := range tweets {
		if lowest == 0 || t.ID < lowest {
			lowest = t.ID
		}
		if _, ok := r.seen[t.ID]; ok {
			continue
		}
		r.seen[t.ID] = struct{}{}
		r.items = append(r.items, &element{tweet: t, screenName: r.screenName})
	}
	r.maxID = lowest - 1
	return nil
}

type element struct {
	tweet      twitter.Tweet
	screenName string
}

// Capture converts the tweet into a capture. The API returns body text only,
// so the capture is marked Cleaned.
func (e *element) Capture() (feed.RawCapture, error) {
	t := e.tweet

	text := t.FullText
	if text == "" {
		text = t.Text
	}
	if strings.TrimSpace(text) == "" {
		return feed.RawCapture{}, fmt.Errorf("tweet %d has no text", t.ID)
	}
	text = html.UnescapeString(expandURLs(text, t.Entities))

	screen := e.screenName
	if t.User != nil && t.User.ScreenName != "" {
		screen = t.User.ScreenName
	}
	id := t.IDStr
	if id == "" {
		id = strconv.FormatInt(t.ID, 10)
	}

	var stamp string
	if created, err := t.CreatedAtTime(); err == nil {
		stamp = created.UTC().Format(time.RFC3339)
	}

	return feed.RawCapture{
		Lines:     strings.Split(text, "\n"),
		URL:       fmt.Sprintf("https://x.com/%s/status/%s", screen, id),
		Timestamp: stamp,
		Repost:    t.RetweetedStatus != nil,
		Cleaned:   true,
	}, nil
}

// expandURLs replaces t.co short links with the URLs they point to.
func expandURLs(text string, entities *twitter.Entities) string {
	if entities == nil {
		return text
	}
	for _, u := range entities.Urls {
		if u.URL != "" && u.ExpandedURL != "" {
			text = strings.ReplaceAll(text, u.URL, u.ExpandedURL)
		}
	}
	return text
}

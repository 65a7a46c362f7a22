// Package htmlfeed renders a feed from a sequence of HTML pages, such as
// saved timeline snapshots or a paginated mirror. Each Advance loads the next
// page; the feed stops growing after the last one.
package htmlfeed

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/ucanscrapex/eventsync/internal/feed"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/scraper"
)

const (
	itemSelector      = "article[data-testid=tweet]"
	permalinkSelector = "a[href]:has(time)"
	timeSelector      = "time[datetime]"

	// DefaultBaseURL resolves relative permalinks found in saved files.
	DefaultBaseURL = "https://x.com/"
)

// ErrNoTimestamp is returned by Capture for items without a time element,
// which are ads or promoted content.
var ErrNoTimestamp = errors.New("item has no time element")

// Renderer implements feed.Renderer over a fixed list of pages.
type Renderer struct {
	pages   []string
	fetcher *scraper.Fetcher
	baseURL *url.URL

	next  int
	items []feed.Element
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithBaseURL sets the base used to resolve relative permalinks on pages
// read from disk.
func WithBaseURL(base string) Option {
	return func(r *Renderer) {
		if u, err := url.Parse(base); err == nil {
			r.baseURL = u
		}
	}
}

// New creates a Renderer. Pages starting with http:// or https:// are
// downloaded with fetcher; anything else is read as a local file.
func New(pages []string, fetcher *scraper.Fetcher, opts ...Option) *Renderer {
	if fetcher == nil {
		fetcher = scraper.NewFetcher()
	}
	base, _ := url.Parse(DefaultBaseURL)
	r := &Renderer{pages: pages, fetcher: fetcher, baseURL: base}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Items returns the items of every page loaded so far.
func (r *Renderer) Items(ctx context.Context) ([]feed.Element, error) {
	if err := r.ensureStarted(ctx); err != nil {
		return nil, err
	}
	return r.items, nil
}

// Advance loads the next page. Past the last page it does nothing.
func (r *Renderer) Advance(ctx context.Context) error {
	if err := r.ensureStarted(ctx); err != nil {
		return err
	}
	if r.next >= len(r.pages) {
		return nil
	}
	return r.loadNext(ctx)
}

// Extent returns the number of items loaded.
func (r *Renderer) Extent(ctx context.Context) (int, error) {
	if err := r.ensureStarted(ctx); err != nil {
		return 0, err
	}
	return len(r.items), nil
}

func (r *Renderer) ensureStarted(ctx context.Context) error {
	if r.next > 0 || len(r.pages) == 0 {
		return nil
	}
	return r.loadNext(ctx)
}

func (r *Renderer) loadNext(ctx context.Context) error {
	page := r.pages[r.next]
	doc, base, err := r.load(ctx, page)
	if err != nil {
		return fmt.Errorf("loading feed page %s: %w", page, err)
	}
	r.next++

	found := 0
	doc.Find(itemSelector).Each(func(i int, s *goquery.Selection) {
		r.items = append(r.items, &element{sel: s, base: base})
		found++
	})
	logger.Debug("Loaded feed page", logger.Fields{
		"page":  page,
		"items": found,
		"total": len(r.items),
	})
	return nil
}

func (r *Renderer) load(ctx context.Context, page string) (*goquery.Document, *url.URL, error) {
	if strings.HasPrefix(page, "http://") || strings.HasPrefix(page, "https://") {
		doc, err := r.fetcher.Fetch(ctx, page)
		if err != nil {
			return nil, nil, err
		}
		base, err := url.Parse(page)
		if err != nil {
			return nil, nil, err
		}
		return doc, base, nil
	}

	f, err := os.Open(page)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close() //nolint:errcheck

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return doc, r.baseURL, nil
}

type element struct {
	sel  *goquery.Selection
	base *url.URL
}

// Capture reads an article's text lines, permalink and timestamp.
func (e *element) Capture() (feed.RawCapture, error) {
	t := e.sel.Find(timeSelector).First()
	if t.Length() == 0 {
		return feed.RawCapture{}, ErrNoTimestamp
	}
	stamp, _ := t.Attr("datetime")

	var permalink string
	if href, ok := e.sel.Find(permalinkSelector).First().Attr("href"); ok {
		permalink = resolve(e.base, href)
	}

	lines := textLines(e.sel)
	pinned, repost := feed.DetectMarkers(lines)

	return feed.RawCapture{
		Lines:     lines,
		URL:       permalink,
		Timestamp: stamp,
		Pinned:    pinned,
		Repost:    repost,
	}, nil
}

// textLines returns the trimmed, non-empty text nodes under s in document
// order, skipping script and style content.
func textLines(s *goquery.Selection) []string {
	var lines []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(i int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				if t := strings.TrimSpace(c.Text()); t != "" {
					lines = append(lines, t)
				}
			case "script", "style", "#comment":
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return lines
}

func resolve(base *url.URL, href string) string {
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

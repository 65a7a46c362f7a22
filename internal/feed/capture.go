// Package feed drives incremental retrieval from a continuously loading feed
// and turns its items into event records.
//
// A Renderer is anything that can list the currently loaded items, load more,
// and report how much has been loaded so far: an API timeline, a paginated
// HTML mirror, or a browser session.
package feed

import (
	"context"
	"strings"

	"github.com/ucanscrapex/eventsync/internal/extract"
)

// RawCapture is one feed item as rendered.
type RawCapture struct {
	Lines     []string
	URL       string
	Timestamp string
	Pinned    bool
	Repost    bool
	// Cleaned marks Lines as body text only (no header or button labels).
	Cleaned bool
}

// Key returns the identity of the item within one collection run.
func (c RawCapture) Key() string {
	if c.URL != "" {
		return c.URL
	}
	return strings.Join(c.Lines, "\n")
}

// Post converts the capture into extractor input.
func (c RawCapture) Post() extract.Post {
	return extract.Post{Lines: c.Lines, Cleaned: c.Cleaned, Permalink: c.URL}
}

// Element is one rendered feed item.
type Element interface {
	// Capture reads the item's text and attributes. It fails when required
	// sub-elements are missing (ads, layout changes).
	Capture() (RawCapture, error)
}

// Renderer is the render collaborator driven by a Collector.
// A Renderer is stateful and must only be used by one Collector at a time.
type Renderer interface {
	// Items returns all currently loaded items.
	Items(ctx context.Context) ([]Element, error)
	// Advance requests more content.
	Advance(ctx context.Context) error
	// Extent measures how much content is loaded; it is compared between
	// iterations to detect the end of the feed.
	Extent(ctx context.Context) (int, error)
}

var (
	pinnedLabels = []string{"Pinned", "已釘選"}
	repostLabels = []string{"reposted", "已轉發"}
)

// DetectMarkers reads the pinned and repost labels a rendered item carries in
// its header lines.
func DetectMarkers(lines []string) (pinned, repost bool) {
	if len(lines) > 0 {
		first := strings.TrimSpace(lines[0])
		for _, label := range pinnedLabels {
			if first == label {
				pinned = true
			}
		}
	}
	for i := 0; i < len(lines) && i < 2; i++ {
		for _, label := range repostLabels {
			if strings.Contains(lines[i], label) {
				repost = true
			}
		}
	}
	return pinned, repost
}

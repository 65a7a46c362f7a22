package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// Post is one social post handed over by a feed.
type Post struct {
	// Lines are the rendered text lines, including any header and chrome.
	Lines []string
	// Cleaned marks Lines as body text only, so normalization is skipped.
	Cleaned bool
	// Permalink is the post's own URL, used when the body carries no link.
	Permalink string
}

// Text returns the post body the extractors run on.
func (p Post) Text() string {
	if p.Cleaned {
		return strings.TrimSpace(strings.Join(p.Lines, "\n"))
	}
	return Normalize(p.Lines)
}

// Cell is one event entry of a calendar widget.
type Cell struct {
	Date     string // YYYY-MM-DD
	Title    string
	TimeText string
	Link     string
}

var repostPattern = regexp.MustCompile(`^RT(?:$|[\s:@])`)

// Builder turns posts and widget cells into event records for one venue.
type Builder struct {
	Venue    string
	Category string // overrides keyword categorization when set
	Dates    *DateResolver
}

// NewBuilder creates a builder for the given venue.
func NewBuilder(venue, category string, dates *DateResolver) *Builder {
	return &Builder{Venue: venue, Category: category, Dates: dates}
}

// FromPost builds an unconfirmed record from a post. Reposts and posts with no
// resolvable date yield no record.
func (b *Builder) FromPost(p Post) (*event.Record, bool) {
	text := p.Text()
	if text == "" || repostPattern.MatchString(text) {
		return nil, false
	}

	res, ok := b.Dates.Resolve(text)
	if !ok {
		return nil, false
	}

	r := &event.Record{
		Date:     res.DateString(),
		Text:     text,
		Venue:    b.Venue,
		Category: b.category(text),
		Link:     FirstLink(text),
	}
	if r.Link == "" {
		r.Link = p.Permalink
	}

	if tr, ok := ResolveTimeRange(text); ok {
		r.StartTime, r.EndTime = tr.Start, tr.End
	} else if res.HasClock {
		r.StartTime = res.Clock()
	}
	return r, true
}

// FromCell builds a confirmed record from a calendar widget entry. Entries
// without a title yield no record.
func (b *Builder) FromCell(c Cell) (*event.Record, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		return nil, false
	}
	date, err := event.ValidateDate(c.Date)
	if err != nil {
		return nil, false
	}

	r := &event.Record{
		Date:      date,
		Title:     title,
		Venue:     b.Venue,
		Link:      strings.TrimSpace(c.Link),
		Category:  b.category(title),
		Confirmed: true,
	}
	if tr, ok := ResolveTimeRange(c.TimeText); ok {
		r.StartTime, r.EndTime = tr.Start, tr.End
	}

	r.Text = fmt.Sprintf("%s - %s", b.Venue, title)
	if r.StartTime != "" {
		r.Text = fmt.Sprintf("%s %s~%s", r.Text, r.StartTime, r.EndTime)
	}
	return r, true
}

func (b *Builder) category(text string) string {
	if b.Category != "" {
		return b.Category
	}
	return event.Categorize(text)
}

package scraper

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/ucanscrapex/eventsync/internal/extract"
	"github.com/ucanscrapex/eventsync/internal/logger"
)

// Scraper reads month-view calendar widgets.
type Scraper struct {
	fetcher *Fetcher
	loc     *time.Location
	now     func() time.Time
}

// New creates a Scraper. loc is the venue's time zone, used when the
// displayed month has to be inferred from today's date.
func New(fetcher *Fetcher, loc *time.Location) *Scraper {
	if fetcher == nil {
		fetcher = NewFetcher()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scraper{fetcher: fetcher, loc: loc, now: time.Now}
}

// FetchCalendar downloads the calendar page at pageURL and returns one cell
// per listed event.
func (s *Scraper) FetchCalendar(ctx context.Context, pageURL string) ([]extract.Cell, error) {
	doc, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return parseCalendar(doc, pageURL, s.now().In(s.loc)), nil
}

// ParseCalendar parses calendar markup read from r. now decides the displayed
// month when the page does not state it.
func ParseCalendar(r io.Reader, pageURL string, now time.Time) ([]extract.Cell, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return parseCalendar(doc, pageURL, now), nil
}

var (
	dayClassPattern   = regexp.MustCompile(`\bd_(\d+)\b`)
	monthLabelPattern = regexp.MustCompile(`(\d+)\s*月\s*(\d{4})`)
)

func parseCalendar(doc *goquery.Document, pageURL string, now time.Time) []extract.Cell {
	year, month := displayedMonth(doc, now)
	base, _ := url.Parse(pageURL)

	cells := make([]extract.Cell, 0)
	doc.Find("td.has_events").Each(func(i int, td *goquery.Selection) {
		class, _ := td.Attr("class")
		m := dayClassPattern.FindStringSubmatch(class)
		if m == nil {
			logger.Debug("Calendar cell without day class", logger.Fields{"class": class})
			return
		}
		day, _ := strconv.Atoi(m[1])
		date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
		if date.Month() != month {
			return
		}

		td.Find("li.event").Each(func(j int, li *goquery.Selection) {
			cell := extract.Cell{
				Date:     date.Format("2006-01-02"),
				Title:    strings.TrimSpace(li.Find("span.title").First().Text()),
				TimeText: strings.TrimSpace(li.Find("span.time").First().Text()),
			}
			if href, ok := li.Find("a[href]").First().Attr("href"); ok {
				cell.Link = resolveLink(base, href)
			}
			cells = append(cells, cell)
		})
	})

	return cells
}

// displayedMonth reads the month shown by the widget: the "10 月 2025" label,
// else the mobile month number (rolled to next year when it is behind today),
// else today's month.
func displayedMonth(doc *goquery.Document, now time.Time) (int, time.Month) {
	label := strings.TrimSpace(doc.Find("h3.ics-calendar-label").First().Text())
	if m := monthLabelPattern.FindStringSubmatch(label); m != nil {
		month, _ := strconv.Atoi(m[1])
		year, _ := strconv.Atoi(m[2])
		if month >= 1 && month <= 12 {
			return year, time.Month(month)
		}
	}

	phone := strings.TrimSpace(doc.Find("span.phone_only span[data-date-format='n']").First().Text())
	if month, err := strconv.Atoi(phone); err == nil && month >= 1 && month <= 12 {
		year := now.Year()
		if time.Month(month) < now.Month() {
			year++
		}
		return year, time.Month(month)
	}

	return now.Year(), now.Month()
}

func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if base == nil {
		return href
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	return base.ResolveReference(ref).String()
}

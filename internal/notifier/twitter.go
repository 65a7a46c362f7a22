package notifier

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API

	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/logger"
)

const (
	maxTweetRunes = 280
	// DefaultPostDelay is waited between consecutive posts.
	DefaultPostDelay = 2 * time.Second
)

// StatusPoster is the part of the API used to post. *twitter.StatusService
// implements it.
type StatusPoster interface {
	Update(status string, params *twitter.StatusUpdateParams) (*twitter.Tweet, *http.Response, error)
}

// TwitterNotifier posts records to Twitter
type TwitterNotifier struct {
	statuses StatusPoster
	delay    time.Duration
}

// NewTwitterNotifier creates a notifier posting through client.
func NewTwitterNotifier(client *twitter.Client) *TwitterNotifier {
	return &TwitterNotifier{statuses: client.Statuses, delay: DefaultPostDelay}
}

// WithDelay sets the pause between posts.
func (n *TwitterNotifier) WithDelay(d time.Duration) *TwitterNotifier {
	n.delay = d
	return n
}

// Notify posts one tweet per record, stopping at the first failure.
func (n *TwitterNotifier) Notify(ctx context.Context, records []*event.Record) error {
	for i, r := range records {
		tweet := formatTweet(r)

		if _, _, err := n.statuses.Update(tweet, nil); err != nil {
			return fmt.Errorf("failed to post tweet for %s: %w", event.IdentityKey(r), err)
		}
		logger.Info("Posted tweet", logger.Fields{"venue": r.Venue, "date": r.Date})

		// Rate limiting: wait between tweets
		if i < len(records)-1 {
			t := time.NewTimer(n.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return ctx.Err()
			case <-t.C:
			}
		}
	}

	return nil
}

// formatTweet formats a record as a tweet of at most 280 characters.
// A long title is shortened so the date and link survive.
func formatTweet(r *event.Record) string {
	head := fmt.Sprintf("🎉 New event at %s!\n\n📌 ", r.Venue)

	var tail strings.Builder
	tail.WriteString("\n")
	if r.Date != "" && r.Date != event.DateNA {
		when := r.Date
		if tr := r.TimeRange(); tr != "" {
			when += " " + tr
		}
		fmt.Fprintf(&tail, "📅 %s\n", when)
	}
	if r.Link != "" {
		fmt.Fprintf(&tail, "\n🔗 %s", r.Link)
	}

	title := strings.TrimSpace(r.Title)
	if title == "" {
		title = strings.TrimSpace(r.Text)
	}

	room := maxTweetRunes - utf8.RuneCountInString(head) - utf8.RuneCountInString(tail.String())
	if t := []rune(title); len(t) > room && len(t) > 3 {
		if room < 4 {
			room = 4
		}
		title = string(t[:room-3]) + "..."
	}

	tweet := head + title + tail.String()
	if runes := []rune(tweet); len(runes) > maxTweetRunes {
		tweet = string(runes[:maxTweetRunes-3]) + "..."
	}
	return tweet
}

// Command eventsync-notify announces the new events reported by
// "eventsync collect --format json" (or calendar/merge) on Twitter or
// Telegram.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ucanscrapex/eventsync/internal/config"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/feed/twitterfeed"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/notifier"
	"github.com/ucanscrapex/eventsync/internal/telegram"
)

var (
	channel     = flag.String("channel", "twitter", "Notification channel: twitter or telegram")
	eventsFile  = flag.String("events-file", "", "Path to sync result JSON file (or read from stdin)")
	dryRun      = flag.Bool("dry-run", false, "Print notifications without sending")
	maxEvents   = flag.Int("max-events", 10, "Maximum number of events to announce")
	venueFilter = flag.String("venue", "", "Only announce events for this venue")
	hidePast    = flag.Bool("hide-past", true, "Filter out past events")
	daysAhead   = flag.Int("days-ahead", 0, "Only announce events within N days (0 = disabled)")
	delay       = flag.Duration("delay", notifier.DefaultPostDelay, "Pause between tweets")
)

func main() {
	flag.Parse()

	if *channel != "twitter" && *channel != "telegram" {
		fmt.Fprintf(os.Stderr, "Error: invalid channel %q (must be 'twitter' or 'telegram')\n", *channel)
		os.Exit(1)
	}

	records, err := readEvents(*eventsFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if _, err := logger.Configure(cfg.Log.Level, cfg.Log.Format, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	now := time.Now().In(cfg.Loc())
	records = selectRecords(records, selection{
		venue:     *venueFilter,
		hidePast:  *hidePast,
		daysAhead: *daysAhead,
		limit:     *maxEvents,
	}, now)
	if len(records) == 0 {
		fmt.Println("No new events to announce")
		os.Exit(0)
	}

	n, err := newNotifier(cfg, *channel, *dryRun)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s: %v\n", *channel, err)
		os.Exit(1)
	}
	if *dryRun {
		fmt.Printf("DRY RUN MODE - Would announce %d events on %s:\n\n", len(records), *channel)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := n.Notify(ctx, records); err != nil {
		fmt.Fprintf(os.Stderr, "Error sending notifications: %v\n", err)
		os.Exit(1)
	}

	if !*dryRun {
		fmt.Printf("Successfully announced %d events on %s\n", len(records), *channel)
	}
}

func newNotifier(cfg *config.Config, channel string, dryRun bool) (notifier.Notifier, error) {
	if channel == "telegram" {
		if dryRun {
			return notifier.NewTelegramNotifier(notifier.NewWriterSender(os.Stdout)), nil
		}
		client, err := telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID,
			telegram.WithBaseURL(cfg.Telegram.APIURL),
			telegram.WithRetries(cfg.HTTP.Retries, cfg.HTTP.RetryInterval),
		)
		if err != nil {
			return nil, err
		}
		return notifier.NewTelegramNotifier(client), nil
	}

	if dryRun {
		return notifier.NewDryRunNotifier(os.Stdout), nil
	}
	client, err := twitterfeed.NewClient(twitterfeed.Credentials{
		APIKey:       cfg.Twitter.APIKey,
		APISecret:    cfg.Twitter.APISecret,
		AccessToken:  cfg.Twitter.AccessToken,
		AccessSecret: cfg.Twitter.AccessSecret,
	})
	if err != nil {
		return nil, err
	}
	return notifier.NewTwitterNotifier(client).WithDelay(*delay), nil
}

// readEvents reads the new_events of a sync result from a file or stdin.
func readEvents(path string) ([]*event.Record, error) {
	var reader io.Reader = os.Stdin
	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening events file: %w", err)
		}
		defer f.Close()
		reader = f
	}
	return decodeEvents(reader)
}

func decodeEvents(r io.Reader) ([]*event.Record, error) {
	var result struct {
		NewEvents []*event.Record `json:"new_events"`
	}
	if err := json.NewDecoder(r).Decode(&result); err != nil {
		return nil, fmt.Errorf("parsing JSON: %w", err)
	}
	return result.NewEvents, nil
}

type selection struct {
	venue     string
	hidePast  bool
	daysAhead int
	limit     int
}

// selectRecords drops nil and soft-deleted records and applies the venue
// and time filters, keeping at most s.limit records.
func selectRecords(records []*event.Record, s selection, now time.Time) []*event.Record {
	out := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if r == nil || r.Deleted {
			continue
		}
		if s.venue != "" && r.Venue != s.venue {
			continue
		}
		if s.hidePast && r.IsPast(now) {
			continue
		}
		if !r.IsWithinDays(now, s.daysAhead) {
			continue
		}
		out = append(out, r)
	}
	if s.limit >= 0 && len(out) > s.limit {
		out = out[:s.limit]
	}
	return out
}

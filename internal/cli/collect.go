package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucanscrapex/eventsync/internal/config"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/feed"
	"github.com/ucanscrapex/eventsync/internal/feed/htmlfeed"
	"github.com/ucanscrapex/eventsync/internal/feed/twitterfeed"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/notifier"
	"github.com/ucanscrapex/eventsync/internal/telegram"
)

type collectOptions struct {
	venue  string
	target int
	source string
	format string
	notify []string
	dryRun bool
}

func newCollectCmd(a *app) *cobra.Command {
	opts := &collectOptions{}
	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Collect new events from venue feeds",
		Long: `Scroll each venue's feed until the target number of events is collected or
the feed stops growing, then merge the batch into the venue store.

Exits with status 2 when new events were added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("target") {
				opts.target = -1
			}
			return a.runCollect(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venue, "venue", "", "Only collect this venue")
	cmd.Flags().IntVar(&opts.target, "target", 0, "Events to collect per venue; 0 reads until the feed ends (default from config)")
	cmd.Flags().StringVar(&opts.source, "source", "", "Feed source: twitter or html (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringSliceVar(&opts.notify, "notify", nil, "Announce new events on these channels: twitter, telegram")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "With --notify, print the notifications instead of sending them")

	return cmd
}

func (a *app) runCollect(cmd *cobra.Command, opts *collectOptions) error {
	format, err := parseFormat(opts.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}
	if opts.source != "" && opts.source != config.SourceTwitter && opts.source != config.SourceHTML {
		return fmt.Errorf("invalid source: %s (must be '%s' or '%s')", opts.source, config.SourceTwitter, config.SourceHTML)
	}
	if opts.target < -1 {
		return fmt.Errorf("--target must be >= 0")
	}
	for _, ch := range opts.notify {
		if ch != channelTwitter && ch != channelTelegram {
			return fmt.Errorf("invalid notify channel: %s (must be '%s' or '%s')", ch, channelTwitter, channelTelegram)
		}
	}

	venues, err := a.selectVenues(opts.venue)
	if err != nil {
		return err
	}

	c := a.cfg.Collect
	fcfg := feed.Config{
		Target:         c.Target,
		StallThreshold: c.StallThreshold,
		SettleDelay:    c.SettleDelay,
		RecheckDelay:   c.RecheckDelay,
		SkipPinned:     !c.IncludePinned,
		SkipReposts:    !c.IncludeReposts,
	}
	if opts.target >= 0 {
		fcfg.Target = opts.target
	}

	ctx := cmd.Context()
	result := newSyncResult(a.now())
	for _, v := range venues {
		source := opts.source
		if source == "" {
			source = a.cfg.SourceFor(v)
		}

		merged, err := a.collectVenue(ctx, v, source, fcfg)
		if err != nil {
			logger.Error("Collection failed", logger.Fields{"venue": v.Name, "source": source}, err)
			result.fail(v.Name, err)
			if ctx.Err() != nil {
				break
			}
		}
		result.add(v.Name, merged)
	}

	a.writeMetrics()

	if result.EventCount > 0 {
		for _, ch := range opts.notify {
			if err := a.notify(ctx, cmd, ch, result.NewEvents, opts.dryRun); err != nil {
				result.fail("notify "+ch, err)
			}
		}
	}

	if err := writeSync(cmd.OutOrStdout(), result, format, a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("collect finished with %d error(s) across %d venues: %s", len(result.Errors), len(venues), strings.Join(result.Errors, "; "))
	}
	if result.EventCount > 0 {
		a.exitCode = ExitNewEvents
	}
	return nil
}

// collectVenue runs the collection loop for one venue and merges whatever
// was collected, including a partial batch from a run that ended early.
func (a *app) collectVenue(ctx context.Context, v config.VenueConfig, source string, fcfg feed.Config) (*event.MergeResult, error) {
	renderer, err := a.renderer(v, source)
	if err != nil {
		return nil, err
	}
	b, err := a.builder(v)
	if err != nil {
		return nil, err
	}

	logger.Info("Collecting", logger.Fields{"venue": v.Name, "source": source, "target": fcfg.Target})

	res, collectErr := feed.NewCollector(fcfg, b).WithMetrics(a.metrics).Collect(ctx, renderer)
	if res == nil || len(res.Records) == 0 {
		return nil, collectErr
	}

	logger.Info("Collection finished", logger.Fields{
		"venue":      v.Name,
		"records":    len(res.Records),
		"iterations": res.Iterations,
		"exhausted":  res.Exhausted,
	})

	merged, err := a.mergeInto(v.Name, res.Records)
	if err != nil {
		return nil, errors.Join(collectErr, err)
	}
	return merged, collectErr
}

// renderer builds the feed renderer for a venue.
func (a *app) renderer(v config.VenueConfig, source string) (feed.Renderer, error) {
	switch source {
	case config.SourceTwitter:
		if v.Handle == "" {
			return nil, fmt.Errorf("venue %s has no handle", v.Name)
		}
		client, err := a.apiClient()
		if err != nil {
			return nil, err
		}
		return twitterfeed.New(client.Timelines, v.Handle,
			twitterfeed.WithPageSize(a.cfg.Collect.PageSize),
			twitterfeed.WithRetries(a.cfg.HTTP.Retries, a.cfg.HTTP.RetryInterval),
		), nil
	case config.SourceHTML:
		if len(v.FeedPages) == 0 {
			return nil, fmt.Errorf("venue %s has no feed_pages", v.Name)
		}
		return htmlfeed.New(v.FeedPages, a.fetcher()), nil
	}
	return nil, fmt.Errorf("unknown source %q", source)
}

// Notification channels accepted by --notify.
const (
	channelTwitter  = "twitter"
	channelTelegram = "telegram"
)

// notify announces newly added records on one channel.
func (a *app) notify(ctx context.Context, cmd *cobra.Command, channel string, records []*event.Record, dryRun bool) error {
	n, err := a.notifier(cmd, channel, dryRun)
	if err != nil {
		return err
	}
	if err := n.Notify(ctx, records); err != nil {
		logger.Error("Notification failed", logger.Fields{"channel": channel, "records": len(records)}, err)
		return err
	}
	return nil
}

func (a *app) notifier(cmd *cobra.Command, channel string, dryRun bool) (notifier.Notifier, error) {
	// stdout carries the command output
	out := cmd.ErrOrStderr()

	switch channel {
	case channelTelegram:
		if dryRun {
			return notifier.NewTelegramNotifier(notifier.NewWriterSender(out)), nil
		}
		t := a.cfg.Telegram
		client, err := telegram.NewClient(t.BotToken, t.ChatID,
			telegram.WithBaseURL(t.APIURL),
			telegram.WithRetries(a.cfg.HTTP.Retries, a.cfg.HTTP.RetryInterval),
		)
		if err != nil {
			return nil, err
		}
		return notifier.NewTelegramNotifier(client), nil
	default:
		if dryRun {
			return notifier.NewDryRunNotifier(out), nil
		}
		client, err := a.apiClient()
		if err != nil {
			return nil, err
		}
		return notifier.NewTwitterNotifier(client), nil
	}
}

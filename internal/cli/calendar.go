package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ucanscrapex/eventsync/internal/config"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/scraper"
)

type calendarOptions struct {
	venue  string
	url    string
	format string
}

func newCalendarCmd(a *app) *cobra.Command {
	opts := &calendarOptions{}
	cmd := &cobra.Command{
		Use:   "calendar",
		Short: "Scrape venue calendar widgets",
		Long: `Fetch each venue's month-view calendar page, turn every listed entry into an
event record and merge the result into the venue store.

Exits with status 2 when new events were added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runCalendar(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venue, "venue", "", "Only scrape this venue")
	cmd.Flags().StringVar(&opts.url, "url", "", "Calendar page URL (requires --venue; overrides calendar_url)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")

	return cmd
}

func (a *app) runCalendar(cmd *cobra.Command, opts *calendarOptions) error {
	format, err := parseFormat(opts.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}

	targets, err := a.calendarTargets(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	sc := scraper.New(a.fetcher(), a.cfg.Loc())
	result := newSyncResult(a.now())
	for _, v := range targets {
		merged, err := a.scrapeVenue(ctx, sc, v)
		if err != nil {
			logger.Error("Calendar scrape failed", logger.Fields{"venue": v.Name, "url": v.CalendarURL}, err)
			result.fail(v.Name, err)
			if ctx.Err() != nil {
				break
			}
			continue
		}
		result.add(v.Name, merged)
	}

	a.writeMetrics()

	if err := writeSync(cmd.OutOrStdout(), result, format, a.verbose); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	if len(result.Errors) > 0 {
		return fmt.Errorf("%d of %d calendars failed: %s", len(result.Errors), len(targets), strings.Join(result.Errors, "; "))
	}
	if result.EventCount > 0 {
		a.exitCode = ExitNewEvents
	}
	return nil
}

// calendarTargets picks the venues to scrape. A --url names an ad-hoc page
// for one venue, which need not be configured.
func (a *app) calendarTargets(opts *calendarOptions) ([]config.VenueConfig, error) {
	if opts.url != "" {
		if opts.venue == "" {
			return nil, errors.New("--url requires --venue")
		}
		v, ok := a.cfg.Venue(opts.venue)
		if !ok {
			v = config.VenueConfig{Name: opts.venue}
		}
		v.CalendarURL = opts.url
		return []config.VenueConfig{v}, nil
	}

	if opts.venue != "" {
		v, ok := a.cfg.Venue(opts.venue)
		if !ok {
			return nil, fmt.Errorf("unknown venue %q", opts.venue)
		}
		if v.CalendarURL == "" {
			return nil, fmt.Errorf("venue %s has no calendar_url", v.Name)
		}
		return []config.VenueConfig{v}, nil
	}

	var targets []config.VenueConfig
	for _, v := range a.cfg.Venues {
		if v.CalendarURL != "" {
			targets = append(targets, v)
		}
	}
	if len(targets) == 0 {
		return nil, errors.New("no venue has a calendar_url")
	}
	return targets, nil
}

func (a *app) scrapeVenue(ctx context.Context, sc *scraper.Scraper, v config.VenueConfig) (*event.MergeResult, error) {
	cells, err := sc.FetchCalendar(ctx, v.CalendarURL)
	if err != nil {
		return nil, err
	}
	b, err := a.builder(v)
	if err != nil {
		return nil, err
	}

	batch := make([]*event.Record, 0, len(cells))
	for _, c := range cells {
		if r, ok := b.FromCell(c); ok {
			batch = append(batch, r)
		}
	}
	logger.Info("Calendar scraped", logger.Fields{"venue": v.Name, "cells": len(cells), "records": len(batch)})

	return a.mergeInto(v.Name, batch)
}

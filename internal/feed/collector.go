package feed

import (
	"context"
	"fmt"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/extract"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/metrics"
)

// Config controls one collection run.
type Config struct {
	// Target is the number of records to collect; 0 collects until the feed
	// is exhausted.
	Target int
	// StallThreshold is the number of consecutive no-growth observations that
	// end the run.
	StallThreshold int
	// SettleDelay is waited after each Advance.
	SettleDelay time.Duration
	// RecheckDelay is waited after each no-growth observation.
	RecheckDelay time.Duration
	SkipPinned   bool
	SkipReposts  bool
}

// DefaultConfig returns the settings used against live feeds.
func DefaultConfig() Config {
	return Config{
		Target:         50,
		StallThreshold: 5,
		SettleDelay:    2 * time.Second,
		RecheckDelay:   200 * time.Millisecond,
		SkipPinned:     true,
		SkipReposts:    true,
	}
}

// Result is the outcome of a collection run.
type Result struct {
	Records []*event.Record
	// Exhausted is set when the run stopped because the feed stopped growing
	// before the target was reached.
	Exhausted  bool
	Iterations int
}

// Collector runs the collection loop for one venue.
type Collector struct {
	cfg     Config
	builder *extract.Builder
	metrics *metrics.Metrics
}

// NewCollector creates a collector that builds records with b.
func NewCollector(cfg Config, b *extract.Builder) *Collector {
	if cfg.StallThreshold <= 0 {
		cfg.StallThreshold = DefaultConfig().StallThreshold
	}
	return &Collector{cfg: cfg, builder: b, metrics: metrics.Default()}
}

// WithMetrics replaces the metrics set the collector reports to.
func (c *Collector) WithMetrics(m *metrics.Metrics) *Collector {
	c.metrics = m
	return c
}

// Collect reads items from r, advancing the feed until the target is reached
// or the extent stops growing for StallThreshold consecutive observations.
//
// Items that fail to capture or yield no record are skipped. An error from
// Advance or Extent, or a cancelled context, ends the run; the records
// collected so far are returned with the error.
func (c *Collector) Collect(ctx context.Context, r Renderer) (*Result, error) {
	start := time.Now()
	venue := c.builder.Venue
	defer func() { c.metrics.ObserveCollect(venue, time.Since(start)) }()

	res := &Result{}
	seen := make(map[string]struct{})
	rejected := make(map[string]struct{})

	lastExtent, err := r.Extent(ctx)
	if err != nil {
		return res, fmt.Errorf("failed to measure feed: %w", err)
	}
	stalls := 0

	for {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++

		items, err := r.Items(ctx)
		if err != nil {
			logger.Warn("Failed to read feed items", logger.Fields{
				"venue":     venue,
				"iteration": res.Iterations,
				"error":     err.Error(),
			})
			items = nil
		}

		for _, el := range items {
			if c.reached(res) {
				break
			}
			c.consume(el, res, seen, rejected)
		}

		logger.Debug("Collection progress", logger.Fields{
			"venue":     venue,
			"iteration": res.Iterations,
			"records":   len(res.Records),
			"target":    c.cfg.Target,
		})
		if c.reached(res) {
			return res, nil
		}

		if err := r.Advance(ctx); err != nil {
			return res, fmt.Errorf("failed to advance feed: %w", err)
		}
		if err := sleep(ctx, c.cfg.SettleDelay); err != nil {
			return res, err
		}

		extent, err := r.Extent(ctx)
		if err != nil {
			return res, fmt.Errorf("failed to measure feed: %w", err)
		}
		if extent != lastExtent {
			stalls = 0
			lastExtent = extent
			continue
		}

		stalls++
		logger.Debug("Feed did not grow", logger.Fields{
			"venue":  venue,
			"stalls": stalls,
			"limit":  c.cfg.StallThreshold,
		})
		if stalls >= c.cfg.StallThreshold {
			res.Exhausted = true
			c.metrics.ObserveExhausted(venue)
			if c.cfg.Target > 0 {
				logger.Warn("Feed exhausted before target", logger.Fields{
					"venue":     venue,
					"collected": len(res.Records),
					"target":    c.cfg.Target,
				})
			}
			return res, nil
		}
		if err := sleep(ctx, c.cfg.RecheckDelay); err != nil {
			return res, err
		}
	}
}

func (c *Collector) reached(res *Result) bool {
	return c.cfg.Target > 0 && len(res.Records) >= c.cfg.Target
}

func (c *Collector) consume(el Element, res *Result, seen, rejected map[string]struct{}) {
	venue := c.builder.Venue

	capture, err := el.Capture()
	if err != nil {
		c.metrics.ObserveItem(venue, metrics.OutcomeCaptureError)
		logger.Debug("Skipping unreadable item", logger.Fields{"venue": venue, "error": err.Error()})
		return
	}

	key := capture.Key()
	if _, ok := seen[key]; ok {
		return
	}
	if _, ok := rejected[key]; ok {
		return
	}

	if (capture.Pinned && c.cfg.SkipPinned) || (capture.Repost && c.cfg.SkipReposts) {
		rejected[key] = struct{}{}
		c.metrics.ObserveItem(venue, metrics.OutcomeSkipped)
		return
	}

	rec, ok := c.builder.FromPost(capture.Post())
	if !ok {
		rejected[key] = struct{}{}
		c.metrics.ObserveItem(venue, metrics.OutcomeDropped)
		logger.Debug("No event in item", logger.Fields{"venue": venue, "url": capture.URL})
		return
	}

	seen[key] = struct{}{}
	res.Records = append(res.Records, rec)
	c.metrics.ObserveItem(venue, metrics.OutcomeExtracted)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

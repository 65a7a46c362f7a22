// Package metrics tracks pipeline counters with Prometheus collectors.
//
// eventsync runs as a short-lived command, so metrics are not served over
// HTTP; WriteTextfile dumps them in the text exposition format for the
// node-exporter textfile collector.
//
// Example usage:
//
//	metrics.ObserveItem("studio", metrics.OutcomeExtracted)
//	metrics.ObserveCollect("studio", time.Since(start))
//	_ = metrics.WriteTextfile("/var/lib/node_exporter/eventsync.prom")
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Item outcomes reported by the collection loop.
const (
	OutcomeExtracted    = "extracted"
	OutcomeDropped      = "dropped"
	OutcomeSkipped      = "skipped"
	OutcomeCaptureError = "capture_error"
)

// Metrics holds the collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	items           *prometheus.CounterVec
	changes         *prometheus.CounterVec
	stalls          *prometheus.CounterVec
	collectDuration *prometheus.HistogramVec
	lastSuccess     *prometheus.GaugeVec
	storeRecords    *prometheus.GaugeVec
}

// New creates a metrics set with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.items = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventsync",
		Name:      "items_total",
		Help:      "Feed items processed by the collection loop, by outcome",
	}, []string{"venue", "outcome"})
	m.changes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventsync",
		Name:      "merge_changes_total",
		Help:      "Record changes applied by merges, by kind",
	}, []string{"venue", "kind"})
	m.stalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventsync",
		Name:      "feed_exhausted_total",
		Help:      "Collection runs that stopped because the feed stopped growing",
	}, []string{"venue"})
	m.collectDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "eventsync",
		Name:      "collect_duration_seconds",
		Help:      "Time spent in one collection run",
		Buckets:   []float64{1, 5, 15, 30, 60, 120, 300},
	}, []string{"venue"})
	m.lastSuccess = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eventsync",
		Name:      "last_success_timestamp_seconds",
		Help:      "Unix timestamp of the last successful store save",
	}, []string{"venue"})
	m.storeRecords = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eventsync",
		Name:      "store_records",
		Help:      "Records in a venue store after the last save",
	}, []string{"venue"})

	m.registry.MustRegister(
		m.items, m.changes, m.stalls,
		m.collectDuration, m.lastSuccess, m.storeRecords,
	)
	return m
}

// ObserveItem counts one feed item with the given outcome.
func (m *Metrics) ObserveItem(venue, outcome string) {
	m.items.WithLabelValues(venue, outcome).Inc()
}

// ObserveChanges adds n merge changes of the given kind.
func (m *Metrics) ObserveChanges(venue, kind string, n int) {
	if n <= 0 {
		return
	}
	m.changes.WithLabelValues(venue, kind).Add(float64(n))
}

// ObserveExhausted counts a run that ended on the stall threshold.
func (m *Metrics) ObserveExhausted(venue string) {
	m.stalls.WithLabelValues(venue).Inc()
}

// ObserveCollect records the duration of one collection run.
func (m *Metrics) ObserveCollect(venue string, d time.Duration) {
	m.collectDuration.WithLabelValues(venue).Observe(d.Seconds())
}

// ObserveSave records a successful store save.
func (m *Metrics) ObserveSave(venue string, records int, at time.Time) {
	m.lastSuccess.WithLabelValues(venue).Set(float64(at.Unix()))
	m.storeRecords.WithLabelValues(venue).Set(float64(records))
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Package-level functions using the default metrics set

var defaultMetrics = New()

// Default returns the package-level metrics set.
func Default() *Metrics {
	return defaultMetrics
}

// ObserveItem counts a feed item on the default metrics set.
func ObserveItem(venue, outcome string) {
	defaultMetrics.ObserveItem(venue, outcome)
}

// ObserveChanges adds merge changes on the default metrics set.
func ObserveChanges(venue, kind string, n int) {
	defaultMetrics.ObserveChanges(venue, kind, n)
}

// ObserveExhausted counts a stalled run on the default metrics set.
func ObserveExhausted(venue string) {
	defaultMetrics.ObserveExhausted(venue)
}

// ObserveCollect records a run duration on the default metrics set.
func ObserveCollect(venue string, d time.Duration) {
	defaultMetrics.ObserveCollect(venue, d)
}

// ObserveSave records a store save on the default metrics set.
func ObserveSave(venue string, records int, at time.Time) {
	defaultMetrics.ObserveSave(venue, records, at)
}

// WriteTextfile writes the default metrics set to path.
func WriteTextfile(path string) error {
	return defaultMetrics.WriteTextfile(path)
}

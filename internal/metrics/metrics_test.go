package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestMetrics_WriteTextfile(t *testing.T) {
	m := New()
	m.ObserveItem("studio", OutcomeExtracted)
	m.ObserveItem("studio", OutcomeExtracted)
	m.ObserveItem("studio", OutcomeDropped)
	m.ObserveChanges("studio", "added", 3)
	m.ObserveChanges("studio", "link", 0)
	m.ObserveExhausted("studio")
	m.ObserveCollect("studio", 2*time.Second)
	m.ObserveSave("studio", 12, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "eventsync.prom")
	if err := m.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read textfile: %v", err)
	}
	out := string(data)

	wants := []string{
		`eventsync_items_total{outcome="extracted",venue="studio"} 2`,
		`eventsync_items_total{outcome="dropped",venue="studio"} 1`,
		`eventsync_merge_changes_total{kind="added",venue="studio"} 3`,
		`eventsync_feed_exhausted_total{venue="studio"} 1`,
		`eventsync_collect_duration_seconds_count{venue="studio"} 1`,
		`eventsync_store_records{venue="studio"} 12`,
		`eventsync_last_success_timestamp_seconds{venue="studio"} 1.7e+09`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("textfile missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, `kind="link"`) {
		t.Error("zero-valued change kind should not be created")
	}
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a, b := New(), New()
	a.ObserveItem("x", OutcomeSkipped)

	families, err := b.Registry().Gather()
	if err != nil {
		t.Fatalf("Gather() error: %v", err)
	}
	for _, f := range families {
		if f.GetName() == "eventsync_items_total" && len(f.GetMetric()) > 0 {
			t.Error("metrics leaked between registries")
		}
	}
}

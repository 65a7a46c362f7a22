package main

import (
	"strings"
	"testing"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

func TestSelectRecords(t *testing.T) {
	now := time.Date(2025, time.August, 10, 12, 0, 0, 0, time.UTC)
	records := []*event.Record{
		{Date: "2025-08-15", Title: "One", Venue: "studio"},
		nil,
		{Date: "2025-08-16", Title: "Two", Venue: "toyroom"},
		{Date: "2025-08-17", Title: "Gone", Venue: "studio", Deleted: true},
		{Date: "2025-09-30", Title: "Three", Venue: "studio"},
		{Date: "2025-08-01", Title: "Past", Venue: "studio"},
		{Date: event.DateNA, Title: "Undated", Venue: "studio"},
	}

	tests := []struct {
		name string
		sel  selection
		want []string
	}{
		{"all venues", selection{hidePast: true, limit: 10}, []string{"One", "Two", "Three", "Undated"}},
		{"one venue", selection{venue: "studio", hidePast: true, limit: 10}, []string{"One", "Three", "Undated"}},
		{"limited", selection{hidePast: true, limit: 2}, []string{"One", "Two"}},
		{"keep past", selection{venue: "studio", limit: 10}, []string{"One", "Three", "Past", "Undated"}},
		{"days ahead", selection{hidePast: true, daysAhead: 14, limit: 10}, []string{"One", "Two", "Undated"}},
		{"unknown venue", selection{venue: "nowhere", limit: 10}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := selectRecords(records, tt.sel, now)
			if len(got) != len(tt.want) {
				t.Fatalf("selectRecords() returned %d records, want %d", len(got), len(tt.want))
			}
			for i, r := range got {
				if r.Title != tt.want[i] {
					t.Errorf("record %d = %q, want %q", i, r.Title, tt.want[i])
				}
			}
		})
	}
}

func TestDecodeEvents(t *testing.T) {
	input := `{"checked_at": "2025-08-10T12:00:00Z", "new_events": [{"date": "2025-08-15", "title": "One", "venue": "studio"}]}`

	records, err := decodeEvents(strings.NewReader(input))
	if err != nil {
		t.Fatalf("decodeEvents() error = %v", err)
	}
	if len(records) != 1 || records[0].Title != "One" {
		t.Errorf("decodeEvents() = %+v", records)
	}

	if _, err := decodeEvents(strings.NewReader("not json")); err == nil {
		t.Error("decodeEvents() expected error for invalid JSON")
	}
}

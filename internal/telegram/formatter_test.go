package telegram

import (
	"fmt"
	"strings"
	"testing"

	"github.com/ucanscrapex/eventsync/internal/event"
)

func TestFormatRecord(t *testing.T) {
	tests := []struct {
		name     string
		record   *event.Record
		contains []string
		excludes []string
	}{
		{
			name: "complete record",
			record: &event.Record{
				Date:             "2025-08-15",
				Title:            "Rope Night",
				BriefDescription: "Beginners welcome",
				StartTime:        "20:00",
				EndTime:          "23:00",
				Link:             "https://x.com/studio/status/1",
				Venue:            "studio",
			},
			contains: []string{"<b>studio</b> - Rope Night", "2025-08-15 20:00~23:00", "Beginners welcome", "https://x.com/studio/status/1", "🎉"},
		},
		{
			name:     "undated record without title",
			record:   &event.Record{Date: event.DateNA, Text: "coming soon\nstay tuned", Venue: "studio"},
			contains: []string{"coming soon"},
			excludes: []string{"📅", "stay tuned", "🔗"},
		},
		{
			name:     "html is escaped",
			record:   &event.Record{Date: "2025-08-15", Title: "Bondage <101> & more", Venue: "A&B"},
			contains: []string{"<b>A&amp;B</b>", "Bondage &lt;101&gt; &amp; more"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatRecord(tt.record)
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("FormatRecord() missing %q in:\n%s", want, got)
				}
			}
			for _, bad := range tt.excludes {
				if strings.Contains(got, bad) {
					t.Errorf("FormatRecord() contains %q in:\n%s", bad, got)
				}
			}
		})
	}
}

func TestFormatSummary(t *testing.T) {
	tests := []struct {
		count  int
		venues []string
		want   string
	}{
		{1, []string{"studio"}, "Found <b>1</b> new event at 1 venue: studio"},
		{3, []string{"studio", "toyroom"}, "Found <b>3</b> new events at 2 venues: studio, toyroom"},
		{2, nil, "Found <b>2</b> new events"},
	}

	for _, tt := range tests {
		got := FormatSummary(tt.count, tt.venues)
		if !strings.HasSuffix(got, tt.want) {
			t.Errorf("FormatSummary(%d, %v) = %q, want suffix %q", tt.count, tt.venues, got, tt.want)
		}
	}
}

func TestFormatDigest(t *testing.T) {
	records := []*event.Record{
		{Date: "2025-08-20", Title: "Late Show", Venue: "toyroom"},
		{Date: "2025-08-15", Title: "Rope Night", Venue: "studio", StartTime: "20:00", EndTime: "23:00", Link: "https://t.example/r?a=1&b=2"},
		{Date: event.DateNA, Text: "soon", Venue: "studio"},
	}

	msgs := FormatDigest(records)
	if len(msgs) != 1 {
		t.Fatalf("FormatDigest() returned %d messages, want 1", len(msgs))
	}
	msg := msgs[0]

	for _, want := range []string{
		"Found <b>3</b> new events at 2 venues: studio, toyroom",
		"<b>studio</b> (2 events)",
		"• Rope Night (2025-08-15 20:00~23:00) <a href=\"https://t.example/r?a=1&amp;b=2\">link</a>",
		"• soon\n",
		"<b>toyroom</b> (1 event)",
	} {
		if !strings.Contains(msg, want) {
			t.Errorf("digest missing %q:\n%s", want, msg)
		}
	}
	if strings.Index(msg, "studio</b> (") > strings.Index(msg, "toyroom</b> (") {
		t.Error("venues not in alphabetical order")
	}
}

func TestFormatDigest_Splits(t *testing.T) {
	var records []*event.Record
	for i := 0; i < 200; i++ {
		records = append(records, &event.Record{
			Date:  "2025-08-15",
			Title: fmt.Sprintf("繩縛派對與交流之夜 number %d", i),
			Venue: "studio",
		})
	}

	msgs := FormatDigest(records)
	if len(msgs) < 2 {
		t.Fatalf("FormatDigest() returned %d messages, want a split", len(msgs))
	}
	total := 0
	for i, m := range msgs {
		if len(m) > MaxMessageLength {
			t.Errorf("message %d is %d bytes", i, len(m))
		}
		total += strings.Count(m, "• ")
	}
	if total != len(records) {
		t.Errorf("digest lists %d records, want %d", total, len(records))
	}
}

func TestFormatDigest_Empty(t *testing.T) {
	if msgs := FormatDigest(nil); msgs != nil {
		t.Errorf("FormatDigest(nil) = %v", msgs)
	}
}

func TestTruncate(t *testing.T) {
	s := "ab繩縛"
	if got := truncate(s, 4); got != "ab" {
		t.Errorf("truncate() = %q, want cut before the partial rune", got)
	}
	if got := truncate(s, 100); got != s {
		t.Errorf("truncate() = %q", got)
	}
}

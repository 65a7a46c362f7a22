package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

var taipei = time.FixedZone("CST", 8*3600)

func stamp() time.Time {
	return time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)
}

func TestGenerateICS(t *testing.T) {
	records := []*event.Record{{
		Date:      "2025-08-15",
		Title:     "Rope Night",
		Text:      "8/15 20:00-23:00 Rope Night",
		StartTime: "20:00",
		EndTime:   "23:00",
		Link:      "https://x.com/studio/status/1",
		Venue:     "studio",
		Category:  "bd",
		Confirmed: true,
	}}

	ics := GenerateICS(records, taipei, stamp())

	requiredFields := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//eventsync//eventsync//EN",
		"BEGIN:VEVENT",
		"@eventsync",
		"DTSTAMP:20250701T000000Z",
		"DTSTART:20250815T120000Z",
		"DTEND:20250815T150000Z",
		"SUMMARY:Rope Night",
		"DESCRIPTION:8/15 20:00-23:00 Rope Night",
		"LOCATION:studio",
		"CATEGORIES:bd",
		"URL:https://x.com/studio/status/1",
		"STATUS:CONFIRMED",
		"END:VEVENT",
		"END:VCALENDAR",
	}

	for _, field := range requiredFields {
		if !strings.Contains(ics, field) {
			t.Errorf("ICS missing required field: %s", field)
		}
	}

	for _, line := range strings.Split(strings.TrimSuffix(ics, "\r\n"), "\r\n") {
		if strings.Contains(line, "\n") {
			t.Errorf("line %q is not CRLF terminated", line)
		}
	}
}

func TestGenerateICS_EventTimes(t *testing.T) {
	tests := []struct {
		name      string
		record    *event.Record
		wantStart string
		wantEnd   string
	}{
		{
			name:      "all day",
			record:    &event.Record{Date: "2025-08-15", Title: "Poster Show"},
			wantStart: "DTSTART;VALUE=DATE:20250815",
			wantEnd:   "DTEND;VALUE=DATE:20250816",
		},
		{
			name:      "start only",
			record:    &event.Record{Date: "2025-08-15", Title: "Party", StartTime: "19:00"},
			wantStart: "DTSTART:20250815T110000Z",
			wantEnd:   "DTEND:20250815T140000Z",
		},
		{
			name:      "past midnight",
			record:    &event.Record{Date: "2025-08-15", Title: "Late", StartTime: "22:00", EndTime: "02:00"},
			wantStart: "DTSTART:20250815T140000Z",
			wantEnd:   "DTEND:20250815T180000Z",
		},
		{
			name:      "ends at 24:00",
			record:    &event.Record{Date: "2025-08-15", Title: "Late", StartTime: "21:00", EndTime: "24:00"},
			wantStart: "DTSTART:20250815T130000Z",
			wantEnd:   "DTEND:20250815T160000Z",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ics := GenerateICS([]*event.Record{tt.record}, taipei, stamp())
			if !strings.Contains(ics, tt.wantStart+"\r\n") {
				t.Errorf("ICS missing %q:\n%s", tt.wantStart, ics)
			}
			if !strings.Contains(ics, tt.wantEnd+"\r\n") {
				t.Errorf("ICS missing %q:\n%s", tt.wantEnd, ics)
			}
		})
	}
}

func TestGenerateICS_SkipsUndatedAndFallsBackToText(t *testing.T) {
	records := []*event.Record{
		{Date: event.DateNA, Title: "Someday"},
		{Date: "2025-08-20", Text: "8/20 mystery night\nmore details"},
	}

	ics := GenerateICS(records, time.UTC, stamp())

	if n := strings.Count(ics, "BEGIN:VEVENT"); n != 1 {
		t.Errorf("got %d events, want 1", n)
	}
	if strings.Contains(ics, "Someday") {
		t.Error("undated record exported")
	}
	if !strings.Contains(ics, "SUMMARY:8/20 mystery night\r\n") {
		t.Errorf("summary not taken from first text line:\n%s", ics)
	}
	if !strings.Contains(ics, "STATUS:TENTATIVE") {
		t.Error("unconfirmed record should be tentative")
	}
}

func TestGenerateICS_EmptyRecords(t *testing.T) {
	ics := GenerateICS(nil, nil, stamp())

	if !strings.HasPrefix(ics, "BEGIN:VCALENDAR\r\n") || !strings.HasSuffix(ics, "END:VCALENDAR\r\n") {
		t.Errorf("unexpected calendar wrapper: %q", ics)
	}
	if strings.Contains(ics, "BEGIN:VEVENT") {
		t.Error("empty record set produced events")
	}
}

func TestUID_StableAndDistinct(t *testing.T) {
	a := &event.Record{Date: "2025-08-15", Title: "Rope Night", Venue: "studio"}
	b := &event.Record{Date: "2025-08-15", Title: "Rope Night", Venue: "studio", Link: "changed"}
	c := &event.Record{Date: "2025-08-15", Title: "Rope Night", Venue: "toyroom"}

	if uid(a) != uid(b) {
		t.Error("uid changed with a non-key field")
	}
	if uid(a) == uid(c) {
		t.Error("uid does not include the venue")
	}
}

func TestFormatICSTime(t *testing.T) {
	tm := time.Date(2025, 3, 15, 9, 30, 0, 0, taipei)
	if got := formatICSTime(tm); got != "20250315T013000Z" {
		t.Errorf("formatICSTime() = %q", got)
	}
}

func TestEscapeICS(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"plain", "plain"},
		{"a, b", "a\\, b"},
		{"a; b", "a\\; b"},
		{"back\\slash", "back\\\\slash"},
		{"two\nlines", "two\\nlines"},
		{"crlf\r\nline", "crlf\\nline"},
	}

	for _, tt := range tests {
		if got := escapeICS(tt.input); got != tt.want {
			t.Errorf("escapeICS(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestWriteLine_Folds(t *testing.T) {
	var b strings.Builder
	long := "DESCRIPTION:" + strings.Repeat("繩縛派對", 20)
	writeLine(&b, long)

	out := b.String()
	lines := strings.Split(strings.TrimSuffix(out, "\r\n"), "\r\n")
	if len(lines) < 2 {
		t.Fatalf("line not folded: %q", out)
	}
	for i, l := range lines {
		if len(l) > 75 {
			t.Errorf("line %d is %d octets", i, len(l))
		}
		if i > 0 && !strings.HasPrefix(l, " ") {
			t.Errorf("continuation line %d does not start with a space", i)
		}
	}

	var joined strings.Builder
	for i, l := range lines {
		if i > 0 {
			l = l[1:]
		}
		joined.WriteString(l)
	}
	if joined.String() != long {
		t.Error("unfolded content differs from input")
	}
}

package event

import (
	"fmt"
	"strings"
)

// DateNA is the sentinel stored in Record.Date when no date is known.
const DateNA = "N/A"

// Record is one persisted calendar event for a venue.
// JSON field names match the existing <venue>_events.json store files.
type Record struct {
	Date             string `json:"date"`
	Text             string `json:"text"`
	Title            string `json:"title"`
	BriefDescription string `json:"brief_description"`
	StartTime        string `json:"start_time,omitempty"`
	EndTime          string `json:"end_time,omitempty"`
	Link             string `json:"link"`
	Venue            string `json:"venue"`
	Category         string `json:"category,omitempty"`
	Confirmed        bool   `json:"check"`
	Deleted          bool   `json:"delete"`
}

// Key identifies a record within one venue's store.
//
// When both Date and Title are set the key is (Date, Title) and Text is empty;
// otherwise only Text is set. The two forms never compare equal to each other.
type Key struct {
	Date  string
	Title string
	Text  string
}

// IdentityKey returns the dedup/match key of a record: (date, title) when both
// are non-empty, else the raw text. Review edits must use the same key.
func IdentityKey(r *Record) Key {
	if r.Date != "" && r.Title != "" {
		return Key{Date: r.Date, Title: r.Title}
	}
	return Key{Text: r.Text}
}

// TextKey returns the text-only key for a record regardless of its title.
func TextKey(r *Record) Key {
	return Key{Text: r.Text}
}

// IsTextKey reports whether the key fell back to the raw text.
func (k Key) IsTextKey() bool {
	return k.Date == "" && k.Title == ""
}

func (k Key) String() string {
	if k.IsTextKey() {
		return fmt.Sprintf("text:%q", truncate(k.Text, 40))
	}
	return fmt.Sprintf("%s|%s", k.Date, k.Title)
}

// Clone returns a copy of the record.
func (r *Record) Clone() *Record {
	c := *r
	return &c
}

// Normalize fills defaults for records loaded from older store files.
func (r *Record) Normalize() {
	if strings.TrimSpace(r.Date) == "" {
		r.Date = DateNA
	}
}

// Publishable reports whether the record belongs on the public schedule:
// confirmed, not deleted, and carrying a real title.
func (r *Record) Publishable() bool {
	title := strings.TrimSpace(r.Title)
	return r.Confirmed && !r.Deleted && title != "" && title != "."
}

// TimeRange returns "start~end" for display, or "" when no start time is known.
func (r *Record) TimeRange() string {
	if r.StartTime == "" {
		return ""
	}
	return r.StartTime + "~" + r.EndTime
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "…"
}

package calendar

import (
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

const (
	prodID = "-//eventsync//eventsync//EN"
	// defaultDuration is used when a record has a start time but no end.
	defaultDuration = 3 * time.Hour
)

// GenerateICS generates an iCalendar (.ics) document with one VEVENT per
// dated record. Clock times are interpreted in loc; records without a start
// time become all-day events. Undated records are skipped.
func GenerateICS(records []*event.Record, loc *time.Location, now time.Time) string {
	if loc == nil {
		loc = time.UTC
	}

	var ics strings.Builder
	ics.WriteString("BEGIN:VCALENDAR\r\n")
	ics.WriteString("VERSION:2.0\r\n")
	writeLine(&ics, "PRODID:"+prodID)
	ics.WriteString("CALSCALE:GREGORIAN\r\n")
	ics.WriteString("METHOD:PUBLISH\r\n")

	for _, r := range records {
		writeEvent(&ics, r, loc, now)
	}

	ics.WriteString("END:VCALENDAR\r\n")
	return ics.String()
}

func writeEvent(ics *strings.Builder, r *event.Record, loc *time.Location, now time.Time) {
	date := event.ParseDate(r.Date, loc)
	if date.IsZero() {
		return
	}

	ics.WriteString("BEGIN:VEVENT\r\n")
	writeLine(ics, fmt.Sprintf("UID:%s@eventsync", uid(r)))
	writeLine(ics, "DTSTAMP:"+formatICSTime(now))

	if start, ok := clockOn(date, r.StartTime, loc); ok {
		end, ok := clockOn(date, r.EndTime, loc)
		if !ok {
			end = start.Add(defaultDuration)
		} else if !end.After(start) {
			// runs past midnight
			end = end.AddDate(0, 0, 1)
		}
		writeLine(ics, "DTSTART:"+formatICSTime(start))
		writeLine(ics, "DTEND:"+formatICSTime(end))
	} else {
		writeLine(ics, "DTSTART;VALUE=DATE:"+date.Format("20060102"))
		writeLine(ics, "DTEND;VALUE=DATE:"+date.AddDate(0, 0, 1).Format("20060102"))
	}

	summary := r.Title
	if strings.TrimSpace(summary) == "" {
		summary = firstLine(r.Text)
	}
	writeLine(ics, "SUMMARY:"+escapeICS(summary))

	description := r.BriefDescription
	if description == "" {
		description = r.Text
	}
	if description != "" {
		writeLine(ics, "DESCRIPTION:"+escapeICS(description))
	}
	if r.Venue != "" {
		writeLine(ics, "LOCATION:"+escapeICS(r.Venue))
	}
	if r.Category != "" {
		writeLine(ics, "CATEGORIES:"+escapeICS(r.Category))
	}
	if r.Link != "" {
		writeLine(ics, "URL:"+r.Link)
	}

	if r.Confirmed {
		ics.WriteString("STATUS:CONFIRMED\r\n")
	} else {
		ics.WriteString("STATUS:TENTATIVE\r\n")
	}
	ics.WriteString("SEQUENCE:0\r\n")
	ics.WriteString("TRANSP:OPAQUE\r\n")
	ics.WriteString("END:VEVENT\r\n")
}

// uid is stable across runs for the same venue and identity key.
func uid(r *event.Record) string {
	h := fnv.New64a()
	fmt.Fprintf(h, "%s\x00%s", r.Venue, event.IdentityKey(r))
	return strconv.FormatUint(h.Sum64(), 16)
}

// clockOn combines a day with an "HH:MM" clock. "24:00" is the next midnight.
func clockOn(day time.Time, clock string, loc *time.Location) (time.Time, bool) {
	if len(clock) != 5 || clock[2] != ':' {
		return time.Time{}, false
	}
	h, err1 := strconv.Atoi(clock[:2])
	m, err2 := strconv.Atoi(clock[3:])
	if err1 != nil || err2 != nil || h > 24 || m > 59 {
		return time.Time{}, false
	}
	return time.Date(day.Year(), day.Month(), day.Day(), h, m, 0, 0, loc), true
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}

// formatICSTime formats a time.Time as an iCalendar datetime string
func formatICSTime(t time.Time) string {
	return t.UTC().Format("20060102T150405Z")
}

// escapeICS escapes special characters for iCalendar format
func escapeICS(s string) string {
	// Replace special characters according to RFC 5545
	s = strings.ReplaceAll(s, "\\", "\\\\")
	s = strings.ReplaceAll(s, ",", "\\,")
	s = strings.ReplaceAll(s, ";", "\\;")
	s = strings.ReplaceAll(s, "\r\n", "\\n")
	s = strings.ReplaceAll(s, "\n", "\\n")
	return s
}

// writeLine writes a content line folded at 75 octets, never splitting a
// UTF-8 sequence.
func writeLine(b *strings.Builder, line string) {
	const limit = 75
	width := limit
	for len(line) > width {
		cut := width
		for cut > 0 && !startsRune(line[cut]) {
			cut--
		}
		b.WriteString(line[:cut])
		b.WriteString("\r\n ")
		line = line[cut:]
		// continuation lines lose one octet to the leading space
		width = limit - 1
	}
	b.WriteString(line)
	b.WriteString("\r\n")
}

func startsRune(c byte) bool {
	return c&0xC0 != 0x80
}

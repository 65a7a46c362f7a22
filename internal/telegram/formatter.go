package telegram

import (
	"fmt"
	"html"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// FormatRecord formats a single record as a Telegram message
func FormatRecord(r *event.Record) string {
	var msg strings.Builder

	msg.WriteString("🎉 <b>New event!</b>\n\n")
	fmt.Fprintf(&msg, "📍 <b>%s</b> - %s\n", html.EscapeString(r.Venue), html.EscapeString(title(r)))

	if when := when(r); when != "" {
		fmt.Fprintf(&msg, "📅 %s\n", when)
	}
	if r.BriefDescription != "" {
		fmt.Fprintf(&msg, "📝 %s\n", html.EscapeString(r.BriefDescription))
	}
	if r.Link != "" {
		fmt.Fprintf(&msg, "\n🔗 %s\n", html.EscapeString(r.Link))
	}

	return msg.String()
}

// FormatSummary creates a summary message for multiple records
func FormatSummary(count int, venues []string) string {
	var msg strings.Builder

	msg.WriteString("📬 <b>Events Update</b>\n\n")
	fmt.Fprintf(&msg, "Found <b>%d</b> new event%s", count, pluralize(count))

	if len(venues) > 0 {
		escaped := make([]string, len(venues))
		for i, v := range venues {
			escaped[i] = html.EscapeString(v)
		}
		fmt.Fprintf(&msg, " at %d venue%s: %s", len(venues), pluralize(len(venues)), strings.Join(escaped, ", "))
	}

	return msg.String()
}

// FormatDigest formats records as digest messages grouped by venue. Output
// longer than MaxMessageLength is split between entries.
func FormatDigest(records []*event.Record) []string {
	if len(records) == 0 {
		return nil
	}

	byVenue := make(map[string][]*event.Record)
	for _, r := range records {
		byVenue[r.Venue] = append(byVenue[r.Venue], r)
	}
	venues := make([]string, 0, len(byVenue))
	for v := range byVenue {
		venues = append(venues, v)
	}
	sort.Strings(venues)

	var messages []string
	var msg strings.Builder
	msg.WriteString(FormatSummary(len(records), venues))
	msg.WriteString("\n")

	appendBlock := func(block string) {
		if msg.Len()+len(block) > MaxMessageLength && msg.Len() > 0 {
			messages = append(messages, strings.TrimSpace(msg.String()))
			msg.Reset()
		}
		msg.WriteString(block)
	}

	for _, v := range venues {
		recs := byVenue[v]
		appendBlock(fmt.Sprintf("\n📍 <b>%s</b> (%d event%s)\n", html.EscapeString(v), len(recs), pluralize(len(recs))))
		for _, r := range recs {
			line := "  • " + html.EscapeString(title(r))
			if w := when(r); w != "" {
				line += " (" + w + ")"
			}
			if r.Link != "" {
				line += fmt.Sprintf(` <a href="%s">link</a>`, html.EscapeString(r.Link))
			}
			appendBlock(truncate(line, MaxMessageLength-1) + "\n")
		}
	}

	if msg.Len() > 0 {
		messages = append(messages, strings.TrimSpace(msg.String()))
	}
	return messages
}

func title(r *event.Record) string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	text := strings.TrimSpace(r.Text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	return text
}

func when(r *event.Record) string {
	if r.Date == "" || r.Date == event.DateNA {
		return ""
	}
	if tr := r.TimeRange(); tr != "" {
		return r.Date + " " + tr
	}
	return r.Date
}

// truncate cuts s to at most n bytes on a rune boundary.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func pluralize(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}

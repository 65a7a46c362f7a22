package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
	FormatICS  OutputFormat = "ics"
)

// parseFormat validates a --format value against the formats a command
// supports.
func parseFormat(s string, allowed ...OutputFormat) (OutputFormat, error) {
	f := OutputFormat(strings.ToLower(strings.TrimSpace(s)))
	names := make([]string, 0, len(allowed))
	for _, a := range allowed {
		if f == a {
			return f, nil
		}
		names = append(names, "'"+string(a)+"'")
	}
	return "", fmt.Errorf("invalid format: %s (must be %s)", s, strings.Join(names, " or "))
}

// SyncResult reports what a collect, calendar or merge run changed.
type SyncResult struct {
	CheckedAt  time.Time                  `json:"checked_at"`
	Venues     []string                   `json:"venues"`
	NewEvents  []*event.Record            `json:"new_events"`
	EventCount int                        `json:"event_count"`
	ByVenue    map[string][]*event.Record `json:"by_venue,omitempty"`
	Changes    map[string]int             `json:"changes"`
	Errors     []string                   `json:"errors,omitempty"`
}

func newSyncResult(at time.Time) *SyncResult {
	return &SyncResult{
		CheckedAt: at.UTC(),
		Venues:    []string{},
		NewEvents: []*event.Record{},
		Changes: map[string]int{
			event.ChangeAdded:     0,
			event.ChangeLink:      0,
			event.ChangeConfirmed: 0,
		},
	}
}

// add records the outcome of one venue's merge.
func (r *SyncResult) add(venue string, m *event.MergeResult) {
	r.Venues = append(r.Venues, venue)
	if m == nil {
		return
	}
	for kind := range r.Changes {
		r.Changes[kind] += m.Count(kind)
	}
	added := m.Added()
	if len(added) == 0 {
		return
	}
	if r.ByVenue == nil {
		r.ByVenue = make(map[string][]*event.Record)
	}
	r.ByVenue[venue] = append(r.ByVenue[venue], added...)
	r.NewEvents = append(r.NewEvents, added...)
	r.EventCount = len(r.NewEvents)
}

func (r *SyncResult) fail(venue string, err error) {
	r.Errors = append(r.Errors, fmt.Sprintf("%s: %v", venue, err))
}

// ListResult is the output of the list command.
type ListResult struct {
	Records []*event.Record `json:"events"`
	Count   int             `json:"count"`
	Filter  string          `json:"filter,omitempty"`
}

// writeJSON outputs v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(v)
}

// writeSync writes a sync result in the specified format
func writeSync(w io.Writer, result *SyncResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeSyncText(w, result, verbose)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeSyncText outputs new records grouped by venue as human-readable text
func writeSyncText(w io.Writer, result *SyncResult, verbose bool) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No new events found.")
	} else {
		venues := make([]string, 0, len(result.ByVenue))
		for v := range result.ByVenue {
			venues = append(venues, v)
		}
		sort.Strings(venues)

		for _, v := range venues {
			records := result.ByVenue[v]
			fmt.Fprintf(w, "\n%s (%d new):\n", v, len(records))
			for _, r := range records {
				fmt.Fprintf(w, "  NEW: %s\n", recordLine(r))
				if verbose {
					writeDetails(w, r, "       ")
				}
			}
		}
		fmt.Fprintf(w, "\nTotal: %d new across %d venues\n", result.EventCount, len(result.ByVenue))
	}

	if n := result.Changes[event.ChangeLink] + result.Changes[event.ChangeConfirmed]; n > 0 {
		fmt.Fprintf(w, "Updated: %d links backfilled, %d confirmed\n",
			result.Changes[event.ChangeLink], result.Changes[event.ChangeConfirmed])
	}
	for _, e := range result.Errors {
		fmt.Fprintf(w, "FAILED: %s\n", e)
	}
	return nil
}

// writeList writes listed records in the specified format
func writeList(w io.Writer, result *ListResult, format OutputFormat, verbose bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		if result.Count == 0 {
			fmt.Fprintln(w, "No events found.")
			return nil
		}
		for _, r := range result.Records {
			fmt.Fprintf(w, "%-10s %s\n", r.Venue, recordLine(r))
			if verbose {
				writeDetails(w, r, "           ")
			}
		}
		fmt.Fprintf(w, "\nTotal: %d events\n", result.Count)
		if result.Filter != "" {
			fmt.Fprintf(w, "Filter: %s\n", result.Filter)
		}
		return nil
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// recordLine renders a record as "date time title [flags]".
func recordLine(r *event.Record) string {
	var b strings.Builder
	b.WriteString(r.Date)
	if tr := r.TimeRange(); tr != "" {
		b.WriteString(" " + tr)
	}
	b.WriteString("  ")
	b.WriteString(displayTitle(r))

	var flags []string
	if r.Confirmed {
		flags = append(flags, "confirmed")
	}
	if r.Deleted {
		flags = append(flags, "deleted")
	}
	if len(flags) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(flags, ", "))
	}
	return b.String()
}

func displayTitle(r *event.Record) string {
	if t := strings.TrimSpace(r.Title); t != "" {
		return t
	}
	text := strings.TrimSpace(r.Text)
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = text[:i]
	}
	if runes := []rune(text); len(runes) > 60 {
		text = string(runes[:57]) + "..."
	}
	return text
}

func writeDetails(w io.Writer, r *event.Record, indent string) {
	fmt.Fprintf(w, "%sKey: %s\n", indent, event.IdentityKey(r))
	if r.Category != "" {
		fmt.Fprintf(w, "%sCategory: %s\n", indent, r.Category)
	}
	if r.BriefDescription != "" {
		fmt.Fprintf(w, "%sDescription: %s\n", indent, r.BriefDescription)
	}
	if r.Link != "" {
		fmt.Fprintf(w, "%sLink: %s\n", indent, r.Link)
	}
}

// Package filter selects event records for listing and publishing.
//
// Filters narrow a record set by:
//   - Date range (from/to dates, inclusive)
//   - Venue names (exact, case-insensitive)
//   - Category codes
//   - Title text (substring matching, case-insensitive)
//   - Weekends only (Saturday/Sunday)
//   - Review state (confirmed only, deleted included)
//
// Example usage:
//
//	f := filter.NewFilter()
//	f.WeekendsOnly = true
//	f.Venues = []string{"studio"}
//
//	selected := f.Apply(records)
package filter

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// Filter represents record selection criteria
type Filter struct {
	DateFrom *time.Time `json:"date_from,omitempty"`
	DateTo   *time.Time `json:"date_to,omitempty"`

	// Venue filtering (exact, case-insensitive)
	Venues []string `json:"venues,omitempty"`

	// Category codes such as "bd" or "wk"
	Categories []string `json:"categories,omitempty"`

	// Title filtering (case-insensitive substring match)
	Titles []string `json:"titles,omitempty"`

	WeekendsOnly bool `json:"weekends_only,omitempty"`

	// ConfirmedOnly drops records nobody has reviewed yet.
	ConfirmedOnly bool `json:"confirmed_only,omitempty"`

	// IncludeDeleted keeps soft-deleted records, which are hidden otherwise.
	IncludeDeleted bool `json:"include_deleted,omitempty"`
}

// NewFilter creates a new empty filter.
// It matches every record that is not soft-deleted.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria.
func (f *Filter) IsEmpty() bool {
	return f.DateFrom == nil &&
		f.DateTo == nil &&
		len(f.Venues) == 0 &&
		len(f.Categories) == 0 &&
		len(f.Titles) == 0 &&
		!f.WeekendsOnly &&
		!f.ConfirmedOnly &&
		!f.IncludeDeleted
}

// Matches checks if a record passes all active criteria.
//
// Matching logic:
//   - Deleted records never match unless IncludeDeleted is set
//   - Date range: record date within DateFrom and DateTo (inclusive, by day)
//   - WeekendsOnly: record date is Saturday or Sunday
//   - Date criteria skip records whose date is N/A
//   - Venues/Categories: exact match against any entry
//   - Titles: title contains any entry (case-insensitive)
func (f *Filter) Matches(r *event.Record) bool {
	if r.Deleted && !f.IncludeDeleted {
		return false
	}
	if f.ConfirmedOnly && !r.Confirmed {
		return false
	}

	date := event.ParseDate(r.Date, time.UTC)
	if !date.IsZero() {
		if f.DateFrom != nil && date.Before(day(*f.DateFrom)) {
			return false
		}
		if f.DateTo != nil && date.After(day(*f.DateTo)) {
			return false
		}
		if f.WeekendsOnly {
			if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
				return false
			}
		}
	}

	if len(f.Venues) > 0 && !containsFold(f.Venues, r.Venue) {
		return false
	}
	if len(f.Categories) > 0 && !containsFold(f.Categories, r.Category) {
		return false
	}

	if len(f.Titles) > 0 {
		matched := false
		titleLower := strings.ToLower(r.Title)
		for _, t := range f.Titles {
			if strings.Contains(titleLower, strings.ToLower(t)) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

// Apply returns the records that match, in their original order.
func (f *Filter) Apply(records []*event.Record) []*event.Record {
	filtered := make([]*event.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "From: Aug 1, 2025 | To: Aug 15, 2025 | Venues: studio | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string

	if f.DateFrom != nil {
		parts = append(parts, fmt.Sprintf("From: %s", f.DateFrom.Format("Jan 2, 2006")))
	}
	if f.DateTo != nil {
		parts = append(parts, fmt.Sprintf("To: %s", f.DateTo.Format("Jan 2, 2006")))
	}
	if len(f.Venues) > 0 {
		parts = append(parts, fmt.Sprintf("Venues: %s", strings.Join(f.Venues, ", ")))
	}
	if len(f.Categories) > 0 {
		parts = append(parts, fmt.Sprintf("Categories: %s", strings.Join(f.Categories, ", ")))
	}
	if len(f.Titles) > 0 {
		parts = append(parts, fmt.Sprintf("Titles: %s", strings.Join(f.Titles, ", ")))
	}
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}
	if f.ConfirmedOnly {
		parts = append(parts, "Confirmed only")
	}
	if f.IncludeDeleted {
		parts = append(parts, "Including deleted")
	}

	return strings.Join(parts, " | ")
}

// Clone creates a deep copy of the filter.
func (f *Filter) Clone() *Filter {
	clone := *f

	if f.DateFrom != nil {
		df := *f.DateFrom
		clone.DateFrom = &df
	}
	if f.DateTo != nil {
		dt := *f.DateTo
		clone.DateTo = &dt
	}
	clone.Venues = append([]string(nil), f.Venues...)
	clone.Categories = append([]string(nil), f.Categories...)
	clone.Titles = append([]string(nil), f.Titles...)

	return &clone
}

// Publishable returns the records that belong on the public schedule.
func Publishable(records []*event.Record) []*event.Record {
	var out []*event.Record
	for _, r := range records {
		if r.Publishable() {
			out = append(out, r)
		}
	}
	return out
}

// MonthGroup is the records of one calendar month.
type MonthGroup struct {
	// Month is "YYYY-MM", or "N/A" for undated records.
	Month   string          `json:"month"`
	Records []*event.Record `json:"events"`
}

// GroupByMonth groups records by month in ascending order, undated last.
// Within a month records are ordered by date, start time, then venue.
func GroupByMonth(records []*event.Record) []MonthGroup {
	byMonth := make(map[string][]*event.Record)
	for _, r := range records {
		month := event.DateNA
		if d := event.ParseDate(r.Date, time.UTC); !d.IsZero() {
			month = d.Format("2006-01")
		}
		byMonth[month] = append(byMonth[month], r)
	}

	months := make([]string, 0, len(byMonth))
	for m := range byMonth {
		months = append(months, m)
	}
	sort.Slice(months, func(i, j int) bool {
		if months[i] == event.DateNA || months[j] == event.DateNA {
			return months[j] == event.DateNA && months[i] != event.DateNA
		}
		return months[i] < months[j]
	})

	groups := make([]MonthGroup, 0, len(months))
	for _, m := range months {
		recs := byMonth[m]
		sort.SliceStable(recs, func(i, j int) bool {
			a, b := recs[i], recs[j]
			if a.Date != b.Date {
				return a.Date < b.Date
			}
			if a.StartTime != b.StartTime {
				return a.StartTime < b.StartTime
			}
			return a.Venue < b.Venue
		})
		groups = append(groups, MonthGroup{Month: m, Records: recs})
	}
	return groups
}

func day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

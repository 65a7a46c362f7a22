package cli

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate  SortOrder = "date"
	SortByVenue SortOrder = "venue"
	SortByTitle SortOrder = "title"
)

func parseSortOrder(s string) (SortOrder, error) {
	switch o := SortOrder(strings.ToLower(strings.TrimSpace(s))); o {
	case SortByDate, SortByVenue, SortByTitle:
		return o, nil
	}
	return "", fmt.Errorf("invalid sort order: %s (must be 'date', 'venue' or 'title')", s)
}

// sortRecords sorts records in place based on the specified sort order
func sortRecords(records []*event.Record, order SortOrder) {
	switch order {
	case SortByDate:
		sort.SliceStable(records, func(i, j int) bool {
			return compareByDate(records[i], records[j])
		})
	case SortByVenue:
		sort.SliceStable(records, func(i, j int) bool {
			if records[i].Venue != records[j].Venue {
				return records[i].Venue < records[j].Venue
			}
			// If venues are equal, sort by date
			return compareByDate(records[i], records[j])
		})
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			ti, tj := strings.ToLower(displayTitle(records[i])), strings.ToLower(displayTitle(records[j]))
			if ti != tj {
				return ti < tj
			}
			return compareByDate(records[i], records[j])
		})
	}
}

// compareByDate compares two records by date and start time.
// Returns true if record i should come before record j
func compareByDate(i, j *event.Record) bool {
	dateI := event.ParseDate(i.Date, time.UTC)
	dateJ := event.ParseDate(j.Date, time.UTC)

	if !dateI.IsZero() && !dateJ.IsZero() {
		if !dateI.Equal(dateJ) {
			return dateI.Before(dateJ)
		}
		if i.StartTime != j.StartTime {
			// Untimed records come first within a day
			return i.StartTime < j.StartTime
		}
	} else if !dateI.IsZero() {
		// Undated records go last
		return true
	} else if !dateJ.IsZero() {
		return false
	}

	if i.Venue != j.Venue {
		return i.Venue < j.Venue
	}
	return strings.ToLower(displayTitle(i)) < strings.ToLower(displayTitle(j))
}

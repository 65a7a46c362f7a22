package event

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the storage layout of Record.Date.
const DateLayout = "2006-01-02"

// ErrInvalidDate is returned when a manually entered date is neither
// YYYY-MM-DD nor the N/A sentinel.
var ErrInvalidDate = errors.New("invalid date: use YYYY-MM-DD or N/A")

// ValidateDate checks a human-entered date and returns its canonical form.
func ValidateDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, DateNA) {
		return DateNA, nil
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return t.Format(DateLayout), nil
}

// ParseDate parses Record.Date in the given location.
// Returns time.Time{} (zero value) for N/A or unparseable values.
func ParseDate(date string, loc *time.Location) time.Time {
	if date == "" || date == DateNA {
		return time.Time{}
	}
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return time.Time{}
	}
	return t
}

// IsPast checks if the record's date is before the day of now.
// Returns false if the date cannot be parsed (safer default).
func (r *Record) IsPast(now time.Time) bool {
	parsed := ParseDate(r.Date, now.Location())
	if parsed.IsZero() {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return parsed.Before(today)
}

// IsWithinDays checks if the record falls within N days from now.
// Returns true if days <= 0 (feature disabled) or the date is unparseable.
func (r *Record) IsWithinDays(now time.Time, days int) bool {
	if days <= 0 {
		return true
	}
	parsed := ParseDate(r.Date, now.Location())
	if parsed.IsZero() {
		return true
	}
	cutoff := now.AddDate(0, 0, days)
	return !r.IsPast(now) && parsed.Before(cutoff)
}

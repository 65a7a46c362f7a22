package filter

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const monthNames = `jan|january|feb|february|mar|march|apr|april|may|jun|june|jul|july|aug|august|sep|sept|september|oct|october|nov|november|dec|december`

var (
	isoRangePattern   = regexp.MustCompile(`^(\d{4}-\d{2}-\d{2})\s*(?:\.\.|~|to)\s*(\d{4}-\d{2}-\d{2})$`)
	isoMonthPattern   = regexp.MustCompile(`^(\d{4})-(\d{1,2})$`)
	sameMonthPattern  = regexp.MustCompile(`(?i)^(` + monthNames + `)\s+(\d{1,2})\s*-\s*(\d{1,2})$`)
	crossMonthPattern = regexp.MustCompile(`(?i)^(` + monthNames + `)\s+(\d{1,2})\s*-\s*(` + monthNames + `)\s+(\d{1,2})$`)
	monthPattern      = regexp.MustCompile(`(?i)^(` + monthNames + `)$`)
	cjkMonthPattern   = regexp.MustCompile(`^(\d{1,2})\s*月$`)
)

// ParseDateRange parses a date range string into inclusive start and end
// days.
//
// Supported formats:
//   - "2025-08-01..2025-08-31" (also "~" or "to")
//   - "2025-08" - entire month
//   - "Aug 1-15" or "August 1-15" - same month, different days
//   - "Aug 25 - Sep 5" - different months
//   - "August" or "8月" - entire month
//
// Yearless months are inferred from now: a month already behind now's month
// is taken as next year's. Times are in UTC; start is 00:00:00 and end is
// 23:59:59.
func ParseDateRange(input string, now time.Time) (*time.Time, *time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, nil, fmt.Errorf("date range cannot be empty")
	}

	if m := isoRangePattern.FindStringSubmatch(input); m != nil {
		from, err := time.Parse("2006-01-02", m[1])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[1])
		}
		to, err := time.Parse("2006-01-02", m[2])
		if err != nil {
			return nil, nil, fmt.Errorf("invalid date: %s", m[2])
		}
		return span(from, endOfDay(to))
	}

	if m := isoMonthPattern.FindStringSubmatch(input); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		if month < 1 || month > 12 {
			return nil, nil, fmt.Errorf("invalid month: %s", m[2])
		}
		return wholeMonth(year, time.Month(month))
	}

	if m := sameMonthPattern.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[3])
		if err != nil {
			return nil, nil, err
		}
		year := yearForMonth(month, now)
		return span(
			time.Date(year, month, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year, month, day2, 23, 59, 59, 0, time.UTC),
		)
	}

	if m := crossMonthPattern.FindStringSubmatch(input); m != nil {
		month1, month2 := parseMonth(m[1]), parseMonth(m[3])
		day1, err := parseDay(m[2])
		if err != nil {
			return nil, nil, err
		}
		day2, err := parseDay(m[4])
		if err != nil {
			return nil, nil, err
		}
		year1 := yearForMonth(month1, now)
		year2 := year1
		// "Dec 25 - Jan 5" ends in the following year
		if month2 < month1 {
			year2++
		}
		return span(
			time.Date(year1, month1, day1, 0, 0, 0, 0, time.UTC),
			time.Date(year2, month2, day2, 23, 59, 59, 0, time.UTC),
		)
	}

	if m := monthPattern.FindStringSubmatch(input); m != nil {
		month := parseMonth(m[1])
		return wholeMonth(yearForMonth(month, now), month)
	}

	if m := cjkMonthPattern.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[1])
		if n < 1 || n > 12 {
			return nil, nil, fmt.Errorf("invalid month: %s", m[1])
		}
		month := time.Month(n)
		return wholeMonth(yearForMonth(month, now), month)
	}

	return nil, nil, fmt.Errorf("invalid date range format. Use '2025-08-01..2025-08-15', '2025-08', 'Aug 1-15', 'Aug 25 - Sep 5', 'August' or '8月'")
}

func span(from, to time.Time) (*time.Time, *time.Time, error) {
	if from.After(to) {
		return nil, nil, fmt.Errorf("start date must be before end date")
	}
	return &from, &to, nil
}

func wholeMonth(year int, month time.Month) (*time.Time, *time.Time, error) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// day 0 of the next month is the last day of this one
	to := time.Date(year, month+1, 0, 23, 59, 59, 0, time.UTC)
	return &from, &to, nil
}

func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, time.UTC)
}

func parseDay(s string) (int, error) {
	d, err := strconv.Atoi(s)
	if err != nil || d < 1 || d > 31 {
		return 0, fmt.Errorf("invalid day: %s", s)
	}
	return d, nil
}

// parseMonth converts a month name to time.Month
func parseMonth(name string) time.Month {
	name = strings.ToLower(strings.TrimSpace(name))
	if len(name) >= 3 {
		name = name[:3]
	}

	months := map[string]time.Month{
		"jan": time.January,
		"feb": time.February,
		"mar": time.March,
		"apr": time.April,
		"may": time.May,
		"jun": time.June,
		"jul": time.July,
		"aug": time.August,
		"sep": time.September,
		"oct": time.October,
		"nov": time.November,
		"dec": time.December,
	}

	return months[name]
}

// yearForMonth returns now's year, or the next one when month has passed.
func yearForMonth(month time.Month, now time.Time) int {
	year := now.Year()
	if month < now.Month() {
		year++
	}
	return year
}

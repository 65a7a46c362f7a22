package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ucanscrapex/eventsync/internal/event"
)

// YearPolicy decides the year of a date written without one.
type YearPolicy string

const (
	// YearRollForward uses the reference year, or the next year when the
	// date would already be behind today.
	YearRollForward YearPolicy = "roll_forward"
	// YearCurrent always uses the reference year.
	YearCurrent YearPolicy = "current_year"
)

// ParseYearPolicy validates a configured policy name.
func ParseYearPolicy(s string) (YearPolicy, error) {
	switch p := YearPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case YearRollForward, YearCurrent:
		return p, nil
	case "":
		return YearRollForward, nil
	default:
		return "", fmt.Errorf("unknown year policy %q (want %s or %s)", s, YearRollForward, YearCurrent)
	}
}

// Accepted year range; anything outside is a parse artifact.
const (
	minYear = 2000
	maxYear = 2100
)

// Resolution is a resolved calendar date in the reference location.
type Resolution struct {
	Date     time.Time
	HasClock bool
}

// DateString formats the date as stored in event.Record.
func (r Resolution) DateString() string {
	return r.Date.Format(event.DateLayout)
}

// Clock returns the HH:MM time of day, or "" for a date-only resolution.
func (r Resolution) Clock() string {
	if !r.HasClock {
		return ""
	}
	return r.Date.Format("15:04")
}

// DateResolver extracts a calendar date from free text.
type DateResolver struct {
	Location *time.Location
	Now      func() time.Time
	Policy   YearPolicy
}

// NewDateResolver returns a resolver using the wall clock.
func NewDateResolver(loc *time.Location, policy YearPolicy) *DateResolver {
	return &DateResolver{Location: loc, Now: time.Now, Policy: policy}
}

// dateCandidate is what a matcher recognized, before year inference.
type dateCandidate struct {
	year, month, day int
	hasYear          bool
	hour, minute     int
	hasClock         bool
	weekday          time.Weekday
	isWeekday        bool
	// zone is set when the text qualified the clock with its own zone.
	zone *time.Location
}

var generalDate = Earliest(
	matchISODate,
	matchCJKDate,
	matchNumericYearDate,
	matchMonthNameDate,
	matchDayMonthNameDate,
)

var fallbackDate = Earliest(
	matchMonthDay,
	matchCJKMonthDay,
)

var weekdayDate = Earliest(
	matchEnglishWeekday,
	matchChineseWeekday,
)

// Resolve finds the date described by text.
//
// Fully written dates, month names and CJK dates are tried first and the
// earliest one in the text wins. Otherwise a bare month/day is used with the
// year taken from the policy. A weekday name alone is used only when nothing
// else matched.
func (d *DateResolver) Resolve(text string) (Resolution, bool) {
	prepared := prepare(text)

	for _, m := range []Matcher[dateCandidate]{generalDate, fallbackDate, weekdayDate} {
		if loc, ok := m(prepared); ok {
			return d.build(loc.Value)
		}
	}
	return Resolution{}, false
}

func (d *DateResolver) location() *time.Location {
	if d.Location == nil {
		return time.Local
	}
	return d.Location
}

func (d *DateResolver) today() time.Time {
	now := time.Now
	if d.Now != nil {
		now = d.Now
	}
	t := now().In(d.location())
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, d.location())
}

func (d *DateResolver) build(c dateCandidate) (Resolution, bool) {
	today := d.today()
	loc := d.location()

	if c.isWeekday {
		offset := (int(c.weekday) - int(today.Weekday()) + 7) % 7
		return Resolution{Date: today.AddDate(0, 0, offset)}, true
	}

	year := c.year
	if !c.hasYear {
		year = today.Year()
		candidate := time.Date(year, time.Month(c.month), c.day, 0, 0, 0, 0, loc)
		if d.Policy != YearCurrent && candidate.Before(today) {
			year++
		}
	}
	if year < minYear || year > maxYear {
		return Resolution{}, false
	}
	if !validDate(year, c.month, c.day) {
		return Resolution{}, false
	}

	if c.hasClock && c.zone != nil {
		// convert to the reference zone, which can move the date
		t := time.Date(year, time.Month(c.month), c.day, c.hour, c.minute, 0, 0, c.zone).In(loc)
		if t.Year() < minYear || t.Year() > maxYear {
			return Resolution{}, false
		}
		return Resolution{Date: t, HasClock: t.Hour() != 0 || t.Minute() != 0}, true
	}

	hasClock := c.hasClock && (c.hour != 0 || c.minute != 0)
	date := time.Date(year, time.Month(c.month), c.day, 0, 0, 0, 0, loc)
	if hasClock {
		date = time.Date(year, time.Month(c.month), c.day, c.hour, c.minute, 0, 0, loc)
	}
	return Resolution{Date: date, HasClock: hasClock}, true
}

func validDate(year, month, day int) bool {
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return false
	}
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return t.Month() == time.Month(month) && t.Day() == day
}

// plausibleMonthDay rejects impossible month/day pairs before a year is known.
// February 29 is allowed and re-checked once the year is chosen.
func plausibleMonthDay(month, day int) bool {
	return validDate(2000, month, day)
}

var (
	isoDatePattern        = regexp.MustCompile(`(\d{4})[-/.](\d{1,2})[-/.](\d{1,2})(?:([ T]+)(\d{1,2}):(\d{2})(?::\d{2}(?:\.\d+)?)?(?:\s*(Z|UTC|GMT|[+-]\d{2}:?\d{2})\b)?)?`)
	cjkDatePattern        = regexp.MustCompile(`(\d{4})\s*年\s*(\d{1,2})\s*月\s*(\d{1,2})\s*[日號号]?`)
	numericYearPattern    = regexp.MustCompile(`(\d{1,2})([/.])(\d{1,2})([/.])(\d{4}|\d{2})`)
	monthDayPattern       = regexp.MustCompile(`(\d{1,2})\s*[/-]\s*(\d{1,2})`)
	cjkMonthDayPattern    = regexp.MustCompile(`(\d{1,2})\s*月\s*(\d{1,2})\s*[日號号]?`)
	englishWeekdayPattern = regexp.MustCompile(`(?i:\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday)\b)|\b(Mon|Tue|Tues|Wed|Thu|Thur|Thurs|Fri|Sat|Sun)\b\.?`)
	chineseWeekdayPattern = regexp.MustCompile(`(?:星期|週|周|禮拜|礼拜)([一二三四五六日天])`)
)

// May is also a common verb, so it only counts as a month when capitalized.
const monthNames = `(?i:jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)|May|MAY`

var (
	monthNamePattern    = regexp.MustCompile(`\b(` + monthNames + `)\.?\s+(\d{1,2})(?i:st|nd|rd|th)?\b(?:,?\s+(\d{4})\b)?`)
	dayMonthNamePattern = regexp.MustCompile(`\b(\d{1,2})(?i:st|nd|rd|th)?\s+(` + monthNames + `)\b\.?(?:,?\s+(\d{4})\b)?`)
)

var monthByPrefix = map[string]int{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "may": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "oct": 10, "nov": 11, "dec": 12,
}

var weekdayByName = map[string]time.Weekday{
	"sun": time.Sunday, "mon": time.Monday, "tue": time.Tuesday, "wed": time.Wednesday,
	"thu": time.Thursday, "fri": time.Friday, "sat": time.Saturday,
}

var chineseWeekdays = map[string]time.Weekday{
	"日": time.Sunday, "天": time.Sunday, "一": time.Monday, "二": time.Tuesday,
	"三": time.Wednesday, "四": time.Thursday, "五": time.Friday, "六": time.Saturday,
}

func matchISODate(text string) (Located[dateCandidate], bool) {
	for _, m := range isoDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if !digitBounded(text, m[0], m[1]) {
			continue
		}
		c := dateCandidate{
			year:    atoi(text, m, 1),
			month:   atoi(text, m, 2),
			day:     atoi(text, m, 3),
			hasYear: true,
		}
		end := m[1]
		if m[10] >= 0 {
			c.hour, c.minute = atoi(text, m, 5), atoi(text, m, 6)
			c.hasClock = c.hour < 24 && c.minute < 60
		}
		if m[14] >= 0 {
			// a numeric offset only follows a T-separated timestamp; after a
			// space it is the far end of a time range
			zone := text[m[14]:m[15]]
			c.zone = parseZone(zone)
			isOffset := zone[0] == '+' || zone[0] == '-'
			if c.zone == nil || isOffset && !strings.Contains(text[m[8]:m[9]], "T") {
				c.zone, end = nil, m[14]
			}
		}
		if !validDate(c.year, c.month, c.day) {
			continue
		}
		return Located[dateCandidate]{Value: c, Start: m[0], End: end}, true
	}
	return Located[dateCandidate]{}, false
}

// parseZone reads a Z, UTC, GMT or ±HH[:]MM suffix. It returns nil for an
// offset no zone uses.
func parseZone(s string) *time.Location {
	switch s {
	case "Z", "UTC", "GMT":
		return time.UTC
	}
	digits := strings.ReplaceAll(s[1:], ":", "")
	h, _ := strconv.Atoi(digits[:2])
	mins, _ := strconv.Atoi(digits[2:])
	if h > 14 || mins > 59 {
		return nil
	}
	offset := h*3600 + mins*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(s, offset)
}

func matchCJKDate(text string) (Located[dateCandidate], bool) {
	for _, m := range cjkDatePattern.FindAllStringSubmatchIndex(text, -1) {
		if !digitBounded(text, m[0], m[0]) {
			continue
		}
		c := dateCandidate{year: atoi(text, m, 1), month: atoi(text, m, 2), day: atoi(text, m, 3), hasYear: true}
		if !validDate(c.year, c.month, c.day) {
			continue
		}
		return Located[dateCandidate]{Value: c, Start: m[0], End: m[1]}, true
	}
	return Located[dateCandidate]{}, false
}

// matchNumericYearDate handles month-first dates with a trailing year:
// 8/15/2025, 8/15/25 and 8.15.25.
func matchNumericYearDate(text string) (Located[dateCandidate], bool) {
	for _, m := range numericYearPattern.FindAllStringSubmatchIndex(text, -1) {
		if !digitBounded(text, m[0], m[1]) || text[m[4]:m[5]] != text[m[8]:m[9]] {
			continue
		}
		year := atoi(text, m, 5)
		if m[11]-m[10] == 2 {
			year += 2000
		}
		c := dateCandidate{year: year, month: atoi(text, m, 1), day: atoi(text, m, 3), hasYear: true}
		if !validDate(c.year, c.month, c.day) {
			continue
		}
		return Located[dateCandidate]{Value: c, Start: m[0], End: m[1]}, true
	}
	return Located[dateCandidate]{}, false
}

func matchMonthNameDate(text string) (Located[dateCandidate], bool) {
	return matchNamedMonth(text, monthNamePattern, 1, 2)
}

func matchDayMonthNameDate(text string) (Located[dateCandidate], bool) {
	return matchNamedMonth(text, dayMonthNamePattern, 2, 1)
}

func matchNamedMonth(text string, re *regexp.Regexp, monthGroup, dayGroup int) (Located[dateCandidate], bool) {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		name := strings.ToLower(text[m[2*monthGroup]:m[2*monthGroup+1]])
		c := dateCandidate{month: monthByPrefix[name[:3]], day: atoi(text, m, dayGroup)}
		if m[6] >= 0 {
			c.year, c.hasYear = atoi(text, m, 3), true
		}
		if !plausibleMonthDay(c.month, c.day) {
			continue
		}
		return Located[dateCandidate]{Value: c, Start: m[0], End: m[1]}, true
	}
	return Located[dateCandidate]{}, false
}

// matchMonthDay handles M/D and MM-DD without a year. Candidates that are
// really part of a clock time or an hour range ("19:00-22:00", "7-10pm",
// "7-10點") are skipped.
func matchMonthDay(text string) (Located[dateCandidate], bool) {
	return matchYearlessMonthDay(text, monthDayPattern)
}

func matchCJKMonthDay(text string) (Located[dateCandidate], bool) {
	return matchYearlessMonthDay(text, cjkMonthDayPattern)
}

func matchYearlessMonthDay(text string, re *regexp.Regexp) (Located[dateCandidate], bool) {
	for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
		if embeddedInClock(text, m[0], m[1]) {
			continue
		}
		c := dateCandidate{month: atoi(text, m, 1), day: atoi(text, m, 2)}
		if !plausibleMonthDay(c.month, c.day) {
			continue
		}
		return Located[dateCandidate]{Value: c, Start: m[0], End: m[1]}, true
	}
	return Located[dateCandidate]{}, false
}

func matchEnglishWeekday(text string) (Located[dateCandidate], bool) {
	m := englishWeekdayPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Located[dateCandidate]{}, false
	}
	name := ""
	if m[2] >= 0 {
		name = text[m[2]:m[3]]
	} else {
		name = text[m[4]:m[5]]
	}
	wd := weekdayByName[strings.ToLower(name[:3])]
	return Located[dateCandidate]{Value: dateCandidate{weekday: wd, isWeekday: true}, Start: m[0], End: m[1]}, true
}

func matchChineseWeekday(text string) (Located[dateCandidate], bool) {
	m := chineseWeekdayPattern.FindStringSubmatchIndex(text)
	if m == nil {
		return Located[dateCandidate]{}, false
	}
	wd := chineseWeekdays[text[m[2]:m[3]]]
	return Located[dateCandidate]{Value: dateCandidate{weekday: wd, isWeekday: true}, Start: m[0], End: m[1]}, true
}

// digitBounded reports whether the span [start, end) is not glued to other
// digits on either side.
func digitBounded(text string, start, end int) bool {
	if start > 0 && isDigit(text[start-1]) {
		return false
	}
	if end > start && end < len(text) && isDigit(text[end]) {
		return false
	}
	return true
}

func embeddedInClock(text string, start, end int) bool {
	if start > 0 {
		if b := text[start-1]; isDigit(b) || b == ':' || b == '/' || b == '.' {
			return true
		}
	}
	if end < len(text) {
		if b := text[end]; isDigit(b) || b == ':' {
			return true
		}
	}
	lower := strings.ToLower(strings.TrimLeft(text[end:], " "))
	for _, suffix := range []string{"am", "pm", "點", "点", "時", "时"} {
		if strings.HasPrefix(lower, suffix) {
			return true
		}
	}
	return false
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// atoi reads capture group g of a submatch index slice.
func atoi(text string, m []int, g int) int {
	if m[2*g] < 0 {
		return 0
	}
	n, _ := strconv.Atoi(text[m[2*g]:m[2*g+1]])
	return n
}

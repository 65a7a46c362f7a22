package extract

import (
	"fmt"
	"regexp"
	"strings"
)

// TimeRange is a start/end pair of zero-padded HH:MM clock times.
type TimeRange struct {
	Start string
	End   string
}

// dash matches the separators seen between the two ends of a range.
const dash = `\s*[-–—~～－〜]\s*`

const hourSuffix = `[點点时時]`

// dayPeriods maps a Chinese day-period prefix to whether hours below 12 belong
// to the afternoon or evening.
var dayPeriods = map[string]bool{
	"早上": false,
	"上午": false,
	"中午": false,
	"下午": true,
	"傍晚": true,
	"晚上": true,
}

const dayPeriodToken = `早上|上午|中午|下午|傍晚|晚上`

var (
	clockRangePattern     = regexp.MustCompile(`(\d{1,2})[:：](\d{2})` + dash + `(\d{1,2})[:：](\d{2})`)
	hourRangePattern      = regexp.MustCompile(`(` + hourToken + `)\s*` + hourSuffix + dash + `(` + hourToken + `)\s*` + hourSuffix)
	meridiemRangePattern  = regexp.MustCompile(`(?i)(\d{1,2})(?::(\d{2}))?\s*(am|pm)?` + dash + `(\d{1,2})(?::(\d{2}))?\s*(am|pm)?\b`)
	periodRangePattern    = regexp.MustCompile(`(` + dayPeriodToken + `)\s*(` + hourToken + `)\s*` + hourSuffix + `?` + dash + `(` + hourToken + `)\s*` + hourSuffix)
	trailingPeriodPattern = regexp.MustCompile(`(?:` + dayPeriodToken + `)\s*$`)
)

var timeRange = FirstMatch(
	matchClockRange,
	matchHourRange,
	matchMeridiemRange,
	matchPeriodRange,
)

// ResolveTimeRange extracts a start/end time range from text. Formats are
// tried in a fixed priority order and the first one that matches is used.
func ResolveTimeRange(text string) (TimeRange, bool) {
	loc, ok := timeRange(prepare(text))
	if !ok {
		return TimeRange{}, false
	}
	return loc.Value, true
}

// matchClockRange handles "19:00-22:00" and "7:30～9:00".
func matchClockRange(text string) (Located[TimeRange], bool) {
	for _, m := range clockRangePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && isDigit(text[m[0]-1]) {
			continue
		}
		start, ok1 := clock(atoi(text, m, 1), atoi(text, m, 2))
		end, ok2 := clock(atoi(text, m, 3), atoi(text, m, 4))
		if !ok1 || !ok2 {
			continue
		}
		return Located[TimeRange]{Value: TimeRange{start, end}, Start: m[0], End: m[1]}, true
	}
	return Located[TimeRange]{}, false
}

// matchHourRange handles whole-hour ranges such as "19點-22點" or "七點～十點".
// A range directly preceded by a day-period word is left to matchPeriodRange.
func matchHourRange(text string) (Located[TimeRange], bool) {
	for _, m := range hourRangePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && isDigit(text[m[0]-1]) {
			continue
		}
		if trailingPeriodPattern.MatchString(text[:m[0]]) {
			continue
		}
		h1, ok1 := parseHour(text[m[2]:m[3]])
		h2, ok2 := parseHour(text[m[4]:m[5]])
		if !ok1 || !ok2 {
			continue
		}
		start, _ := clock(h1, 0)
		end, _ := clock(h2, 0)
		return Located[TimeRange]{Value: TimeRange{start, end}, Start: m[0], End: m[1]}, true
	}
	return Located[TimeRange]{}, false
}

// matchMeridiemRange handles "7pm-10pm", "7-10pm", "7:30pm~9" and "11-2pm".
// At least one side must carry am/pm; the other side inherits it unless that
// would put the range backwards.
func matchMeridiemRange(text string) (Located[TimeRange], bool) {
	for _, m := range meridiemRangePattern.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > 0 && (isDigit(text[m[0]-1]) || text[m[0]-1] == ':') {
			continue
		}
		startMer, endMer := group(text, m, 3), group(text, m, 6)
		if startMer == "" && endMer == "" {
			continue
		}
		h1, min1 := atoi(text, m, 1), atoi(text, m, 2)
		h2, min2 := atoi(text, m, 4), atoi(text, m, 5)
		if h1 < 1 || h1 > 12 || h2 < 1 || h2 > 12 {
			continue
		}

		switch {
		case startMer == "":
			startMer = endMer
			if h1%12 > h2%12 {
				startMer = flipMeridiem(endMer)
			}
		case endMer == "":
			endMer = startMer
			if h2%12 < h1%12 {
				endMer = flipMeridiem(startMer)
			}
		}

		start, ok1 := clock(to24Hour(h1, startMer), min1)
		end, ok2 := clock(to24Hour(h2, endMer), min2)
		if !ok1 || !ok2 {
			continue
		}
		return Located[TimeRange]{Value: TimeRange{start, end}, Start: m[0], End: m[1]}, true
	}
	return Located[TimeRange]{}, false
}

// matchPeriodRange handles "晚上七點-十點" and "下午2-5點".
func matchPeriodRange(text string) (Located[TimeRange], bool) {
	for _, m := range periodRangePattern.FindAllStringSubmatchIndex(text, -1) {
		afternoon := dayPeriods[text[m[2]:m[3]]]
		h1, ok1 := parseHour(text[m[4]:m[5]])
		h2, ok2 := parseHour(text[m[6]:m[7]])
		if !ok1 || !ok2 {
			continue
		}
		if afternoon {
			h1, h2 = shiftAfternoon(h1), shiftAfternoon(h2)
		}
		start, _ := clock(h1, 0)
		end, _ := clock(h2, 0)
		return Located[TimeRange]{Value: TimeRange{start, end}, Start: m[0], End: m[1]}, true
	}
	return Located[TimeRange]{}, false
}

func shiftAfternoon(h int) int {
	if h < 12 {
		return h + 12
	}
	return h
}

func to24Hour(h int, meridiem string) int {
	switch strings.ToLower(meridiem) {
	case "pm":
		if h != 12 {
			return h + 12
		}
	case "am":
		if h == 12 {
			return 0
		}
	}
	return h
}

func flipMeridiem(m string) string {
	if strings.EqualFold(m, "pm") {
		return "am"
	}
	return "pm"
}

func clock(h, m int) (string, bool) {
	if h < 0 || h > 24 || m < 0 || m > 59 || (h == 24 && m != 0) {
		return "", false
	}
	return fmt.Sprintf("%02d:%02d", h, m), true
}

func group(text string, m []int, g int) string {
	if m[2*g] < 0 {
		return ""
	}
	return text[m[2*g]:m[2*g+1]]
}

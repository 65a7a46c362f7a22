package extract

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// hourToken matches an hour written with Arabic digits or Chinese numerals.
const hourToken = `\d{1,2}|[零〇一二兩两三四五六七八九十]{1,3}`

var chineseDigits = map[rune]int{
	'零': 0, '〇': 0,
	'一': 1, '二': 2, '兩': 2, '两': 2, '三': 3, '四': 4,
	'五': 5, '六': 6, '七': 7, '八': 8, '九': 9,
}

// parseHour converts "7", "19", "七", "十", "十一" or "二十三" to an hour of day.
func parseHour(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, n >= 0 && n <= 24
	}

	n, ok := parseChineseNumber(s)
	return n, ok && n <= 24
}

func parseChineseNumber(s string) (int, bool) {
	runes := []rune(s)
	tens := strings.IndexRune(s, '十')
	if tens < 0 {
		if len(runes) != 1 {
			return 0, false
		}
		d, ok := chineseDigits[runes[0]]
		return d, ok
	}

	parts := strings.SplitN(s, "十", 2)
	value := 10
	if parts[0] != "" {
		r := []rune(parts[0])
		if len(r) != 1 {
			return 0, false
		}
		d, ok := chineseDigits[r[0]]
		if !ok || d == 0 {
			return 0, false
		}
		value = d * 10
	}
	if parts[1] != "" {
		r := []rune(parts[1])
		if len(r) != 1 {
			return 0, false
		}
		d, ok := chineseDigits[r[0]]
		if !ok {
			return 0, false
		}
		value += d
	}
	return value, true
}

// prepare removes links and folds full-width forms so the matchers only deal
// with ASCII digits and punctuation.
func prepare(text string) string {
	return width.Fold.String(StripLinks(text))
}

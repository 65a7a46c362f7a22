package extract

import (
	"regexp"
	"strings"
)

// A link ends at whitespace, quotes, angle brackets, or CJK/full-width text.
const linkBody = "[^\\s<>\"'{}|\\\\^`\\x{3000}-\\x{9FFF}\\x{FF00}-\\x{FFEF}]+"

var (
	httpLinkPattern = regexp.MustCompile(`https?://` + linkBody)
	wwwLinkPattern  = regexp.MustCompile(`www\.` + linkBody)
)

// FirstLink returns the first http(s) URL in text, else the first www. token,
// else "".
func FirstLink(text string) string {
	if m := httpLinkPattern.FindString(text); m != "" {
		return trimLink(m)
	}
	if m := wwwLinkPattern.FindString(text); m != "" {
		return trimLink(m)
	}
	return ""
}

// StripLinks blanks out every URL so digits inside paths cannot be read as
// dates or times.
func StripLinks(text string) string {
	text = httpLinkPattern.ReplaceAllString(text, " ")
	return wwwLinkPattern.ReplaceAllString(text, " ")
}

func trimLink(s string) string {
	return strings.TrimRight(s, ".,;:!?")
}

package extract

import (
	"regexp"
	"strings"
)

// separatorMarker is the lone middle dot rendered between author handle and
// post age in a feed item header.
const separatorMarker = "·"

// defaultHeaderLines is where content is assumed to start when no separator
// marker is present.
const defaultHeaderLines = 4

// junkPhrases are trailing UI labels that never belong to post content.
var junkPhrases = phraseSet(
	"Show this thread", "Show more", "Translate post", "View",
	"The author labeled this post as containing sensitive content.",
	"Content warning: Sensitive content", "Adult content",
	"The following media includes potentially sensitive content.",
	"X labeled this post as containing Adult Content.",
	"This Post is from a suspended account. Learn more",
	"Change settings", "Show", "More",
	"顯示", "顯示更多", "內容警告：成人內容",
	"以下的媒體可能包含敏感內容。變更設定", "查看",
	"X 已將此貼文標示為包含成人內容。",
	"此貼文來自遭停權的帳戶。了解更多",
	"…",
)

// statPattern matches bare interaction counters such as "1,234", "1.5K" or "1.8萬".
var statPattern = regexp.MustCompile(`^[,\d.]+[KMB萬千]?$`)

// Normalize strips the header (author, handle, age) and trailing interface
// chrome (button labels, counters) from the rendered lines of one feed item.
//
// When no reliable content boundary can be found the original text is
// returned unchanged.
func Normalize(lines []string) string {
	start := contentStart(lines)
	end := contentEnd(lines)

	if start >= end {
		return strings.Join(lines, "\n")
	}
	return strings.TrimSpace(strings.Join(lines[start:end], "\n"))
}

// SplitLines splits a rendered text block into lines.
func SplitLines(text string) []string {
	return strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
}

func contentStart(lines []string) int {
	for i, line := range lines {
		if strings.TrimSpace(line) == separatorMarker && i > 0 && i+2 < len(lines) {
			return i + 2
		}
	}
	if len(lines) > defaultHeaderLines {
		return defaultHeaderLines
	}
	return 0
}

func contentEnd(lines []string) int {
	end := len(lines)
	for i := len(lines) - 1; i >= 0; i-- {
		if !isChrome(strings.TrimSpace(lines[i])) {
			break
		}
		end = i
	}
	return end
}

func isChrome(line string) bool {
	if line == "" {
		return true
	}
	if _, ok := junkPhrases[line]; ok {
		return true
	}
	return statPattern.MatchString(line)
}

func phraseSet(phrases ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(phrases))
	for _, p := range phrases {
		set[p] = struct{}{}
	}
	return set
}

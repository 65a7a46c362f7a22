package event

import "strings"

// Category codes used by the public schedule page.
const (
	CategoryBondage  = "bd"
	CategorySpanking = "sp"
	CategorySpecial  = "ss"
	CategorySocial   = "so"
	CategoryWorkshop = "wk"
)

// Categorize derives a category code from an event title or post text.
// Rules are checked in order; the first hit wins and social is the default.
func Categorize(title string) string {
	lower := strings.ToLower(title)

	switch {
	case strings.Contains(lower, "bd") || strings.Contains(title, "綁縛"):
		return CategoryBondage
	case strings.Contains(lower, "sp") || strings.Contains(title, "拍打"):
		return CategorySpanking
	case strings.Contains(lower, "v.i.p") || strings.Contains(lower, "vip") || strings.Contains(title, "別館"):
		return CategorySpecial
	case strings.Contains(title, "放飛") || strings.Contains(title, "聊天") ||
		strings.Contains(lower, "ds") || strings.Contains(lower, "sm"):
		return CategorySocial
	case strings.Contains(title, "工作坊") || strings.Contains(title, "體驗"):
		return CategoryWorkshop
	default:
		return CategorySocial
	}
}

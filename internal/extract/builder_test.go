package extract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ucanscrapex/eventsync/internal/event"
)

func newTestBuilder(category string) *Builder {
	return NewBuilder("Rope Studio", category, resolverAt(2025, time.January, 1, YearRollForward))
}

func TestBuilder_FromPost(t *testing.T) {
	b := newTestBuilder("")

	r, ok := b.FromPost(Post{
		Lines:     []string{"8/15 晚上七點-十點 綁縛交流 https://x.example/e1"},
		Cleaned:   true,
		Permalink: "https://x.com/rope/status/1",
	})
	require.True(t, ok)

	assert.Equal(t, "2025-08-15", r.Date)
	assert.Equal(t, "19:00", r.StartTime)
	assert.Equal(t, "22:00", r.EndTime)
	assert.Equal(t, "https://x.example/e1", r.Link)
	assert.Equal(t, "Rope Studio", r.Venue)
	assert.Equal(t, event.CategoryBondage, r.Category)
	assert.Equal(t, "", r.Title)
	assert.False(t, r.Confirmed)
	assert.False(t, r.Deleted)
}

func TestBuilder_FromPost_NormalizesRenderedLines(t *testing.T) {
	b := newTestBuilder("")

	r, ok := b.FromPost(Post{
		Lines:     []string{"Rope Studio", "@ropestudio", "·", "2h", "8/20 social night", "Show more", "12"},
		Permalink: "https://x.com/rope/status/2",
	})
	require.True(t, ok)

	assert.Equal(t, "8/20 social night", r.Text)
	assert.Equal(t, "https://x.com/rope/status/2", r.Link, "permalink used when text has no link")
}

func TestBuilder_FromPost_ClockFromDate(t *testing.T) {
	b := newTestBuilder("")

	r, ok := b.FromPost(Post{Lines: []string{"2025-09-03 19:30 開始"}, Cleaned: true})
	require.True(t, ok)

	assert.Equal(t, "19:30", r.StartTime)
	assert.Equal(t, "", r.EndTime)
}

func TestBuilder_FromPost_Dropped(t *testing.T) {
	b := newTestBuilder("")

	for name, text := range map[string]string{
		"repost":  "RT @other: 8/15 party",
		"no date": "come hang out sometime",
		"empty":   "",
	} {
		t.Run(name, func(t *testing.T) {
			_, ok := b.FromPost(Post{Lines: []string{text}, Cleaned: true})
			assert.False(t, ok)
		})
	}
}

func TestBuilder_FromPost_RTPrefixedWordIsNotRepost(t *testing.T) {
	b := newTestBuilder("")

	_, ok := b.FromPost(Post{Lines: []string{"RTX night 8/15"}, Cleaned: true})
	assert.True(t, ok)
}

func TestBuilder_CategoryOverride(t *testing.T) {
	b := newTestBuilder(event.CategorySpecial)

	r, ok := b.FromPost(Post{Lines: []string{"8/15 綁縛交流"}, Cleaned: true})
	require.True(t, ok)
	assert.Equal(t, event.CategorySpecial, r.Category)
}

func TestBuilder_FromCell(t *testing.T) {
	b := newTestBuilder("")

	r, ok := b.FromCell(Cell{
		Date:     "2025-10-03",
		Title:    " 繩藝工作坊 ",
		TimeText: "19:00 – 22:00",
		Link:     "https://sb.example/e/1",
	})
	require.True(t, ok)

	assert.Equal(t, "2025-10-03", r.Date)
	assert.Equal(t, "繩藝工作坊", r.Title)
	assert.Equal(t, "Rope Studio - 繩藝工作坊 19:00~22:00", r.Text)
	assert.Equal(t, "19:00", r.StartTime)
	assert.Equal(t, "22:00", r.EndTime)
	assert.Equal(t, event.CategoryWorkshop, r.Category)
	assert.True(t, r.Confirmed)
}

func TestBuilder_FromCell_WithoutTime(t *testing.T) {
	b := newTestBuilder("")

	r, ok := b.FromCell(Cell{Date: "2025-10-04", Title: "放飛之夜"})
	require.True(t, ok)
	assert.Equal(t, "Rope Studio - 放飛之夜", r.Text)
	assert.Empty(t, r.StartTime)
}

func TestBuilder_FromCell_Dropped(t *testing.T) {
	b := newTestBuilder("")

	_, ok := b.FromCell(Cell{Date: "2025-10-04", Title: "  "})
	assert.False(t, ok, "empty title")

	_, ok = b.FromCell(Cell{Date: "2025-13-04", Title: "Party"})
	assert.False(t, ok, "invalid date")
}

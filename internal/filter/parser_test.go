package filter

import (
	"testing"
	"time"
)

func TestParseDateRange(t *testing.T) {
	now := time.Date(2025, time.July, 10, 12, 0, 0, 0, time.UTC)
	d := func(y int, m time.Month, day int) string {
		return time.Date(y, m, day, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
	}

	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wantFrom string
		wantTo   string
	}{
		{"iso range", "2025-08-01..2025-08-15", false, d(2025, 8, 1), d(2025, 8, 15)},
		{"iso range tilde", "2025-08-01 ~ 2025-09-01", false, d(2025, 8, 1), d(2025, 9, 1)},
		{"iso range to", "2025-08-01 to 2025-08-02", false, d(2025, 8, 1), d(2025, 8, 2)},
		{"iso month", "2025-02", false, d(2025, 2, 1), d(2025, 2, 28)},
		{"leap february", "2028-02", false, d(2028, 2, 1), d(2028, 2, 29)},
		{"Aug 1-15", "Aug 1-15", false, d(2025, 8, 1), d(2025, 8, 15)},
		{"August 1-15", "August 1-15", false, d(2025, 8, 1), d(2025, 8, 15)},
		{"cross month", "Aug 25 - Sep 5", false, d(2025, 8, 25), d(2025, 9, 5)},
		{"cross year", "Dec 25 - Jan 5", false, d(2025, 12, 25), d(2026, 1, 5)},
		{"past month rolls forward", "March", false, d(2026, 3, 1), d(2026, 3, 31)},
		{"current month", "jul", false, d(2025, 7, 1), d(2025, 7, 31)},
		{"cjk month", "9月", false, d(2025, 9, 1), d(2025, 9, 30)},
		{"cjk past month", "1 月", false, d(2026, 1, 1), d(2026, 1, 31)},
		{"empty string", "", true, "", ""},
		{"invalid format", "not a date", true, "", ""},
		{"invalid day", "Mar 50-60", true, "", ""},
		{"invalid month name", "Xxx 1-15", true, "", ""},
		{"backwards", "Aug 15-1", true, "", ""},
		{"backwards iso", "2025-08-15..2025-08-01", true, "", ""},
		{"bad iso date", "2025-02-30..2025-03-01", true, "", ""},
		{"bad iso month", "2025-13", true, "", ""},
		{"bad cjk month", "13月", true, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := ParseDateRange(tt.input, now)

			if tt.wantErr {
				if err == nil {
					t.Errorf("ParseDateRange() expected error, got %v..%v", from, to)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDateRange() unexpected error: %v", err)
			}

			if got := from.Format("2006-01-02"); got != tt.wantFrom {
				t.Errorf("from = %s, want %s", got, tt.wantFrom)
			}
			if got := to.Format("2006-01-02"); got != tt.wantTo {
				t.Errorf("to = %s, want %s", got, tt.wantTo)
			}
			if from.Hour() != 0 || to.Hour() != 23 || to.Minute() != 59 {
				t.Errorf("bounds not whole days: %v .. %v", from, to)
			}
		})
	}
}

func TestParseMonth(t *testing.T) {
	tests := []struct {
		input string
		want  time.Month
	}{
		{"jan", time.January},
		{"January", time.January},
		{"JANUARY", time.January},
		{"feb", time.February},
		{"may", time.May},
		{"sept", time.September},
		{"dec", time.December},
		{"invalid", time.Month(0)},
		{"", time.Month(0)},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := parseMonth(tt.input); got != tt.want {
				t.Errorf("parseMonth(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestYearForMonth(t *testing.T) {
	now := time.Date(2025, time.July, 31, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		month time.Month
		want  int
	}{
		{time.July, 2025},
		{time.August, 2025},
		{time.June, 2026},
		{time.January, 2026},
	}

	for _, tt := range tests {
		t.Run(tt.month.String(), func(t *testing.T) {
			if got := yearForMonth(tt.month, now); got != tt.want {
				t.Errorf("yearForMonth(%v) = %d, want %d", tt.month, got, tt.want)
			}
		})
	}
}

package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const calendarPage = `<!DOCTYPE html>
<html>
<body>
  <h3 class="ics-calendar-label">10 月 2025</h3>
  <table>
    <tr>
      <td class="day d_3 has_events">
        <ul>
          <li class="event">
            <span class="time">20:00 - 23:00</span>
            <span class="title">Night Market Jam</span>
            <a href="/events/jam">more</a>
          </li>
          <li class="event">
            <span class="time">all day</span>
            <span class="title">  Poster Show </span>
          </li>
        </ul>
      </td>
      <td class="day d_4"></td>
      <td class="day d_31 has_events">
        <ul><li class="event"><span class="title">Halloween</span><a href="https://tickets.example.com/h">t</a></li></ul>
      </td>
    </tr>
  </table>
</body>
</html>`

func TestParseCalendar(t *testing.T) {
	now := time.Date(2025, time.September, 20, 0, 0, 0, 0, time.UTC)
	cells, err := ParseCalendar(strings.NewReader(calendarPage), "https://venue.example.com/calendar/", now)
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}

	if len(cells) != 3 {
		t.Fatalf("ParseCalendar() returned %d cells, want 3", len(cells))
	}

	first := cells[0]
	if first.Date != "2025-10-03" {
		t.Errorf("cells[0].Date = %q, want %q", first.Date, "2025-10-03")
	}
	if first.Title != "Night Market Jam" {
		t.Errorf("cells[0].Title = %q", first.Title)
	}
	if first.TimeText != "20:00 - 23:00" {
		t.Errorf("cells[0].TimeText = %q", first.TimeText)
	}
	if first.Link != "https://venue.example.com/events/jam" {
		t.Errorf("cells[0].Link = %q, want resolved absolute link", first.Link)
	}

	if cells[1].Title != "Poster Show" || cells[1].Link != "" {
		t.Errorf("cells[1] = %+v", cells[1])
	}
	if cells[2].Date != "2025-10-31" || cells[2].Link != "https://tickets.example.com/h" {
		t.Errorf("cells[2] = %+v", cells[2])
	}
}

func TestDisplayedMonth(t *testing.T) {
	now := time.Date(2025, time.November, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		html      string
		wantYear  int
		wantMonth time.Month
	}{
		{
			name:      "label",
			html:      `<h3 class="ics-calendar-label">2月2026</h3>`,
			wantYear:  2026,
			wantMonth: time.February,
		},
		{
			name:      "phone month behind today rolls to next year",
			html:      `<span class="phone_only"><span data-date-format="n">1</span></span>`,
			wantYear:  2026,
			wantMonth: time.January,
		},
		{
			name:      "phone month ahead of today",
			html:      `<span class="phone_only"><span data-date-format="n">12</span></span>`,
			wantYear:  2025,
			wantMonth: time.December,
		},
		{
			name:      "nothing stated",
			html:      `<p>calendar</p>`,
			wantYear:  2025,
			wantMonth: time.November,
		},
		{
			name:      "invalid label month falls through",
			html:      `<h3 class="ics-calendar-label">13 月 2025</h3>`,
			wantYear:  2025,
			wantMonth: time.November,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cells, err := ParseCalendar(strings.NewReader(tt.html+
				`<table><tr><td class="d_1 has_events"><ul><li class="event"><span class="title">x</span></li></ul></td></tr></table>`),
				"", now)
			if err != nil {
				t.Fatalf("ParseCalendar() error = %v", err)
			}
			if len(cells) != 1 {
				t.Fatalf("got %d cells, want 1", len(cells))
			}
			want := time.Date(tt.wantYear, tt.wantMonth, 1, 0, 0, 0, 0, time.UTC).Format("2006-01-02")
			if cells[0].Date != want {
				t.Errorf("Date = %q, want %q", cells[0].Date, want)
			}
		})
	}
}

func TestParseCalendar_SkipsDaysOutsideMonth(t *testing.T) {
	html := `<h3 class="ics-calendar-label">2 月 2025</h3>
<table><tr>
<td class="d_30 has_events"><ul><li class="event"><span class="title">ghost</span></li></ul></td>
<td class="has_events"><ul><li class="event"><span class="title">no day</span></li></ul></td>
</tr></table>`
	cells, err := ParseCalendar(strings.NewReader(html), "", time.Now())
	if err != nil {
		t.Fatalf("ParseCalendar() error = %v", err)
	}
	if len(cells) != 0 {
		t.Errorf("got %d cells, want 0: %+v", len(cells), cells)
	}
}

func TestFetchCalendar(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("User-Agent = %q, want %q", ua, UserAgent)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(calendarPage))
	}))
	defer server.Close()

	s := New(NewFetcher(WithRetryInterval(time.Millisecond)), time.UTC)
	cells, err := s.FetchCalendar(context.Background(), server.URL+"/calendar/")
	if err != nil {
		t.Fatalf("FetchCalendar() error = %v", err)
	}
	if len(cells) != 3 {
		t.Fatalf("FetchCalendar() returned %d cells, want 3", len(cells))
	}
	if want := server.URL + "/events/jam"; cells[0].Link != want {
		t.Errorf("cells[0].Link = %q, want %q", cells[0].Link, want)
	}
}

func TestFetch_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`<html><body><p class="ok">fine</p></body></html>`))
	}))
	defer server.Close()

	f := NewFetcher(WithRetries(3), WithRetryInterval(time.Millisecond))
	doc, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if got := doc.Find("p.ok").Text(); got != "fine" {
		t.Errorf("body = %q, want %q", got, "fine")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetch_GivesUpAfterRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	f := NewFetcher(WithRetries(2), WithRetryInterval(time.Millisecond))
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Fatal("Fetch() expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetch_ClientErrorIsPermanent(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(WithRetries(3), WithRetryInterval(time.Millisecond))
	_, err := f.Fetch(context.Background(), server.URL)
	if err == nil {
		t.Fatal("Fetch() expected error for 404")
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("error = %v, want status code in message", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("server called %d times, want 1", got)
	}
}

func TestFetch_CustomUserAgent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ua := r.Header.Get("User-Agent"); ua != "custom/2.0" {
			t.Errorf("User-Agent = %q", ua)
		}
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	f := NewFetcher(WithUserAgent("custom/2.0"))
	if _, err := f.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html></html>`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(WithRetryInterval(time.Millisecond))
	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Fatal("Fetch() expected error with cancelled context")
	}
}

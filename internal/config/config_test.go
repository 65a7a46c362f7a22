package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeYAML(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, "eventsync.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write yaml: %v", err)
	}
	return path
}

const validYAML = `
data_dir: "/var/lib/eventsync"
location: "Asia/Taipei"

log:
  level: "debug"
  format: "text"

collect:
  source: "html"
  target: 30
  stall_threshold: 4
  settle_delay: "1s"
  recheck_delay: "100ms"
  include_reposts: true

extract:
  year_policy: "current_year"

http:
  timeout: "10s"
  user_agent: "test-agent/1.0"
  retries: 5

metrics:
  textfile: "/var/lib/node_exporter/eventsync.prom"

venues:
  - name: "studio"
    handle: "studio_tw"
    category: "bd"
  - name: "toyroom"
    calendar_url: "https://toyroom.example.com/calendar/"
    source: "twitter"
    feed_pages:
      - "pages/toyroom-1.html"
      - "pages/toyroom-2.html"
`

func TestLoad_ValidYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv(PathEnv, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "/var/lib/eventsync" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Loc().String() != "Asia/Taipei" {
		t.Errorf("Loc() = %v", cfg.Loc())
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "text" {
		t.Errorf("Log = %+v", cfg.Log)
	}
	if cfg.Collect.Source != SourceHTML || cfg.Collect.Target != 30 || cfg.Collect.StallThreshold != 4 {
		t.Errorf("Collect = %+v", cfg.Collect)
	}
	if cfg.Collect.SettleDelay != time.Second || cfg.Collect.RecheckDelay != 100*time.Millisecond {
		t.Errorf("Collect delays = %v / %v", cfg.Collect.SettleDelay, cfg.Collect.RecheckDelay)
	}
	if cfg.Collect.IncludePinned || !cfg.Collect.IncludeReposts {
		t.Errorf("Collect include flags = %v / %v", cfg.Collect.IncludePinned, cfg.Collect.IncludeReposts)
	}
	if cfg.Collect.PageSize != 20 {
		t.Errorf("Collect.PageSize = %d, want default 20", cfg.Collect.PageSize)
	}
	if cfg.Extract.YearPolicy != "current_year" {
		t.Errorf("Extract.YearPolicy = %q", cfg.Extract.YearPolicy)
	}
	if cfg.HTTP.Timeout != 10*time.Second || cfg.HTTP.UserAgent != "test-agent/1.0" || cfg.HTTP.Retries != 5 {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.HTTP.RetryInterval != 500*time.Millisecond {
		t.Errorf("HTTP.RetryInterval = %v, want default", cfg.HTTP.RetryInterval)
	}
	if cfg.Metrics.Textfile == "" {
		t.Error("Metrics.Textfile not loaded")
	}

	if len(cfg.Venues) != 2 {
		t.Fatalf("Venues = %d, want 2", len(cfg.Venues))
	}
	toy, ok := cfg.Venue("toyroom")
	if !ok {
		t.Fatal("Venue(toyroom) not found")
	}
	if len(toy.FeedPages) != 2 || toy.CalendarURL == "" {
		t.Errorf("toyroom = %+v", toy)
	}
	if got := cfg.SourceFor(toy); got != SourceTwitter {
		t.Errorf("SourceFor(toyroom) = %q, want venue override", got)
	}
	studio, _ := cfg.Venue("studio")
	if got := cfg.SourceFor(studio); got != SourceHTML {
		t.Errorf("SourceFor(studio) = %q, want collect default", got)
	}
	if _, ok := cfg.Venue("missing"); ok {
		t.Error("Venue(missing) found")
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	path := writeYAML(t, t.TempDir(), validYAML)
	t.Setenv(PathEnv, path)
	t.Setenv("EVENTSYNC_TARGET", "7")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("TWITTER_API_KEY", "k")
	t.Setenv("TWITTER_API_SECRET", "s")
	t.Setenv("TWITTER_ACCESS_TOKEN", "t")
	t.Setenv("TWITTER_ACCESS_SECRET", "ts")
	t.Setenv("TELEGRAM_BOT_TOKEN", "bot")
	t.Setenv("TELEGRAM_CHAT_ID", "-100")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Collect.Target != 7 {
		t.Errorf("Collect.Target = %d, want 7", cfg.Collect.Target)
	}
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if !cfg.Twitter.HasCredentials() {
		t.Errorf("Twitter credentials not read from env: %+v", cfg.Twitter)
	}
	if !cfg.Telegram.HasCredentials() || cfg.Telegram.ChatID != "-100" {
		t.Errorf("Telegram credentials not read from env: %+v", cfg.Telegram)
	}
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv(PathEnv, "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.DataDir != "~/.local/share/eventsync" {
		t.Errorf("DataDir = %q", cfg.DataDir)
	}
	if cfg.Location != "Asia/Taipei" {
		t.Errorf("Location = %q", cfg.Location)
	}
	if cfg.Collect.Source != SourceTwitter || cfg.Collect.Target != 50 || cfg.Collect.StallThreshold != 5 {
		t.Errorf("Collect = %+v", cfg.Collect)
	}
	if cfg.Collect.SettleDelay != 2*time.Second {
		t.Errorf("SettleDelay = %v", cfg.Collect.SettleDelay)
	}
	if cfg.Extract.YearPolicy != "roll_forward" {
		t.Errorf("YearPolicy = %q", cfg.Extract.YearPolicy)
	}
	if cfg.Twitter.HasCredentials() {
		t.Error("unexpected Twitter credentials")
	}
	if cfg.Telegram.HasCredentials() {
		t.Error("unexpected Telegram credentials")
	}
}

func TestLoad_TargetDefault(t *testing.T) {
	t.Setenv(PathEnv, "")

	tests := []struct {
		name string
		yaml string
		env  string
		want int
	}{
		{"unset", "location: UTC", "", DefaultTarget},
		{"zero in file reads until the feed ends", "collect:\n  target: 0", "", 0},
		{"value in file", "collect:\n  target: 12", "", 12},
		{"zero in env", "location: UTC", "0", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.env != "" {
				t.Setenv("EVENTSYNC_TARGET", tt.env)
			}
			path := writeYAML(t, t.TempDir(), tt.yaml)

			cfg, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if cfg.Collect.Target != tt.want {
				t.Errorf("Collect.Target = %d, want %d", cfg.Collect.Target, tt.want)
			}
		})
	}
}

func TestLoad_ExplicitMissingFile(t *testing.T) {
	t.Setenv(PathEnv, filepath.Join(t.TempDir(), "nope.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Load() expected error for missing explicit file")
	}
}

func TestLoad_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "bad location",
			yaml:    `location: "Mars/Olympus"`,
			wantErr: "location",
		},
		{
			name:    "bad log level",
			yaml:    "log:\n  level: loud",
			wantErr: "log",
		},
		{
			name:    "bad year policy",
			yaml:    "extract:\n  year_policy: nearest",
			wantErr: "extract",
		},
		{
			name:    "bad source",
			yaml:    "collect:\n  source: selenium",
			wantErr: "unknown source",
		},
		{
			name:    "negative target",
			yaml:    "collect:\n  target: -1",
			wantErr: "target",
		},
		{
			name:    "venue without name",
			yaml:    "venues:\n  - handle: x",
			wantErr: "venues[0]",
		},
		{
			name:    "duplicate venue",
			yaml:    "venues:\n  - name: a\n  - name: a",
			wantErr: "duplicate",
		},
		{
			name:    "venue name with slash",
			yaml:    "venues:\n  - name: a/b",
			wantErr: "file name",
		},
		{
			name:    "handle with at sign",
			yaml:    "venues:\n  - name: a\n    handle: \"@a\"",
			wantErr: "handle",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeYAML(t, t.TempDir(), tt.yaml)

			_, err := LoadFile(path)
			if err == nil {
				t.Fatal("LoadFile() expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("LoadFile() error = %q, want containing %q", err, tt.wantErr)
			}
		})
	}
}

// Package config loads eventsync settings from a YAML file and the
// environment.
package config

import (
	"time"
)

// Config is the root application configuration.
type Config struct {
	DataDir  string         `yaml:"data_dir" env:"EVENTSYNC_DATA_DIR" env-default:"~/.local/share/eventsync"`
	Location string         `yaml:"location" env:"EVENTSYNC_LOCATION" env-default:"Asia/Taipei"`
	Log      LogConfig      `yaml:"log"`
	Collect  CollectConfig  `yaml:"collect"`
	Extract  ExtractConfig  `yaml:"extract"`
	HTTP     HTTPConfig     `yaml:"http"`
	Twitter  TwitterConfig  `yaml:"twitter"`
	Telegram TelegramConfig `yaml:"telegram"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Venues   []VenueConfig  `yaml:"venues"`

	loc *time.Location
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `yaml:"level"  env:"LOG_LEVEL"  env-default:"info"`
	Format string `yaml:"format" env:"LOG_FORMAT" env-default:"json"`
}

// CollectConfig controls the feed collection loop.
// Booleans carry no env-default: cleanenv would overwrite a false YAML value.
// Target is defaulted by LoadFile for the same reason, since 0 means "read
// until the feed ends".
type CollectConfig struct {
	Source         string        `yaml:"source"          env:"EVENTSYNC_SOURCE"          env-default:"twitter"`
	Target         int           `yaml:"target"          env:"EVENTSYNC_TARGET"`
	StallThreshold int           `yaml:"stall_threshold" env:"EVENTSYNC_STALL_THRESHOLD" env-default:"5"`
	SettleDelay    time.Duration `yaml:"settle_delay"    env:"EVENTSYNC_SETTLE_DELAY"    env-default:"2s"`
	RecheckDelay   time.Duration `yaml:"recheck_delay"   env:"EVENTSYNC_RECHECK_DELAY"   env-default:"200ms"`
	IncludePinned  bool          `yaml:"include_pinned"  env:"EVENTSYNC_INCLUDE_PINNED"`
	IncludeReposts bool          `yaml:"include_reposts" env:"EVENTSYNC_INCLUDE_REPOSTS"`
	PageSize       int           `yaml:"page_size"       env:"EVENTSYNC_PAGE_SIZE"       env-default:"20"`
}

// ExtractConfig holds extraction settings.
type ExtractConfig struct {
	YearPolicy string `yaml:"year_policy" env:"EVENTSYNC_YEAR_POLICY" env-default:"roll_forward"`
}

// HTTPConfig holds settings for page fetches.
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout"        env:"EVENTSYNC_HTTP_TIMEOUT"        env-default:"30s"`
	UserAgent     string        `yaml:"user_agent"     env:"EVENTSYNC_USER_AGENT"`
	Retries       int           `yaml:"retries"        env:"EVENTSYNC_HTTP_RETRIES"        env-default:"3"`
	RetryInterval time.Duration `yaml:"retry_interval" env:"EVENTSYNC_HTTP_RETRY_INTERVAL" env-default:"500ms"`
}

// TwitterConfig holds API credentials. They are normally supplied through
// the environment only.
type TwitterConfig struct {
	APIKey       string `yaml:"api_key"       env:"TWITTER_API_KEY"`
	APISecret    string `yaml:"api_secret"    env:"TWITTER_API_SECRET"`
	AccessToken  string `yaml:"access_token"  env:"TWITTER_ACCESS_TOKEN"`
	AccessSecret string `yaml:"access_secret" env:"TWITTER_ACCESS_SECRET"`
}

// HasCredentials reports whether all four credentials are set.
func (t TwitterConfig) HasCredentials() bool {
	return t.APIKey != "" && t.APISecret != "" && t.AccessToken != "" && t.AccessSecret != ""
}

// TelegramConfig holds the bot credentials for digest notifications.
type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id"   env:"TELEGRAM_CHAT_ID"`
	// APIURL overrides the Bot API endpoint.
	APIURL string `yaml:"api_url" env:"TELEGRAM_API_URL"`
}

// HasCredentials reports whether the token and chat are set.
func (t TelegramConfig) HasCredentials() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// MetricsConfig holds metrics export settings.
type MetricsConfig struct {
	// Textfile is a node-exporter textfile path; empty disables export.
	Textfile string `yaml:"textfile" env:"EVENTSYNC_METRICS_TEXTFILE"`
}

// VenueConfig describes one venue to collect.
type VenueConfig struct {
	Name string `yaml:"name"`
	// Handle is the venue's X account, without "@".
	Handle string `yaml:"handle"`
	// FeedPages are saved or mirrored feed pages for the html source, in
	// scroll order. Entries may be URLs or file paths.
	FeedPages   []string `yaml:"feed_pages"`
	CalendarURL string   `yaml:"calendar_url"`
	// Category overrides keyword categorization for every record.
	Category string `yaml:"category"`
	// Source overrides collect.source for this venue.
	Source string `yaml:"source"`
}

// Loc returns the parsed Location. Valid after Validate.
func (c *Config) Loc() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

// Venue looks up a venue by name.
func (c *Config) Venue(name string) (VenueConfig, bool) {
	for _, v := range c.Venues {
		if v.Name == name {
			return v, true
		}
	}
	return VenueConfig{}, false
}

// SourceFor returns the feed source used for a venue.
func (c *Config) SourceFor(v VenueConfig) string {
	if v.Source != "" {
		return v.Source
	}
	return c.Collect.Source
}

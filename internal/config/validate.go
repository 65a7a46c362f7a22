package config

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // venue zones must resolve on hosts without zoneinfo

	"github.com/ucanscrapex/eventsync/internal/extract"
	"github.com/ucanscrapex/eventsync/internal/logger"
)

// Source names accepted by collect.source and venues[].source.
const (
	SourceTwitter = "twitter"
	SourceHTML    = "html"
)

// Validate performs business-rule validation on the loaded configuration.
// Load calls it automatically.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir must not be empty")
	}

	loc, err := time.LoadLocation(c.Location)
	if err != nil {
		return fmt.Errorf("location: %w", err)
	}
	c.loc = loc

	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	if _, err := logger.ParseFormat(c.Log.Format); err != nil {
		return fmt.Errorf("log: %w", err)
	}

	if _, err := extract.ParseYearPolicy(c.Extract.YearPolicy); err != nil {
		return fmt.Errorf("extract: %w", err)
	}

	if err := c.Collect.validate(); err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	if c.HTTP.Retries < 0 {
		return fmt.Errorf("http: retries must be >= 0 (got %d)", c.HTTP.Retries)
	}

	seen := make(map[string]bool)
	for i, v := range c.Venues {
		if err := v.validate(); err != nil {
			return fmt.Errorf("venues[%d]: %w", i, err)
		}
		if seen[v.Name] {
			return fmt.Errorf("venues[%d]: duplicate name %q", i, v.Name)
		}
		seen[v.Name] = true
	}

	return nil
}

func (c *CollectConfig) validate() error {
	if err := validSource(c.Source); err != nil {
		return err
	}
	if c.Target < 0 {
		return fmt.Errorf("target must be >= 0 (got %d)", c.Target)
	}
	if c.StallThreshold <= 0 {
		return fmt.Errorf("stall_threshold must be > 0 (got %d)", c.StallThreshold)
	}
	if c.SettleDelay < 0 || c.RecheckDelay < 0 {
		return fmt.Errorf("delays must be >= 0")
	}
	if c.PageSize <= 0 || c.PageSize > 200 {
		return fmt.Errorf("page_size must be in 1..200 (got %d)", c.PageSize)
	}
	return nil
}

func (v VenueConfig) validate() error {
	name := strings.TrimSpace(v.Name)
	if name == "" {
		return fmt.Errorf("name must not be empty")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("name %q is not usable as a file name", v.Name)
	}
	if v.Source != "" {
		if err := validSource(v.Source); err != nil {
			return err
		}
	}
	if strings.HasPrefix(v.Handle, "@") {
		return fmt.Errorf("handle %q must not start with @", v.Handle)
	}
	return nil
}

func validSource(s string) error {
	switch s {
	case SourceTwitter, SourceHTML:
		return nil
	}
	return fmt.Errorf("unknown source %q (want %s or %s)", s, SourceTwitter, SourceHTML)
}

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dghubble/go-twitter/twitter" //nolint:staticcheck // Using stable v1.1 API
	"github.com/spf13/cobra"

	"github.com/ucanscrapex/eventsync/internal/config"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/extract"
	"github.com/ucanscrapex/eventsync/internal/feed/twitterfeed"
	"github.com/ucanscrapex/eventsync/internal/logger"
	"github.com/ucanscrapex/eventsync/internal/metrics"
	"github.com/ucanscrapex/eventsync/internal/scraper"
	"github.com/ucanscrapex/eventsync/internal/storage"
)

const (
	ExitSuccess   = 0
	ExitError     = 1
	ExitNewEvents = 2
)

// app carries the state shared by all commands of one invocation.
type app struct {
	configPath string
	dataDir    string
	verbose    bool

	cfg     *config.Config
	store   *storage.Store
	metrics *metrics.Metrics

	now       func() time.Time
	newClient func(config.TwitterConfig) (*twitter.Client, error)
	client    *twitter.Client

	exitCode int
}

func newApp() *app {
	return &app{now: time.Now, newClient: twitterClient}
}

func twitterClient(c config.TwitterConfig) (*twitter.Client, error) {
	return twitterfeed.NewClient(twitterfeed.Credentials{
		APIKey:       c.APIKey,
		APISecret:    c.APISecret,
		AccessToken:  c.AccessToken,
		AccessSecret: c.AccessSecret,
	})
}

// newRootCmd creates the root command
func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "eventsync",
		Short: "Collect venue events from social feeds and calendars",
		Long: `A CLI tool that collects event announcements from venue social feeds and
calendar widgets, keeps one reviewed record store per venue, and publishes
the confirmed events.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $"+config.PathEnv+" or ./eventsync.yaml)")
	cmd.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "Data directory for venue stores (overrides config)")
	cmd.PersistentFlags().BoolVar(&a.verbose, "verbose", false, "Enable verbose logging")

	cmd.AddCommand(
		newCollectCmd(a),
		newCalendarCmd(a),
		newExtractCmd(a),
		newMergeCmd(a),
		newListCmd(a),
		newEditCmd(a),
		newPublishCmd(a),
	)

	return cmd
}

// setup loads configuration and builds the shared collaborators.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	path := a.configPath
	if path == "" {
		path = os.Getenv(config.PathEnv)
	}
	cfg, err := config.LoadFile(path)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.DataDir = a.dataDir
	}

	level := cfg.Log.Level
	if a.verbose {
		level = string(logger.LevelDebug)
	}
	if _, err := logger.Configure(level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
		return err
	}

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	a.cfg = cfg
	a.store = store
	a.metrics = metrics.New()

	logger.Debug("Configuration loaded", logger.Fields{
		"data_dir": store.Dir(),
		"location": cfg.Location,
		"venues":   len(cfg.Venues),
	})
	return nil
}

// resolver returns a date resolver in the configured zone and year policy.
func (a *app) resolver() (*extract.DateResolver, error) {
	policy, err := extract.ParseYearPolicy(a.cfg.Extract.YearPolicy)
	if err != nil {
		return nil, err
	}
	d := extract.NewDateResolver(a.cfg.Loc(), policy)
	d.Now = a.now
	return d, nil
}

// builder returns a record builder for a configured venue.
func (a *app) builder(v config.VenueConfig) (*extract.Builder, error) {
	dates, err := a.resolver()
	if err != nil {
		return nil, err
	}
	return extract.NewBuilder(v.Name, v.Category, dates), nil
}

// fetcher returns a page fetcher honouring the http settings.
func (a *app) fetcher() *scraper.Fetcher {
	h := a.cfg.HTTP
	opts := []scraper.Option{
		scraper.WithTimeout(h.Timeout),
		scraper.WithRetries(h.Retries),
		scraper.WithRetryInterval(h.RetryInterval),
	}
	if h.UserAgent != "" {
		opts = append(opts, scraper.WithUserAgent(h.UserAgent))
	}
	return scraper.NewFetcher(opts...)
}

// apiClient returns the Twitter API client, creating it on first use.
func (a *app) apiClient() (*twitter.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	client, err := a.newClient(a.cfg.Twitter)
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// selectVenues returns the named venue, or every configured venue when name
// is empty.
func (a *app) selectVenues(name string) ([]config.VenueConfig, error) {
	if name == "" {
		if len(a.cfg.Venues) == 0 {
			return nil, errors.New("no venues configured")
		}
		return a.cfg.Venues, nil
	}
	v, ok := a.cfg.Venue(name)
	if !ok {
		return nil, fmt.Errorf("unknown venue %q", name)
	}
	return []config.VenueConfig{v}, nil
}

// mergeInto merges a batch into a venue store and saves it. An unreadable
// store file is moved aside first so the merge starts from an empty store.
func (a *app) mergeInto(venue string, batch []*event.Record) (*event.MergeResult, error) {
	existing, err := a.store.Load(venue)
	if errors.Is(err, storage.ErrCorrupt) {
		moved, qerr := a.store.Quarantine(venue, a.now())
		if qerr != nil {
			return nil, qerr
		}
		logger.Warn("Store file unreadable, starting a new one", logger.Fields{
			"venue":    venue,
			"moved_to": moved,
			"reason":   err.Error(),
		})
		existing = []*event.Record{}
	} else if err != nil {
		return nil, fmt.Errorf("loading %s: %w", venue, err)
	}

	result := event.Merge(existing, batch)
	if err := a.store.Save(venue, result.Records); err != nil {
		return nil, fmt.Errorf("saving %s: %w", venue, err)
	}

	for _, kind := range []string{event.ChangeAdded, event.ChangeLink, event.ChangeConfirmed} {
		a.metrics.ObserveChanges(venue, kind, result.Count(kind))
	}
	a.metrics.ObserveSave(venue, len(result.Records), a.now())

	logger.Info("Store updated", logger.Fields{
		"venue":     venue,
		"batch":     len(batch),
		"added":     result.Count(event.ChangeAdded),
		"links":     result.Count(event.ChangeLink),
		"confirmed": result.Count(event.ChangeConfirmed),
		"total":     len(result.Records),
	})
	return result, nil
}

// loadRecords reads the stores of the given venues, or of every venue with a
// store file when venues is empty. Unreadable stores are skipped with a
// warning.
func (a *app) loadRecords(venues []string) ([]*event.Record, error) {
	if len(venues) == 0 {
		var err error
		venues, err = a.store.Venues()
		if err != nil {
			return nil, err
		}
	}

	var all []*event.Record
	for _, v := range venues {
		records, err := a.store.Load(v)
		if errors.Is(err, storage.ErrCorrupt) {
			logger.Warn("Skipping unreadable store", logger.Fields{"venue": v, "reason": err.Error()})
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", v, err)
		}
		all = append(all, records...)
	}
	return all, nil
}

// writeMetrics exports the run's metrics when a textfile is configured.
func (a *app) writeMetrics() {
	path := a.cfg.Metrics.Textfile
	if path == "" {
		return
	}
	if err := a.metrics.WriteTextfile(path); err != nil {
		logger.Error("Failed to write metrics textfile", logger.Fields{"path": path}, err)
	}
}

func run(a *app, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(a)
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return ExitError
	}
	return a.exitCode
}

// Execute runs the CLI
func Execute() {
	os.Exit(run(newApp(), os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucanscrapex/eventsync/internal/calendar"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/filter"
)

type listOptions struct {
	venues     []string
	categories []string
	titles     []string
	dateRange  string
	all        bool
	confirmed  bool
	weekends   bool
	format     string
	sort       string
}

func newListCmd(a *app) *cobra.Command {
	opts := &listOptions{}
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored events",
		Long: `List records from the venue stores. Soft-deleted records are hidden unless
--all is given.

Date ranges accept forms such as "2025-08-01..2025-08-31", "2025-08",
"Aug 1-15", "Aug 25 - Sep 5", "August" and "8月".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runList(cmd, opts)
		},
	}

	cmd.Flags().StringSliceVar(&opts.venues, "venue", nil, "Only these venues (repeatable)")
	cmd.Flags().StringSliceVar(&opts.categories, "category", nil, "Only these category codes (repeatable)")
	cmd.Flags().StringSliceVar(&opts.titles, "title", nil, "Title or text contains (repeatable)")
	cmd.Flags().StringVar(&opts.dateRange, "range", "", "Date range")
	cmd.Flags().BoolVar(&opts.all, "all", false, "Include soft-deleted records")
	cmd.Flags().BoolVar(&opts.confirmed, "confirmed", false, "Only confirmed records")
	cmd.Flags().BoolVar(&opts.weekends, "weekends", false, "Only Saturday and Sunday")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text or json")
	cmd.Flags().StringVar(&opts.sort, "sort", "date", "Sort by: date, venue or title")

	return cmd
}

func (a *app) runList(cmd *cobra.Command, opts *listOptions) error {
	format, err := parseFormat(opts.format, FormatText, FormatJSON)
	if err != nil {
		return err
	}
	order, err := parseSortOrder(opts.sort)
	if err != nil {
		return err
	}

	f := filter.NewFilter()
	f.Venues = opts.venues
	f.Categories = opts.categories
	f.Titles = opts.titles
	f.WeekendsOnly = opts.weekends
	f.ConfirmedOnly = opts.confirmed
	f.IncludeDeleted = opts.all
	if opts.dateRange != "" {
		from, to, err := filter.ParseDateRange(opts.dateRange, a.now().In(a.cfg.Loc()))
		if err != nil {
			return err
		}
		f.DateFrom, f.DateTo = from, to
	}

	records, err := a.loadRecords(opts.venues)
	if err != nil {
		return err
	}
	records = f.Apply(records)
	sortRecords(records, order)

	result := &ListResult{Records: records, Count: len(records)}
	if records == nil {
		result.Records = []*event.Record{}
	}
	if !f.IsEmpty() {
		result.Filter = f.String()
	}
	return writeList(cmd.OutOrStdout(), result, format, a.verbose)
}

// PublishResult is the JSON document behind the public event page.
type PublishResult struct {
	GeneratedAt time.Time           `json:"generated_at"`
	Count       int                 `json:"count"`
	Months      []filter.MonthGroup `json:"months"`
}

func newPublishCmd(a *app) *cobra.Command {
	var (
		venues []string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Export publishable events as JSON or iCalendar",
		Long: `Export the records ready for the public page: confirmed, not deleted and
carrying a real title. JSON output is grouped by month; ics output is an
iCalendar feed of the dated records.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatJSON, FormatICS)
			if err != nil {
				return err
			}

			records, err := a.loadRecords(venues)
			if err != nil {
				return err
			}
			records = filter.Publishable(records)

			w := cmd.OutOrStdout()
			var file *os.File
			if output != "" && output != "-" {
				file, err = os.Create(output)
				if err != nil {
					return fmt.Errorf("creating output: %w", err)
				}
				w = file
			}

			err = writePublish(w, records, f, a)
			if file != nil {
				if cerr := file.Close(); err == nil {
					err = cerr
				}
			}
			if err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&venues, "venue", nil, "Only these venues (repeatable)")
	cmd.Flags().StringVar(&format, "format", "json", "Output format: json or ics")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to this file instead of stdout")

	return cmd
}

func writePublish(w io.Writer, records []*event.Record, format OutputFormat, a *app) error {
	now := a.now()
	switch format {
	case FormatICS:
		_, err := io.WriteString(w, calendar.GenerateICS(records, a.cfg.Loc(), now))
		return err
	default:
		return writeJSON(w, &PublishResult{
			GeneratedAt: now.UTC(),
			Count:       len(records),
			Months:      filter.GroupByMonth(records),
		})
	}
}

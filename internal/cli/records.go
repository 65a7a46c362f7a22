package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ucanscrapex/eventsync/internal/config"
	"github.com/ucanscrapex/eventsync/internal/event"
	"github.com/ucanscrapex/eventsync/internal/extract"
)

// ErrNoEvent is returned by extract when the input describes no event.
var ErrNoEvent = errors.New("no event found in input")

func newExtractCmd(a *app) *cobra.Command {
	var (
		today string
		venue string
		raw   bool
	)
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract an event record from post text on stdin",
		Long: `Read one post from stdin and print the event record it describes as JSON.

With --raw the input is treated as rendered feed text, so header and
engagement lines are stripped before extraction.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}

			v, ok := a.cfg.Venue(venue)
			if !ok {
				v = config.VenueConfig{Name: venue}
			}
			b, err := a.builder(v)
			if err != nil {
				return err
			}
			if today != "" {
				day, err := time.ParseInLocation(event.DateLayout, today, a.cfg.Loc())
				if err != nil {
					return fmt.Errorf("invalid --today %q: use YYYY-MM-DD", today)
				}
				noon := day.Add(12 * time.Hour)
				b.Dates.Now = func() time.Time { return noon }
			}

			r, ok := b.FromPost(extract.Post{Lines: extract.SplitLines(string(data)), Cleaned: !raw})
			if !ok {
				return ErrNoEvent
			}
			return writeJSON(cmd.OutOrStdout(), r)
		},
	}

	cmd.Flags().StringVar(&today, "today", "", "Reference date YYYY-MM-DD for year inference (default today)")
	cmd.Flags().StringVar(&venue, "venue", "", "Venue to attribute the record to")
	cmd.Flags().BoolVar(&raw, "raw", false, "Input is rendered feed text that needs normalizing")

	return cmd
}

func newMergeCmd(a *app) *cobra.Command {
	var (
		venue  string
		batch  string
		format string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge a JSON batch of records into a venue store",
		Long: `Merge a JSON array of records into a venue store. Use --batch - to read
the batch from stdin.

Exits with status 2 when new events were added.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := parseFormat(format, FormatText, FormatJSON)
			if err != nil {
				return err
			}
			records, err := readBatch(cmd.InOrStdin(), batch)
			if err != nil {
				return err
			}
			for _, r := range records {
				if r.Venue == "" {
					r.Venue = venue
				}
			}

			merged, err := a.mergeInto(venue, records)
			if err != nil {
				return err
			}
			a.writeMetrics()

			result := newSyncResult(a.now())
			result.add(venue, merged)
			if err := writeSync(cmd.OutOrStdout(), result, f, a.verbose); err != nil {
				return fmt.Errorf("writing output: %w", err)
			}
			if result.EventCount > 0 {
				a.exitCode = ExitNewEvents
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&venue, "venue", "", "Venue store to merge into (required)")
	cmd.Flags().StringVar(&batch, "batch", "", "JSON file holding an array of records, or - for stdin (required)")
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text or json")
	_ = cmd.MarkFlagRequired("venue")
	_ = cmd.MarkFlagRequired("batch")

	return cmd
}

// readBatch decodes a JSON array of records from a file or stdin. The whole
// batch is rejected when any record has a date that is not YYYY-MM-DD or N/A.
func readBatch(stdin io.Reader, path string) ([]*event.Record, error) {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("reading batch: %w", err)
	}

	var records []*event.Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decoding batch: %w", err)
	}

	out := make([]*event.Record, 0, len(records))
	for i, r := range records {
		if r == nil {
			continue
		}
		r.Normalize()
		date, err := event.ValidateDate(r.Date)
		if err != nil {
			return nil, fmt.Errorf("batch record %d: %w", i, err)
		}
		r.Date = date
		out = append(out, r)
	}
	return out, nil
}

type editOptions struct {
	venue string
	text  string
	date  string
	title string

	setDate, setTitle, setDesc string
	setStart, setEnd, setLink  string
	toggleDelete               bool
}

func newEditCmd(a *app) *cobra.Command {
	opts := &editOptions{}
	cmd := &cobra.Command{
		Use:   "edit",
		Short: "Correct or soft-delete a stored record",
		Long: `Apply a manual correction to one record, addressed by its identity key:
--date and --title for titled records, --text for records that only have
their post text. Any correction marks the record confirmed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runEdit(cmd, opts)
		},
	}

	cmd.Flags().StringVar(&opts.venue, "venue", "", "Venue store (required)")
	cmd.Flags().StringVar(&opts.text, "text", "", "Key: the record's text")
	cmd.Flags().StringVar(&opts.date, "date", "", "Key: the record's date")
	cmd.Flags().StringVar(&opts.title, "title", "", "Key: the record's title")
	cmd.Flags().StringVar(&opts.setDate, "set-date", "", "New date, YYYY-MM-DD or N/A")
	cmd.Flags().StringVar(&opts.setTitle, "set-title", "", "New title")
	cmd.Flags().StringVar(&opts.setDesc, "set-description", "", "New brief description")
	cmd.Flags().StringVar(&opts.setStart, "set-start", "", "New start time HH:MM")
	cmd.Flags().StringVar(&opts.setEnd, "set-end", "", "New end time HH:MM")
	cmd.Flags().StringVar(&opts.setLink, "set-link", "", "New link")
	cmd.Flags().BoolVar(&opts.toggleDelete, "toggle-delete", false, "Flip the soft-delete flag")
	_ = cmd.MarkFlagRequired("venue")
	cmd.MarkFlagsMutuallyExclusive("text", "date")
	cmd.MarkFlagsMutuallyExclusive("text", "title")
	cmd.MarkFlagsRequiredTogether("date", "title")

	return cmd
}

func (a *app) runEdit(cmd *cobra.Command, opts *editOptions) error {
	var key event.Key
	switch {
	case opts.text != "":
		key = event.Key{Text: opts.text}
	case opts.date != "" && opts.title != "":
		key = event.Key{Date: opts.date, Title: opts.title}
	default:
		return errors.New("identify the record with --text or with --date and --title")
	}

	flags := cmd.Flags()
	var edit event.Edit
	if flags.Changed("set-date") {
		edit.Date = &opts.setDate
	}
	if flags.Changed("set-title") {
		edit.Title = &opts.setTitle
	}
	if flags.Changed("set-description") {
		edit.BriefDescription = &opts.setDesc
	}
	if flags.Changed("set-start") {
		edit.StartTime = &opts.setStart
	}
	if flags.Changed("set-end") {
		edit.EndTime = &opts.setEnd
	}
	if flags.Changed("set-link") {
		edit.Link = &opts.setLink
	}
	if edit.IsEmpty() && !opts.toggleDelete {
		return errors.New("nothing to change: pass a --set-* flag or --toggle-delete")
	}

	updated, err := a.store.Update(opts.venue, key, func(r *event.Record) error {
		if !edit.IsEmpty() {
			if err := event.ApplyEdit(r, edit); err != nil {
				return err
			}
		}
		if opts.toggleDelete {
			event.ToggleDeleted(r)
		}
		return nil
	})
	if err != nil {
		return err
	}

	return writeJSON(cmd.OutOrStdout(), updated)
}

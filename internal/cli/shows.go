package cli

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/filter"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
	"github.com/pfrederiksen/elcairo-events/internal/storage"
)

// dateLayout is the DD-MM-YYYY format of the --date flag
const dateLayout = "02-01-2006"

type showsFlags struct {
	format    string
	sort      string
	reverse   bool
	extraInfo bool
	urls      bool
	imageURLs bool
	separator bool

	titles       []string
	directors    []string
	genres       []string
	origins      []string
	weekendsOnly bool
}

func (sf showsFlags) filter() *filter.Filter {
	return &filter.Filter{
		Titles:       sf.titles,
		Directors:    sf.directors,
		Genres:       sf.genres,
		Origins:      sf.origins,
		WeekendsOnly: sf.weekendsOnly,
	}
}

// dateRange is an inclusive CompareDate interval
type dateRange struct {
	min int64
	max int64
}

func newShowsCmd(opts *options) *cobra.Command {
	var sf showsFlags

	cmd := &cobra.Command{
		Use:   "shows",
		Short: "Print movie shows from the database",
	}
	cmd.PersistentFlags().StringVar(&sf.format, "format", "text", "Output format: text or json")
	cmd.PersistentFlags().StringVar(&sf.sort, "sort", "date", "Sort order: date or name")
	cmd.PersistentFlags().BoolVarP(&sf.reverse, "reverse", "r", false, "Reverse order: oldest first by date, Z to A by name")
	cmd.PersistentFlags().BoolVarP(&sf.extraInfo, "extra-info", "e", true, "Show the technical sheet and price")
	cmd.PersistentFlags().BoolVarP(&sf.urls, "urls", "u", false, "Show page urls")
	cmd.PersistentFlags().BoolVarP(&sf.imageURLs, "image-urls", "l", false, "Show image urls")
	cmd.PersistentFlags().BoolVar(&sf.separator, "separator", false, "Show a separator between shows")
	cmd.PersistentFlags().StringSliceVar(&sf.titles, "title", nil, "Only shows whose title contains this text (repeatable)")
	cmd.PersistentFlags().StringSliceVar(&sf.directors, "director", nil, "Only shows by this director (repeatable)")
	cmd.PersistentFlags().StringSliceVar(&sf.genres, "genre", nil, "Only shows of this genre (repeatable)")
	cmd.PersistentFlags().StringSliceVar(&sf.origins, "origin", nil, "Only shows from this country (repeatable)")
	cmd.PersistentFlags().BoolVar(&sf.weekendsOnly, "weekends-only", false, "Only shows on saturdays and sundays")

	fixed := []struct {
		use   string
		short string
		rng   func(now time.Time) dateRange
	}{
		{"today", "Today's movie shows", todayRange},
		{"tomorrow", "Tomorrow's movie shows", tomorrowRange},
		{"week", "Movie shows until next sunday", weekRange},
		{"weekend", "This weekend's movie shows", weekendRange},
		{"upcoming", "Upcoming movie shows", upcomingRange},
	}
	for _, f := range fixed {
		cmd.AddCommand(&cobra.Command{
			Use:   f.use,
			Short: f.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runShows(cmd, opts, sf, f.use, f.rng(opts.clock()))
			},
		})
	}

	cmd.AddCommand(
		newDateCmd(opts, &sf, "day", "Movie shows of a given date", func(now, date time.Time) dateRange {
			return dayRange(date)
		}),
		newDateCmd(opts, &sf, "until", "Movie shows until a given date", func(now, date time.Time) dateRange {
			return dateRange{min: event.DayStart(now), max: event.DayEnd(date)}
		}),
	)
	return cmd
}

func newDateCmd(opts *options, sf *showsFlags, use, short string, rng func(now, date time.Time) dateRange) *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			now := opts.clock()
			d, err := time.ParseInLocation(dateLayout, date, now.Location())
			if err != nil {
				return fmt.Errorf("invalid date %q: expected DD-MM-YYYY", date)
			}
			return runShows(cmd, opts, *sf, use+" "+date, rng(now, d))
		},
	}
	cmd.Flags().StringVarP(&date, "date", "d", "", "Date in DD-MM-YYYY format (required)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func runShows(cmd *cobra.Command, opts *options, sf showsFlags, query string, r dateRange) error {
	// Validate format
	format := OutputFormat(strings.ToLower(sf.format))
	if format != FormatText && format != FormatJSON {
		return fmt.Errorf("invalid format: %s (must be 'text' or 'json')", sf.format)
	}
	sortOrder := SortOrder(strings.ToLower(sf.sort))
	if sortOrder != SortByDate && sortOrder != SortByName {
		return fmt.Errorf("invalid sort order: %s (must be 'date' or 'name')", sf.sort)
	}

	store, err := storage.OpenExisting(opts.cfg.Storage.DataDir)
	if err != nil {
		if errors.Is(err, storage.ErrNoDatabase) {
			return fmt.Errorf("%w: create the database first with 'elcairo database populate'", err)
		}
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	order := storage.Descending
	if sf.reverse {
		order = storage.Ascending
	}
	rows, err := store.Query(cmd.Context(), r.min, r.max, order)
	if err != nil {
		return err
	}

	loc := opts.cfg.Location()
	events := make([]*event.EnrichedEvent, 0, len(rows))
	for _, row := range rows {
		evt := row.Enriched()
		if !evt.Start.IsZero() {
			evt.Start = evt.Start.In(loc)
		}
		events = append(events, evt)
	}
	f := sf.filter()
	events = f.Apply(events)
	if !f.IsEmpty() {
		logger.Debug("Filter applied", logger.Fields{"filter": f.String(), "matches": len(events)})
	}

	if sortOrder == SortByName {
		sortEvents(events, SortByName)
		if sf.reverse {
			reverseEvents(events)
		}
	}

	result := &OutputResult{
		GeneratedAt: opts.now().UTC(),
		Query:       query,
		Filter:      filterDescription(f),
		EventCount:  len(events),
		Events:      events,
	}
	textOpts := TextOptions{
		ExtraInfo: sf.extraInfo,
		URLs:      sf.urls,
		ImageURLs: sf.imageURLs,
		Separator: sf.separator,
	}
	if err := WriteOutput(cmd.OutOrStdout(), result, format, textOpts); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}
	return nil
}

func dayRange(t time.Time) dateRange {
	return dateRange{min: event.DayStart(t), max: event.DayEnd(t)}
}

func todayRange(now time.Time) dateRange {
	return dayRange(now)
}

func tomorrowRange(now time.Time) dateRange {
	return dayRange(now.AddDate(0, 0, 1))
}

// weekRange runs from today to the end of the next sunday
func weekRange(now time.Time) dateRange {
	return dateRange{
		min: event.DayStart(now),
		max: event.DayEnd(event.NextWeekday(now, time.Sunday)),
	}
}

// weekendRange covers the coming saturday and sunday. On a sunday only the
// rest of that day is left.
func weekendRange(now time.Time) dateRange {
	sunday := event.NextWeekday(now, time.Sunday)
	start := event.DayStart(sunday.AddDate(0, 0, -1))
	if today := event.DayStart(now); start < today {
		start = today
	}
	return dateRange{min: start, max: event.DayEnd(sunday)}
}

func upcomingRange(now time.Time) dateRange {
	return dateRange{min: event.DayStart(now), max: storage.MaxCompareDate}
}

func filterDescription(f *filter.Filter) string {
	if f.IsEmpty() {
		return ""
	}
	return f.String()
}

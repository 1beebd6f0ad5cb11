package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/elcairo-events/internal/enricher"
	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/feed"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
	"github.com/pfrederiksen/elcairo-events/internal/pager"
	"github.com/pfrederiksen/elcairo-events/internal/scraper"
	"github.com/pfrederiksen/elcairo-events/internal/storage"
)

type populateFlags struct {
	past        bool
	all         bool
	icsFile     string
	noImages    bool
	metricsFile string
}

func newDatabaseCmd(opts *options) *cobra.Command {
	var silent bool

	cmd := &cobra.Command{
		Use:   "database",
		Short: "Database operations",
	}
	cmd.PersistentFlags().BoolVarP(&silent, "silent", "s", false, "Don't print anything")

	var pf populateFlags
	populate := &cobra.Command{
		Use:   "populate",
		Short: "Populate the database",
		Long: `Rebuild the database from the calendar feed.
Upcoming showings are collected by default; --past walks backwards instead
and --all does both.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &printer{w: cmd.OutOrStdout(), silent: silent}
			if pf.icsFile != "" {
				return runValidateICS(p, pf.icsFile)
			}
			return runPopulate(cmd.Context(), opts, p, pf)
		},
	}
	populate.Flags().BoolVar(&pf.past, "past", false, "Collect past showings instead of upcoming ones")
	populate.Flags().BoolVar(&pf.all, "all", false, "Collect past and upcoming showings")
	populate.Flags().StringVarP(&pf.icsFile, "ics-file", "i", "", "Only validate a local .ics file; the database is not touched")
	populate.Flags().BoolVar(&pf.noImages, "no-images", false, "Don't download poster images")
	populate.Flags().StringVar(&pf.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")
	populate.MarkFlagsMutuallyExclusive("past", "all")

	var force bool
	clean := &cobra.Command{
		Use:   "clean",
		Short: "Clean the database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := &printer{w: cmd.OutOrStdout(), silent: silent}
			p.println("Cleaning database...")
			if err := storage.Clean(opts.cfg.Storage.DataDir, force); err != nil {
				if errors.Is(err, storage.ErrLocked) {
					return fmt.Errorf("%w; use --force to clean anyway", err)
				}
				return err
			}
			p.println("Database cleaned!")
			return nil
		},
	}
	clean.Flags().BoolVarP(&force, "force", "f", false, "Clean even while a populate run holds the lock")

	cmd.AddCommand(populate, clean)
	return cmd
}

func runValidateICS(p *printer, path string) error {
	p.printf("Reading .ics file %s...\n", path)
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening ics file: %w", err)
	}
	defer f.Close()

	entries, err := feed.ParseCalendar(f)
	if err != nil {
		return fmt.Errorf("validating %s: %w", path, err)
	}
	p.printf("Valid calendar with %d events\n", entries.Len())
	return nil
}

func runPopulate(ctx context.Context, opts *options, p *printer, pf populateFlags) error {
	cfg := opts.cfg
	dataDir := cfg.Storage.DataDir

	lock := storage.NewLock(dataDir)
	if err := lock.Acquire(); err != nil {
		return err
	}
	defer func() {
		if err := lock.Release(); err != nil {
			logger.Error("Releasing lock failed", logger.Fields{"path": lock.Path()}, err)
		}
	}()

	store, err := storage.Open(dataDir)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}
	defer store.Close()

	p.printf("Using database %s\n", storage.DatabasePath(dataDir))
	previous, err := previousEvents(ctx, store)
	if err != nil {
		return err
	}

	p.println("Fetching data...")
	entries, err := collect(ctx, opts, pf)
	if err != nil {
		return err
	}
	p.printf("Fetched %d events...\n", entries.Len())

	details := scraper.NewCached(scraper.New(cfg.Detail.Timeout), cfg.Detail.CacheTTL)
	enriched := enricher.New(details, cfg.Enricher.Workers).
		WithMetrics(opts.metrics).
		Enrich(ctx, entries)
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("populate interrupted: %w", err)
	}
	events := sortedEvents(enriched)
	localize(events, cfg.Location())

	var imagePaths map[string]string
	if cfg.Images.Enabled && !pf.noImages {
		p.println("Downloading images...")
		downloader := storage.NewImageDownloader(dataDir, cfg.Images.Timeout)
		imagePaths = downloader.DownloadAll(ctx, events, cfg.Enricher.Workers)
	}

	p.println("Populating the table...")
	if err := store.ReplaceEvents(ctx, events, imagePaths); err != nil {
		return err
	}
	opts.metrics.StoredEvents.Set(float64(len(events)))

	logger.Info("Populate finished", logger.Fields{
		"events": len(events),
		"images": len(imagePaths),
	})
	p.printf("Stored %d events\n", len(events))

	diff := event.Diff(previous, events)
	p.printf("New: %d, changed: %d, gone: %d\n", len(diff.NewEvents), len(diff.Changes), len(diff.Removed))
	for _, c := range diff.Changes {
		logger.Debug("Event changed", logger.Fields{
			"id":   c.EventID,
			"type": c.ChangeType,
			"old":  c.OldValue,
			"new":  c.NewValue,
		})
	}

	if pf.metricsFile != "" {
		if err := opts.metrics.WriteMetrics(pf.metricsFile); err != nil {
			return fmt.Errorf("writing metrics: %w", err)
		}
	}
	return nil
}

// collect walks the feed in the direction selected by the flags.
// Hitting the consecutive failure cap keeps the entries gathered so far.
func collect(ctx context.Context, opts *options, pf populateFlags) (event.EntrySet, error) {
	cfg := opts.cfg
	fetcher := feed.New(cfg.Feed.BaseURL, cfg.Feed.Timeout, cfg.Feed.Delay).WithMetrics(opts.metrics)
	walker := pager.New(fetcher).WithClock(opts.clock).WithMetrics(opts.metrics)
	walker.MaxConsecutiveFailures = cfg.Pager.MaxConsecutiveFailures

	var (
		entries event.EntrySet
		err     error
	)
	switch {
	case pf.all:
		entries, err = walker.CollectAll(ctx)
	case pf.past:
		entries, err = walker.CollectPast(ctx)
	default:
		entries, err = walker.CollectUpcoming(ctx)
	}

	if errors.Is(err, pager.ErrTooManyFailures) {
		logger.Warn("Walk stopped early", logger.Fields{
			"error":   err.Error(),
			"entries": entries.Len(),
		})
		return entries, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetching calendar: %w", err)
	}
	return entries, nil
}

// previousEvents loads what the last run stored, keyed by ID
func previousEvents(ctx context.Context, store *storage.Store) (map[string]*event.EnrichedEvent, error) {
	rows, err := store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading previous events: %w", err)
	}
	previous := make(map[string]*event.EnrichedEvent, len(rows))
	for _, row := range rows {
		previous[row.EventID] = row.Enriched()
	}
	return previous, nil
}

// localize moves start times into loc so stored dates and compare_date
// follow the cinema's wall clock whatever zone the feed used
func localize(events []*event.EnrichedEvent, loc *time.Location) {
	for _, evt := range events {
		if evt.Start.IsZero() {
			continue
		}
		evt.Start = evt.Start.In(loc)
		evt.Date = event.FormatDate(evt.Start)
	}
}

// sortedEvents orders enriched events by start time
func sortedEvents(m map[string]*event.EnrichedEvent) []*event.EnrichedEvent {
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	events := make([]*event.EnrichedEvent, 0, len(m))
	for _, id := range ids {
		events = append(events, m[id])
	}
	sortEvents(events, SortByDate)
	return events
}

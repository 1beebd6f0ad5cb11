package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pfrederiksen/elcairo-events/internal/calendar"
	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/storage"
)

func newExportCmd(opts *options) *cobra.Command {
	var (
		output string
		past   bool
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export stored showings as an .ics calendar",
		Long: `Write the showings in the database as an iCalendar file.
Upcoming showings are exported by default; use --past or --all to widen the
selection. An output of "-" writes to standard output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.OpenExisting(opts.cfg.Storage.DataDir)
			if err != nil {
				return fmt.Errorf("initializing storage: %w", err)
			}
			defer store.Close()

			now := event.CompareDate(opts.clock())
			r := dateRange{min: now, max: storage.MaxCompareDate}
			switch {
			case all:
				r = dateRange{min: 0, max: storage.MaxCompareDate}
			case past:
				r = dateRange{min: 1, max: now}
			}

			rows, err := store.Query(cmd.Context(), r.min, r.max, storage.Ascending)
			if err != nil {
				return err
			}
			events := make([]*event.EnrichedEvent, 0, len(rows))
			for _, row := range rows {
				events = append(events, row.Enriched())
			}

			if output == "-" {
				return calendar.Write(cmd.OutOrStdout(), events)
			}
			if err := writeCalendarFile(output, events); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d events to %s\n", len(events), output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output .ics file, or - for stdout (required)")
	cmd.Flags().BoolVar(&past, "past", false, "Export past showings")
	cmd.Flags().BoolVar(&all, "all", false, "Export every stored showing")
	_ = cmd.MarkFlagRequired("output")
	cmd.MarkFlagsMutuallyExclusive("past", "all")
	return cmd
}

func writeCalendarFile(path string, events []*event.EnrichedEvent) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := calendar.Write(f, events); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

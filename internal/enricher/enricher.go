package enricher

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/factsheet"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
	"github.com/pfrederiksen/elcairo-events/internal/scraper"
)

// Workers is the default number of concurrent detail fetches
const Workers = 4

// Enricher merges calendar entries with their detail pages
type Enricher struct {
	details scraper.Fetcher
	workers int
	metrics *logger.Metrics
}

// New creates an Enricher that fetches details through f.
// A workers value below 1 falls back to Workers.
func New(f scraper.Fetcher, workers int) *Enricher {
	if workers < 1 {
		workers = Workers
	}
	return &Enricher{
		details: f,
		workers: workers,
		metrics: logger.DefaultMetrics(),
	}
}

// WithMetrics replaces the metrics the enricher reports to
func (e *Enricher) WithMetrics(m *logger.Metrics) *Enricher {
	e.metrics = m
	return e
}

// Enrich produces one event per entry, keyed by entry ID.
// A failed detail fetch leaves that event's detail fields empty and never
// affects the others. When ctx is canceled, entries not yet started are
// returned without detail fields.
func (e *Enricher) Enrich(ctx context.Context, entries event.EntrySet) map[string]*event.EnrichedEvent {
	out := make(map[string]*event.EnrichedEvent, entries.Len())
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(e.workers)

	for _, entry := range entries.Entries() {
		g.Go(func() error {
			evt := e.enrichOne(ctx, entry)
			mu.Lock()
			out[evt.ID] = evt
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	logger.Debug("Enrichment finished", logger.Fields{
		"entries": entries.Len(),
		"events":  len(out),
	})
	return out
}

// EnrichOne enriches a single entry
func (e *Enricher) EnrichOne(ctx context.Context, entry event.CalendarEntry) *event.EnrichedEvent {
	return e.enrichOne(ctx, entry)
}

func (e *Enricher) enrichOne(ctx context.Context, entry event.CalendarEntry) *event.EnrichedEvent {
	evt := event.NewEnrichedEvent(entry)
	if entry.DetailURL == "" {
		e.metrics.DetailFetches.WithLabelValues("skipped").Inc()
		return evt
	}
	if ctx.Err() != nil {
		e.metrics.DetailFetches.WithLabelValues("skipped").Inc()
		return evt
	}

	page := e.details.FetchDetail(ctx, entry.DetailURL)
	if page == nil {
		e.metrics.DetailFetches.WithLabelValues("failed").Inc()
		return evt
	}
	e.metrics.DetailFetches.WithLabelValues("ok").Inc()

	evt.Synopsis = page.Synopsis()
	evt.Cost = page.Cost()
	evt.FactSheet = factsheet.Parse(page.FactSheetBlock())
	return evt
}

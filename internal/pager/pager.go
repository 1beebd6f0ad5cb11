// Package pager walks the monthly calendar feed forward or backward from the
// current month and merges the entries into one deduplicated set.
//
// A walk stops at the first month whose fetch succeeds with zero entries.
// Months that fail are skipped, never taken as the end of the walk.
package pager

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/feed"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

// ErrTooManyFailures ends a walk when the consecutive failure cap is reached
var ErrTooManyFailures = errors.New("too many consecutive failed months")

// MonthFetcher retrieves one month of calendar entries
type MonthFetcher interface {
	FetchMonth(ctx context.Context, year, month int) feed.MonthResult
}

// Direction is the way a walk moves through the calendar
type Direction int

const (
	Forward Direction = iota
	Backward
)

func (d Direction) String() string {
	if d == Backward {
		return "past"
	}
	return "upcoming"
}

// Walker drives a MonthFetcher across consecutive months
type Walker struct {
	fetcher MonthFetcher
	now     func() time.Time
	metrics *logger.Metrics

	// MaxConsecutiveFailures caps a run of failed months; zero means unbounded.
	MaxConsecutiveFailures int
}

// New creates a Walker using the wall clock
func New(fetcher MonthFetcher) *Walker {
	return &Walker{
		fetcher: fetcher,
		now:     time.Now,
		metrics: logger.DefaultMetrics(),
	}
}

// WithClock replaces the clock that defines "now"
func (w *Walker) WithClock(now func() time.Time) *Walker {
	w.now = now
	return w
}

// WithMetrics replaces the metrics the walker reports to
func (w *Walker) WithMetrics(m *logger.Metrics) *Walker {
	w.metrics = m
	return w
}

// CollectUpcoming gathers entries starting at or after now
func (w *Walker) CollectUpcoming(ctx context.Context) (event.EntrySet, error) {
	now := w.now()
	return w.walk(ctx, Forward, now, func(e event.CalendarEntry) bool {
		return e.IsUpcoming(now)
	})
}

// CollectPast gathers entries starting at or before now
func (w *Walker) CollectPast(ctx context.Context) (event.EntrySet, error) {
	now := w.now()
	return w.walk(ctx, Backward, now, func(e event.CalendarEntry) bool {
		return e.IsPast(now)
	})
}

// CollectAll is the union of CollectPast and CollectUpcoming.
// A past walk stopped by the failure cap does not prevent the upcoming walk;
// the errors of both walks are joined.
func (w *Walker) CollectAll(ctx context.Context) (event.EntrySet, error) {
	all, pastErr := w.CollectPast(ctx)
	if ctx.Err() != nil {
		return all, pastErr
	}
	upcoming, err := w.CollectUpcoming(ctx)
	all.Merge(upcoming)
	return all, errors.Join(pastErr, err)
}

func (w *Walker) walk(ctx context.Context, dir Direction, now time.Time, keep func(event.CalendarEntry) bool) (event.EntrySet, error) {
	defer w.metrics.ObserveWalk(dir.String(), time.Now())

	result := make(event.EntrySet)
	year, month := now.Year(), int(now.Month())
	failures := 0
	months := 0

	for {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		fetched := w.fetcher.FetchMonth(ctx, year, month)
		months++

		if fetched.Failed {
			failures++
			logger.Warn("Skipping failed month", logger.Fields{
				"direction": dir.String(),
				"year":      year,
				"month":     month,
				"failures":  failures,
			})
			if w.MaxConsecutiveFailures > 0 && failures >= w.MaxConsecutiveFailures {
				return result, fmt.Errorf("walking %s at %04d-%02d: %w", dir, year, month, ErrTooManyFailures)
			}
			year, month = step(dir, year, month)
			continue
		}
		failures = 0

		if fetched.Entries.Len() == 0 {
			break
		}

		result.Merge(fetched.Entries.Filter(keep))
		year, month = step(dir, year, month)
	}

	logger.Info("Walk finished", logger.Fields{
		"direction": dir.String(),
		"months":    months,
		"entries":   result.Len(),
	})
	return result, nil
}

// step moves one month in dir, wrapping year boundaries
func step(dir Direction, year, month int) (int, int) {
	if dir == Backward {
		if month == 1 {
			return year - 1, 12
		}
		return year, month - 1
	}
	if month == 12 {
		return year + 1, 1
	}
	return year, month + 1
}

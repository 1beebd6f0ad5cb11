package pager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/feed"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

// scriptedFetcher returns its results in call order and records the months asked for.
// Once the script is exhausted it returns empty months.
type scriptedFetcher struct {
	script []feed.MonthResult
	calls  []string
}

func (s *scriptedFetcher) FetchMonth(_ context.Context, year, month int) feed.MonthResult {
	s.calls = append(s.calls, fmt.Sprintf("%04d-%02d", year, month))
	if len(s.calls) > len(s.script) {
		return feed.MonthResult{Entries: event.EntrySet{}}
	}
	return s.script[len(s.calls)-1]
}

var now = time.Date(2026, 11, 15, 12, 0, 0, 0, time.UTC)

func entry(id string, offset time.Duration) event.CalendarEntry {
	return event.CalendarEntry{ID: id, Title: id, Start: now.Add(offset)}
}

func month(entries ...event.CalendarEntry) feed.MonthResult {
	return feed.MonthResult{Entries: event.NewEntrySet(entries...)}
}

func failed() feed.MonthResult {
	return feed.MonthResult{Entries: event.EntrySet{}, Failed: true}
}

func empty() feed.MonthResult {
	return feed.MonthResult{Entries: event.EntrySet{}}
}

func newWalker(f MonthFetcher) *Walker {
	return New(f).WithClock(func() time.Time { return now }).WithMetrics(logger.NewMetrics())
}

func ids(s event.EntrySet) []string {
	out := make([]string, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func TestCollectUpcoming(t *testing.T) {
	day := 24 * time.Hour
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(entry("past-nov", -2*day), entry("nov", 3*day)),
		month(entry("dec", 20*day)),
		month(entry("jan", 50*day), entry("jan-2", 55*day)),
		empty(),
	}}

	got, err := newWalker(f).CollectUpcoming(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"dec", "jan", "jan-2", "nov"}, ids(got))
	assert.Equal(t, []string{"2026-11", "2026-12", "2027-01", "2027-02"}, f.calls)
	for _, e := range got {
		assert.False(t, e.Start.Before(now), "upcoming set contains %s starting before now", e.ID)
	}
}

func TestCollectPast(t *testing.T) {
	day := 24 * time.Hour
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(entry("nov", -2*day), entry("future-nov", 3*day)),
		month(entry("oct", -30*day)),
		empty(),
	}}

	got, err := newWalker(f).CollectPast(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"nov", "oct"}, ids(got))
	assert.Equal(t, []string{"2026-11", "2026-10", "2026-09"}, f.calls)
}

func TestWalk_FailedMonthsDoNotTerminate(t *testing.T) {
	day := 24 * time.Hour
	clean := &scriptedFetcher{script: []feed.MonthResult{
		month(entry("a", day)),
		month(entry("b", 40*day)),
		empty(),
	}}
	want, err := newWalker(clean).CollectUpcoming(context.Background())
	require.NoError(t, err)

	for _, n := range []int{1, 2, 5, 25} {
		t.Run(fmt.Sprintf("%d failures", n), func(t *testing.T) {
			script := []feed.MonthResult{month(entry("a", day))}
			for i := 0; i < n; i++ {
				script = append(script, failed())
			}
			script = append(script, month(entry("b", 40*day)), empty())

			f := &scriptedFetcher{script: script}
			got, err := newWalker(f).CollectUpcoming(context.Background())
			require.NoError(t, err)

			assert.Equal(t, ids(want), ids(got))
			assert.Len(t, f.calls, n+3)
		})
	}
}

func TestWalk_FailureBeforeFirstMonth(t *testing.T) {
	f := &scriptedFetcher{script: []feed.MonthResult{
		failed(),
		failed(),
		month(entry("x", 60*24*time.Hour)),
		empty(),
	}}

	got, err := newWalker(f).CollectUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, ids(got))
}

func TestWalk_EmptyFilteredMonthContinues(t *testing.T) {
	// A month whose entries are all filtered out is not terminal
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(entry("old", -time.Hour)),
		month(entry("new", 30*24*time.Hour)),
		empty(),
	}}

	got, err := newWalker(f).CollectUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"new"}, ids(got))
}

func TestWalk_DuplicatesAcrossMonths(t *testing.T) {
	spanning := entry("spanning", 10*24*time.Hour)
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(spanning),
		month(spanning, entry("other", 40*24*time.Hour)),
		empty(),
	}}

	got, err := newWalker(f).CollectUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, got.Len())
}

func TestWalk_EntriesWithoutStartAreDropped(t *testing.T) {
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(event.CalendarEntry{ID: "undated"}, entry("dated", time.Hour)),
		empty(),
	}}

	got, err := newWalker(f).CollectUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"dated"}, ids(got))
}

func TestWalk_FailureCap(t *testing.T) {
	f := &scriptedFetcher{script: []feed.MonthResult{
		month(entry("a", time.Hour)),
		failed(), failed(), failed(), failed(),
		month(entry("b", 90*24*time.Hour)),
		empty(),
	}}

	w := newWalker(f)
	w.MaxConsecutiveFailures = 3

	got, err := w.CollectUpcoming(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrTooManyFailures))
	assert.Equal(t, []string{"a"}, ids(got), "partial result is returned")
	assert.Len(t, f.calls, 4)
}

func TestWalk_FailureCapResetsOnSuccess(t *testing.T) {
	f := &scriptedFetcher{script: []feed.MonthResult{
		failed(), failed(),
		month(entry("a", time.Hour)),
		failed(), failed(),
		month(entry("b", 200*24*time.Hour)),
		empty(),
	}}

	w := newWalker(f)
	w.MaxConsecutiveFailures = 3

	got, err := w.CollectUpcoming(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(got))
}

func TestWalk_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &cancelingFetcher{cancel: cancel, after: 3}

	_, err := newWalker(f).CollectUpcoming(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 3, f.calls)
}

// cancelingFetcher always fails and cancels the walk after a number of calls
type cancelingFetcher struct {
	cancel func()
	after  int
	calls  int
}

func (c *cancelingFetcher) FetchMonth(context.Context, int, int) feed.MonthResult {
	c.calls++
	if c.calls == c.after {
		c.cancel()
	}
	return failed()
}

func TestCollectAll(t *testing.T) {
	atNow := entry("at-now", 0)
	f := &monthMapFetcher{months: map[string]feed.MonthResult{
		"2026-11": month(atNow, entry("nov-past", -time.Hour), entry("nov-next", time.Hour)),
		"2026-10": month(entry("oct", -30*24*time.Hour)),
		"2026-12": month(entry("dec", 30*24*time.Hour)),
	}}

	got, err := newWalker(f).CollectAll(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"at-now", "dec", "nov-next", "nov-past", "oct"}, ids(got))
}

func TestCollectAll_PastFailureCapStillWalksForward(t *testing.T) {
	f := &monthMapFetcher{months: map[string]feed.MonthResult{
		"2026-11": month(entry("nov-past", -time.Hour), entry("nov-next", time.Hour)),
		"2026-10": failed(),
		"2026-09": failed(),
		"2026-12": month(entry("dec", 30*24*time.Hour)),
	}}

	w := newWalker(f)
	w.MaxConsecutiveFailures = 2

	got, err := w.CollectAll(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTooManyFailures)
	assert.Equal(t, []string{"dec", "nov-next", "nov-past"}, ids(got))
}

func TestCollectAll_ContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	f := &cancelingFetcher{cancel: cancel, after: 2}

	_, err := newWalker(f).CollectAll(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, f.calls, "upcoming walk is skipped once canceled")
}

// monthMapFetcher serves months from a map; unknown months are empty
type monthMapFetcher struct {
	months map[string]feed.MonthResult
}

func (m *monthMapFetcher) FetchMonth(_ context.Context, year, month int) feed.MonthResult {
	if r, ok := m.months[fmt.Sprintf("%04d-%02d", year, month)]; ok {
		return r
	}
	return empty()
}

func TestStep(t *testing.T) {
	tests := []struct {
		dir                 Direction
		year, month         int
		wantYear, wantMonth int
	}{
		{Forward, 2026, 11, 2026, 12},
		{Forward, 2026, 12, 2027, 1},
		{Backward, 2026, 2, 2026, 1},
		{Backward, 2026, 1, 2025, 12},
	}

	for _, tt := range tests {
		y, m := step(tt.dir, tt.year, tt.month)
		assert.Equal(t, tt.wantYear, y)
		assert.Equal(t, tt.wantMonth, m)
	}
}

func TestDirectionString(t *testing.T) {
	assert.Equal(t, "upcoming", Forward.String())
	assert.Equal(t, "past", Backward.String())
}

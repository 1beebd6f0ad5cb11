package feed

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

const (
	BaseURL   = "https://elcairocinepublico.gob.ar/cartelera-de-sala"
	UserAgent = "elcairo-cli/1.0 (github.com/pfrederiksen/elcairo-events)"
	Timeout   = 10 * time.Second
	Delay     = 500 * time.Millisecond
)

// MonthResult is the outcome of one month fetch. Failed distinguishes a
// month that could not be retrieved or parsed from a month with no entries.
type MonthResult struct {
	Entries event.EntrySet
	Failed  bool
}

// Fetcher retrieves monthly calendar feeds
type Fetcher struct {
	client  *http.Client
	baseURL string
	limiter *rate.Limiter
	metrics *logger.Metrics
}

// New creates a Fetcher. Consecutive requests are spaced by at least delay.
func New(baseURL string, timeout, delay time.Duration) *Fetcher {
	limit := rate.Inf
	if delay > 0 {
		limit = rate.Every(delay)
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		metrics: logger.DefaultMetrics(),
	}
}

// WithMetrics replaces the metrics the fetcher reports to
func (f *Fetcher) WithMetrics(m *logger.Metrics) *Fetcher {
	f.metrics = m
	return f
}

// MonthURL returns the feed location of a year-month
func (f *Fetcher) MonthURL(year, month int) string {
	return fmt.Sprintf("%s/%04d-%02d/?ical=1", f.baseURL, year, month)
}

// FetchMonth retrieves and parses one month of the calendar.
// It never returns an error: transport and parse failures both yield
// a result with Failed set and no entries.
func (f *Fetcher) FetchMonth(ctx context.Context, year, month int) MonthResult {
	fields := logger.Fields{"year": year, "month": month}

	if err := f.limiter.Wait(ctx); err != nil {
		logger.Warn("Rate limiter wait aborted", fields)
		return f.failed()
	}

	body, err := f.get(ctx, f.MonthURL(year, month))
	if err != nil {
		logger.Warn("Fetching month failed", withError(fields, err))
		return f.failed()
	}
	defer body.Close()

	entries, err := ParseCalendar(body)
	if err != nil {
		logger.Warn("Parsing month failed", withError(fields, err))
		return f.failed()
	}

	fields["entries"] = entries.Len()
	logger.Debug("Fetched month", fields)
	if entries.Len() == 0 {
		f.metrics.MonthFetches.WithLabelValues("empty").Inc()
	} else {
		f.metrics.MonthFetches.WithLabelValues("ok").Inc()
	}
	return MonthResult{Entries: entries}
}

func (f *Fetcher) failed() MonthResult {
	f.metrics.MonthFetches.WithLabelValues("failed").Inc()
	return MonthResult{Entries: event.EntrySet{}, Failed: true}
}

func (f *Fetcher) get(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return resp.Body, nil
}

func withError(fields logger.Fields, err error) logger.Fields {
	out := make(logger.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out["error"] = err.Error()
	return out
}

// ErrNoCalendar is returned when a document is not a complete VCALENDAR
var ErrNoCalendar = errors.New("document is not a complete calendar")

// ParseCalendar reads an iCalendar document and converts each VEVENT into
// a CalendarEntry. A body cut off before END:VCALENDAR is rejected.
func ParseCalendar(r io.Reader) (event.EntrySet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading calendar: %w", err)
	}

	trimmed := bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	upper := bytes.ToUpper(trimmed)
	if !bytes.HasPrefix(upper, []byte("BEGIN:VCALENDAR")) || !bytes.HasSuffix(upper, []byte("END:VCALENDAR")) {
		return nil, ErrNoCalendar
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(append(trimmed, '\r', '\n')))
	if err != nil {
		return nil, fmt.Errorf("parsing calendar: %w", err)
	}
	if cal == nil {
		return nil, ErrNoCalendar
	}

	entries := make(event.EntrySet)
	for _, vevent := range cal.Events() {
		entries.Add(toEntry(vevent))
	}
	return entries, nil
}

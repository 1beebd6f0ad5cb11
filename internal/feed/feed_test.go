package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/elcairo-events/internal/logger"
)

const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//EN\r\nEND:VCALENDAR\r\n"

func loadFixture(t *testing.T) string {
	t.Helper()
	data, err := os.ReadFile("testdata/2026-03.ics")
	require.NoError(t, err)
	return string(data)
}

func newTestFetcher(url string) *Fetcher {
	return New(url, 2*time.Second, 0).WithMetrics(logger.NewMetrics())
}

func TestMonthURL(t *testing.T) {
	f := New(BaseURL+"/", Timeout, Delay)

	assert.Equal(t, "https://elcairocinepublico.gob.ar/cartelera-de-sala/2026-03/?ical=1", f.MonthURL(2026, 3))
	assert.Equal(t, "https://elcairocinepublico.gob.ar/cartelera-de-sala/0999-12/?ical=1", f.MonthURL(999, 12))
}

func TestFetchMonth(t *testing.T) {
	fixture := loadFixture(t)

	tests := []struct {
		name        string
		body        string
		statusCode  int
		wantFailed  bool
		wantEntries int
		wantResult  string
	}{
		{
			name:        "month with shows",
			body:        fixture,
			statusCode:  http.StatusOK,
			wantEntries: 3,
			wantResult:  "ok",
		},
		{
			name:       "empty month",
			body:       emptyCalendar,
			statusCode: http.StatusOK,
			wantResult: "empty",
		},
		{
			name:       "HTTP error",
			statusCode: http.StatusInternalServerError,
			wantFailed: true,
			wantResult: "failed",
		},
		{
			name:       "not found",
			statusCode: http.StatusNotFound,
			wantFailed: true,
			wantResult: "failed",
		},
		{
			name:       "truncated calendar",
			body:       "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nBEGIN:VEVENT\r\nUID:x\r\n",
			statusCode: http.StatusOK,
			wantFailed: true,
			wantResult: "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotPath = r.URL.Path + "?" + r.URL.RawQuery
				assert.Contains(t, r.Header.Get("User-Agent"), "elcairo")
				w.WriteHeader(tt.statusCode)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			f := newTestFetcher(server.URL)
			result := f.FetchMonth(context.Background(), 2026, 3)

			assert.Equal(t, "/2026-03/?ical=1", gotPath)
			assert.Equal(t, tt.wantFailed, result.Failed)
			assert.Equal(t, tt.wantEntries, result.Entries.Len())
			assert.NotNil(t, result.Entries)
			assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.MonthFetches.WithLabelValues(tt.wantResult)), 0.001)
		})
	}
}

func TestFetchMonth_ConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := newTestFetcher(url).FetchMonth(context.Background(), 2026, 3)

	assert.True(t, result.Failed)
	assert.Zero(t, result.Entries.Len())
}

func TestFetchMonth_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := New(server.URL, 50*time.Millisecond, 0).WithMetrics(logger.NewMetrics())
	result := f.FetchMonth(context.Background(), 2026, 3)

	assert.True(t, result.Failed)
}

func TestFetchMonth_RateLimited(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(emptyCalendar))
	}))
	defer server.Close()

	f := New(server.URL, time.Second, 100*time.Millisecond).WithMetrics(logger.NewMetrics())

	start := time.Now()
	for i := 0; i < 3; i++ {
		f.FetchMonth(context.Background(), 2026, i+1)
	}

	assert.EqualValues(t, 3, calls.Load())
	assert.GreaterOrEqual(t, time.Since(start), 190*time.Millisecond)
}

func TestFetchMonth_CanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(emptyCalendar))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result := newTestFetcher(server.URL).FetchMonth(ctx, 2026, 3)
	assert.True(t, result.Failed)
}

func TestParseCalendar(t *testing.T) {
	entries, err := ParseCalendar(strings.NewReader(loadFixture(t)))
	require.NoError(t, err)
	require.Equal(t, 3, entries.Len())

	cienaga, ok := entries["10234-1773529200-1773536400@elcairocinepublico.gob.ar"]
	require.True(t, ok)
	assert.Equal(t, "La ciénaga", cienaga.Title)
	assert.Equal(t, "https://elcairocinepublico.gob.ar/pelicula/la-cienaga/2026-03-14/", cienaga.DetailURL)
	assert.True(t, cienaga.Start.Equal(time.Date(2026, 3, 14, 23, 0, 0, 0, time.UTC)), "start = %v", cienaga.Start)
	require.Len(t, cienaga.Attachments, 2)
	assert.Equal(t, "image/png", cienaga.Attachments[0].FmtType)
	assert.Equal(t, "https://elcairocinepublico.gob.ar/wp-content/uploads/la-cienaga.jpg", cienaga.Attachments[1].Value)

	zama := entries["10240-1774126800-1774134000@elcairocinepublico.gob.ar"]
	assert.Equal(t, "Zama, versión restaurada", zama.Title)
	assert.Empty(t, zama.Attachments)

	// The third event has no UID and gets a stable generated one
	var generated string
	for id := range entries {
		if !strings.HasSuffix(id, "@elcairocinepublico.gob.ar") {
			generated = id
		}
	}
	require.NotEmpty(t, generated)
	again, err := ParseCalendar(strings.NewReader(loadFixture(t)))
	require.NoError(t, err)
	assert.Contains(t, again, generated)
	assert.Empty(t, entries[generated].DetailURL)
}

func TestParseCalendar_Malformed(t *testing.T) {
	tests := []string{
		"BEGIN:VCALENDAR\r\nVERSION:2.0\r\n",
		"BEGIN:VEVENT\r\nEND:VEVENT\r\n",
	}
	for _, in := range tests {
		_, err := ParseCalendar(strings.NewReader(in))
		assert.Error(t, err, "input %q", in)
	}
}

func TestUnescapeText(t *testing.T) {
	tests := map[string]string{
		`plain`:       "plain",
		`a\, b\; c`:   "a, b; c",
		`line\nbreak`: "line\nbreak",
		`back\\slash`: `back\slash`,
		`trailing\`:   `trailing\`,
	}
	for in, want := range tests {
		assert.Equal(t, want, unescapeText(in), "unescapeText(%q)", in)
	}
}

package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

func sampleResult() *OutputResult {
	loc := time.FixedZone("ART", -3*3600)
	events := []*event.EnrichedEvent{
		{
			ID:        "a",
			Name:      "LA CIÉNAGA",
			Start:     time.Date(2026, 3, 14, 20, 0, 0, 0, loc),
			Synopsis:  "Verano en La Mandrágora.",
			Cost:      "General $3000",
			ImageURL:  "https://example.test/a.jpg",
			DetailURL: "https://example.test/evento/a/2026-03-14/",
			FactSheet: event.FactSheet{Direction: "Lucrecia Martel", Year: "2001"},
		},
	}
	return &OutputResult{
		GeneratedAt: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC),
		Query:       "today",
		EventCount:  len(events),
		Events:      events,
	}
}

func TestWriteOutputText(t *testing.T) {
	tests := []struct {
		name       string
		opts       TextOptions
		contains   []string
		notContain []string
	}{
		{
			name: "extra info",
			opts: TextOptions{ExtraInfo: true},
			contains: []string{
				"LA CIÉNAGA    Sábado 14-03-2026 20:00",
				"Verano en La Mandrágora.",
				"Dirección: Lucrecia Martel",
				"Elenco: [Nothing to show...]",
				"Año: 2001",
				"Valor: General $3000",
				strings.Repeat("-", lineWidth),
				"Total: 1 events",
			},
			notContain: []string{"URL:", "https://example.test/a.jpg", strings.Repeat("*", lineWidth)},
		},
		{
			name:       "urls and separator",
			opts:       TextOptions{URLs: true, ImageURLs: true, Separator: true},
			contains:   []string{"URL: https://example.test/evento/a/2026-03-14/", "(https://example.test/a.jpg)", strings.Repeat("*", lineWidth)},
			notContain: []string{"Dirección:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, WriteOutput(&buf, sampleResult(), FormatText, tt.opts))
			out := buf.String()
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.notContain {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestWriteOutputEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, &OutputResult{}, FormatText, TextOptions{}))
	assert.Equal(t, "No events found.\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteOutput(&buf, &OutputResult{Query: "today"}, FormatJSON, TextOptions{}))
	assert.Contains(t, buf.String(), `"events": []`)
}

func TestWriteOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteOutput(&buf, sampleResult(), FormatJSON, TextOptions{}))

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "today", decoded["query"])
	assert.Equal(t, float64(1), decoded["event_count"])
}

func TestWriteOutputUnknownFormat(t *testing.T) {
	err := WriteOutput(&bytes.Buffer{}, sampleResult(), OutputFormat("xml"), TextOptions{})
	assert.Error(t, err)
}

func TestWrap(t *testing.T) {
	long := strings.Repeat("palabra ", 40)
	for _, line := range strings.Split(wrap(long, 10), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), lineWidth)
	}
	assert.Equal(t, "uno dos", wrap("  uno\n dos ", 0))
}

func TestNiceDate(t *testing.T) {
	assert.Equal(t, placeholder, niceDate(time.Time{}))
	assert.Equal(t, "Miércoles 01-04-2026 18:30", niceDate(time.Date(2026, 4, 1, 18, 30, 0, 0, time.UTC)))
}

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/factsheet"
)

// OutputFormat specifies the output format
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

const (
	lineWidth   = 120
	placeholder = "[Nothing to show...]"
)

// OutputResult contains data to be output
type OutputResult struct {
	GeneratedAt time.Time              `json:"generated_at"`
	Query       string                 `json:"query"`
	Filter      string                 `json:"filter,omitempty"`
	EventCount  int                    `json:"event_count"`
	Events      []*event.EnrichedEvent `json:"events"`
}

// TextOptions selects the optional sections of the text format
type TextOptions struct {
	ExtraInfo bool
	URLs      bool
	ImageURLs bool
	Separator bool
}

// WriteOutput writes the result in the specified format
func WriteOutput(w io.Writer, result *OutputResult, format OutputFormat, opts TextOptions) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, result)
	case FormatText:
		return writeText(w, result, opts)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// writeJSON outputs results as JSON
func writeJSON(w io.Writer, result *OutputResult) error {
	if result.Events == nil {
		result.Events = []*event.EnrichedEvent{}
	}
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// writeText outputs results as human-readable text
func writeText(w io.Writer, result *OutputResult, opts TextOptions) error {
	if result.EventCount == 0 {
		fmt.Fprintln(w, "No events found.")
		return nil
	}

	for _, evt := range result.Events {
		if opts.Separator {
			fmt.Fprintln(w, strings.Repeat("*", lineWidth))
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, center(fmt.Sprintf("%s    %s", orPlaceholder(evt.Name), niceDate(evt.Start))))

		if opts.ImageURLs {
			fmt.Fprintln(w)
			if evt.ImageURL == "" {
				fmt.Fprintln(w, placeholder)
			} else {
				fmt.Fprintln(w, center("("+evt.ImageURL+")"))
			}
		}

		fmt.Fprintln(w)
		fmt.Fprintln(w, wrap(orPlaceholder(evt.Synopsis), 0))

		if opts.ExtraInfo {
			fmt.Fprintln(w, strings.Repeat("-", lineWidth))
			for _, f := range factsheet.Fields {
				writeInfoLine(w, displayLabel(f), factsheet.Get(evt.FactSheet, f))
			}
			writeInfoLine(w, "Valor", evt.Cost)
			fmt.Fprintln(w, strings.Repeat("-", lineWidth))
		}

		if opts.URLs {
			if !opts.ExtraInfo {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "URL: %s\n", orPlaceholder(evt.DetailURL))
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total: %d events\n", result.EventCount)
	return nil
}

func writeInfoLine(w io.Writer, label, value string) {
	prefix := label + ": "
	fmt.Fprintf(w, "%s%s\n", prefix, wrap(orPlaceholder(value), len([]rune(prefix))))
}

// displayLabel renders a canonical fact sheet label in title case
func displayLabel(f factsheet.Field) string {
	label := []rune(strings.ToLower(factsheet.Label(f)))
	if len(label) == 0 {
		return ""
	}
	return strings.ToUpper(string(label[:1])) + string(label[1:])
}

var weekdays = [...]string{"Domingo", "Lunes", "Martes", "Miércoles", "Jueves", "Viernes", "Sábado"}

// niceDate formats a start time as "Sábado 14-03-2026 20:00"
func niceDate(t time.Time) string {
	if t.IsZero() {
		return placeholder
	}
	return weekdays[t.Weekday()] + " " + t.Format("02-01-2006 15:04")
}

func orPlaceholder(s string) string {
	if strings.TrimSpace(s) == "" {
		return placeholder
	}
	return s
}

func center(s string) string {
	pad := (lineWidth - len([]rune(s))) / 2
	if pad <= 0 {
		return s
	}
	return strings.Repeat(" ", pad) + s
}

// wrap breaks s into lines of at most lineWidth runes, the first of which
// already holds offset runes
func wrap(s string, offset int) string {
	var b strings.Builder
	width := offset
	for i, word := range strings.Fields(s) {
		n := len([]rune(word))
		if i > 0 {
			if width+1+n > lineWidth {
				b.WriteString("\n")
				width = 0
			} else {
				b.WriteString(" ")
				width++
			}
		}
		b.WriteString(word)
		width += n
	}
	return b.String()
}

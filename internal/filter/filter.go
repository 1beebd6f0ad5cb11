// Package filter narrows a list of showings down by text and weekday criteria.
//
// Text criteria are case- and accent-insensitive substring matches, so
// "cienaga" matches "LA CIÉNAGA". Within one criterion any value may match;
// every active criterion must match.
//
// Example usage:
//
//	// Dramas by Lucrecia Martel on weekends
//	f := filter.NewFilter()
//	f.Directors = []string{"martel"}
//	f.Genres = []string{"drama"}
//	f.WeekendsOnly = true
//
//	filtered := f.Apply(events)
package filter

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

// Filter represents showing filtering criteria
type Filter struct {
	// Title filtering (substring match)
	Titles []string `json:"titles,omitempty"`

	// Fact sheet filtering (substring match)
	Directors []string `json:"directors,omitempty"`
	Genres    []string `json:"genres,omitempty"`
	Origins   []string `json:"origins,omitempty"`

	// Weekend-only filtering (Saturday/Sunday)
	WeekendsOnly bool `json:"weekends_only,omitempty"`
}

// NewFilter creates a new empty filter with no active criteria.
// The filter will match all events until criteria are added.
func NewFilter() *Filter {
	return &Filter{}
}

// IsEmpty checks if the filter has any active criteria.
// Returns true if the filter would match all events.
func (f *Filter) IsEmpty() bool {
	return len(f.Titles) == 0 &&
		len(f.Directors) == 0 &&
		len(f.Genres) == 0 &&
		len(f.Origins) == 0 &&
		!f.WeekendsOnly
}

// Matches checks if an event matches all active filter criteria.
// An empty filter matches all events. Undated events never match
// WeekendsOnly.
func (f *Filter) Matches(evt *event.EnrichedEvent) bool {
	// Empty filter matches all events
	if f.IsEmpty() {
		return true
	}

	// Check weekends only
	if f.WeekendsOnly {
		if evt.Start.IsZero() {
			return false
		}
		weekday := evt.Start.Weekday()
		if weekday != time.Saturday && weekday != time.Sunday {
			return false
		}
	}

	return matchesAny(evt.Name, f.Titles) &&
		matchesAny(evt.FactSheet.Direction, f.Directors) &&
		matchesAny(evt.FactSheet.Genre, f.Genres) &&
		matchesAny(evt.FactSheet.Origin, f.Origins)
}

// Apply applies the filter to a list of events and returns only matching events.
// If the filter is empty, returns the original list unchanged.
func (f *Filter) Apply(events []*event.EnrichedEvent) []*event.EnrichedEvent {
	if f.IsEmpty() {
		return events
	}

	filtered := make([]*event.EnrichedEvent, 0, len(events))
	for _, evt := range events {
		if f.Matches(evt) {
			filtered = append(filtered, evt)
		}
	}
	return filtered
}

// String returns a human-readable description of the active filter criteria.
// Format: "Titles: zama | Genres: drama | Weekends only"
func (f *Filter) String() string {
	if f.IsEmpty() {
		return "No active filters"
	}

	var parts []string
	add := func(label string, values []string) {
		if len(values) > 0 {
			parts = append(parts, fmt.Sprintf("%s: %s", label, strings.Join(values, ", ")))
		}
	}
	add("Titles", f.Titles)
	add("Directors", f.Directors)
	add("Genres", f.Genres)
	add("Origins", f.Origins)
	if f.WeekendsOnly {
		parts = append(parts, "Weekends only")
	}

	return strings.Join(parts, " | ")
}

// matchesAny reports whether value contains one of needles.
// No needles means no constraint.
func matchesAny(value string, needles []string) bool {
	if len(needles) == 0 {
		return true
	}
	folded := Fold(value)
	for _, n := range needles {
		if strings.Contains(folded, Fold(n)) {
			return true
		}
	}
	return false
}

// Fold lowercases s and strips its diacritics
func Fold(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.ToLower(out)
}

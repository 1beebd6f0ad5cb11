package cli

import (
	"sort"
	"strings"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByDate SortOrder = "date"
	SortByName SortOrder = "name"
)

// sortEvents sorts a slice of events based on the specified sort order.
// Sorting is stable, so events with equal keys keep their relative order.
func sortEvents(events []*event.EnrichedEvent, sortOrder SortOrder) {
	switch sortOrder {
	case SortByDate:
		sort.SliceStable(events, func(i, j int) bool {
			return compareByDate(events[i], events[j])
		})
	case SortByName:
		sort.SliceStable(events, func(i, j int) bool {
			return strings.ToLower(events[i].Name) < strings.ToLower(events[j].Name)
		})
	}
}

// reverseEvents reverses events in place
func reverseEvents(events []*event.EnrichedEvent) {
	for i, j := 0, len(events)-1; i < j; i, j = i+1, j-1 {
		events[i], events[j] = events[j], events[i]
	}
}

// compareByDate compares two events by their start time
// Returns true if event i should come before event j
func compareByDate(i, j *event.EnrichedEvent) bool {
	// If both dates are valid, compare them
	if !i.Start.IsZero() && !j.Start.IsZero() {
		if !i.Start.Equal(j.Start) {
			return i.Start.Before(j.Start)
		}
		return strings.ToLower(i.Name) < strings.ToLower(j.Name)
	}

	// If only one date is valid, put the valid one first
	if !i.Start.IsZero() {
		return true
	}
	if !j.Start.IsZero() {
		return false
	}

	return strings.ToLower(i.Name) < strings.ToLower(j.Name)
}

package event

import (
	"sort"
)

// DiffResult contains the results of comparing two populate runs
type DiffResult struct {
	NewEvents []*EnrichedEvent
	Changes   []*EventChange
	Removed   []string // IDs of previous events absent from the current run
}

// EventChange represents a change detected in an event
type EventChange struct {
	EventID    string `json:"event_id"`
	ChangeType string `json:"change_type"` // "date", "name", "cost"
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
}

// Diff compares current events against the events of a previous run
func Diff(previous map[string]*EnrichedEvent, current []*EnrichedEvent) *DiffResult {
	result := &DiffResult{
		NewEvents: make([]*EnrichedEvent, 0),
	}

	seen := make(map[string]bool, len(current))
	for _, evt := range current {
		seen[evt.ID] = true

		// Check if this event exists in the previous run
		prev, exists := previous[evt.ID]
		if !exists {
			result.NewEvents = append(result.NewEvents, evt)
			continue
		}
		result.Changes = append(result.Changes, DetectChanges(prev, evt)...)
	}

	for id := range previous {
		if !seen[id] {
			result.Removed = append(result.Removed, id)
		}
	}

	// Sort for consistent output
	sort.Slice(result.NewEvents, func(i, j int) bool {
		if !result.NewEvents[i].Start.Equal(result.NewEvents[j].Start) {
			return result.NewEvents[i].Start.Before(result.NewEvents[j].Start)
		}
		return result.NewEvents[i].ID < result.NewEvents[j].ID
	})
	sort.Slice(result.Changes, func(i, j int) bool {
		if result.Changes[i].EventID != result.Changes[j].EventID {
			return result.Changes[i].EventID < result.Changes[j].EventID
		}
		return result.Changes[i].ChangeType < result.Changes[j].ChangeType
	})
	sort.Strings(result.Removed)

	return result
}

// DetectChanges compares two versions of one event and returns the
// differences in date, name and cost
func DetectChanges(previous, current *EnrichedEvent) []*EventChange {
	var changes []*EventChange

	add := func(kind, oldValue, newValue string) {
		if oldValue == newValue {
			return
		}
		changes = append(changes, &EventChange{
			EventID:    current.ID,
			ChangeType: kind,
			OldValue:   oldValue,
			NewValue:   newValue,
		})
	}

	// Compare instants, not renderings, so a zone change alone is no change
	if !previous.Start.Equal(current.Start) {
		add("date", previous.Date, current.Date)
	}
	add("name", previous.Name, current.Name)
	add("cost", previous.Cost, current.Cost)

	return changes
}

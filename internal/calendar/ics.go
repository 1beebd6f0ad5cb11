package calendar

import (
	"fmt"
	"io"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/factsheet"
)

const productID = "-//El Cairo Events//elcairo-events//ES"

// Build creates a calendar with one VEVENT per dated event.
// Events without a start time cannot be placed on a calendar and are left out.
func Build(events []*event.EnrichedEvent) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)

	now := time.Now().UTC()
	for _, evt := range events {
		if evt.Start.IsZero() {
			continue
		}
		e := cal.AddEvent(evt.ID)
		e.SetDtStampTime(now)
		e.SetStartAt(evt.Start)
		e.SetSummary(evt.Name)
		if desc := Description(evt); desc != "" {
			e.SetDescription(desc)
		}
		if evt.DetailURL != "" {
			e.SetURL(evt.DetailURL)
		}
		if evt.ImageURL != "" {
			e.AddAttachmentURL(evt.ImageURL, "image/jpeg")
		}
	}
	return cal
}

// Write serializes the calendar of events to w with CRLF line endings
func Write(w io.Writer, events []*event.EnrichedEvent) error {
	if err := Build(events).SerializeTo(w, ical.WithNewLineWindows); err != nil {
		return fmt.Errorf("writing calendar: %w", err)
	}
	return nil
}

// Description joins the synopsis, the fact sheet and the ticket price
func Description(evt *event.EnrichedEvent) string {
	var parts []string
	if evt.Synopsis != "" {
		parts = append(parts, evt.Synopsis)
	}
	if sheet := factsheet.Format(evt.FactSheet); sheet != "" {
		parts = append(parts, strings.TrimSuffix(sheet, "\n"))
	}
	if evt.Cost != "" {
		parts = append(parts, evt.Cost)
	}
	return strings.Join(parts, "\n\n")
}

package main

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/pfrederiksen/elcairo-events/internal/calendar"
	"github.com/pfrederiksen/elcairo-events/internal/event"
	"github.com/pfrederiksen/elcairo-events/internal/feed"
)

func main() {
	// Create a sample showing
	entry := event.CalendarEntry{
		ID:        event.GenerateID("La ciénaga", time.Now().AddDate(0, 0, 7)),
		Title:     "La ciénaga",
		Start:     time.Now().AddDate(0, 0, 7).Truncate(time.Hour),
		DetailURL: "https://elcairocinepublico.gob.ar/evento/la-cienaga/",
	}
	evt := event.NewEnrichedEvent(entry)
	evt.Synopsis = "Verano en La Mandrágora. Mecha y su familia pasan los días junto a una pileta."
	evt.FactSheet = event.FactSheet{Direction: "Lucrecia Martel", Year: "2001"}

	// Generate .ics content
	var buf bytes.Buffer
	if err := calendar.Write(&buf, []*event.EnrichedEvent{evt}); err != nil {
		fmt.Fprintf(os.Stderr, "Error generating calendar: %v\n", err)
		os.Exit(1)
	}

	// Read it back the way the feed does
	entries, err := feed.ParseCalendar(bytes.NewReader(buf.Bytes()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generated calendar does not parse: %v\n", err)
		os.Exit(1)
	}

	// Write to file (owner read/write only)
	filename := "test-elcairo-event.ics"
	if err := os.WriteFile(filename, buf.Bytes(), 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Generated calendar file: %s (%d event parsed back)\n\n", filename, entries.Len())
	fmt.Println("Test it by:")
	fmt.Println("1. Open the .ics file with your calendar app (double-click)")
	fmt.Println("2. Or import it into Google Calendar, Apple Calendar, or Outlook")
	fmt.Println("\nFile contents preview:")
	fmt.Println("---")
	fmt.Println(buf.String())
}

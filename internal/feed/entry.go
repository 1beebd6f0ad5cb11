package feed

import (
	"strings"

	ical "github.com/arran4/golang-ical"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

const fmtTypeParam = "FMTTYPE"

// toEntry maps a VEVENT onto a CalendarEntry
func toEntry(vevent *ical.VEvent) event.CalendarEntry {
	entry := event.CalendarEntry{
		Title:     textProperty(vevent, ical.ComponentPropertySummary),
		DetailURL: strings.TrimSpace(rawProperty(vevent, ical.ComponentPropertyUrl)),
	}

	if rawProperty(vevent, ical.ComponentPropertyDtStart) != "" {
		if start, err := vevent.GetStartAt(); err == nil {
			entry.Start = start
		}
	}

	for _, prop := range vevent.Properties {
		if !strings.EqualFold(prop.IANAToken, string(ical.ComponentPropertyAttach)) {
			continue
		}
		entry.Attachments = append(entry.Attachments, event.Attachment{
			FmtType: paramValue(prop.ICalParameters, fmtTypeParam),
			Value:   prop.Value,
		})
	}

	entry.ID = strings.TrimSpace(rawProperty(vevent, ical.ComponentPropertyUniqueId))
	if entry.ID == "" {
		entry.ID = event.GenerateID(entry.Title, entry.Start)
	}

	return entry
}

func rawProperty(vevent *ical.VEvent, name ical.ComponentProperty) string {
	prop := vevent.GetProperty(name)
	if prop == nil {
		return ""
	}
	return prop.Value
}

func textProperty(vevent *ical.VEvent, name ical.ComponentProperty) string {
	return unescapeText(strings.TrimSpace(rawProperty(vevent, name)))
}

func paramValue(params map[string][]string, key string) string {
	for k, values := range params {
		if strings.EqualFold(k, key) && len(values) > 0 {
			return values[0]
		}
	}
	return ""
}

// unescapeText reverses RFC 5545 TEXT escaping
func unescapeText(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch s[i] {
		case 'n', 'N':
			b.WriteByte('\n')
		default: // \\ \, \;
			b.WriteByte(s[i])
		}
	}
	return b.String()
}

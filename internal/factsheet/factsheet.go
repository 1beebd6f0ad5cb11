// Package factsheet turns the free-text technical sheet of a detail page into
// an event.FactSheet.
//
// Lines of the form "LABEL: value" are matched against a static table of
// Spanish labels, with and without accents. Unknown labels and lines that do
// not match are skipped; when a label repeats, the last value wins.
package factsheet

import (
	"regexp"
	"strings"

	"github.com/pfrederiksen/elcairo-events/internal/event"
)

// Field is the canonical name of a fact sheet field
type Field string

const (
	Direction Field = "direction"
	Cast      Field = "cast"
	Genre     Field = "genre"
	Duration  Field = "duration"
	Origin    Field = "origin"
	Year      Field = "year"
	Age       Field = "age"
)

// Fields lists the canonical fields in display order
var Fields = []Field{Direction, Cast, Genre, Duration, Origin, Year, Age}

// labels maps source labels to canonical fields
var labels = map[string]Field{
	"DIRECCIÓN":    Direction,
	"DIRECCION":    Direction,
	"ELENCO":       Cast,
	"GÉNERO":       Genre,
	"GENERO":       Genre,
	"DURACIÓN":     Duration,
	"DURACION":     Duration,
	"ORIGEN":       Origin,
	"AÑO":          Year,
	"CALIFICACIÓN": Age,
	"CALIFICACION": Age,
}

// canonicalLabels is the label Format writes for each field
var canonicalLabels = map[Field]string{
	Direction: "DIRECCIÓN",
	Cast:      "ELENCO",
	Genre:     "GÉNERO",
	Duration:  "DURACIÓN",
	Origin:    "ORIGEN",
	Year:      "AÑO",
	Age:       "CALIFICACIÓN",
}

var linePattern = regexp.MustCompile(`^ *([\p{L}\p{N}_]+): (.+)$`)

// Lookup returns the canonical field for a source label
func Lookup(label string) (Field, bool) {
	f, ok := labels[label]
	return f, ok
}

// Parse extracts the known fields from a raw fact sheet block
func Parse(raw string) event.FactSheet {
	var fs event.FactSheet
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		m := linePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		field, ok := labels[m[1]]
		if !ok {
			continue
		}
		Set(&fs, field, m[2])
	}
	return fs
}

// Format writes the non-empty fields of fs one per line using canonical
// labels. Parse(Format(fs)) reproduces fs when every value is a single
// non-blank line.
func Format(fs event.FactSheet) string {
	var b strings.Builder
	for _, f := range Fields {
		v := Get(fs, f)
		if v == "" {
			continue
		}
		b.WriteString(canonicalLabels[f])
		b.WriteString(": ")
		b.WriteString(v)
		b.WriteString("\n")
	}
	return b.String()
}

// Label returns the display label of a field
func Label(f Field) string {
	return canonicalLabels[f]
}

// Get returns the value of field f
func Get(fs event.FactSheet, f Field) string {
	switch f {
	case Direction:
		return fs.Direction
	case Cast:
		return fs.Cast
	case Genre:
		return fs.Genre
	case Duration:
		return fs.Duration
	case Origin:
		return fs.Origin
	case Year:
		return fs.Year
	case Age:
		return fs.Age
	}
	return ""
}

// Set assigns value to field f
func Set(fs *event.FactSheet, f Field, value string) {
	switch f {
	case Direction:
		fs.Direction = value
	case Cast:
		fs.Cast = value
	case Genre:
		fs.Genre = value
	case Duration:
		fs.Duration = value
	case Origin:
		fs.Origin = value
	case Year:
		fs.Year = value
	case Age:
		fs.Age = value
	}
}

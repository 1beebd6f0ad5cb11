package event

import (
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// entryNamespace seeds name-based IDs for feed items that carry no UID.
var entryNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://elcairocinepublico.gob.ar/"))

// Attachment is one ATTACH property of a calendar entry
type Attachment struct {
	FmtType string `json:"fmt_type"` // declared media type (FMTTYPE parameter)
	Value   string `json:"value"`    // URI or inline locator
}

// CalendarEntry is a raw item of one month's calendar feed
type CalendarEntry struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Start       time.Time    `json:"start"` // zero when the feed has no DTSTART
	DetailURL   string       `json:"detail_url,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// HasStart reports whether the entry carries a start time
func (e CalendarEntry) HasStart() bool {
	return !e.Start.IsZero()
}

// GenerateID creates a deterministic ID for an entry without a feed UID
func GenerateID(title string, start time.Time) string {
	key := strings.TrimSpace(title) + "|"
	if !start.IsZero() {
		key += start.UTC().Format(time.RFC3339)
	}
	return uuid.NewSHA1(entryNamespace, []byte(key)).String()
}

// FactSheet holds the normalized technical sheet of a show.
// Missing fields are empty strings.
type FactSheet struct {
	Direction string `json:"direction"`
	Cast      string `json:"cast"`
	Genre     string `json:"genre"`
	Duration  string `json:"duration"`
	Origin    string `json:"origin"`
	Year      string `json:"year"`
	Age       string `json:"age"`
}

// IsEmpty reports whether no field of the fact sheet is set
func (f FactSheet) IsEmpty() bool {
	return f == FactSheet{}
}

// EnrichedEvent is a calendar entry merged with the details of its page
type EnrichedEvent struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Date       string    `json:"date"`
	Start      time.Time `json:"-"`
	Synopsis   string    `json:"synopsis"`
	Cost       string    `json:"cost"`
	ImageURL   string    `json:"image_url"`
	DetailURL  string    `json:"url"`
	ListingURL string    `json:"listing_url,omitempty"`
	FactSheet  FactSheet `json:"fact_sheet"`
}

// NewEnrichedEvent derives the feed-only fields of an enriched event.
// Detail fields are left empty for the caller to fill.
func NewEnrichedEvent(entry CalendarEntry) *EnrichedEvent {
	evt := &EnrichedEvent{
		ID:        entry.ID,
		Start:     entry.Start,
		ImageURL:  ImageReference(entry.Attachments),
		DetailURL: entry.DetailURL,
	}
	if entry.Title != "" {
		evt.Name = cases.Upper(language.Spanish).String(entry.Title)
	}
	if entry.HasStart() {
		evt.Date = FormatDate(entry.Start)
	}
	if entry.DetailURL != "" {
		evt.ListingURL = ListingURL(entry.DetailURL)
	}
	return evt
}

// CompareDate returns the sortable encoding of the event start
func (e *EnrichedEvent) CompareDate() int64 {
	return CompareDate(e.Start)
}

var showingSuffix = regexp.MustCompile(`\d+-\d+-\d+/(\d+/)?$`)

// ListingURL strips the per-showing date segment from a detail URL,
// yielding the page that lists every showing of the title
func ListingURL(detailURL string) string {
	return showingSuffix.ReplaceAllString(detailURL, "")
}

// EntrySet is a set of calendar entries keyed by ID
type EntrySet map[string]CalendarEntry

// NewEntrySet builds a set from entries; the first entry seen for an ID is kept
func NewEntrySet(entries ...CalendarEntry) EntrySet {
	s := make(EntrySet, len(entries))
	for _, e := range entries {
		s.Add(e)
	}
	return s
}

// Add inserts an entry unless its ID is already present
func (s EntrySet) Add(e CalendarEntry) {
	if _, exists := s[e.ID]; exists {
		return
	}
	s[e.ID] = e
}

// Merge adds every entry of other to s
func (s EntrySet) Merge(other EntrySet) {
	for _, e := range other {
		s.Add(e)
	}
}

// Filter returns the entries for which keep is true
func (s EntrySet) Filter(keep func(CalendarEntry) bool) EntrySet {
	out := make(EntrySet)
	for id, e := range s {
		if keep(e) {
			out[id] = e
		}
	}
	return out
}

// Len returns the number of entries
func (s EntrySet) Len() int {
	return len(s)
}

// Entries returns the entries ordered by start time, then ID
func (s EntrySet) Entries() []CalendarEntry {
	out := make([]CalendarEntry, 0, len(s))
	for _, e := range s {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Start.Equal(out[j].Start) {
			return out[i].Start.Before(out[j].Start)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

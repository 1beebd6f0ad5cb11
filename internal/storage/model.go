package storage

import (
	"github.com/pfrederiksen/elcairo-events/internal/event"
)

// Event is one row of the events table
type Event struct {
	EventID     string `gorm:"column:event_id;primaryKey"`
	Name        string `gorm:"column:name;not null"`
	Date        string `gorm:"column:date;not null"`
	CompareDate int64  `gorm:"column:compare_date;not null;index"`
	Synopsis    string `gorm:"column:synopsis;not null"`
	Direction   string `gorm:"column:direction;not null"`
	Cast        string `gorm:"column:cast;not null"`
	Genre       string `gorm:"column:genre;not null"`
	Duration    string `gorm:"column:duration;not null"`
	Origin      string `gorm:"column:origin;not null"`
	Year        string `gorm:"column:year;not null"`
	Age         string `gorm:"column:age;not null"`
	Cost        string `gorm:"column:cost;not null"`
	ImagePath   string `gorm:"column:image_path;not null"`
	ImageURL    string `gorm:"column:image_url;not null"`
	URL         string `gorm:"column:url;not null"`
	ListingURL  string `gorm:"column:listing_url;not null"`
}

// TableName overrides the gorm default
func (Event) TableName() string {
	return "events"
}

// NewEvent builds a row from an enriched event and the local path of its image
func NewEvent(evt *event.EnrichedEvent, imagePath string) Event {
	return Event{
		EventID:     evt.ID,
		Name:        evt.Name,
		Date:        evt.Date,
		CompareDate: evt.CompareDate(),
		Synopsis:    evt.Synopsis,
		Direction:   evt.FactSheet.Direction,
		Cast:        evt.FactSheet.Cast,
		Genre:       evt.FactSheet.Genre,
		Duration:    evt.FactSheet.Duration,
		Origin:      evt.FactSheet.Origin,
		Year:        evt.FactSheet.Year,
		Age:         evt.FactSheet.Age,
		Cost:        evt.Cost,
		ImagePath:   imagePath,
		ImageURL:    evt.ImageURL,
		URL:         evt.DetailURL,
		ListingURL:  evt.ListingURL,
	}
}

// Enriched converts the row back to an enriched event
func (e Event) Enriched() *event.EnrichedEvent {
	return &event.EnrichedEvent{
		ID:         e.EventID,
		Name:       e.Name,
		Date:       e.Date,
		Start:      event.ParseDate(e.Date),
		Synopsis:   e.Synopsis,
		Cost:       e.Cost,
		ImageURL:   e.ImageURL,
		DetailURL:  e.URL,
		ListingURL: e.ListingURL,
		FactSheet: event.FactSheet{
			Direction: e.Direction,
			Cast:      e.Cast,
			Genre:     e.Genre,
			Duration:  e.Duration,
			Origin:    e.Origin,
			Year:      e.Year,
			Age:       e.Age,
		},
	}
}

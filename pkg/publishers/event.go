package publishers

import (
	"time"

	"github.com/samvad-hq/brokennews-extractor/internal/domain"
)

// Event represents one extracted item published downstream.
type Event struct {
	Source      string          `json:"source"`
	Profile     string          `json:"profile"`
	Item        domain.NewsItem `json:"item"`
	ExtractedAt time.Time       `json:"extracted_at"`
}

// NewEvent constructs an Event for an item extracted from source.
func NewEvent(source, profile string, item domain.NewsItem, extractedAt time.Time) Event {
	return Event{
		Source:      source,
		Profile:     profile,
		Item:        item,
		ExtractedAt: extractedAt.UTC(),
	}
}

// attributes are attached to queue and topic messages for routing. Empty
// values are left out.
func (e Event) attributes() map[string]string {
	attrs := make(map[string]string, 2)
	if e.Source != "" {
		attrs["source"] = e.Source
	}
	if e.Profile != "" {
		attrs["profile"] = e.Profile
	}
	return attrs
}

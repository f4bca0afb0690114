package models

import (
	"time"
)

type Event struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OrganizerID string    `json:"organizer_id"`
	Venue       string    `json:"venue"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Status      string    `json:"status"` // draft, published, started, ended
}

const (
	EventStatusDraft     = "draft"
	EventStatusPublished = "published"
	EventStatusStarted   = "started"
	EventStatusEnded     = "ended"
)

// OnSale reports whether the event still accepts ticket sales.
func (e *Event) OnSale() bool {
	return e.Status == EventStatusPublished || e.Status == EventStatusStarted
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

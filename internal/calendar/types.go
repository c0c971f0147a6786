package calendar

import (
	"time"

	calendar "google.golang.org/api/calendar/v3"
)

// EventInput describes a timed event to create.
type EventInput struct {
	Summary     string
	Description string
	Start       time.Time // wall clock in TimeZone
	End         time.Time // wall clock in TimeZone
	TimeZone    string    // IANA zone name
}

// EventSummary is the part of a created event callers care about.
type EventSummary struct {
	ID       string
	Summary  string
	HTMLLink string
	Start    string
	End      string
	TimeZone string
}

func toEventSummary(e *calendar.Event) *EventSummary {
	s := &EventSummary{
		ID:       e.Id,
		Summary:  e.Summary,
		HTMLLink: e.HtmlLink,
	}
	if e.Start != nil {
		s.Start = e.Start.DateTime
		s.TimeZone = e.Start.TimeZone
	}
	if e.End != nil {
		s.End = e.End.DateTime
	}
	return s
}

package calendar

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/triage"
)

const (
	// PrimaryCalendar is the authenticated account's default calendar.
	PrimaryCalendar = "primary"

	// MeetingDuration is the length of every event created for a meeting.
	MeetingDuration = time.Hour

	// MeetingDescription is attached to every event created for a meeting.
	MeetingDescription = "Created by AI Assistant"

	// dateTimeLayout is the wall-clock form the Calendar API pairs with a
	// separate timeZone field.
	dateTimeLayout = "2006-01-02T15:04:05"
)

// Client wraps the Google Calendar service
type Client struct {
	svc        *calendar.Service
	calendarID string
	logger     *slog.Logger
}

// NewClient creates a Calendar client writing to the primary calendar.
func NewClient(ctx context.Context, logger *slog.Logger, opts ...option.ClientOption) (*Client, error) {
	svc, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Calendar service: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		svc:        svc,
		calendarID: PrimaryCalendar,
		logger:     logging.WithService(logger, "calendar"),
	}, nil
}

// CreateMeeting creates a one-hour event for rec and returns its id. The
// record's date and time are read as wall clock in rec.Timezone.
func (c *Client) CreateMeeting(ctx context.Context, rec triage.MeetingRecord) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", err
	}
	start, err := rec.Start()
	if err != nil {
		return "", fmt.Errorf("invalid meeting start: %w", err)
	}

	created, err := c.CreateEvent(ctx, EventInput{
		Summary:     rec.Title,
		Description: MeetingDescription,
		Start:       start,
		End:         start.Add(MeetingDuration),
		TimeZone:    rec.Timezone,
	})
	if err != nil {
		return "", err
	}

	c.logger.Debug("event created",
		"event_id", created.ID,
		"summary", created.Summary,
		"html_link", created.HTMLLink)
	return created.ID, nil
}

// CreateEvent creates a timed event on the client's calendar.
func (c *Client) CreateEvent(ctx context.Context, input EventInput) (*EventSummary, error) {
	if strings.TrimSpace(input.TimeZone) == "" {
		input.TimeZone = "UTC"
	}
	if !input.End.After(input.Start) {
		return nil, fmt.Errorf("event end %s is not after start %s",
			input.End.Format(dateTimeLayout), input.Start.Format(dateTimeLayout))
	}

	event := &calendar.Event{
		Summary:     input.Summary,
		Description: input.Description,
		Start: &calendar.EventDateTime{
			DateTime: input.Start.Format(dateTimeLayout),
			TimeZone: input.TimeZone,
		},
		End: &calendar.EventDateTime{
			DateTime: input.End.Format(dateTimeLayout),
			TimeZone: input.TimeZone,
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, event).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to create event: %w", err)
	}

	return toEventSummary(created), nil
}

package triage

import (
	"fmt"
	"net/mail"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Email is a fetched message reduced to what the pipeline reads.
// It is never modified after the mailbox produces it.
type Email struct {
	ID       string
	ThreadID string
	Sender   string // raw From header, "Name <addr>" or a bare address
	Subject  string
	Body     string // plain text
}

// ParsedSender is the sender split into display name and address.
type ParsedSender struct {
	DisplayName string
	Address     string
}

// ParseSender splits a raw From header. When the header carries no display
// name, the capitalised local part of the address is used instead.
func ParseSender(raw string) ParsedSender {
	var p ParsedSender

	if addr, err := mail.ParseAddress(raw); err == nil {
		p.DisplayName = strings.TrimSpace(addr.Name)
		p.Address = addr.Address
	} else {
		p.Address = strings.Trim(strings.TrimSpace(raw), "<>")
	}

	if p.DisplayName == "" {
		local := p.Address
		if i := strings.Index(local, "@"); i >= 0 {
			local = local[:i]
		}
		p.DisplayName = capitalize(local)
	}

	return p
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + strings.ToLower(s[size:])
}

// ReplyDraft is the LLM output before personalisation.
type ReplyDraft struct {
	Summary string
	Body    string
}

// MeetingRecord is a fully populated meeting proposal ready for the calendar.
type MeetingRecord struct {
	Title    string `json:"title"`
	Date     string `json:"date"`     // YYYY-MM-DD
	Time     string `json:"time"`     // HH:MM:SS
	Timezone string `json:"timezone"` // IANA zone name
}

const (
	meetingDateLayout = "2006-01-02"
	meetingTimeLayout = "15:04:05"
)

// Validate reports whether all four fields are present and well formed.
func (m MeetingRecord) Validate() error {
	var missing []string
	if strings.TrimSpace(m.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(m.Date) == "" {
		missing = append(missing, "date")
	}
	if strings.TrimSpace(m.Time) == "" {
		missing = append(missing, "time")
	}
	if strings.TrimSpace(m.Timezone) == "" {
		missing = append(missing, "timezone")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrValidation, strings.Join(missing, ", "))
	}

	if _, err := time.Parse(meetingDateLayout, m.Date); err != nil {
		return fmt.Errorf("%w: date %q is not YYYY-MM-DD", ErrValidation, m.Date)
	}
	if _, err := time.Parse(meetingTimeLayout, m.Time); err != nil {
		return fmt.Errorf("%w: time %q is not HH:MM:SS", ErrValidation, m.Time)
	}
	return nil
}

// Start returns the meeting start as a wall-clock time. The location is
// not applied; the calendar receives the zone name separately.
func (m MeetingRecord) Start() (time.Time, error) {
	return time.Parse(meetingDateLayout+" "+meetingTimeLayout, m.Date+" "+m.Time)
}

// normalizeClock turns HH:MM into HH:MM:00 and leaves anything else alone.
func normalizeClock(s string) string {
	s = strings.TrimSpace(s)
	if _, err := time.Parse("15:04", s); err == nil {
		return s + ":00"
	}
	return s
}

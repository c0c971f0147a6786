package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/teemow/inboxtriage/internal/triage"
)

const (
	// DefaultModel is the Gemini model used when none is configured.
	DefaultModel = "gemini-2.0-flash"

	// ReplyDelimiter separates the summary from the reply in model output.
	ReplyDelimiter = "Reply:"

	// SummaryUnavailable is the summary used when the delimiter is missing.
	SummaryUnavailable = "Summary not available"

	// ReplyMaxTokens caps the length of a generated summary and reply.
	ReplyMaxTokens = 300

	replySystem   = "You are an AI assistant that summarizes emails and generates professional replies."
	meetingSystem = "You are an AI that extracts structured meeting data."
)

// Assistant drafts replies and extracts meetings through a Generator.
type Assistant struct {
	gen      Generator
	timezone string
}

// NewAssistant returns an Assistant. timezone is the IANA zone the model is
// told to put into extracted meetings.
func NewAssistant(gen Generator, timezone string) *Assistant {
	return &Assistant{gen: gen, timezone: timezone}
}

// GenerateReply asks for a summary and a polite reply to body.
func (a *Assistant) GenerateReply(ctx context.Context, body string) (triage.ReplyDraft, error) {
	prompt := "Summarize this email and generate a polite reply:\n\n" + body

	text, err := a.gen.GenerateText(ctx, replySystem, prompt, ReplyMaxTokens)
	if err != nil {
		return triage.ReplyDraft{}, err
	}
	return ParseReply(text), nil
}

// ParseReply splits model output on the first "Reply:". Without the
// delimiter the whole text is the reply and the summary is unavailable.
func ParseReply(text string) triage.ReplyDraft {
	text = strings.TrimSpace(text)
	summary, reply, found := strings.Cut(text, ReplyDelimiter)
	if !found {
		return triage.ReplyDraft{Summary: SummaryUnavailable, Body: text}
	}
	return triage.ReplyDraft{
		Summary: strings.TrimSpace(summary),
		Body:    strings.TrimSpace(reply),
	}
}

// ExtractMeeting asks for meeting details as JSON. Output that is not JSON
// comes back as an unparsed extraction, not an error.
func (a *Assistant) ExtractMeeting(ctx context.Context, body string) (triage.MeetingExtraction, error) {
	text, err := a.gen.GenerateText(ctx, meetingSystem, MeetingPrompt(body, a.timezone), 0)
	if err != nil {
		return triage.MeetingExtraction{}, err
	}
	return triage.ParseMeetingExtraction(text), nil
}

// MeetingPrompt renders the extraction prompt for body.
func MeetingPrompt(body, timezone string) string {
	return fmt.Sprintf(`Extract structured meeting details from the following email and in timezone field write %s:

"%s"

Output as JSON:
{
  "title": "%s",
  "date": "YYYY-MM-DD",
  "time": "HH:MM:SS",
  "timezone": "<TimeZone>"
}`, timezone, body, triage.PlaceholderMeetingTitle)
}

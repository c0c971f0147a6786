package cmd

import (
	"context"
	"log/slog"

	"github.com/teemow/inboxtriage/internal/logging"
	"github.com/teemow/inboxtriage/internal/triage"
)

// dryRunMessageID and dryRunEventID stand in for ids of things a dry run
// did not create.
const (
	dryRunMessageID = "dry-run"
	dryRunEventID   = "dry-run"
)

// dryRunMailbox reads real mail but only logs replies.
type dryRunMailbox struct {
	triage.Mailbox
	logger *slog.Logger
}

func (m dryRunMailbox) SendReply(_ context.Context, to, subject, body, threadID string) (string, error) {
	m.logger.Info("dry run: reply not sent",
		logging.SenderHash(to),
		"subject", subject,
		"thread_id", threadID,
		"body", body)
	return dryRunMessageID, nil
}

// dryRunScheduler only logs meetings.
type dryRunScheduler struct {
	logger *slog.Logger
}

func (s dryRunScheduler) CreateMeeting(_ context.Context, rec triage.MeetingRecord) (string, error) {
	s.logger.Info("dry run: calendar event not created",
		"title", rec.Title,
		"date", rec.Date,
		"time", rec.Time,
		"timezone", rec.Timezone)
	return dryRunEventID, nil
}

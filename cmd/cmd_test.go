package cmd

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxtriage/internal/confirm"
	"github.com/teemow/inboxtriage/internal/store"
	"github.com/teemow/inboxtriage/internal/triage"
)

func TestNewConfirmer(t *testing.T) {
	tests := []struct {
		name string
		mode confirm.Mode
		in   string
		want triage.Decision
	}{
		{name: "approve", mode: confirm.ModeApprove, want: triage.Approved},
		{name: "decline", mode: confirm.ModeDecline, want: triage.Declined},
		{name: "defer", mode: confirm.ModeDefer, want: triage.Deferred},
		{name: "prompt yes", mode: confirm.ModePrompt, in: "yes\n", want: triage.Approved},
		{name: "prompt eof", mode: confirm.ModePrompt, in: "", want: triage.Declined},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newConfirmer(tt.mode, strings.NewReader(tt.in), &bytes.Buffer{})
			got, err := c.Confirm(context.Background(), triage.ConfirmationRequest{})
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

type fakeExchanger struct {
	code string
	err  error
}

func (f *fakeExchanger) AuthURL(state string) string {
	return "https://accounts.example/auth?state=" + state
}

func (f *fakeExchanger) Exchange(_ context.Context, code string) error {
	f.code = code
	return f.err
}

func TestRunAuth(t *testing.T) {
	t.Run("prompted code", func(t *testing.T) {
		ex := &fakeExchanger{}
		var out bytes.Buffer

		err := runAuth(context.Background(), ex, "/tmp/google.token", "", strings.NewReader("  4/abc  \n"), &out)
		require.NoError(t, err)
		assert.Equal(t, "4/abc", ex.code)
		assert.Contains(t, out.String(), "https://accounts.example/auth?state=")
		assert.Contains(t, out.String(), "Token stored in /tmp/google.token")
	})

	t.Run("code flag", func(t *testing.T) {
		ex := &fakeExchanger{}
		var out bytes.Buffer

		require.NoError(t, runAuth(context.Background(), ex, "p", "xyz", strings.NewReader(""), &out))
		assert.Equal(t, "xyz", ex.code)
		assert.NotContains(t, out.String(), "Visit this URL")
	})

	t.Run("empty code", func(t *testing.T) {
		err := runAuth(context.Background(), &fakeExchanger{}, "p", "", strings.NewReader("\n"), &bytes.Buffer{})
		assert.Error(t, err)
	})

	t.Run("exchange error", func(t *testing.T) {
		err := runAuth(context.Background(), &fakeExchanger{err: errors.New("bad code")}, "p", "x", strings.NewReader(""), &bytes.Buffer{})
		assert.EqualError(t, err, "bad code")
	})
}

func TestPrintHistory(t *testing.T) {
	var out bytes.Buffer
	recs := []store.Record{{
		Sender:   "Alex <alex@example.com>",
		Subject:  "Hello",
		RunID:    "0123456789abcdef",
		StoredAt: time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC),
	}}

	require.NoError(t, printHistory(&out, 7, recs))
	text := out.String()
	assert.Contains(t, text, "SUBJECT")
	assert.Contains(t, text, "Hello")
	assert.Contains(t, text, "01234567")
	assert.NotContains(t, text, "0123456789abcdef")
	assert.Contains(t, text, "1 of 7 stored emails")
}

func TestPrintOutcome(t *testing.T) {
	tests := []struct {
		name string
		out  triage.Outcome
		want []string
	}{
		{
			name: "sent with meetings",
			out:  triage.Outcome{Path: triage.PathSimple, Subject: "Thanks", Sent: true, MeetingsCreated: 1},
			want: []string{"[simple]", `"Thanks"`, "sent", "1 meetings created"},
		},
		{
			name: "pending urgent",
			out: triage.Outcome{
				Path: triage.PathComplex, Subject: "Deadline", Urgent: true, Alerted: true,
				Pending: fn.Some(triage.PauseToken("t1")),
			},
			want: []string{"awaiting confirmation", "urgent (alerted)"},
		},
		{
			name: "errors",
			out:  triage.Outcome{Path: triage.PathComplex, Errors: []error{errors.New("x")}},
			want: []string{"not sent", "1 errors"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			o := tt.out
			printOutcome(&buf, &o)
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

type recordingMailbox struct {
	sent int
}

func (m *recordingMailbox) FetchRecent(context.Context, int64) ([]triage.Email, error) {
	return []triage.Email{{ID: "m1"}}, nil
}

func (m *recordingMailbox) SendReply(context.Context, string, string, string, string) (string, error) {
	m.sent++
	return "real", nil
}

func TestDryRunWrappers(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	inner := &recordingMailbox{}
	mb := dryRunMailbox{Mailbox: inner, logger: logger}

	emails, err := mb.FetchRecent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, emails, 1)

	id, err := mb.SendReply(context.Background(), "a@example.com", "Re: x", "body", "")
	require.NoError(t, err)
	assert.Equal(t, dryRunMessageID, id)
	assert.Zero(t, inner.sent)

	id, err = dryRunScheduler{logger: logger}.CreateMeeting(context.Background(), triage.MeetingRecord{Title: "Sync"})
	require.NoError(t, err)
	assert.Equal(t, dryRunEventID, id)

	assert.Contains(t, logs.String(), "dry run: reply not sent")
	assert.Contains(t, logs.String(), "dry run: calendar event not created")
	assert.NotContains(t, logs.String(), "a@example.com")
}

func TestVersionCmd(t *testing.T) {
	SetVersion("1.2.3")
	t.Cleanup(func() { SetVersion("dev") })

	var out bytes.Buffer
	c := newVersionCmd()
	c.SetOut(&out)
	c.Run(c, nil)
	assert.Equal(t, "inboxtriage version 1.2.3\n", out.String())
}

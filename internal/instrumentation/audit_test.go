package instrumentation

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/teemow/inboxtriage/internal/logging"
)

const (
	testRecipient = "Jane Doe <jane@example.com>"
	testEmailID   = "msg-42"
	testRunID     = "run-1"
)

func attrMap(attrs []slog.Attr) map[string]string {
	m := make(map[string]string, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value.String()
	}
	return m
}

func TestActionRecord_NewAndComplete(t *testing.T) {
	ar := NewActionRecord(ActionReplySent, testEmailID)

	if ar.Action != ActionReplySent {
		t.Errorf("Action = %q, want %q", ar.Action, ActionReplySent)
	}
	if ar.StartTime.IsZero() {
		t.Error("StartTime should not be zero")
	}

	ar.Complete(nil)

	if !ar.Success {
		t.Error("Success should be true")
	}
	if ar.Duration < 0 {
		t.Error("Duration should not be negative")
	}
	if ar.Status() != StatusSuccess {
		t.Errorf("Status() = %q, want %q", ar.Status(), StatusSuccess)
	}
}

func TestActionRecord_CompleteWithError(t *testing.T) {
	ar := NewActionRecord(ActionEventCreated, testEmailID).Complete(errors.New("quota exceeded"))

	if ar.Success {
		t.Error("Success should be false")
	}
	if ar.Error != "quota exceeded" {
		t.Errorf("Error = %q, want %q", ar.Error, "quota exceeded")
	}
	if ar.Status() != StatusError {
		t.Errorf("Status() = %q, want %q", ar.Status(), StatusError)
	}
}

func TestActionRecord_LogAttrsAnonymizesRecipient(t *testing.T) {
	ar := NewActionRecord(ActionReplySent, testEmailID).
		WithRun(testRunID).
		WithRecipient(testRecipient).
		WithResource("sent-1").
		Complete(nil)

	attrs := attrMap(ar.LogAttrs())

	if _, ok := attrs["recipient"]; ok {
		t.Error("LogAttrs should not include the raw recipient")
	}
	if attrs[logging.KeySenderHash] != logging.AnonymizeEmail(testRecipient) {
		t.Errorf("sender hash = %q", attrs[logging.KeySenderHash])
	}
	if attrs["resource_id"] != "sent-1" {
		t.Errorf("resource_id = %q", attrs["resource_id"])
	}
	if attrs[logging.KeyRunID] != testRunID {
		t.Errorf("run_id = %q", attrs[logging.KeyRunID])
	}
}

func TestActionRecord_LogAuditAttrsIncludesRecipient(t *testing.T) {
	ar := NewActionRecord(ActionDecision, testEmailID).
		WithRecipient(testRecipient).
		WithDecision("approved").
		Complete(nil)

	attrs := attrMap(ar.LogAuditAttrs())

	if attrs["recipient"] != testRecipient {
		t.Errorf("recipient = %q, want %q", attrs["recipient"], testRecipient)
	}
	if attrs["decision"] != "approved" {
		t.Errorf("decision = %q", attrs["decision"])
	}
}

func TestActionRecord_WithSpanContext_NoSpan(t *testing.T) {
	ar := NewActionRecord(ActionAlertPosted, testEmailID).WithSpanContext(context.Background())
	if ar.TraceID != "" || ar.SpanID != "" {
		t.Errorf("expected empty trace context, got %q/%q", ar.TraceID, ar.SpanID)
	}
}

func TestAuditLogger_LogAction(t *testing.T) {
	tests := []struct {
		name          string
		config        AuditLoggingConfig
		err           error
		wantMessage   string
		wantRecipient bool
		wantEmpty     bool
	}{
		{
			name:        "success anonymized",
			config:      AuditLoggingConfig{Enabled: true},
			wantMessage: "action_audit",
		},
		{
			name:        "failure logged as warning",
			config:      AuditLoggingConfig{Enabled: true},
			err:         errors.New("boom"),
			wantMessage: "action_failed",
		},
		{
			name:          "pii included",
			config:        AuditLoggingConfig{Enabled: true, IncludePII: true},
			wantMessage:   "action_audit",
			wantRecipient: true,
		},
		{
			name:      "disabled",
			config:    AuditLoggingConfig{Enabled: false},
			wantEmpty: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			al := NewAuditLoggerWithConfig(logging.NewLogger(&buf, logging.FormatText, false), tt.config)

			al.LogAction(NewActionRecord(ActionReplySent, testEmailID).
				WithRecipient(testRecipient).
				Complete(tt.err))

			out := buf.String()
			if tt.wantEmpty {
				if out != "" {
					t.Errorf("expected no output, got %q", out)
				}
				return
			}
			if !strings.Contains(out, tt.wantMessage) {
				t.Errorf("output %q missing %q", out, tt.wantMessage)
			}
			if got := strings.Contains(out, "jane@example.com"); got != tt.wantRecipient {
				t.Errorf("recipient present = %v, want %v", got, tt.wantRecipient)
			}
		})
	}
}

func TestAuditLogger_NilSafe(t *testing.T) {
	var al *AuditLogger
	al.LogAction(NewActionRecord(ActionReplySent, testEmailID).Complete(nil))

	NewAuditLogger(nil).LogAction(nil)
}

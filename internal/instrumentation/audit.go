package instrumentation

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/teemow/inboxtriage/internal/logging"
)

// Action names an outbound side effect of the pipeline.
type Action string

const (
	ActionReplySent    Action = "reply_sent"
	ActionEventCreated Action = "event_created"
	ActionAlertPosted  Action = "alert_posted"
	ActionDecision     Action = "decision"
)

// ActionRecord captures one outbound action for the audit trail: every
// reply sent, calendar event created, alert posted, and human decision.
//
// # Privacy Considerations
//
// Recipient is the raw sender address of the email being answered. It is
// only logged in full when the audit logger is configured with IncludePII.
type ActionRecord struct {
	Action     Action
	RunID      string
	EmailID    string
	Recipient  string
	ResourceID string // message id, event id, or alert timestamp
	Decision   string

	StartTime time.Time
	Duration  time.Duration
	Success   bool
	Error     string

	TraceID string
	SpanID  string
}

// NewActionRecord creates a new ActionRecord with timing started.
// Call Complete() when the action finishes.
func NewActionRecord(action Action, emailID string) *ActionRecord {
	return &ActionRecord{
		Action:    action,
		EmailID:   emailID,
		StartTime: time.Now(),
	}
}

// WithRun sets the run id.
func (ar *ActionRecord) WithRun(runID string) *ActionRecord {
	ar.RunID = runID
	return ar
}

// WithRecipient sets who the action was aimed at.
func (ar *ActionRecord) WithRecipient(recipient string) *ActionRecord {
	ar.Recipient = recipient
	return ar
}

// WithResource sets the id of what the action created.
func (ar *ActionRecord) WithResource(id string) *ActionRecord {
	ar.ResourceID = id
	return ar
}

// WithDecision sets the human decision for ActionDecision records.
func (ar *ActionRecord) WithDecision(decision string) *ActionRecord {
	ar.Decision = decision
	return ar
}

// WithSpanContext extracts trace context from the current span.
func (ar *ActionRecord) WithSpanContext(ctx context.Context) *ActionRecord {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		ar.TraceID = span.SpanContext().TraceID().String()
		ar.SpanID = span.SpanContext().SpanID().String()
	}
	return ar
}

// Complete marks the action as finished. A nil err means success.
func (ar *ActionRecord) Complete(err error) *ActionRecord {
	ar.Duration = time.Since(ar.StartTime)
	ar.Success = err == nil
	if err != nil {
		ar.Error = err.Error()
	}
	return ar
}

// Status returns "success" or "error" based on the Success field.
func (ar *ActionRecord) Status() string {
	if ar.Success {
		return StatusSuccess
	}
	return StatusError
}

// LogAttrs returns slog attributes with the recipient anonymized.
func (ar *ActionRecord) LogAttrs() []slog.Attr {
	return ar.attrs(false)
}

// LogAuditAttrs returns slog attributes including the full recipient address.
//
// # Security Warning
//
// This method includes PII. Route audit logs to storage with appropriate
// access controls.
func (ar *ActionRecord) LogAuditAttrs() []slog.Attr {
	return ar.attrs(true)
}

func (ar *ActionRecord) attrs(includePII bool) []slog.Attr {
	attrs := []slog.Attr{
		slog.String("action", string(ar.Action)),
		slog.String(logging.KeyEmailID, ar.EmailID),
		logging.Duration(ar.Duration),
		slog.Bool("success", ar.Success),
	}

	if ar.RunID != "" {
		attrs = append(attrs, slog.String(logging.KeyRunID, ar.RunID))
	}
	if ar.Recipient != "" {
		if includePII {
			attrs = append(attrs, slog.String("recipient", ar.Recipient))
		} else {
			attrs = append(attrs, logging.SenderHash(ar.Recipient))
		}
	}
	if ar.ResourceID != "" {
		attrs = append(attrs, slog.String("resource_id", ar.ResourceID))
	}
	if ar.Decision != "" {
		attrs = append(attrs, slog.String("decision", ar.Decision))
	}
	if ar.TraceID != "" {
		attrs = append(attrs, slog.String("trace_id", ar.TraceID))
	}
	if includePII && ar.SpanID != "" {
		attrs = append(attrs, slog.String("span_id", ar.SpanID))
	}
	if ar.Error != "" {
		attrs = append(attrs, slog.String(logging.KeyError, ar.Error))
	}

	return attrs
}

// AuditLogger writes the outbound action audit trail. A nil *AuditLogger
// discards everything.
type AuditLogger struct {
	logger     *slog.Logger
	includePII bool
	enabled    bool
}

// NewAuditLogger creates an enabled AuditLogger that anonymizes recipients.
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return NewAuditLoggerWithConfig(logger, AuditLoggingConfig{Enabled: true})
}

// NewAuditLoggerWithConfig creates a new AuditLogger with the given configuration.
func NewAuditLoggerWithConfig(logger *slog.Logger, config AuditLoggingConfig) *AuditLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuditLogger{
		logger:     logger,
		includePII: config.IncludePII,
		enabled:    config.Enabled,
	}
}

// LogAction logs one completed action. Failures are logged at warn level.
func (al *AuditLogger) LogAction(ar *ActionRecord) {
	if al == nil || !al.enabled || ar == nil {
		return
	}

	var attrs []slog.Attr
	if al.includePII {
		attrs = ar.LogAuditAttrs()
	} else {
		attrs = ar.LogAttrs()
	}

	args := make([]any, len(attrs))
	for i, attr := range attrs {
		args[i] = attr
	}

	if ar.Success {
		al.logger.Info("action_audit", args...)
	} else {
		al.logger.Warn("action_failed", args...)
	}
}

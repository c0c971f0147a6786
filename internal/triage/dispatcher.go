package triage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"

	"github.com/teemow/inboxtriage/internal/instrumentation"
	"github.com/teemow/inboxtriage/internal/logging"
)

// DefaultMaxResults is how many emails a run fetches unless told otherwise.
const DefaultMaxResults = 1

// Mailbox reads recent mail and sends replies.
type Mailbox interface {
	FetchRecent(ctx context.Context, maxResults int64) ([]Email, error)
	SendReply(ctx context.Context, to, subject, body, threadID string) (string, error)
}

// Profile resolves the display name of the authenticated account. It must
// fall back to a generic name instead of failing.
type Profile interface {
	UserName(ctx context.Context) string
}

// Drafter asks the language model for a summary and a reply.
type Drafter interface {
	GenerateReply(ctx context.Context, body string) (ReplyDraft, error)
}

// MeetingDetector asks the language model for meeting details.
type MeetingDetector interface {
	ExtractMeeting(ctx context.Context, body string) (MeetingExtraction, error)
}

// Searcher returns the first web result snippet for a query.
type Searcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Alerter sends an out-of-band notification for urgent email.
type Alerter interface {
	Notify(ctx context.Context, subject, sender, body string) error
}

// Scheduler creates a one-hour calendar event for a meeting and returns
// its id.
type Scheduler interface {
	CreateMeeting(ctx context.Context, rec MeetingRecord) (string, error)
}

// EmailStore appends processed emails.
type EmailStore interface {
	StoreEmails(ctx context.Context, runID string, emails []Email) error
}

// Deps are the collaborators a Dispatcher drives. Searcher and Alerter are
// optional; a nil value skips the step.
type Deps struct {
	Mailbox   Mailbox
	Profile   Profile
	Drafter   Drafter
	Meetings  MeetingDetector
	Searcher  Searcher
	Alerter   Alerter
	Calendar  Scheduler
	Store     EmailStore
	Confirmer Confirmer
}

func (d Deps) validate() error {
	var missing []string
	if d.Mailbox == nil {
		missing = append(missing, "Mailbox")
	}
	if d.Profile == nil {
		missing = append(missing, "Profile")
	}
	if d.Drafter == nil {
		missing = append(missing, "Drafter")
	}
	if d.Meetings == nil {
		missing = append(missing, "Meetings")
	}
	if d.Calendar == nil {
		missing = append(missing, "Calendar")
	}
	if d.Store == nil {
		missing = append(missing, "Store")
	}
	if d.Confirmer == nil {
		missing = append(missing, "Confirmer")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing dependencies: %v", missing)
	}
	return nil
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithMaxResults sets how many emails each run fetches.
func WithMaxResults(n int64) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.maxResults = n
		}
	}
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithMetrics records pipeline metrics.
func WithMetrics(m *instrumentation.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithAudit writes every outbound action to the audit trail.
func WithAudit(a *instrumentation.AuditLogger) Option {
	return func(d *Dispatcher) {
		d.audit = a
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Dispatcher) {
		d.now = now
	}
}

// Path is the action branch an email took.
type Path string

const (
	PathSimple  Path = "simple"
	PathComplex Path = "complex"
	// PathDeferred is only used for metrics: a complex email parked for
	// a later decision.
	PathDeferred Path = "deferred"
)

// Outcome records what happened to one email.
type Outcome struct {
	EmailID         string
	Subject         string
	Path            Path
	Urgent          bool
	Alerted         bool
	Stored          bool
	Decision        fn.Option[Decision]
	Sent            bool
	MessageID       string
	MeetingsCreated int
	MeetingsSkipped int
	Pending         fn.Option[PauseToken]
	Errors          []error
}

func (o *Outcome) addErr(err error) {
	o.Errors = append(o.Errors, err)
}

func (o *Outcome) status() string {
	if len(o.Errors) > 0 {
		return instrumentation.StatusError
	}
	return instrumentation.StatusSuccess
}

// RunReport summarises a batch.
type RunReport struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []*Outcome
}

// Dispatcher runs the triage pipeline one email at a time, in fetch order.
type Dispatcher struct {
	deps       Deps
	maxResults int64
	logger     *slog.Logger
	metrics    *instrumentation.Metrics
	audit      *instrumentation.AuditLogger
	now        func() time.Time

	mu      sync.Mutex
	pending map[PauseToken]*PendingDecision
	order   []PauseToken
}

// NewDispatcher builds a Dispatcher. It fails when a required collaborator
// is missing.
func NewDispatcher(deps Deps, opts ...Option) (*Dispatcher, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		deps:       deps,
		maxResults: DefaultMaxResults,
		logger:     slog.Default(),
		now:        time.Now,
		pending:    make(map[PauseToken]*PendingDecision),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Run fetches a batch and processes every email to completion before the
// next. Only a fetch failure or context cancellation is returned as an
// error; everything else is recorded on the email's Outcome.
func (d *Dispatcher) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{
		RunID:   uuid.NewString(),
		Started: d.now(),
	}
	ctx, span := instrumentation.StartSpan(ctx, "triage.run")
	defer span.End()

	logger := d.logger.With(slog.String(logging.KeyRunID, report.RunID))
	if traceID := instrumentation.GetTraceID(ctx); traceID != "" {
		logger = logger.With(slog.String("trace_id", traceID))
	}

	var emails []Email
	err := d.call(ctx, instrumentation.CollaboratorGmail, "fetch", func(ctx context.Context) error {
		var err error
		emails, err = d.deps.Mailbox.FetchRecent(ctx, d.maxResults)
		return err
	})
	if err != nil {
		report.Finished = d.now()
		instrumentation.SetSpanError(span, err)
		logger.Error("fetching emails failed",
			slog.String(logging.KeyFailure, FailureFetch),
			logging.Err(err))
		return report, fmt.Errorf("%w: %w", ErrFetch, err)
	}

	logger.Info("fetched emails", "count", len(emails))

	for _, email := range emails {
		if err := ctx.Err(); err != nil {
			report.Finished = d.now()
			return report, err
		}
		report.Outcomes = append(report.Outcomes, d.process(ctx, logger, report.RunID, email))
	}

	report.Finished = d.now()
	logger.Info("run finished",
		"emails", len(report.Outcomes),
		"pending", len(d.Pending()),
		logging.Duration(report.Finished.Sub(report.Started)))
	return report, nil
}

// process drives one email from Fetched to its terminal state.
func (d *Dispatcher) process(ctx context.Context, logger *slog.Logger, runID string, email Email) *Outcome {
	ctx, span := instrumentation.StartEmailSpan(ctx, email.ID)
	defer span.End()

	out := &Outcome{EmailID: email.ID, Subject: email.Subject}
	sender := ParseSender(email.Sender)
	logger = logger.With(
		slog.String(logging.KeyEmailID, email.ID),
		logging.SenderHash(sender.Address),
		slog.String("sender_domain", logging.ExtractDomain(sender.Address)))
	logger.Info("processing email", "subject", email.Subject)

	userName := d.deps.Profile.UserName(ctx)

	// Drafted: reply text and meeting candidates.
	reply, summary, replyOK := d.draftReply(ctx, logger, out, email, sender, userName)
	meetings := d.extractMeetings(ctx, logger, out, email)

	// Urgency is independent of the simple/complex branch.
	out.Urgent = IsUrgent(email.Body, email.Subject)
	if out.Urgent {
		d.alert(ctx, logger, out, email)
	}

	d.persist(ctx, logger, out, runID, email)

	if IsSimpleCase(email.Body) {
		out.Path = PathSimple
	} else {
		out.Path = PathComplex
	}

	switch {
	case !replyOK:
		logger.Warn("no reply available, skipping action branch", "path", out.Path)

	case out.Path == PathSimple:
		logger.Info("simple email, replying automatically")
		d.sendAndSchedule(ctx, logger, out, email, reply, meetings)

	default:
		logger.Info("complex email logged for manual review",
			"subject", email.Subject,
			"summary", logging.Truncate(summary, 200),
			"reply_preview", logging.Truncate(reply, 200))
		d.confirmAndDispatch(ctx, logger, out, ConfirmationRequest{
			Email:    email,
			Reply:    reply,
			Summary:  summary,
			Meetings: meetings,
		})
	}

	metricPath := out.Path
	if out.Pending.IsSome() {
		metricPath = PathDeferred
	}
	d.metrics.RecordEmailProcessed(ctx, string(metricPath), out.status())
	logger.Info("email processed",
		"path", metricPath,
		"sent", out.Sent,
		"meetings_created", out.MeetingsCreated,
		logging.Status(out.status()))
	if len(out.Errors) > 0 {
		instrumentation.SetSpanError(span, errors.Join(out.Errors...))
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	return out
}

func (d *Dispatcher) draftReply(ctx context.Context, logger *slog.Logger, out *Outcome,
	email Email, sender ParsedSender, userName string) (string, string, bool) {

	var draft ReplyDraft
	err := d.call(ctx, instrumentation.CollaboratorLLM, "generate_reply", func(ctx context.Context) error {
		var err error
		draft, err = d.deps.Drafter.GenerateReply(ctx, email.Body)
		return err
	})
	if err != nil {
		d.logRecovered(logger, out, "generating reply failed", err)
		return "", "", false
	}

	reply := Personalize(draft.Body, sender.DisplayName, userName)
	reply = ReplacePlaceholderName(reply, userName)

	if NeedsWebLookup(email.Body) {
		reply = InsertWebSnippet(reply, d.lookup(ctx, logger, out, email.Body).UnwrapOr(""))
	}

	logger.Debug("reply drafted", "summary", draft.Summary, "reply", reply)
	return reply, draft.Summary, true
}

func (d *Dispatcher) lookup(ctx context.Context, logger *slog.Logger, out *Outcome, query string) fn.Option[string] {
	if d.deps.Searcher == nil {
		logger.Debug("web lookup wanted but no searcher configured")
		return fn.None[string]()
	}

	logger.Info("web search triggered")
	var snippet string
	err := d.call(ctx, instrumentation.CollaboratorSearch, "query", func(ctx context.Context) error {
		var err error
		snippet, err = d.deps.Searcher.Search(ctx, query)
		return err
	})
	if err != nil {
		d.logRecovered(logger, out, "web search failed", err)
		return fn.None[string]()
	}
	return fn.Some(snippet)
}

func (d *Dispatcher) extractMeetings(ctx context.Context, logger *slog.Logger, out *Outcome, email Email) []MeetingRecord {
	var ex MeetingExtraction
	err := d.call(ctx, instrumentation.CollaboratorLLM, "extract_meeting", func(ctx context.Context) error {
		var err error
		ex, err = d.deps.Meetings.ExtractMeeting(ctx, email.Body)
		return err
	})
	if err != nil {
		d.logRecovered(logger, out, "meeting extraction failed", err)
		return nil
	}

	if ex.Kind() == ExtractionUnparsed && !ex.IsEmpty() {
		logger.Info("meeting extraction was not JSON, treating as no meeting",
			slog.String(logging.KeyFailure, FailureLLMParse),
			"raw_preview", logging.Truncate(ex.Raw(), 80))
	}

	candidates := Normalize(ex)
	meetings := ValidMeetings(candidates, logger)
	out.MeetingsSkipped = len(candidates) - len(meetings)
	for i := 0; i < out.MeetingsSkipped; i++ {
		d.metrics.RecordMeeting(ctx, instrumentation.MeetingSkipped)
	}
	return meetings
}

func (d *Dispatcher) alert(ctx context.Context, logger *slog.Logger, out *Outcome, email Email) {
	if d.deps.Alerter == nil {
		logger.Debug("urgent email but no alerter configured")
		return
	}

	logger.Info("urgent email detected, sending alert")
	rec := instrumentation.NewActionRecord(instrumentation.ActionAlertPosted, email.ID).
		WithSpanContext(ctx)
	err := d.call(ctx, instrumentation.CollaboratorSlack, "notify", func(ctx context.Context) error {
		return d.deps.Alerter.Notify(ctx, email.Subject, email.Sender, email.Body)
	})
	d.audit.LogAction(rec.Complete(err))
	if err != nil {
		d.metrics.RecordAlert(ctx, instrumentation.StatusError)
		d.logRecovered(logger, out, "urgent alert failed", err)
		return
	}
	d.metrics.RecordAlert(ctx, instrumentation.StatusSuccess)
	out.Alerted = true
}

func (d *Dispatcher) persist(ctx context.Context, logger *slog.Logger, out *Outcome, runID string, email Email) {
	err := d.call(ctx, instrumentation.CollaboratorStore, "insert", func(ctx context.Context) error {
		return d.deps.Store.StoreEmails(ctx, runID, []Email{email})
	})
	if err != nil {
		d.logRecovered(logger, out, "persisting email failed", err)
		return
	}
	out.Stored = true
}

func (d *Dispatcher) confirmAndDispatch(ctx context.Context, logger *slog.Logger, out *Outcome, req ConfirmationRequest) {
	decision, err := d.deps.Confirmer.Confirm(ctx, req)
	if err != nil {
		d.logRecovered(logger, out, "confirmation failed, treating as declined", err)
		decision = Declined
	}
	out.Decision = fn.Some(decision)
	d.audit.LogAction(instrumentation.NewActionRecord(instrumentation.ActionDecision, req.Email.ID).
		WithDecision(decision.String()).
		WithSpanContext(ctx).
		Complete(nil))

	switch decision {
	case Approved:
		logger.Info("reply approved")
		d.sendAndSchedule(ctx, logger, out, req.Email, req.Reply, req.Meetings)

	case Deferred:
		token := d.park(req, out.Stored)
		out.Pending = fn.Some(token)
		logger.Info("reply deferred", "token", string(token))

	default:
		logger.Info("reply declined, not sent")
	}
}

// sendAndSchedule sends the reply and, only once it went out, creates the
// meetings. A failed send skips the meetings.
func (d *Dispatcher) sendAndSchedule(ctx context.Context, logger *slog.Logger, out *Outcome,
	email Email, reply string, meetings []MeetingRecord) {

	to := email.Sender
	subject := "Re: " + email.Subject

	var msgID string
	sendRec := instrumentation.NewActionRecord(instrumentation.ActionReplySent, email.ID).
		WithRecipient(to).
		WithSpanContext(ctx)
	err := d.call(ctx, instrumentation.CollaboratorGmail, "send", func(ctx context.Context) error {
		var err error
		msgID, err = d.deps.Mailbox.SendReply(ctx, to, subject, reply, email.ThreadID)
		return err
	})
	d.audit.LogAction(sendRec.WithResource(msgID).Complete(err))
	if err != nil {
		d.logRecovered(logger, out, "sending reply failed", err)
		return
	}
	out.Sent = true
	out.MessageID = msgID
	logger.Info("reply sent", "message_id", msgID)

	for _, m := range meetings {
		var eventID string
		eventRec := instrumentation.NewActionRecord(instrumentation.ActionEventCreated, email.ID).
			WithSpanContext(ctx)
		err := d.call(ctx, instrumentation.CollaboratorCalendar, "create", func(ctx context.Context) error {
			var err error
			eventID, err = d.deps.Calendar.CreateMeeting(ctx, m)
			return err
		})
		d.audit.LogAction(eventRec.WithResource(eventID).Complete(err))
		if err != nil {
			d.metrics.RecordMeeting(ctx, instrumentation.MeetingFailed)
			d.logRecovered(logger, out, "creating calendar event failed", err)
			continue
		}
		d.metrics.RecordMeeting(ctx, instrumentation.MeetingCreated)
		out.MeetingsCreated++
		logger.Info("calendar event created",
			"event_id", eventID,
			"title", m.Title,
			"date", m.Date,
			"time", m.Time)
	}
}

func (d *Dispatcher) park(req ConfirmationRequest, stored bool) PauseToken {
	d.mu.Lock()
	defer d.mu.Unlock()

	token := newPauseToken()
	d.pending[token] = &PendingDecision{
		Token:    token,
		Email:    req.Email,
		Reply:    req.Reply,
		Summary:  req.Summary,
		Meetings: req.Meetings,
		Stored:   stored,
	}
	d.order = append(d.order, token)
	return token
}

// Pending lists deferred decisions in the order they were parked.
func (d *Dispatcher) Pending() []PendingDecision {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make([]PendingDecision, 0, len(d.order))
	for _, t := range d.order {
		out = append(out, *d.pending[t])
	}
	return out
}

// Resolve answers a deferred decision. Approval sends the reply and creates
// the meetings exactly as an immediate approval would. Each token can be
// resolved once.
func (d *Dispatcher) Resolve(ctx context.Context, token PauseToken, approve bool) (*Outcome, error) {
	d.mu.Lock()
	p, ok := d.pending[token]
	if ok {
		delete(d.pending, token)
		for i, t := range d.order {
			if t == token {
				d.order = append(d.order[:i], d.order[i+1:]...)
				break
			}
		}
	}
	d.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDecision, token)
	}

	logger := d.logger.With(
		slog.String(logging.KeyEmailID, p.Email.ID),
		slog.String("token", string(token)))
	out := &Outcome{
		EmailID: p.Email.ID,
		Subject: p.Email.Subject,
		Path:    PathComplex,
		Stored:  p.Stored,
	}

	decision := Declined
	if approve {
		decision = Approved
	}
	d.audit.LogAction(instrumentation.NewActionRecord(instrumentation.ActionDecision, p.Email.ID).
		WithDecision(decision.String()).
		WithSpanContext(ctx).
		Complete(nil))

	if approve {
		out.Decision = fn.Some(Approved)
		logger.Info("deferred reply approved")
		d.sendAndSchedule(ctx, logger, out, p.Email, p.Reply, p.Meetings)
	} else {
		out.Decision = fn.Some(Declined)
		logger.Info("deferred reply declined, not sent")
	}
	return out, nil
}

// call runs one collaborator call inside a span and records its metrics.
// Errors come back wrapped in ErrCollaborator.
func (d *Dispatcher) call(ctx context.Context, collaborator, operation string, f func(context.Context) error) error {
	ctx, span := instrumentation.StartCollaboratorSpan(ctx, collaborator, operation)
	defer span.End()

	start := d.now()
	err := f(ctx)
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
		instrumentation.SetSpanError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}
	d.metrics.RecordCollaboratorCall(ctx, collaborator, operation, status, d.now().Sub(start))

	if err != nil && !errors.Is(err, ErrCollaborator) {
		return fmt.Errorf("%w: %s %s: %w", ErrCollaborator, collaborator, operation, err)
	}
	return err
}

// logRecovered logs a failure that stays inside the current email.
func (d *Dispatcher) logRecovered(logger *slog.Logger, out *Outcome, msg string, err error) {
	out.addErr(err)
	logger.Warn(msg,
		slog.String(logging.KeyFailure, FailureClass(err)),
		logging.Err(err))
}

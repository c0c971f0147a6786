package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metric attribute keys
const (
	attrPath         = "path"
	attrStatus       = "status"
	attrCollaborator = "collaborator"
	attrOperation    = "operation"
)

// Metrics provides methods for recording pipeline metrics. A nil *Metrics
// and a zero Metrics are both valid no-op recorders.
type Metrics struct {
	emailsProcessedTotal metric.Int64Counter

	collaboratorCallsTotal   metric.Int64Counter
	collaboratorCallDuration metric.Float64Histogram

	alertsTotal   metric.Int64Counter
	meetingsTotal metric.Int64Counter
}

// NewMetrics creates a new Metrics instance with all metrics initialized.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	m := &Metrics{}

	var err error

	m.emailsProcessedTotal, err = meter.Int64Counter(
		"triage_emails_processed_total",
		metric.WithDescription("Total number of emails taken through the triage pipeline"),
		metric.WithUnit("{email}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_emails_processed_total counter: %w", err)
	}

	m.collaboratorCallsTotal, err = meter.Int64Counter(
		"triage_collaborator_calls_total",
		metric.WithDescription("Total number of calls to external collaborators"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_collaborator_calls_total counter: %w", err)
	}

	m.collaboratorCallDuration, err = meter.Float64Histogram(
		"triage_collaborator_call_duration_seconds",
		metric.WithDescription("Collaborator call duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_collaborator_call_duration_seconds histogram: %w", err)
	}

	m.alertsTotal, err = meter.Int64Counter(
		"triage_alerts_total",
		metric.WithDescription("Total number of urgent alerts attempted"),
		metric.WithUnit("{alert}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_alerts_total counter: %w", err)
	}

	m.meetingsTotal, err = meter.Int64Counter(
		"triage_meetings_total",
		metric.WithDescription("Total number of meeting candidates by outcome"),
		metric.WithUnit("{meeting}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create triage_meetings_total counter: %w", err)
	}

	return m, nil
}

// RecordEmailProcessed records one email reaching a terminal state.
//
// Parameters:
//   - path: simple, complex, or deferred
//   - status: "success" when no step failed, "error" otherwise
func (m *Metrics) RecordEmailProcessed(ctx context.Context, path, status string) {
	if m == nil || m.emailsProcessedTotal == nil {
		return
	}

	m.emailsProcessedTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrPath, BoundedLabel(path, knownPaths...)),
		attribute.String(attrStatus, BoundedLabel(status, knownStatuses...)),
	))
}

// RecordCollaboratorCall records one call to gmail, calendar, llm, search,
// slack, or store.
func (m *Metrics) RecordCollaboratorCall(ctx context.Context, collaborator, operation, status string, duration time.Duration) {
	if m == nil || m.collaboratorCallsTotal == nil || m.collaboratorCallDuration == nil {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String(attrCollaborator, BoundedLabel(collaborator, knownCollaborators...)),
		attribute.String(attrOperation, operation),
		attribute.String(attrStatus, BoundedLabel(status, knownStatuses...)),
	)

	m.collaboratorCallsTotal.Add(ctx, 1, attrs)
	m.collaboratorCallDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordAlert records an urgent alert attempt.
func (m *Metrics) RecordAlert(ctx context.Context, status string) {
	if m == nil || m.alertsTotal == nil {
		return
	}

	m.alertsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, BoundedLabel(status, knownStatuses...)),
	))
}

// RecordMeeting records the outcome of one meeting candidate: created,
// skipped (invalid), or failed (calendar error).
func (m *Metrics) RecordMeeting(ctx context.Context, status string) {
	if m == nil || m.meetingsTotal == nil {
		return
	}

	m.meetingsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrStatus, BoundedLabel(status, knownMeetings...)),
	))
}

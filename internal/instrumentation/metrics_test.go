package instrumentation

import (
	"context"
	"testing"
	"time"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMetrics returns Metrics backed by a manual reader so tests can
// inspect what was recorded.
func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics() error = %v", err)
	}
	return m, reader
}

func collectSum(t *testing.T, reader *sdkmetric.ManualReader, name string) map[string]int64 {
	t.Helper()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is %T, want Sum[int64]", name, m.Data)
			}
			for _, dp := range sum.DataPoints {
				out[dp.Attributes.Encoded(nil)] += dp.Value
			}
		}
	}
	return out
}

func total(points map[string]int64) int64 {
	var n int64
	for _, v := range points {
		n += v
	}
	return n
}

func TestMetrics_RecordEmailProcessed(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordEmailProcessed(ctx, PathSimple, StatusSuccess)
	m.RecordEmailProcessed(ctx, PathComplex, StatusError)
	m.RecordEmailProcessed(ctx, PathComplex, StatusError)

	points := collectSum(t, reader, "triage_emails_processed_total")
	if got := total(points); got != 3 {
		t.Errorf("total = %d, want 3", got)
	}
	if len(points) != 2 {
		t.Errorf("expected 2 series, got %d: %v", len(points), points)
	}
}

func TestMetrics_RecordCollaboratorCall(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCollaboratorCall(ctx, CollaboratorGmail, "fetch", StatusSuccess, 200*time.Millisecond)
	m.RecordCollaboratorCall(ctx, CollaboratorCalendar, "create", StatusError, 500*time.Millisecond)

	points := collectSum(t, reader, "triage_collaborator_calls_total")
	if got := total(points); got != 2 {
		t.Errorf("total = %d, want 2", got)
	}
}

func TestMetrics_UnknownLabelsAreBounded(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordCollaboratorCall(ctx, "jane@example.com", "op", "weird", time.Millisecond)
	m.RecordCollaboratorCall(ctx, "bob@example.com", "op", "odd", time.Millisecond)

	points := collectSum(t, reader, "triage_collaborator_calls_total")
	if len(points) != 1 {
		t.Errorf("expected unknown labels folded into one series, got %v", points)
	}
}

func TestMetrics_RecordAlertAndMeeting(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordAlert(ctx, StatusSuccess)
	m.RecordMeeting(ctx, MeetingCreated)
	m.RecordMeeting(ctx, MeetingSkipped)
	m.RecordMeeting(ctx, MeetingFailed)

	if got := total(collectSum(t, reader, "triage_alerts_total")); got != 1 {
		t.Errorf("alerts = %d, want 1", got)
	}
	if got := total(collectSum(t, reader, "triage_meetings_total")); got != 3 {
		t.Errorf("meetings = %d, want 3", got)
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var nilMetrics *Metrics
	nilMetrics.RecordEmailProcessed(ctx, PathSimple, StatusSuccess)
	nilMetrics.RecordCollaboratorCall(ctx, CollaboratorLLM, "generate_reply", StatusSuccess, time.Second)
	nilMetrics.RecordAlert(ctx, StatusError)
	nilMetrics.RecordMeeting(ctx, MeetingCreated)

	// Zero value behaves like the disabled provider's recorder
	zero := &Metrics{}
	zero.RecordEmailProcessed(ctx, PathSimple, StatusSuccess)
	zero.RecordCollaboratorCall(ctx, CollaboratorLLM, "generate_reply", StatusSuccess, time.Second)
	zero.RecordAlert(ctx, StatusError)
	zero.RecordMeeting(ctx, MeetingCreated)
}

func TestMetrics_DisabledProvider(t *testing.T) {
	provider, err := NewProvider(context.Background(), Config{Enabled: false})
	if err != nil {
		t.Fatalf("NewProvider() error = %v", err)
	}

	// Should not panic
	provider.Metrics().RecordEmailProcessed(context.Background(), PathComplex, StatusSuccess)
}

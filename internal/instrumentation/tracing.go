package instrumentation

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the default tracer name for the inboxtriage module.
const TracerName = "github.com/teemow/inboxtriage"

// Span attribute keys.
const (
	// SpanAttrEmailID is the Gmail message id being processed.
	SpanAttrEmailID = "triage.email_id"

	// SpanAttrCollaborator is the external collaborator name.
	SpanAttrCollaborator = "triage.collaborator"

	// SpanAttrOperation is the collaborator operation.
	SpanAttrOperation = "triage.operation"
)

// StartSpan starts a new span with the given name and attributes.
// The caller is responsible for ending the span with defer span.End().
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartEmailSpan starts the span covering one email's trip through the pipeline.
func StartEmailSpan(ctx context.Context, emailID string) (context.Context, trace.Span) {
	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "triage.email",
		trace.WithAttributes(attribute.String(SpanAttrEmailID, emailID)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// StartCollaboratorSpan starts a client span for one collaborator call,
// named collaborator.<name>.<operation>.
func StartCollaboratorSpan(ctx context.Context, collaborator, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	allAttrs := make([]attribute.KeyValue, 0, len(attrs)+2)
	allAttrs = append(allAttrs,
		attribute.String(SpanAttrCollaborator, collaborator),
		attribute.String(SpanAttrOperation, operation),
	)
	allAttrs = append(allAttrs, attrs...)

	tracer := otel.GetTracerProvider().Tracer(TracerName)
	return tracer.Start(ctx, "collaborator."+collaborator+"."+operation,
		trace.WithAttributes(allAttrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// SetSpanError records an error on the span and sets the status to error.
func SetSpanError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// SetSpanSuccess sets the span status to OK.
func SetSpanSuccess(span trace.Span) {
	span.SetStatus(codes.Ok, "")
}

// GetTraceID returns the trace ID from the current span in context.
// Returns empty string if no valid span is present.
func GetTraceID(ctx context.Context) string {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}
	return ""
}

// Package instrumentation provides OpenTelemetry instrumentation for the
// inboxtriage pipeline.
//
// # Metrics
//
//   - triage_emails_processed_total: emails reaching a terminal state by path and status
//   - triage_collaborator_calls_total: calls to gmail, calendar, llm, search, slack, store
//   - triage_collaborator_call_duration_seconds: histogram of those calls
//   - triage_alerts_total: urgent alerts by status
//   - triage_meetings_total: meeting candidates by outcome (created, skipped, failed)
//
// Label values are bounded; see BoundedLabel.
//
// # Tracing
//
// One triage.email span per email, with a collaborator.<name>.<operation>
// child span per external call.
//
// # Resource
//
// Every series and span carries the run's confirm mode, dry-run flag and
// batch size (Config.Run) next to the service and process attributes.
//
// # Audit
//
// AuditLogger records every outbound action (reply sent, event created,
// alert posted, human decision). Recipients are anonymized unless
// AUDIT_LOGGING_INCLUDE_PII is set.
//
// # Configuration
//
//   - INSTRUMENTATION_ENABLED: Enable/disable instrumentation (default: true)
//   - METRICS_EXPORTER: prometheus, otlp, stdout (default: prometheus)
//   - TRACING_EXPORTER: otlp, stdout, none (default: none)
//   - OTEL_EXPORTER_OTLP_ENDPOINT: OTLP endpoint for traces/metrics
//   - OTEL_TRACES_SAMPLER_ARG: Sampling rate (0.0 to 1.0, default: 1.0)
//   - OTEL_SERVICE_NAME: Service name (default: inboxtriage)
//
// # Example Usage
//
//	provider, err := instrumentation.NewProvider(ctx, instrumentation.DefaultConfig())
//	if err != nil {
//		return err
//	}
//	defer provider.Shutdown(ctx)
//
//	provider.Metrics().RecordCollaboratorCall(ctx, "gmail", "send", "success", time.Since(start))
package instrumentation

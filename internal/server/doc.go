// Package server runs the optional side HTTP server of a triage run:
// Prometheus metrics on /metrics and health probes on /healthz, /readyz and
// /healthz/detailed.
package server

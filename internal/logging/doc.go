// Package logging provides structured logging utilities for inboxtriage.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Process logger construction (text or JSON, info or debug)
//   - PII sanitization (sender address anonymization)
//   - Consistent attribute naming across the pipeline
//   - Logger adapter interface for flexibility
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithService(slog.Default(), "calendar")
//	logger.Info("event created",
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("processing email",
//	    logging.SenderHash(sender.Address))
//
// # Security Considerations
//
//   - Sender addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
//   - Bodies and replies are only logged as truncated previews
package logging

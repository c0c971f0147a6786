// Package cmd implements the command-line interface for inboxtriage.
//
// This package provides the following commands:
//   - triage: Process the most recent inbox messages (default)
//   - auth: Authorize access to Gmail, Calendar and the People API
//   - history: List emails stored by previous runs
//   - version: Display version information
package cmd

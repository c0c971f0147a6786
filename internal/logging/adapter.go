package logging

import (
	"fmt"
	"log/slog"
	"strings"
)

// PrintfAdapter adapts an slog.Logger to printf-style logger interfaces such
// as the one golang-migrate expects (Printf plus Verbose).
type PrintfAdapter struct {
	logger  *slog.Logger
	verbose bool
}

// NewPrintfAdapter creates a PrintfAdapter wrapping the given slog.Logger.
// If logger is nil, slog.Default() is used. Verbose output is emitted at
// debug level only when verbose is true.
func NewPrintfAdapter(logger *slog.Logger, verbose bool) *PrintfAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrintfAdapter{logger: logger, verbose: verbose}
}

// Printf logs a formatted line at debug level. Trailing newlines are dropped.
func (a *PrintfAdapter) Printf(format string, v ...interface{}) {
	a.logger.Debug(strings.TrimRight(fmt.Sprintf(format, v...), "\n"))
}

// Verbose reports whether verbose messages should be produced.
func (a *PrintfAdapter) Verbose() bool {
	return a.verbose
}

// Logger returns the underlying slog.Logger for direct access when needed.
func (a *PrintfAdapter) Logger() *slog.Logger {
	return a.logger
}

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestNewPrintfAdapter_WithNil(t *testing.T) {
	adapter := NewPrintfAdapter(nil, false)
	if adapter == nil {
		t.Fatal("NewPrintfAdapter returned nil")
	}
	if adapter.logger == nil {
		t.Error("adapter.logger should not be nil when created with nil")
	}
}

func TestNewPrintfAdapter_WithLogger(t *testing.T) {
	logger := slog.Default()
	adapter := NewPrintfAdapter(logger, true)
	if adapter.Logger() != logger {
		t.Error("Logger() should return the underlying logger")
	}
	if !adapter.Verbose() {
		t.Error("Verbose() should reflect the constructor argument")
	}
}

func TestPrintfAdapter_Printf(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewPrintfAdapter(NewLogger(&buf, FormatText, true), false)

	adapter.Printf("applied migration %d\n", 1)

	out := buf.String()
	if !strings.Contains(out, "applied migration 1") {
		t.Errorf("Printf output missing message: %q", out)
	}
	if strings.Contains(out, `1\n`) {
		t.Errorf("Printf should trim trailing newline: %q", out)
	}
}

func TestPrintfAdapter_PrintfBelowLevel(t *testing.T) {
	var buf bytes.Buffer
	adapter := NewPrintfAdapter(NewLogger(&buf, FormatText, false), false)

	adapter.Printf("hidden")

	if buf.Len() != 0 {
		t.Errorf("debug output should be suppressed at info level, got %q", buf.String())
	}
}

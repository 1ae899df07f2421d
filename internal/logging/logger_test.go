package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerRendersComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	handler := newConsoleHandler(&buf, levelVar, false)
	logger := slog.New(handler).With(String(FieldComponent, "ingest"))

	logger.Info("image stored", String("patient", "Doe_Jane"), Int("count", 3))

	line := buf.String()
	if !strings.Contains(line, "ingest: image stored") {
		t.Fatalf("expected component prefix in %q", line)
	}
	if !strings.Contains(line, "patient=Doe_Jane") || !strings.Contains(line, "count=3") {
		t.Fatalf("expected attrs in %q", line)
	}
	if strings.Contains(line, "\x1b[") {
		t.Fatalf("expected no color codes for non-terminal writer: %q", line)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	handler := newConsoleHandler(&buf, levelVar, false)

	if handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("info should be disabled at warn level")
	}
	slog.New(handler).Info("dropped")
	if buf.Len() != 0 {
		t.Fatalf("expected no output, got %q", buf.String())
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewJSONFormat(t *testing.T) {
	logger, err := New(Options{Format: "json", Level: "debug"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestFormatValueQuotesSpaces(t *testing.T) {
	if got := formatValue(slog.StringValue("two words")); got != `"two words"` {
		t.Fatalf("got %q", got)
	}
	if got := formatValue(slog.StringValue("")); got != `""` {
		t.Fatalf("got %q", got)
	}
	if got := formatValue(slog.StringValue("plain")); got != "plain" {
		t.Fatalf("got %q", got)
	}
}

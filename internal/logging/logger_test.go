package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger = WithComponent(logger, "session")
	logger.Info("work drawn", slog.String(FieldAnnotator, "ana"), slog.Int(FieldCursor, 3))

	out := buf.String()
	if !strings.Contains(out, "[session]") {
		t.Fatalf("component missing from header:\n%s", out)
	}
	if !strings.Contains(out, "- annotator: ana") || !strings.Contains(out, "- cursor: 3") {
		t.Fatalf("fields not rendered:\n%s", out)
	}
}

func TestConsoleHandlerLevelGate(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")
	if strings.Contains(buf.String(), "quiet") {
		t.Fatal("info record leaked past warn level")
	}
	if !strings.Contains(buf.String(), "loud") {
		t.Fatal("warn record missing")
	}
}

func TestJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "info", Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	logger.Info("signed in", slog.String(FieldAnnotator, "ben"))

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, buf.String())
	}
	if record[FieldAnnotator] != "ben" {
		t.Fatalf("attribute missing: %v", record)
	}
}

func TestUnsupportedFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("unsupported format must error")
	}
}

func TestNopLogger(t *testing.T) {
	logger := NewNop()
	logger.Error("goes nowhere", Error(nil))
}

package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentAndAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "debug", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger = NewComponentLogger(logger, "download")
	logger.Info("stream complete", String("path", "out/show.mp4"), Int(FieldItemID, 25006))

	line := buf.String()
	if !strings.Contains(line, "INFO download: stream complete") {
		t.Fatalf("unexpected console line: %q", line)
	}
	if !strings.Contains(line, "path=out/show.mp4") {
		t.Fatalf("missing path attr: %q", line)
	}
	if !strings.Contains(line, "item_id=25006") {
		t.Fatalf("missing item_id attr: %q", line)
	}
}

func TestConsoleHandlerQuotesValuesWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Warn("link expiring", String("title", "Some Show"))

	if !strings.Contains(buf.String(), `title="Some Show"`) {
		t.Fatalf("expected quoted value, got %q", buf.String())
	}
}

func TestJSONHandlerRenamesStandardKeys(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Format: "json", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("hello", Int("count", 3))

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if payload["msg"] != "hello" {
		t.Fatalf("expected msg key, got %v", payload)
	}
	if payload["level"] != "info" {
		t.Fatalf("expected lowercase level, got %v", payload["level"])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts key, got %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Level: "warn", Format: "console", Output: &buf})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	if strings.Contains(out, "dropped") {
		t.Fatalf("info line should be filtered: %q", out)
	}
	if !strings.Contains(out, "kept") {
		t.Fatalf("warn line missing: %q", out)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(nil, slog.LevelError) {
		t.Fatal("nop logger should never be enabled")
	}
}

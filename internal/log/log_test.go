package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, expected %v", in, got, want)
		}
	}
}

func TestNewJSON(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "info", "json")

	l.Debug("hidden")
	l.Info("frame", "index", 3)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("Expected 1 line, got %d: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if rec["msg"] != "frame" || rec["index"] != float64(3) {
		t.Errorf("Unexpected record %v", rec)
	}
}

func TestNewConsole(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, "debug", "")

	l.Debug("calibrated", "point", "(1,2)")

	out := buf.String()
	if !strings.Contains(out, "calibrated") || !strings.Contains(out, "point=(1,2)") {
		t.Errorf("Unexpected console output %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("Non-terminal output should not be colored: %q", out)
	}
}

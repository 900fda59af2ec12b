package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"ERROR", slog.LevelError},
		{"unknown", slog.LevelInfo},
		{"", slog.LevelInfo},
	}

	for _, tt := range tests {
		got := ParseLevel(tt.input)
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func restoreDefault(t *testing.T) {
	t.Helper()
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
}

func TestInitJSON(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, true, slog.LevelInfo)

	slog.Info("connected", "topic", "hpc-jobs")

	var m map[string]any
	if err := json.Unmarshal(buf.Bytes(), &m); err != nil {
		t.Fatalf("expected valid JSON output, got error: %v\noutput: %s", err, buf.String())
	}
	if m["msg"] != "connected" {
		t.Errorf("expected msg 'connected', got %q", m["msg"])
	}
	if m["topic"] != "hpc-jobs" {
		t.Errorf("expected topic 'hpc-jobs', got %q", m["topic"])
	}
}

func TestInitText(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	logger := Init(&buf, false, slog.LevelInfo)

	logger.Warn("connection lost, reconnecting", "backoff", "5s")

	out := buf.String()
	if !strings.Contains(out, `msg="connection lost, reconnecting"`) {
		t.Errorf("expected text output containing msg, got: %s", out)
	}
	if !strings.Contains(out, "backoff=5s") {
		t.Errorf("expected text output containing backoff=5s, got: %s", out)
	}
}

func TestInitLevelFilters(t *testing.T) {
	restoreDefault(t)
	var buf bytes.Buffer
	Init(&buf, false, slog.LevelWarn)

	slog.Info("dropped")
	slog.Debug("dropped too")
	if buf.Len() != 0 {
		t.Fatalf("expected records below warn to be dropped, got: %s", buf.String())
	}
	slog.Error("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Fatalf("expected error record, got: %s", buf.String())
	}
}

func TestInitNilWriterDiscards(t *testing.T) {
	restoreDefault(t)
	logger := Init(nil, false, slog.LevelDebug)
	logger.Info("nowhere")
	if logger != slog.Default() {
		t.Fatal("expected Init to install the logger as default")
	}
}

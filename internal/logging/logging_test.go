package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{" warn ", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestJSONHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	l := slog.New(NewHandler(&buf, Options{Level: "warn"}))
	l.Info("hidden")
	l.Warn("submission failed", "question_id", "q1")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d records, want 1: %q", len(lines), buf.String())
	}
	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["question_id"] != "q1" || rec["msg"] != "submission failed" {
		t.Errorf("record = %v", rec)
	}
}

func TestDebugUsesTextHandler(t *testing.T) {
	var buf bytes.Buffer
	slog.New(NewHandler(&buf, Options{Debug: true})).Debug("tick", "remaining", 3)
	if !strings.Contains(buf.String(), "remaining=3") {
		t.Errorf("output = %q, want text record", buf.String())
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	l, closer, err := New(Options{Path: path})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	l.Info("attempt started", "attempt_id", "a1")
	closer.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"attempt_id":"a1"`) {
		t.Errorf("log file = %q", data)
	}
}

func TestDefaultPathUsesXDGState(t *testing.T) {
	t.Setenv("XDG_STATE_HOME", "/tmp/state")
	p, err := DefaultPath()
	if err != nil {
		t.Fatal(err)
	}
	if p != "/tmp/state/lingoquiz/lingoquiz.log" {
		t.Errorf("DefaultPath() = %q", p)
	}
}

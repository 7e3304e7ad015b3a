package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSetupWritesConsoleAndFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	now := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	logger, err := setup(&console, "debug", dir, now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	logger.Debug("generated definition", "states", 4)

	if !strings.Contains(console.String(), "generated definition") {
		t.Errorf("console output missing message: %q", console.String())
	}
	data, err := os.ReadFile(filepath.Join(dir, "emrlaunch-2026-03-14.log"))
	if err != nil {
		t.Fatalf("reading log file: %v", err)
	}
	if !strings.Contains(string(data), "states=4") {
		t.Errorf("log file missing attribute: %q", data)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"WARN", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/emrlaunch/emrlaunch/internal/config"
)

// DefaultDirectory holds the daily log files.
const DefaultDirectory = "~/.emrlaunch/logs/"

// Setup returns a logger writing to stderr and to the day's log file in
// directory. Stdout is left to command output.
func Setup(level, directory string) (*slog.Logger, error) {
	return setup(os.Stderr, level, directory, time.Now())
}

func setup(console io.Writer, level, directory string, now time.Time) (*slog.Logger, error) {
	if directory == "" {
		directory = DefaultDirectory
	}
	directory = config.ExpandHome(directory)

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}

	logPath := filepath.Join(directory, FileName(now))
	file, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	handler := slog.NewTextHandler(io.MultiWriter(console, file), &slog.HandlerOptions{
		Level: ParseLevel(level),
	})
	return slog.New(handler), nil
}

// FileName is the log file used on day t.
func FileName(t time.Time) string {
	return fmt.Sprintf("emrlaunch-%s.log", t.Format("2006-01-02"))
}

// ParseLevel maps a configured level name to a slog level; unknown names
// mean info.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

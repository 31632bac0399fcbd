package logging

import (
	"context"
	"log/slog"
	"testing"
)

func TestNewLoggerLevelParsing(t *testing.T) {
	cases := []struct {
		name    string
		level   slog.Level
		enabled bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, true},
		{"warn", slog.LevelInfo, false},
		{"ERROR", slog.LevelWarn, false},
		{"ERROR", slog.LevelError, true},
		{"bogus", slog.LevelDebug, false},
		{"bogus", slog.LevelInfo, true},
	}
	for _, tc := range cases {
		logger := NewLogger(tc.name)
		if got := logger.Enabled(context.Background(), tc.level); got != tc.enabled {
			t.Errorf("NewLogger(%q).Enabled(%v) = %v, want %v", tc.name, tc.level, got, tc.enabled)
		}
	}
}

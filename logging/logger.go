package logging

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Level names parse the way
// slog spells them ("debug", "info", "warn", "error", case-insensitive);
// anything unrecognized falls back to info.
func NewLogger(logLevel string) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(logLevel)); err != nil {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:     level,
		AddSource: true,
	})
	return slog.New(handler)
}

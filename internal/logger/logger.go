// File: internal/logger/logger.go
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Level is shared by every logger created here so --debug can raise verbosity after construction
var Level = new(slog.LevelVar)

func NewLogger() *slog.Logger {
	return New(os.Stderr)
}

func New(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: Level,
	}

	handler := slog.NewTextHandler(w, opts)

	logger := slog.New(handler)

	slog.SetDefault(logger)
	return logger
}

func SetDebug(enabled bool) {
	if enabled {
		Level.Set(slog.LevelDebug)
		return
	}
	Level.Set(slog.LevelInfo)
}

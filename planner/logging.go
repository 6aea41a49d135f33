package planner

import (
	"log/slog"
	"os"
)

// Package logger, JSON to stdout. Stages attach session/execution ids via
// With so every log line is attributable to one run.
var logger = slog.New(slog.NewJSONHandler(os.Stdout, nil))

// Logger returns the package logger.
func Logger() *slog.Logger {
	return logger
}

// SetLogger replaces the package logger (used by binaries to install a
// handler with their own level and output).
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func sessionLogger(s *Session) *slog.Logger {
	return logger.With("session_id", s.ID, "step", string(s.CurrentStep))
}

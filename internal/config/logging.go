// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	slogmulti "github.com/samber/slog-multi"
)

// ParseLevel parses a level name. An empty name means info.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("invalid level '%s', must be one of: debug, info, warn, error", name)
}

// SetupLogger creates the application logger: JSON to logFile and, when
// console is non-nil, text to console. The TUI passes a nil console since
// it owns the terminal. Returns the logger and a cleanup function to close
// the file.
func SetupLogger(logFile string, level slog.Level, console io.Writer) (*slog.Logger, func() error) {
	opts := &slog.HandlerOptions{Level: level}

	var handlers []slog.Handler
	if console != nil {
		handlers = append(handlers, slog.NewTextHandler(console, opts))
	}

	noop := func() error { return nil }

	if err := os.MkdirAll(filepath.Dir(logFile), 0700); err != nil {
		return fallbackLogger(handlers, opts), noop
	}
	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		logger := fallbackLogger(handlers, opts)
		logger.Warn("failed to open log file", "error", err, "file", logFile)
		return logger, noop
	}

	handlers = append(handlers, slog.NewJSONHandler(file, opts))
	return slog.New(slogmulti.Fanout(handlers...)), file.Close
}

// SetupLoggerWithWriters creates a logger with custom writers (for testing).
func SetupLoggerWithWriters(console, file io.Writer, level slog.Level) *slog.Logger {
	consoleHandler := slog.NewTextHandler(console, &slog.HandlerOptions{Level: level})
	fileHandler := slog.NewJSONHandler(file, &slog.HandlerOptions{Level: level})
	return slog.New(slogmulti.Fanout(consoleHandler, fileHandler))
}

func fallbackLogger(handlers []slog.Handler, opts *slog.HandlerOptions) *slog.Logger {
	if len(handlers) == 0 {
		return slog.New(slog.NewTextHandler(io.Discard, opts))
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package logging provides structured logging for the depgraph CLI.
//
// Logs go to stderr so that analysis output on stdout stays clean, with
// an optional JSON file sink:
//
//	┌───────────────────────────────────────┐
//	│                Logger                 │
//	│  ┌──────────────┐  ┌───────────────┐  │
//	│  │    stderr    │  │   log file    │  │
//	│  │ (text/JSON)  │  │ (JSON, opt.)  │  │
//	│  └──────────────┘  └───────────────┘  │
//	└───────────────────────────────────────┘
//
// Core packages never import this package. They accept a *slog.Logger
// through options, and the CLI hands them Logger.Slog().
//
// # Thread Safety
//
// Logger is safe for concurrent use.
package logging

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// =============================================================================
// Log Levels
// =============================================================================

// Level represents log severity levels, ordered Debug < Info < Warn < Error.
type Level int

const (
	// LevelDebug logs every analyzed file.
	LevelDebug Level = iota

	// LevelInfo logs run start, progress and completion.
	LevelInfo

	// LevelWarn logs skipped files and degraded behavior.
	LevelWarn

	// LevelError logs operation failures.
	LevelError
)

// String returns "DEBUG", "INFO", "WARN", "ERROR", or "UNKNOWN".
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l Level) toSlogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ErrUnknownLevel is returned by ParseLevel.
var ErrUnknownLevel = errors.New("unknown log level")

// ParseLevel parses a level name, case-insensitively. "warning" is
// accepted as an alias of "warn".
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	default:
		return LevelInfo, fmt.Errorf("%w: %q", ErrUnknownLevel, s)
	}
}

// =============================================================================
// Configuration
// =============================================================================

// Config configures the Logger. The zero value writes every level to
// stderr as text, since LevelDebug is the zero Level.
type Config struct {
	// Level is the minimum level written.
	Level Level

	// LogDir enables a JSON file sink named {service}_{date}.log in this
	// directory. Supports ~ expansion. Created if missing.
	LogDir string

	// Service is attached to every record as "service".
	Service string

	// JSON switches the console handler to JSON.
	JSON bool

	// Quiet disables the console handler. The file sink, if any, still
	// receives records.
	Quiet bool

	// Writer replaces os.Stderr as the console destination.
	Writer io.Writer
}

// =============================================================================
// Logger
// =============================================================================

// Logger wraps slog.Logger with an optional file sink.
type Logger struct {
	slog   *slog.Logger
	config Config
	file   *os.File
	mu     sync.Mutex
}

// New creates a Logger. Call Close to release the file sink.
//
// A LogDir that cannot be created or opened is reported once on the
// console handler and file logging is skipped.
func New(config Config) *Logger {
	opts := &slog.HandlerOptions{Level: config.Level.toSlogLevel()}

	console := config.Writer
	if console == nil {
		console = os.Stderr
	}

	var handlers []slog.Handler
	if !config.Quiet {
		if config.JSON {
			handlers = append(handlers, slog.NewJSONHandler(console, opts))
		} else {
			handlers = append(handlers, slog.NewTextHandler(console, opts))
		}
	}

	logger := &Logger{config: config}

	var fileErr error
	if config.LogDir != "" {
		file, err := openLogFile(config)
		if err != nil {
			fileErr = err
		} else {
			logger.file = file
			handlers = append(handlers, slog.NewJSONHandler(file, opts))
		}
	}

	var handler slog.Handler
	switch len(handlers) {
	case 0:
		handler = slog.NewTextHandler(io.Discard, opts)
	case 1:
		handler = handlers[0]
	default:
		handler = &multiHandler{handlers: handlers}
	}

	if config.Service != "" {
		handler = handler.WithAttrs([]slog.Attr{slog.String("service", config.Service)})
	}

	logger.slog = slog.New(handler)
	if fileErr != nil {
		logger.slog.Warn("file logging disabled", slog.String("error", fileErr.Error()))
	}
	return logger
}

func openLogFile(config Config) (*os.File, error) {
	dir := expandPath(config.LogDir)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	service := config.Service
	if service == "" {
		service = "depgraph"
	}
	name := fmt.Sprintf("%s_%s.log", service, time.Now().Format("2006-01-02"))
	return os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
}

// Default returns an Info-level stderr logger for service "depgraph".
func Default() *Logger {
	return New(Config{Level: LevelInfo, Service: "depgraph"})
}

// Debug logs at Debug level.
func (l *Logger) Debug(msg string, args ...any) {
	l.slog.Debug(msg, args...)
}

// Info logs at Info level.
func (l *Logger) Info(msg string, args ...any) {
	l.slog.Info(msg, args...)
}

// Warn logs at Warn level.
func (l *Logger) Warn(msg string, args ...any) {
	l.slog.Warn(msg, args...)
}

// Error logs at Error level.
func (l *Logger) Error(msg string, args ...any) {
	l.slog.Error(msg, args...)
}

// With returns a child Logger with additional attributes. The child
// shares the parent's file sink; only the parent should be closed.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		slog:   l.slog.With(args...),
		config: l.config,
	}
}

// Slog returns the underlying slog.Logger for injection into packages
// that take one.
func (l *Logger) Slog() *slog.Logger {
	return l.slog
}

// Close syncs and closes the file sink. Safe to call more than once.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	var errs []error
	if err := l.file.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync log file: %w", err))
	}
	if err := l.file.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close log file: %w", err))
	}
	l.file = nil
	return errors.Join(errs...)
}

// =============================================================================
// Multi-Handler (Internal)
// =============================================================================

// multiHandler fans out log records to multiple slog handlers.
type multiHandler struct {
	handlers []slog.Handler
}

func (h *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle sends the record to every enabled handler and returns the
// first error after all have been tried.
func (h *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	var first error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func (h *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (h *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		handlers[i] = handler.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// expandPath expands a leading ~ to the user's home directory.
func expandPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

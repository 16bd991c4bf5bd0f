// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package logger provides structured logging for rigchat.
//
// It wraps log/slog with a package-level DefaultLogger, level/format
// configuration, and redaction of API keys so credentials never reach a log
// line. Completion calls are logged with LLMCall / LLMResponse / LLMError.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"regexp"
	"strings"
	"sync"
)

var (
	// DefaultLogger is the global structured logger. Safe for concurrent use.
	DefaultLogger *slog.Logger

	mu sync.Mutex
)

func init() {
	DefaultLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
}

// =============================================================================
// CONFIGURATION
// =============================================================================

// ParseLevel converts a level name ("debug", "info", "warn", "error") to a
// slog.Level.
func ParseLevel(name string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", name)
	}
}

// Configure replaces DefaultLogger. format is "text" or "json"; w defaults to
// stderr when nil.
func Configure(level slog.Level, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	mu.Lock()
	DefaultLogger = slog.New(handler)
	mu.Unlock()
}

func current() *slog.Logger {
	mu.Lock()
	defer mu.Unlock()
	return DefaultLogger
}

// =============================================================================
// LEVEL HELPERS
// =============================================================================

// Debug logs a debug-level message with key/value attributes.
func Debug(msg string, args ...any) {
	current().Debug(RedactSensitiveData(msg), args...)
}

// Warn logs a warning for recoverable problems.
func Warn(msg string, args ...any) {
	current().Warn(RedactSensitiveData(msg), args...)
}

// Error logs an error that affected an operation without ending the session.
func Error(msg string, args ...any) {
	current().Error(RedactSensitiveData(msg), args...)
}

// =============================================================================
// COMPLETION LOGGING
// =============================================================================

// LLMCall logs an outgoing completion request. Never pass message contents.
func LLMCall(model string, turns int, temperature float64, stream bool, attrs ...any) {
	all := append([]any{
		"model", model,
		"turns", turns,
		"temperature", temperature,
		"stream", stream,
	}, attrs...)
	Debug("completion request", all...)
}

// LLMResponse logs a completed response.
func LLMResponse(model string, status int, chars int, attrs ...any) {
	all := append([]any{
		"model", model,
		"status", status,
		"chars", chars,
	}, attrs...)
	Debug("completion response", all...)
}

// LLMError logs a failed completion call.
func LLMError(model string, err error, attrs ...any) {
	all := append([]any{
		"model", model,
		"error", RedactSensitiveData(err.Error()),
	}, attrs...)
	Warn("completion failed", all...)
}

// =============================================================================
// REDACTION
// =============================================================================

var apiKeyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`sk-[a-zA-Z0-9_-]{16,}`),     // OpenAI / OpenRouter style keys
	regexp.MustCompile(`Bearer\s+[a-zA-Z0-9._-]+`), // Authorization header values
}

// RedactSensitiveData replaces API keys and bearer tokens in input.
func RedactSensitiveData(input string) string {
	result := input
	for _, pattern := range apiKeyPatterns {
		result = pattern.ReplaceAllStringFunc(result, func(match string) string {
			if strings.HasPrefix(match, "Bearer") {
				return "Bearer [REDACTED]"
			}
			return match[:3] + "[REDACTED]"
		})
	}
	return result
}

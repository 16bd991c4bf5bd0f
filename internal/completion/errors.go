// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

// Error classes. Use errors.Is to test a returned error against them.
var (
	// ErrAuthentication: the API key is missing, invalid or not permitted.
	// Retrying with the same key will not help.
	ErrAuthentication = errors.New("authentication failed")

	// ErrTransient: network failure, rate limit or server-side error.
	// The request may succeed if repeated later.
	ErrTransient = errors.New("temporary failure")

	// ErrConfiguration: unknown model, temperature out of range, or a
	// request the API rejected as malformed.
	ErrConfiguration = errors.New("invalid configuration")
)

// APIError is an error response returned by the API.
type APIError struct {
	Status  int
	Code    string
	Message string
	class   error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("%v: API error [%s] (HTTP %d): %s", e.class, e.Code, e.Status, msg)
	}
	return fmt.Sprintf("%v: API error (HTTP %d): %s", e.class, e.Status, msg)
}

// Unwrap returns the error class (ErrAuthentication, ErrTransient or ErrConfiguration).
func (e *APIError) Unwrap() error {
	return e.class
}

// StreamError is returned when a stream ends abnormally, preserving any
// partial content received before the failure.
type StreamError struct {
	Partial string
	Err     error
}

// Error implements the error interface.
func (e *StreamError) Error() string {
	if e.Partial != "" {
		return fmt.Sprintf("stream error (partial content received: %d chars): %v", len(e.Partial), e.Err)
	}
	return fmt.Sprintf("stream error: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *StreamError) Unwrap() error {
	return e.Err
}

// apiErrorResponse is the error envelope of OpenAI-compatible APIs.
type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
		Type    string          `json:"type"`
	} `json:"error"`
}

// classifyStatus maps an HTTP status to an error class.
func classifyStatus(status int) error {
	switch {
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return ErrAuthentication
	case status == http.StatusTooManyRequests,
		status == http.StatusRequestTimeout,
		status >= 500:
		return ErrTransient
	default:
		return ErrConfiguration
	}
}

// handleErrorResponse converts a non-200 response into an *APIError.
func handleErrorResponse(status int, body []byte) error {
	apiErr := &APIError{Status: status, class: classifyStatus(status)}

	var parsed apiErrorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error.Message != "" {
		apiErr.Message = parsed.Error.Message
		apiErr.Code = errorCode(parsed.Error.Code, parsed.Error.Type)
		return apiErr
	}

	// Unparseable body: keep a bounded excerpt.
	if len(body) > 200 {
		body = body[:200]
	}
	apiErr.Message = string(body)
	return apiErr
}

// errorCode accepts both string and numeric "code" fields.
func errorCode(raw json.RawMessage, fallback string) string {
	if len(raw) == 0 || string(raw) == "null" {
		return fallback
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

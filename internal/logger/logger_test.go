// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"":        slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestRedactSensitiveData(t *testing.T) {
	in := "key sk-abcdefghijklmnopqrstuvwxyz0123 and Bearer abc.def-ghi"
	out := RedactSensitiveData(in)

	assert.NotContains(t, out, "abcdefghijklmnop")
	assert.NotContains(t, out, "abc.def-ghi")
	assert.Contains(t, out, "sk-[REDACTED]")
	assert.Contains(t, out, "Bearer [REDACTED]")
	assert.Equal(t, "nothing secret", RedactSensitiveData("nothing secret"))
}

func TestConfigure_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	Configure(slog.LevelInfo, "json", &buf)
	t.Cleanup(func() { Configure(slog.LevelWarn, "text", nil) })

	Debug("hidden")
	Warn("shown", "identifier", "helloworld")
	LLMError("gpt-4", errors.New("401 for sk-abcdefghijklmnopqrstuvwxyz"))

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"identifier":"helloworld"`)
	assert.Contains(t, out, "completion failed")
	assert.False(t, strings.Contains(out, "abcdefghijklmnop"), "key leaked: %s", out)
}

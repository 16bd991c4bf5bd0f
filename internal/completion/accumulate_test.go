// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sliceSource replays fixed fragments, then io.EOF.
type sliceSource struct {
	fragments []string
	pos       int
}

func newSliceSource(texts ...string) *sliceSource {
	return &sliceSource{fragments: texts}
}

func (s *sliceSource) Next() (Fragment, error) {
	if s.pos >= len(s.fragments) {
		return Fragment{}, io.EOF
	}
	f := Fragment{Text: s.fragments[s.pos]}
	s.pos++
	return f, nil
}

func TestAccumulate_SkipsEmptyFragments(t *testing.T) {
	reply, err := Accumulate(context.Background(), newSliceSource("Hel", "", "lo"), nil)
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
}

func TestAccumulate_EmptySource(t *testing.T) {
	reply, err := Accumulate(context.Background(), newSliceSource(), nil)
	require.NoError(t, err)
	assert.Equal(t, "", reply)
}

func TestAccumulate_CallbackOrder(t *testing.T) {
	var seen []string
	_, err := Accumulate(context.Background(), newSliceSource("", "a", "", "", "b", "c"), func(s string) {
		seen = append(seen, s)
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, seen)
}

func TestAccumulate_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := newSliceSource("never")
	reply, err := Accumulate(ctx, src, nil)
	assert.Equal(t, "", reply)
	assert.ErrorIs(t, err, context.Canceled)

	// Nothing was pulled.
	f, err := src.Next()
	require.NoError(t, err)
	assert.Equal(t, "never", f.Text)
}

type failingSource struct {
	emitted bool
}

func (f *failingSource) Next() (Fragment, error) {
	if !f.emitted {
		f.emitted = true
		return Fragment{Text: "partial"}, nil
	}
	return Fragment{}, errors.New("connection reset")
}

func TestAccumulate_SourceErrorKeepsPartial(t *testing.T) {
	reply, err := Accumulate(context.Background(), &failingSource{}, nil)
	assert.Equal(t, "partial", reply)

	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, "partial", streamErr.Partial)
	assert.Contains(t, err.Error(), "connection reset")
}

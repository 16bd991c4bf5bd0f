// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/completion/completiontest"
)

// =============================================================================
// SSE READER
// =============================================================================

func TestSSEReader_ReadEvent(t *testing.T) {
	input := ": keep-alive\n" +
		"event: message\n" +
		"data: first\n\n" +
		"data:second\r\n" +
		"data: line2\r\n\r\n" +
		"id: 7\n" +
		"data: trailing"

	r := NewSSEReader(strings.NewReader(input))

	typ, data, err := r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "message", typ)
	assert.Equal(t, "first", string(data))

	_, data, err = r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "second\nline2", string(data))

	_, data, err = r.ReadEvent()
	require.NoError(t, err)
	assert.Equal(t, "trailing", string(data))

	_, _, err = r.ReadEvent()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSSEReader_OversizedLine(t *testing.T) {
	input := "data: " + strings.Repeat("x", MaxChunkSize+10) + "\n\n"
	r := NewSSEReader(strings.NewReader(input))

	_, _, err := r.ReadEvent()
	require.Error(t, err)
	assert.NotErrorIs(t, err, io.EOF)
}

// =============================================================================
// STREAM
// =============================================================================

func TestStream_YieldsFragmentsThenEOF(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.SSE("Hel", "", "lo"))
	client := newTestClient(srv)

	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)
	defer stream.Close()

	var texts []string
	for {
		f, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		texts = append(texts, f.Text)
	}

	// role announcement, three deltas, finish chunk
	assert.Equal(t, []string{"", "Hel", "", "lo", ""}, texts)
	assert.True(t, srv.LastRequest().Body.Stream)

	// Exhausted streams stay exhausted.
	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_Accumulate(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.SSE("Hel", "", "lo"))
	client := newTestClient(srv)

	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)
	defer stream.Close()

	var seen []string
	reply, err := Accumulate(context.Background(), stream, func(s string) { seen = append(seen, s) })
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply)
	assert.Equal(t, []string{"Hel", "lo"}, seen)
}

func TestStream_SkipsMalformedChunks(t *testing.T) {
	srv := completiontest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {not json}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	})
	client := newTestClient(srv)

	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)
	defer stream.Close()

	reply, err := Accumulate(context.Background(), stream, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", reply)
}

func TestStream_MidStreamErrorIsTransient(t *testing.T) {
	srv := completiontest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"part\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"error\":{\"message\":\"overloaded\"}}\n\n")
	})
	client := newTestClient(srv)

	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)
	defer stream.Close()

	reply, err := Accumulate(context.Background(), stream, nil)
	assert.Equal(t, "part", reply)
	assert.ErrorIs(t, err, ErrTransient)

	var streamErr *StreamError
	require.True(t, errors.As(err, &streamErr))
	assert.Equal(t, "part", streamErr.Partial)
}

func TestStream_Cancellation(t *testing.T) {
	srv := completiontest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"first\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	})
	client := newTestClient(srv)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	stream, err := client.Stream(ctx, validRequest())
	require.NoError(t, err)
	defer stream.Close()

	reply, err := Accumulate(ctx, stream, func(string) { cancel() })
	assert.Equal(t, "first", reply)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStream_CloseIsIdempotent(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.SSE("a"))
	client := newTestClient(srv)

	stream, err := client.Stream(context.Background(), validRequest())
	require.NoError(t, err)

	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close())

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStream_ContextDeadlineBeforeFirstByte(t *testing.T) {
	srv := completiontest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})
	client := newTestClient(srv)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Stream(ctx, validRequest())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

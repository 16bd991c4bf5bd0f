// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/jeranaias/rigchat/internal/logger"
)

// MaxChunkSize is the maximum allowed size of a single SSE line.
const MaxChunkSize = 64 * 1024

// =============================================================================
// STREAMING TYPES
// =============================================================================

// Fragment is one incremental piece of the reply. Text may be empty (role
// announcements, keep-alives); an empty fragment does not end the stream.
type Fragment struct {
	Text         string
	FinishReason string
}

// streamChunk is one "data:" payload of a streaming response.
type streamChunk struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
			Role    string `json:"role,omitempty"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Code    any    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *streamChunk) fragment() Fragment {
	if len(c.Choices) == 0 {
		return Fragment{}
	}
	f := Fragment{Text: c.Choices[0].Delta.Content}
	if c.Choices[0].FinishReason != nil {
		f.FinishReason = *c.Choices[0].FinishReason
	}
	return f
}

// =============================================================================
// SSE READER
// =============================================================================

// SSEReader parses Server-Sent Events from a stream.
type SSEReader struct {
	reader *bufio.Reader
}

// NewSSEReader creates a new SSE reader from an io.Reader.
func NewSSEReader(r io.Reader) *SSEReader {
	return &SSEReader{
		reader: bufio.NewReaderSize(r, 4096),
	}
}

// ReadEvent reads the next SSE event and returns its type and data.
// Multiple data lines are joined with "\n". Returns io.EOF at end of stream.
func (s *SSEReader) ReadEvent() (string, []byte, error) {
	var eventType string
	var dataLines [][]byte

	for {
		line, err := s.readLine()
		if err != nil {
			if errors.Is(err, io.EOF) && len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			return "", nil, err
		}

		// Empty line ends the event.
		if len(line) == 0 {
			if len(dataLines) > 0 {
				return eventType, bytes.Join(dataLines, []byte("\n")), nil
			}
			continue
		}

		switch {
		case bytes.HasPrefix(line, []byte(":")):
			// comment / keep-alive
		case bytes.HasPrefix(line, []byte("event:")):
			eventType = string(bytes.TrimSpace(line[6:]))
		case bytes.HasPrefix(line, []byte("data:")):
			data := line[5:]
			if len(data) > 0 && data[0] == ' ' {
				data = data[1:]
			}
			dataLines = append(dataLines, data)
		}
		// id: and retry: are ignored
	}
}

// readLine returns one line without its terminator, enforcing MaxChunkSize.
func (s *SSEReader) readLine() ([]byte, error) {
	var line []byte
	for {
		part, isPrefix, err := s.reader.ReadLine()
		if err != nil {
			if len(line) > 0 && errors.Is(err, io.EOF) {
				return line, nil
			}
			return nil, err
		}
		line = append(line, part...)
		if len(line) > MaxChunkSize {
			return nil, fmt.Errorf("SSE line exceeds %d bytes", MaxChunkSize)
		}
		if !isPrefix {
			return line, nil
		}
	}
}

// =============================================================================
// STREAM
// =============================================================================

// Stream is a single-pass iterator over the fragments of one reply.
type Stream struct {
	ctx   context.Context
	model string
	body  io.ReadCloser
	sse   *SSEReader

	done      bool
	chars     int
	status    int
	closeOnce sync.Once
}

func newStream(ctx context.Context, modelName string, resp *http.Response) *Stream {
	return &Stream{
		ctx:    ctx,
		model:  modelName,
		body:   resp.Body,
		sse:    NewSSEReader(resp.Body),
		status: resp.StatusCode,
	}
}

// Next returns the next fragment. It returns io.EOF once the reply is
// complete, the context error after cancellation, and an error wrapping
// ErrTransient when the connection breaks.
func (s *Stream) Next() (Fragment, error) {
	for {
		if s.done {
			return Fragment{}, io.EOF
		}
		if err := s.ctx.Err(); err != nil {
			s.finish()
			return Fragment{}, err
		}

		_, data, err := s.sse.ReadEvent()
		if err != nil {
			s.finish()
			if errors.Is(err, io.EOF) {
				logger.LLMResponse(s.model, s.status, s.chars, "stream", true)
				return Fragment{}, io.EOF
			}
			if ctxErr := s.ctx.Err(); ctxErr != nil {
				return Fragment{}, ctxErr
			}
			return Fragment{}, fmt.Errorf("%w: stream interrupted: %v", ErrTransient, err)
		}

		if bytes.Equal(bytes.TrimSpace(data), []byte("[DONE]")) {
			s.finish()
			logger.LLMResponse(s.model, s.status, s.chars, "stream", true)
			return Fragment{}, io.EOF
		}

		var chunk streamChunk
		if err := json.Unmarshal(data, &chunk); err != nil {
			logger.Debug("skipping malformed stream chunk", "error", err)
			continue
		}
		if chunk.Error != nil {
			s.finish()
			return Fragment{}, fmt.Errorf("%w: API error mid-stream: %s", ErrTransient, chunk.Error.Message)
		}

		f := chunk.fragment()
		s.chars += len(f.Text)
		return f, nil
	}
}

// Close releases the connection. It is safe to call more than once.
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.done = true
		err = s.body.Close()
	})
	return err
}

func (s *Stream) finish() {
	s.done = true
	s.closeOnce.Do(func() {
		s.body.Close()
	})
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/rigchat/internal/completion/completiontest"
	"github.com/jeranaias/rigchat/internal/model"
)

func validRequest() Request {
	return Request{
		APIKey:      "sk-test-key",
		Model:       model.DefaultModel,
		Temperature: model.DefaultTemperature,
		Turns:       []model.Turn{model.NewUserTurn("Hello")},
	}
}

func newTestClient(srv *completiontest.Server) *Client {
	return New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestRequest_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Request)
		want   error
	}{
		{"valid", func(r *Request) {}, nil},
		{"missing key", func(r *Request) { r.APIKey = "  " }, ErrAuthentication},
		{"unknown model", func(r *Request) { r.Model = "gpt-17" }, ErrConfiguration},
		{"temperature too low", func(r *Request) { r.Temperature = 0.05 }, ErrConfiguration},
		{"temperature too high", func(r *Request) { r.Temperature = 1.2 }, ErrConfiguration},
		{"empty transcript", func(r *Request) { r.Turns = nil }, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(&req)
			err := req.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestClient_MissingKeyNeverHitsNetwork(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.JSON("unused"))
	client := newTestClient(srv)

	req := validRequest()
	req.APIKey = ""
	_, err := client.Complete(context.Background(), req)
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = client.Stream(context.Background(), req)
	assert.ErrorIs(t, err, ErrAuthentication)

	assert.Empty(t, srv.Requests())
}

// =============================================================================
// NON-STREAMING
// =============================================================================

func TestClient_Complete(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.JSON("Hi there!"))
	client := newTestClient(srv)

	req := validRequest()
	req.Turns = append([]model.Turn{model.NewSystemTurn("be nice")}, req.Turns...)

	turn, err := client.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, model.NewAssistantTurn("Hi there!"), turn)

	got := srv.LastRequest()
	assert.Equal(t, "Bearer sk-test-key", got.Authorization)
	assert.Equal(t, "gpt-3.5-turbo", got.Body.Model)
	assert.False(t, got.Body.Stream)
	assert.InDelta(t, 0.5, got.Body.Temperature, 1e-9)
	require.Len(t, got.Body.Messages, 2)
	assert.Equal(t, "system", got.Body.Messages[0].Role)
	assert.Equal(t, "user", got.Body.Messages[1].Role)
	assert.Equal(t, "Hello", got.Body.Messages[1].Content)
}

func TestClient_ErrorMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrAuthentication},
		{http.StatusForbidden, ErrAuthentication},
		{http.StatusTooManyRequests, ErrTransient},
		{http.StatusInternalServerError, ErrTransient},
		{http.StatusBadGateway, ErrTransient},
		{http.StatusServiceUnavailable, ErrTransient},
		{http.StatusBadRequest, ErrConfiguration},
		{http.StatusNotFound, ErrConfiguration},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := completiontest.NewServer(t, completiontest.Status(tt.status, "nope"))
			client := newTestClient(srv)

			_, err := client.Complete(context.Background(), validRequest())
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, "nope", apiErr.Message)

			_, err = client.Stream(context.Background(), validRequest())
			assert.ErrorIs(t, err, tt.want)

			// No automatic retry.
			assert.Len(t, srv.Requests(), 2)
		})
	}
}

func TestClient_UnparseableErrorBody(t *testing.T) {
	srv := completiontest.NewServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>upstream down</html>"))
	})
	client := newTestClient(srv)

	_, err := client.Complete(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrTransient)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestClient_NetworkErrorIsTransient(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.JSON("x"))
	url := srv.URL
	srv.Close()

	client := New(Config{BaseURL: url, Timeout: time.Second})
	_, err := client.Complete(context.Background(), validRequest())
	assert.ErrorIs(t, err, ErrTransient)
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	srv := completiontest.NewServer(t, completiontest.JSON("ok"))
	client := New(Config{BaseURL: srv.URL, RequestsPerMinute: 1})

	_, err := client.Complete(context.Background(), validRequest())
	require.NoError(t, err)

	// The second call would wait a minute for a token.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = client.Complete(ctx, validRequest())
	assert.Error(t, err)
	assert.Len(t, srv.Requests(), 1)
}

func TestNew_Defaults(t *testing.T) {
	c := New(Config{})
	assert.Equal(t, DefaultBaseURL, c.BaseURL())

	c = New(Config{BaseURL: "http://localhost:8080/v1/"})
	assert.Equal(t, "http://localhost:8080/v1", c.BaseURL())
}

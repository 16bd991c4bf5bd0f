// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package completion

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/jeranaias/rigchat/internal/logger"
	"github.com/jeranaias/rigchat/internal/model"
)

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// DefaultBaseURL is the OpenAI API root.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds non-streaming requests and the wait for response
	// headers on streaming ones.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum accepted non-streaming body size.
	MaxResponseSize = 10 * 1024 * 1024

	chatPath  = "/chat/completions"
	userAgent = "rigchat/1.0"
)

// =============================================================================
// WIRE TYPES
// =============================================================================

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func toWire(turns []model.Turn) []chatMessage {
	msgs := make([]chatMessage, len(turns))
	for i, t := range turns {
		msgs[i] = chatMessage{Role: t.Role.String(), Content: t.Content}
	}
	return msgs
}

// =============================================================================
// REQUEST
// =============================================================================

// Request is one completion call.
type Request struct {
	APIKey      string
	Model       string
	Temperature float64
	Turns       []model.Turn
}

// Validate checks the request before any network I/O.
func (r Request) Validate() error {
	if strings.TrimSpace(r.APIKey) == "" {
		return fmt.Errorf("%w: no API key configured", ErrAuthentication)
	}
	if _, ok := model.LookupModel(r.Model); !ok {
		return fmt.Errorf("%w: unknown model %q", ErrConfiguration, r.Model)
	}
	if !model.ValidTemperature(r.Temperature) {
		return fmt.Errorf("%w: temperature %.2f outside [%.1f, %.1f]",
			ErrConfiguration, r.Temperature, model.MinTemperature, model.MaxTemperature)
	}
	if len(r.Turns) == 0 {
		return fmt.Errorf("%w: empty transcript", ErrConfiguration)
	}
	return nil
}

func (r Request) body(stream bool) chatRequest {
	id := r.Model
	if info, ok := model.LookupModel(r.Model); ok {
		id = info.ID
	}
	return chatRequest{
		Model:       id,
		Messages:    toWire(r.Turns),
		Stream:      stream,
		Temperature: r.Temperature,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Config configures a Client.
type Config struct {
	// BaseURL is the API root, e.g. https://api.openai.com/v1.
	BaseURL string

	// Timeout bounds non-streaming calls. Zero means DefaultTimeout.
	Timeout time.Duration

	// RequestsPerMinute paces outgoing calls. Zero or less disables pacing.
	RequestsPerMinute int

	// HTTPClient overrides both internal clients (tests).
	HTTPClient *http.Client
}

// Client calls the chat completions endpoint. It is safe for concurrent use.
type Client struct {
	baseURL      string
	httpClient   *http.Client
	streamClient *http.Client
	limiter      *rate.Limiter
}

func newTransport(headerTimeout time.Duration) *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: headerTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	}
}

// New creates a Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	baseURL := strings.TrimSuffix(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: baseURL,
		limiter: rate.NewLimiter(rate.Inf, 1),
	}
	if cfg.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1)
	}

	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
		c.streamClient = cfg.HTTPClient
	} else {
		c.httpClient = &http.Client{Transport: newTransport(timeout), Timeout: timeout}
		// Streaming has no overall timeout; the context controls it.
		c.streamClient = &http.Client{Transport: newTransport(timeout)}
	}
	return c
}

// BaseURL returns the API root in use.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// =============================================================================
// NON-STREAMING
// =============================================================================

// Complete sends the transcript and returns the whole assistant reply.
func (c *Client) Complete(ctx context.Context, req Request) (model.Turn, error) {
	if err := req.Validate(); err != nil {
		return model.Turn{}, err
	}
	logger.LLMCall(req.Model, len(req.Turns), req.Temperature, false)

	resp, err := c.send(ctx, c.httpClient, req, false)
	if err != nil {
		logger.LLMError(req.Model, err)
		return model.Turn{}, err
	}
	defer resp.Body.Close()

	body, err := readResponse(resp)
	if err != nil {
		logger.LLMError(req.Model, err)
		return model.Turn{}, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return model.Turn{}, fmt.Errorf("%w: failed to parse response: %v", ErrTransient, err)
	}
	if len(parsed.Choices) == 0 {
		return model.Turn{}, fmt.Errorf("%w: response contained no choices", ErrTransient)
	}

	content := parsed.Choices[0].Message.Content
	logger.LLMResponse(req.Model, resp.StatusCode, len(content),
		"prompt_tokens", parsed.Usage.PromptTokens,
		"completion_tokens", parsed.Usage.CompletionTokens)
	return model.NewAssistantTurn(content), nil
}

// =============================================================================
// STREAMING
// =============================================================================

// Stream starts a streaming completion. The caller must Close the stream.
func (c *Client) Stream(ctx context.Context, req Request) (*Stream, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	logger.LLMCall(req.Model, len(req.Turns), req.Temperature, true)

	resp, err := c.send(ctx, c.streamClient, req, true)
	if err != nil {
		logger.LLMError(req.Model, err)
		return nil, err
	}
	return newStream(ctx, req.Model, resp), nil
}

// =============================================================================
// TRANSPORT
// =============================================================================

// send performs one POST and returns the response when the status is 200.
// Non-200 bodies are consumed and converted into an *APIError.
func (c *Client) send(ctx context.Context, hc *http.Client, req Request, stream bool) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}

	payload, err := json.Marshal(req.body(stream))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+chatPath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid base URL: %v", ErrConfiguration, err)
	}
	setHeaders(httpReq, req.APIKey, stream)

	logRequest(httpReq)
	start := time.Now()
	resp, err := hc.Do(httpReq)
	httpReq.Header.Del("Authorization")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: request failed: %v", ErrTransient, logger.RedactSensitiveData(err.Error()))
	}
	logResponse(resp, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		return nil, handleErrorResponse(resp.StatusCode, body)
	}
	return resp, nil
}

func setHeaders(req *http.Request, apiKey string, stream bool) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
}

// readResponse reads the body with a size limit.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", ErrTransient, err)
	}
	if len(body) > MaxResponseSize {
		return nil, fmt.Errorf("%w: response exceeded maximum size of %d bytes", ErrTransient, MaxResponseSize)
	}
	return body, nil
}

// logRequest never logs headers or bodies.
func logRequest(req *http.Request) {
	logger.Debug("API request", "method", req.Method, "path", req.URL.Path)
}

func logResponse(resp *http.Response, duration time.Duration) {
	logger.Debug("API response", "status", resp.StatusCode, "duration", duration)
}

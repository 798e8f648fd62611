// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package cloud provides the completion client for hosted chat models.
package cloud

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/tls"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/jeranaias/chatbook/internal/model"
)

// Configuration constants for the completion API.
const (
	// DefaultBaseURL is the base URL for the OpenAI API.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultTimeout bounds a single completion request.
	DefaultTimeout = 60 * time.Second

	// DefaultRequestsPerMinute is the default client-side request rate.
	DefaultRequestsPerMinute = 60

	// MaxResponseSize is the maximum allowed response body size.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit

	userAgent = "chatbook/0.1.0"
)

// Error variables for common API errors. A returned error matches
// ErrCompletionFailed and, where known, one of the more specific errors.
var (
	// ErrCompletionFailed matches any failed completion request.
	ErrCompletionFailed = errors.New("completion failed")

	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrEmptyResponse indicates the API returned no choices.
	ErrEmptyResponse = errors.New("empty response")

	// ErrTimeout indicates the request did not finish within the timeout.
	ErrTimeout = errors.New("request timed out")
)

// CompletionError describes a failed completion request.
type CompletionError struct {
	Model   string
	Status  int    // HTTP status, 0 when no response was received
	Code    string // API error code, if any
	Message string // API error message, if any
	Err     error
}

// Error implements the error interface.
func (e *CompletionError) Error() string {
	var sb strings.Builder
	sb.WriteString("completion failed")
	if e.Model != "" {
		sb.WriteString(" (" + e.Model + ")")
	}
	if e.Status != 0 {
		fmt.Fprintf(&sb, ": HTTP %d", e.Status)
	}
	if e.Err != nil {
		sb.WriteString(": " + e.Err.Error())
	}
	if e.Message != "" && (e.Err == nil || !strings.Contains(e.Err.Error(), e.Message)) {
		sb.WriteString(": " + e.Message)
	}
	return sb.String()
}

// Unwrap returns the underlying cause.
func (e *CompletionError) Unwrap() error {
	return e.Err
}

// Is reports ErrCompletionFailed as a match for every CompletionError.
func (e *CompletionError) Is(target error) bool {
	return target == ErrCompletionFailed
}

// =============================================================================
// WIRE TYPES
// =============================================================================

// Message represents a single message in a chat request.
type Message struct {
	Role    string `json:"role"`    // "user" or "assistant"
	Content string `json:"content"` // The message content
}

// NewUserMessage creates a new user message.
func NewUserMessage(content string) Message {
	return Message{Role: "user", Content: content}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) Message {
	return Message{Role: "assistant", Content: content}
}

// MessagesFromTurns converts conversation turns to the wire format.
// The per-turn model is not part of the request.
func MessagesFromTurns(turns []model.Turn) []Message {
	out := make([]Message, len(turns))
	for i, t := range turns {
		out[i] = Message{Role: t.Role.String(), Content: t.Content}
	}
	return out
}

// ChatRequest represents a request to the chat completions endpoint.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
}

// ChatResponse represents a response from the chat completions endpoint.
type ChatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Message      Message `json:"message"`
		FinishReason string  `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// apiErrorResponse represents an error response from the API.
type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Type    string          `json:"type"`
		Message string          `json:"message"`
	} `json:"error"`
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for an OpenAI-compatible chat completions API.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	timeout    time.Duration
	limiter    *rate.Limiter
	logger     *zap.Logger
}

// NewClient creates a new client with the given API key.
//
// If the API key is empty the client is still created, but Complete fails
// with ErrNotConfigured.
func NewClient(apiKey string) *Client {
	return &Client{
		apiKey:  strings.TrimSpace(apiKey),
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
				TLSHandshakeTimeout: 10 * time.Second,
				TLSClientConfig: &tls.Config{
					MinVersion: tls.VersionTLS12,
				},
			},
		},
		timeout: DefaultTimeout,
		limiter: newLimiter(DefaultRequestsPerMinute),
		logger:  zap.NewNop(),
	}
}

// limiterBurst lets the title and reply calls of one first submit go out
// back to back.
const limiterBurst = 2

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, limiterBurst)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), limiterBurst)
}

// WithBaseURL sets a custom base URL for the API.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = strings.TrimSuffix(strings.TrimSpace(url), "/")
	return c
}

// WithTimeout sets the per-request timeout. Zero or negative disables it.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithRateLimit sets the maximum request rate. Zero or negative disables it.
func (c *Client) WithRateLimit(requestsPerMinute int) *Client {
	c.limiter = newLimiter(requestsPerMinute)
	return c
}

// WithLogger sets the logger for request/response summaries.
func (c *Client) WithLogger(logger *zap.Logger) *Client {
	if logger != nil {
		c.logger = logger.Named("cloud")
	}
	return c
}

// IsConfigured returns true if the client has an API key configured.
func (c *Client) IsConfigured() bool {
	return c.apiKey != ""
}

// BaseURL returns the configured endpoint root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// KeyFingerprint returns a short SHA-256 fingerprint of the API key.
func (c *Client) KeyFingerprint() string {
	if c.apiKey == "" {
		return "none"
	}
	h := sha256.Sum256([]byte(c.apiKey))
	return hex.EncodeToString(h[:4])
}

// APIKeyMasked returns a masked version of the API key for display.
func (c *Client) APIKeyMasked() string {
	if c.apiKey == "" {
		return "[not set]"
	}
	return fmt.Sprintf("[REDACTED, length=%d, fingerprint=%s]", len(c.apiKey), c.KeyFingerprint())
}

// =============================================================================
// COMPLETION
// =============================================================================

// Complete sends messages to model and returns the text of the first choice
// verbatim. Every failure is a *CompletionError.
func (c *Client) Complete(ctx context.Context, mdl string, messages []Message) (string, error) {
	fail := func(status int, err error) error {
		return &CompletionError{Model: mdl, Status: status, Err: err}
	}

	if !c.IsConfigured() {
		return "", fail(0, ErrNotConfigured)
	}
	if strings.TrimSpace(mdl) == "" {
		return "", fail(0, errors.New("model is required"))
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fail(0, fmt.Errorf("rate limiter: %w", err))
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	resp, err := c.doRequest(ctx, ChatRequest{Model: mdl, Messages: messages})
	if err != nil {
		var ce *CompletionError
		if errors.As(err, &ce) {
			ce.Model = mdl
			return "", ce
		}
		if errors.Is(err, context.DeadlineExceeded) {
			err = fmt.Errorf("%w after %v", ErrTimeout, c.timeout)
		}
		return "", fail(0, err)
	}

	if len(resp.Choices) == 0 {
		return "", fail(http.StatusOK, ErrEmptyResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// setHeaders sets the required headers for API requests.
func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
}

// doRequest performs a single HTTP request to the chat completions endpoint.
func (c *Client) doRequest(ctx context.Context, reqBody ChatRequest) (*ChatResponse, error) {
	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	req.Header.Del("Authorization")
	if err != nil {
		c.logger.Warn("completion request failed",
			zap.String("model", reqBody.Model),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err))
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Info("completion response",
		zap.String("model", reqBody.Model),
		zap.Int("messages", len(reqBody.Messages)),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", time.Since(start)))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, handleErrorResponse(resp.StatusCode, body)
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, &CompletionError{Status: resp.StatusCode, Err: fmt.Errorf("failed to parse response: %w", err)}
	}
	return &chatResp, nil
}

// readResponse reads the response body with size limits to prevent memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if int64(len(body)) > MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}
	return body, nil
}

// handleErrorResponse converts HTTP error responses to a CompletionError.
func handleErrorResponse(statusCode int, body []byte) error {
	ce := &CompletionError{Status: statusCode}

	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil {
		ce.Message = apiErr.Error.Message
		ce.Code = strings.Trim(string(apiErr.Error.Code), `"`)
		if ce.Code == "null" {
			ce.Code = ""
		}
	}

	switch statusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		ce.Err = ErrAuthFailed
	case http.StatusNotFound:
		ce.Err = ErrModelNotFound
	case http.StatusTooManyRequests:
		ce.Err = ErrRateLimited
	default:
		if ce.Message == "" {
			ce.Message = strings.TrimSpace(string(body))
		}
		ce.Err = fmt.Errorf("unexpected status %d", statusCode)
	}
	return ce
}

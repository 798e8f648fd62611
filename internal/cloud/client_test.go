// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jeranaias/chatbook/internal/model"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client := NewClient("test-key").WithBaseURL(server.URL).WithRateLimit(0)
	return client, server
}

func writeContent(w http.ResponseWriter, content string) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":    "chatcmpl-test",
		"model": "gpt-4o",
		"choices": []map[string]any{
			{"message": map[string]string{"role": "assistant", "content": content}, "finish_reason": "stop"},
		},
	})
}

func TestNewClient(t *testing.T) {
	client := NewClient("  sk-abc  ")
	assert.True(t, client.IsConfigured())
	assert.Equal(t, DefaultBaseURL, client.BaseURL())
	assert.NotContains(t, client.APIKeyMasked(), "sk-abc")
	assert.Len(t, client.KeyFingerprint(), 8)

	empty := NewClient("")
	assert.False(t, empty.IsConfigured())
	assert.Equal(t, "[not set]", empty.APIKeyMasked())
	assert.Equal(t, "none", empty.KeyFingerprint())
}

func TestWithBaseURLTrimsSlash(t *testing.T) {
	client := NewClient("k").WithBaseURL("http://localhost:8080/v1/")
	assert.Equal(t, "http://localhost:8080/v1", client.BaseURL())
}

func TestCompleteSuccess(t *testing.T) {
	var got ChatRequest
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		writeContent(w, "Hi there!")
	})

	text, err := client.Complete(context.Background(), "gpt-4o", []Message{
		NewUserMessage("Hello"),
		NewAssistantMessage("Hey"),
		NewUserMessage("How are you?"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", text)

	assert.Equal(t, "gpt-4o", got.Model)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, Message{Role: "user", Content: "Hello"}, got.Messages[0])
	assert.Equal(t, Message{Role: "assistant", Content: "Hey"}, got.Messages[1])
	assert.Equal(t, Message{Role: "user", Content: "How are you?"}, got.Messages[2])
}

func TestCompleteReturnsContentVerbatim(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, "  padded\n")
	})

	text, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.NoError(t, err)
	assert.Equal(t, "  padded\n", text)
}

func TestCompleteEmptyContentIsAccepted(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, "")
	})

	text, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.NoError(t, err)
	assert.Empty(t, text)
}

func TestCompleteNoChoices(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestCompleteNotConfigured(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := NewClient("").WithBaseURL(server.URL)
	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.False(t, called)
}

func TestCompleteRequiresModel(t *testing.T) {
	client := NewClient("k")
	_, err := client.Complete(context.Background(), " ", []Message{NewUserMessage("x")})
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestCompleteErrorStatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		wantMsg string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":{"message":"Incorrect API key","code":"invalid_api_key"}}`, ErrAuthFailed, "Incorrect API key"},
		{"forbidden", http.StatusForbidden, `{}`, ErrAuthFailed, ""},
		{"not found", http.StatusNotFound, `{"error":{"message":"model does not exist"}}`, ErrModelNotFound, "model does not exist"},
		{"rate limited", http.StatusTooManyRequests, `{"error":{"message":"slow down"}}`, ErrRateLimited, "slow down"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrCompletionFailed)
			assert.ErrorIs(t, err, tt.wantErr)

			var ce *CompletionError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, tt.status, ce.Status)
			assert.Equal(t, "gpt-4o", ce.Model)
			assert.Equal(t, tt.wantMsg, ce.Message)
		})
	}
}

func TestCompleteServerError(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	})

	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)

	var ce *CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, http.StatusBadGateway, ce.Status)
	assert.Equal(t, "upstream down", ce.Message)
	assert.Contains(t, err.Error(), "HTTP 502")
}

func TestCompleteErrorCodeParsing(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad","code":null}}`))
	})

	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	var ce *CompletionError
	require.True(t, errors.As(err, &ce))
	assert.Empty(t, ce.Code)
}

func TestCompleteMalformedJSON(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	})

	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.Contains(t, err.Error(), "failed to parse response")
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)
	client.WithTimeout(50 * time.Millisecond)

	start := time.Now()
	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.ErrorIs(t, err, ErrTimeout)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestCompleteCancelledContext(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, "never")
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := client.Complete(ctx, "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
}

func TestCompleteRateLimiterWaitsForContext(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeContent(w, "ok")
	})
	client.WithRateLimit(1)

	// Title and reply calls share the burst.
	for i := 0; i < limiterBurst; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		_, err := client.Complete(ctx, "gpt-4o", []Message{NewUserMessage("x")})
		cancel()
		require.NoError(t, err, "request %d", i)
	}

	// The next request would need to wait a minute for a token.
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Complete(ctx, "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCompletionFailed)
	assert.Contains(t, err.Error(), "rate limiter")
}

func TestCompleteOversizedResponse(t *testing.T) {
	client, _ := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("a", MaxResponseSize+10)))
	})

	_, err := client.Complete(context.Background(), "gpt-4o", []Message{NewUserMessage("x")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "maximum size")
}

func TestMessagesFromTurns(t *testing.T) {
	turns := []model.Turn{
		model.NewUserTurn("Hello", "gpt-4o"),
		model.NewAssistantTurn("Hi there!", "gpt-4o"),
	}
	msgs := MessagesFromTurns(turns)
	require.Len(t, msgs, 2)
	assert.Equal(t, Message{Role: "user", Content: "Hello"}, msgs[0])
	assert.Equal(t, Message{Role: "assistant", Content: "Hi there!"}, msgs[1])

	assert.Empty(t, MessagesFromTurns(nil))
}

func TestCompletionErrorString(t *testing.T) {
	err := &CompletionError{Model: "gpt-4o", Status: 429, Message: "slow down", Err: ErrRateLimited}
	assert.Equal(t, "completion failed (gpt-4o): HTTP 429: rate limited: slow down", err.Error())
	assert.True(t, errors.Is(err, ErrCompletionFailed))
	assert.True(t, errors.Is(err, ErrRateLimited))
	assert.False(t, errors.Is(err, ErrAuthFailed))
}

// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server provides the chatbook HTTP API.
//
// Endpoints:
//   - GET  /health
//   - GET  /v1/models
//   - GET  /v1/conversations?limit=N
//   - POST /v1/conversations
//   - GET  /v1/conversations/{id}
//   - POST /v1/conversations/{id}/messages
//   - POST /v1/conversations/{id}/retry
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jeranaias/chatbook/internal/cloud"
	"github.com/jeranaias/chatbook/internal/model"
	"github.com/jeranaias/chatbook/internal/session"
	"github.com/jeranaias/chatbook/internal/storage"
)

// ============================================================================
// CONSTANTS
// ============================================================================

const (
	// DefaultAddr is the default listen address.
	DefaultAddr = "127.0.0.1:8787"

	// MaxRequestBodySize is the maximum size for a request body (1MB).
	MaxRequestBodySize = 1 * 1024 * 1024

	// MaxListLimit caps the limit query parameter.
	MaxListLimit = 100

	// Version is the API version reported by /health.
	Version = "1"
)

// ============================================================================
// COLLABORATORS
// ============================================================================

// Controller is the part of session.Controller the server uses.
type Controller interface {
	Models() []string
	NewSession() *session.Session
	Resume(ctx context.Context, id string) (*session.Session, error)
}

// Lister lists saved conversations.
type Lister interface {
	ListRecent(ctx context.Context, limit int) ([]storage.ConversationMeta, error)
}

// ============================================================================
// SERVER
// ============================================================================

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Default: 127.0.0.1:8787
	Addr string

	// Token, when set, is required as a bearer token.
	Token string

	// AllowedOrigins are the CORS origins. Empty disables CORS headers.
	AllowedOrigins []string

	// RequestsPerMinute limits each client IP. 0 disables the limit.
	RequestsPerMinute int

	// SessionTTL is how long idle sessions stay in memory. Default: 30m
	SessionTTL time.Duration

	// DefaultLimit is used when a listing has no limit. Default: 10
	DefaultLimit int

	// Logger receives request and lifecycle logs. Nil discards logs.
	Logger *zap.Logger
}

// Server is the HTTP API server.
type Server struct {
	opts     Options
	ctrl     Controller
	lister   Lister
	sessions *sessionRegistry
	logger   *zap.Logger
	router   *http.ServeMux
	handler  http.Handler
	server   *http.Server
	started  time.Time
}

// New creates a server over ctrl. Listings are served from lister.
func New(ctrl Controller, lister Lister, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	s := &Server{
		opts:     opts,
		ctrl:     ctrl,
		lister:   lister,
		sessions: newSessionRegistry(ctrl, opts.SessionTTL),
		logger:   opts.Logger.Named("server"),
		router:   http.NewServeMux(),
		started:  time.Now(),
	}
	s.setupRoutes()

	middlewares := []func(http.Handler) http.Handler{
		RecoveryMiddleware(s.logger),
		SecurityHeadersMiddleware(),
		LoggingMiddleware(s.logger),
	}
	if len(opts.AllowedOrigins) > 0 {
		middlewares = append(middlewares, CORSMiddleware(DefaultCORSConfig(opts.AllowedOrigins)))
	}
	middlewares = append(middlewares,
		AuthMiddleware(opts.Token, s.logger),
		RateLimitMiddleware(NewRateLimiter(opts.RequestsPerMinute, burstFor(opts.RequestsPerMinute))),
	)
	s.handler = Chain(middlewares...)(s.router)
	return s
}

// burstFor allows short bursts of a sixth of the per-minute rate.
func burstFor(perMinute int) int {
	if b := perMinute / 6; b > 1 {
		return b
	}
	return 1
}

// Handler returns the routed handler with the middleware chain applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.opts.Addr
}

// ============================================================================
// ROUTES
// ============================================================================

func (s *Server) setupRoutes() {
	s.router.HandleFunc("GET /health", s.handleHealth)
	s.router.HandleFunc("GET /v1/models", s.handleModels)

	s.router.HandleFunc("GET /v1/conversations", s.handleListConversations)
	s.router.HandleFunc("POST /v1/conversations", s.handleCreateConversation)
	s.router.HandleFunc("GET /v1/conversations/{id}", s.handleGetConversation)
	s.router.HandleFunc("POST /v1/conversations/{id}/messages", s.handleSubmit)
	s.router.HandleFunc("POST /v1/conversations/{id}/retry", s.handleRetry)
}

// ============================================================================
// TYPES
// ============================================================================

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	UptimeSeconds  int64  `json:"uptime_seconds"`
	ActiveSessions int    `json:"active_sessions"`
}

// ModelInfo describes one selectable chat model. Tier, context and cost are
// empty for models missing from the registry.
type ModelInfo struct {
	ID            string `json:"id"`
	Object        string `json:"object"`
	DisplayName   string `json:"display_name"`
	Tier          string `json:"tier,omitempty"`
	ContextWindow int    `json:"context_window,omitempty"`
	Context       string `json:"context,omitempty"`
	Cost          string `json:"cost,omitempty"`
}

// ModelsResponse is the body of GET /v1/models.
type ModelsResponse struct {
	Object string      `json:"object"`
	Data   []ModelInfo `json:"data"`
}

// ConversationListResponse is the body of GET /v1/conversations.
type ConversationListResponse struct {
	Conversations []storage.ConversationMeta `json:"conversations"`
}

// ConversationResponse is a conversation snapshot with its derived state.
type ConversationResponse struct {
	*model.Conversation
	State string `json:"state"`
	Busy  bool   `json:"busy"`
}

// SubmitRequest is the body of POST /v1/conversations/{id}/messages.
type SubmitRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// RetryRequest is the body of POST /v1/conversations/{id}/retry.
type RetryRequest struct {
	Model string `json:"model"`
}

// ReplyResponse carries the assistant turn and the updated conversation.
type ReplyResponse struct {
	Reply        model.Turn           `json:"reply"`
	Conversation ConversationResponse `json:"conversation"`
}

// ErrorDetail is the error object of every error response.
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    int    `json:"code"`
}

// ErrorResponse is the body of every error response. Reply is set when a
// reply was produced but could not be saved.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
	Reply *model.Turn `json:"reply,omitempty"`
}

func conversationResponse(sess *session.Session) ConversationResponse {
	return ConversationResponse{
		Conversation: sess.Snapshot(),
		State:        sess.State().String(),
		Busy:         sess.Busy(),
	}
}

// ============================================================================
// HANDLERS
// ============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:         "ok",
		Version:        Version,
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		ActiveSessions: s.sessions.count(),
	})
}

func (s *Server) handleModels(w http.ResponseWriter, r *http.Request) {
	models := s.ctrl.Models()
	resp := ModelsResponse{Object: "list", Data: make([]ModelInfo, 0, len(models))}
	for _, id := range models {
		entry := ModelInfo{ID: id, Object: "model", DisplayName: model.DisplayName(id)}
		if info, ok := model.GetModelInfo(id); ok {
			entry.Tier = info.Tier
			entry.ContextWindow = info.MaxTokens
			entry.Context = info.ContextString()
			entry.Cost = info.CostString()
		}
		resp.Data = append(resp.Data, entry)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListConversations(w http.ResponseWriter, r *http.Request) {
	limit := s.opts.DefaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > MaxListLimit {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("limit must be between 1 and %d", MaxListLimit))
			return
		}
		limit = n
	}

	metas, err := s.lister.ListRecent(r.Context(), limit)
	if err != nil {
		s.writeSessionError(w, "", err, nil)
		return
	}
	if metas == nil {
		metas = []storage.ConversationMeta{}
	}
	writeJSON(w, http.StatusOK, ConversationListResponse{Conversations: metas})
}

func (s *Server) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.create()
	s.logger.Debug("conversation created", zap.String("chat_id", sess.ID()))
	writeJSON(w, http.StatusCreated, conversationResponse(sess))
}

func (s *Server) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	sess, err := s.sessions.get(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, id, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, conversationResponse(sess))
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.sessions.get(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, id, err, nil)
		return
	}

	turn, err := sess.Submit(r.Context(), req.Model, req.Prompt)
	s.writeReply(w, sess, turn, err)
}

func (s *Server) handleRetry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req RetryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	sess, err := s.sessions.get(r.Context(), id)
	if err != nil {
		s.writeSessionError(w, id, err, nil)
		return
	}

	turn, err := sess.Retry(r.Context(), req.Model)
	s.writeReply(w, sess, turn, err)
}

func (s *Server) writeReply(w http.ResponseWriter, sess *session.Session, turn model.Turn, err error) {
	if err != nil {
		var reply *model.Turn
		var se *storage.StorageError
		if errors.As(err, &se) {
			reply = &turn
		}
		s.writeSessionError(w, sess.ID(), err, reply)
		return
	}
	writeJSON(w, http.StatusOK, ReplyResponse{Reply: turn, Conversation: conversationResponse(sess)})
}

// writeSessionError maps session, store and completion errors to statuses.
func (s *Server) writeSessionError(w http.ResponseWriter, id string, err error, reply *model.Turn) {
	status, errType := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("chat_id", id), zap.Int("status", status), zap.Error(err))
	} else {
		s.logger.Debug("request rejected", zap.String("chat_id", id), zap.Int("status", status), zap.Error(err))
	}

	message := err.Error()
	if reply != nil {
		message = "reply received but not saved: " + message
	}
	writeJSON(w, status, ErrorResponse{
		Error: ErrorDetail{Message: message, Type: errType, Code: status},
		Reply: reply,
	})
}

// statusFor returns the HTTP status and error type for err.
func statusFor(err error) (int, string) {
	var se *storage.StorageError
	switch {
	case errors.Is(err, session.ErrEmptyPrompt), errors.Is(err, session.ErrUnknownModel):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, storage.ErrConversationNotFound), errors.Is(err, storage.ErrEmptyID):
		return http.StatusNotFound, "not_found_error"
	case errors.Is(err, session.ErrBusy), errors.Is(err, session.ErrNothingToRetry):
		return http.StatusConflict, "conflict_error"
	case errors.Is(err, cloud.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "completion_error"
	case errors.Is(err, cloud.ErrCompletionFailed):
		return http.StatusBadGateway, "completion_error"
	case errors.As(err, &se):
		return http.StatusInternalServerError, "storage_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ============================================================================
// SERVER LIFECYCLE
// ============================================================================

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.opts.Addr,
		Handler:      s.handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 10 * time.Minute,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server started", zap.String("addr", s.opts.Addr), zap.Bool("auth", s.opts.Token != ""))
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	s.logger.Info("server shutting down", zap.Int("active_sessions", s.sessions.count()))
	return s.server.Shutdown(ctx)
}

// ============================================================================
// HELPERS
// ============================================================================

// decodeBody decodes a JSON request body into v and writes a 400 on failure.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+strings.TrimPrefix(err.Error(), "json: "))
		return false
	}
	return true
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	errType := "invalid_request_error"
	switch {
	case status == http.StatusUnauthorized:
		errType = "authentication_error"
	case status == http.StatusTooManyRequests:
		errType = "rate_limit_error"
	case status >= http.StatusInternalServerError:
		errType = "internal_error"
	}
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Message: message, Type: errType, Code: status}})
}

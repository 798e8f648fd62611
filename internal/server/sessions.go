// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package server

import (
	"context"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/jeranaias/chatbook/internal/session"
)

const (
	// DefaultSessionTTL is how long an idle session stays in memory.
	DefaultSessionTTL = 30 * time.Minute

	sessionCleanupInterval = 5 * time.Minute
)

// sessionOpener is the part of session.Controller the registry needs.
type sessionOpener interface {
	NewSession() *session.Session
	Resume(ctx context.Context, id string) (*session.Session, error)
}

// sessionRegistry keeps one live session per conversation ID so that
// concurrent requests on the same conversation share its busy guard.
type sessionRegistry struct {
	mu     sync.Mutex
	cache  *cache.Cache
	opener sessionOpener
}

func newSessionRegistry(opener sessionOpener, ttl time.Duration) *sessionRegistry {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &sessionRegistry{
		cache:  cache.New(ttl, sessionCleanupInterval),
		opener: opener,
	}
}

// create starts a new session and registers it.
func (r *sessionRegistry) create() *session.Session {
	s := r.opener.NewSession()
	r.cache.Set(s.ID(), s, cache.DefaultExpiration)
	return s
}

// get returns the live session for id, resuming it from the store when it
// is not in memory. Each hit refreshes the idle timer.
func (r *sessionRegistry) get(ctx context.Context, id string) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if x, found := r.cache.Get(id); found {
		s := x.(*session.Session)
		r.cache.Set(id, s, cache.DefaultExpiration)
		return s, nil
	}

	s, err := r.opener.Resume(ctx, id)
	if err != nil {
		return nil, err
	}
	r.cache.Set(id, s, cache.DefaultExpiration)
	return s, nil
}

func (r *sessionRegistry) count() int {
	return r.cache.ItemCount()
}

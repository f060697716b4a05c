// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package credentials

import (
	"sync"
	"time"

	"github.com/consolehq/authcore/pkg/logger"
)

// backend is the optional durable layer underneath a store. A nil backend
// means session-only persistence.
type backend interface {
	load() (record, error)
	save(rec record) error
	clear() error
}

// localStore implements Store with an in-memory record mirrored to an
// optional backend. Once the backend fails, the store degrades to
// memory-only for the remainder of the process and stops retrying.
type localStore struct {
	mu       sync.RWMutex
	rec      record
	now      func() time.Time
	backend  backend
	degraded bool
}

// Option configures a store.
type Option func(*localStore)

// WithClock replaces the store's time source. Intended for tests that need
// to simulate token expiry.
func WithClock(now func() time.Time) Option {
	return func(s *localStore) {
		s.now = now
	}
}

// NewMemoryStore creates a store with session-only persistence.
func NewMemoryStore(opts ...Option) Store {
	s := &localStore{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func newStoreWithBackend(b backend, opts ...Option) Store {
	s := &localStore{now: time.Now, backend: b}
	for _, opt := range opts {
		opt(s)
	}

	rec, err := b.load()
	if err != nil {
		s.degrade("load previous session", err)
		return s
	}
	s.rec = rec
	return s
}

// degrade flips the store to memory-only persistence. Storage problems are
// never surfaced to callers; the session simply stops being durable.
func (s *localStore) degrade(op string, err error) {
	if !s.degraded {
		logger.Warnf("credential storage unavailable (%s): %v; continuing in-memory only", op, err)
	}
	s.degraded = true
}

// flush mirrors the current record to the backend. Callers must hold the
// write lock.
func (s *localStore) flush() {
	if s.backend == nil || s.degraded {
		return
	}
	if err := s.backend.save(s.rec); err != nil {
		s.degrade("save", err)
	}
}

func (s *localStore) Store(creds Credentials) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec.AccessToken = creds.AccessToken
	s.rec.RefreshToken = creds.RefreshToken
	s.rec.TokenType = creds.TokenType
	s.rec.ExpiresAt = s.now().Add(creds.ExpiresIn)
	s.flush()
}

func (s *localStore) AccessToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.AccessToken, s.rec.AccessToken != ""
}

func (s *localStore) RefreshToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.RefreshToken, s.rec.RefreshToken != ""
}

func (s *localStore) TokenType() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.TokenType, s.rec.TokenType != ""
}

func (s *localStore) IsExpired(skew time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.ExpiresAt.IsZero() {
		return true
	}
	return !s.now().Add(skew).Before(s.rec.ExpiresAt)
}

func (s *localStore) StoreUser(user User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := user
	s.rec.User = &u
	s.flush()
}

func (s *localStore) User() (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.rec.User == nil {
		return User{}, false
	}
	return *s.rec.User, true
}

func (s *localStore) StoreAntiForgeryToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec.AntiForgeryToken = token
	s.flush()
}

func (s *localStore) AntiForgeryToken() (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.AntiForgeryToken, s.rec.AntiForgeryToken != ""
}

func (s *localStore) TouchActivity(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec.LastActivity = at
	s.flush()
}

func (s *localStore) LastActivity() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rec.LastActivity, !s.rec.LastActivity.IsZero()
}

func (s *localStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rec = record{}
	if s.backend == nil || s.degraded {
		return
	}
	if err := s.backend.clear(); err != nil {
		s.degrade("clear", err)
	}
}

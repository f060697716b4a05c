// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/consolehq/authcore/pkg/authz"
	"github.com/consolehq/authcore/pkg/config"
	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
	"github.com/consolehq/authcore/pkg/logger"
	"github.com/consolehq/authcore/pkg/provider"
	"github.com/consolehq/authcore/pkg/refresh"
	"github.com/consolehq/authcore/pkg/telemetry"
	"github.com/consolehq/authcore/pkg/transport"
)

// Manager is the session facade exposed to collaborators. It is an
// explicitly constructed, dependency-injected object: create one at
// application start and tear it down with Close.
type Manager struct {
	cfg       *config.Config
	store     credentials.Store
	idp       provider.Client
	hierarchy *authz.Hierarchy
	coord     *refresh.Coordinator
	client    *http.Client
	base      http.RoundTripper
	now       func() time.Time

	mu        sync.Mutex
	listeners []subscription
	active    bool
	monitor   *monitor
}

type subscription struct {
	id       string
	listener Listener
}

// Option configures a Manager.
type Option func(*Manager)

// WithStore replaces the default file-backed credential store.
func WithStore(store credentials.Store) Option {
	return func(m *Manager) { m.store = store }
}

// WithProvider replaces the default HTTP identity provider client.
func WithProvider(idp provider.Client) Option {
	return func(m *Manager) { m.idp = idp }
}

// WithHierarchy replaces the default role hierarchy.
func WithHierarchy(h *authz.Hierarchy) Option {
	return func(m *Manager) { m.hierarchy = h }
}

// WithClock replaces the manager's time source. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithBaseTransport replaces the transport underneath the request pipeline.
func WithBaseTransport(rt http.RoundTripper) Option {
	return func(m *Manager) { m.base = rt }
}

// NewManager wires the credential store, refresh coordinator and request
// pipeline together according to cfg. A previously persisted session is
// resumed if one exists.
func NewManager(cfg *config.Config, opts ...Option) (*Manager, error) {
	if cfg == nil {
		return nil, autherrors.NewInvalidArgumentError("config is required", nil)
	}

	m := &Manager{
		cfg:       cfg,
		now:       time.Now,
		base:      http.DefaultTransport,
		hierarchy: authz.DefaultHierarchy(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = credentials.NewLocalStore(cfg.AppName, credentials.WithClock(m.now))
	}

	if m.idp == nil {
		idp, err := provider.NewHTTPClient(cfg.ProviderURL, &http.Client{Timeout: cfg.RequestTimeout})
		if err != nil {
			return nil, err
		}
		m.idp = idp
	}

	m.coord = refresh.NewCoordinator(m.store, m.idp,
		refresh.WithFailureHandler(func(err error) {
			m.terminate(ReasonRefreshFailed, err)
		}))

	client, err := transport.NewClientBuilder().
		WithBaseTransport(m.base).
		WithStore(m.store).
		WithRenewer(m.coord).
		WithTimeout(cfg.RequestTimeout).
		WithRetryPolicy(cfg.Retry.MaxAttempts, cfg.Retry.InitialInterval).
		WithExpirySkew(cfg.ExpirySkew).
		Build()
	if err != nil {
		return nil, err
	}
	m.client = client

	// Resume a persisted session. The absolute window restarts here: the
	// login instant is not persisted, and a resumed process is the moral
	// equivalent of a page reload.
	if _, hasUser := m.store.User(); hasUser {
		if _, hasRefresh := m.store.RefreshToken(); hasRefresh {
			logger.Debug("Resuming persisted session")
			m.startSession(m.now(), false)
		}
	}

	return m, nil
}

// Client returns the HTTP client whose requests run through the pipeline.
// Collaborators issue business calls with it and never attach credentials
// themselves.
func (m *Manager) Client() *http.Client {
	return m.client
}

// Login authenticates against the identity provider and starts a session.
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (credentials.User, error) {
	resp, err := m.idp.Login(ctx, email, password)
	if err != nil {
		return credentials.User{}, err
	}

	m.store.Store(resp.Credentials())
	m.store.StoreUser(resp.User)
	if resp.AntiForgeryToken != "" {
		m.store.StoreAntiForgeryToken(resp.AntiForgeryToken)
	}

	loginAt := m.now()
	m.store.TouchActivity(loginAt)
	m.startSession(loginAt, rememberMe)

	logger.Infow("Session started", "user", resp.User.ID)
	m.emit(Event{Type: EventSessionStarted})
	return resp.User, nil
}

// Logout revokes the session server-side (best effort) and terminates it
// locally regardless of the server outcome.
func (m *Manager) Logout(ctx context.Context) {
	if token, ok := m.store.AccessToken(); ok {
		if err := m.idp.Logout(ctx, token); err != nil {
			logger.Debugf("Server-side logout failed, clearing local session anyway: %v", err)
		}
	}
	m.terminate(ReasonLogout, nil)
}

// CurrentUser returns the cached user record, if a session exists.
func (m *Manager) CurrentUser() (credentials.User, bool) {
	return m.store.User()
}

// IsAuthenticated reports whether a user record and an unexpired access
// token are both present.
func (m *Manager) IsAuthenticated() bool {
	if _, ok := m.store.User(); !ok {
		return false
	}
	if _, ok := m.store.AccessToken(); !ok {
		return false
	}
	return !m.store.IsExpired(0)
}

// HasRole reports whether the current user holds a role at least as senior
// as the named one.
func (m *Manager) HasRole(role string) bool {
	user, ok := m.CurrentUser()
	return ok && m.hierarchy.HasRole(user, role)
}

// HasPermission reports whether the named permission is in the current
// user's effective set.
func (m *Manager) HasPermission(permission string) bool {
	user, ok := m.CurrentUser()
	return ok && m.hierarchy.HasPermission(user, permission)
}

// HasAccess evaluates a composite access requirement for the current user.
func (m *Manager) HasAccess(spec authz.AccessSpec) bool {
	user, ok := m.CurrentUser()
	return ok && m.hierarchy.HasAccess(user, spec)
}

// RecordActivity notes a discrete user interaction (click, key press,
// navigation). The timestamp is sampled here, stored, and later read by the
// monitor; derived computations never touch the live clock.
func (m *Manager) RecordActivity() {
	m.store.TouchActivity(m.now())
}

// State returns the monitor's view of the session, or StateExpired when no
// session is active.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.active || m.monitor == nil {
		return StateExpired
	}
	return m.monitor.currentState()
}

// Subscribe registers a listener for session events and returns its
// unsubscribe function.
func (m *Manager) Subscribe(l Listener) func() {
	id := uuid.NewString()

	m.mu.Lock()
	m.listeners = append(m.listeners, subscription{id: id, listener: l})
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		for i, sub := range m.listeners {
			if sub.id == id {
				m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
				return
			}
		}
	}
}

// Close stops the background monitor without terminating the session. The
// persisted session, if any, survives for the next process.
func (m *Manager) Close() {
	m.mu.Lock()
	mon := m.monitor
	m.monitor = nil
	m.active = false
	m.mu.Unlock()

	if mon != nil {
		mon.stop()
	}
}

func (m *Manager) startSession(loginAt time.Time, rememberMe bool) {
	absolute := m.cfg.Session.AbsoluteTimeout
	if rememberMe {
		absolute = m.cfg.Session.RememberMeTimeout
	}

	mon := newMonitor(m.store, monitorConfig{
		idleTimeout:     m.cfg.Session.IdleTimeout,
		absoluteTimeout: absolute,
		warningWindow:   m.cfg.Session.WarningWindow,
		sampleInterval:  m.cfg.Session.SampleInterval,
	}, m.now, func(reason TerminationReason) {
		m.terminate(reason, nil)
	})

	m.mu.Lock()
	if m.monitor != nil {
		m.monitor.stop()
	}
	m.monitor = mon
	m.active = true
	m.mu.Unlock()

	mon.start(loginAt)
}

// terminate ends the session: exactly once per termination, subscribers are
// notified first and the credential store is cleared after, so no reader
// observes a cleared store before the signal went out.
func (m *Manager) terminate(reason TerminationReason, cause error) {
	m.mu.Lock()
	if !m.active {
		m.mu.Unlock()
		return
	}
	m.active = false
	mon := m.monitor
	m.monitor = nil
	m.mu.Unlock()

	if mon != nil {
		mon.stop()
	}

	telemetry.SessionTerminations.WithLabelValues(string(reason)).Inc()
	logger.Infow("Session terminated", "reason", string(reason))

	m.emit(Event{Type: EventSessionTerminated, Reason: reason, Err: cause})
	m.store.Clear()
}

// emit delivers an event to all subscribers synchronously.
func (m *Manager) emit(event Event) {
	m.mu.Lock()
	listeners := make([]subscription, len(m.listeners))
	copy(listeners, m.listeners)
	m.mu.Unlock()

	for _, sub := range listeners {
		sub.listener(event)
	}
}

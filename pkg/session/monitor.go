// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"time"

	"github.com/consolehq/authcore/pkg/credentials"
	"github.com/consolehq/authcore/pkg/logger"
)

// State is the monitor's view of the session.
type State string

const (
	// StateActive means recent activity was observed and neither timeout
	// window has elapsed.
	StateActive State = "active"

	// StateIdleWarning means the idle window is about to elapse; the UI
	// can prompt the user to stay signed in.
	StateIdleWarning State = "idle_warning"

	// StateExpired means a timeout elapsed and the session was ended.
	StateExpired State = "expired"
)

// monitorConfig carries the timeout policy for one session.
type monitorConfig struct {
	idleTimeout     time.Duration
	absoluteTimeout time.Duration
	warningWindow   time.Duration
	sampleInterval  time.Duration
}

// monitor enforces the idle and absolute timeout windows. The two timers run
// independently; whichever elapses first expires the session.
//
// Activity is never observed directly: collaborators record activity
// timestamps into the credential store as discrete events, and the monitor
// samples the stored value on a fixed interval. Time is read only inside the
// sampling tick, never inside derived computations.
type monitor struct {
	store    credentials.Store
	cfg      monitorConfig
	now      func() time.Time
	onExpire func(reason TerminationReason)

	loginAt time.Time

	mu    sync.Mutex
	state State

	stopCh   chan struct{}
	stopOnce sync.Once
}

func newMonitor(
	store credentials.Store,
	cfg monitorConfig,
	now func() time.Time,
	onExpire func(TerminationReason),
) *monitor {
	return &monitor{
		store:    store,
		cfg:      cfg,
		now:      now,
		onExpire: onExpire,
		state:    StateActive,
		stopCh:   make(chan struct{}),
	}
}

// start begins sampling. loginAt anchors the absolute timeout window.
func (m *monitor) start(loginAt time.Time) {
	m.loginAt = loginAt
	go m.loop()
}

func (m *monitor) loop() {
	ticker := time.NewTicker(m.cfg.sampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stopCh:
			return
		case <-ticker.C:
			if m.onTick() {
				return
			}
		}
	}
}

// onTick samples the clock and the stored activity timestamp once and
// evaluates both timeout windows. Returns true when the session expired and
// the loop should stop.
func (m *monitor) onTick() bool {
	sampledNow := m.now()

	if sampledNow.Sub(m.loginAt) >= m.cfg.absoluteTimeout {
		m.expire(ReasonAbsoluteTimeout)
		return true
	}

	lastActivity, ok := m.store.LastActivity()
	if !ok {
		// No activity was ever recorded; the login itself counts.
		lastActivity = m.loginAt
	}

	idle := sampledNow.Sub(lastActivity)
	switch {
	case idle >= m.cfg.idleTimeout:
		m.expire(ReasonIdleTimeout)
		return true
	case idle >= m.cfg.idleTimeout-m.cfg.warningWindow:
		m.setState(StateIdleWarning)
	default:
		m.setState(StateActive)
	}
	return false
}

func (m *monitor) expire(reason TerminationReason) {
	m.setState(StateExpired)
	logger.Infow("Session expired", "reason", string(reason))
	m.onExpire(reason)
}

func (m *monitor) setState(s State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = s
}

// currentState returns the monitor's state.
func (m *monitor) currentState() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// stop halts sampling. Safe to call multiple times.
func (m *monitor) stop() {
	m.stopOnce.Do(func() {
		close(m.stopCh)
	})
}

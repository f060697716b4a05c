// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolehq/authcore/pkg/credentials"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func startTestMonitor(clock *fakeClock, store credentials.Store, cfg monitorConfig) (*monitor, chan TerminationReason) {
	expired := make(chan TerminationReason, 1)
	mon := newMonitor(store, cfg, clock.Now, func(reason TerminationReason) {
		expired <- reason
	})
	mon.start(clock.Now())
	return mon, expired
}

func testMonitorConfig() monitorConfig {
	return monitorConfig{
		idleTimeout:     10 * time.Minute,
		absoluteTimeout: 24 * time.Hour,
		warningWindow:   2 * time.Minute,
		sampleInterval:  5 * time.Millisecond,
	}
}

func awaitExpiry(t *testing.T, expired chan TerminationReason) TerminationReason {
	t.Helper()
	select {
	case reason := <-expired:
		return reason
	case <-time.After(2 * time.Second):
		t.Fatal("monitor never expired the session")
		return ""
	}
}

func TestMonitorIdleTimeout(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := credentials.NewMemoryStore(credentials.WithClock(clock.Now))
	mon, expired := startTestMonitor(clock, store, testMonitorConfig())
	defer mon.stop()

	clock.Advance(10 * time.Minute)

	assert.Equal(t, ReasonIdleTimeout, awaitExpiry(t, expired))
	assert.Equal(t, StateExpired, mon.currentState())
}

func TestMonitorAbsoluteTimeoutIgnoresActivity(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := credentials.NewMemoryStore(credentials.WithClock(clock.Now))
	cfg := testMonitorConfig()
	cfg.absoluteTimeout = 10 * time.Minute
	cfg.idleTimeout = time.Hour
	mon, expired := startTestMonitor(clock, store, cfg)
	defer mon.stop()

	// Keep the session busy right up to the absolute boundary.
	clock.Advance(9 * time.Minute)
	store.TouchActivity(clock.Now())
	clock.Advance(time.Minute)

	assert.Equal(t, ReasonAbsoluteTimeout, awaitExpiry(t, expired))
}

func TestMonitorActivityDefersIdleExpiry(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := credentials.NewMemoryStore(credentials.WithClock(clock.Now))
	mon, expired := startTestMonitor(clock, store, testMonitorConfig())
	defer mon.stop()

	clock.Advance(7 * time.Minute)
	store.TouchActivity(clock.Now())
	clock.Advance(7 * time.Minute)

	// 14 minutes since login, but only 7 since the last activity.
	time.Sleep(50 * time.Millisecond)
	select {
	case reason := <-expired:
		t.Fatalf("unexpected expiry: %s", reason)
	default:
	}
	assert.Equal(t, StateActive, mon.currentState())

	clock.Advance(10 * time.Minute)
	assert.Equal(t, ReasonIdleTimeout, awaitExpiry(t, expired))
}

func TestMonitorIdleWarningWindow(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := credentials.NewMemoryStore(credentials.WithClock(clock.Now))
	mon, expired := startTestMonitor(clock, store, testMonitorConfig())
	defer mon.stop()

	clock.Advance(9 * time.Minute)

	require.Eventually(t, func() bool {
		return mon.currentState() == StateIdleWarning
	}, 2*time.Second, 5*time.Millisecond)

	select {
	case reason := <-expired:
		t.Fatalf("unexpected expiry: %s", reason)
	default:
	}

	// Activity during the warning window returns the session to active.
	store.TouchActivity(clock.Now())
	require.Eventually(t, func() bool {
		return mon.currentState() == StateActive
	}, 2*time.Second, 5*time.Millisecond)
}

func TestMonitorStop(t *testing.T) {
	t.Parallel()

	clock := &fakeClock{t: time.Now()}
	store := credentials.NewMemoryStore(credentials.WithClock(clock.Now))
	mon, expired := startTestMonitor(clock, store, testMonitorConfig())

	mon.stop()
	mon.stop()

	clock.Advance(48 * time.Hour)
	time.Sleep(50 * time.Millisecond)

	select {
	case reason := <-expired:
		t.Fatalf("stopped monitor expired the session: %s", reason)
	default:
	}
}

// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package session ties the authentication core together: it owns the session
// lifecycle (login, logout, forced expiry), exposes the authenticated state
// and authorization queries to collaborators, and runs the background
// monitor that enforces the idle and absolute timeout policies.
package session

// EventType identifies a session lifecycle event.
type EventType string

const (
	// EventSessionStarted fires after a successful login.
	EventSessionStarted EventType = "session_started"

	// EventSessionTerminated fires exactly once per termination cause.
	// It is the only contract the UI needs to implement a
	// redirect-to-login.
	EventSessionTerminated EventType = "session_terminated"
)

// TerminationReason explains why a session ended.
type TerminationReason string

const (
	// ReasonLogout is an explicit user logout.
	ReasonLogout TerminationReason = "logout"

	// ReasonIdleTimeout is expiry after a period without user activity.
	ReasonIdleTimeout TerminationReason = "idle_timeout"

	// ReasonAbsoluteTimeout is expiry of the maximum session lifetime,
	// regardless of activity.
	ReasonAbsoluteTimeout TerminationReason = "absolute_timeout"

	// ReasonRefreshFailed is an irrecoverable token renewal failure.
	ReasonRefreshFailed TerminationReason = "refresh_failed"
)

// Event is delivered to subscribers on session lifecycle transitions.
type Event struct {
	Type EventType

	// Reason is set for EventSessionTerminated.
	Reason TerminationReason

	// Err carries the underlying failure for refresh-failed terminations.
	Err error
}

// Listener receives session events. Listeners are invoked synchronously, in
// subscription order, before the credential store is observable as cleared;
// they must not block.
type Listener func(Event)

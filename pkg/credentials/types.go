// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package credentials provides durable storage for the session credentials:
// the access and refresh tokens, the token expiry, the anti-forgery token and
// the cached user record. The store is the only component that mutates the
// persisted fields; everything else reads through its accessors.
package credentials

import (
	"time"
)

// Credentials is the token material handed to the store after a successful
// login or refresh. ExpiresIn is the server-supplied lifetime; the store
// converts it to an absolute expiry at store time.
type Credentials struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
	TokenType    string        `json:"token_type"`
	ExpiresIn    time.Duration `json:"-"`
}

// User is the cached user record stored alongside the credentials.
// A user may hold several roles; role names are matched case-insensitively
// against the role hierarchy.
type User struct {
	ID    string   `json:"user_id"`
	Email string   `json:"email"`
	Roles []string `json:"roles"`
}

// record is the persisted session state. It is overwritten as a whole on
// every mutation so readers never observe a partially written document.
type record struct {
	AccessToken      string    `json:"access_token,omitempty"`
	RefreshToken     string    `json:"refresh_token,omitempty"`
	TokenType        string    `json:"token_type,omitempty"`
	ExpiresAt        time.Time `json:"expires_at,omitzero"`
	AntiForgeryToken string    `json:"anti_forgery_token,omitempty"`
	User             *User     `json:"user,omitempty"`
	LastActivity     time.Time `json:"last_activity,omitzero"`
}

// Store is the credential store contract. Implementations must be safe for
// concurrent use and must never propagate storage failures to callers; a
// broken backend degrades to in-memory persistence for the process lifetime.
type Store interface {
	// Store persists the token material, replacing any previous record's
	// token fields. The cached user record and anti-forgery token survive.
	Store(creds Credentials)

	// AccessToken returns the access token, if one is present.
	AccessToken() (string, bool)

	// RefreshToken returns the refresh token, if one is present.
	RefreshToken() (string, bool)

	// TokenType returns the token type, if one is present.
	TokenType() (string, bool)

	// IsExpired reports whether now+skew is at or past the stored expiry.
	// An absent expiry counts as expired.
	IsExpired(skew time.Duration) bool

	// StoreUser caches the user record.
	StoreUser(user User)

	// User returns the cached user record, if one is present.
	User() (User, bool)

	// StoreAntiForgeryToken caches the anti-forgery token. It is an
	// independently-expiring credential, stored and replaced on its own.
	StoreAntiForgeryToken(token string)

	// AntiForgeryToken returns the anti-forgery token, if one is present.
	AntiForgeryToken() (string, bool)

	// TouchActivity records the last observed user activity time.
	TouchActivity(at time.Time)

	// LastActivity returns the last observed activity time, if any.
	LastActivity() (time.Time, bool)

	// Clear removes every field. It is idempotent.
	Clear()
}

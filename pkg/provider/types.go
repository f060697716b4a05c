// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package provider implements the client for the console's identity
// endpoints: login, token refresh and logout.
//
// Calls made here go over a bare HTTP client, never through the request
// pipeline; routing the refresh call through the pipeline's 401 handling
// would recurse.
package provider

import (
	"encoding/json"
	"time"

	"github.com/consolehq/authcore/pkg/credentials"
)

// TokenResponse is the token material returned by the login and refresh
// endpoints. ExpiresIn is the lifetime in seconds; conversion to an absolute
// expiry happens at store time, never here.
type TokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	AntiForgeryToken string `json:"csrf_token,omitempty"`
}

// Credentials converts the response into the store's credential shape.
// When the server omits expires_in, the expiry hint in the access token's
// own claims is used as a fallback.
func (r *TokenResponse) Credentials() credentials.Credentials {
	expiresIn := time.Duration(r.ExpiresIn) * time.Second
	if r.ExpiresIn == 0 {
		if exp := tokenExpiry(r.AccessToken); !exp.IsZero() {
			expiresIn = time.Until(exp)
		}
	}

	return credentials.Credentials{
		AccessToken:  r.AccessToken,
		RefreshToken: r.RefreshToken,
		TokenType:    r.TokenType,
		ExpiresIn:    expiresIn,
	}
}

// LoginResponse is the login endpoint's payload: token material plus the
// authenticated user record.
type LoginResponse struct {
	TokenResponse
	User credentials.User `json:"user"`
}

// envelope is the optional wrapper some console deployments put around
// response payloads.
type envelope struct {
	Data json.RawMessage `json:"data"`
}

// unwrap returns the payload bytes, looking through the optional
// {"data": ...} envelope. This is the single place response shapes are
// disambiguated; callers always receive the raw payload.
func unwrap(body []byte) json.RawMessage {
	var env envelope
	if err := json.Unmarshal(body, &env); err == nil && len(env.Data) > 0 {
		return env.Data
	}
	return body
}

// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package transport implements the request pipeline that wraps every
// outbound business call: credential attachment on the way out, transparent
// refresh-and-replay on authorization failure, and bounded
// exponential-backoff retry for transient transport failures.
package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
	"github.com/consolehq/authcore/pkg/logger"
	"github.com/consolehq/authcore/pkg/telemetry"
)

const (
	// AntiForgeryHeader carries the anti-forgery token on mutating requests.
	AntiForgeryHeader = "X-CSRF-Token"

	// DefaultMaxAttempts bounds transport attempts, the initial try included.
	DefaultMaxAttempts = 4

	// DefaultInitialInterval is the first retry delay; subsequent delays
	// grow geometrically.
	DefaultInitialInterval = 1 * time.Second

	// DefaultExpirySkew is how far before the stored expiry a token is
	// treated as already expired, to absorb clock drift and in-flight time.
	DefaultExpirySkew = 30 * time.Second
)

// TokenRenewer obtains a fresh access token, coordinating concurrent
// renewals. Implemented by the refresh coordinator.
type TokenRenewer interface {
	EnsureFreshToken(ctx context.Context) (string, error)
}

// Pipeline is an http.RoundTripper wrapping a base transport. Collaborator
// code issues plain HTTP calls; the pipeline attaches credentials and
// resolves recoverable failures before the caller sees them.
type Pipeline struct {
	base            http.RoundTripper
	store           credentials.Store
	renewer         TokenRenewer
	maxAttempts     uint
	initialInterval time.Duration
	expirySkew      time.Duration
	publicPrefixes  []string
}

var _ http.RoundTripper = (*Pipeline)(nil)

// serverError is a 5xx response surfaced as an error so the retry loop
// treats it as a transient failure.
type serverError struct {
	status int
}

func (e *serverError) Error() string {
	return fmt.Sprintf("server returned status %d", e.status)
}

// RoundTrip implements http.RoundTripper.
func (p *Pipeline) RoundTrip(req *http.Request) (*http.Response, error) {
	return p.roundTrip(req, false)
}

// roundTrip performs one logical request. The retried flag marks a request
// already replayed after a refresh: a second 401 must propagate as a hard
// failure rather than trigger another renewal, otherwise a permanently
// unauthorized endpoint would renew without bound.
func (p *Pipeline) roundTrip(req *http.Request, retried bool) (*http.Response, error) {
	if !retried {
		p.renewIfExpired(req)
	}

	resp, err := p.send(p.attach(req))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusUnauthorized || retried {
		// 403 and every other status pass through unchanged: the user is
		// authenticated, refresh cannot help.
		return resp, nil
	}

	if req.Body != nil && req.GetBody == nil {
		// The body is consumed and cannot be rewound for a replay.
		return resp, nil
	}

	logger.Debugw("Request unauthorized, attempting token renewal",
		"method", req.Method, "path", req.URL.Path)

	if _, rerr := p.renewer.EnsureFreshToken(req.Context()); rerr != nil {
		// The coordinator has already signalled session termination and
		// cleared the store; the caller gets the original failure.
		return resp, nil
	}

	drain(resp)
	return p.roundTrip(req, true)
}

// renewIfExpired proactively renews when the stored expiry has passed and a
// refresh token exists. Renewal failures are left to the 401 path; the
// server stays the authority.
func (p *Pipeline) renewIfExpired(req *http.Request) {
	if _, ok := p.store.RefreshToken(); !ok {
		return
	}
	if !p.store.IsExpired(p.expirySkew) {
		return
	}
	if _, err := p.renewer.EnsureFreshToken(req.Context()); err != nil {
		logger.Debugf("Proactive token renewal failed: %v", err)
	}
}

// attach clones the request and adds the bearer credential and, for mutating
// requests, the anti-forgery token. A missing access token on a protected
// endpoint produces a diagnostic but the request is still sent.
func (p *Pipeline) attach(req *http.Request) *http.Request {
	clone := req.Clone(req.Context())

	if token, ok := p.store.AccessToken(); ok {
		clone.Header.Set("Authorization", "Bearer "+token)
	} else if !p.isPublic(req.URL.Path) {
		logger.Warnf("No access token available for %s %s; sending unauthenticated",
			req.Method, req.URL.Path)
	}

	if isMutating(req.Method) {
		if csrf, ok := p.store.AntiForgeryToken(); ok {
			clone.Header.Set(AntiForgeryHeader, csrf)
		}
	}

	return clone
}

// send executes the request with bounded exponential-backoff retry. Network
// errors and 5xx responses are transient; everything else returns
// immediately. Requests whose body cannot be rewound get a single attempt.
func (p *Pipeline) send(req *http.Request) (*http.Response, error) {
	if req.Body != nil && req.GetBody == nil {
		return p.base.RoundTrip(req)
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = p.initialInterval
	expBackoff.Multiplier = 2
	// Jitter off: the retry schedule is a strict geometric progression.
	expBackoff.RandomizationFactor = 0

	attempts := 0
	operation := func() (*http.Response, error) {
		attempts++

		attemptReq := req.Clone(req.Context())
		if req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, backoff.Permanent(fmt.Errorf("failed to rewind request body: %w", err))
			}
			attemptReq.Body = body
		}

		resp, err := p.base.RoundTrip(attemptReq)
		if err != nil {
			if req.Context().Err() != nil {
				return nil, backoff.Permanent(err)
			}
			return nil, err
		}
		if resp.StatusCode >= 500 {
			drain(resp)
			return nil, &serverError{status: resp.StatusCode}
		}
		return resp, nil
	}

	resp, err := backoff.Retry(req.Context(), operation,
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(p.maxAttempts),
		backoff.WithNotify(func(err error, delay time.Duration) {
			telemetry.TransportRetries.Inc()
			logger.Debugf("Retrying %s %s after %v: %v", req.Method, req.URL.Path, delay, err)
		}),
	)
	if err != nil {
		status := 0
		var srvErr *serverError
		if errors.As(err, &srvErr) {
			status = srvErr.status
		}
		return nil, autherrors.NewTransportError(
			fmt.Sprintf("%s %s failed", req.Method, req.URL.Path), err, status, attempts)
	}
	return resp, nil
}

func (p *Pipeline) isPublic(path string) bool {
	for _, prefix := range p.publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}

// isMutating reports whether the method requires the anti-forgery token.
func isMutating(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}

// drain discards and closes a response body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

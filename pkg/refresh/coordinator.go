// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package refresh owns the token renewal operation. Many in-flight requests
// may discover an expired token at effectively the same instant; the
// coordinator guarantees that only one renewal call reaches the identity
// provider and that every waiter observes the same outcome.
package refresh

import (
	"context"

	"golang.org/x/sync/singleflight"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
	"github.com/consolehq/authcore/pkg/logger"
	"github.com/consolehq/authcore/pkg/provider"
	"github.com/consolehq/authcore/pkg/telemetry"
)

// renewalKey is the singleflight key. There is only ever one logical renewal
// operation per session, so a single constant key suffices.
const renewalKey = "token-renewal"

// FailureHandler is invoked exactly once per failed renewal, before the
// failure is fanned out to waiters. The session layer uses it to signal
// termination and clear the credential store.
type FailureHandler func(err error)

// Coordinator serializes token renewal. The zero value is not usable; use
// NewCoordinator.
type Coordinator struct {
	store     credentials.Store
	idp       provider.Client
	group     singleflight.Group
	onFailure FailureHandler
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithFailureHandler installs the handler called when a renewal fails.
func WithFailureHandler(h FailureHandler) Option {
	return func(c *Coordinator) {
		c.onFailure = h
	}
}

// NewCoordinator creates a coordinator over the given store and identity
// provider client.
func NewCoordinator(store credentials.Store, idp provider.Client, opts ...Option) *Coordinator {
	c := &Coordinator{store: store, idp: idp}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// EnsureFreshToken returns a fresh access token, renewing it via the
// identity provider if necessary. Concurrent callers rendezvous on a single
// in-flight renewal: while one is pending, no second renewal starts and
// every caller observes the pending operation's result. The pending state is
// discarded the instant the renewal settles.
func (c *Coordinator) EnsureFreshToken(ctx context.Context) (string, error) {
	result, err, shared := c.group.Do(renewalKey, func() (any, error) {
		// The renewal outcome is shared by every waiter, so it must not
		// be aborted by the initiating caller's cancellation. The
		// provider client carries its own per-attempt timeout.
		return c.renew(context.WithoutCancel(ctx))
	})
	if shared {
		telemetry.RefreshWaiters.Inc()
		logger.Debug("Joined in-flight token renewal")
	}
	if err != nil {
		return "", err
	}
	return result.(string), nil
}

// renew performs one renewal against the identity provider and installs the
// result in the credential store. It runs inside the singleflight group, so
// at most one execution is in flight at any time.
func (c *Coordinator) renew(ctx context.Context) (string, error) {
	refreshToken, ok := c.store.RefreshToken()
	if !ok {
		err := autherrors.NewRefreshInvalidError("no refresh token: nothing to renew", nil)
		telemetry.RefreshAttempts.WithLabelValues("rejected").Inc()
		c.fail(err)
		return "", err
	}

	resp, err := c.idp.Refresh(ctx, refreshToken)
	if err != nil {
		if autherrors.IsRefreshInvalid(err) {
			telemetry.RefreshAttempts.WithLabelValues("rejected").Inc()
		} else {
			telemetry.RefreshAttempts.WithLabelValues("error").Inc()
		}
		logger.Warnf("Token renewal failed: %v", err)
		c.fail(err)
		return "", err
	}

	// The whole credential record is replaced, never merged. The
	// anti-forgery token is an independent credential: it is only updated
	// when the response carries a new one.
	c.store.Store(resp.Credentials())
	if resp.AntiForgeryToken != "" {
		c.store.StoreAntiForgeryToken(resp.AntiForgeryToken)
	}

	telemetry.RefreshAttempts.WithLabelValues("success").Inc()
	logger.Debug("Token renewal succeeded")
	return resp.AccessToken, nil
}

// fail runs the failure handler, which signals session termination before
// the store is observed as cleared.
func (c *Coordinator) fail(err error) {
	if c.onFailure != nil {
		c.onFailure(err)
	}
}

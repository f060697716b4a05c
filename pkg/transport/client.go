// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"net/http"
	"time"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
)

// ClientTimeout is the overall timeout for outgoing HTTP requests.
const ClientTimeout = 30 * time.Second

// ClientBuilder provides a fluent interface for building HTTP clients whose
// requests run through the pipeline.
type ClientBuilder struct {
	base            http.RoundTripper
	store           credentials.Store
	renewer         TokenRenewer
	clientTimeout   time.Duration
	maxAttempts     uint
	initialInterval time.Duration
	expirySkew      time.Duration
	publicPrefixes  []string
}

// NewClientBuilder returns a builder with the default retry policy.
func NewClientBuilder() *ClientBuilder {
	return &ClientBuilder{
		base:            http.DefaultTransport,
		clientTimeout:   ClientTimeout,
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: DefaultInitialInterval,
		expirySkew:      DefaultExpirySkew,
		publicPrefixes:  []string{"/auth/"},
	}
}

// WithBaseTransport sets the transport the pipeline wraps.
func (b *ClientBuilder) WithBaseTransport(rt http.RoundTripper) *ClientBuilder {
	b.base = rt
	return b
}

// WithStore sets the credential store.
func (b *ClientBuilder) WithStore(store credentials.Store) *ClientBuilder {
	b.store = store
	return b
}

// WithRenewer sets the token renewer invoked on authorization failures.
func (b *ClientBuilder) WithRenewer(renewer TokenRenewer) *ClientBuilder {
	b.renewer = renewer
	return b
}

// WithTimeout sets the overall per-request timeout.
func (b *ClientBuilder) WithTimeout(d time.Duration) *ClientBuilder {
	b.clientTimeout = d
	return b
}

// WithRetryPolicy sets the transport retry bound and the first retry delay.
func (b *ClientBuilder) WithRetryPolicy(maxAttempts uint, initialInterval time.Duration) *ClientBuilder {
	b.maxAttempts = maxAttempts
	b.initialInterval = initialInterval
	return b
}

// WithExpirySkew sets how far before the stored expiry a token is treated
// as expired.
func (b *ClientBuilder) WithExpirySkew(skew time.Duration) *ClientBuilder {
	b.expirySkew = skew
	return b
}

// WithPublicPrefixes sets the path prefixes that do not require a bearer
// credential, suppressing the missing-token diagnostic for them.
func (b *ClientBuilder) WithPublicPrefixes(prefixes ...string) *ClientBuilder {
	b.publicPrefixes = prefixes
	return b
}

// Build creates the configured HTTP client.
func (b *ClientBuilder) Build() (*http.Client, error) {
	pipeline, err := b.BuildPipeline()
	if err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: pipeline,
		Timeout:   b.clientTimeout,
	}, nil
}

// BuildPipeline creates the configured pipeline without wrapping it in a
// client, for callers that compose transports themselves.
func (b *ClientBuilder) BuildPipeline() (*Pipeline, error) {
	if b.store == nil {
		return nil, autherrors.NewInvalidArgumentError("credential store is required", nil)
	}
	if b.renewer == nil {
		return nil, autherrors.NewInvalidArgumentError("token renewer is required", nil)
	}

	return &Pipeline{
		base:            b.base,
		store:           b.store,
		renewer:         b.renewer,
		maxAttempts:     b.maxAttempts,
		initialInterval: b.initialInterval,
		expirySkew:      b.expirySkew,
		publicPrefixes:  b.publicPrefixes,
	}, nil
}

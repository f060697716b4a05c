// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package tokensource adapts the credential store and refresh coordinator to
// the oauth2.TokenSource contract, so libraries that speak oauth2 (gRPC
// credentials, cloud SDKs) can ride on the managed session.
package tokensource

import (
	"context"
	"time"

	"golang.org/x/oauth2"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
)

// TokenRenewer renews the access token when the cached one is stale.
type TokenRenewer interface {
	EnsureFreshToken(ctx context.Context) (string, error)
}

// sessionTokenSource implements oauth2.TokenSource on top of the store.
type sessionTokenSource struct {
	store   credentials.Store
	renewer TokenRenewer
	skew    time.Duration
	ctx     context.Context
}

// New returns an oauth2.TokenSource backed by the managed session. Tokens
// within skew of their expiry are renewed before being returned. The context
// bounds renewal calls made from Token, which has no context parameter of
// its own.
func New(ctx context.Context, store credentials.Store, renewer TokenRenewer, skew time.Duration) oauth2.TokenSource {
	return &sessionTokenSource{
		store:   store,
		renewer: renewer,
		skew:    skew,
		ctx:     ctx,
	}
}

// Token implements oauth2.TokenSource.
func (s *sessionTokenSource) Token() (*oauth2.Token, error) {
	if s.store.IsExpired(s.skew) {
		if _, err := s.renewer.EnsureFreshToken(s.ctx); err != nil {
			return nil, err
		}
	}

	accessToken, ok := s.store.AccessToken()
	if !ok {
		return nil, autherrors.NewAuthenticationError("no access token in session", nil)
	}

	tokenType, _ := s.store.TokenType()
	if tokenType == "" {
		tokenType = "Bearer"
	}

	return &oauth2.Token{
		AccessToken: accessToken,
		TokenType:   tokenType,
	}, nil
}

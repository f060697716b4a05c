// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package tokensource

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
)

type fakeRenewer struct {
	mu    sync.Mutex
	store credentials.Store
	err   error
	calls int
}

func (f *fakeRenewer) EnsureFreshToken(_ context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	f.store.Store(credentials.Credentials{
		AccessToken:  "at-new",
		RefreshToken: "rt-new",
		TokenType:    "Bearer",
		ExpiresIn:    time.Hour,
	})
	return "at-new", nil
}

func TestTokenFreshSession(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemoryStore()
	store.Store(credentials.Credentials{
		AccessToken: "at-1",
		TokenType:   "Bearer",
		ExpiresIn:   time.Hour,
	})
	renewer := &fakeRenewer{store: store}

	ts := New(context.Background(), store, renewer, 30*time.Second)
	token, err := ts.Token()
	require.NoError(t, err)

	assert.Equal(t, "at-1", token.AccessToken)
	assert.Equal(t, "Bearer", token.TokenType)
	assert.Zero(t, renewer.calls)
}

func TestTokenRenewsExpiredSession(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemoryStore()
	store.Store(credentials.Credentials{
		AccessToken:  "at-stale",
		RefreshToken: "rt-1",
		TokenType:    "Bearer",
	})
	renewer := &fakeRenewer{store: store}

	ts := New(context.Background(), store, renewer, 30*time.Second)
	token, err := ts.Token()
	require.NoError(t, err)

	assert.Equal(t, "at-new", token.AccessToken)
	assert.Equal(t, 1, renewer.calls)
}

func TestTokenRenewalFailure(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemoryStore()
	renewer := &fakeRenewer{
		store: store,
		err:   autherrors.NewRefreshInvalidError("refresh token revoked", nil),
	}

	ts := New(context.Background(), store, renewer, 30*time.Second)
	_, err := ts.Token()
	require.Error(t, err)
	assert.True(t, autherrors.IsRefreshInvalid(err))
}

func TestTokenEmptySession(t *testing.T) {
	t.Parallel()

	store := credentials.NewMemoryStore()
	store.Store(credentials.Credentials{AccessToken: "at-1", ExpiresIn: time.Hour})
	store.Clear()
	renewer := &fakeRenewer{store: store, err: autherrors.NewRefreshInvalidError("no session", nil)}

	ts := New(context.Background(), store, renewer, 30*time.Second)
	_, err := ts.Token()
	require.Error(t, err)
}

func TestImplementsTokenSource(t *testing.T) {
	t.Parallel()

	ts := New(context.Background(), credentials.NewMemoryStore(), &fakeRenewer{}, 0)
	assert.Implements(t, (*oauth2.TokenSource)(nil), ts)
}

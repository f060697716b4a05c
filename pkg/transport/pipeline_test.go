// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package transport

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/consolehq/authcore/pkg/credentials"
	autherrors "github.com/consolehq/authcore/pkg/errors"
)

// fakeRenewer simulates the refresh coordinator: on success it installs a
// new token into the store, the way a real renewal does.
type fakeRenewer struct {
	store credentials.Store
	token string
	err   error
	calls atomic.Int64
}

func (f *fakeRenewer) EnsureFreshToken(context.Context) (string, error) {
	f.calls.Add(1)
	if f.err != nil {
		return "", f.err
	}
	f.store.Store(credentials.Credentials{
		AccessToken:  f.token,
		RefreshToken: "rt-next",
		TokenType:    "bearer",
		ExpiresIn:    time.Hour,
	})
	return f.token, nil
}

func validStore() credentials.Store {
	store := credentials.NewMemoryStore()
	store.Store(credentials.Credentials{
		AccessToken:  "at-current",
		RefreshToken: "rt-current",
		TokenType:    "bearer",
		ExpiresIn:    time.Hour,
	})
	return store
}

func buildClient(t *testing.T, store credentials.Store, renewer TokenRenewer) *http.Client {
	t.Helper()
	client, err := NewClientBuilder().
		WithStore(store).
		WithRenewer(renewer).
		WithRetryPolicy(4, time.Millisecond).
		Build()
	require.NoError(t, err)
	return client
}

func TestAttachesBearerToken(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := validStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "Bearer at-current", gotAuth)
}

func TestAntiForgeryTokenOnMutatingRequestsOnly(t *testing.T) {
	t.Parallel()

	headers := make(chan string, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Get(AntiForgeryHeader)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := validStore()
	store.StoreAntiForgeryToken("csrf-1")
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Empty(t, <-headers, "GET must not carry the anti-forgery token")

	resp, err = client.Post(srv.URL+"/api/users", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "csrf-1", <-headers, "POST must carry the anti-forgery token")
}

func TestMissingTokenStillSends(t *testing.T) {
	t.Parallel()

	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := credentials.NewMemoryStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The server stays the authority; the request goes out bare.
	assert.Empty(t, gotAuth)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRefreshAndReplayOn401(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		if r.Header.Get("Authorization") != "Bearer at-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	store := validStore()
	renewer := &fakeRenewer{store: store, token: "at-new"}
	client := buildClient(t, store, renewer)

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// The caller never sees the intermediate 401.
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.JSONEq(t, `{"ok": true}`, string(body))

	assert.Equal(t, int64(1), renewer.calls.Load())
	assert.Equal(t, int64(2), requests.Load(), "original call plus one replay")
}

func TestNoSecondRefreshOnReplayed401(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := validStore()
	renewer := &fakeRenewer{store: store, token: "at-new"}
	client := buildClient(t, store, renewer)

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	// A permanently unauthorized endpoint fails hard after one renewal.
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), renewer.calls.Load())
	assert.Equal(t, int64(2), requests.Load())
}

func TestFailedRefreshPropagatesOriginal401(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	store := validStore()
	renewer := &fakeRenewer{
		store: store,
		err:   autherrors.NewRefreshInvalidError("refresh token rejected", nil),
	}
	client := buildClient(t, store, renewer)

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, int64(1), renewer.calls.Load())
}

func TestForbiddenNeverTriggersRefresh(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := validStore()
	renewer := &fakeRenewer{store: store, token: "at-new"}
	client := buildClient(t, store, renewer)

	resp, err := client.Get(srv.URL + "/api/admin")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, int64(0), renewer.calls.Load())
}

func TestTransientFailureRetriedThenSucceeds(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if requests.Add(1) <= 2 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := validStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(3), requests.Load())
}

func TestRetryBudgetExhausted(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	store := validStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	_, err := client.Get(srv.URL + "/api/users") //nolint:bodyclose // no response on error
	require.Error(t, err)

	assert.Equal(t, int64(4), requests.Load(), "attempt count must not exceed the bound")

	var typed *autherrors.Error
	require.ErrorAs(t, err, &typed)
	assert.Equal(t, autherrors.ErrTransport, typed.Type)
	assert.Equal(t, http.StatusServiceUnavailable, typed.Status)
	assert.Equal(t, 4, typed.Attempts)
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	store := validStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Equal(t, int64(1), requests.Load())
}

func TestRequestBodyReplayedOnRetry(t *testing.T) {
	t.Parallel()

	var requests atomic.Int64
	bodies := make(chan string, 4)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		bodies <- string(body)
		if requests.Add(1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := validStore()
	client := buildClient(t, store, &fakeRenewer{store: store})

	resp, err := client.Post(srv.URL+"/api/users", "application/json", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"name":"a"}`, <-bodies)
	assert.Equal(t, `{"name":"a"}`, <-bodies, "retry must resend the full body")
}

func TestProactiveRenewalWhenExpired(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer at-new" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	store := credentials.NewMemoryStore()
	store.Store(credentials.Credentials{
		AccessToken:  "at-expired",
		RefreshToken: "rt-1",
		TokenType:    "bearer",
		ExpiresIn:    -time.Minute,
	})
	renewer := &fakeRenewer{store: store, token: "at-new"}
	client := buildClient(t, store, renewer)

	resp, err := client.Get(srv.URL + "/api/users")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int64(1), renewer.calls.Load(), "expiry is detected before the request goes out")
}

func TestBuilderValidation(t *testing.T) {
	t.Parallel()

	_, err := NewClientBuilder().Build()
	assert.True(t, autherrors.IsInvalidArgument(err))

	_, err = NewClientBuilder().WithStore(credentials.NewMemoryStore()).Build()
	assert.True(t, autherrors.IsInvalidArgument(err))
}

// SPDX-FileCopyrightText: Copyright 2026 ConsoleHQ, Inc.
// SPDX-License-Identifier: Apache-2.0

package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	autherrors "github.com/consolehq/authcore/pkg/errors"
	"github.com/consolehq/authcore/pkg/logger"
)

const (
	loginPath   = "/auth/login"
	refreshPath = "/auth/refresh"
	logoutPath  = "/auth/logout"

	// maxResponseSize limits how much of a response body is read (1MB).
	maxResponseSize = 1024 * 1024

	// defaultTimeout bounds each identity-provider call.
	defaultTimeout = 30 * time.Second
)

// Client is the identity provider contract consumed by the session layer and
// the refresh coordinator.
type Client interface {
	// Login exchanges user credentials for a token set and the user record.
	Login(ctx context.Context, email, password string) (*LoginResponse, error)

	// Refresh exchanges a refresh token for a new token set.
	Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error)

	// Logout revokes the session server-side. Best effort: the local
	// session is cleared regardless of the outcome.
	Logout(ctx context.Context, accessToken string) error
}

// HTTPClient talks to the console's identity endpoints over plain HTTP.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// NewHTTPClient creates an identity provider client for the given base URL.
// If httpClient is nil, a client with the default timeout is used.
func NewHTTPClient(baseURL string, httpClient *http.Client) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return nil, autherrors.NewInvalidArgumentError(
			fmt.Sprintf("invalid identity provider URL %q", baseURL), err)
	}

	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	return &HTTPClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient,
	}, nil
}

// Login implements Client.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	payload := map[string]string{"email": email, "password": password}

	resp, err := postJSON[LoginResponse](ctx, c.client, c.baseURL+loginPath, payload, "")
	if err != nil {
		if status(err) == http.StatusUnauthorized {
			return nil, autherrors.NewAuthenticationError("invalid credentials", err)
		}
		return nil, err
	}
	return resp, nil
}

// Refresh implements Client.
func (c *HTTPClient) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	payload := map[string]string{"refresh_token": refreshToken}

	resp, err := postJSON[TokenResponse](ctx, c.client, c.baseURL+refreshPath, payload, "")
	if err != nil {
		switch status(err) {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden:
			return nil, autherrors.NewRefreshInvalidError("refresh token rejected", err)
		}
		return nil, err
	}
	return resp, nil
}

// Logout implements Client.
func (c *HTTPClient) Logout(ctx context.Context, accessToken string) error {
	_, err := postJSON[struct{}](ctx, c.client, c.baseURL+logoutPath, nil, accessToken)
	if err != nil {
		logger.Debugf("Server-side logout failed: %v", err)
	}
	return err
}

// status extracts the HTTP status from a provider error, or 0.
func status(err error) int {
	var e *httpError
	if errors.As(err, &e) {
		return e.statusCode
	}
	return 0
}

// httpError is a non-2xx response from an identity endpoint.
type httpError struct {
	statusCode int
	body       string
	url        string
}

func (e *httpError) Error() string {
	return fmt.Sprintf("identity provider request to %s failed with status %d", e.url, e.statusCode)
}

// postJSON performs a POST with a JSON payload and parses the JSON response
// payload from T, looking through the optional response envelope. A nil
// payload sends an empty body.
func postJSON[T any](
	ctx context.Context,
	client *http.Client,
	requestURL string,
	payload any,
	bearer string,
) (*T, error) {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to serialize request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview := string(respBody)
		if len(preview) > 1024 {
			preview = preview[:1024]
		}
		return nil, &httpError{
			statusCode: resp.StatusCode,
			body:       preview,
			url:        requestURL,
		}
	}

	var data T
	if len(respBody) > 0 {
		if err := json.Unmarshal(unwrap(respBody), &data); err != nil {
			return nil, fmt.Errorf("failed to parse response: %w", err)
		}
	}
	return &data, nil
}

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lanebot/lanebot/lib/ref"
)

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// HomeserverURL is the base URL of the Matrix homeserver
	// (e.g., "https://matrix.example.org"). Required.
	HomeserverURL string
	// HTTPClient is used for all requests. If nil, http.DefaultClient
	// is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default().
	Logger *slog.Logger
}

// Client is an unauthenticated Matrix client. It holds the homeserver
// URL and HTTP transport, shared across the Sessions derived from it.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a new unauthenticated Matrix client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.HomeserverURL == "" {
		return nil, fmt.Errorf("messaging: HomeserverURL is required")
	}

	// Validate the URL structure, but store the string form (trailing
	// slash stripped) and build request URLs by concatenation.
	// url.URL.String() re-encodes Path and would double-encode
	// segments that already carry URL-encoded characters.
	if _, err := url.Parse(config.HomeserverURL); err != nil {
		return nil, fmt.Errorf("messaging: invalid HomeserverURL %q: %w", config.HomeserverURL, err)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.HomeserverURL, "/"),
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's pool. Call after a network disruption so the next
// request opens a fresh TCP connection instead of reusing a poisoned
// pooled one.
func (c *Client) CloseIdleConnections() {
	c.httpClient.CloseIdleConnections()
}

// Login authenticates with username and password, returning a
// DirectSession. Used by "lanebot setup" to mint the access token the
// service then runs with; the service itself never sees the password.
func (c *Client) Login(ctx context.Context, username, password string) (*DirectSession, error) {
	if username == "" {
		return nil, fmt.Errorf("messaging: username is required for login")
	}
	if password == "" {
		return nil, fmt.Errorf("messaging: password is required for login")
	}

	body, err := c.doRequest(ctx, http.MethodPost, "/_matrix/client/v3/login", "", LoginRequest{
		Type:                     "m.login.password",
		User:                     username,
		Password:                 password,
		InitialDeviceDisplayName: "lanebot",
	})
	if err != nil {
		return nil, fmt.Errorf("messaging: login failed: %w", err)
	}

	var authResponse AuthResponse
	if err := json.Unmarshal(body, &authResponse); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse login response: %w", err)
	}

	c.logger.Info("logged in to matrix",
		"user_id", authResponse.UserID,
		"device_id", authResponse.DeviceID,
	)

	return &DirectSession{
		client:      c,
		accessToken: authResponse.AccessToken,
		userID:      authResponse.UserID,
		deviceID:    authResponse.DeviceID,
	}, nil
}

// SessionFromToken creates a DirectSession from an existing access
// token. The token is not validated here — the first API call fails
// with M_UNKNOWN_TOKEN if it is stale.
func (c *Client) SessionFromToken(userID ref.UserID, accessToken string) (*DirectSession, error) {
	if accessToken == "" {
		return nil, fmt.Errorf("messaging: empty access token")
	}
	return &DirectSession{
		client:      c,
		accessToken: accessToken,
		userID:      userID,
	}, nil
}

// doRequest performs an HTTP request to the homeserver and returns the
// response body. On 2xx, returns the body. On other statuses, returns
// a *MatrixError. accessToken may be empty for unauthenticated
// endpoints; query may be nil.
func (c *Client) doRequest(ctx context.Context, method, path, accessToken string, requestBody any, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	var bodyReader io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("messaging: failed to encode request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(request, method, path)
}

// doRequestRaw performs an HTTP request with a raw body (media upload).
func (c *Client) doRequestRaw(ctx context.Context, method, path, accessToken, contentType string, body io.Reader, query ...url.Values) ([]byte, error) {
	requestURL := c.baseURL + path
	if len(query) > 0 && query[0] != nil {
		requestURL += "?" + query[0].Encode()
	}

	request, err := http.NewRequestWithContext(ctx, method, requestURL, body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to create request: %w", err)
	}
	if contentType != "" {
		request.Header.Set("Content-Type", contentType)
	}
	if accessToken != "" {
		request.Header.Set("Authorization", "Bearer "+accessToken)
	}

	return c.do(request, method, path)
}

func (c *Client) do(request *http.Request, method, path string) ([]byte, error) {
	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("messaging: request to %s %s failed: %w", method, path, err)
	}
	defer response.Body.Close()

	responseBody, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, fmt.Errorf("messaging: failed to read response body: %w", err)
	}

	if response.StatusCode >= 200 && response.StatusCode < 300 {
		return responseBody, nil
	}

	// All Matrix error responses share one JSON shape.
	var matrixErr MatrixError
	if jsonErr := json.Unmarshal(responseBody, &matrixErr); jsonErr != nil {
		// Non-JSON error from a proxy or misbehaving server: fail
		// loud with the raw body.
		return nil, fmt.Errorf("messaging: unexpected %d response from %s %s: %s",
			response.StatusCode, method, path, string(responseBody))
	}
	matrixErr.StatusCode = response.StatusCode

	return responseBody, &matrixErr
}

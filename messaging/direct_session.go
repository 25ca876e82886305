// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/lanebot/lanebot/lib/ref"
)

// DirectSession is an authenticated Matrix session. It wraps a Client
// with an access token for making authenticated API calls.
// DirectSessions are lightweight and safe to create in large numbers.
type DirectSession struct {
	client      *Client
	accessToken string
	userID      ref.UserID
	deviceID    string

	// transactionCounter generates unique transaction IDs for idempotent sends.
	transactionCounter atomic.Int64
}

// UserID returns the fully-qualified Matrix user ID (e.g., "@lanebot:chat.example.org").
func (s *DirectSession) UserID() ref.UserID {
	return s.userID
}

// AccessToken returns the access token. Used by "lanebot setup" to
// persist the token after a password login.
func (s *DirectSession) AccessToken() string {
	return s.accessToken
}

// DeviceID returns the device ID for this session. Empty for sessions
// created from a stored token.
func (s *DirectSession) DeviceID() string {
	return s.deviceID
}

// CloseIdleConnections closes idle HTTP connections in the underlying
// transport's connection pool. Call this after a sync error to force
// the next request to establish a fresh TCP connection.
func (s *DirectSession) CloseIdleConnections() {
	s.client.CloseIdleConnections()
}

// WhoAmI validates the access token and returns the user ID.
// Useful for checking whether a stored token is still valid.
func (s *DirectSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/account/whoami", s.accessToken, nil)
	if err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: whoami failed: %w", err)
	}

	var response WhoAmIResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.UserID{}, fmt.Errorf("messaging: failed to parse whoami response: %w", err)
	}
	return response.UserID, nil
}

// ResolveAlias resolves a room alias (e.g., "#releases:chat.example.org") to a room ID.
func (s *DirectSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	path := "/_matrix/client/v3/directory/room/" + url.PathEscape(alias.String())
	body, err := s.client.doRequest(ctx, http.MethodGet, path, s.accessToken, nil)
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: resolve alias %q failed: %w", alias, err)
	}

	var response ResolveAliasResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse resolve alias response: %w", err)
	}
	return response.RoomID, nil
}

// JoinRoom joins a room by ID. Returns the room ID.
func (s *DirectSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	path := "/_matrix/client/v3/join/" + url.PathEscape(roomID.String())
	body, err := s.client.doRequest(ctx, http.MethodPost, path, s.accessToken, struct{}{})
	if err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: join room %s failed: %w", roomID, err)
	}

	var response struct {
		RoomID ref.RoomID `json:"room_id"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.RoomID{}, fmt.Errorf("messaging: failed to parse join response: %w", err)
	}
	return response.RoomID, nil
}

// SendMessage sends a message to a room. The content includes thread
// context if this is a thread reply (see NewTextMessage and
// NewThreadReply). Returns the event ID of the sent message.
func (s *DirectSession) SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, "m.room.message", content)
}

// SendReaction annotates the target event with an emoji key via an
// m.reaction event. Returns the reaction's own event ID, which the
// caller needs in order to redact the reaction later.
func (s *DirectSession) SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error) {
	return s.SendEvent(ctx, roomID, "m.reaction", ReactionContent{
		RelatesTo: RelatesTo{
			RelType: "m.annotation",
			EventID: target,
			Key:     key,
		},
	})
}

// SendEvent sends an event of any type to a room.
// Uses Matrix's idempotent PUT with a transaction ID.
// Returns the event ID.
func (s *DirectSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType string, content any) (ref.EventID, error) {
	transactionID := s.nextTransactionID()
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/send/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(eventType),
		url.PathEscape(transactionID),
	)

	body, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, content)
	if err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: send event to %q failed: %w", roomID, err)
	}

	var response SendEventResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return ref.EventID{}, fmt.Errorf("messaging: failed to parse send response: %w", err)
	}
	return response.EventID, nil
}

// RedactEvent removes a previously-sent event. Uses the idempotent PUT
// form with a transaction ID, same as event sending.
func (s *DirectSession) RedactEvent(ctx context.Context, roomID ref.RoomID, target ref.EventID, reason string) error {
	transactionID := s.nextTransactionID()
	path := fmt.Sprintf("/_matrix/client/v3/rooms/%s/redact/%s/%s",
		url.PathEscape(roomID.String()),
		url.PathEscape(target.String()),
		url.PathEscape(transactionID),
	)

	_, err := s.client.doRequest(ctx, http.MethodPut, path, s.accessToken, RedactRequest{Reason: reason})
	if err != nil {
		return fmt.Errorf("messaging: redact %q in %q failed: %w", target, roomID, err)
	}
	return nil
}

// UploadMedia uploads content to the homeserver's media repository.
// Returns the MXC URI (e.g., "mxc://chat.example.org/abc123").
func (s *DirectSession) UploadMedia(ctx context.Context, contentType, filename string, body io.Reader) (string, error) {
	query := url.Values{}
	if filename != "" {
		query.Set("filename", filename)
	}

	responseBody, err := s.client.doRequestRaw(ctx, http.MethodPost,
		"/_matrix/media/v3/upload", s.accessToken, contentType, body, query)
	if err != nil {
		return "", fmt.Errorf("messaging: media upload failed: %w", err)
	}

	var response UploadResponse
	if err := json.Unmarshal(responseBody, &response); err != nil {
		return "", fmt.Errorf("messaging: failed to parse upload response: %w", err)
	}
	return response.ContentURI, nil
}

// Sync performs an incremental sync with the homeserver.
// For initial sync, leave options.Since empty.
// For long-polling, set options.Timeout to the desired wait in milliseconds.
func (s *DirectSession) Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error) {
	query := url.Values{}
	if options.Since != "" {
		query.Set("since", options.Since)
	}
	if options.SetTimeout {
		query.Set("timeout", strconv.Itoa(options.Timeout))
	}
	if options.Filter != "" {
		query.Set("filter", options.Filter)
	}

	body, err := s.client.doRequest(ctx, http.MethodGet, "/_matrix/client/v3/sync", s.accessToken, nil, query)
	if err != nil {
		return nil, fmt.Errorf("messaging: sync failed: %w", err)
	}

	var response SyncResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("messaging: failed to parse sync response: %w", err)
	}
	return &response, nil
}

// nextTransactionID generates a unique transaction ID for idempotent event sending.
// Format: "lanebot-<timestamp_ms>-<counter>" to ensure uniqueness across restarts.
func (s *DirectSession) nextTransactionID() string {
	counter := s.transactionCounter.Add(1)
	return fmt.Sprintf("lanebot-%d-%d", time.Now().UnixMilli(), counter)
}

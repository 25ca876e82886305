// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"context"
	"io"

	"github.com/lanebot/lanebot/lib/ref"
)

// Session is the interface the lanebot service and CLI program
// against. *DirectSession is the production implementation; tests
// substitute doubles that record the signals a flow emits.
type Session interface {
	// UserID returns the session's fully-qualified Matrix user ID.
	UserID() ref.UserID

	// WhoAmI validates the access token and returns the user ID.
	WhoAmI(ctx context.Context) (ref.UserID, error)

	// ResolveAlias resolves a room alias to a room ID.
	ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error)

	// JoinRoom joins a room by ID.
	JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)

	// SendMessage sends an m.room.message event. Returns the event ID.
	SendMessage(ctx context.Context, roomID ref.RoomID, content MessageContent) (ref.EventID, error)

	// SendReaction annotates target with an emoji key (m.reaction).
	// Returns the reaction's own event ID, needed to remove it later.
	SendReaction(ctx context.Context, roomID ref.RoomID, target ref.EventID, key string) (ref.EventID, error)

	// RedactEvent removes a previously-sent event (lanebot uses it to
	// clear the in-progress reaction when a flow completes).
	RedactEvent(ctx context.Context, roomID ref.RoomID, target ref.EventID, reason string) error

	// UploadMedia uploads content to the media repository and returns
	// the MXC URI.
	UploadMedia(ctx context.Context, contentType, filename string, body io.Reader) (string, error)

	// Sync performs one incremental /sync with the homeserver.
	Sync(ctx context.Context, options SyncOptions) (*SyncResponse, error)
}

// Compile-time check: *DirectSession implements Session.
var _ Session = (*DirectSession)(nil)

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/lanebot/lanebot/lib/ref"
)

// LoginRequest is the m.login.password request body.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// WhoAmIResponse is returned by the whoami endpoint.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id"`
}

// MessageContent is the content body of an m.room.message event.
type MessageContent struct {
	MsgType string `json:"msgtype"`
	Body    string `json:"body"`

	// Format and FormattedBody carry the HTML rendering of a
	// Markdown-authored message ("org.matrix.custom.html").
	Format        string `json:"format,omitempty"`
	FormattedBody string `json:"formatted_body,omitempty"`

	// Filename and URL are set for m.file messages; URL is the MXC
	// URI returned by UploadMedia.
	Filename string    `json:"filename,omitempty"`
	URL      string    `json:"url,omitempty"`
	Info     *FileInfo `json:"info,omitempty"`

	RelatesTo *RelatesTo `json:"m.relates_to,omitempty"`
}

// FileInfo describes an m.file attachment.
type FileInfo struct {
	MimeType string `json:"mimetype,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// RelatesTo expresses relationships between events. For threads,
// RelType is "m.thread" and EventID is the thread root. For reactions,
// RelType is "m.annotation" and Key is the emoji.
type RelatesTo struct {
	RelType       string      `json:"rel_type"`
	EventID       ref.EventID `json:"event_id"`
	Key           string      `json:"key,omitempty"`
	IsFallingBack bool        `json:"is_falling_back,omitempty"`
	InReplyTo     *InReplyTo  `json:"m.in_reply_to,omitempty"`
}

// InReplyTo references the event being replied to within a thread.
type InReplyTo struct {
	EventID ref.EventID `json:"event_id"`
}

// ReactionContent is the content body of an m.reaction event.
type ReactionContent struct {
	RelatesTo RelatesTo `json:"m.relates_to"`
}

// RedactRequest is the body of a redaction request.
type RedactRequest struct {
	Reason string `json:"reason,omitempty"`
}

// NewTextMessage creates a plain text message with no thread context.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
	}
}

// NewThreadReply creates a message that replies within the thread
// rooted at threadRootID.
func NewThreadReply(threadRootID ref.EventID, body string) MessageContent {
	return MessageContent{
		MsgType: "m.text",
		Body:    body,
		RelatesTo: &RelatesTo{
			RelType:       "m.thread",
			EventID:       threadRootID,
			IsFallingBack: true,
			InReplyTo:     &InReplyTo{EventID: threadRootID},
		},
	}
}

// NewFileMessage creates an m.file message referencing previously
// uploaded media. mxcURI comes from [DirectSession.UploadMedia].
func NewFileMessage(filename, mxcURI, mimeType string, size int64) MessageContent {
	return MessageContent{
		MsgType:  "m.file",
		Body:     filename,
		Filename: filename,
		URL:      mxcURI,
		Info:     &FileInfo{MimeType: mimeType, Size: size},
	}
}

// InThread returns a copy of the message scoped to the thread rooted
// at threadRootID.
func (m MessageContent) InThread(threadRootID ref.EventID) MessageContent {
	m.RelatesTo = &RelatesTo{
		RelType:       "m.thread",
		EventID:       threadRootID,
		IsFallingBack: true,
		InReplyTo:     &InReplyTo{EventID: threadRootID},
	}
	return m
}

// SendEventResponse is returned by event-sending endpoints.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// ResolveAliasResponse is returned by alias resolution.
type ResolveAliasResponse struct {
	RoomID ref.RoomID `json:"room_id"`
}

// UploadResponse is returned by UploadMedia.
type UploadResponse struct {
	ContentURI string `json:"content_uri"`
}

// SyncOptions configures a /sync call.
type SyncOptions struct {
	// Since is the next_batch token from the previous response.
	// Empty means initial sync.
	Since string
	// Timeout is the server-side long-poll hold in milliseconds.
	// Only sent when SetTimeout is true, so that an explicit zero
	// (return immediately) is distinguishable from unset.
	Timeout    int
	SetTimeout bool
	// Filter is an inline JSON filter string.
	Filter string
}

// SyncResponse is the subset of the /sync response lanebot consumes.
type SyncResponse struct {
	NextBatch string    `json:"next_batch"`
	Rooms     SyncRooms `json:"rooms"`
}

// SyncRooms groups per-room sync data.
type SyncRooms struct {
	Join   map[string]JoinedRoom  `json:"join"`
	Invite map[string]InvitedRoom `json:"invite"`
}

// JoinedRoom holds sync data for a joined room.
type JoinedRoom struct {
	Timeline Timeline `json:"timeline"`
}

// InvitedRoom holds sync data for a pending invite. Lanebot only needs
// the room's presence in the invite map, not its stripped state.
type InvitedRoom struct{}

// Timeline holds new timeline events from one sync response.
type Timeline struct {
	Events []Event `json:"events"`
}

// Event is a Matrix room event from /sync.
type Event struct {
	Type     string          `json:"type"`
	EventID  ref.EventID     `json:"event_id"`
	Sender   ref.UserID      `json:"sender"`
	Content  json.RawMessage `json:"content"`
	OriginTS int64           `json:"origin_server_ts"`
}

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomID is a validated Matrix room ID (e.g., "!abc123:example.org").
//
// Room IDs are server-assigned opaque identifiers. They always start
// with '!' and contain a ':' separating the opaque local part from the
// server name. Lanebot never constructs room IDs itself — they come
// from the homeserver via alias resolution, room joins, or /sync
// responses, and are parsed into this type at the boundary.
type RoomID struct {
	id string
}

// ParseRoomID validates and wraps a raw Matrix room ID string.
func ParseRoomID(raw string) (RoomID, error) {
	if _, _, err := parseSigilID(raw, '!', "room ID"); err != nil {
		return RoomID{}, err
	}
	return RoomID{id: raw}, nil
}

// MustParseRoomID is like ParseRoomID but panics on error. Use in
// tests where the input is known-valid.
func MustParseRoomID(raw string) RoomID {
	roomID, err := ParseRoomID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomID(%q): %v", raw, err))
	}
	return roomID
}

// String returns the full room ID string.
func (r RoomID) String() string { return r.id }

// IsZero reports whether the RoomID is the zero value (uninitialized).
func (r RoomID) IsZero() bool { return r.id == "" }

// MarshalText implements encoding.TextMarshaler.
func (r RoomID) MarshalText() ([]byte, error) {
	if r.id == "" {
		return []byte{}, nil
	}
	return []byte(r.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset room ID).
func (r *RoomID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*r = RoomID{}
		return nil
	}
	parsed, err := ParseRoomID(string(data))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

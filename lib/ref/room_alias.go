// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// RoomAlias is a validated Matrix room alias (e.g., "#releases:example.org").
//
// Room aliases are the human-readable names that resolve to opaque
// RoomIDs. The lanebot configuration names the ops room by alias; the
// service resolves it to a RoomID at startup.
type RoomAlias struct {
	alias string
}

// ParseRoomAlias validates and wraps a raw Matrix room alias string.
func ParseRoomAlias(raw string) (RoomAlias, error) {
	if _, _, err := parseSigilID(raw, '#', "room alias"); err != nil {
		return RoomAlias{}, err
	}
	return RoomAlias{alias: raw}, nil
}

// MustParseRoomAlias is like ParseRoomAlias but panics on error. Use in
// tests where the input is known-valid.
func MustParseRoomAlias(raw string) RoomAlias {
	alias, err := ParseRoomAlias(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseRoomAlias(%q): %v", raw, err))
	}
	return alias
}

// String returns the full room alias string.
func (a RoomAlias) String() string { return a.alias }

// IsZero reports whether the RoomAlias is the zero value (uninitialized).
func (a RoomAlias) IsZero() bool { return a.alias == "" }

// UnmarshalText implements encoding.TextUnmarshaler so aliases can be
// decoded directly from the YAML configuration. An empty input produces
// the zero value.
func (a *RoomAlias) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*a = RoomAlias{}
		return nil
	}
	parsed, err := ParseRoomAlias(string(data))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import "fmt"

// UserID is a validated Matrix user ID (e.g., "@lanebot:example.org").
//
// A Matrix user ID always starts with '@' and contains a ':' separating
// the localpart from the server name. This type validates the structural
// format only — it accepts any valid Matrix user ID, bot or human.
type UserID struct {
	id string
}

// ParseUserID validates and wraps a raw Matrix user ID string.
func ParseUserID(raw string) (UserID, error) {
	if _, _, err := parseSigilID(raw, '@', "user ID"); err != nil {
		return UserID{}, err
	}
	return UserID{id: raw}, nil
}

// MustParseUserID is like ParseUserID but panics on error. Use in
// tests where the input is known-valid.
func MustParseUserID(raw string) UserID {
	user, err := ParseUserID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseUserID(%q): %v", raw, err))
	}
	return user
}

// String returns the full user ID string.
func (u UserID) String() string { return u.id }

// IsZero reports whether the UserID is the zero value (uninitialized).
func (u UserID) IsZero() bool { return u.id == "" }

// Localpart returns the localpart portion of the user ID (without the
// '@' prefix or ':server' suffix). Returns "" for the zero value.
func (u UserID) Localpart() string {
	if u.id == "" {
		return ""
	}
	// Validated at construction — parse cannot fail here.
	localpart, _, _ := parseSigilID(u.id, '@', "user ID")
	return localpart
}

// MarshalText implements encoding.TextMarshaler.
func (u UserID) MarshalText() ([]byte, error) {
	if u.id == "" {
		return []byte{}, nil
	}
	return []byte(u.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler. An empty input
// produces the zero value (unset user ID).
func (u *UserID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*u = UserID{}
		return nil
	}
	parsed, err := ParseUserID(string(data))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides validated value types for Matrix identifiers:
// [RoomID], [RoomAlias], [UserID], and [EventID].
//
// Raw identifier strings arrive from two places: the lanebot
// configuration file (the ops room alias, the bot user ID) and Matrix
// API responses (room IDs from alias resolution, event IDs from sends
// and /sync). Both are parsed into these types at the boundary, so the
// rest of the code never passes bare strings where an identifier is
// meant and never re-validates.
//
// All four types are immutable value types. The zero value is not a
// valid identifier; use IsZero to check.
package ref

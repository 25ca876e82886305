// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Lanebot release service. Watches a Matrix operations room for
// !lane commands, runs the requested fastlane flow against a local
// clone of the project, and reports the outcome back into the room.
//
// Command surface (room messages):
//
//	!lane env --project-name <name> --branch-name <branch>
//	!lane deploy --project-name <name> --branch-name <branch> --environment <env>
//
// Each accepted command gets an hourglass reaction while the flow
// runs, then exactly one success or failure reaction, a thread reply
// summarizing the outcome, and the captured tool output attached as a
// file in the same thread.
//
// Configuration is a YAML file located via --config or the
// LANEBOT_CONFIG environment variable; the Matrix access token lives
// in a separate file referenced by the config. Use "lanebot setup" to
// mint the token.
package main

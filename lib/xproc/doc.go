// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package xproc runs external commands with the fixed I/O contract the
// release flows depend on: stdout and stderr merged into one text
// buffer (the tools interleave progress and errors across both
// streams), and a non-zero exit reported as an [*ExitError] carrying
// the exit code together with everything the command printed.
//
// Environment values are per-invocation overlays on the inherited
// environment. Nothing in this package mutates the lanebot process
// environment — credentials and the deploy target reach child
// processes through [Command.Env] only, scoped to that single child.
package xproc

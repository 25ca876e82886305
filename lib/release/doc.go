// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package release orchestrates one lanebot flow: synchronize a
// project's clone to a branch, locate the fastlane tooling directory,
// install its dependencies, and run the requested fastlane action.
//
// A flow is strictly linear. Any step's failure short-circuits the
// rest and surfaces as the flow's error; there are no retries and no
// rollback — a clone left mid-synchronized is repaired by the next
// flow's destructive resync, not in place.
//
// Flows against the same project serialize on a per-project mutex, so
// two chat commands naming the same project never interleave fetch,
// install, and tool execution on one working tree. Flows against
// different projects run concurrently.
package release

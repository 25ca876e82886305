// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock abstracts time operations for testability. Production
// code injects [Real]; tests inject [Fake] with deterministic time
// control. The sync loop's retry backoff is the main consumer — its
// tests advance a fake clock instead of sleeping.
package clock

import "time"

// Clock provides the time operations lanebot needs. Production code
// that would call time.Now, time.After, or time.Sleep takes a Clock
// instead.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep pauses the current goroutine for at least duration d.
	Sleep(d time.Duration)
}

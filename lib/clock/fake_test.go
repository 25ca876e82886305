// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"testing"
	"time"
)

func TestFakeClockAdvanceFiresWaiters(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	fake := Fake(start)

	oneSecond := fake.After(time.Second)
	oneMinute := fake.After(time.Minute)

	fake.Advance(time.Second)

	select {
	case fired := <-oneSecond:
		if !fired.Equal(start.Add(time.Second)) {
			t.Errorf("fired at %v, want %v", fired, start.Add(time.Second))
		}
	default:
		t.Fatal("one-second waiter did not fire")
	}

	select {
	case <-oneMinute:
		t.Fatal("one-minute waiter fired early")
	default:
	}

	fake.Advance(time.Minute)
	select {
	case <-oneMinute:
	default:
		t.Fatal("one-minute waiter did not fire after advance")
	}
}

func TestFakeClockAfterNonPositive(t *testing.T) {
	t.Parallel()

	fake := Fake(time.Unix(0, 0))
	select {
	case <-fake.After(0):
	default:
		t.Fatal("After(0) did not fire immediately")
	}
	if fake.PendingWaiters() != 0 {
		t.Errorf("PendingWaiters = %d, want 0", fake.PendingWaiters())
	}
}

func TestFakeClockSleepUnblocksOnAdvance(t *testing.T) {
	t.Parallel()

	fake := Fake(time.Unix(0, 0))
	done := make(chan struct{})
	go func() {
		fake.Sleep(time.Second)
		close(done)
	}()

	// Wait for the sleeper to register before advancing.
	for fake.PendingWaiters() == 0 {
		time.Sleep(time.Millisecond)
	}
	fake.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Sleep did not return after Advance")
	}
}

// Copyright 2026 The Lanebot Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Real returns a Clock backed by the time package.
func Real() Clock {
	return realClock{}
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) After(d time.Duration) <-chan time.Time {
	if d <= 0 {
		channel := make(chan time.Time, 1)
		channel <- time.Now()
		return channel
	}
	return time.After(d)
}

func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

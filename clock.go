// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package tiersched

import (
	"sync/atomic"
	"time"
)

// ManualClock is a Clock whose time only advances when told to. It exists
// so tests (and hosts with their own deterministic simulation) can drive
// the engine's notion of "now" without sleeping in wall-clock time.
//
// The tier loops themselves still sleep in real wall-clock time between
// passes (cadence is a real time.Ticker interval), so ManualClock is useful
// for asserting classification and firing decisions, not for collapsing
// cadence sleeps.
type ManualClock struct {
	nanos atomic.Int64
}

// NewManualClock returns a ManualClock starting at t.
func NewManualClock(t time.Time) *ManualClock {
	c := &ManualClock{}
	c.nanos.Store(t.UnixNano())
	return c
}

// Now returns the clock's current instant.
func (c *ManualClock) Now() time.Time {
	return time.Unix(0, c.nanos.Load())
}

// Advance moves the clock forward by d (d may be negative).
func (c *ManualClock) Advance(d time.Duration) {
	c.nanos.Add(int64(d))
}

// Set moves the clock to exactly t.
func (c *ManualClock) Set(t time.Time) {
	c.nanos.Store(t.UnixNano())
}

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

// Package tiersched provides a tiered deadline scheduler: submitted work
// items are sorted by remaining time-to-deadline into a Fast, Slow, or
// Snail tier, re-tiered as their deadlines approach, and fired in parallel
// at or just after their deadline.
package tiersched

import "time"

// Item is the payload contract the engine requires. The engine treats an
// Item opaquely: it reads Deadline for classification and calls Execute
// exactly once, from a worker-pool goroutine, when the item fires.
// Implementations are responsible for their own internal thread safety.
type Item interface {
	// Deadline returns the absolute wall-clock instant at or after which
	// the item becomes eligible to fire.
	Deadline() time.Time

	// Execute runs the item's effectful operation. It is invoked exactly
	// once. A panic is recovered by the dispatcher and recorded in the
	// exception sink without stopping the tier; errors are not part of this
	// interface because the spec's work items are fire-and-forget. Callers
	// needing error observability should record it themselves and rely on
	// dispatch-level panic recovery only as a backstop.
	Execute()
}

// Clock abstracts the wall-clock source so tests can drive synthetic time
// instead of real time.Now.
type Clock interface {
	Now() time.Time
}

// RealClock is the default Clock, backed by time.Now.
type RealClock struct{}

// Now returns time.Now().
func (RealClock) Now() time.Time { return time.Now() }

// funcItem adapts a plain function and deadline into an Item, for callers
// that don't want to define a named type.
type funcItem struct {
	deadline time.Time
	fn       func()
}

// ItemFunc returns an Item that calls fn when it fires.
func ItemFunc(deadline time.Time, fn func()) Item {
	return funcItem{deadline: deadline, fn: fn}
}

func (f funcItem) Deadline() time.Time { return f.deadline }
func (f funcItem) Execute()            { f.fn() }

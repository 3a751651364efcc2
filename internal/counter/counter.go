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

// Package counter provides a striped atomic counter that spreads concurrent
// increments across several cache-line-padded words to avoid false sharing
// between producers and the tier that reads the total.
package counter

import (
	"runtime"
	"sync/atomic"
	"unsafe"
)

// cacheLinePad is sized so a stripe occupies at least one cache line on
// common architectures, keeping neighboring stripes out of false-sharing
// range.
const cacheLinePad = 64 - 8

type stripe struct {
	val atomic.Int64
	_   [cacheLinePad]byte
}

// Striped is a monotone-or-bidirectional counter backed by multiple
// stripes. Reads sum all stripes; writes pick a stripe by a cheap,
// goroutine-local hash so unrelated producers rarely contend on the same
// word.
//
// A Striped counter's zero value is not usable; construct one with New.
type Striped struct {
	stripes []stripe
	mask    uint64
}

// New returns a Striped counter with a stripe count derived from
// GOMAXPROCS, clamped to [8,64] and rounded to the next power of two.
func New() *Striped {
	return NewSized(clamp(runtime.GOMAXPROCS(0), 8, 64))
}

// NewSized returns a Striped counter with exactly n stripes, rounded up to
// the next power of two (minimum 1).
func NewSized(n int) *Striped {
	if n < 1 {
		n = 1
	}
	sz := nextPow2(n)
	return &Striped{stripes: make([]stripe, sz), mask: uint64(sz - 1)}
}

// Add adds delta to the counter, landing on a stripe chosen by the calling
// goroutine's stack pointer so repeated calls from the same goroutine tend
// to hit the same stripe while different goroutines tend to spread out.
func (s *Striped) Add(delta int64) {
	s.stripes[s.pick()].val.Add(delta)
}

// Inc increments the counter by one.
func (s *Striped) Inc() { s.Add(1) }

// Load returns the current sum across all stripes. This is a volatile
// best-effort read usable from any goroutine, not a consistent snapshot
// or a linearizable read under concurrent writers.
func (s *Striped) Load() int64 {
	var total int64
	for i := range s.stripes {
		total += s.stripes[i].val.Load()
	}
	return total
}

// Reset zeroes every stripe. Intended for resets where the caller already
// holds exclusivity over the logical count; an Add racing with Reset may
// be lost.
func (s *Striped) Reset() {
	for i := range s.stripes {
		s.stripes[i].val.Store(0)
	}
}

func (s *Striped) pick() uint64 {
	// A fast, allocation-free per-goroutine hash: the address of a local
	// stack variable is goroutine-stable for the life of the call and
	// varies across goroutines enough to decorrelate stripe choice without
	// requiring a goroutine-id lookup.
	var local byte
	addr := uint64(uintptr(unsafe.Pointer(&local)))
	return (addr >> 4) & s.mask
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func nextPow2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

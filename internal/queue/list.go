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

package queue

import "sync"

// List is a generic, append-only, thread-safe list used by the exception
// sink: many writers append concurrently, one reader snapshots and clears.
type List[T any] struct {
	mu    sync.Mutex
	items []T
}

// NewList returns an empty List.
func NewList[T any]() *List[T] {
	return &List[T]{}
}

// Append adds a single item.
func (l *List[T]) Append(item T) {
	l.mu.Lock()
	l.items = append(l.items, item)
	l.mu.Unlock()
}

// AppendMany adds a batch of items in order.
func (l *List[T]) AppendMany(items []T) {
	if len(items) == 0 {
		return
	}
	l.mu.Lock()
	l.items = append(l.items, items...)
	l.mu.Unlock()
}

// DrainAll snapshots every item currently held and clears the list,
// returning the snapshot. Matches Engine.DrainExceptions's
// "returns and clears" contract.
func (l *List[T]) DrainAll() []T {
	l.mu.Lock()
	taken := l.items
	l.items = nil
	l.mu.Unlock()
	return taken
}

// Count returns the number of items currently held.
func (l *List[T]) Count() int {
	l.mu.Lock()
	n := len(l.items)
	l.mu.Unlock()
	return n
}

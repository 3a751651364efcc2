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
	"fmt"
	"runtime"
	"sync"
)

// dispatcher fans a batch out across a bounded worker pool shared by all
// tiers. Each action is independent; the dispatcher provides no ordering
// guarantee across elements and isolates panics/errors per element so one
// failing action never aborts its peers or the calling tier loop.
type dispatcher struct {
	sem chan struct{}
}

// newDispatcher returns a dispatcher whose pool size scales with available
// cores, clamped to [8,64] to bound internal concurrency on very large or
// very small machines.
func newDispatcher() *dispatcher {
	n := runtime.GOMAXPROCS(0)
	if n < 8 {
		n = 8
	}
	if n > 64 {
		n = 64
	}
	return &dispatcher{sem: make(chan struct{}, n)}
}

// forEach runs fn(item) for every item in batch on a worker drawn from the
// shared pool, waiting for the whole batch to complete before returning. A
// panic or error from fn is passed to onFault instead of propagating.
func forEach[T any](d *dispatcher, batch []T, fn func(T) error, onFault func(item T, err error)) {
	if len(batch) == 0 {
		return
	}
	var wg sync.WaitGroup
	wg.Add(len(batch))
	for _, item := range batch {
		item := item
		d.sem <- struct{}{}
		go func() {
			defer func() {
				<-d.sem
				wg.Done()
			}()
			defer func() {
				if r := recover(); r != nil {
					onFault(item, fmt.Errorf("panic: %v", r))
				}
			}()
			if err := fn(item); err != nil {
				onFault(item, err)
			}
		}()
	}
	wg.Wait()
}

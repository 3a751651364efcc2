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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tiersched/internal/counter"
	"tiersched/internal/queue"
	"tiersched/internal/schedlog"
	"tiersched/internal/sinks"
)

// submission wraps a host-supplied Item with the identity the engine needs
// to correlate exception records and audit exports back to it.
type submission struct {
	id   uuid.UUID
	item Item
}

// tierHandle is the narrow view of the Engine each tier needs: the
// exception sink, the peer tiers to promote into, thresholds, the shared
// clock/dispatcher/logger, and the shutdown flag. Using an explicit,
// minimal capability set here avoids a cyclic tier-to-engine back-pointer.
type tierHandle struct {
	clock         Clock
	sink          *exceptionSink
	audit         *sinks.AuditSink
	dispatcher    *dispatcher
	logger        *schedlog.Logger
	fastThreshold time.Duration
	slowThreshold time.Duration

	fast  *tier
	slow  *tier
	snail *tier

	isShuttingDown func() bool
}

func (h *tierHandle) enqueueFast(subs []*submission) {
	if len(subs) == 0 {
		return
	}
	h.fast.inbox.PushMany(subs)
}

func (h *tierHandle) enqueueSlow(subs []*submission) {
	if len(subs) == 0 {
		return
	}
	h.slow.inbox.PushMany(subs)
}

func (h *tierHandle) enqueueSnail(subs []*submission) {
	if len(subs) == 0 {
		return
	}
	h.snail.inbox.PushMany(subs)
}

// tier is one of Fast, Slow, or Snail: an inbox and its own pass cadence.
// The queued count is the inbox's own length, not a separately maintained
// counter, so a pass's drain-and-reset can never race a concurrent
// producer's push; executed is a striped counter since it is written from
// the dispatcher's pool goroutines during a pass and read from any goroutine.
type tier struct {
	name     string
	inbox    *queue.Inbox[*submission]
	executed *counter.Striped
	cadence  time.Duration

	// process implements the tier's per-pass policy. It receives the
	// drained batch and the single "now" captured for that pass, and
	// returns three per-pass-local spill lists: items to promote to Fast,
	// items to promote to Slow, and items that stay in this tier. Fast
	// tier's own spill is expressed as "self" via selfSpill, not fastSpill;
	// see pass() for how each tier routes its own self list.
	process func(h *tierHandle, now time.Time, batch []*submission) (fastSpill, slowSpill, selfSpill []*submission)

	stopCh   chan struct{}
	stopOnce sync.Once
	wantExit atomic.Bool
	wg       sync.WaitGroup
}

func newTier(name string, cadence time.Duration, process func(h *tierHandle, now time.Time, batch []*submission) (fast, slow, self []*submission)) *tier {
	return &tier{
		name:     name,
		inbox:    queue.NewInbox[*submission](),
		executed: counter.New(),
		cadence:  cadence,
		process:  process,
		stopCh:   make(chan struct{}),
	}
}

// start launches the tier's long-lived worker. It implements the
// Idle→Draining→Processing→Requeueing→Sleeping loop, running one pass per
// cadence tick until requestExit is called.
func (t *tier) start(h *tierHandle) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ticker := time.NewTicker(t.cadence)
		defer ticker.Stop()
		for {
			select {
			case <-t.stopCh:
				return
			case <-ticker.C:
				t.pass(h)
				if t.wantExit.Load() {
					return
				}
			}
		}
	}()
}

// pass runs one Draining→Processing→Requeueing cycle. If the tier is
// exiting by the time requeueing would happen, spill lists are discarded
// rather than re-enqueued, since the engine is tearing down.
func (t *tier) pass(h *tierHandle) {
	batch := t.inbox.DrainAll()
	if len(batch) == 0 {
		return
	}

	fastSpill, slowSpill, selfSpill := t.process(h, h.clock.Now(), batch)

	if t.wantExit.Load() || h.isShuttingDown() {
		return
	}

	h.enqueueFast(fastSpill)
	h.enqueueSlow(slowSpill)
	switch t.name {
	case tierFast:
		h.enqueueFast(selfSpill)
	case tierSlow:
		h.enqueueSlow(selfSpill)
	case tierSnail:
		h.enqueueSnail(selfSpill)
	}
}

// requestExit sets wantExit and signals the loop to stop waiting on its
// ticker. Idempotent.
func (t *tier) requestExit() {
	t.wantExit.Store(true)
	t.stopOnce.Do(func() { close(t.stopCh) })
}

// wait blocks until the tier's worker goroutine has returned, or the
// timeout elapses. It returns true if the worker exited within the
// deadline.
func (t *tier) wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}

const (
	tierFast  = "fast"
	tierSlow  = "slow"
	tierSnail = "snail"
)

// processFast fires any item whose deadline has arrived and re-adds the
// rest to Fast. A single captured now applies to the whole batch. Firing
// (Execute, a side-effecting call into host code) runs on the dispatcher's
// worker pool; deciding whether an item stays pending is pure and recorded
// into a pre-sized, index-addressed slice so concurrent writers never
// share a slot.
func processFast(h *tierHandle, now time.Time, batch []*submission) (fastSpill, slowSpill, selfSpill []*submission) {
	pending := make([]bool, len(batch))
	fired := make([]sinks.FiredRecord, len(batch))
	didFire := make([]bool, len(batch))
	indices := make([]int, len(batch))
	for i := range batch {
		indices[i] = i
	}

	forEach(h.dispatcher, indices, func(i int) error {
		s := batch[i]
		if s.item.Deadline().After(now) {
			pending[i] = true
			return nil
		}
		h.fast.executed.Inc()
		s.item.Execute()
		if h.audit != nil {
			fired[i] = sinks.FiredRecord{
				SubmissionID: s.id.String(),
				Tier:         tierFast,
				Deadline:     s.item.Deadline(),
				FiredAt:      now,
			}
			didFire[i] = true
		}
		return nil
	}, func(i int, err error) {
		h.sink.record(h.clock, batch[i].id, tierFast, err)
	})

	if h.audit != nil {
		batchRecs := make([]sinks.FiredRecord, 0, len(fired))
		for i, ok := range didFire {
			if ok {
				batchRecs = append(batchRecs, fired[i])
			}
		}
		if err := h.audit.RecordBatch(batchRecs); err != nil {
			h.sink.record(h.clock, uuid.Nil, tierFast, err)
		}
	}

	selfSpill = make([]*submission, 0, len(batch))
	for i, isPending := range pending {
		if isPending {
			selfSpill = append(selfSpill, batch[i])
		}
	}
	return nil, nil, selfSpill
}

// processSlow reclassifies each item: promote to Fast if imminent, else
// stay in Slow. An item never demotes from Slow to Snail.
func processSlow(h *tierHandle, now time.Time, batch []*submission) (fastSpill, slowSpill, selfSpill []*submission) {
	fastSpill, slowSpill, selfSpill = reclassify(h, now, batch)
	// For the Slow tier, "still within slowThreshold" is its own self list.
	return fastSpill, nil, append(slowSpill, selfSpill...)
}

// processSnail reclassifies each item into Fast, Slow, or back to Snail.
func processSnail(h *tierHandle, now time.Time, batch []*submission) (fastSpill, slowSpill, selfSpill []*submission) {
	return reclassify(h, now, batch)
}

// reclassify implements the shared Slow/Snail per-item policy: compare
// remaining time-to-deadline against the two thresholds and bucket the
// item. Classification has no side effects, so the dispatcher is used
// purely to fan the batch out across the shared pool, not because
// contention demands it here.
func reclassify(h *tierHandle, now time.Time, batch []*submission) (fastSpill, slowSpill, selfSpill []*submission) {
	const (
		toFast = iota
		toSlow
		toSelf
	)
	buckets := make([]int, len(batch))
	indices := make([]int, len(batch))
	for i := range batch {
		indices[i] = i
	}

	forEach(h.dispatcher, indices, func(i int) error {
		remaining := batch[i].item.Deadline().Sub(now)
		switch {
		case remaining <= h.fastThreshold:
			buckets[i] = toFast
		case remaining <= h.slowThreshold:
			buckets[i] = toSlow
		default:
			// Never occurs under normal submission into Slow (an item is
			// admitted to Slow only when remaining > fastThreshold, and
			// Slow's own upper edge is slowThreshold); for Snail this is
			// the common "stays distant" case. Neither tier demotes
			// further, so both route to toSelf.
			buckets[i] = toSelf
		}
		return nil
	}, func(int, error) {
		// Classification cannot fail.
	})

	for i, s := range batch {
		switch buckets[i] {
		case toFast:
			fastSpill = append(fastSpill, s)
		case toSlow:
			slowSpill = append(slowSpill, s)
		default:
			selfSpill = append(selfSpill, s)
		}
	}
	return fastSpill, slowSpill, selfSpill
}

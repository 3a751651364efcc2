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
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"tiersched/internal/schedlog"
)

func testEngine() *Engine {
	return NewEngine(EngineOptions{Logger: schedlog.Nop()})
}

func TestStartRejectsSubMillisecondFrequency(t *testing.T) {
	e := testEngine()
	if err := e.Start(0, 50*time.Millisecond, 200*time.Millisecond); err == nil {
		t.Fatalf("expected error for frequency < 1ms")
	}
}

func TestStartRejectsBadThresholds(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 200*time.Millisecond, 200*time.Millisecond); err == nil {
		t.Fatalf("expected error when fastThreshold >= slowThreshold")
	}
	if err := e.Start(10*time.Millisecond, 200*time.Millisecond, 50*time.Millisecond); err == nil {
		t.Fatalf("expected error when fastThreshold > slowThreshold")
	}
}

func TestStartRejectsDoubleStart(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 50*time.Millisecond, 200*time.Millisecond); err != nil {
		t.Fatalf("unexpected error on first Start: %v", err)
	}
	defer e.Stop()
	if err := e.Start(10*time.Millisecond, 50*time.Millisecond, 200*time.Millisecond); err == nil {
		t.Fatalf("expected error on second Start while running")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 50*time.Millisecond, 200*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	e.Stop()
	if e.IsRunning() {
		t.Fatalf("expected IsRunning() == false after Stop")
	}
	e.Stop() // must not panic or block
	if e.IsRunning() {
		t.Fatalf("expected IsRunning() == false after second Stop")
	}
}

func TestSubmitRejectedWhenNotRunning(t *testing.T) {
	e := testEngine()
	if _, err := e.Submit(ItemFunc(time.Now(), func() {})); err == nil {
		t.Fatalf("expected error submitting to a non-running engine")
	}
}

func TestClassificationBoundaries(t *testing.T) {
	clock := NewManualClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	e := NewEngine(EngineOptions{Clock: clock, Logger: schedlog.Nop()})
	fast, slow := 500*time.Millisecond, 2*time.Second
	// Cadences far longer than the test so no tier drains before we assert.
	if err := e.Start(time.Hour, fast, slow); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	now := clock.Now()
	mustSubmit := func(deadline time.Time) {
		t.Helper()
		if _, err := e.Submit(ItemFunc(deadline, func() {})); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	mustSubmit(now.Add(fast))               // == fastThreshold -> Fast (inclusive upper bound)
	mustSubmit(now.Add(slow))               // == slowThreshold -> Slow (inclusive upper bound)
	mustSubmit(now.Add(-time.Second))       // already past -> Fast
	mustSubmit(now.Add(slow + time.Second)) // beyond slowThreshold -> Snail

	stats := e.Statistics()
	if stats.Fast.Queued != 2 {
		t.Fatalf("Fast.Queued = %d, want 2", stats.Fast.Queued)
	}
	if stats.Slow.Queued != 1 {
		t.Fatalf("Slow.Queued = %d, want 1", stats.Slow.Queued)
	}
	if stats.Snail.Queued != 1 {
		t.Fatalf("Snail.Queued = %d, want 1", stats.Snail.Queued)
	}
}

func TestSimpleFire(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 100*time.Millisecond, 400*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	var fired atomic.Bool
	var firedAt atomic.Int64
	deadline := time.Now().Add(60 * time.Millisecond)
	if _, err := e.Submit(ItemFunc(deadline, func() {
		fired.Store(true)
		firedAt.Store(time.Now().UnixNano())
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	waitFor(t, 500*time.Millisecond, fired.Load)

	got := time.Unix(0, firedAt.Load())
	if got.Before(deadline) {
		t.Fatalf("fired at %v, before deadline %v", got, deadline)
	}
	if got.After(deadline.Add(200 * time.Millisecond)) {
		t.Fatalf("fired at %v, too long after deadline %v", got, deadline)
	}
	if e.Statistics().Fast.Executed != 1 {
		t.Fatalf("Fast.Executed = %d, want 1", e.Statistics().Fast.Executed)
	}
}

func TestPastDeadlineFiresPromptly(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 100*time.Millisecond, 400*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	var fired atomic.Bool
	submittedAt := time.Now()
	if _, err := e.Submit(ItemFunc(submittedAt.Add(-time.Second), func() {
		fired.Store(true)
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	waitFor(t, 100*time.Millisecond, fired.Load)
}

func TestTierPromotionFromSlowToFast(t *testing.T) {
	e := testEngine()
	// fast<=50ms, slow<=300ms, frequency=10ms. Slow cadence = max(10, floor((300-50)/50)*10) = 50ms.
	if err := e.Start(10*time.Millisecond, 50*time.Millisecond, 300*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	var fired atomic.Bool
	deadline := time.Now().Add(150 * time.Millisecond)
	if _, err := e.Submit(ItemFunc(deadline, func() {
		fired.Store(true)
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	waitFor(t, time.Second, fired.Load)
}

func TestFaultyPayloadRecordedNotFatal(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 100*time.Millisecond, 400*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	const n = 20
	for i := 0; i < n; i++ {
		deadline := time.Now().Add(20 * time.Millisecond)
		if _, err := e.Submit(ItemFunc(deadline, func() {
			panic("synthetic failure")
		})); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	waitFor(t, time.Second, func() bool {
		return e.Statistics().Fast.Executed >= n
	})

	records := e.DrainExceptions()
	if len(records) < n {
		t.Fatalf("DrainExceptions() returned %d records, want at least %d", len(records), n)
	}
	for _, r := range records {
		if r.Err == nil {
			t.Fatalf("exception record missing error")
		}
	}
	if !e.IsRunning() {
		t.Fatalf("engine should still be running after faulty payloads")
	}
}

func TestDrainExceptionsClearsSink(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 100*time.Millisecond, 400*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer e.Stop()

	if _, err := e.Submit(ItemFunc(time.Now().Add(15*time.Millisecond), func() {
		panic(errors.New("boom"))
	})); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	waitFor(t, time.Second, func() bool { return e.sink.count() > 0 })

	first := e.DrainExceptions()
	if len(first) == 0 {
		t.Fatalf("expected at least one exception record")
	}
	second := e.DrainExceptions()
	if len(second) != 0 {
		t.Fatalf("DrainExceptions() after drain returned %d records, want 0", len(second))
	}
}

func TestCleanShutdownUnderLoad(t *testing.T) {
	e := testEngine()
	if err := e.Start(10*time.Millisecond, 100*time.Millisecond, 400*time.Millisecond); err != nil {
		t.Fatalf("Start: %v", err)
	}

	var executed atomic.Int64
	for i := 0; i < 1000; i++ {
		deadline := time.Now().Add(10 * time.Second)
		if _, err := e.Submit(ItemFunc(deadline, func() {
			executed.Add(1)
		})); err != nil {
			t.Fatalf("Submit: %v", err)
		}
	}

	stopStart := time.Now()
	e.Stop()
	if elapsed := time.Since(stopStart); elapsed > e.opts.GracePeriod {
		t.Fatalf("Stop() took %s, want <= grace period %s", elapsed, e.opts.GracePeriod)
	}
	if e.IsRunning() {
		t.Fatalf("expected IsRunning() == false after Stop")
	}

	execAfterStop := executed.Load()
	time.Sleep(50 * time.Millisecond)
	if got := executed.Load(); got != execAfterStop {
		t.Fatalf("executions continued after Stop returned: %d -> %d", execAfterStop, got)
	}
}

func TestSlowCadenceFormula(t *testing.T) {
	got := slowCadence(50*time.Millisecond, 500*time.Millisecond, 2*time.Second)
	want := 150 * time.Millisecond // floor((2000-500)/500) = 3 -> 3*50ms
	if got != want {
		t.Fatalf("slowCadence = %s, want %s", got, want)
	}
}

func TestSnailCadenceFormula(t *testing.T) {
	got := snailCadence(50*time.Millisecond, 500*time.Millisecond, 2*time.Second)
	want := 300 * time.Millisecond // (floor(1500/500)+3)=6 -> 6*50ms
	if got != want {
		t.Fatalf("snailCadence = %s, want %s", got, want)
	}
}

func TestCadencesClampToFrequency(t *testing.T) {
	if got := slowCadence(50*time.Millisecond, 490*time.Millisecond, 500*time.Millisecond); got != 50*time.Millisecond {
		t.Fatalf("slowCadence = %s, want clamp to frequency 50ms", got)
	}
}

// waitFor polls cond until it returns true or timeout elapses.
func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	if !cond() {
		t.Fatalf("condition not met within %s", timeout)
	}
}

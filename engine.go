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
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"tiersched/internal/schedlog"
	"tiersched/internal/sinks"
)

// StatsObserver receives a snapshot of Statistics on some external cadence
// (e.g. a Prometheus exporter). Engine.Start wires it in if configured via
// EngineOptions.Telemetry; the engine itself has no Prometheus dependency.
type StatsObserver interface {
	Observe(Statistics)
}

// TierStats is the queued/executed snapshot for a single tier.
type TierStats struct {
	Queued   int64
	Executed int64
}

// Statistics is the engine-wide snapshot returned by Engine.Statistics.
type Statistics struct {
	Fast  TierStats
	Slow  TierStats
	Snail TierStats
}

// EngineOptions configures a new Engine as a plain options struct rather
// than functional options, since most fields are optional and zero-valued
// by default.
type EngineOptions struct {
	// Clock is the wall-clock source. Defaults to RealClock{}.
	Clock Clock
	// Logger receives lifecycle and fault log lines. Defaults to a logger
	// writing to stdout; pass schedlog.Nop() to silence it.
	Logger *schedlog.Logger
	// GracePeriod bounds how long Stop waits for tier workers to exit
	// cooperatively before giving up on them. Defaults to 20s.
	GracePeriod time.Duration
	// Telemetry, if set, is notified with a Statistics snapshot once per
	// Start's frequency tick for as long as the engine runs.
	Telemetry StatsObserver
	// AuditSink, if set, receives one FiredRecord per successfully executed
	// item. withDefaults leaves it nil when unset, so no audit trail is
	// written unless a host opts in by providing one.
	AuditSink *sinks.AuditSink
}

func (o EngineOptions) withDefaults() EngineOptions {
	if o.Clock == nil {
		o.Clock = RealClock{}
	}
	if o.Logger == nil {
		o.Logger = schedlog.New()
	}
	if o.GracePeriod <= 0 {
		o.GracePeriod = 20 * time.Second
	}
	return o
}

// Engine owns the three-tier ensemble, the exception sink, and the shared
// dispatcher. The zero value is not usable; construct with NewEngine.
type Engine struct {
	opts EngineOptions

	startMu sync.Mutex
	running atomic.Bool

	isShuttingDown atomic.Bool

	frequency     time.Duration
	fastThreshold time.Duration
	slowThreshold time.Duration

	fast  *tier
	slow  *tier
	snail *tier

	handle     *tierHandle
	sink       *exceptionSink
	dispatcher *dispatcher

	telemetryStop chan struct{}
	telemetryWG   sync.WaitGroup
}

// NewEngine constructs an Engine. Start must be called before Submit.
func NewEngine(opts EngineOptions) *Engine {
	opts = opts.withDefaults()
	return &Engine{
		opts:       opts,
		sink:       newExceptionSink(),
		dispatcher: newDispatcher(),
	}
}

// Start records configuration, wires the tiers to the engine, and launches
// one long-lived worker per tier. It fails if the engine is already
// running, if frequency < 1ms, or if fastThreshold >= slowThreshold.
func (e *Engine) Start(frequency, fastThreshold, slowThreshold time.Duration) error {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if e.running.Load() {
		return fmt.Errorf("tiersched: engine already running")
	}
	if frequency < time.Millisecond {
		return fmt.Errorf("tiersched: frequency must be >= 1ms, got %s", frequency)
	}
	if fastThreshold <= 0 {
		return fmt.Errorf("tiersched: fastThreshold must be > 0, got %s", fastThreshold)
	}
	if fastThreshold >= slowThreshold {
		return fmt.Errorf("tiersched: fastThreshold (%s) must be < slowThreshold (%s)", fastThreshold, slowThreshold)
	}

	e.frequency = frequency
	e.fastThreshold = fastThreshold
	e.slowThreshold = slowThreshold
	e.isShuttingDown.Store(false)

	e.fast = newTier(tierFast, frequency, processFast)
	e.slow = newTier(tierSlow, slowCadence(frequency, fastThreshold, slowThreshold), processSlow)
	e.snail = newTier(tierSnail, snailCadence(frequency, fastThreshold, slowThreshold), processSnail)

	e.handle = &tierHandle{
		clock:          e.opts.Clock,
		sink:           e.sink,
		audit:          e.opts.AuditSink,
		dispatcher:     e.dispatcher,
		logger:         e.opts.Logger,
		fastThreshold:  fastThreshold,
		slowThreshold:  slowThreshold,
		fast:           e.fast,
		slow:           e.slow,
		snail:          e.snail,
		isShuttingDown: e.isShuttingDown.Load,
	}

	e.fast.start(e.handle)
	e.slow.start(e.handle)
	e.snail.start(e.handle)

	if e.opts.Telemetry != nil {
		e.telemetryStop = make(chan struct{})
		e.telemetryWG.Add(1)
		go e.runTelemetry()
	}

	e.running.Store(true)
	e.opts.Logger.Infof("tiersched: engine started frequency=%s fast<=%s slow<=%s (slow cadence=%s snail cadence=%s)",
		frequency, fastThreshold, slowThreshold, e.slow.cadence, e.snail.cadence)
	return nil
}

func (e *Engine) runTelemetry() {
	defer e.telemetryWG.Done()
	ticker := time.NewTicker(e.frequency)
	defer ticker.Stop()
	for {
		select {
		case <-e.telemetryStop:
			return
		case <-ticker.C:
			e.opts.Telemetry.Observe(e.Statistics())
		}
	}
}

// slowCadence derives the Slow tier's pass interval from the ratio between
// the fast/slow thresholds, clamped to at least frequency.
func slowCadence(frequency, fastThreshold, slowThreshold time.Duration) time.Duration {
	mult := int64((slowThreshold - fastThreshold) / fastThreshold)
	c := time.Duration(mult) * frequency
	if c < frequency {
		return frequency
	}
	return c
}

// snailCadence derives the Snail tier's pass interval, wider than Slow's,
// clamped to at least frequency.
func snailCadence(frequency, fastThreshold, slowThreshold time.Duration) time.Duration {
	diff := slowThreshold - fastThreshold
	if diff < 0 {
		diff = -diff
	}
	mult := int64(diff/fastThreshold) + 3
	c := time.Duration(mult) * frequency
	if c < frequency {
		return frequency
	}
	return c
}

// Stop sets isShuttingDown and requests each tier exit, waits the
// configured grace period for the workers to terminate cooperatively, and
// marks the engine stopped regardless of whether they did. Idempotent on
// an already-stopped engine.
func (e *Engine) Stop() {
	e.startMu.Lock()
	defer e.startMu.Unlock()

	if !e.running.Load() {
		return
	}

	e.isShuttingDown.Store(true)
	e.fast.requestExit()
	e.slow.requestExit()
	e.snail.requestExit()

	for _, t := range []*tier{e.fast, e.slow, e.snail} {
		if !t.wait(e.opts.GracePeriod) {
			e.sink.record(e.opts.Clock, uuid.Nil, "engine",
				fmt.Errorf("tier %q did not exit within grace period %s", t.name, e.opts.GracePeriod))
			e.opts.Logger.Warnf("tiersched: tier %q did not exit within grace period %s; abandoning it", t.name, e.opts.GracePeriod)
		}
	}

	if e.telemetryStop != nil {
		close(e.telemetryStop)
		e.telemetryWG.Wait()
		e.telemetryStop = nil
	}

	e.running.Store(false)
	e.opts.Logger.Infof("tiersched: engine stopped")
}

// Submit classifies item by remaining time-to-deadline against the
// configured thresholds and appends it to the chosen tier's inbox. Items
// with a deadline already in the past classify as Fast. It mints and
// returns a new submission ID for exception/audit correlation.
func (e *Engine) Submit(item Item) (uuid.UUID, error) {
	return e.SubmitWithID(uuid.New(), item)
}

// SubmitWithID behaves like Submit but uses the caller-supplied id instead
// of minting one, so a host that already has its own identifier for the
// work (e.g. one assigned by an upstream HTTP caller) can correlate it
// against exception records and audit exports directly. A zero id mints a
// fresh one, matching Submit.
func (e *Engine) SubmitWithID(id uuid.UUID, item Item) (uuid.UUID, error) {
	if !e.running.Load() {
		return uuid.Nil, fmt.Errorf("tiersched: engine is not running")
	}
	if item == nil {
		return uuid.Nil, fmt.Errorf("tiersched: item must not be nil")
	}
	if id == uuid.Nil {
		id = uuid.New()
	}
	sub := &submission{id: id, item: item}

	remaining := item.Deadline().Sub(e.opts.Clock.Now())
	switch {
	case remaining <= e.fastThreshold:
		e.handle.enqueueFast([]*submission{sub})
	case remaining <= e.slowThreshold:
		e.handle.enqueueSlow([]*submission{sub})
	default:
		e.handle.enqueueSnail([]*submission{sub})
	}
	return id, nil
}

// DrainExceptions returns and clears the exception sink.
func (e *Engine) DrainExceptions() []ExceptionRecord {
	return e.sink.drain()
}

// IsRunning reports whether the tier loops are live.
func (e *Engine) IsRunning() bool {
	return e.running.Load()
}

// Statistics returns a point-in-time snapshot of per-tier queued/executed
// counts.
func (e *Engine) Statistics() Statistics {
	if e.fast == nil {
		return Statistics{}
	}
	return Statistics{
		Fast:  TierStats{Queued: int64(e.fast.inbox.Len()), Executed: e.fast.executed.Load()},
		Slow:  TierStats{Queued: int64(e.slow.inbox.Len()), Executed: e.slow.executed.Load()},
		Snail: TierStats{Queued: int64(e.snail.inbox.Len()), Executed: e.snail.executed.Load()},
	}
}

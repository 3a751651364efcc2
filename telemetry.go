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

import "tiersched/internal/telemetry"

// PrometheusTelemetry adapts a *telemetry.Recorder to the StatsObserver
// interface Engine.Start wires in. telemetry.Recorder itself stays free of
// any dependency on this package to avoid an import cycle.
type PrometheusTelemetry struct {
	Recorder *telemetry.Recorder
}

// NewPrometheusTelemetry builds a Recorder and wraps it for use as
// EngineOptions.Telemetry.
func NewPrometheusTelemetry() *PrometheusTelemetry {
	return &PrometheusTelemetry{Recorder: telemetry.NewRecorder()}
}

// Observe implements StatsObserver.
func (p *PrometheusTelemetry) Observe(s Statistics) {
	var snap telemetry.Snapshot
	snap.Fast.Queued, snap.Fast.Executed = s.Fast.Queued, s.Fast.Executed
	snap.Slow.Queued, snap.Slow.Executed = s.Slow.Queued, s.Slow.Executed
	snap.Snail.Queued, snap.Snail.Executed = s.Snail.Queued, s.Snail.Executed
	p.Recorder.Observe(snap)
}

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

// Package telemetry mirrors engine Statistics snapshots into Prometheus
// gauges. It has no dependency on the root tiersched package: Recorder
// accepts the queued/executed numbers directly, so any caller satisfying
// tiersched.StatsObserver can feed it without an import cycle.
package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Snapshot is the per-tier shape Recorder.Observe expects. It matches the
// field layout of tiersched.Statistics without importing it.
type Snapshot struct {
	Fast, Slow, Snail struct {
		Queued, Executed int64
	}
}

// Recorder publishes one Snapshot per call into a dedicated Prometheus
// registry, so multiple Engines in the same process can each own an
// unregistered Recorder without colliding on metric names.
type Recorder struct {
	registry *prometheus.Registry

	queued   *prometheus.GaugeVec
	executed *prometheus.GaugeVec
}

// NewRecorder builds a Recorder with its own registry. Call Handler to
// expose it over HTTP.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	r := &Recorder{
		registry: reg,
		queued: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tiersched_queued",
			Help: "Current number of items queued in a tier.",
		}, []string{"tier"}),
		executed: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "tiersched_executed_total",
			Help: "Cumulative number of items executed by a tier.",
		}, []string{"tier"}),
	}
	reg.MustRegister(r.queued, r.executed)
	return r
}

// Observe implements the engine's StatsObserver interface.
func (r *Recorder) Observe(s Snapshot) {
	r.queued.WithLabelValues("fast").Set(float64(s.Fast.Queued))
	r.queued.WithLabelValues("slow").Set(float64(s.Slow.Queued))
	r.queued.WithLabelValues("snail").Set(float64(s.Snail.Queued))
	r.executed.WithLabelValues("fast").Set(float64(s.Fast.Executed))
	r.executed.WithLabelValues("slow").Set(float64(s.Slow.Executed))
	r.executed.WithLabelValues("snail").Set(float64(s.Snail.Executed))
}

// Handler returns an http.Handler serving this Recorder's metrics in the
// Prometheus exposition format, suitable for mounting at /metrics.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

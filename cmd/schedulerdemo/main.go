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

// Package main runs the tiered deadline scheduler as a standalone HTTP
// service: POST /submit to enqueue a deadline, GET /stats for per-tier
// queued/executed counts, GET /exceptions to drain recorded faults, and
// (when telemetry is enabled) GET /metrics for Prometheus scraping.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiersched"
	"tiersched/internal/exceptionstore"
	"tiersched/internal/httpapi"
	"tiersched/internal/schedlog"
	"tiersched/internal/sinks"
)

func main() {
	frequency := flag.Duration("frequency", 10*time.Millisecond, "Base tick frequency; the Fast tier polls at exactly this interval")
	fastThreshold := flag.Duration("fast_threshold", 200*time.Millisecond, "Items with <= this much time to deadline classify as Fast")
	slowThreshold := flag.Duration("slow_threshold", 5*time.Second, "Items with <= this much time to deadline (and > fast_threshold) classify as Slow; beyond it, Snail")
	gracePeriod := flag.Duration("grace_period", 20*time.Second, "How long Stop waits for tier workers to exit on shutdown")
	httpAddr := flag.String("http_addr", ":8080", "HTTP listen address")
	metricsAddr := flag.String("metrics_addr", "", "If non-empty, expose Prometheus /metrics on this address instead of http_addr")
	exportAdapter := flag.String("export_adapter", "mock", "Exception export adapter: mock, file, redis, kafka")
	exportFile := flag.String("export_file", "exceptions.jsonl", "Path used by the file export adapter")
	exportRedisAddr := flag.String("export_redis_addr", "", "Redis address used by the redis export adapter")
	auditFile := flag.String("audit_file", "", "If non-empty, append a JSONL audit record for every fired item to this path")
	flag.Parse()

	logger := schedlog.New()

	exporter, err := exceptionstore.Build(*exportAdapter, exceptionstore.Options{
		FilePath:  *exportFile,
		RedisAddr: *exportRedisAddr,
	})
	if err != nil {
		log.Fatalf("tiersched: building export adapter: %v", err)
	}

	var auditSink *sinks.AuditSink
	if *auditFile != "" {
		auditSink, err = sinks.NewAuditSink(*auditFile)
		if err != nil {
			log.Fatalf("tiersched: opening audit sink: %v", err)
		}
		defer auditSink.Close()
	}

	telem := tiersched.NewPrometheusTelemetry()

	engine := tiersched.NewEngine(tiersched.EngineOptions{
		Logger:      logger,
		GracePeriod: *gracePeriod,
		Telemetry:   telem,
		AuditSink:   auditSink,
	})

	if err := engine.Start(*frequency, *fastThreshold, *slowThreshold); err != nil {
		log.Fatalf("tiersched: starting engine: %v", err)
	}

	mux := http.NewServeMux()
	httpapi.NewServer(engine).RegisterRoutes(mux)
	if *metricsAddr == "" {
		mux.Handle("/metrics", telem.Recorder.Handler())
	}

	httpServer := &http.Server{Addr: *httpAddr, Handler: mux}
	go func() {
		fmt.Printf("scheduler demo listening on %s\n", *httpAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("tiersched: http.ListenAndServe: %v", err)
		}
	}()

	var metricsServer *http.Server
	if *metricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", telem.Recorder.Handler())
		metricsServer = &http.Server{Addr: *metricsAddr, Handler: metricsMux}
		go func() {
			fmt.Printf("metrics listening on %s\n", *metricsAddr)
			if err := metricsServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("tiersched: metrics ListenAndServe: %v", err)
			}
		}()
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	fmt.Println("\nshutting down...")
	engine.Stop()

	for _, rec := range engine.DrainExceptions() {
		exportCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := exporter.ExportBatch(exportCtx, []exceptionstore.Record{{
			SubmissionID: rec.SubmissionID.String(),
			Tier:         rec.Tier,
			Message:      rec.String(),
			At:           rec.At,
		}})
		cancel()
		if err != nil {
			logger.Errorf("tiersched: exporting final exception batch: %v", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Fatalf("tiersched: http server shutdown: %v", err)
	}
	if metricsServer != nil {
		if err := metricsServer.Shutdown(ctx); err != nil {
			log.Fatalf("tiersched: metrics server shutdown: %v", err)
		}
	}

	fmt.Println("scheduler demo stopped.")
}

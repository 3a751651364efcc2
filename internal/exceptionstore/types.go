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

// Package exceptionstore provides idempotent export adapters for the fault
// records an Engine accumulates. The mock, Redis and Postgres adapters key a
// record by its submission ID, so re-exporting the same batch after a crash
// or a timed-out call is a no-op rather than a duplicate; the Kafka adapter
// relies on the producer's idempotence for that, and FileExporter appends
// every record it is given.
package exceptionstore

import (
	"context"
	"time"
)

// Record is the adapter-facing shape for one exported exception. It mirrors
// tiersched.ExceptionRecord without importing the root package, keeping this
// package usable standalone.
type Record struct {
	SubmissionID string
	Tier         string
	Message      string
	At           time.Time
}

// Exporter is the minimal surface every adapter implements. Callers retry
// whole batches on timeout or crash recovery rather than tracking partial
// progress themselves, so re-exporting the same SubmissionID is a no-op in
// the mock, Redis and Postgres adapters (and in Kafka with an idempotent
// producer); FileExporter may write duplicate lines.
type Exporter interface {
	ExportBatch(ctx context.Context, records []Record) error
}

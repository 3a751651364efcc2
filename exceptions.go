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
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tiersched/internal/queue"
)

// ExceptionRecord describes a single asynchronous fault: a per-item error,
// a loop error, or a teardown error. It is never surfaced synchronously;
// hosts retrieve it via Engine.DrainExceptions.
type ExceptionRecord struct {
	// SubmissionID correlates this record back to the submission that
	// caused it, when known. Errors not tied to one item (an audit-sink
	// write failure, a tier that missed the shutdown grace period) carry a
	// zero UUID.
	SubmissionID uuid.UUID
	// Tier names the tier the fault occurred in: "fast", "slow", "snail",
	// or "engine" for teardown faults outside any tier.
	Tier string
	// Err is the underlying error or recovered panic, formatted.
	Err error
	// At is the wall-clock instant the record was created.
	At time.Time
}

func (e ExceptionRecord) String() string {
	return fmt.Sprintf("[%s] %s: %v (submission=%s)", e.At.Format(time.RFC3339Nano), e.Tier, e.Err, e.SubmissionID)
}

// MarshalJSON renders Err as a plain string, since error values have no
// exported fields for encoding/json to marshal.
func (e ExceptionRecord) MarshalJSON() ([]byte, error) {
	var message string
	if e.Err != nil {
		message = e.Err.Error()
	}
	return json.Marshal(struct {
		SubmissionID uuid.UUID `json:"submission_id"`
		Tier         string    `json:"tier"`
		Message      string    `json:"message"`
		At           time.Time `json:"at"`
	}{e.SubmissionID, e.Tier, message, e.At})
}

// exceptionSink is the engine-owned, unbounded FIFO of exception
// descriptors, drainable by the host. Many tiers write concurrently; the
// host reads via Engine.DrainExceptions.
type exceptionSink struct {
	list *queue.List[ExceptionRecord]
}

func newExceptionSink() *exceptionSink {
	return &exceptionSink{list: queue.NewList[ExceptionRecord]()}
}

func (s *exceptionSink) record(clock Clock, submissionID uuid.UUID, tier string, err error) {
	if err == nil {
		return
	}
	s.list.Append(ExceptionRecord{
		SubmissionID: submissionID,
		Tier:         tier,
		Err:          err,
		At:           clock.Now(),
	})
}

func (s *exceptionSink) drain() []ExceptionRecord {
	return s.list.DrainAll()
}

func (s *exceptionSink) count() int {
	return s.list.Count()
}

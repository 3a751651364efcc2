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

// Package sinks provides an append-only audit trail of fired items,
// independent of the exception/fault export in internal/exceptionstore.
package sinks

import (
	"bufio"
	"encoding/json"
	"os"
	"sync"
	"time"
)

// FiredRecord describes one successfully executed item.
type FiredRecord struct {
	SubmissionID string    `json:"submission_id"`
	Tier         string    `json:"tier"`
	Deadline     time.Time `json:"deadline"`
	FiredAt      time.Time `json:"fired_at"`
}

// AuditSink is a buffered JSONL sink for FiredRecords. Callers write one
// batch per tier pass rather than one record at a time: a tier pass already
// groups every item it fires behind a single dispatcher fan-out, so that is
// the natural durability unit here, not a wall-clock timer. A batch is
// flushed to disk as soon as it is written, so at most one in-flight pass
// is ever at risk of being lost if the process dies mid-write.
type AuditSink struct {
	mu sync.Mutex
	f  *os.File
	w  *bufio.Writer
}

// NewAuditSink opens (or creates) the file at path in append mode with a
// buffered writer. Call Close() when done.
func NewAuditSink(path string) (*AuditSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &AuditSink{f: f, w: bufio.NewWriterSize(f, 64*1024)}, nil
}

// RecordBatch appends every record fired by one tier pass and flushes once
// for the whole batch. A nil or empty batch is a no-op.
func (s *AuditSink) RecordBatch(recs []FiredRecord) error {
	if len(recs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	enc := json.NewEncoder(s.w)
	for i := range recs {
		if err := enc.Encode(&recs[i]); err != nil {
			return err
		}
	}
	return s.w.Flush()
}

// Close flushes any buffered data and closes the underlying file.
func (s *AuditSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Flush(); err != nil {
		s.f.Close()
		return err
	}
	return s.f.Close()
}

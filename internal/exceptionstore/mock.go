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

package exceptionstore

import (
	"context"
	"sync"
)

// MockExporter keeps exported records in memory, deduplicated by
// SubmissionID. It exists for tests and for running the demo without any
// external infrastructure.
type MockExporter struct {
	mu   sync.Mutex
	seen map[string]Record
}

// NewMockExporter returns a ready-to-use MockExporter.
func NewMockExporter() *MockExporter {
	return &MockExporter{seen: make(map[string]Record)}
}

// ExportBatch stores each record the first time its SubmissionID is seen.
func (m *MockExporter) ExportBatch(ctx context.Context, records []Record) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if _, dup := m.seen[r.SubmissionID]; dup {
			continue
		}
		m.seen[r.SubmissionID] = r
	}
	return nil
}

// All returns a snapshot of every record accepted so far, for assertions.
func (m *MockExporter) All() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Record, 0, len(m.seen))
	for _, r := range m.seen {
		out = append(out, r)
	}
	return out
}

// Count reports how many distinct submissions have been exported.
func (m *MockExporter) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

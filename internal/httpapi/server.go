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

// Package httpapi implements the public-facing HTTP server for the
// scheduler demo: submitting work items and reading back engine
// statistics.
package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"tiersched"
)

// Server handles HTTP requests against a running Engine.
type Server struct {
	engine *tiersched.Engine
}

// NewServer configures a new Server around an already-started Engine.
func NewServer(engine *tiersched.Engine) *Server {
	return &Server{engine: engine}
}

// RegisterRoutes wires this server's handlers onto mux.
func (s *Server) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/submit", s.handleSubmit)
	mux.HandleFunc("/stats", s.handleStats)
	mux.HandleFunc("/exceptions", s.handleExceptions)
}

type submitRequest struct {
	ID      string `json:"id"`
	AfterMS int64  `json:"after_ms"`
}

type submitResponse struct {
	SubmissionID string `json:"submission_id"`
}

// handleSubmit accepts an optional caller-supplied id and a deadline
// (milliseconds from now), and submits a no-op item; this is a demo
// endpoint, not a general job-execution API. When id is omitted the engine
// mints one; an id that isn't a valid UUID is rejected with 400.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "POST required", http.StatusMethodNotAllowed)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, fmt.Sprintf("bad request body: %v", err), http.StatusBadRequest)
		return
	}

	var id uuid.UUID
	if req.ID != "" {
		parsed, err := uuid.Parse(req.ID)
		if err != nil {
			http.Error(w, fmt.Sprintf("bad id: %v", err), http.StatusBadRequest)
			return
		}
		id = parsed
	}

	deadline := time.Now().Add(time.Duration(req.AfterMS) * time.Millisecond)
	id, err := s.engine.SubmitWithID(id, tiersched.ItemFunc(deadline, func() {}))
	if err != nil {
		http.Error(w, err.Error(), http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(submitResponse{SubmissionID: id.String()})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.Statistics())
}

func (s *Server) handleExceptions(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(s.engine.DrainExceptions())
}

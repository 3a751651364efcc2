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
	"database/sql"
	"fmt"
)

// Postgres schema (reference):
//
// CREATE TABLE IF NOT EXISTS exported_exceptions (
//   submission_id TEXT PRIMARY KEY,
//   tier TEXT NOT NULL,
//   message TEXT NOT NULL,
//   at TIMESTAMPTZ NOT NULL
// );

// PostgresExporter writes records via a single INSERT ... ON CONFLICT DO
// NOTHING per row, so a retried batch silently skips rows already exported.
type PostgresExporter struct {
	db *sql.DB
}

// NewPostgresExporter wraps an already-opened *sql.DB; callers own its
// lifecycle (driver selection, connection pool, Close).
func NewPostgresExporter(db *sql.DB) *PostgresExporter {
	return &PostgresExporter{db: db}
}

const postgresExportStmt = `
INSERT INTO exported_exceptions (submission_id, tier, message, at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (submission_id) DO NOTHING
`

func (p *PostgresExporter) ExportBatch(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("exceptionstore: begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, postgresExportStmt)
	if err != nil {
		return fmt.Errorf("exceptionstore: prepare: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, rec.SubmissionID, rec.Tier, rec.Message, rec.At); err != nil {
			return fmt.Errorf("exceptionstore: insert submission=%s: %w", rec.SubmissionID, err)
		}
	}
	return tx.Commit()
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package database

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

func schemaContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 60*time.Second)
}

// createTables creates the content collections and run history tables
func (db *DB) createTables() error {
	ctx, cancel := schemaContext()
	defer cancel()

	for _, query := range tableCreationQueries() {
		if _, err := db.conn.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %s: %w", query, err)
		}
	}
	return nil
}

func tableCreationQueries() []string {
	queries := make([]string, 0, len(models.Collections)+3)

	// All three collections share one layout; source-specific payload lives
	// in the fields JSON column.
	for _, c := range models.Collections {
		queries = append(queries, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			uniqueness_key TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			title TEXT NOT NULL,
			url TEXT NOT NULL,
			image_url TEXT NOT NULL,
			published_at TIMESTAMP,
			fields TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		)`, c))
	}

	queries = append(queries,
		// Latest attempt per source, overwritten on every recorded attempt
		`CREATE TABLE IF NOT EXISTS sync_history (
			source_id TEXT PRIMARY KEY,
			attempt_id TEXT NOT NULL,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			outcome TEXT NOT NULL,
			records_fetched INTEGER NOT NULL,
			records_inserted INTEGER NOT NULL,
			records_skipped INTEGER NOT NULL,
			records_dropped INTEGER NOT NULL,
			records_deleted BIGINT NOT NULL,
			message TEXT NOT NULL,
			error_detail TEXT NOT NULL
		)`,
		// Append-only attempt log
		`CREATE TABLE IF NOT EXISTS sync_attempts (
			attempt_id TEXT PRIMARY KEY,
			source_id TEXT NOT NULL,
			triggered_by TEXT NOT NULL,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP NOT NULL,
			outcome TEXT NOT NULL,
			records_fetched INTEGER NOT NULL,
			records_inserted INTEGER NOT NULL,
			records_skipped INTEGER NOT NULL,
			records_dropped INTEGER NOT NULL,
			records_deleted BIGINT NOT NULL,
			message TEXT NOT NULL,
			error_detail TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sync_attempts_source_started ON sync_attempts(source_id, started_at)`,
	)

	return queries
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

const attemptColumns = `attempt_id, source_id, triggered_by, started_at, finished_at, outcome,
	records_fetched, records_inserted, records_skipped, records_dropped, records_deleted,
	message, error_detail`

// UpsertHistory replaces the latest history row of the attempt's source and
// appends the attempt to the log, in one transaction. Re-recording the same
// attempt ID leaves the log unchanged.
func (db *DB) UpsertHistory(ctx context.Context, attempt *models.SyncAttempt) error {
	if attempt == nil || attempt.SourceID == "" || attempt.ID == "" {
		return errors.New("history attempt requires an id and a source id")
	}

	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := db.upsertHistoryTx(ctx, attempt)
	metrics.RecordDBQuery("upsert", "sync_history", time.Since(start), err)
	return err
}

func (db *DB) upsertHistoryTx(ctx context.Context, a *models.SyncAttempt) (err error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin history transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	args := attemptArgs(a)

	_, err = tx.ExecContext(ctx, `INSERT INTO sync_history (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (source_id) DO UPDATE SET
			attempt_id = EXCLUDED.attempt_id,
			triggered_by = EXCLUDED.triggered_by,
			started_at = EXCLUDED.started_at,
			finished_at = EXCLUDED.finished_at,
			outcome = EXCLUDED.outcome,
			records_fetched = EXCLUDED.records_fetched,
			records_inserted = EXCLUDED.records_inserted,
			records_skipped = EXCLUDED.records_skipped,
			records_dropped = EXCLUDED.records_dropped,
			records_deleted = EXCLUDED.records_deleted,
			message = EXCLUDED.message,
			error_detail = EXCLUDED.error_detail`, args...)
	if err != nil {
		return fmt.Errorf("upsert sync_history: %w", err)
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO sync_attempts (`+attemptColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (attempt_id) DO NOTHING`, args...)
	if err != nil {
		return fmt.Errorf("append sync_attempts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit history: %w", err)
	}
	return nil
}

func attemptArgs(a *models.SyncAttempt) []any {
	finished := a.FinishedAt
	if finished.IsZero() {
		finished = a.StartedAt
	}
	return []any{
		a.ID, a.SourceID, string(a.TriggeredBy), a.StartedAt.UTC(), finished.UTC(), string(a.Outcome),
		a.RecordsFetched, a.RecordsInserted, a.RecordsSkipped, a.RecordsDropped, a.RecordsDeleted,
		a.Message, a.ErrorDetail,
	}
}

// LatestHistory returns the most recent recorded attempt of every source
// that has one, ordered by source ID.
func (db *DB) LatestHistory(ctx context.Context) ([]models.SyncAttempt, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT `+attemptColumns+` FROM sync_history ORDER BY source_id`)
	attempts, err := collectAttempts(rows, err)
	metrics.RecordDBQuery("select", "sync_history", time.Since(start), err)
	return attempts, err
}

// AttemptLog returns up to limit logged attempts of sourceID, newest first.
func (db *DB) AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error) {
	ctx, cancel := db.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := db.conn.QueryContext(ctx, `SELECT `+attemptColumns+` FROM sync_attempts
		WHERE source_id = ?
		ORDER BY started_at DESC, attempt_id DESC
		LIMIT ?`, sourceID, ClampLimit(limit))
	attempts, err := collectAttempts(rows, err)
	metrics.RecordDBQuery("select", "sync_attempts", time.Since(start), err)
	return attempts, err
}

func collectAttempts(rows *sql.Rows, queryErr error) ([]models.SyncAttempt, error) {
	if queryErr != nil {
		return nil, fmt.Errorf("query history: %w", queryErr)
	}
	defer closeWithLog(rows, "rows")

	attempts := make([]models.SyncAttempt, 0)
	for rows.Next() {
		var (
			a                models.SyncAttempt
			trigger, outcome string
		)
		if err := rows.Scan(&a.ID, &a.SourceID, &trigger, &a.StartedAt, &a.FinishedAt, &outcome,
			&a.RecordsFetched, &a.RecordsInserted, &a.RecordsSkipped, &a.RecordsDropped, &a.RecordsDeleted,
			&a.Message, &a.ErrorDetail); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		a.TriggeredBy = models.Trigger(trigger)
		a.Outcome = models.Outcome(outcome)
		a.StartedAt = a.StartedAt.UTC()
		a.FinishedAt = a.FinishedAt.UTC()
		attempts = append(attempts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}
	return attempts, nil
}

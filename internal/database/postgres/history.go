// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

const attemptColumns = `attempt_id, source_id, triggered_by, started_at, finished_at, outcome,
	records_fetched, records_inserted, records_skipped, records_dropped, records_deleted,
	message, error_detail`

// UpsertHistory replaces the source's latest row and appends to the attempt
// log in one transaction.
func (s *Store) UpsertHistory(ctx context.Context, attempt *models.SyncAttempt) error {
	if attempt == nil || attempt.SourceID == "" || attempt.ID == "" {
		return errors.New("history attempt requires an id and a source id")
	}
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		args := attemptArgs(attempt)
		if _, err := tx.Exec(ctx, `INSERT INTO sync_history (`+attemptColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
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
				error_detail = EXCLUDED.error_detail`, args...); err != nil {
			return fmt.Errorf("upsert sync_history: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO sync_attempts (`+attemptColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			ON CONFLICT (attempt_id) DO NOTHING`, args...); err != nil {
			return fmt.Errorf("append sync_attempts: %w", err)
		}
		return nil
	})
	metrics.RecordDBQuery("upsert", "sync_history", time.Since(start), err)
	return err
}

func attemptArgs(a *models.SyncAttempt) []any {
	finished := a.FinishedAt
	if finished.IsZero() {
		finished = a.StartedAt
	}
	return []any{
		a.ID, a.SourceID, string(a.TriggeredBy), a.StartedAt.UTC(), finished.UTC(), string(a.Outcome),
		int32(a.RecordsFetched), int32(a.RecordsInserted), int32(a.RecordsSkipped), int32(a.RecordsDropped), a.RecordsDeleted,
		a.Message, a.ErrorDetail,
	}
}

// LatestHistory returns the latest attempt per source ordered by source ID.
func (s *Store) LatestHistory(ctx context.Context) ([]models.SyncAttempt, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM sync_history ORDER BY source_id`)
	attempts, err := collectAttempts(rows, err)
	metrics.RecordDBQuery("select", "sync_history", time.Since(start), err)
	return attempts, err
}

// AttemptLog returns up to limit attempts of sourceID, newest first.
func (s *Store) AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error) {
	ctx, cancel := s.ensureContext(ctx)
	defer cancel()

	start := time.Now()
	rows, err := s.pool.Query(ctx, `SELECT `+attemptColumns+` FROM sync_attempts
		WHERE source_id = $1
		ORDER BY started_at DESC, attempt_id DESC
		LIMIT $2`, sourceID, database.ClampLimit(limit))
	attempts, err := collectAttempts(rows, err)
	metrics.RecordDBQuery("select", "sync_attempts", time.Since(start), err)
	return attempts, err
}

func collectAttempts(rows pgx.Rows, queryErr error) ([]models.SyncAttempt, error) {
	if queryErr != nil {
		return nil, fmt.Errorf("query history: %w", queryErr)
	}
	attempts, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.SyncAttempt, error) {
		var (
			a                                   models.SyncAttempt
			trigger, outcome                    string
			fetched, inserted, skipped, dropped int32
		)
		err := row.Scan(&a.ID, &a.SourceID, &trigger, &a.StartedAt, &a.FinishedAt, &outcome,
			&fetched, &inserted, &skipped, &dropped, &a.RecordsDeleted,
			&a.Message, &a.ErrorDetail)
		a.TriggeredBy = models.Trigger(trigger)
		a.Outcome = models.Outcome(outcome)
		a.RecordsFetched = int(fetched)
		a.RecordsInserted = int(inserted)
		a.RecordsSkipped = int(skipped)
		a.RecordsDropped = int(dropped)
		a.StartedAt = a.StartedAt.UTC()
		a.FinishedAt = a.FinishedAt.UTC()
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan history: %w", err)
	}
	return attempts, nil
}

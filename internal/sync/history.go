// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"time"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// Recorder writes finalized attempts to the run history.
type Recorder struct {
	store   Store
	timeout time.Duration
}

// NewRecorder creates a Recorder. timeout bounds the history write.
func NewRecorder(store Store, timeout time.Duration) *Recorder {
	return &Recorder{store: store, timeout: timeout}
}

// Record persists attempt. A failure is logged and counted and returned as a
// *models.HistoryRecordError for the caller's information only; it must not
// change the attempt's outcome.
func (r *Recorder) Record(ctx context.Context, attempt *models.SyncAttempt) error {
	callCtx := ctx
	if r.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.store.UpsertHistory(callCtx, attempt); err != nil {
		metrics.RecordHistoryError(attempt.SourceID)
		herr := &models.HistoryRecordError{SourceID: attempt.SourceID, Err: err}
		logging.Ctx(ctx).Error().
			Err(herr).
			Str("attempt_id", attempt.ID).
			Str("outcome", string(attempt.Outcome)).
			Msg("Failed to record sync history")
		return herr
	}
	return nil
}

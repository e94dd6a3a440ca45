// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
)

// UpsertResult counts what happened to each record of a batch.
type UpsertResult struct {
	Inserted int
	// Existing records were already stored (including inserts that lost a
	// race against a concurrent attempt).
	Existing int
	// Duplicates repeated a key seen earlier in the same batch.
	Duplicates int
	// Failed records hit a storage error; FirstErr holds the first one.
	Failed   int
	FirstErr error
}

// Skipped returns the number of records not inserted.
func (r UpsertResult) Skipped() int {
	return r.Existing + r.Duplicates + r.Failed
}

// Upserter merges normalized records into the store without creating
// duplicates. A failing record never aborts the batch.
type Upserter struct {
	store   Store
	timeout time.Duration
}

// NewUpserter creates an Upserter. timeout bounds every store call.
func NewUpserter(store Store, timeout time.Duration) *Upserter {
	return &Upserter{store: store, timeout: timeout}
}

// UpsertBatch checks each record's key and inserts it when absent.
// Re-running the same batch inserts nothing.
func (u *Upserter) UpsertBatch(ctx context.Context, collection models.Collection, sourceID string, records []models.NormalizedRecord) UpsertResult {
	var result UpsertResult
	seen := make(map[string]struct{}, len(records))
	logger := logging.Ctx(ctx)

	for i := range records {
		rec := records[i]
		if _, dup := seen[rec.UniquenessKey]; dup {
			result.Duplicates++
			continue
		}
		seen[rec.UniquenessKey] = struct{}{}

		exists, err := u.exists(ctx, collection, rec.UniquenessKey)
		if err != nil {
			u.fail(&result, &models.StorageError{Op: "exists", Collection: collection, Key: rec.UniquenessKey, Err: err})
			continue
		}
		if exists {
			result.Existing++
			continue
		}

		if err := u.insert(ctx, collection, sourceID, rec); err != nil {
			if errors.Is(err, models.ErrDuplicateKey) {
				logger.Debug().Str("key", rec.UniquenessKey).Msg("Record inserted concurrently, counting as existing")
				result.Existing++
				continue
			}
			u.fail(&result, &models.StorageError{Op: "insert", Collection: collection, Key: rec.UniquenessKey, Err: err})
			continue
		}
		result.Inserted++
	}

	if result.Failed > 0 {
		logger.Warn().
			Str("collection", string(collection)).
			Int("failed", result.Failed).
			Int("inserted", result.Inserted).
			Err(result.FirstErr).
			Msg("Some records could not be stored")
	}
	return result
}

func (u *Upserter) exists(ctx context.Context, collection models.Collection, key string) (bool, error) {
	callCtx, cancel := u.callContext(ctx)
	defer cancel()
	return u.store.ExistsByKey(callCtx, collection, key)
}

func (u *Upserter) insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error {
	callCtx, cancel := u.callContext(ctx)
	defer cancel()
	return u.store.Insert(callCtx, collection, sourceID, rec)
}

func (u *Upserter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if u.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, u.timeout)
}

func (u *Upserter) fail(result *UpsertResult, err *models.StorageError) {
	result.Failed++
	if result.FirstErr == nil {
		result.FirstErr = err
	}
	logging.Debug().Err(err).Msg("Record store failed")
}

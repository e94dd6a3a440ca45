// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"

	"github.com/tomtom215/twangwire/internal/models"
)

// Store is the storage collaborator of the orchestrator. Implementations live
// in internal/database (DuckDB), internal/database/postgres and
// internal/database/mongodb.
type Store interface {
	// ExistsByKey reports whether collection already holds key.
	ExistsByKey(ctx context.Context, collection models.Collection, key string) (bool, error)

	// Insert stores rec. It returns an error wrapping models.ErrDuplicateKey
	// when the uniqueness constraint rejects the row.
	Insert(ctx context.Context, collection models.Collection, sourceID string, rec models.NormalizedRecord) error

	// DeleteOutsideNewest keeps the newest keep rows ordered by orderBy
	// (descending, ties broken by key) and deletes the rest.
	DeleteOutsideNewest(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error)

	// UpsertHistory replaces the latest attempt row for attempt.SourceID and
	// appends attempt to the attempt log.
	UpsertHistory(ctx context.Context, attempt *models.SyncAttempt) error
}

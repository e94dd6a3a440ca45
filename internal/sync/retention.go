// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// Sweeper bounds collection growth by keeping only the newest rows.
type Sweeper struct {
	store   Store
	timeout time.Duration
}

// NewSweeper creates a Sweeper. timeout bounds the delete call.
func NewSweeper(store Store, timeout time.Duration) *Sweeper {
	return &Sweeper{store: store, timeout: timeout}
}

// Trim deletes every row of collection outside the newest keep rows ordered
// by orderBy. keep <= 0 means unlimited retention and is a no-op.
func (s *Sweeper) Trim(ctx context.Context, collection models.Collection, keep int, orderBy string) (int64, error) {
	if keep <= 0 {
		return 0, nil
	}
	if !models.ValidOrderField(orderBy) {
		return 0, fmt.Errorf("trim %s: unknown order field %q", collection, orderBy)
	}

	callCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	deleted, err := s.store.DeleteOutsideNewest(callCtx, collection, keep, orderBy)
	if err != nil {
		return 0, &models.StorageError{Op: "trim", Collection: collection, Err: err}
	}
	metrics.RecordRetention(string(collection), deleted)
	return deleted, nil
}

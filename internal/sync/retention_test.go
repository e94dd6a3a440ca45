// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

func TestSweeperTrim(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		rows        int
		keep        int
		wantDeleted int64
		wantRows    int
	}{
		{name: "over limit", rows: 8, keep: 5, wantDeleted: 3, wantRows: 5},
		{name: "at limit is a no-op", rows: 5, keep: 5, wantDeleted: 0, wantRows: 5},
		{name: "under limit", rows: 2, keep: 5, wantDeleted: 0, wantRows: 2},
		{name: "zero keep means unlimited", rows: 4, keep: 0, wantDeleted: 0, wantRows: 4},
		{name: "keep one", rows: 4, keep: 1, wantDeleted: 3, wantRows: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore()
			for i := 0; i < tt.rows; i++ {
				store.seed(models.CollectionNews, rec(fmt.Sprintf("k%02d", i), t0.Add(time.Duration(i)*time.Hour)))
			}

			deleted, err := NewSweeper(store, time.Second).Trim(context.Background(), models.CollectionNews, tt.keep, models.OrderPublishedAt)
			if err != nil {
				t.Fatalf("Trim() error = %v", err)
			}
			if deleted != tt.wantDeleted {
				t.Errorf("deleted = %d, want %d", deleted, tt.wantDeleted)
			}
			if n := len(store.keys(models.CollectionNews)); n != tt.wantRows {
				t.Errorf("rows = %d, want %d", n, tt.wantRows)
			}
		})
	}
}

func TestSweeperKeepsNewest(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	store := newMemStore()
	// Insert out of order so retention cannot rely on insertion order.
	offsets := []int{5, 1, 9, 3, 7, 2, 8}
	for _, h := range offsets {
		store.seed(models.CollectionNews, rec(fmt.Sprintf("h%d", h), t0.Add(time.Duration(h)*time.Hour)))
	}
	before := map[string]time.Time{}
	for _, h := range offsets {
		before[fmt.Sprintf("h%d", h)] = t0.Add(time.Duration(h) * time.Hour)
	}

	if _, err := NewSweeper(store, time.Second).Trim(context.Background(), models.CollectionNews, 3, models.OrderPublishedAt); err != nil {
		t.Fatalf("Trim() error = %v", err)
	}

	kept := store.keys(models.CollectionNews)
	keptSet := map[string]bool{}
	oldestKept := time.Time{}
	for _, k := range kept {
		keptSet[k] = true
		if oldestKept.IsZero() || before[k].Before(oldestKept) {
			oldestKept = before[k]
		}
	}
	for k, ts := range before {
		if !keptSet[k] && ts.After(oldestKept) {
			t.Errorf("deleted %s (%v) is newer than retained %v", k, ts, oldestKept)
		}
	}
	if len(kept) != 3 {
		t.Errorf("kept %v, want 3 rows", kept)
	}
}

func TestSweeperErrors(t *testing.T) {
	t.Parallel()

	store := newMemStore()
	s := NewSweeper(store, time.Second)

	if _, err := s.Trim(context.Background(), models.CollectionNews, 5, "title"); err == nil {
		t.Error("Trim() with unknown order field should fail")
	}

	store.deleteErr = errors.New("locked")
	_, err := s.Trim(context.Background(), models.CollectionNews, 5, models.OrderPublishedAt)
	var storageErr *models.StorageError
	if !errors.As(err, &storageErr) || storageErr.Op != "trim" {
		t.Errorf("Trim() error = %v, want trim StorageError", err)
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

func TestUpsertBatch(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		setup    func(*memStore)
		records  []models.NormalizedRecord
		want     UpsertResult
		wantKeys []string
	}{
		{
			name:     "all new",
			records:  []models.NormalizedRecord{rec("a", t0), rec("b", t0)},
			want:     UpsertResult{Inserted: 2},
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "existing skipped",
			setup:    func(s *memStore) { s.seed(models.CollectionNews, rec("a", t0)) },
			records:  []models.NormalizedRecord{rec("a", t0), rec("b", t0)},
			want:     UpsertResult{Inserted: 1, Existing: 1},
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "duplicates inside batch collapse",
			records:  []models.NormalizedRecord{rec("a", t0), rec("a", t0.Add(time.Hour)), rec("b", t0)},
			want:     UpsertResult{Inserted: 2, Duplicates: 1},
			wantKeys: []string{"a", "b"},
		},
		{
			name:     "lost insert race counts as existing",
			setup:    func(s *memStore) { s.raceKeys = map[string]bool{"b": true} },
			records:  []models.NormalizedRecord{rec("a", t0), rec("b", t0)},
			want:     UpsertResult{Inserted: 1, Existing: 1},
			wantKeys: []string{"a"},
		},
		{
			name:     "empty batch",
			records:  nil,
			want:     UpsertResult{},
			wantKeys: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newMemStore()
			if tt.setup != nil {
				tt.setup(store)
			}
			got := NewUpserter(store, time.Second).UpsertBatch(context.Background(), models.CollectionNews, "news", tt.records)
			if got != tt.want {
				t.Errorf("UpsertBatch() = %+v, want %+v", got, tt.want)
			}
			if keys := store.keys(models.CollectionNews); !reflect.DeepEqual(keys, tt.wantKeys) {
				t.Errorf("stored keys = %v, want %v", keys, tt.wantKeys)
			}
		})
	}
}

func TestUpsertBatchIsIdempotent(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	records := []models.NormalizedRecord{rec("a", t0), rec("b", t0), rec("c", t0)}
	store := newMemStore()
	u := NewUpserter(store, time.Second)

	first := u.UpsertBatch(context.Background(), models.CollectionVideos, "videos", records)
	second := u.UpsertBatch(context.Background(), models.CollectionVideos, "videos", records)

	if first.Inserted != 3 {
		t.Errorf("first run inserted %d, want 3", first.Inserted)
	}
	if second.Inserted != 0 || second.Existing != 3 {
		t.Errorf("second run = %+v, want 0 inserted and 3 existing", second)
	}
	if n := len(store.keys(models.CollectionVideos)); n != 3 {
		t.Errorf("row count = %d, want 3", n)
	}
}

func TestUpsertBatchStorageFailuresDoNotAbort(t *testing.T) {
	t.Parallel()

	t0 := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	boom := errors.New("disk full")

	t.Run("exists check fails", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.existsErr = boom

		got := NewUpserter(store, time.Second).UpsertBatch(context.Background(), models.CollectionChart, "chart",
			[]models.NormalizedRecord{rec("a", t0), rec("b", t0)})

		if got.Failed != 2 || got.Inserted != 0 || got.Skipped() != 2 {
			t.Errorf("result = %+v", got)
		}
		var storageErr *models.StorageError
		if !errors.As(got.FirstErr, &storageErr) || storageErr.Op != "exists" || storageErr.Key != "a" {
			t.Errorf("FirstErr = %v, want exists StorageError for key a", got.FirstErr)
		}
		if !errors.Is(got.FirstErr, boom) {
			t.Errorf("FirstErr does not wrap the cause: %v", got.FirstErr)
		}
	})

	t.Run("insert fails", func(t *testing.T) {
		t.Parallel()
		store := newMemStore()
		store.insertErr = boom

		got := NewUpserter(store, time.Second).UpsertBatch(context.Background(), models.CollectionChart, "chart",
			[]models.NormalizedRecord{rec("a", t0)})

		if got.Failed != 1 {
			t.Errorf("result = %+v, want 1 failed", got)
		}
		if models.ClassifyError(got.FirstErr) != models.KindStorage {
			t.Errorf("FirstErr kind = %q", models.ClassifyError(got.FirstErr))
		}
	})
}

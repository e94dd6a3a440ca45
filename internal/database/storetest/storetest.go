// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package storetest is a behavioral suite every database.Backend must pass.
// It expects an empty store and runs its steps in order against it.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/models"
)

var base = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

// Run exercises dedup, retention and history against store.
func Run(t *testing.T, store database.Backend) {
	t.Helper()
	ctx := context.Background()

	t.Run("insert and exists", func(t *testing.T) { insertAndExists(ctx, t, store) })
	t.Run("retention", func(t *testing.T) { retention(ctx, t, store) })
	t.Run("history", func(t *testing.T) { history(ctx, t, store) })
}

func newsRecord(i int, published time.Time) models.NormalizedRecord {
	key := fmt.Sprintf("https://news.example.com/story-%d", i)
	return models.NormalizedRecord{
		UniquenessKey: key,
		Title:         fmt.Sprintf("Story %d", i),
		URL:           key,
		PublishedAt:   published,
		Fields:        map[string]any{"source_name": "Saving Country Music"},
	}
}

func insertAndExists(ctx context.Context, t *testing.T, store database.Backend) {
	rec := models.NormalizedRecord{
		UniquenessKey: "dQw4w9WgXcQ",
		Title:         "Tennessee Whiskey (Live)",
		URL:           "https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		PublishedAt:   base,
	}

	exists, err := store.ExistsByKey(ctx, models.CollectionVideos, rec.UniquenessKey)
	if err != nil || exists {
		t.Fatalf("ExistsByKey() before insert = %v, %v", exists, err)
	}
	if err := store.Insert(ctx, models.CollectionVideos, models.SourceVideos, rec); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	exists, err = store.ExistsByKey(ctx, models.CollectionVideos, rec.UniquenessKey)
	if err != nil || !exists {
		t.Fatalf("ExistsByKey() after insert = %v, %v", exists, err)
	}

	err = store.Insert(ctx, models.CollectionVideos, models.SourceVideos, rec)
	if !errors.Is(err, models.ErrDuplicateKey) {
		t.Fatalf("duplicate Insert() error = %v, want ErrDuplicateKey", err)
	}

	entities, err := store.ListEntities(ctx, models.CollectionVideos, 10)
	if err != nil {
		t.Fatalf("ListEntities() error = %v", err)
	}
	if len(entities) != 1 || entities[0].Title != rec.Title || !entities[0].PublishedAt.Equal(base) {
		t.Errorf("ListEntities() = %+v", entities)
	}
}

func retention(ctx context.Context, t *testing.T, store database.Backend) {
	for i := 0; i < 5; i++ {
		if err := store.Insert(ctx, models.CollectionNews, models.SourceNews,
			newsRecord(i, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("Insert(%d) error = %v", i, err)
		}
	}
	if err := store.Insert(ctx, models.CollectionNews, models.SourceNews, newsRecord(99, time.Time{})); err != nil {
		t.Fatalf("Insert(undated) error = %v", err)
	}

	deleted, err := store.DeleteOutsideNewest(ctx, models.CollectionNews, 3, models.OrderPublishedAt)
	if err != nil {
		t.Fatalf("DeleteOutsideNewest() error = %v", err)
	}
	if deleted != 3 {
		t.Errorf("deleted = %d, want 3", deleted)
	}

	n, err := store.CountEntities(ctx, models.CollectionNews)
	if err != nil {
		t.Fatalf("CountEntities() error = %v", err)
	}
	if n != 3 {
		t.Errorf("CountEntities() = %d, want 3", n)
	}

	kept, err := store.ListEntities(ctx, models.CollectionNews, 10)
	if err != nil {
		t.Fatalf("ListEntities() error = %v", err)
	}
	for i, want := range []int{4, 3, 2} {
		if i >= len(kept) {
			break
		}
		if kept[i].UniquenessKey != newsRecord(want, time.Time{}).UniquenessKey {
			t.Errorf("kept[%d] = %s, want story-%d", i, kept[i].UniquenessKey, want)
		}
	}
}

func history(ctx context.Context, t *testing.T, store database.Backend) {
	attempts := []models.SyncAttempt{
		{ID: "h1", SourceID: models.SourceChart, TriggeredBy: models.TriggerAutomated,
			StartedAt: base, FinishedAt: base.Add(time.Second), Outcome: models.OutcomeSuccess,
			RecordsFetched: 100, RecordsInserted: 100, Message: "Synced chart"},
		{ID: "h2", SourceID: models.SourceChart, TriggeredBy: models.TriggerManual,
			StartedAt: base.Add(time.Hour), FinishedAt: base.Add(time.Hour + time.Second), Outcome: models.OutcomeError,
			Message: "Chart sync failed", ErrorDetail: "apify: status 500"},
	}
	for i := range attempts {
		if err := store.UpsertHistory(ctx, &attempts[i]); err != nil {
			t.Fatalf("UpsertHistory(%s) error = %v", attempts[i].ID, err)
		}
	}

	latest, err := store.LatestHistory(ctx)
	if err != nil {
		t.Fatalf("LatestHistory() error = %v", err)
	}
	if len(latest) != 1 || latest[0].ID != "h2" || latest[0].Outcome != models.OutcomeError {
		t.Fatalf("LatestHistory() = %+v, want only h2", latest)
	}
	if latest[0].ErrorDetail != "apify: status 500" || latest[0].TriggeredBy != models.TriggerManual {
		t.Errorf("latest = %+v", latest[0])
	}

	log, err := store.AttemptLog(ctx, models.SourceChart, 10)
	if err != nil {
		t.Fatalf("AttemptLog() error = %v", err)
	}
	if len(log) != 2 || log[0].ID != "h2" || log[1].ID != "h1" {
		t.Fatalf("AttemptLog() = %+v, want h2, h1", log)
	}
	if log[1].RecordsInserted != 100 {
		t.Errorf("h1 RecordsInserted = %d, want 100", log[1].RecordsInserted)
	}
}

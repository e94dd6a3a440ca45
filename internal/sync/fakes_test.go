// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"fmt"
	"sort"
	gosync "sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sources"
)

// memStore is an in-memory Store with failure injection.
type memStore struct {
	mu     gosync.Mutex
	rows   map[models.Collection]map[string]memRow
	seq    int
	latest map[string]models.SyncAttempt
	log    []models.SyncAttempt

	existsErr  error
	insertErr  error
	deleteErr  error
	historyErr error
	// raceKeys are reported absent by ExistsByKey but rejected by Insert, as
	// if a concurrent attempt inserted them in between.
	raceKeys map[string]bool
}

type memRow struct {
	rec      models.NormalizedRecord
	sourceID string
	seq      int
}

func newMemStore() *memStore {
	return &memStore{
		rows:   make(map[models.Collection]map[string]memRow),
		latest: make(map[string]models.SyncAttempt),
	}
}

func (s *memStore) seed(c models.Collection, recs ...models.NormalizedRecord) {
	for _, r := range recs {
		if err := s.Insert(context.Background(), c, "seed", r); err != nil {
			panic(err)
		}
	}
}

func (s *memStore) ExistsByKey(ctx context.Context, c models.Collection, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s.existsErr != nil {
		return false, s.existsErr
	}
	if s.raceKeys[key] {
		return false, nil
	}
	_, ok := s.rows[c][key]
	return ok, nil
}

func (s *memStore) Insert(ctx context.Context, c models.Collection, sourceID string, rec models.NormalizedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.insertErr != nil {
		return s.insertErr
	}
	if s.rows[c] == nil {
		s.rows[c] = make(map[string]memRow)
	}
	if _, ok := s.rows[c][rec.UniquenessKey]; ok || s.raceKeys[rec.UniquenessKey] {
		return fmt.Errorf("insert %s: %w", rec.UniquenessKey, models.ErrDuplicateKey)
	}
	s.seq++
	s.rows[c][rec.UniquenessKey] = memRow{rec: rec, sourceID: sourceID, seq: s.seq}
	return nil
}

func (s *memStore) DeleteOutsideNewest(ctx context.Context, c models.Collection, keep int, orderBy string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s.deleteErr != nil {
		return 0, s.deleteErr
	}
	rows := make([]memRow, 0, len(s.rows[c]))
	for _, r := range s.rows[c] {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool {
		if orderBy == models.OrderCreatedAt {
			return rows[i].seq > rows[j].seq
		}
		ti, tj := rows[i].rec.PublishedAt, rows[j].rec.PublishedAt
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return rows[i].rec.UniquenessKey > rows[j].rec.UniquenessKey
	})
	var deleted int64
	for i := keep; i < len(rows); i++ {
		delete(s.rows[c], rows[i].rec.UniquenessKey)
		deleted++
	}
	return deleted, nil
}

func (s *memStore) UpsertHistory(ctx context.Context, a *models.SyncAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.historyErr != nil {
		return s.historyErr
	}
	s.latest[a.SourceID] = *a
	s.log = append(s.log, *a)
	return nil
}

func (s *memStore) keys(c models.Collection) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.rows[c]))
	for k := range s.rows[c] {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (s *memStore) attempts() []models.SyncAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.SyncAttempt(nil), s.log...)
}

// stubAdapter returns a fixed batch or error and counts calls.
type stubAdapter struct {
	mu      gosync.Mutex
	name    string
	records []models.NormalizedRecord
	err     error
	calls   int
	params  sources.Params
	// onFetch runs inside Fetch before returning.
	onFetch func()
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Fetch(ctx context.Context, params sources.Params) (*sources.FetchResult, error) {
	a.mu.Lock()
	a.calls++
	a.params = params
	a.mu.Unlock()
	if a.onFetch != nil {
		a.onFetch()
	}
	if a.err != nil {
		return nil, a.err
	}
	return &sources.FetchResult{
		Records: append([]models.NormalizedRecord(nil), a.records...),
		Meta:    models.ProviderMeta{Provider: a.name, TotalAvailable: len(a.records), KeysTried: 1},
	}, nil
}

func (a *stubAdapter) callCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.calls
}

func rec(key string, published time.Time) models.NormalizedRecord {
	return models.NormalizedRecord{UniquenessKey: key, Title: "title " + key, PublishedAt: published}
}

func chicago(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}
	return loc
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

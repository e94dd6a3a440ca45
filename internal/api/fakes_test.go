// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	gosync "sync"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twangwire/internal/cache"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sources"
	syncpkg "github.com/tomtom215/twangwire/internal/sync"
)

// wednesday 2026-03-04 06:00 CST: news (06-22 window) is due, chart (Mon/Thu) is not.
var wednesday6am = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

// fakeStore is an in-memory store serving both the orchestrator and the read
// endpoints.
type fakeStore struct {
	mu      gosync.Mutex
	rows    map[models.Collection]map[string]models.StoredEntity
	latest  map[string]models.SyncAttempt
	log     []models.SyncAttempt
	pingErr error
	readErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rows:   make(map[models.Collection]map[string]models.StoredEntity),
		latest: make(map[string]models.SyncAttempt),
	}
}

func (s *fakeStore) ExistsByKey(ctx context.Context, c models.Collection, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rows[c][key]
	return ok, nil
}

func (s *fakeStore) Insert(ctx context.Context, c models.Collection, sourceID string, rec models.NormalizedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.rows[c] == nil {
		s.rows[c] = make(map[string]models.StoredEntity)
	}
	if _, ok := s.rows[c][rec.UniquenessKey]; ok {
		return models.ErrDuplicateKey
	}
	s.rows[c][rec.UniquenessKey] = models.StoredEntity{
		Collection:    c,
		UniquenessKey: rec.UniquenessKey,
		SourceID:      sourceID,
		Title:         rec.Title,
		URL:           rec.URL,
		PublishedAt:   rec.PublishedAt,
		CreatedAt:     wednesday6am,
	}
	return nil
}

func (s *fakeStore) DeleteOutsideNewest(ctx context.Context, c models.Collection, keep int, orderBy string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.sortedLocked(c)
	if keep <= 0 || len(items) <= keep {
		return 0, nil
	}
	for _, e := range items[keep:] {
		delete(s.rows[c], e.UniquenessKey)
	}
	return int64(len(items) - keep), nil
}

func (s *fakeStore) UpsertHistory(ctx context.Context, a *models.SyncAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest[a.SourceID] = *a
	s.log = append(s.log, *a)
	return nil
}

func (s *fakeStore) LatestHistory(ctx context.Context) ([]models.SyncAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	out := make([]models.SyncAttempt, 0, len(s.latest))
	for _, a := range s.latest {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceID < out[j].SourceID })
	return out, nil
}

func (s *fakeStore) AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	var out []models.SyncAttempt
	for i := len(s.log) - 1; i >= 0; i-- {
		if s.log[i].SourceID == sourceID {
			out = append(out, s.log[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ListEntities(ctx context.Context, c models.Collection, limit int) ([]models.StoredEntity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readErr != nil {
		return nil, s.readErr
	}
	items := s.sortedLocked(c)
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *fakeStore) CountEntities(ctx context.Context, c models.Collection) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.rows[c])), nil
}

func (s *fakeStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pingErr
}

func (s *fakeStore) setPingErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pingErr = err
}

func (s *fakeStore) setReadErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

func (s *fakeStore) attemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}

func (s *fakeStore) latestFor(sourceID string) models.SyncAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest[sourceID]
}

func (s *fakeStore) sortedLocked(c models.Collection) []models.StoredEntity {
	items := make([]models.StoredEntity, 0, len(s.rows[c]))
	for _, e := range s.rows[c] {
		items = append(items, e)
	}
	sort.Slice(items, func(i, j int) bool {
		if !items[i].PublishedAt.Equal(items[j].PublishedAt) {
			return items[i].PublishedAt.After(items[j].PublishedAt)
		}
		return items[i].UniquenessKey > items[j].UniquenessKey
	})
	return items
}

// stubAdapter returns a fixed batch or error.
type stubAdapter struct {
	mu      gosync.Mutex
	name    string
	records []models.NormalizedRecord
	err     error
	params  sources.Params
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) lastParams() sources.Params {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.params
}

func (a *stubAdapter) Fetch(ctx context.Context, params sources.Params) (*sources.FetchResult, error) {
	a.mu.Lock()
	a.params = params
	err := a.err
	a.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &sources.FetchResult{
		Records: append([]models.NormalizedRecord(nil), a.records...),
		Meta:    models.ProviderMeta{Provider: a.name, KeysTried: 1},
	}, nil
}

func story(i int) models.NormalizedRecord {
	url := "https://news.example.com/story-" + string(rune('a'+i))
	return models.NormalizedRecord{
		UniquenessKey: url,
		Title:         "Story " + string(rune('A'+i)),
		URL:           url,
		PublishedAt:   wednesday6am.Add(-time.Duration(i) * time.Hour),
	}
}

// testEnv bundles a router over a real orchestrator with fake collaborators.
type testEnv struct {
	store   *fakeStore
	news    *stubAdapter
	chart   *stubAdapter
	api     *Handler
	handler http.Handler
}

type envOption func(*envConfig)

type envConfig struct {
	token    string
	mw       *ChiMiddlewareConfig
	cacheTTL time.Duration
}

func withToken(token string) envOption {
	return func(c *envConfig) { c.token = token }
}

func withCache(ttl time.Duration) envOption {
	return func(c *envConfig) { c.cacheTTL = ttl }
}

func withRateLimit(requests int) envOption {
	return func(c *envConfig) {
		c.mw.RateLimitRequests = requests
		c.mw.RateLimitDisabled = false
	}
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	cfg := &envConfig{mw: DefaultChiMiddlewareConfig()}
	cfg.mw.RateLimitDisabled = true
	for _, opt := range opts {
		opt(cfg)
	}

	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	env := &testEnv{
		store: newFakeStore(),
		news:  &stubAdapter{name: "gnews", records: []models.NormalizedRecord{story(0), story(1), story(2)}},
		chart: &stubAdapter{name: "apify"},
	}

	reg := syncpkg.NewRegistry()
	mustRegister(t, reg, syncpkg.Source{
		Policy: models.SyncPolicy{
			SourceID: models.SourceNews, Cadence: models.CadenceHourlyWindow,
			WindowStart: 6, WindowEnd: 22, MaxRecords: 50, Location: loc,
		},
		Adapter:    env.news,
		Collection: models.CollectionNews,
	})
	mustRegister(t, reg, syncpkg.Source{
		Policy: models.SyncPolicy{
			SourceID: models.SourceChart, Cadence: models.CadenceTwiceWeekly,
			Days: []time.Weekday{time.Monday, time.Thursday}, TargetHour: 6, MaxRecords: 100, Location: loc,
		},
		Adapter:    env.chart,
		Collection: models.CollectionChart,
	})

	orch := syncpkg.NewOrchestrator(reg, env.store, syncpkg.Options{
		FetchTimeout: time.Second,
		StoreTimeout: time.Second,
		Clock:        func() time.Time { return wednesday6am },
	})

	h := NewHandler(orch, env.store)
	h.now = func() time.Time { return wednesday6am }
	if cfg.cacheTTL > 0 {
		c := cache.New(cfg.cacheTTL)
		t.Cleanup(c.Close)
		h.SetCache(c)
	}
	env.api = h
	env.handler = NewRouter(h, NewChiMiddleware(cfg.mw), cfg.token).SetupChi()
	return env
}

func mustRegister(t *testing.T, reg *syncpkg.Registry, src syncpkg.Source) {
	t.Helper()
	if err := reg.Register(src); err != nil {
		t.Fatalf("Register(%s) error = %v", src.Policy.SourceID, err)
	}
}

// do sends a request through the full router.
func (e *testEnv) do(t *testing.T, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// envelope mirrors models.APIResponse with a raw data payload.
type envelope struct {
	Status   string           `json:"status"`
	Data     json.RawMessage  `json:"data"`
	Metadata models.Metadata  `json:"metadata"`
	Error    *models.APIError `json:"error"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %T: %v; body=%s", v, err, rec.Body.String())
	}
	return v
}

// decodeData decodes the envelope and its data payload into v.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, v any) envelope {
	t.Helper()
	body := decode[envelope](t, rec)
	if err := json.Unmarshal(body.Data, v); err != nil {
		t.Fatalf("decode data into %T: %v; body=%s", v, err, rec.Body.String())
	}
	return body
}

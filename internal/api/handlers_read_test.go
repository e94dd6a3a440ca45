// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

func TestHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	env.do(t, http.MethodPost, "/api/v1/sync/news", "")
	env.do(t, http.MethodPost, "/api/v1/sync/news", "")
	env.do(t, http.MethodPost, "/api/v1/sync/chart", "")

	rec := env.do(t, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var latest []models.SyncAttempt
	decodeData(t, rec, &latest)
	if len(latest) != 2 || latest[0].SourceID != models.SourceChart || latest[1].SourceID != models.SourceNews {
		t.Errorf("latest = %+v, want chart and news", latest)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/history/news?limit=1", "")
	var log []models.SyncAttempt
	decodeData(t, rec, &log)
	if len(log) != 1 || log[0].RecordsInserted != 0 || log[0].RecordsSkipped != 3 {
		t.Errorf("log = %+v, want the second (no-op) news run", log)
	}
}

func TestHistoryEmptyIsArray(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/history/videos", "")
	body := decode[envelope](t, rec)
	if string(body.Data) != "[]" {
		t.Errorf("data = %s, want []", body.Data)
	}
}

func TestReadEndpointValidation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		target string
	}{
		{name: "history non-integer limit", target: "/api/v1/history/news?limit=ten"},
		{name: "history limit too large", target: "/api/v1/history/news?limit=1000"},
		{name: "history bad source", target: "/api/v1/history/news-feed"},
		{name: "content unknown collection", target: "/api/v1/content/podcasts"},
		{name: "content negative limit", target: "/api/v1/content/videos?limit=-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := newTestEnv(t)

			rec := env.do(t, http.MethodGet, tt.target, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400; body=%s", rec.Code, rec.Body.String())
			}
			body := decode[envelope](t, rec)
			if body.Status != "error" || body.Error == nil || body.Error.Code != "VALIDATION_ERROR" {
				t.Errorf("body = %s, want VALIDATION_ERROR", rec.Body.String())
			}
		})
	}
}

func TestContent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.do(t, http.MethodPost, "/api/v1/sync/news", "")

	rec := env.do(t, http.MethodGet, "/api/v1/content/news_articles?limit=2", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body=%s", rec.Code, rec.Body.String())
	}
	var page ContentPage
	body := decodeData(t, rec, &page)
	if page.Total != 3 || len(page.Items) != 2 {
		t.Fatalf("page total=%d items=%d, want 3 and 2", page.Total, len(page.Items))
	}
	if page.Items[0].UniquenessKey != story(0).UniquenessKey {
		t.Errorf("items[0] = %s, want newest story", page.Items[0].UniquenessKey)
	}
	if body.Metadata.Count != 2 {
		t.Errorf("metadata.count = %d, want 2", body.Metadata.Count)
	}
}

func TestReadStoreError(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	env.store.setReadErr(errors.New("connection reset"))

	for _, target := range []string{"/api/v1/content/videos", "/api/v1/history", "/api/v1/history/news"} {
		rec := env.do(t, http.MethodGet, target, "")
		if rec.Code != http.StatusInternalServerError {
			t.Errorf("%s status = %d, want 500", target, rec.Code)
			continue
		}
		body := decode[envelope](t, rec)
		if body.Error == nil || body.Error.Code != "DATABASE_ERROR" {
			t.Errorf("%s error = %+v", target, body.Error)
		}
	}
}

func TestHealth(t *testing.T) {
	t.Parallel()

	t.Run("live", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		if rec := env.do(t, http.MethodGet, "/api/v1/health/live", ""); rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		rec := env.do(t, http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
		if got := decode[envelope](t, rec).Status; got != "ready" {
			t.Errorf("status field = %q, want ready", got)
		}
	})

	t.Run("store down", func(t *testing.T) {
		t.Parallel()
		env := newTestEnv(t)
		env.store.setPingErr(errors.New("dial tcp: connection refused"))
		rec := env.do(t, http.MethodGet, "/api/v1/health/ready", "")
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("status = %d, want 503", rec.Code)
		}
	})
}

func TestRouterFallbacks(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	if rec := env.do(t, http.MethodGet, "/api/v1/playlists", ""); rec.Code != http.StatusNotFound {
		t.Errorf("unknown route status = %d, want 404", rec.Code)
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/sync/news", ""); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET trigger status = %d, want 405", rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/metrics", "")
	if rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d", rec.Code)
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header missing")
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, withRateLimit(2))

	for i := 0; i < 2; i++ {
		if rec := env.do(t, http.MethodGet, "/api/v1/history", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, rec.Code)
		}
	}
	rec := env.do(t, http.MethodGet, "/api/v1/history", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if body := decode[envelope](t, rec); body.Error == nil || body.Error.Code != "RATE_LIMIT_EXCEEDED" {
		t.Errorf("body = %s", rec.Body.String())
	}
}

func TestReadCacheClearedBySync(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, withCache(time.Hour))
	env.do(t, http.MethodPost, "/api/v1/sync/news", "")

	total := func() int64 {
		t.Helper()
		var page ContentPage
		decodeData(t, env.do(t, http.MethodGet, "/api/v1/content/news_articles", ""), &page)
		return page.Total
	}
	if got := total(); got != 3 {
		t.Fatalf("total = %d, want 3", got)
	}

	// A write that bypasses the API is invisible until the next trigger.
	if err := env.store.Insert(context.Background(), models.CollectionNews, models.SourceNews, story(3)); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}
	if got := total(); got != 3 {
		t.Errorf("total = %d, want cached 3", got)
	}
	if stats := env.api.CacheStats(); stats.Hits != 1 {
		t.Errorf("cache hits = %d, want 1", stats.Hits)
	}

	// Even a skipped attempt clears the cache.
	env.do(t, http.MethodPost, "/api/v1/sync/chart", `{"automated":true}`)
	if got := total(); got != 4 {
		t.Errorf("total after trigger = %d, want 4", got)
	}
}

func TestReadCacheServesHistory(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t, withCache(time.Hour))
	env.do(t, http.MethodPost, "/api/v1/sync/news", "")

	env.do(t, http.MethodGet, "/api/v1/history", "")
	env.do(t, http.MethodGet, "/api/v1/history/news?limit=5", "")
	env.store.setReadErr(errors.New("connection reset"))

	for _, target := range []string{"/api/v1/history", "/api/v1/history/news?limit=5"} {
		if rec := env.do(t, http.MethodGet, target, ""); rec.Code != http.StatusOK {
			t.Errorf("%s status = %d, want cached 200", target, rec.Code)
		}
	}
	if rec := env.do(t, http.MethodGet, "/api/v1/history/news?limit=6", ""); rec.Code != http.StatusInternalServerError {
		t.Errorf("uncached limit status = %d, want 500", rec.Code)
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import (
	"context"
	"time"

	"github.com/tomtom215/twangwire/internal/cache"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
	syncpkg "github.com/tomtom215/twangwire/internal/sync"
)

// SyncRunner runs sync attempts. Implemented by *sync.Orchestrator.
type SyncRunner interface {
	Run(ctx context.Context, req syncpkg.Request) *syncpkg.Result
	RunAll(ctx context.Context, automated bool, params map[string]string) []*syncpkg.Result
	Registry() *syncpkg.Registry
}

// ContentReader serves the read endpoints. Every database backend implements it.
type ContentReader interface {
	LatestHistory(ctx context.Context) ([]models.SyncAttempt, error)
	AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error)
	ListEntities(ctx context.Context, collection models.Collection, limit int) ([]models.StoredEntity, error)
	CountEntities(ctx context.Context, collection models.Collection) (int64, error)
	Ping(ctx context.Context) error
}

// Handler contains dependencies for API handlers
//
// Handler methods are split across multiple files:
//   - handlers.go: Handler struct and constructor (this file)
//   - handlers_helpers.go: response and parameter helpers
//   - handlers_sync.go: sync triggers and schedule preview
//   - handlers_history.go: run history
//   - handlers_content.go: stored content
//   - handlers_health.go: liveness and readiness checks
type Handler struct {
	sync      SyncRunner
	store     ContentReader
	cache     *cache.Cache
	startTime time.Time
	now       func() time.Time
}

// NewHandler creates a new API handler.
func NewHandler(runner SyncRunner, store ContentReader) *Handler {
	return &Handler{
		sync:      runner,
		store:     store,
		startTime: time.Now(),
		now:       time.Now,
	}
}

// SetCache enables response caching of the content and history endpoints.
// A nil cache disables it.
func (h *Handler) SetCache(c *cache.Cache) {
	h.cache = c
}

// ClearCache drops every cached read response. Sync triggers call it once
// their attempts finish, so readers see new records on the next request.
func (h *Handler) ClearCache() {
	if h.cache != nil {
		h.cache.Clear()
		logging.Debug().Msg("Response cache cleared")
	}
}

// CacheStats returns response cache counters, zero when caching is disabled.
func (h *Handler) CacheStats() cache.Stats {
	if h.cache != nil {
		return h.cache.Stats()
	}
	return cache.Stats{}
}

func (h *Handler) cached(key string) (any, bool) {
	if h.cache == nil {
		return nil, false
	}
	return h.cache.Get(key)
}

func (h *Handler) remember(key string, value any) {
	if h.cache != nil {
		h.cache.Set(key, value)
	}
}

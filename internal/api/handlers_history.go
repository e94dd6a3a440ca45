// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/twangwire/internal/cache"
	"github.com/tomtom215/twangwire/internal/models"
)

// latestHistoryKey caches the latest-per-source history.
const latestHistoryKey = "history:latest"

// historyQuery holds the validated parameters of the attempt log endpoint.
type historyQuery struct {
	SourceID string `json:"source" validate:"required,min=1,max=64,alphanum"`
	Limit    int    `json:"limit" validate:"min=0,max=500"`
}

// History returns the latest attempt of every source that ever ran.
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	if v, found := h.cached(latestHistoryKey); found {
		if attempts, ok := v.([]models.SyncAttempt); ok {
			respondData(w, attempts, len(attempts), started)
			return
		}
	}

	attempts, err := h.store.LatestHistory(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read sync history", err)
		return
	}
	if attempts == nil {
		attempts = []models.SyncAttempt{}
	}
	h.remember(latestHistoryKey, attempts)
	respondData(w, attempts, len(attempts), started)
}

// SourceHistory returns the attempt log of one source, newest first.
func (h *Handler) SourceHistory(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	limit, ok := getIntParam(r, "limit", 0)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
		return
	}
	q := historyQuery{SourceID: chi.URLParam(r, "source"), Limit: limit}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	cacheKey := cache.GenerateKey("history", q)
	if v, found := h.cached(cacheKey); found {
		if attempts, ok := v.([]models.SyncAttempt); ok {
			respondData(w, attempts, len(attempts), started)
			return
		}
	}

	attempts, err := h.store.AttemptLog(r.Context(), q.SourceID, q.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to read sync history", err)
		return
	}
	if attempts == nil {
		attempts = []models.SyncAttempt{}
	}
	h.remember(cacheKey, attempts)
	respondData(w, attempts, len(attempts), started)
}

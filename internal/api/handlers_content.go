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

// contentQuery holds the validated parameters of the content endpoint.
type contentQuery struct {
	Collection string `json:"collection" validate:"required,collection"`
	Limit      int    `json:"limit" validate:"min=0,max=500"`
}

// ContentPage is the body of the content endpoint.
type ContentPage struct {
	Collection models.Collection     `json:"collection"`
	Total      int64                 `json:"total"`
	Items      []models.StoredEntity `json:"items"`
}

// Content returns the newest stored entities of a collection, the way the
// site's pages render them.
func (h *Handler) Content(w http.ResponseWriter, r *http.Request) {
	started := time.Now()

	limit, ok := getIntParam(r, "limit", 0)
	if !ok {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "limit must be an integer", nil)
		return
	}
	q := contentQuery{Collection: chi.URLParam(r, "collection"), Limit: limit}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}
	collection := models.Collection(q.Collection)

	cacheKey := cache.GenerateKey("content", q)
	if v, found := h.cached(cacheKey); found {
		if page, ok := v.(ContentPage); ok {
			respondData(w, page, len(page.Items), started)
			return
		}
	}

	items, err := h.store.ListEntities(r.Context(), collection, q.Limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to list content", err)
		return
	}
	total, err := h.store.CountEntities(r.Context(), collection)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to count content", err)
		return
	}
	if items == nil {
		items = []models.StoredEntity{}
	}

	page := ContentPage{Collection: collection, Total: total, Items: items}
	h.remember(cacheKey, page)
	respondData(w, page, len(items), started)
}

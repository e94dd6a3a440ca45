// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/schedule"
	syncpkg "github.com/tomtom215/twangwire/internal/sync"
)

// SyncAllResponse is the body of a trigger that ran every source.
type SyncAllResponse struct {
	// Success is false when at least one source failed.
	Success bool                  `json:"success"`
	Message string                `json:"message"`
	Results []models.SyncResponse `json:"results"`
}

// SchedulePreview is the body of the schedule preview endpoint.
type SchedulePreview struct {
	SourceID string            `json:"sourceId"`
	Policy   string            `json:"policy"`
	At       time.Time         `json:"at"`
	Decision schedule.Decision `json:"decision"`
}

// SyncSource triggers one attempt for the source named in the path.
//
// The optional body carries {automated, params}; ?automated=true is accepted
// for schedulers that cannot send a body. A sourceId in the body must match
// the path.
func (h *Handler) SyncSource(w http.ResponseWriter, r *http.Request) {
	source := chi.URLParam(r, "source")

	req, err := decodeSyncRequest(w, r)
	if err != nil {
		h.respondBadTrigger(w, source, err)
		return
	}
	if req.SourceID != "" && req.SourceID != source {
		h.respondBadTrigger(w, source, ErrSourceMismatch)
		return
	}
	req.SourceID = source
	req.Automated = req.Automated || getBoolParam(r, "automated")

	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	h.runOne(w, r, req)
}

// SyncTrigger implements the body-addressed invocation contract
// {automated, sourceId, params}. Without a sourceId every registered source
// runs concurrently.
func (h *Handler) SyncTrigger(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSyncRequest(w, r)
	if err != nil {
		h.respondBadTrigger(w, "", err)
		return
	}
	req.Automated = req.Automated || getBoolParam(r, "automated")

	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, apiErr)
		return
	}

	if req.SourceID != "" {
		h.runOne(w, r, req)
		return
	}

	results := h.sync.RunAll(r.Context(), req.Automated, req.StringParams())
	h.ClearCache()
	writeJSON(w, http.StatusOK, summarize(results))
}

func (h *Handler) runOne(w http.ResponseWriter, r *http.Request, req models.SyncRequest) {
	result := h.sync.Run(r.Context(), syncpkg.Request{
		Automated: req.Automated,
		SourceID:  req.SourceID,
		Params:    req.StringParams(),
	})
	h.ClearCache()

	status := http.StatusOK
	if errors.Is(result.Err, models.ErrUnknownSource) {
		status = http.StatusBadRequest
		logging.Ctx(r.Context()).Warn().
			Str("source_id", sanitizeLogValue(req.SourceID)).
			Msg("Sync trigger for unknown source")
	}
	writeJSON(w, status, result.Response())
}

// respondBadTrigger answers a malformed trigger in the trigger's own shape.
func (h *Handler) respondBadTrigger(w http.ResponseWriter, source string, err error) {
	status := http.StatusBadRequest
	if errors.Is(err, ErrRequestTooLarge) {
		status = http.StatusRequestEntityTooLarge
	}
	writeJSON(w, status, models.SyncResponse{
		Success:  false,
		SourceID: source,
		Message:  "Invalid sync request",
		Error:    err.Error(),
	})
}

func summarize(results []*syncpkg.Result) SyncAllResponse {
	out := SyncAllResponse{
		Success: true,
		Results: make([]models.SyncResponse, 0, len(results)),
	}
	var synced, skipped, failed int
	for _, res := range results {
		switch {
		case res.Skipped():
			skipped++
		case res.Success():
			synced++
		default:
			failed++
			out.Success = false
		}
		out.Results = append(out.Results, res.Response())
	}
	out.Message = fmt.Sprintf("Ran %d sources: %d synced, %d skipped, %d failed",
		len(results), synced, skipped, failed)
	return out
}

// SchedulePreview evaluates a source's policy at ?at= (RFC3339, default now)
// without triggering anything.
func (h *Handler) SchedulePreview(w http.ResponseWriter, r *http.Request) {
	started := time.Now()
	source := chi.URLParam(r, "source")

	src, err := h.sync.Registry().Get(source)
	if err != nil {
		respondError(w, http.StatusNotFound, "NOT_FOUND", fmt.Sprintf("Unknown source %q", sanitizeLogValue(source)), nil)
		return
	}

	at := h.now()
	if raw := r.URL.Query().Get("at"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "at must be a valid date/time in RFC3339 format", nil)
			return
		}
		at = parsed
	}

	respondData(w, SchedulePreview{
		SourceID: source,
		Policy:   src.Policy.String(),
		At:       at.UTC(),
		Decision: schedule.Evaluate(src.Policy, at),
	}, 0, started)
}

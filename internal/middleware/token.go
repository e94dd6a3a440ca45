// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
)

// TriggerTokenHeader is the header external schedulers send the shared secret in.
const TriggerTokenHeader = "X-Sync-Token"

// RequireTriggerToken rejects requests that do not present token. An empty
// token disables the check.
func RequireTriggerToken(token string) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		if token == "" {
			return next
		}
		return func(w http.ResponseWriter, r *http.Request) {
			presented := presentedToken(r)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logging.Ctx(r.Context()).Warn().
					Str("path", r.URL.Path).
					Bool("token_present", presented != "").
					Msg("Sync trigger rejected: invalid token")
				writeUnauthorized(w)
				return
			}
			next(w, r)
		}
	}
}

func presentedToken(r *http.Request) string {
	if t := r.Header.Get(TriggerTokenHeader); t != "" {
		return t
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

func writeUnauthorized(w http.ResponseWriter) {
	body, err := json.Marshal(&models.APIResponse{
		Status:   "error",
		Metadata: models.Metadata{Timestamp: time.Now()},
		Error: &models.APIError{
			Code:    "UNAUTHORIZED",
			Message: "A valid sync token is required",
		},
	})
	if err != nil {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("WWW-Authenticate", `Bearer realm="sync"`)
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write(body)
}

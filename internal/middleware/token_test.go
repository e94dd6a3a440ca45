// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRequireTriggerToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		token      string
		header     string
		value      string
		wantStatus int
	}{
		{name: "disabled", token: "", wantStatus: http.StatusOK},
		{name: "sync token header", token: "s3cret", header: TriggerTokenHeader, value: "s3cret", wantStatus: http.StatusOK},
		{name: "bearer header", token: "s3cret", header: "Authorization", value: "Bearer s3cret", wantStatus: http.StatusOK},
		{name: "lowercase bearer", token: "s3cret", header: "Authorization", value: "bearer s3cret", wantStatus: http.StatusOK},
		{name: "missing", token: "s3cret", wantStatus: http.StatusUnauthorized},
		{name: "wrong", token: "s3cret", header: TriggerTokenHeader, value: "guess", wantStatus: http.StatusUnauthorized},
		{name: "prefix only", token: "s3cret", header: TriggerTokenHeader, value: "s3c", wantStatus: http.StatusUnauthorized},
		{name: "basic auth ignored", token: "s3cret", header: "Authorization", value: "Basic s3cret", wantStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			called := false
			handler := RequireTriggerToken(tt.token)(func(w http.ResponseWriter, r *http.Request) {
				called = true
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync/news", nil)
			if tt.header != "" {
				req.Header.Set(tt.header, tt.value)
			}
			rec := httptest.NewRecorder()
			handler(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if called != (tt.wantStatus == http.StatusOK) {
				t.Errorf("handler called = %v", called)
			}
			if tt.wantStatus == http.StatusUnauthorized && !strings.Contains(rec.Body.String(), "UNAUTHORIZED") {
				t.Errorf("body = %s, want UNAUTHORIZED error", rec.Body.String())
			}
		})
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/models"
)

func testProvider(baseURL string, keys ...string) config.ProviderConfig {
	return config.ProviderConfig{
		BaseURL:              baseURL,
		APIKeys:              keys,
		RequestTimeout:       5 * time.Second,
		RetryAttempts:        1,
		RetryInitialInterval: time.Millisecond,
	}
}

func TestGetJSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantKind   models.ErrorKind
		wantStatus int
		wantMsg    string
	}{
		{name: "success", status: http.StatusOK, body: `{"items":[]}`},
		{
			name:       "youtube quota error",
			status:     http.StatusForbidden,
			body:       `{"error":{"code":403,"message":"The request cannot be completed because you have exceeded your quota."}}`,
			wantKind:   models.KindProvider,
			wantStatus: http.StatusForbidden,
			wantMsg:    "exceeded your quota",
		},
		{
			name:       "gnews errors array",
			status:     http.StatusUnauthorized,
			body:       `{"errors":["You did not provide an API key."]}`,
			wantKind:   models.KindProvider,
			wantStatus: http.StatusUnauthorized,
			wantMsg:    "did not provide an API key",
		},
		{
			name:       "plain text error",
			status:     http.StatusBadGateway,
			body:       "upstream exploded",
			wantKind:   models.KindProvider,
			wantStatus: http.StatusBadGateway,
			wantMsg:    "upstream exploded",
		},
		{
			name:       "empty error body uses status text",
			status:     http.StatusServiceUnavailable,
			wantKind:   models.KindProvider,
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Service Unavailable",
		},
		{name: "invalid json", status: http.StatusOK, body: `{"items":`, wantKind: models.KindFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := newHTTPClient("test", testProvider(srv.URL))
			body, err := c.getJSON(context.Background(), srv.URL+"/x?key=secret")

			if got := models.ClassifyError(err); got != tt.wantKind {
				t.Fatalf("ClassifyError(%v) = %q, want %q", err, got, tt.wantKind)
			}
			if err == nil {
				if string(body) != tt.body {
					t.Errorf("body = %q, want %q", body, tt.body)
				}
				return
			}

			var providerErr *models.ProviderError
			if tt.wantKind == models.KindProvider {
				if !errors.As(err, &providerErr) {
					t.Fatalf("err = %T, want *ProviderError", err)
				}
				if providerErr.Status != tt.wantStatus {
					t.Errorf("status = %d, want %d", providerErr.Status, tt.wantStatus)
				}
				if !strings.Contains(providerErr.Message, tt.wantMsg) {
					t.Errorf("message = %q, want it to contain %q", providerErr.Message, tt.wantMsg)
				}
			}
		})
	}
}

func TestGetJSONNetworkErrorHidesCredential(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	base := srv.URL
	srv.Close()

	c := newHTTPClient("gnews", testProvider(base))
	_, err := c.getJSON(context.Background(), base+"/search?q=country&apikey=super-secret-key")

	var providerErr *models.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("err = %v, want *ProviderError", err)
	}
	if providerErr.Status != 0 {
		t.Errorf("status = %d, want 0", providerErr.Status)
	}
	if strings.Contains(err.Error(), "super-secret-key") {
		t.Errorf("error leaks credential: %v", err)
	}
}

func TestGetJSONRateLimited(t *testing.T) {
	t.Parallel()

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	cfg := testProvider(srv.URL)
	cfg.RateLimit = 0.001
	cfg.RateBurst = 1
	c := newHTTPClient("apify", cfg)

	if _, err := c.getJSON(context.Background(), srv.URL); err != nil {
		t.Fatalf("first request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if _, err := c.getJSON(ctx, srv.URL); err == nil {
		t.Fatal("second request should be held back by the limiter")
	}
	if got := hits.Load(); got != 1 {
		t.Errorf("upstream hits = %d, want 1", got)
	}
}

func TestWithRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   bool
	}{
		{
			name:      "transient then success",
			attempts:  3,
			errs:      []error{&models.ProviderError{Status: 503}, &models.ProviderError{Status: 0}},
			wantCalls: 3,
		},
		{
			name:      "client error is not retried",
			attempts:  3,
			errs:      []error{&models.ProviderError{Status: 401}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "format error is not retried",
			attempts:  3,
			errs:      []error{&models.FormatError{Field: "articles"}},
			wantCalls: 1,
			wantErr:   true,
		},
		{
			name:      "budget exhausted",
			attempts:  2,
			errs:      []error{&models.ProviderError{Status: 429}, &models.ProviderError{Status: 429}, &models.ProviderError{Status: 429}},
			wantCalls: 2,
			wantErr:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			calls := 0
			got, err := withRetry(context.Background(), "test", retryPolicy{attempts: tt.attempts, initialInterval: time.Millisecond},
				func(context.Context) (string, error) {
					calls++
					if calls <= len(tt.errs) {
						return "", tt.errs[calls-1]
					}
					return "done", nil
				})

			if calls != tt.wantCalls {
				t.Errorf("calls = %d, want %d", calls, tt.wantCalls)
			}
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != "done" {
				t.Errorf("result = %q, want done", got)
			}
			if err != nil && models.ClassifyError(err) == models.KindInternal {
				t.Errorf("retry wrapped the error into an unknown type: %v", err)
			}
		})
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// maxErrorBodySize limits the amount of response body read for error reporting
const maxErrorBodySize = 64 * 1024 // 64KB

// maxResponseSize bounds successful response bodies.
const maxResponseSize = 16 << 20

// maxErrorMessageLen bounds the upstream message kept on a ProviderError.
const maxErrorMessageLen = 300

// httpClient performs rate limited JSON GETs against one provider.
type httpClient struct {
	provider string
	baseURL  string
	client   *http.Client
	limiter  *rate.Limiter
}

func newHTTPClient(provider string, cfg config.ProviderConfig) *httpClient {
	c := &httpClient{
		provider: provider,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		client: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
	}
	if cfg.RateLimit > 0 {
		burst := cfg.RateBurst
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}
	return c
}

// buildURL joins path onto the base URL and encodes params.
func (c *httpClient) buildURL(path string, params url.Values) string {
	return c.baseURL + path + "?" + params.Encode()
}

// getJSON executes a GET and returns the raw body of a 2xx JSON response.
//
// A non-2xx status becomes a *models.ProviderError carrying the status and the
// upstream message. Transport failures become a ProviderError with status 0;
// the url.Error wrapper is dropped so the request URL, which carries the
// credential, never reaches logs or API responses.
func (c *httpClient) getJSON(ctx context.Context, reqURL string) ([]byte, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%s rate limiter: %w", c.provider, err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		metrics.RecordProviderRequest(c.provider, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.ProviderError{Provider: c.provider, Message: transportMessage(err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordProviderRequest(c.provider, "error", time.Since(start))
		body := readBodyForError(resp.Body)
		logging.Ctx(ctx).Debug().
			Str("provider", c.provider).
			Int("status", resp.StatusCode).
			Str("url", logging.RedactURL(reqURL)).
			Msg("Provider returned non-success status")
		return nil, &models.ProviderError{
			Provider: c.provider,
			Status:   resp.StatusCode,
			Message:  upstreamMessage(resp.StatusCode, body),
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		metrics.RecordProviderRequest(c.provider, "error", time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &models.ProviderError{Provider: c.provider, Status: resp.StatusCode, Message: "read body: " + err.Error()}
	}

	if !gjson.ValidBytes(body) {
		metrics.RecordProviderRequest(c.provider, "format_error", time.Since(start))
		return nil, &models.FormatError{Provider: c.provider, Field: "$", Reason: "is not valid JSON"}
	}

	metrics.RecordProviderRequest(c.provider, "success", time.Since(start))
	return body, nil
}

// readBodyForError reads the response body for error reporting (max 64KB)
// Returns the body content or a placeholder message if reading fails
func readBodyForError(r io.Reader) []byte {
	limitedReader := io.LimitReader(r, maxErrorBodySize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return []byte("(failed to read response body)")
	}
	return body
}

// upstreamMessage extracts a human readable message from an error body.
// YouTube nests it under error.message, GNews returns errors[], Apify uses
// error.message as well; anything else falls back to the raw text.
func upstreamMessage(status int, body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "errors.0", "message", "error"} {
			if v := gjson.GetBytes(body, path); v.Exists() && v.Type == gjson.String && v.String() != "" {
				return logging.Truncate(v.String(), maxErrorMessageLen)
			}
		}
	}
	text := strings.TrimSpace(string(body))
	if text == "" {
		return http.StatusText(status)
	}
	return logging.Truncate(text, maxErrorMessageLen)
}

// transportMessage describes a transport failure without the request URL.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Op + ": " + urlErr.Err.Error()
	}
	return err.Error()
}

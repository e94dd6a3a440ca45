// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/models"
)

// retryPolicy controls retries of single-credential provider calls.
type retryPolicy struct {
	attempts        int
	initialInterval time.Duration
}

// withRetry runs fn with exponential backoff. Only transient provider errors
// (network failures, 429 and 5xx) are retried; everything else is returned
// on the first occurrence.
func withRetry[T any](ctx context.Context, provider string, p retryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	attempts := p.attempts
	if attempts < 1 {
		attempts = 1
	}

	b := backoff.NewExponentialBackOff()
	if p.initialInterval > 0 {
		b.InitialInterval = p.initialInterval
	}

	try := 0
	op := func() (T, error) {
		try++
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if !isTransient(err) {
			return result, backoff.Permanent(err)
		}
		if try < attempts {
			logging.Ctx(ctx).Warn().
				Str("provider", provider).
				Int("attempt", try).
				Err(err).
				Msg("Transient provider error, retrying")
		}
		return result, err
	}

	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(attempts)),
	)
}

// isTransient reports whether a provider call is worth repeating with the
// same credential.
func isTransient(err error) bool {
	var providerErr *models.ProviderError
	if !errors.As(err, &providerErr) {
		return false
	}
	switch {
	case providerErr.Status == 0:
		return true
	case providerErr.Status == http.StatusTooManyRequests:
		return true
	case providerErr.Status >= 500:
		return true
	default:
		return false
	}
}

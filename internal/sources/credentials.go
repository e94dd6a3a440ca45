// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"errors"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// CredentialPool is an ordered, read-only list of credentials for one provider.
type CredentialPool struct {
	provider string
	keys     []string
}

// NewCredentialPool copies keys into a new pool. Empty keys are skipped.
func NewCredentialPool(provider string, keys []string) *CredentialPool {
	cp := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			cp = append(cp, k)
		}
	}
	return &CredentialPool{provider: provider, keys: cp}
}

// Provider returns the provider name the pool authenticates against.
func (p *CredentialPool) Provider() string {
	return p.provider
}

// Len returns the number of credentials in the pool.
func (p *CredentialPool) Len() int {
	return len(p.keys)
}

// First returns the primary credential.
func (p *CredentialPool) First() (string, bool) {
	if len(p.keys) == 0 {
		return "", false
	}
	return p.keys[0], true
}

// Rotate calls fn with each credential in pool order until one succeeds.
//
// Every call starts again from the first key. A *models.ProviderError moves on
// to the next key; any other error (a FormatError, a canceled context) is
// returned immediately. The int result is the number of keys tried.
func Rotate[T any](ctx context.Context, pool *CredentialPool, fn func(ctx context.Context, key string) (T, error)) (T, int, error) {
	var zero T
	errs := make([]error, 0, pool.Len())

	for i, key := range pool.keys {
		if err := ctx.Err(); err != nil {
			return zero, i, err
		}

		result, err := fn(ctx, key)
		if err == nil {
			if i > 0 {
				logging.Ctx(ctx).Info().
					Str("provider", pool.provider).
					Int("key_index", i).
					Msg("Request succeeded on fallback credential")
			}
			return result, i + 1, nil
		}

		var providerErr *models.ProviderError
		if !errors.As(err, &providerErr) {
			return zero, i + 1, err
		}

		errs = append(errs, err)
		if i < len(pool.keys)-1 {
			metrics.RecordCredentialFailover(pool.provider)
			logging.Ctx(ctx).Warn().
				Str("provider", pool.provider).
				Int("key_index", i).
				Int("status", providerErr.Status).
				Msg("Credential failed, trying next key")
		}
	}

	return zero, len(errs), &models.ExhaustedCredentialsError{
		Provider: pool.provider,
		Attempts: len(errs),
		Errs:     errs,
	}
}

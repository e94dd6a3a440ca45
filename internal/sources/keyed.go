// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/models"
)

// keyedClient issues authenticated GETs against one provider. Each request
// walks the credential pool; each key gets the configured retry budget for
// transient failures before the walk moves on.
type keyedClient struct {
	http  *httpClient
	pool  *CredentialPool
	retry retryPolicy
}

func newKeyedClient(provider string, cfg config.ProviderConfig) *keyedClient {
	return &keyedClient{
		http: newHTTPClient(provider, cfg),
		pool: NewCredentialPool(provider, cfg.APIKeys),
		retry: retryPolicy{
			attempts:        cfg.RetryAttempts,
			initialInterval: cfg.RetryInitialInterval,
		},
	}
}

// get builds the request URL for each key with build and returns the first
// successful body and the number of keys tried.
func (k *keyedClient) get(ctx context.Context, build func(key string) string) ([]byte, int, error) {
	return Rotate(ctx, k.pool, func(ctx context.Context, key string) ([]byte, error) {
		return withRetry(ctx, k.pool.Provider(), k.retry, func(ctx context.Context) ([]byte, error) {
			return k.http.getJSON(ctx, build(key))
		})
	})
}

func formatError(provider, field, reason string) *models.FormatError {
	if field == "" {
		field = "$"
	}
	return &models.FormatError{Provider: provider, Field: field, Reason: reason}
}

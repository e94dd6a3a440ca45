// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package sources implements the source adapters that pull content from external
providers and normalize it into records the sync engine can store.

# Adapters

  - VideosAdapter: YouTube Data API v3 (channel metadata plus recent uploads)
  - ChartAdapter: Apify actor dataset with the weekly country chart
  - NewsAdapter: GNews v4 search

Every adapter implements Adapter and returns a FetchResult carrying the
normalized records and a models.ProviderMeta summary. Records without a
uniqueness key are dropped and counted, never stored.

# Resilience

Credentials live in a CredentialPool. Rotate walks the pool in order on every
call and moves on to the next key after a ProviderError (non-2xx status or a
network failure). A FormatError or a canceled context ends the walk at once.
When every key failed the caller gets an *models.ExhaustedCredentialsError
holding one error per key.

Single-key providers use retry with exponential backoff instead of rotation.
Each adapter may be wrapped by NewBreakerAdapter, a sony/gobreaker circuit
breaker that rejects calls while the provider is known to be down.

Outgoing requests pass through a per-provider golang.org/x/time/rate limiter
and never log raw credentials; see logging.RedactURL.
*/
package sources

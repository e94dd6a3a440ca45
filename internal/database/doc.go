// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package database provides the embedded DuckDB content store.

DB implements every storage capability the sync orchestrator needs:

  - Content collections (videos, chart_entries, news_articles) keyed by a
    provider-derived uniqueness key, with existence checks, inserts that
    report duplicates as models.ErrDuplicateKey, and newest-N retention.
  - Run history: one latest row per source (sync_history) plus an
    append-only attempt log (sync_attempts).
  - Read paths used by the HTTP API: latest history, attempt log, entity
    listing and counts.

The Backend interface describes the same surface for the alternative
PostgreSQL (internal/database/postgres) and MongoDB
(internal/database/mongodb) stores, so cmd/server can pick a driver at
startup.

# Connection Management

The DuckDB connection string carries access mode, thread count and memory
limit:

	path?access_mode=read_write&threads=4&max_memory=1GB

Every query runs under a deadline. Callers that pass a context without one
get the configured query timeout (30s by default).

# Testing

Tests use ":memory:" databases and serialize through a semaphore held for
the whole test, since concurrent DuckDB CGO calls from many parallel tests
can hang under resource pressure.
*/
package database

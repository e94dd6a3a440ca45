// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package metrics provides Prometheus metrics collection and export for observability.

All collectors are registered on the default registry through promauto and are
exposed at the /metrics endpoint in Prometheus text format:

	curl http://localhost:8787/metrics

# Available Metrics

Sync Metrics:
  - sync_attempts_total: Sync attempts by outcome (counter)
    Labels: source, outcome (skipped, success, error)
  - sync_duration_seconds: Wall time of non-skipped attempts (histogram)
    Labels: source
  - sync_records_fetched_total, sync_records_inserted_total (counters)
    Labels: source
  - sync_records_skipped_total: Records not inserted (counter)
    Labels: source, reason (existing, duplicate, failed, dropped)
  - sync_retention_deleted_total: Rows removed by the retention sweep (counter)
    Labels: collection
  - sync_history_record_errors_total: Swallowed history write failures (counter)
    Labels: source
  - sync_last_success_timestamp: Unix time of the last successful attempt (gauge)
    Labels: source

Provider Metrics:
  - provider_requests_total: Upstream requests (counter)
    Labels: provider, result (success, error, format_error)
  - provider_request_duration_seconds: Upstream latency (histogram)
    Labels: provider
  - provider_credential_failovers_total: Rotations to the next key (counter)
    Labels: provider

Circuit Breaker Metrics:
  - circuit_breaker_state: 0=closed, 1=half-open, 2=open (gauge)
  - circuit_breaker_requests_total: Labels name, result
  - circuit_breaker_consecutive_failures (gauge)
  - circuit_breaker_state_transitions_total: Labels name, from_state, to_state

HTTP Metrics:
  - api_requests_total: Labels method, endpoint, status
  - api_request_duration_seconds: Labels method, endpoint
  - api_active_requests (gauge)

Database Metrics:
  - db_query_duration_seconds: Labels operation, table
  - db_query_errors_total: Labels operation, table, error_type

# Testing

Tests read collector values with prometheus/testutil:

	before := testutil.ToFloat64(metrics.SyncAttempts.WithLabelValues("news", "success"))
*/
package metrics

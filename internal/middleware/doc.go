// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package middleware provides HTTP middleware components for the sync API.

Key Components:

  - Request ID: UUID-based request tracking, propagated into the logging context
  - Prometheus Metrics: request count, latency and in-flight gauge per route
  - Trigger Token: shared-secret check guarding the sync trigger endpoints

Every middleware has the func(http.HandlerFunc) http.HandlerFunc shape; the
api package adapts them for chi's r.Use().

Route labels:

PrometheusMetrics labels requests with the chi route pattern
("/api/v1/sync/{source}") rather than the raw path, so source names and
collection names do not multiply the metric series. Requests that never
matched a route are labelled "unmatched".

Trigger token:

	guard := middleware.RequireTriggerToken(cfg.Security.TriggerToken)
	r.Post("/api/v1/sync/{source}", guard(handler.SyncSource))

An empty token disables the check. The token is read from the X-Sync-Token
header or an "Authorization: Bearer" header and compared in constant time.

See Also:

  - internal/api: HTTP handlers wrapped by middleware
  - internal/metrics: Prometheus metrics definitions
*/
package middleware

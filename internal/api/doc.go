// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package api provides the HTTP layer of Twangwire.

The API has two audiences. External schedulers (cron, a hosted scheduler,
a CI job) fire the sync triggers; the site's pages and operators read run
history, stored content and schedule previews.

Endpoints:

	POST /api/v1/sync                      body {automated, sourceId, params}; no sourceId runs every source
	POST /api/v1/sync/{source}             optional body {automated, params}
	GET  /api/v1/sync/{source}/schedule    ?at=RFC3339 schedule preview
	GET  /api/v1/history                   latest attempt per source
	GET  /api/v1/history/{source}          ?limit= attempt log, newest first
	GET  /api/v1/content/{collection}      ?limit= newest stored entities
	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /metrics                          Prometheus exposition

Response shapes:

Sync triggers answer with the flat models.SyncResponse body and HTTP 200
whether the attempt was skipped, succeeded or failed; success=false carries
the proximate cause in error. Only request problems (malformed body, unknown
source) produce 400, and only an unhandled fault produces 500. Read endpoints
use the models.APIResponse envelope.

Caching:

With Handler.SetCache, content and history reads are served from an
in-memory TTL cache that every sync trigger clears.

Middleware Stack (outermost first):

  - middleware.RequestID: X-Request-ID and logging correlation
  - chi RealIP and Recoverer
  - go-chi/cors
  - go-chi/httprate per route group
  - middleware.PrometheusMetrics
  - middleware.RequireTriggerToken on sync triggers only

Usage Example:

	handler := api.NewHandler(orchestrator, store)
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security), cfg.Security.TriggerToken)
	srv := &http.Server{Addr: cfg.Server.Addr(), Handler: router.SetupChi()}
*/
package api

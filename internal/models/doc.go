// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package models defines the data structures shared by the Twangwire packages.

Key Components:

  - SyncPolicy: immutable per-source cadence, target hour and retention limit
  - SyncAttempt: one execution of the orchestrator for a source (append-only)
  - NormalizedRecord: provider-agnostic record emitted by a source adapter
  - StoredEntity: durable row in one of the content collections
  - APIResponse: standardized envelope for the read endpoints
  - Error taxonomy: ProviderError, FormatError, ExhaustedCredentialsError,
    StorageError, HistoryRecordError and ErrScheduleSkip

Collections:

  - videos: YouTube uploads keyed by video ID
  - chart_entries: weekly chart positions keyed by chart date and rank
  - news_articles: news stories keyed by canonical URL

Models in this package carry no behaviour beyond small helpers; the schedule,
sources and sync packages own the logic.
*/
package models

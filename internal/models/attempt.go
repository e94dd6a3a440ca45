// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package models

import "time"

// Trigger identifies who started a sync attempt.
type Trigger string

const (
	TriggerAutomated Trigger = "automated"
	TriggerManual    Trigger = "manual"
)

// Outcome is the terminal result of a sync attempt.
type Outcome string

const (
	OutcomeSkipped Outcome = "skipped"
	OutcomeSuccess Outcome = "success"
	OutcomeError   Outcome = "error"
)

// SyncAttempt is one execution of the orchestrator for a source.
// It is built up while the attempt runs and handed to the history recorder
// by value once finalized; recorded attempts are never updated.
type SyncAttempt struct {
	ID              string     `json:"id"`
	SourceID        string     `json:"source_id"`
	TriggeredBy     Trigger    `json:"triggered_by"`
	StartedAt       time.Time  `json:"started_at"`
	FinishedAt      time.Time  `json:"finished_at"`
	Outcome         Outcome    `json:"outcome"`
	RecordsFetched  int        `json:"records_fetched"`
	RecordsInserted int        `json:"records_inserted"`
	RecordsSkipped  int        `json:"records_skipped"`
	RecordsDropped  int        `json:"records_dropped"`
	RecordsDeleted  int64      `json:"records_deleted"`
	Message         string     `json:"message"`
	ErrorDetail     string     `json:"error_detail,omitempty"`
	NextSync        *time.Time `json:"next_sync,omitempty"`
}

// Duration returns how long the attempt ran.
func (a SyncAttempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

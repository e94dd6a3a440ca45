// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package sync orchestrates one synchronization attempt per trigger: decide
whether the source is due, fetch from the provider, merge into the store,
trim to the retention window and record the attempt.

Key Components:

  - Orchestrator: the per-invocation state machine
  - Registry: maps a source ID to its policy, adapter and target collection
  - Upserter: dedup/insert engine (existence check, then insert-if-absent)
  - Sweeper: retention trim to the newest N rows of a collection
  - Recorder: run history writer whose failures never reach the caller

State Machine:

	Idle -> Deciding -> Skipped
	                 -> Fetching -> Upserting -> Retaining -> Recording -> Done
	Fetching/Upserting failure  -> Recording(error) -> Done

Every invocation is independent. The orchestrator keeps no state between
calls and runs no background work; the trigger (a cron webhook or an operator)
owns the cadence. Two overlapping attempts for the same source are tolerated:
the store's uniqueness constraint keeps rows unique and the losing insert is
counted as already present. Two overlapping retention sweeps may each delete
from the other's view of the window; the result still never exceeds N rows.

Cancellation:

The caller's context bounds the Deciding and Fetching states. Once records are
fetched the store phases run on context.WithoutCancel with a per-call timeout,
so a disconnected caller cannot leave a half-merged batch or an unrecorded
attempt.

Usage Example:

	registry, err := sync.NewRegistryFromConfig(cfg)
	if err != nil {
	    return err
	}
	orch := sync.NewOrchestrator(registry, store, sync.Options{
	    FetchTimeout: cfg.Schedule.FetchTimeout,
	    StoreTimeout: cfg.Schedule.StoreTimeout,
	})
	result := orch.Run(ctx, sync.Request{Automated: true, SourceID: "news"})
	resp := result.Response()
*/
package sync

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Command twangctl runs and inspects syncs without the HTTP server.
//
// It loads the same configuration as the server and talks to the content
// store directly, so it suits cron jobs and one-off backfills:
//
//	twangctl sync news                 # automated: honours the schedule
//	twangctl sync chart --manual       # force a run outside the schedule
//	twangctl sync-all
//	twangctl schedule chart --at 2026-03-05T12:00:00Z
//	twangctl history news --limit 5 --format json
//
// Exit codes: 0 on success or skip, 1 when a sync failed, 2 on usage,
// configuration or store errors.
//
// DuckDB holds an exclusive lock on its file; run twangctl against a
// PostgreSQL or MongoDB store when the server is running.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := NewRootCommand(loadEnv).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(GetExitCode(err))
	}
}

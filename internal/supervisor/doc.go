// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

/*
Package supervisor provides process supervision for the sync server using
suture v4.

# Tree

	RootSupervisor ("twangwire")
	├── SyncSupervisor ("sync-layer")
	│   └── StartupSyncService (if SYNC_ON_START)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

Sync attempts themselves are not long-running services: the external
scheduler fires a webhook and the orchestrator runs inside the request. The
sync layer only hosts work the process starts on its own.

# Restart Policy

Crashed services restart with suture's backoff. FailureThreshold failures
within the FailureDecay window put the supervisor into FailureBackoff.
One-shot services return suture.ErrDoNotRestart when they are done.

# Logging

Supervisor events go through sutureslog into the zerolog-backed slog logger
from logging.NewSlogLogger, so restarts and backoffs show up in the same JSON
stream as request logs.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if err != nil {
	    return err
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)
*/
package supervisor

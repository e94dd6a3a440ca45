// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package testinfra provides test infrastructure for integration testing with containers.
//
// This package uses testcontainers-go to start the PostgreSQL and MongoDB
// servers behind the alternative content stores:
//
//	func TestPostgresStore(t *testing.T) {
//	    testinfra.SkipIfNoDocker(t)
//	    ctx := context.Background()
//	    pg, err := testinfra.NewPostgresContainer(ctx)
//	    if err != nil {
//	        t.Fatal(err)
//	    }
//	    defer testinfra.CleanupContainer(t, ctx, pg)
//
//	    store, err := postgres.New(ctx, &config.DatabaseConfig{PostgresDSN: pg.ConnString})
//	    // ...
//	}
//
// All files carry the integration build tag:
//
//	go test -tags integration ./internal/database/...
//
// # CI Considerations
//
// These tests require Docker and network access. Tests are skipped
// gracefully if Docker is unavailable. First run may need to download
// container images; subsequent runs use cached images.
package testinfra

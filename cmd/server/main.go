// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package main is the entry point for the Twangwire sync server.
//
// Twangwire keeps a country-music site's content collections fresh. An
// external scheduler fires sync webhooks; for each one the server decides
// whether the source is due, fetches from the provider with credential
// rotation, inserts new records, trims the collection and records the attempt.
//
// # Startup Order
//
//  1. Configuration: defaults, config.yaml, environment (Koanf v2)
//  2. Logging: zerolog with the configured level and format
//  3. Content store: DuckDB (default), PostgreSQL or MongoDB
//  4. Source registry: one adapter per enabled source
//  5. Orchestrator and HTTP API
//  6. Supervisor tree: HTTP server, optional startup sync pass
//
// # Signal Handling
//
// SIGINT and SIGTERM cancel the tree. The HTTP server drains in-flight
// requests for SERVER_SHUTDOWN_TIMEOUT, then the store is closed.
//
// # Example
//
//	export YOUTUBE_API_KEY=... YOUTUBE_API_KEY_2=...
//	export GNEWS_API_KEY=...
//	export APIFY_TOKEN=...
//	export SYNC_TRIGGER_TOKEN=$(openssl rand -hex 24)
//	./twangwire-server
//
//	curl -X POST -H "X-Sync-Token: $SYNC_TRIGGER_TOKEN" \
//	  -d '{"automated":true}' http://localhost:8787/api/v1/sync/news
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/twangwire/internal/api"
	"github.com/tomtom215/twangwire/internal/cache"
	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database/backends"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/supervisor"
	"github.com/tomtom215/twangwire/internal/supervisor/services"
	"github.com/tomtom215/twangwire/internal/sync"
)

// storeOpenTimeout bounds connecting to the store and creating its schema.
const storeOpenTimeout = 30 * time.Second

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		logging.Error().Err(err).Msg("Server exited with error")
		stop()
		os.Exit(1)
	}
	logging.Info().Msg("Application stopped gracefully")
}

func run(ctx context.Context, cfg *config.Config) error {
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_driver", cfg.Database.Driver).
		Str("timezone", cfg.Schedule.Timezone).
		Msg("Starting Twangwire")

	openCtx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	store, err := backends.Open(openCtx, &cfg.Database)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing content store")
		}
	}()

	registry, err := sync.NewRegistryFromConfig(cfg)
	if err != nil {
		return err
	}
	if len(registry.IDs()) == 0 {
		logging.Warn().Msg("No sources enabled; every trigger will be rejected")
	}
	logging.Info().Strs("sources", registry.IDs()).Msg("Source registry ready")

	orchestrator := sync.NewOrchestrator(registry, store, sync.OptionsFromConfig(cfg))

	handler := api.NewHandler(orchestrator, store)
	if cfg.Server.CacheTTL > 0 {
		responseCache := cache.New(cfg.Server.CacheTTL)
		defer responseCache.Close()
		handler.SetCache(responseCache)
		logging.Info().Dur("ttl", cfg.Server.CacheTTL).Msg("Response cache enabled")
	}
	router := api.NewRouter(handler, api.NewChiMiddlewareFromConfig(&cfg.Security), cfg.Security.TriggerToken)
	if cfg.Security.TriggerToken == "" {
		logging.Warn().Msg("SYNC_TRIGGER_TOKEN not set; sync triggers are unauthenticated")
	}

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router.SetupChi(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       60 * time.Second,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return err
	}

	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	if cfg.Schedule.SyncOnStart {
		tree.AddSyncService(services.NewStartupSyncService(orchestrator))
		logging.Info().Msg("Startup sync pass enabled")
	}

	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}
	return nil
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package backends opens the content store selected by DB_DRIVER.
package backends

import (
	"context"
	"fmt"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/database/mongodb"
	"github.com/tomtom215/twangwire/internal/database/postgres"
	"github.com/tomtom215/twangwire/internal/logging"
)

// Open connects to the configured driver and prepares its schema or indexes.
// The caller owns the returned store and must Close it.
func Open(ctx context.Context, cfg *config.DatabaseConfig) (database.Backend, error) {
	logger := logging.With().Str("driver", cfg.Driver).Logger()

	switch cfg.Driver {
	case "", config.DriverDuckDB:
		db, err := database.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("open duckdb store: %w", err)
		}
		logger.Info().Str("path", cfg.Path).Msg("Content store ready")
		return db, nil

	case config.DriverPostgres:
		store, err := postgres.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		logger.Info().Msg("Content store ready")
		return store, nil

	case config.DriverMongoDB:
		store, err := mongodb.New(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("open mongodb store: %w", err)
		}
		logger.Info().Str("database", cfg.MongoDatabase).Msg("Content store ready")
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

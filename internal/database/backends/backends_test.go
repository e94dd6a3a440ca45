// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package backends

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database"
)

func TestOpenDuckDB(t *testing.T) {
	t.Parallel()

	for _, driver := range []string{"", config.DriverDuckDB} {
		store, err := Open(context.Background(), &config.DatabaseConfig{
			Driver:       driver,
			Path:         ":memory:",
			MaxMemory:    "256MB",
			Threads:      1,
			QueryTimeout: 5 * time.Second,
		})
		if err != nil {
			t.Fatalf("Open(%q) error = %v", driver, err)
		}
		if _, ok := store.(*database.DB); !ok {
			t.Errorf("Open(%q) = %T, want *database.DB", driver, store)
		}
		if err := store.Ping(context.Background()); err != nil {
			t.Errorf("Ping() error = %v", err)
		}
		if err := store.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	}
}

func TestOpenUnsupportedDriver(t *testing.T) {
	t.Parallel()

	_, err := Open(context.Background(), &config.DatabaseConfig{Driver: "sqlite"})
	if err == nil || !strings.Contains(err.Error(), `unsupported database driver "sqlite"`) {
		t.Errorf("Open() error = %v", err)
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package main

import (
	"context"
	"time"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database/backends"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sync"
)

// storeOpenTimeout bounds connecting to the store and creating its schema.
const storeOpenTimeout = 30 * time.Second

// SyncRunner is satisfied by *sync.Orchestrator.
type SyncRunner interface {
	Run(ctx context.Context, req sync.Request) *sync.Result
	RunAll(ctx context.Context, automated bool, params map[string]string) []*sync.Result
}

// HistoryReader is the read side of the history recorder.
type HistoryReader interface {
	LatestHistory(ctx context.Context) ([]models.SyncAttempt, error)
	AttemptLog(ctx context.Context, sourceID string, limit int) ([]models.SyncAttempt, error)
}

// Env is what a subcommand runs against. Runner and History are nil unless
// the store was requested.
type Env struct {
	Registry *sync.Registry
	Runner   SyncRunner
	History  HistoryReader
	Now      func() time.Time
	close    func() error
}

// Close releases the store, if one was opened.
func (e *Env) Close() error {
	if e.close == nil {
		return nil
	}
	return e.close()
}

// EnvLoader builds an Env. withStore is false for commands that only
// evaluate schedules.
type EnvLoader func(ctx context.Context, withStore bool) (*Env, error)

// loadEnv reads the server configuration and, when asked, opens its store.
func loadEnv(ctx context.Context, withStore bool) (*Env, error) {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "load configuration", err)
	}

	registry, err := sync.NewRegistryFromConfig(cfg)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "build source registry", err)
	}

	env := &Env{Registry: registry, Now: time.Now}
	if !withStore {
		return env, nil
	}

	openCtx, cancel := context.WithTimeout(ctx, storeOpenTimeout)
	defer cancel()
	store, err := backends.Open(openCtx, &cfg.Database)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "open content store", err)
	}

	env.Runner = sync.NewOrchestrator(registry, store, sync.OptionsFromConfig(cfg))
	env.History = store
	env.close = store.Close
	return env, nil
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package services

import (
	"context"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/twangwire/internal/logging"
	syncpkg "github.com/tomtom215/twangwire/internal/sync"
)

// AllSourcesRunner is satisfied by *sync.Orchestrator.
type AllSourcesRunner interface {
	RunAll(ctx context.Context, automated bool, params map[string]string) []*syncpkg.Result
}

// StartupSyncService runs one automated pass over every registered source
// when the tree starts, then retires.
//
// The pass is automated, so each source still consults its schedule: a
// restart at 03:00 does not pull news outside its window. Provider failures
// are recorded in history like any other attempt and do not restart the
// service.
type StartupSyncService struct {
	runner AllSourcesRunner
	name   string
}

// NewStartupSyncService creates the startup pass service.
func NewStartupSyncService(runner AllSourcesRunner) *StartupSyncService {
	return &StartupSyncService{
		runner: runner,
		name:   "startup-sync",
	}
}

// Serve implements suture.Service. It returns suture.ErrDoNotRestart once the
// pass completes, or ctx.Err() if shutdown interrupted it.
func (s *StartupSyncService) Serve(ctx context.Context) error {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	logger := logging.Ctx(ctx)

	results := s.runner.RunAll(ctx, true, nil)

	var synced, skipped, failed int
	for _, res := range results {
		switch {
		case res.Skipped():
			skipped++
		case res.Success():
			synced++
		default:
			failed++
		}
	}
	logger.Info().
		Int("synced", synced).
		Int("skipped", skipped).
		Int("failed", failed).
		Msg("Startup sync pass finished")

	if err := ctx.Err(); err != nil {
		return err
	}
	return suture.ErrDoNotRestart
}

// String implements fmt.Stringer; suture uses it in log events.
func (s *StartupSyncService) String() string {
	return s.name
}

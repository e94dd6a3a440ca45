// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/twangwire/internal/models"
	syncpkg "github.com/tomtom215/twangwire/internal/sync"
)

var _ suture.Service = (*StartupSyncService)(nil)

type fakeRunner struct {
	calls     atomic.Int32
	automated atomic.Bool
	results   []*syncpkg.Result
}

func (f *fakeRunner) RunAll(ctx context.Context, automated bool, params map[string]string) []*syncpkg.Result {
	f.calls.Add(1)
	f.automated.Store(automated)
	return f.results
}

func result(outcome models.Outcome) *syncpkg.Result {
	return &syncpkg.Result{Attempt: models.SyncAttempt{Outcome: outcome}}
}

func TestStartupSyncServiceRunsOnce(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{results: []*syncpkg.Result{
		result(models.OutcomeSuccess),
		result(models.OutcomeSkipped),
		{Attempt: models.SyncAttempt{Outcome: models.OutcomeError}, Err: errors.New("gnews: status 429: quota")},
	}}
	svc := NewStartupSyncService(runner)

	err := svc.Serve(context.Background())
	if !errors.Is(err, suture.ErrDoNotRestart) {
		t.Errorf("Serve() error = %v, want ErrDoNotRestart", err)
	}
	if runner.calls.Load() != 1 || !runner.automated.Load() {
		t.Errorf("calls=%d automated=%v, want one automated pass", runner.calls.Load(), runner.automated.Load())
	}
	if svc.String() != "startup-sync" {
		t.Errorf("String() = %q", svc.String())
	}
}

func TestStartupSyncServiceCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewStartupSyncService(&fakeRunner{}).Serve(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Serve() error = %v, want context.Canceled", err)
	}
}

func TestStartupSyncServiceNotRestartedBySupervisor(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{}
	sup := suture.New("test-sync", suture.Spec{FailureBackoff: 10 * time.Millisecond, Timeout: time.Second})
	sup.Add(NewStartupSyncService(runner))

	ctx, cancel := context.WithCancel(context.Background())
	errCh := sup.ServeBackground(ctx)

	time.Sleep(100 * time.Millisecond)
	cancel()
	<-errCh

	if got := runner.calls.Load(); got != 1 {
		t.Errorf("RunAll calls = %d, want 1", got)
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/database"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/sources"
	"github.com/tomtom215/twangwire/internal/sync"
)

// These tests are sequential: every command re-initializes the global logger.

// wednesday 2026-03-04 06:00 CST: news (06-22) is due, chart (Mon/Thu 06) is not.
var wednesday6am = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

type stubAdapter struct {
	name    string
	records []models.NormalizedRecord
	err     error
}

func (a *stubAdapter) Name() string { return a.name }

func (a *stubAdapter) Fetch(ctx context.Context, params sources.Params) (*sources.FetchResult, error) {
	if a.err != nil {
		return nil, a.err
	}
	return &sources.FetchResult{
		Records: a.records,
		Meta:    models.ProviderMeta{Provider: a.name, KeysTried: 1},
	}, nil
}

type fixture struct {
	store *database.DB
	news  *stubAdapter
	load  EnvLoader
	// loads counts calls per withStore value.
	loads map[bool]int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := database.New(&config.DatabaseConfig{
		Path:         ":memory:",
		MaxMemory:    "256MB",
		Threads:      1,
		QueryTimeout: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() }) //nolint:errcheck

	loc, err := time.LoadLocation("America/Chicago")
	if err != nil {
		t.Fatalf("load location: %v", err)
	}

	f := &fixture{
		store: store,
		news: &stubAdapter{name: "gnews", records: []models.NormalizedRecord{
			{UniquenessKey: "https://news.example.com/a", Title: "Zach Bryan adds stadium dates", URL: "https://news.example.com/a", PublishedAt: wednesday6am.Add(-time.Hour)},
			{UniquenessKey: "https://news.example.com/b", Title: "Opry celebrates centennial", URL: "https://news.example.com/b", PublishedAt: wednesday6am.Add(-2 * time.Hour)},
		}},
		loads: make(map[bool]int),
	}

	reg := sync.NewRegistry()
	for _, src := range []sync.Source{
		{
			Policy: models.SyncPolicy{SourceID: models.SourceNews, Cadence: models.CadenceHourlyWindow,
				WindowStart: 6, WindowEnd: 22, MaxRecords: 50, Location: loc},
			Adapter:    f.news,
			Collection: models.CollectionNews,
			OrderField: models.OrderPublishedAt,
		},
		{
			Policy: models.SyncPolicy{SourceID: models.SourceChart, Cadence: models.CadenceTwiceWeekly,
				Days: []time.Weekday{time.Monday, time.Thursday}, TargetHour: 6, MaxRecords: 100, Location: loc},
			Adapter:    &stubAdapter{name: "apify"},
			Collection: models.CollectionChart,
			OrderField: models.OrderPublishedAt,
		},
	} {
		if err := reg.Register(src); err != nil {
			t.Fatalf("Register() error = %v", err)
		}
	}

	// Each reading advances one second so attempts started by consecutive
	// commands order deterministically in the attempt log.
	var ticks atomic.Int64
	clock := func() time.Time {
		return wednesday6am.Add(time.Duration(ticks.Add(1)) * time.Second)
	}
	orch := sync.NewOrchestrator(reg, store, sync.Options{
		FetchTimeout: time.Second,
		StoreTimeout: time.Second,
		Clock:        clock,
	})

	f.load = func(ctx context.Context, withStore bool) (*Env, error) {
		f.loads[withStore]++
		env := &Env{Registry: reg, Now: clock}
		if withStore {
			env.Runner = orch
			env.History = store
		}
		return env, nil
	}
	return f
}

// run executes twangctl with args and returns stdout and the command error.
func (f *fixture) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand(f.load)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(nil)
	for _, name := range []string{"sync", "sync-all", "schedule", "history"} {
		sub, _, err := cmd.Find([]string{name})
		if err != nil || sub.Name() != name {
			t.Errorf("Find(%q) = %v, %v", name, sub, err)
		}
	}
	if f := cmd.PersistentFlags().Lookup("format"); f == nil || f.DefValue != "text" {
		t.Errorf("format flag = %+v", f)
	}
}

func TestSyncCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
	}{
		{name: "automated due", args: []string{"sync", "news"}, wantCode: ExitSuccess, wantOut: "inserted=2"},
		{name: "automated not due", args: []string{"sync", "chart"}, wantCode: ExitSuccess, wantOut: "skipped"},
		{name: "manual bypasses schedule", args: []string{"sync", "chart", "--manual"}, wantCode: ExitSuccess, wantOut: "ok"},
		{name: "unknown source", args: []string{"sync", "podcasts"}, wantCode: ExitCommandError},
		{name: "missing argument", args: []string{"sync"}, wantCode: ExitCommandError},
		{name: "bad format", args: []string{"sync", "news", "--format", "yaml"}, wantCode: ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			out, err := f.run(t, tt.args...)
			if got := GetExitCode(err); got != tt.wantCode {
				t.Fatalf("exit code = %d, want %d (err=%v)", got, tt.wantCode, err)
			}
			if !strings.Contains(out, tt.wantOut) {
				t.Errorf("output = %q, want it to contain %q", out, tt.wantOut)
			}
		})
	}
}

func TestSyncCommandFailure(t *testing.T) {
	f := newFixture(t)
	f.news.err = &models.ExhaustedCredentialsError{Provider: "gnews", Attempts: 2}

	out, err := f.run(t, "sync", "news")
	if GetExitCode(err) != ExitFailure {
		t.Fatalf("exit code = %d, want %d (err=%v)", GetExitCode(err), ExitFailure, err)
	}
	if !strings.Contains(out, "FAILED") {
		t.Errorf("output = %q", out)
	}

	latest, err := f.store.LatestHistory(context.Background())
	if err != nil || len(latest) != 1 || latest[0].Outcome != models.OutcomeError {
		t.Errorf("LatestHistory() = %+v, %v; want one error attempt", latest, err)
	}
}

func TestSyncAllJSON(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "sync-all", "--format", "json")
	if err != nil {
		t.Fatalf("sync-all error = %v", err)
	}

	var responses []models.SyncResponse
	if err := json.Unmarshal([]byte(out), &responses); err != nil {
		t.Fatalf("decode output: %v; out=%s", err, out)
	}
	if len(responses) != 2 {
		t.Fatalf("responses = %d, want 2", len(responses))
	}
	byID := map[string]models.SyncResponse{}
	for _, r := range responses {
		byID[r.SourceID] = r
	}
	if !byID["news"].Success || !byID["chart"].Skipped {
		t.Errorf("responses = %+v, want news synced and chart skipped", responses)
	}
}

func TestScheduleCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "schedule", "chart", "--format", "json", "--at", "2026-03-05T12:00:00Z")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	var preview schedulePreview
	if err := json.Unmarshal([]byte(out), &preview); err != nil {
		t.Fatalf("decode: %v; out=%s", err, out)
	}
	if !preview.Decision.Due || preview.Decision.Timezone != "America/Chicago" {
		t.Errorf("decision = %+v, want due in America/Chicago", preview.Decision)
	}
	if f.loads[true] != 0 {
		t.Error("schedule opened the store")
	}

	out, err = f.run(t, "schedule", "chart")
	if err != nil {
		t.Fatalf("schedule error = %v", err)
	}
	if !strings.Contains(out, "due:       false") || !strings.Contains(out, "next sync: 2026-03-05T00:00:00-06:00") {
		t.Errorf("text output = %q", out)
	}

	if _, err := f.run(t, "schedule", "chart", "--at", "thursday"); GetExitCode(err) != ExitCommandError {
		t.Errorf("bad --at exit code = %d", GetExitCode(err))
	}
}

func TestHistoryCommand(t *testing.T) {
	f := newFixture(t)

	out, err := f.run(t, "history")
	if err != nil || !strings.Contains(out, "no recorded attempts") {
		t.Fatalf("empty history = %q, %v", out, err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.run(t, "sync", "news"); err != nil {
			t.Fatalf("sync error = %v", err)
		}
	}

	out, err = f.run(t, "history", "news", "--limit", "1", "--format", "json")
	if err != nil {
		t.Fatalf("history error = %v", err)
	}
	var attempts []models.SyncAttempt
	if err := json.Unmarshal([]byte(out), &attempts); err != nil {
		t.Fatalf("decode: %v; out=%s", err, out)
	}
	if len(attempts) != 1 || attempts[0].RecordsInserted != 0 || attempts[0].RecordsSkipped != 2 {
		t.Errorf("attempts = %+v, want the second run with 2 skipped", attempts)
	}

	if _, err := f.run(t, "history", "news", "--limit", "-1"); GetExitCode(err) != ExitCommandError {
		t.Errorf("negative limit exit code = %d", GetExitCode(err))
	}
}

func TestGetExitCode(t *testing.T) {
	if GetExitCode(nil) != ExitSuccess {
		t.Error("nil error should be success")
	}
	if GetExitCode(errors.New("unknown flag: --foo")) != ExitCommandError {
		t.Error("plain errors should be command errors")
	}
	wrapped := WrapExitError(ExitFailure, "sync", errors.New("boom"))
	if GetExitCode(wrapped) != ExitFailure || wrapped.Error() != "sync: boom" {
		t.Errorf("wrapped = %d %q", GetExitCode(wrapped), wrapped.Error())
	}
}

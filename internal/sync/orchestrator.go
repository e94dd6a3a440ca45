// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
	"github.com/tomtom215/twangwire/internal/schedule"
	"github.com/tomtom215/twangwire/internal/sources"
)

// State is a step of one sync attempt.
type State int

const (
	StateIdle State = iota
	StateDeciding
	StateSkipped
	StateFetching
	StateUpserting
	StateRetaining
	StateRecording
	StateDone
)

var stateNames = [...]string{"idle", "deciding", "skipped", "fetching", "upserting", "retaining", "recording", "done"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Request triggers one attempt. Automated requests are gated by the source's
// schedule; manual requests always fetch.
type Request struct {
	Automated bool
	SourceID  string
	Params    map[string]string
}

// Result is the outcome of one attempt.
type Result struct {
	Attempt models.SyncAttempt
	Meta    models.ProviderMeta
	// Err is the proximate cause of a failed attempt, nil on success or skip.
	Err error
	// HistoryErr is set when the attempt could not be recorded. It never
	// affects the outcome.
	HistoryErr error
	// Path lists the states the attempt went through.
	Path []State
}

// Skipped reports whether the schedule gate skipped the attempt.
func (r *Result) Skipped() bool {
	return r.Attempt.Outcome == models.OutcomeSkipped
}

// Success reports whether the attempt fetched and stored successfully.
func (r *Result) Success() bool {
	return r.Attempt.Outcome == models.OutcomeSuccess
}

// Response converts the result into the trigger endpoint's body. A schedule
// skip is a normal outcome and reports success.
func (r *Result) Response() models.SyncResponse {
	resp := models.SyncResponse{
		Success:  r.Success() || r.Skipped(),
		SourceID: r.Attempt.SourceID,
		Message:  r.Attempt.Message,
	}
	switch r.Attempt.Outcome {
	case models.OutcomeSkipped:
		resp.Skipped = true
		resp.NextSync = r.Attempt.NextSync
	case models.OutcomeSuccess:
		resp.SyncResult = &models.SyncResult{
			RecordsFetched:  r.Attempt.RecordsFetched,
			RecordsInserted: r.Attempt.RecordsInserted,
			RecordsSkipped:  r.Attempt.RecordsSkipped,
			RecordsDropped:  r.Attempt.RecordsDropped,
			RecordsDeleted:  r.Attempt.RecordsDeleted,
		}
	default:
		if r.Err != nil {
			resp.Error = r.Err.Error()
		}
	}
	return resp
}

// Options tunes an Orchestrator.
type Options struct {
	// FetchTimeout bounds the provider fetch.
	FetchTimeout time.Duration
	// StoreTimeout bounds every individual store call.
	StoreTimeout time.Duration
	// MaxConcurrent limits RunAll fan-out. Zero means one per source.
	MaxConcurrent int
	// Clock returns the current time. Defaults to time.Now.
	Clock func() time.Time
}

// OptionsFromConfig maps the schedule settings of cfg onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		FetchTimeout:  cfg.Schedule.FetchTimeout,
		StoreTimeout:  cfg.Schedule.StoreTimeout,
		MaxConcurrent: cfg.Schedule.MaxConcurrentSyncs,
	}
}

// Orchestrator runs sync attempts. It holds no per-attempt state and is safe
// for concurrent use.
type Orchestrator struct {
	registry      *Registry
	upserter      *Upserter
	sweeper       *Sweeper
	recorder      *Recorder
	fetchTimeout  time.Duration
	maxConcurrent int
	now           func() time.Time
}

// NewOrchestrator wires the engine components around store.
func NewOrchestrator(registry *Registry, store Store, opts Options) *Orchestrator {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Orchestrator{
		registry:      registry,
		upserter:      NewUpserter(store, opts.StoreTimeout),
		sweeper:       NewSweeper(store, opts.StoreTimeout),
		recorder:      NewRecorder(store, opts.StoreTimeout),
		fetchTimeout:  opts.FetchTimeout,
		maxConcurrent: opts.MaxConcurrent,
		now:           clock,
	}
}

// Registry returns the source registry.
func (o *Orchestrator) Registry() *Registry {
	return o.registry
}

// attemptRun carries one invocation through the state machine.
type attemptRun struct {
	o      *Orchestrator
	src    *Source
	req    Request
	result *Result
}

func (r *attemptRun) enter(s State) {
	r.result.Path = append(r.result.Path, s)
}

// Run executes one attempt for req.SourceID. It always returns a Result; an
// unknown source yields an error result that is not recorded.
func (o *Orchestrator) Run(ctx context.Context, req Request) *Result {
	trigger := models.TriggerManual
	if req.Automated {
		trigger = models.TriggerAutomated
	}

	result := &Result{
		Attempt: models.SyncAttempt{
			ID:          uuid.NewString(),
			SourceID:    req.SourceID,
			TriggeredBy: trigger,
			StartedAt:   o.now().UTC(),
		},
		Path: []State{StateIdle},
	}

	if logging.CorrelationIDFromContext(ctx) == "" {
		ctx = logging.ContextWithNewCorrelationID(ctx)
	}
	ctx = logging.ContextWithSourceID(ctx, req.SourceID)

	src, err := o.registry.Get(req.SourceID)
	if err != nil {
		result.Err = err
		result.Attempt.Outcome = models.OutcomeError
		result.Attempt.Message = fmt.Sprintf("Unknown source %q", req.SourceID)
		result.Attempt.ErrorDetail = err.Error()
		result.Attempt.FinishedAt = o.now().UTC()
		return result
	}

	run := &attemptRun{o: o, src: src, req: req, result: result}
	run.execute(ctx)
	return result
}

func (r *attemptRun) execute(ctx context.Context) {
	logger := logging.Ctx(ctx)
	attempt := &r.result.Attempt
	policy := r.src.Policy

	r.enter(StateDeciding)
	if r.req.Automated {
		now := attempt.StartedAt
		if !schedule.IsDue(policy, now) {
			r.skip(ctx, schedule.NextEligible(policy, now))
			return
		}
	}

	r.enter(StateFetching)
	fetched, err := r.fetch(ctx)
	if err != nil {
		r.finish(ctx, err)
		return
	}
	r.result.Meta = fetched.Meta
	attempt.RecordsFetched = len(fetched.Records)
	attempt.RecordsDropped = fetched.Meta.Dropped

	// The batch is merged even if the caller goes away from here on.
	storeCtx := context.WithoutCancel(ctx)

	r.enter(StateUpserting)
	upserted := r.o.upserter.UpsertBatch(storeCtx, r.src.Collection, policy.SourceID, fetched.Records)
	attempt.RecordsInserted = upserted.Inserted
	attempt.RecordsSkipped = upserted.Skipped()
	if upserted.Failed > 0 && upserted.Inserted == 0 && upserted.Existing == 0 {
		// nothing reached the store: treat the batch as a storage failure
		r.finishStore(storeCtx, upserted.FirstErr, upserted)
		return
	}

	r.enter(StateRetaining)
	deleted, err := r.o.sweeper.Trim(storeCtx, r.src.Collection, policy.MaxRecords, r.src.OrderField)
	if err != nil {
		logger.Warn().Err(err).Str("collection", string(r.src.Collection)).Msg("Retention sweep failed")
	}
	attempt.RecordsDeleted = deleted

	r.finishStore(storeCtx, nil, upserted)
}

func (r *attemptRun) fetch(ctx context.Context) (*sources.FetchResult, error) {
	fetchCtx := ctx
	if r.o.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, r.o.fetchTimeout)
		defer cancel()
	}

	fetched, err := r.src.Adapter.Fetch(fetchCtx, sources.Params(r.req.Params))
	if err != nil {
		return nil, err
	}
	if fetched == nil {
		return nil, fmt.Errorf("%s adapter returned no result", r.src.Adapter.Name())
	}
	return fetched, nil
}

func (r *attemptRun) skip(ctx context.Context, next time.Time) {
	r.enter(StateSkipped)
	attempt := &r.result.Attempt
	attempt.Outcome = models.OutcomeSkipped
	attempt.FinishedAt = r.o.now().UTC()
	if !next.IsZero() {
		n := next.UTC()
		attempt.NextSync = &n
		attempt.Message = fmt.Sprintf("Not a scheduled sync time for %s (%s); next eligible at %s",
			attempt.SourceID, r.src.Policy, next.In(r.src.Policy.Loc()).Format(time.RFC3339))
	} else {
		attempt.Message = fmt.Sprintf("Not a scheduled sync time for %s (%s)", attempt.SourceID, r.src.Policy)
	}

	metrics.RecordSyncAttempt(attempt.SourceID, string(models.OutcomeSkipped), 0, metrics.SyncCounts{})
	logging.Ctx(ctx).Debug().Err(models.ErrScheduleSkip).Time("next_sync", next).Msg("Sync skipped by schedule")
}

// finish records a fetch failure.
func (r *attemptRun) finish(ctx context.Context, err error) {
	r.finishStore(context.WithoutCancel(ctx), err, UpsertResult{})
}

// finishStore finalizes the attempt, records it and exports metrics.
func (r *attemptRun) finishStore(ctx context.Context, err error, upserted UpsertResult) {
	attempt := &r.result.Attempt
	logger := logging.Ctx(ctx)

	if err != nil {
		r.result.Err = err
		attempt.Outcome = models.OutcomeError
		attempt.ErrorDetail = err.Error()
		attempt.Message = fmt.Sprintf("Sync of %s failed: %s", attempt.SourceID, describeKind(err))
	} else {
		attempt.Outcome = models.OutcomeSuccess
		attempt.Message = fmt.Sprintf("Synced %s: %d new, %d skipped of %d fetched",
			attempt.SourceID, attempt.RecordsInserted, attempt.RecordsSkipped, attempt.RecordsFetched)
		if attempt.RecordsDeleted > 0 {
			attempt.Message += fmt.Sprintf(", %d trimmed", attempt.RecordsDeleted)
		}
		if upserted.Failed > 0 {
			attempt.ErrorDetail = fmt.Sprintf("%d records failed to store, first: %v", upserted.Failed, upserted.FirstErr)
		}
	}

	r.enter(StateRecording)
	attempt.FinishedAt = r.o.now().UTC()
	r.result.HistoryErr = r.o.recorder.Record(ctx, attempt)

	r.enter(StateDone)
	metrics.RecordSyncAttempt(attempt.SourceID, string(attempt.Outcome), attempt.Duration(), metrics.SyncCounts{
		Fetched:    int64(attempt.RecordsFetched),
		Inserted:   int64(attempt.RecordsInserted),
		Existing:   int64(upserted.Existing),
		Duplicates: int64(upserted.Duplicates),
		Failed:     int64(upserted.Failed),
		Dropped:    int64(attempt.RecordsDropped),
	})

	event := logger.Info()
	if err != nil {
		event = logger.Error().Err(err).Str("error_kind", string(models.ClassifyError(err)))
	}
	event.
		Str("attempt_id", attempt.ID).
		Str("outcome", string(attempt.Outcome)).
		Str("triggered_by", string(attempt.TriggeredBy)).
		Int("fetched", attempt.RecordsFetched).
		Int("inserted", attempt.RecordsInserted).
		Int("skipped", attempt.RecordsSkipped).
		Int64("deleted", attempt.RecordsDeleted).
		Int("keys_tried", r.result.Meta.KeysTried).
		Dur("duration", attempt.Duration()).
		Msg("Sync attempt finished")
}

// describeKind renders the error class for the human readable message.
func describeKind(err error) string {
	switch models.ClassifyError(err) {
	case models.KindProvider:
		return "provider error"
	case models.KindFormat:
		return "unexpected provider payload"
	case models.KindExhaustedCredentials:
		return "all credentials failed"
	case models.KindStorage:
		return "storage unavailable"
	case models.KindCanceled:
		if errors.Is(err, context.DeadlineExceeded) {
			return "timed out"
		}
		return "canceled"
	default:
		return "internal error"
	}
}

// RunAll runs one attempt per registered source concurrently. Each attempt is
// independent; results come back in registry order.
func (o *Orchestrator) RunAll(ctx context.Context, automated bool, params map[string]string) []*Result {
	ids := o.registry.IDs()
	results := make([]*Result, len(ids))

	var g errgroup.Group
	if o.maxConcurrent > 0 {
		g.SetLimit(o.maxConcurrent)
	}
	for i, id := range ids {
		g.Go(func() error {
			results[i] = o.Run(ctx, Request{Automated: automated, SourceID: id, Params: params})
			return nil
		})
	}
	_ = g.Wait() // attempts report through their results

	return results
}

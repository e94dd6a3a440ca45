// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync Metrics
	SyncAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_attempts_total",
			Help: "Total number of sync attempts by outcome",
		},
		[]string{"source", "outcome"}, // outcome: "skipped", "success", "error"
	)

	SyncDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sync_duration_seconds",
			Help:    "Duration of sync attempts in seconds",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"source"},
	)

	SyncRecordsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_fetched_total",
			Help: "Total number of normalized records fetched from providers",
		},
		[]string{"source"},
	)

	SyncRecordsInserted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_inserted_total",
			Help: "Total number of new records inserted",
		},
		[]string{"source"},
	)

	SyncRecordsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_records_skipped_total",
			Help: "Total number of fetched records that were not inserted",
		},
		[]string{"source", "reason"}, // reason: "existing", "duplicate", "failed", "dropped"
	)

	SyncRetentionDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_retention_deleted_total",
			Help: "Total number of rows deleted by the retention sweep",
		},
		[]string{"collection"},
	)

	SyncHistoryRecordErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sync_history_record_errors_total",
			Help: "Total number of run history writes that failed",
		},
		[]string{"source"},
	)

	SyncLastSuccess = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sync_last_success_timestamp",
			Help: "Unix timestamp of the last successful sync",
		},
		[]string{"source"},
	)

	// Provider Metrics
	ProviderRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Total number of upstream provider requests",
		},
		[]string{"provider", "result"}, // result: "success", "error", "format_error"
	)

	ProviderRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_request_duration_seconds",
			Help:    "Duration of upstream provider requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"provider"},
	)

	ProviderCredentialFailovers = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_credential_failovers_total",
			Help: "Total number of times a request moved on to the next credential",
		},
		[]string{"provider"},
	)

	// Circuit Breaker Metrics
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker",
		},
		[]string{"name", "result"}, // result: "success", "failure", "rejected"
	)

	CircuitBreakerConsecutiveFailures = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_consecutive_failures",
			Help: "Current number of consecutive failures",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_state_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// API Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "Duration of API requests in seconds",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)

	// Database Metrics
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Duration of store queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation", "table"},
	)

	DBQueryErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "db_query_errors_total",
			Help: "Total number of store query errors",
		},
		[]string{"operation", "table", "error_type"},
	)
)

// SkipReason labels for SyncRecordsSkipped.
const (
	SkipExisting  = "existing"
	SkipDuplicate = "duplicate"
	SkipFailed    = "failed"
	SkipDropped   = "dropped"
)

// maxErrorLabelLen bounds error text used as a label value.
const maxErrorLabelLen = 50

// RecordDBQuery records a database query metric
func RecordDBQuery(operation, table string, duration time.Duration, err error) {
	DBQueryDuration.WithLabelValues(operation, table).Observe(duration.Seconds())
	if err != nil {
		errorType := err.Error()
		// Truncate long error messages
		if len(errorType) > maxErrorLabelLen {
			errorType = errorType[:maxErrorLabelLen]
		}
		DBQueryErrors.WithLabelValues(operation, table, errorType).Inc()
	}
}

// RecordAPIRequest records an API request metric
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordProviderRequest records one upstream request and its latency.
func RecordProviderRequest(provider, result string, duration time.Duration) {
	ProviderRequests.WithLabelValues(provider, result).Inc()
	ProviderRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordCredentialFailover counts a move from one credential to the next.
func RecordCredentialFailover(provider string) {
	ProviderCredentialFailovers.WithLabelValues(provider).Inc()
}

// SyncCounts carries the per-attempt numbers exported by RecordSyncAttempt.
type SyncCounts struct {
	Fetched    int64
	Inserted   int64
	Existing   int64
	Duplicates int64
	Failed     int64
	Dropped    int64
}

// RecordSyncAttempt records the outcome of one orchestrator invocation.
// Skipped attempts only increment the attempt counter.
func RecordSyncAttempt(source, outcome string, duration time.Duration, counts SyncCounts) {
	SyncAttempts.WithLabelValues(source, outcome).Inc()
	if outcome == "skipped" {
		return
	}

	SyncDuration.WithLabelValues(source).Observe(duration.Seconds())
	addCount(SyncRecordsFetched.WithLabelValues(source), counts.Fetched)
	addCount(SyncRecordsInserted.WithLabelValues(source), counts.Inserted)
	addCount(SyncRecordsSkipped.WithLabelValues(source, SkipExisting), counts.Existing)
	addCount(SyncRecordsSkipped.WithLabelValues(source, SkipDuplicate), counts.Duplicates)
	addCount(SyncRecordsSkipped.WithLabelValues(source, SkipFailed), counts.Failed)
	addCount(SyncRecordsSkipped.WithLabelValues(source, SkipDropped), counts.Dropped)

	if outcome == "success" {
		SyncLastSuccess.WithLabelValues(source).Set(float64(time.Now().Unix()))
	}
}

// RecordRetention records rows removed by a retention sweep.
func RecordRetention(collection string, deleted int64) {
	addCount(SyncRetentionDeleted.WithLabelValues(collection), deleted)
}

// RecordHistoryError counts a swallowed run history write failure.
func RecordHistoryError(source string) {
	SyncHistoryRecordErrors.WithLabelValues(source).Inc()
}

func addCount(c prometheus.Counter, n int64) {
	if n > 0 {
		c.Add(float64(n))
	}
}

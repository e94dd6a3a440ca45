// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"context"
	"errors"
	"net/http"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/twangwire/internal/logging"
	"github.com/tomtom215/twangwire/internal/metrics"
	"github.com/tomtom215/twangwire/internal/models"
)

// BreakerSettings configures NewBreakerAdapter.
type BreakerSettings struct {
	// ConsecutiveFailures opens the circuit. Zero disables the breaker.
	ConsecutiveFailures uint32
	// OpenTimeout is how long the circuit stays open before a trial request.
	OpenTimeout time.Duration
}

// BreakerAdapter wraps an Adapter with a circuit breaker.
//
// Only provider-side failures count against the circuit: a FormatError or a
// canceled context says nothing about provider availability. While the
// circuit is open Fetch fails fast with a 503 ProviderError.
type BreakerAdapter struct {
	next Adapter
	cb   *gobreaker.CircuitBreaker[*FetchResult]
	name string
}

// NewBreakerAdapter decorates next. When settings disable the breaker, next is
// returned unchanged.
func NewBreakerAdapter(next Adapter, settings BreakerSettings) Adapter {
	if settings.ConsecutiveFailures == 0 {
		return next
	}

	cbName := next.Name() + "-api"

	// Initialize circuit breaker state metrics
	metrics.CircuitBreakerState.WithLabelValues(cbName).Set(0) // 0 = closed
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(cbName).Set(0)

	threshold := settings.ConsecutiveFailures
	cb := gobreaker.NewCircuitBreaker[*FetchResult](gobreaker.Settings{
		Name:        cbName,
		MaxRequests: 1,
		Interval:    0, // counts are only cleared by state changes
		Timeout:     settings.OpenTimeout,

		ReadyToTrip: func(counts gobreaker.Counts) bool {
			shouldTrip := counts.ConsecutiveFailures >= threshold
			if shouldTrip {
				logging.Warn().
					Str("breaker", cbName).
					Uint32("consecutive_failures", counts.ConsecutiveFailures).
					Msg("[CIRCUIT BREAKER] Opening circuit")
			}
			return shouldTrip
		},

		IsSuccessful: func(err error) bool {
			return err == nil || !countsAgainstBreaker(err)
		},

		OnStateChange: func(name string, from, to gobreaker.State) {
			fromStr := stateToString(from)
			toStr := stateToString(to)

			logging.Info().Str("breaker", name).Str("from", fromStr).Str("to", toStr).Msg("[CIRCUIT BREAKER] State transition")

			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateToFloat(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, fromStr, toStr).Inc()

			if to == gobreaker.StateClosed {
				metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(name).Set(0)
			}
		},
	})

	return &BreakerAdapter{next: next, cb: cb, name: cbName}
}

// Name returns the wrapped adapter's provider name.
func (b *BreakerAdapter) Name() string {
	return b.next.Name()
}

// State returns the current circuit state.
func (b *BreakerAdapter) State() gobreaker.State {
	return b.cb.State()
}

// Fetch runs the wrapped Fetch through the circuit breaker.
func (b *BreakerAdapter) Fetch(ctx context.Context, params Params) (*FetchResult, error) {
	result, err := b.cb.Execute(func() (*FetchResult, error) {
		return b.next.Fetch(ctx, params)
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.CircuitBreakerRequests.WithLabelValues(b.name, "rejected").Inc()
			logging.Ctx(ctx).Warn().Str("breaker", b.name).Err(err).Msg("[CIRCUIT BREAKER] Request rejected")
			return nil, &models.ProviderError{
				Provider: b.next.Name(),
				Status:   http.StatusServiceUnavailable,
				Message:  "circuit breaker " + err.Error(),
			}
		}
		metrics.CircuitBreakerRequests.WithLabelValues(b.name, "failure").Inc()
		counts := b.cb.Counts()
		metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(float64(counts.ConsecutiveFailures))
		return nil, err
	}

	metrics.CircuitBreakerRequests.WithLabelValues(b.name, "success").Inc()
	metrics.CircuitBreakerConsecutiveFailures.WithLabelValues(b.name).Set(0)
	return result, nil
}

// countsAgainstBreaker reports whether err indicates the provider is unhealthy.
func countsAgainstBreaker(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var formatErr *models.FormatError
	return !errors.As(err, &formatErr)
}

// stateToFloat converts circuit breaker state to numeric value for metrics
func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// stateToString converts circuit breaker state to string for logging
func stateToString(state gobreaker.State) string {
	switch state {
	case gobreaker.StateClosed:
		return "closed"
	case gobreaker.StateHalfOpen:
		return "half-open"
	case gobreaker.StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package sources

import (
	"fmt"

	"github.com/tomtom215/twangwire/internal/config"
	"github.com/tomtom215/twangwire/internal/models"
)

// New builds the adapter for sourceID from cfg, wrapped in the provider's
// circuit breaker when one is configured.
func New(cfg *config.Config, sourceID string) (Adapter, error) {
	src, ok := cfg.Source(sourceID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSource, sourceID)
	}
	provider, _, _ := cfg.Provider(sourceID)

	var adapter Adapter
	switch sourceID {
	case models.SourceVideos:
		adapter = NewVideosAdapter(provider, src)
	case models.SourceChart:
		adapter = NewChartAdapter(provider, src)
	case models.SourceNews:
		adapter = NewNewsAdapter(provider, src)
	default:
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownSource, sourceID)
	}

	return NewBreakerAdapter(adapter, BreakerSettings{
		ConsecutiveFailures: provider.BreakerFailures,
		OpenTimeout:         provider.BreakerTimeout,
	}), nil
}

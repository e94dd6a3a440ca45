// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package config

import (
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

// Location loads the schedule timezone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Schedule.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Schedule.Timezone, err)
	}
	return loc, nil
}

// SyncPolicy converts the configuration of sourceID into an immutable policy.
func (c *Config) SyncPolicy(sourceID string) (models.SyncPolicy, error) {
	src, ok := c.Source(sourceID)
	if !ok {
		return models.SyncPolicy{}, fmt.Errorf("%w: %s", models.ErrUnknownSource, sourceID)
	}

	loc, err := c.Location()
	if err != nil {
		return models.SyncPolicy{}, err
	}

	cadence := models.Cadence(src.Cadence)
	if !cadence.Valid() {
		return models.SyncPolicy{}, fmt.Errorf("source %s: unknown cadence %q", sourceID, src.Cadence)
	}

	policy := models.SyncPolicy{
		SourceID:    sourceID,
		Cadence:     cadence,
		TargetHour:  src.TargetHour,
		GraceHours:  src.GraceHours,
		WindowStart: src.WindowStart,
		WindowEnd:   src.WindowEnd,
		MaxRecords:  src.MaxRecords,
		Location:    loc,
	}

	if cadence == models.CadenceTwiceWeekly {
		days := make([]time.Weekday, 0, len(src.Days))
		for _, name := range src.Days {
			d, err := models.ParseWeekday(name)
			if err != nil {
				return models.SyncPolicy{}, fmt.Errorf("source %s: %w", sourceID, err)
			}
			days = append(days, d)
		}
		policy.Days = days
	}

	return policy, nil
}

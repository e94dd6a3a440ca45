// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

// Package schedule decides whether a source is due to sync.
//
// Every function takes the current instant as an argument and is free of side
// effects, so callers and tests control the clock.
//
// Cadences:
//   - daily: due every day from local midnight through the target hour
//   - twice-weekly: due on the two configured weekdays from local midnight
//     through the target hour
//   - hourly-window: due whenever the local hour lies in [start, end]; the
//     window wraps midnight when start > end (22-2 covers 22,23,0,1,2)
//
// A sync day stays due until its target hour has passed; the target hour
// itself counts as due. GraceHours extends the window past the target hour.
package schedule

import (
	"fmt"
	"time"

	"github.com/tomtom215/twangwire/internal/models"
)

// Decision is the full result of evaluating a policy at an instant.
type Decision struct {
	Due            bool      `json:"due"`
	NextEligible   time.Time `json:"nextSync"`
	LocalTime      time.Time `json:"localTime"`
	DaylightSaving bool      `json:"daylightSaving"`
	Timezone       string    `json:"timezone"`
	// TargetUTC is today's target hour as an absolute instant (daily and
	// twice-weekly only).
	TargetUTC *time.Time `json:"targetUtc,omitempty"`
	Reason    string     `json:"reason"`
}

// IsDue reports whether policy p is due at now.
func IsDue(p models.SyncPolicy, now time.Time) bool {
	local := now.In(p.Loc())

	switch p.Cadence {
	case models.CadenceHourlyWindow:
		return inWindow(local.Hour(), p.WindowStart, p.WindowEnd)
	case models.CadenceDaily, models.CadenceTwiceWeekly:
		if !dayMatches(p, local.Weekday()) {
			return false
		}
		return local.Hour() <= p.TargetHour+p.GraceHours
	default:
		return false
	}
}

// NextEligible returns the earliest instant at or after now at which policy p
// is due. It returns now itself when p is already due. An unknown cadence, or
// a twice-weekly policy without days, yields the zero time.
func NextEligible(p models.SyncPolicy, now time.Time) time.Time {
	if IsDue(p, now) {
		return now
	}

	loc := p.Loc()
	local := now.In(loc)

	switch p.Cadence {
	case models.CadenceHourlyWindow:
		next := time.Date(local.Year(), local.Month(), local.Day(), p.WindowStart, 0, 0, 0, loc)
		if !next.After(now) {
			next = time.Date(local.Year(), local.Month(), local.Day()+1, p.WindowStart, 0, 0, 0, loc)
		}
		return next

	case models.CadenceDaily, models.CadenceTwiceWeekly:
		// Not due today means today's window has closed or today is not a
		// sync day, so the next window opens at midnight of a later sync day.
		for offset := 1; offset <= 7; offset++ {
			day := time.Date(local.Year(), local.Month(), local.Day()+offset, 0, 0, 0, 0, loc)
			if dayMatches(p, day.Weekday()) {
				return day
			}
		}
	}

	return time.Time{}
}

// Evaluate combines IsDue, NextEligible and DST detection for one instant.
func Evaluate(p models.SyncPolicy, now time.Time) Decision {
	loc := p.Loc()
	local := now.In(loc)

	d := Decision{
		Due:            IsDue(p, now),
		NextEligible:   NextEligible(p, now),
		LocalTime:      local,
		DaylightSaving: IsDaylightSaving(local),
		Timezone:       loc.String(),
	}

	if p.Cadence != models.CadenceHourlyWindow {
		target := TargetInstant(local, p.TargetHour).UTC()
		d.TargetUTC = &target
	}

	if d.Due {
		d.Reason = fmt.Sprintf("due: %s matches %s", local.Format("Mon 15:04 MST"), p)
	} else {
		d.Reason = fmt.Sprintf("not due: %s does not match %s", local.Format("Mon 15:04 MST"), p)
	}
	return d
}

func dayMatches(p models.SyncPolicy, wd time.Weekday) bool {
	if p.Cadence == models.CadenceDaily {
		return true
	}
	for _, d := range p.Days {
		if d == wd {
			return true
		}
	}
	return false
}

func inWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour <= end
	}
	return hour >= start || hour <= end
}

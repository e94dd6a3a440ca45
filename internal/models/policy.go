// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package models

import (
	"fmt"
	"strings"
	"time"
)

// Source identifiers.
const (
	SourceVideos = "videos"
	SourceChart  = "chart"
	SourceNews   = "news"
)

// Cadence describes how often a source is eligible to sync.
type Cadence string

const (
	// CadenceDaily syncs once a day at the target local hour.
	CadenceDaily Cadence = "daily"

	// CadenceTwiceWeekly syncs on two configured weekdays at the target local hour.
	CadenceTwiceWeekly Cadence = "twice-weekly"

	// CadenceHourlyWindow syncs on any trigger whose local hour lies inside
	// [WindowStart, WindowEnd]. A window with start > end wraps past midnight.
	CadenceHourlyWindow Cadence = "hourly-window"
)

// Valid reports whether c is a known cadence.
func (c Cadence) Valid() bool {
	switch c {
	case CadenceDaily, CadenceTwiceWeekly, CadenceHourlyWindow:
		return true
	default:
		return false
	}
}

// SyncPolicy is the immutable schedule and retention configuration for one source.
//
// Fields:
//   - SourceID: stable identifier ("videos", "chart", "news")
//   - Cadence: daily, twice-weekly or hourly-window
//   - Days: sync weekdays for twice-weekly (ignored otherwise)
//   - TargetHour: local wall-clock hour (0-23) for daily and twice-weekly
//   - GraceHours: extra hours after TargetHour that still count as due
//   - WindowStart, WindowEnd: inclusive local hour range for hourly-window
//   - MaxRecords: newest-N retention limit for the target collection (0 disables)
//   - Location: wall-clock timezone the hours are expressed in
type SyncPolicy struct {
	SourceID    string
	Cadence     Cadence
	Days        []time.Weekday
	TargetHour  int
	GraceHours  int
	WindowStart int
	WindowEnd   int
	MaxRecords  int
	Location    *time.Location
}

// Loc returns the policy timezone, defaulting to UTC.
func (p SyncPolicy) Loc() *time.Location {
	if p.Location == nil {
		return time.UTC
	}
	return p.Location
}

// String renders the cadence for logs and the schedule preview endpoint.
func (p SyncPolicy) String() string {
	switch p.Cadence {
	case CadenceTwiceWeekly:
		names := make([]string, 0, len(p.Days))
		for _, d := range p.Days {
			names = append(names, d.String()[:3])
		}
		return fmt.Sprintf("twice-weekly(%s) at %02d:00 %s", strings.Join(names, ","), p.TargetHour, p.Loc())
	case CadenceHourlyWindow:
		return fmt.Sprintf("hourly-window(%02d-%02d) %s", p.WindowStart, p.WindowEnd, p.Loc())
	default:
		return fmt.Sprintf("%s at %02d:00 %s", p.Cadence, p.TargetHour, p.Loc())
	}
}

// ParseWeekday converts a weekday name ("monday", "Mon", "thu") to time.Weekday.
func ParseWeekday(s string) (time.Weekday, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if len(name) < 3 {
		return 0, fmt.Errorf("invalid weekday %q", s)
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		full := strings.ToLower(d.String())
		if name == full || name == full[:3] {
			return d, nil
		}
	}
	return 0, fmt.Errorf("invalid weekday %q", s)
}

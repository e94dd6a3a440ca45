// Twangwire - Country Music Content Sync Orchestrator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/twangwire

package schedule

import "time"

// referenceOffsets returns the UTC offsets (seconds east) of loc on January 1
// and July 1 of year. One of them is standard time in every zone that
// observes daylight saving, whichever hemisphere it is in.
func referenceOffsets(year int, loc *time.Location) (winter, summer int) {
	_, winter = time.Date(year, time.January, 1, 12, 0, 0, 0, loc).Zone()
	_, summer = time.Date(year, time.July, 1, 12, 0, 0, 0, loc).Zone()
	return winter, summer
}

// StandardOffset returns the standard-time UTC offset in seconds for t's
// location and year: the smaller (further west) of the two reference offsets.
func StandardOffset(t time.Time) int {
	winter, summer := referenceOffsets(t.Year(), t.Location())
	return min(winter, summer)
}

// IsDaylightSaving reports whether t falls in daylight-saving time for its
// location. Zones whose reference offsets agree never observe DST.
func IsDaylightSaving(t time.Time) bool {
	winter, summer := referenceOffsets(t.Year(), t.Location())
	if winter == summer {
		return false
	}
	_, offset := t.Zone()
	return offset != min(winter, summer)
}

// TargetInstant converts a local wall-clock hour on t's local date to the
// absolute instant, applying the daylight-saving shift in effect that day.
// It is used to report the UTC time of a target hour.
func TargetInstant(t time.Time, hour int) time.Time {
	loc := t.Location()
	offset := StandardOffset(t)
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
	if IsDaylightSaving(day.Add(time.Duration(hour) * time.Hour)) {
		_, offset = day.Add(time.Duration(hour) * time.Hour).Zone()
	}
	return time.Date(t.Year(), t.Month(), t.Day(), hour, 0, 0, 0, time.UTC).Add(-time.Duration(offset) * time.Second)
}

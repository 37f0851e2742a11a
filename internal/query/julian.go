// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import "time"

// unixEpochJulianDay is the Julian day number of 1970-01-01, used to convert
// between Go's Unix-based time arithmetic and the Julian day numbers stored
// in rhythmdb.PropDate.
const unixEpochJulianDay = 2440588

// julianDay returns the Julian day number for the given UTC calendar date.
func julianDay(year int, month time.Month, day int) int64 {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	unixDays := t.Unix() / 86400
	return unixDays + unixEpochJulianDay
}

// yearJulianDayRange returns [start, end) Julian day numbers spanning
// January 1 of year through January 1 of year+1, used to canonicalise a
// YEAR_* clause into a range comparison against a Julian-day property.
func yearJulianDayRange(year int64) (start, end int64) {
	start = julianDay(int(year), time.January, 1)
	end = julianDay(int(year)+1, time.January, 1)
	return start, end
}

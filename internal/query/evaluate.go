// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import (
	"strings"
	"time"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// Getter reads one property's current value from an entry. internal/rhythmdb's
// Entry.Get satisfies this, but evaluate depends only on the function shape
// so the query engine never imports the store package's concrete Entry type
// beyond the Value/Property types it already shares.
type Getter func(rhythmdb.Property) rhythmdb.Value

// Evaluate reports whether entry (represented by get) matches an already
// preprocessed query. An empty query matches everything. The query must
// have been through Preprocess first; Evaluate does not expand SEARCH_MATCH
// or canonicalise years itself.
func Evaluate(q *Query, get Getter) bool {
	if q.Empty() {
		return true
	}
	for _, run := range q.runs() {
		if evaluateRun(run, get) {
			return true
		}
	}
	return false
}

func evaluateRun(run []Clause, get Getter) bool {
	for _, c := range run {
		if !evaluateClause(c, get) {
			return false
		}
	}
	return true
}

func evaluateClause(c Clause, get Getter) bool {
	switch c.Kind {
	case Equals:
		return stringValue(get(c.Property)) == c.Str
	case NotEqual:
		return stringValue(get(c.Property)) != c.Str
	case Like:
		if c.Str == "" {
			return true
		}
		return strings.Contains(foldedStringValue(get(c.Property)), c.Str)
	case Prefix:
		if c.Str == "" {
			return true
		}
		return strings.HasPrefix(foldedStringValue(get(c.Property)), c.Str)
	case Suffix:
		if c.Str == "" {
			return true
		}
		return strings.HasSuffix(foldedStringValue(get(c.Property)), c.Str)
	case Less:
		v := get(c.Property)
		if isNullNumeric(c.Property, v) {
			return false
		}
		return numericValue(c.Property, v) < c.Num
	case Greater:
		v := get(c.Property)
		if isNullNumeric(c.Property, v) {
			return false
		}
		return numericValue(c.Property, v) > c.Num
	case CurrentTimeWithin:
		v := get(c.Property)
		now := time.Now().Unix()
		return now-v.Timestamp <= c.Num
	case CurrentTimeNotWithin:
		v := get(c.Property)
		now := time.Now().Unix()
		return now-v.Timestamp > c.Num
	case Subquery:
		return Evaluate(c.Sub, get)
	case Disjunction:
		// Disjunction is a structural marker consumed by runs(); it never
		// appears as a clause to evaluate directly.
		return true
	default:
		return false
	}
}

func stringValue(v rhythmdb.Value) string {
	if v.Str == nil {
		return ""
	}
	return v.Str.String()
}

func foldedStringValue(v rhythmdb.Value) string {
	if v.Str == nil {
		return ""
	}
	return v.Str.Folded()
}

func numericValue(prop rhythmdb.Property, v rhythmdb.Value) int64 {
	switch prop.ValueType() {
	case rhythmdb.TypeULong:
		return int64(v.ULong)
	case rhythmdb.TypeJulianDay:
		return v.JulianDay
	case rhythmdb.TypeTimestamp:
		return v.Timestamp
	case rhythmdb.TypeInt64:
		return v.Int64
	default:
		return 0
	}
}

// isNullNumeric reports whether v represents an unset numeric property, per
// the rule that numeric comparisons on null-valued entries return false
// rather than comparing against the Go zero value as if it were a real 0.
func isNullNumeric(prop rhythmdb.Property, v rhythmdb.Value) bool {
	return numericValue(prop, v) == 0
}

// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import "github.com/tomtom215/rhythmdb/internal/rhythmdb"

// Builder accumulates clauses in the order appended, the same ordered
// clause-accumulation shape a SQL WHERE-fragment builder uses, generalized
// here to build an in-memory clause tree instead of SQL text.
type Builder struct {
	clauses []Clause
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder { return &Builder{} }

func (b *Builder) append(c Clause) *Builder {
	b.clauses = append(b.clauses, c)
	return b
}

// Equals appends a PROP_EQUALS clause.
func (b *Builder) Equals(prop rhythmdb.Property, value string) *Builder {
	return b.append(Clause{Kind: Equals, Property: prop, Str: value})
}

// NotEqual appends a PROP_NOT_EQUAL clause.
func (b *Builder) NotEqual(prop rhythmdb.Property, value string) *Builder {
	return b.append(Clause{Kind: NotEqual, Property: prop, Str: value})
}

// Like appends a PROP_LIKE clause.
func (b *Builder) Like(prop rhythmdb.Property, substr string) *Builder {
	return b.append(Clause{Kind: Like, Property: prop, Str: substr})
}

// Prefix appends a PROP_PREFIX clause.
func (b *Builder) Prefix(prop rhythmdb.Property, prefix string) *Builder {
	return b.append(Clause{Kind: Prefix, Property: prop, Str: prefix})
}

// Suffix appends a PROP_SUFFIX clause.
func (b *Builder) Suffix(prop rhythmdb.Property, suffix string) *Builder {
	return b.append(Clause{Kind: Suffix, Property: prop, Str: suffix})
}

// Less appends a PROP_LESS clause.
func (b *Builder) Less(prop rhythmdb.Property, value int64) *Builder {
	return b.append(Clause{Kind: Less, Property: prop, Num: value})
}

// Greater appends a PROP_GREATER clause.
func (b *Builder) Greater(prop rhythmdb.Property, value int64) *Builder {
	return b.append(Clause{Kind: Greater, Property: prop, Num: value})
}

// YearEquals appends a YEAR_EQUALS clause against a Julian-day property.
func (b *Builder) YearEquals(prop rhythmdb.Property, year int64) *Builder {
	return b.append(Clause{Kind: YearEquals, Property: prop, Num: year})
}

// YearNotEqual appends a YEAR_NOT_EQUAL clause.
func (b *Builder) YearNotEqual(prop rhythmdb.Property, year int64) *Builder {
	return b.append(Clause{Kind: YearNotEqual, Property: prop, Num: year})
}

// YearLess appends a YEAR_LESS clause.
func (b *Builder) YearLess(prop rhythmdb.Property, year int64) *Builder {
	return b.append(Clause{Kind: YearLess, Property: prop, Num: year})
}

// YearGreater appends a YEAR_GREATER clause.
func (b *Builder) YearGreater(prop rhythmdb.Property, year int64) *Builder {
	return b.append(Clause{Kind: YearGreater, Property: prop, Num: year})
}

// CurrentTimeWithin appends a CURRENT_TIME_WITHIN clause: matches when
// now - value <= seconds.
func (b *Builder) CurrentTimeWithin(prop rhythmdb.Property, seconds int64) *Builder {
	return b.append(Clause{Kind: CurrentTimeWithin, Property: prop, Num: seconds})
}

// CurrentTimeNotWithin appends a CURRENT_TIME_NOT_WITHIN clause.
func (b *Builder) CurrentTimeNotWithin(prop rhythmdb.Property, seconds int64) *Builder {
	return b.append(Clause{Kind: CurrentTimeNotWithin, Property: prop, Num: seconds})
}

// Or inserts a disjunction marker, starting a new conjunctive run.
func (b *Builder) Or() *Builder {
	return b.append(Clause{Kind: Disjunction})
}

// Subquery appends a nested query, treated as a single atomic clause.
func (b *Builder) Subquery(sub *Query) *Builder {
	return b.append(Clause{Kind: Subquery, Sub: sub})
}

// Build returns the accumulated Query. The Builder remains usable
// afterward; further appends start a new, independent Query slice.
func (b *Builder) Build() *Query {
	clauses := make([]Clause, len(b.clauses))
	copy(clauses, b.clauses)
	return &Query{Clauses: clauses}
}

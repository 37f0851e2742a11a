// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package query implements the declarative query language: a flat ordered
// sequence of clauses (an OR of ANDs of atomic predicates and subqueries)
// built by Builder, expanded and canonicalised by Preprocess, interpreted by
// Evaluate, and round-tripped to XML by Marshal/Unmarshal for saved
// searches embedded in the persisted database file.
package query

import "github.com/tomtom215/rhythmdb/internal/rhythmdb"

// ClauseKind identifies one clause's predicate shape.
type ClauseKind int

const (
	Equals ClauseKind = iota
	NotEqual
	Like
	Prefix
	Suffix
	Less
	Greater
	YearEquals
	YearNotEqual
	YearLess
	YearGreater
	CurrentTimeWithin
	CurrentTimeNotWithin
	Disjunction // structural marker: OR between adjacent conjunctive runs
	Subquery
)

// Clause is one element of a Query's flat sequence. Exactly the fields
// relevant to Kind are meaningful:
//   - Equals/NotEqual/Like/Prefix/Suffix: Property, Str
//   - Less/Greater: Property, Num
//   - YearEquals/YearNotEqual/YearLess/YearGreater: Property, Num (a year)
//   - CurrentTimeWithin/CurrentTimeNotWithin: Property, Num (seconds)
//   - Disjunction: no fields
//   - Subquery: Sub
type Clause struct {
	Kind     ClauseKind
	Property rhythmdb.Property
	Str      string
	Num      int64
	Sub      *Query
}

// Query is a value type: a flat ordered sequence of clauses representing an
// OR of ANDs. A Disjunction clause separates one conjunctive run from the
// next; a query with no Disjunction clause is a single AND-run and matches
// only if every clause in it matches.
type Query struct {
	Clauses []Clause
}

// Empty reports whether q has no clauses, matching every entry
// unconditionally.
func (q *Query) Empty() bool {
	return q == nil || len(q.Clauses) == 0
}

// runs splits q's flat clause sequence into its Disjunction-separated
// conjunctive runs.
func (q *Query) runs() [][]Clause {
	if q.Empty() {
		return nil
	}
	var runs [][]Clause
	var current []Clause
	for _, c := range q.Clauses {
		if c.Kind == Disjunction {
			runs = append(runs, current)
			current = nil
			continue
		}
		current = append(current, c)
	}
	runs = append(runs, current)
	return runs
}

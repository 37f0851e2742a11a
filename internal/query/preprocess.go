// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import (
	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// searchMatchProperties are the properties a SEARCH_MATCH clause expands
// into a disjunction over, each compared on its folded form.
var searchMatchProperties = []rhythmdb.Property{
	rhythmdb.PropArtist,
	rhythmdb.PropAlbum,
	rhythmdb.PropTitle,
	rhythmdb.PropGenre,
}

// Preprocess returns a new Query with SEARCH_MATCH clauses expanded into a
// disjunction over folded artist/album/title/genre LIKE clauses, string
// comparands folded in place, and YEAR_* clauses canonicalised into
// Julian-day range comparisons against the same property. The input Query
// is not modified.
func Preprocess(q *Query) *Query {
	if q.Empty() {
		return &Query{}
	}

	out := make([]Clause, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		switch c.Kind {
		case Equals, NotEqual, Like, Prefix, Suffix:
			if c.Property == rhythmdb.PropSearchMatch {
				// SEARCH_MATCH expands into an internal disjunction; wrap it
				// in a Subquery so splicing it in cannot widen the scope of
				// an enclosing AND-run (per the query language's "OR only
				// via Disjunction-at-top-level or explicit Subquery" shape).
				out = append(out, Clause{Kind: Subquery, Sub: &Query{Clauses: expandSearchMatch(c)}})
				continue
			}
			c.Str = atom.FoldCase(c.Str)
			out = append(out, c)

		case YearEquals:
			start, end := yearJulianDayRange(c.Num)
			out = append(out,
				Clause{Kind: Greater, Property: c.Property, Num: start - 1},
				Clause{Kind: Less, Property: c.Property, Num: end},
			)

		case YearNotEqual:
			start, end := yearJulianDayRange(c.Num)
			sub := &Query{Clauses: []Clause{
				{Kind: Less, Property: c.Property, Num: start},
				{Kind: Disjunction},
				{Kind: Greater, Property: c.Property, Num: end - 1},
			}}
			out = append(out, Clause{Kind: Subquery, Sub: sub})

		case YearLess:
			start, _ := yearJulianDayRange(c.Num)
			out = append(out, Clause{Kind: Less, Property: c.Property, Num: start})

		case YearGreater:
			_, end := yearJulianDayRange(c.Num)
			out = append(out, Clause{Kind: Greater, Property: c.Property, Num: end - 1})

		case Subquery:
			c.Sub = Preprocess(c.Sub)
			out = append(out, c)

		default:
			out = append(out, c)
		}
	}
	return &Query{Clauses: out}
}

func expandSearchMatch(c Clause) []Clause {
	folded := atom.FoldCase(c.Str)
	expanded := make([]Clause, 0, len(searchMatchProperties)*2-1)
	for i, prop := range searchMatchProperties {
		if i > 0 {
			expanded = append(expanded, Clause{Kind: Disjunction})
		}
		expanded = append(expanded, Clause{Kind: c.Kind, Property: prop, Str: folded})
	}
	return expanded
}

// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import (
	"encoding/xml"
	"fmt"

	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// xmlClause is the wire shape one Clause marshals to/from. It covers every
// ClauseKind's fields in one flat struct, following the same
// leaf-element-per-field rendering internal/persistence uses for entries,
// so a saved search embedded in the database file reads the same way a
// saved entry does.
type xmlClause struct {
	XMLName  xml.Name `xml:"clause"`
	Kind     string   `xml:"kind,attr"`
	Property string   `xml:"property,attr,omitempty"`
	Str      string   `xml:"str,omitempty"`
	Num      int64    `xml:"num,omitempty"`
	Sub      *xmlQuery `xml:"query,omitempty"`
}

type xmlQuery struct {
	XMLName xml.Name    `xml:"query"`
	Clauses []xmlClause `xml:"clause"`
}

var kindNames = map[ClauseKind]string{
	Equals:               "equals",
	NotEqual:             "not-equal",
	Like:                 "like",
	Prefix:               "prefix",
	Suffix:               "suffix",
	Less:                 "less",
	Greater:              "greater",
	YearEquals:           "year-equals",
	YearNotEqual:         "year-not-equal",
	YearLess:             "year-less",
	YearGreater:          "year-greater",
	CurrentTimeWithin:    "current-time-within",
	CurrentTimeNotWithin: "current-time-not-within",
	Disjunction:          "disjunction",
	Subquery:             "subquery",
}

var namesToKind = func() map[string]ClauseKind {
	m := make(map[string]ClauseKind, len(kindNames))
	for k, v := range kindNames {
		m[v] = k
	}
	return m
}()

// Marshal renders q to its XML byte representation. Marshal/Unmarshal are
// exact inverses of one another within one query-language version.
func Marshal(q *Query) ([]byte, error) {
	return xml.Marshal(toXMLQuery(q))
}

// Unmarshal parses an XML byte representation produced by Marshal back into
// a Query.
func Unmarshal(data []byte) (*Query, error) {
	var doc xmlQuery
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return fromXMLQuery(&doc)
}

func toXMLQuery(q *Query) *xmlQuery {
	doc := &xmlQuery{}
	if q.Empty() {
		return doc
	}
	doc.Clauses = make([]xmlClause, len(q.Clauses))
	for i, c := range q.Clauses {
		doc.Clauses[i] = toXMLClause(c)
	}
	return doc
}

func toXMLClause(c Clause) xmlClause {
	xc := xmlClause{Kind: kindNames[c.Kind]}
	if c.Kind != Disjunction && c.Kind != Subquery {
		xc.Property = c.Property.Name()
	}
	switch c.Kind {
	case Equals, NotEqual, Like, Prefix, Suffix:
		xc.Str = c.Str
	case Less, Greater, YearEquals, YearNotEqual, YearLess, YearGreater, CurrentTimeWithin, CurrentTimeNotWithin:
		xc.Num = c.Num
	case Subquery:
		xc.Sub = toXMLQuery(c.Sub)
	}
	return xc
}

func fromXMLQuery(doc *xmlQuery) (*Query, error) {
	clauses := make([]Clause, len(doc.Clauses))
	for i, xc := range doc.Clauses {
		c, err := fromXMLClause(xc)
		if err != nil {
			return nil, err
		}
		clauses[i] = c
	}
	return &Query{Clauses: clauses}, nil
}

func fromXMLClause(xc xmlClause) (Clause, error) {
	kind, ok := namesToKind[xc.Kind]
	if !ok {
		return Clause{}, fmt.Errorf("query: unknown clause kind %q", xc.Kind)
	}

	c := Clause{Kind: kind, Str: xc.Str, Num: xc.Num}

	if kind != Disjunction && kind != Subquery {
		prop, ok := rhythmdb.LookupByName(xc.Property)
		if !ok {
			return Clause{}, fmt.Errorf("query: unknown property %q", xc.Property)
		}
		c.Property = prop
	}

	if kind == Subquery {
		if xc.Sub == nil {
			return Clause{}, fmt.Errorf("query: subquery clause missing nested <query>")
		}
		sub, err := fromXMLQuery(xc.Sub)
		if err != nil {
			return Clause{}, err
		}
		c.Sub = sub
	}

	return c, nil
}

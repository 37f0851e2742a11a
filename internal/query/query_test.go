// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package query

import (
	"testing"
	"time"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

func valueGetter(values map[rhythmdb.Property]rhythmdb.Value) Getter {
	return func(p rhythmdb.Property) rhythmdb.Value {
		return values[p]
	}
}

func TestEvaluateSimpleEquals(t *testing.T) {
	pool := atom.NewPool(8)
	radiohead := pool.Intern("Radiohead")

	q := NewBuilder().Equals(rhythmdb.PropArtist, "Radiohead").Build()
	get := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropArtist: {Str: radiohead},
	})

	if !Evaluate(q, get) {
		t.Fatal("expected match on equal artist")
	}

	other := pool.Intern("Portishead")
	get2 := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropArtist: {Str: other},
	})
	if Evaluate(q, get2) {
		t.Fatal("expected no match on different artist")
	}
}

func TestEvaluateDisjunction(t *testing.T) {
	pool := atom.NewPool(8)
	genre := pool.Intern("jazz")

	q := NewBuilder().
		Equals(rhythmdb.PropGenre, "rock").
		Or().
		Equals(rhythmdb.PropGenre, "jazz").
		Build()

	get := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropGenre: {Str: genre},
	})

	if !Evaluate(q, get) {
		t.Fatal("expected match on second disjunct")
	}
}

func TestEvaluateConjunction(t *testing.T) {
	pool := atom.NewPool(8)
	artist := pool.Intern("Radiohead")
	genre := pool.Intern("rock")

	q := NewBuilder().
		Equals(rhythmdb.PropArtist, "Radiohead").
		Equals(rhythmdb.PropGenre, "pop").
		Build()

	get := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropArtist: {Str: artist},
		rhythmdb.PropGenre:  {Str: genre},
	})

	if Evaluate(q, get) {
		t.Fatal("expected no match: genre clause fails the AND run")
	}
}

func TestLikeEmptyStringAlwaysMatches(t *testing.T) {
	q := NewBuilder().Like(rhythmdb.PropTitle, "").Build()
	get := valueGetter(nil)
	if !Evaluate(q, get) {
		t.Fatal("expected empty LIKE string to always match")
	}
}

func TestNumericComparisonOnNullEntryIsFalse(t *testing.T) {
	q := NewBuilder().Greater(rhythmdb.PropPlayCount, 5).Build()
	get := valueGetter(nil)
	if Evaluate(q, get) {
		t.Fatal("expected numeric comparison on unset value to return false")
	}
}

func TestCurrentTimeWithinZeroMatchesOnlyFuture(t *testing.T) {
	q := NewBuilder().CurrentTimeWithin(rhythmdb.PropLastPlayed, 0).Build()

	future := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropLastPlayed: {Timestamp: time.Now().Add(time.Hour).Unix()},
	})
	if !Evaluate(q, future) {
		t.Fatal("expected CURRENT_TIME_WITHIN 0 to match a future timestamp")
	}

	past := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropLastPlayed: {Timestamp: time.Now().Add(-time.Hour).Unix()},
	})
	if Evaluate(q, past) {
		t.Fatal("expected CURRENT_TIME_WITHIN 0 not to match a past timestamp")
	}
}

func TestPreprocessSearchMatchExpandsToSubquery(t *testing.T) {
	q := NewBuilder().Like(rhythmdb.PropSearchMatch, "Floyd").Build()
	pre := Preprocess(q)

	if len(pre.Clauses) != 1 || pre.Clauses[0].Kind != Subquery {
		t.Fatalf("expected SEARCH_MATCH to expand into a single Subquery clause, got %+v", pre.Clauses)
	}

	pool := atom.NewPool(8)
	artist := pool.Intern("Pink Floyd")
	get := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropArtist: {Str: artist},
	})
	if !Evaluate(pre, get) {
		t.Fatal("expected expanded SEARCH_MATCH to match on artist substring")
	}
}

func TestPreprocessFoldsLikeComparand(t *testing.T) {
	q := NewBuilder().Like(rhythmdb.PropTitle, "HELLO").Build()
	pre := Preprocess(q)

	if pre.Clauses[0].Str != "hello" {
		t.Fatalf("expected folded comparand %q, got %q", "hello", pre.Clauses[0].Str)
	}
}

func TestPreprocessYearEqualsCanonicalisesToRange(t *testing.T) {
	q := NewBuilder().YearEquals(rhythmdb.PropDate, 1994).Build()
	pre := Preprocess(q)

	if len(pre.Clauses) != 2 || pre.Clauses[0].Kind != Greater || pre.Clauses[1].Kind != Less {
		t.Fatalf("expected YEAR_EQUALS to canonicalise into Greater+Less, got %+v", pre.Clauses)
	}

	get := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropDate: {JulianDay: julianDay(1994, 6, 15)},
	})
	if !Evaluate(pre, get) {
		t.Fatal("expected a mid-1994 date to match YEAR_EQUALS 1994")
	}

	get2 := valueGetter(map[rhythmdb.Property]rhythmdb.Value{
		rhythmdb.PropDate: {JulianDay: julianDay(1995, 6, 15)},
	})
	if Evaluate(pre, get2) {
		t.Fatal("expected a 1995 date not to match YEAR_EQUALS 1994")
	}
}

func TestMarshalUnmarshalRoundTrip(t *testing.T) {
	q := NewBuilder().
		Equals(rhythmdb.PropArtist, "Radiohead").
		Or().
		Subquery(NewBuilder().Equals(rhythmdb.PropGenre, "rock").Build()).
		Build()

	data, err := Marshal(q)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	got, err := Unmarshal(data)
	if err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(got.Clauses) != len(q.Clauses) {
		t.Fatalf("round trip clause count mismatch: got %d, want %d", len(got.Clauses), len(q.Clauses))
	}
	if got.Clauses[0].Kind != Equals || got.Clauses[0].Str != "Radiohead" {
		t.Fatalf("round trip lost first clause: %+v", got.Clauses[0])
	}
	if got.Clauses[2].Kind != Subquery || got.Clauses[2].Sub == nil {
		t.Fatalf("round trip lost subquery clause: %+v", got.Clauses[2])
	}
}

func TestUnmarshalUnknownPropertyError(t *testing.T) {
	data := []byte(`<query><clause kind="equals" property="not-a-real-property">x</clause></query>`)
	if _, err := Unmarshal(data); err == nil {
		t.Fatal("expected error for unknown property name")
	}
}

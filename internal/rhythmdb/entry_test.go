// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package rhythmdb

import "testing"

// TestDeriveSiblingsFoldedAndSortKey matches the title-property scenario: set
// title to "FOO", expect a non-ASCII-safe folded form and a non-empty sort
// key; change it to "BAR" and expect both siblings to track the change.
func TestDeriveSiblingsFoldedAndSortKey(t *testing.T) {
	s, song := newTestStore(t)

	e, err := s.New(song, "file:///music/a.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Set(e, PropTitle, Value{Str: s.InternAtom("FOO")})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}

	if got := e.Get(PropTitleFolded).Str; got == nil || got.String() != "foo" {
		t.Fatalf("PropTitleFolded = %v, want \"foo\"", got)
	}
	if got := e.Get(PropTitleSortKey).Str; got == nil || got.String() == "" {
		t.Fatalf("PropTitleSortKey = %v, want non-empty", got)
	}

	s.Set(e, PropTitle, Value{Str: s.InternAtom("BAR")})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}

	if got := e.Get(PropTitleFolded).Str; got == nil || got.String() != "bar" {
		t.Fatalf("PropTitleFolded = %v, want \"bar\"", got)
	}
}

// TestDeriveSiblingsNonASCIIMatchesAtomFolding covers the case the query
// package's preprocessing must also agree on: folding non-ASCII text.
func TestDeriveSiblingsNonASCIIMatchesAtomFolding(t *testing.T) {
	s, song := newTestStore(t)
	e, err := s.New(song, "file:///music/b.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Set(e, PropArtist, Value{Str: s.InternAtom("CAFÉ")})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}

	want := s.InternAtom("CAFÉ").Folded()
	if got := e.Get(PropArtistFolded).Str; got == nil || got.String() != want {
		t.Fatalf("PropArtistFolded = %v, want %q", got, want)
	}
}

// TestDeriveSiblingsSortnameCascade covers the sortname-cascade rule: setting
// a *_SORTNAME property re-derives the paired display property's sort key
// from the sortname atom rather than the display text's own atom.
func TestDeriveSiblingsSortnameCascade(t *testing.T) {
	s, song := newTestStore(t)
	e, err := s.New(song, "file:///music/c.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Set(e, PropArtist, Value{Str: s.InternAtom("The Beatles")})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}
	fromDisplay := e.Get(PropArtistSortKey).Str.String()

	s.Set(e, PropArtistSortname, Value{Str: s.InternAtom("Beatles, The")})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}
	fromSortname := e.Get(PropArtistSortKey).Str.String()

	if fromSortname == fromDisplay {
		t.Fatal("expected PropArtistSortKey to change once the sortname variant was set")
	}
	if got := e.Get(PropArtistSortnameFolded).Str; got == nil || got.String() != "beatles, the" {
		t.Fatalf("PropArtistSortnameFolded = %v, want \"beatles, the\"", got)
	}
}

// TestDeriveSiblingsTimestampFormatted covers the timestamp formatted-string
// sibling: setting PropLastPlayed must produce an RFC 3339 rendering.
func TestDeriveSiblingsTimestampFormatted(t *testing.T) {
	s, song := newTestStore(t)
	e, err := s.New(song, "file:///music/d.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	s.Set(e, PropLastPlayed, Value{Timestamp: 1700000000})
	if _, deleted := e.ApplyPending(); deleted {
		t.Fatal("unexpected deletion")
	}

	got := e.Get(PropLastPlayedFormatted).Str
	if got == nil || got.String() != "2023-11-14T22:13:20Z" {
		t.Fatalf("PropLastPlayedFormatted = %v, want \"2023-11-14T22:13:20Z\"", got)
	}
}

// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package rhythmdb

import "testing"

func TestLookupByName(t *testing.T) {
	prop, ok := LookupByName("artist")
	if !ok || prop != PropArtist {
		t.Fatalf("LookupByName(artist) = %v, %v", prop, ok)
	}

	if _, ok := LookupByName("not-a-real-property"); ok {
		t.Fatal("expected LookupByName to fail for an unknown name")
	}
}

func TestSortnamePairing(t *testing.T) {
	sortname, ok := PropArtist.SortnameOf()
	if !ok || sortname != PropArtistSortname {
		t.Fatalf("PropArtist.SortnameOf() = %v, %v", sortname, ok)
	}

	display, isSortname := PropArtistSortname.IsSortname()
	if !isSortname || display != PropArtist {
		t.Fatalf("PropArtistSortname.IsSortname() = %v, %v", display, isSortname)
	}

	if _, ok := PropLocation.SortnameOf(); ok {
		t.Fatal("expected location to have no sortname variant")
	}
}

func TestPersistableExcludesSynthetic(t *testing.T) {
	if PropSearchMatch.Persistable() {
		t.Fatal("expected search-match to be non-persistable")
	}
	if PropStreamTitle.Persistable() {
		t.Fatal("expected stream-title to be non-persistable")
	}
	if !PropTitle.Persistable() {
		t.Fatal("expected title to be persistable")
	}
}

func TestPropertiesInPersistOrderExcludesSynthetic(t *testing.T) {
	props := PropertiesInPersistOrder()
	for _, p := range props {
		if p == PropSearchMatch || p == PropStreamTitle || p == PropStreamArtist || p == PropStreamAlbum {
			t.Fatalf("expected %v to be excluded from persisted properties", p)
		}
	}
	if len(props) == 0 {
		t.Fatal("expected at least one persistable property")
	}
}

func TestValueTypes(t *testing.T) {
	cases := []struct {
		prop Property
		want ValueType
	}{
		{PropLocation, TypeString},
		{PropTrackNumber, TypeULong},
		{PropRating, TypeDouble},
		{PropHidden, TypeBoolean},
		{PropLastPlayed, TypeTimestamp},
		{PropDate, TypeJulianDay},
		{PropDuration, TypeInt64},
	}
	for _, tc := range cases {
		if got := tc.prop.ValueType(); got != tc.want {
			t.Errorf("%v.ValueType() = %v, want %v", tc.prop, got, tc.want)
		}
	}
}

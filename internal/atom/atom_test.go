// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package atom

import (
	"bytes"
	"testing"
)

func TestInternReturnsSamePointer(t *testing.T) {
	p := NewPool(16)

	a1 := p.Intern("Radiohead")
	a2 := p.Intern("Radiohead")

	if a1 != a2 {
		t.Fatalf("expected Intern to return the same *Atom for equal strings")
	}
	if got := a1.RefCount(); got != 2 {
		t.Fatalf("expected refcount 2 after two Interns, got %d", got)
	}
}

func TestInternDistinctStringsDistinctAtoms(t *testing.T) {
	p := NewPool(16)

	a1 := p.Intern("Radiohead")
	a2 := p.Intern("Portishead")

	if a1 == a2 {
		t.Fatalf("expected distinct atoms for distinct strings")
	}
}

func TestFoldedForm(t *testing.T) {
	p := NewPool(16)

	a := p.Intern("The Smashing Pumpkins")
	if got, want := a.Folded(), "the smashing pumpkins"; got != want {
		t.Fatalf("Folded() = %q, want %q", got, want)
	}
}

func TestReleaseEvictsAtZeroRefcount(t *testing.T) {
	p := NewPool(16)

	a := p.Intern("Ride")
	p.Release(a)

	if _, ok := p.Lookup("Ride"); ok {
		t.Fatalf("expected atom to be evicted once refcount reaches zero")
	}
	if p.Size() != 0 {
		t.Fatalf("expected pool size 0 after release, got %d", p.Size())
	}

	// A subsequent Intern must allocate a fresh atom rather than resurrect
	// the released one.
	b := p.Intern("Ride")
	if b == a {
		t.Fatalf("expected a fresh atom after eviction, got the released instance")
	}
}

func TestReleaseDecrementsWithoutEviction(t *testing.T) {
	p := NewPool(16)

	a1 := p.Intern("Slowdive")
	_ = p.Intern("Slowdive")

	p.Release(a1)

	if got := a1.RefCount(); got != 1 {
		t.Fatalf("expected refcount 1 after one release of two references, got %d", got)
	}
	if _, ok := p.Lookup("Slowdive"); !ok {
		t.Fatalf("expected atom to remain interned while refcount > 0")
	}
}

func TestReleaseNilIsNoOp(t *testing.T) {
	p := NewPool(16)
	p.Release(nil)
}

func TestMatchFolded(t *testing.T) {
	p := NewPool(16)
	p.Intern("Panda Bear")
	p.Intern("Animal Collective")
	p.Intern("Grizzly Bear")

	matches := p.MatchFolded("bear")
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for %q, got %d", "bear", len(matches))
	}
}

func TestSortKeyOrdersCaseInsensitively(t *testing.T) {
	p := NewPool(16)

	lower := p.Intern("abba")
	upper := p.Intern("ABBA")

	if lower.SortKey() == nil || upper.SortKey() == nil {
		t.Fatalf("expected non-nil sort keys")
	}

	// Raw bytes put "Banana" before "apple"; a case-insensitive collation
	// orders by letter instead.
	apple := p.Intern("apple")
	banana := p.Intern("Banana")
	if bytes.Compare(apple.SortKey(), banana.SortKey()) >= 0 {
		t.Fatalf("expected sort key of %q to order before %q", "apple", "Banana")
	}
}

func TestSize(t *testing.T) {
	p := NewPool(16)
	if p.Size() != 0 {
		t.Fatalf("expected empty pool size 0, got %d", p.Size())
	}

	p.Intern("a")
	p.Intern("b")
	p.Intern("a")

	if p.Size() != 2 {
		t.Fatalf("expected 2 distinct atoms, got %d", p.Size())
	}
}

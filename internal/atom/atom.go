// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package atom implements the interned, refcounted string pool that backs
// every string-valued entry property. Two entries that share a string value
// (an artist name, a genre, a MIME type) share the same *Atom: property sets
// compare by pointer, not by byte content, and the pool holds exactly one
// copy of each distinct string regardless of how many entries reference it.
//
// Each Atom also carries two derived siblings computed once at intern time:
// a case-folded form (for SEARCH_MATCH-style substring matching) and a
// collation sort key (for locale-aware ordering). Both are expensive to
// compute, so the pool amortizes that cost across every entry that shares
// the string.
package atom

import (
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/tomtom215/rhythmdb/internal/cache"
)

// Atom is one interned string and its derived forms. Atoms are immutable
// after construction; only the refcount changes over an Atom's lifetime.
// The zero value is not usable; Atoms are only produced by a Pool.
type Atom struct {
	raw      string
	folded   string
	sortKey  []byte
	refcount atomic.Int32
}

// String returns the atom's original, unfolded value.
func (a *Atom) String() string { return a.raw }

// Folded returns the case-folded form used for substring (SEARCH_MATCH)
// matching.
func (a *Atom) Folded() string { return a.folded }

// SortKey returns the collation sort key used to order atoms by locale
// rules rather than by raw byte value.
func (a *Atom) SortKey() []byte { return a.sortKey }

// RefCount returns the atom's current reference count. Intended for
// diagnostics and tests; callers must not use it to make concurrency
// decisions, since the count can change the instant it is read.
func (a *Atom) RefCount() int32 { return a.refcount.Load() }

// Pool is the process-wide interned string table. A Pool is safe for
// concurrent use; Intern and Release are the only operations that take its
// write lock, and both are cheap relative to the folding/collation work
// they amortize.
type Pool struct {
	mu      sync.RWMutex
	byRaw   map[string]*Atom
	folded  *cache.Trie        // folded string -> *Atom, kept in step with byRaw; no lookup reads it
	present *cache.BloomFilter // fast negative pre-check before taking mu

	collator *collate.Collator
}

// NewPool constructs an empty atom pool sized for expectedAtoms distinct
// strings. A realistic library has on the order of tens of thousands of
// distinct artist/album/genre/title strings; callers size expectedAtoms to
// that estimate so the Bloom filter's false-positive rate stays low.
func NewPool(expectedAtoms int) *Pool {
	if expectedAtoms <= 0 {
		expectedAtoms = 50000
	}
	return &Pool{
		byRaw:    make(map[string]*Atom, expectedAtoms),
		folded:   cache.NewTrie(),
		present:  cache.NewBloomFilter(expectedAtoms, 0.01),
		collator: collate.New(language.Und, collate.IgnoreCase, collate.IgnoreDiacritics),
	}
}

// Intern returns the pool's Atom for raw, creating and inserting one if none
// exists yet. Every call increments the returned Atom's refcount; callers
// own exactly one reference per Intern call and must pair it with Release.
func (p *Pool) Intern(raw string) *Atom {
	// Fast path: Bloom filter says "definitely not present" for a brand new
	// string, so skip straight to the write path without taking the read
	// lock twice.
	if p.present.Test(raw) {
		p.mu.RLock()
		if a, ok := p.byRaw[raw]; ok {
			a.refcount.Add(1)
			p.mu.RUnlock()
			return a
		}
		p.mu.RUnlock()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if a, ok := p.byRaw[raw]; ok {
		a.refcount.Add(1)
		return a
	}

	a := &Atom{
		raw:     raw,
		folded:  foldCase(raw),
		sortKey: p.collator.Key(&collate.Buffer{}, []byte(raw)),
	}
	a.refcount.Store(1)

	p.byRaw[raw] = a
	p.present.Add(raw)
	p.folded.InsertWithData(a.folded, a)

	return a
}

// Release drops one reference to a. When the refcount reaches zero the atom
// is removed from the pool; a subsequent Intern of the same string allocates
// a fresh Atom. Release is a no-op if a is nil.
func (p *Pool) Release(a *Atom) {
	if a == nil {
		return
	}
	if a.refcount.Add(-1) > 0 {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	// Another Intern may have raced in and bumped the refcount back up
	// between the Add above and taking the lock; re-check before evicting.
	if a.refcount.Load() > 0 {
		return
	}
	if cur, ok := p.byRaw[a.raw]; ok && cur == a {
		delete(p.byRaw, a.raw)
		p.folded.Delete(a.folded)
	}
}

// Lookup returns the existing Atom for raw without interning a new one, and
// false if no such atom is currently held. It does not affect refcount.
func (p *Pool) Lookup(raw string) (*Atom, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	a, ok := p.byRaw[raw]
	return a, ok
}

// Size returns the number of distinct atoms currently interned.
func (p *Pool) Size() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.byRaw)
}

// MatchFolded returns every atom whose folded form contains the folded form
// of substr, for SEARCH_MATCH-style filtering. It does not affect refcount.
func (p *Pool) MatchFolded(substr string) []*Atom {
	needle := foldCase(substr)

	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []*Atom
	for _, a := range p.byRaw {
		if containsFold(a.folded, needle) {
			out = append(out, a)
		}
	}
	return out
}

// FoldCase normalizes raw for folded-form comparison (the case-folded
// sibling property, SEARCH_MATCH, LIKE/PREFIX/SUFFIX). Rhythmbox's own fold
// function additionally strips diacritics; here case-folding is layered
// with the collator's IgnoreDiacritics option at sort-key time, so
// folded-form comparisons and sort-key comparisons stay consistent without
// duplicating diacritic-stripping logic in two places. Exported so every
// package that needs to fold text before comparing it against an atom's
// cached folded form — query preprocessing included — folds exactly the
// same way the atom pool does, full-Unicode rather than ASCII-only.
func FoldCase(raw string) string {
	return strings.ToLower(raw)
}

func foldCase(raw string) string {
	return FoldCase(raw)
}

// containsFold reports whether haystack contains needle, both already
// case-folded.
func containsFold(haystack, needle string) bool {
	return strings.Contains(haystack, needle)
}

// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package rhythmdb implements the central entry store: the typed, refcounted
// record type (Entry) and the container (Store) that indexes entries by
// location and by stable integer ID, exposes read accessors that never
// block behind the writer, and stages property/deletion changes for the
// commit engine to apply.
package rhythmdb

import (
	"crypto/md5"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/metrics"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// StreamingMetadata holds the non-persistent, per-entry metadata a radio
// stream reports out-of-band (ICY-style title/artist/album tags). It lives
// in a parallel map alongside the primary store, the way the teacher package
// keeps its tile/statement caches alongside the primary database connection.
type StreamingMetadata struct {
	Title  string
	Artist string
	Album  string
}

// Store is the entry database's central container. It owns every live
// entry: Ref/Unref and deletion lifecycle are all mediated here. Only the
// commit engine calls the staging-committing half of this API
// (DrainDirty, Entry.ApplyPending, FinalizeDeletion); any goroutine may call the read accessors
// and the entry_set/entry_delete staging calls.
type Store struct {
	atoms *atom.Pool
	types *entrytype.Registry

	// byLocation maps a location atom to its live *Entry. It is a sync.Map
	// updated in place (LoadOrStore on New, Delete on deletion and
	// relocation), so readers via Load need no lock.
	byLocation sync.Map // *atom.Atom -> *Entry

	// byID is a slab of entry slots indexed by (id-1); freeIDs recycles slots
	// whose entry has been fully unreferenced.
	idMu    sync.Mutex
	byID    []atomic.Pointer[Entry]
	freeIDs []uint32

	extraMu sync.Mutex
	extra   map[*Entry]*StreamingMetadata

	// dirty holds every entry with a staged change or deletion not yet
	// picked up by the commit engine's DrainDirty call.
	dirty sync.Map // *Entry -> struct{}
}

// NewStore constructs an empty store bound to the given atom pool and
// entry-type registry.
func NewStore(atoms *atom.Pool, types *entrytype.Registry) *Store {
	return &Store{
		atoms: atoms,
		types: types,
		extra: make(map[*Entry]*StreamingMetadata),
	}
}

// New reserves storage for a new entry of type ty at location, invoking the
// type's Created hook. The entry is indexed by location and ID at once, so
// LookupByLocation and LookupByID find it before any commit; Committed
// reports false, and no entry-added notification is published for it,
// until it survives its first commit.
func (s *Store) New(ty *entrytype.Type, location string) (*Entry, error) {
	locAtom := s.atoms.Intern(location)

	if _, exists := s.byLocation.Load(locAtom); exists {
		s.atoms.Release(locAtom)
		return nil, rhythmdberrors.Conflict("location %q already present", location)
	}

	e := &Entry{Type: ty, pool: s.atoms}
	e.location.Store(locAtom)
	e.refcount.Store(1)

	id := s.allocateID(e)
	e.id = id

	// Reserve the location slot immediately so a concurrent New for the same
	// location fails with Conflict even before the first commit, matching
	// the store's "at most one live entry per location" invariant.
	if _, loaded := s.byLocation.LoadOrStore(locAtom, e); loaded {
		s.releaseID(id)
		s.atoms.Release(locAtom)
		return nil, rhythmdberrors.Conflict("location %q already present", location)
	}

	if ty != nil && ty.Created != nil {
		ty.Created(e)
	}

	// A freshly reserved entry is swept into the next commit even if no
	// property has been staged yet: it must still receive its one
	// entry-added emission before it becomes visible to queries.
	s.dirty.Store(e, struct{}{})

	return e, nil
}

// allocateID assigns e a stable per-process integer ID, reusing a recycled
// slot when one is available.
func (s *Store) allocateID(e *Entry) uint32 {
	s.idMu.Lock()
	defer s.idMu.Unlock()

	if n := len(s.freeIDs); n > 0 {
		id := s.freeIDs[n-1]
		s.freeIDs = s.freeIDs[:n-1]
		s.byID[id-1].Store(e)
		return id
	}

	s.byID = append(s.byID, atomic.Pointer[Entry]{})
	id := uint32(len(s.byID))
	s.byID[id-1].Store(e)
	return id
}

// releaseID recycles id's slot for reuse by a future New call.
func (s *Store) releaseID(id uint32) {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	s.byID[id-1].Store(nil)
	s.freeIDs = append(s.freeIDs, id)
}

// LookupByLocation returns the live entry at uri, ignoring its hidden flag.
func (s *Store) LookupByLocation(uri string) (*Entry, bool) {
	locAtom, ok := s.atoms.Lookup(uri)
	if !ok {
		return nil, false
	}
	v, ok := s.byLocation.Load(locAtom)
	if !ok {
		return nil, false
	}
	return v.(*Entry), true
}

// LookupByID returns the entry with the given stable integer ID.
func (s *Store) LookupByID(id uint32) (*Entry, bool) {
	if id == 0 || int(id) > len(s.byID) {
		return nil, false
	}
	e := s.byID[id-1].Load()
	if e == nil {
		return nil, false
	}
	return e, true
}

// Ref increments e's reference count.
func (s *Store) Ref(e *Entry) { e.Ref() }

// Unref decrements e's reference count. At zero, the type's Destroy hook
// runs, any referenced string atoms are released, the entry's streaming
// metadata is dropped, and its ID slot is recycled.
func (s *Store) Unref(e *Entry) {
	if e.refcount.Add(-1) > 0 {
		return
	}

	if e.Type != nil && e.Type.Destroy != nil {
		e.Type.Destroy(e)
	}

	for i := Property(0); i < propCount; i++ {
		if propertyTable[i].valueType == TypeString {
			if a := e.values[i].Str; a != nil {
				s.atoms.Release(a)
			}
		}
	}
	if loc := e.Location(); loc != nil {
		s.atoms.Release(loc)
	}

	s.extraMu.Lock()
	delete(s.extra, e)
	s.extraMu.Unlock()

	s.releaseID(e.id)
}

// ForEach calls fn for every entry in the location index, committed or
// not. It ranges over the index without a lock and without a snapshot:
// entries added or removed during the call may or may not be visited, and
// fn must not assume entries it was not handed still exist after ForEach
// returns.
func (s *Store) ForEach(fn func(*Entry)) {
	s.byLocation.Range(func(_, v any) bool {
		fn(v.(*Entry))
		return true
	})
}

// ForEachByType calls fn for every live entry whose type is ty.
func (s *Store) ForEachByType(ty *entrytype.Type, fn func(*Entry)) {
	s.ForEach(func(e *Entry) {
		if e.Type == ty {
			fn(e)
		}
	})
}

// Get returns prop's current committed value on e.
func (s *Store) Get(e *Entry, prop Property) Value { return e.Get(prop) }

// Set stages a write to prop on e, to be applied at the next commit.
func (s *Store) Set(e *Entry, prop Property, v Value) {
	e.stage(prop, v)
	s.dirty.Store(e, struct{}{})
}

// Delete stages e's removal at the next commit.
func (s *Store) Delete(e *Entry) {
	e.stageDelete()
	s.dirty.Store(e, struct{}{})
}

// DrainDirty atomically removes and returns every entry created, changed,
// or deleted since the last DrainDirty call, for the commit engine to
// process.
func (s *Store) DrainDirty() []*Entry {
	var out []*Entry
	s.dirty.Range(func(k, _ any) bool {
		out = append(out, k.(*Entry))
		s.dirty.Delete(k)
		return true
	})
	return out
}

// InternAtom interns raw into the store's shared atom pool, for callers
// (load-time migrations) that need an atom handle without going through
// New/Set on an owning entry.
func (s *Store) InternAtom(raw string) *atom.Atom {
	return s.atoms.Intern(raw)
}

// Relocate rewrites e's location atom and re-indexes e under the new
// location. It exists only for load-time migrations reconstructing a
// legacy combined location into its current split form before the entry's
// first commit; callers must never use it to rename a live, queryable
// entry, since it bypasses the staging/commit discipline entirely.
func (s *Store) Relocate(e *Entry, newLocation string) {
	old := e.Location()
	newAtom := s.atoms.Intern(newLocation)
	if old != nil {
		s.byLocation.Delete(old)
		s.atoms.Release(old)
	}
	e.location.Store(newAtom)
	s.byLocation.Store(newAtom, e)
}

// removeFromLocationIndex drops e from the location index immediately; the
// commit engine calls this the instant a deletion is applied, per the
// store's "immediately removed from the location index" invariant, even
// though the Entry struct itself survives until the last Unref.
func (s *Store) removeFromLocationIndex(e *Entry) {
	if loc := e.Location(); loc != nil {
		s.byLocation.Delete(loc)
	}
}

// FinalizeDeletion removes e from the location index and drops the store's
// own reference on it. External holders (query models, property models)
// keep their own references, so the Entry itself survives until they Unref
// it too. Only the commit engine calls this, once per staged deletion it
// applies.
func (s *Store) FinalizeDeletion(e *Entry) {
	s.removeFromLocationIndex(e)
	s.Unref(e)
}

// SetStreamingTitle records streaming title metadata for e without staging
// it through the commit engine; streaming metadata is non-persistent and
// bypasses entry_set entirely.
func (s *Store) SetStreamingTitle(e *Entry, title string) { s.setStreaming(e, func(m *StreamingMetadata) { m.Title = title }) }

// SetStreamingArtist records streaming artist metadata for e.
func (s *Store) SetStreamingArtist(e *Entry, artist string) {
	s.setStreaming(e, func(m *StreamingMetadata) { m.Artist = artist })
}

// SetStreamingAlbum records streaming album metadata for e.
func (s *Store) SetStreamingAlbum(e *Entry, album string) {
	s.setStreaming(e, func(m *StreamingMetadata) { m.Album = album })
}

// StreamingMetadataFor returns e's current streaming metadata, or the zero
// value if none has been set.
func (s *Store) StreamingMetadataFor(e *Entry) StreamingMetadata {
	s.extraMu.Lock()
	defer s.extraMu.Unlock()
	if m, ok := s.extra[e]; ok {
		return *m
	}
	return StreamingMetadata{}
}

func (s *Store) setStreaming(e *Entry, mutate func(*StreamingMetadata)) {
	s.extraMu.Lock()
	defer s.extraMu.Unlock()
	m, ok := s.extra[e]
	if !ok {
		m = &StreamingMetadata{}
		s.extra[e] = m
	}
	mutate(m)
}

// Fingerprint computes the deterministic track fingerprint the sync engine
// uses to match local entries against a target device's itinerary:
// MD5(title‖artist‖genre‖album‖track‖disc).
func Fingerprint(e *Entry) [16]byte {
	title := stringOf(e.Get(PropTitle))
	artist := stringOf(e.Get(PropArtist))
	genre := stringOf(e.Get(PropGenre))
	album := stringOf(e.Get(PropAlbum))
	track := e.Get(PropTrackNumber).ULong
	disc := e.Get(PropDiscNumber).ULong

	input := fmt.Sprintf("%s\x00%s\x00%s\x00%s\x00%d\x00%d", title, artist, genre, album, track, disc)
	return md5.Sum([]byte(input))
}

func stringOf(v Value) string {
	if v.Str == nil {
		return ""
	}
	return v.Str.String()
}

// Size returns the number of entries currently in the location index,
// across all types. The per-type rhythmdb_entries_live gauge is set by
// ReportLiveCounts, not from Size.
func (s *Store) Size() int {
	n := 0
	s.byLocation.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// ReportLiveCounts recomputes and exports the per-type live entry gauge.
// cmd/rhythmdb-bench calls it periodically from a supervisor.TickerService
// registered in the maintenance layer.
func (s *Store) ReportLiveCounts() {
	counts := make(map[string]int)
	s.ForEach(func(e *Entry) {
		if e.Type != nil {
			counts[e.Type.Name]++
		}
	})
	for name, n := range counts {
		metrics.EntriesLive.WithLabelValues(name).Set(float64(n))
	}
}

// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package rhythmdb

import (
	"encoding/hex"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
)

// TypeExtra holds type-specific trailer state (e.g. a podcast feed's parsed
// channel metadata) that does not fit the fixed property slots. Entry types
// that need no trailer leave this nil.
type TypeExtra interface{}

// pendingChange records one staged write to a single property: the
// pre-change value (kept from the first write within the staging window)
// and the most recently staged value (kept from the last write).
type pendingChange struct {
	prop Property
	old  Value
	new  Value
}

// Entry is the central record: a URI-identified, typed, refcounted row with
// a fixed set of typed property slots plus an optional type-specific
// trailer. Entries are never copied; every reference is a *Entry pointer
// shared between the store, query models, and property models.
//
// The zero value is not usable; entries are only created by Store.New.
type Entry struct {
	// id is the entry's stable per-process integer handle, used only by
	// entry_lookup_by_id and never persisted.
	id uint32

	// Type is immutable for the lifetime of the entry.
	Type *entrytype.Type

	// pool is the atom pool this entry's owning Store interns through. It is
	// set once by Store.New and used only by ApplyPending to intern derived
	// folded/sort-key/formatted sibling values.
	pool *atom.Pool

	// location is the entry's unique identifying URI. Storing it outside the
	// generic properties slice keeps the hot path (store indexing, conflict
	// checks) free of a type-switch.
	location atomic.Pointer[atom.Atom]

	values [propCount]Value
	// valuesMu guards values: commit-time writes take its write lock and
	// reads take its RLock, so entry_get never blocks behind a staged write.
	valuesMu sync.RWMutex

	// deleted is set once entry_delete has staged a deletion; the entry
	// remains reachable by existing holders until refcount drops to zero.
	deleted atomic.Bool

	refcount atomic.Int32

	// committed is true once this entry has survived at least one commit,
	// i.e. it is visible to queries. A freshly entry_new'd entry is false
	// until its first commit.
	committed atomic.Bool

	keywordsMu sync.Mutex
	keywords   map[*atom.Atom]struct{}

	pendingMu sync.Mutex
	pending   map[Property]*pendingChange
	pendingDeleted bool

	Extra TypeExtra
}

// ID returns the entry's stable per-process integer handle.
func (e *Entry) ID() uint32 { return e.id }

// Location returns the entry's identifying URI atom.
func (e *Entry) Location() *atom.Atom { return e.location.Load() }

// Hidden reports whether the entry's committed hidden property is set.
func (e *Entry) Hidden() bool { return e.Get(PropHidden).Bool }

// Deleted reports whether entry_delete has staged (or committed) a
// deletion for this entry.
func (e *Entry) Deleted() bool { return e.deleted.Load() }

// Committed reports whether the entry has survived at least one commit and
// is therefore visible to queries.
func (e *Entry) Committed() bool { return e.committed.Load() }

// Ref increments the entry's reference count. Every holder of a *Entry
// pointer beyond the store itself (a query model, a property model's
// representative slot) must call Ref when it starts holding the pointer.
func (e *Entry) Ref() { e.refcount.Add(1) }

// RefCount returns the entry's current reference count, for diagnostics.
func (e *Entry) RefCount() int32 { return e.refcount.Load() }

// Get returns the current committed value of prop. Reads are lock-free with
// respect to staged (uncommitted) writes: Get always returns the
// last-committed value, never a pending one.
func (e *Entry) Get(prop Property) Value {
	if prop == PropLocation {
		return Value{Str: e.Location()}
	}
	e.valuesMu.RLock()
	defer e.valuesMu.RUnlock()
	return e.values[prop]
}

// setCommitted applies a value directly, bypassing staging. Only the commit
// engine calls this, already holding the entry out of any concurrent
// accessor's way by virtue of the single-writer discipline.
func (e *Entry) setCommitted(prop Property, v Value) {
	if prop == PropLocation {
		e.location.Store(v.Str)
		return
	}
	e.valuesMu.Lock()
	e.values[prop] = v
	e.valuesMu.Unlock()
}

// stage records a pending write to prop, to be applied at the next commit.
// The first staged write's old value is preserved across subsequent staged
// writes to the same property within the same staging window; only the
// newest new value survives.
func (e *Entry) stage(prop Property, newValue Value) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	if e.pending == nil {
		e.pending = make(map[Property]*pendingChange)
	}
	if existing, ok := e.pending[prop]; ok {
		existing.new = newValue
		return
	}
	e.pending[prop] = &pendingChange{
		prop: prop,
		old:  e.Get(prop),
		new:  newValue,
	}
}

// stageDelete marks the entry for deletion at the next commit.
func (e *Entry) stageDelete() {
	e.pendingMu.Lock()
	e.pendingDeleted = true
	e.pendingMu.Unlock()
}

// takePending atomically removes and returns the entry's staged changes and
// deletion flag, for the commit engine to apply. Returns ok=false if there
// was nothing staged.
func (e *Entry) takePending() (changes []*pendingChange, deleted bool, ok bool) {
	e.pendingMu.Lock()
	defer e.pendingMu.Unlock()

	if len(e.pending) == 0 && !e.pendingDeleted {
		return nil, false, false
	}
	for _, c := range e.pending {
		changes = append(changes, c)
	}
	deleted = e.pendingDeleted
	e.pending = nil
	e.pendingDeleted = false
	return changes, deleted, true
}

// PropertyChange is one (property, old, new) tuple produced by ApplyPending,
// already coalesced so it reflects the first pre-commit value and the last
// staged value for that property.
type PropertyChange struct {
	Property Property
	Old      Value
	New      Value
}

// ApplyPending applies every staged change to the entry's committed values
// and clears the staging area, returning the coalesced per-property changes
// and whether a deletion was staged. Only the commit engine calls this,
// under the single-writer discipline that makes the commit-time property
// swap safe without an entry-level lock beyond valuesMu.
func (e *Entry) ApplyPending() (changes []PropertyChange, deleted bool) {
	pending, wasDeleted, ok := e.takePending()
	if !ok {
		e.committed.Store(true)
		return nil, false
	}

	changes = make([]PropertyChange, 0, len(pending))
	for _, c := range pending {
		e.setCommitted(c.prop, c.new)
		changes = append(changes, PropertyChange{Property: c.prop, Old: c.old, New: c.new})
	}
	changes = append(changes, e.deriveSiblings(changes)...)

	if wasDeleted {
		e.deleted.Store(true)
	}
	e.committed.Store(true)

	return changes, wasDeleted
}

// deriveSiblings recomputes the folded/sort-key/formatted siblings affected
// by applied, the changes just written to e's committed values, and returns
// them as their own PropertyChange records so they flow through the same
// notification path as the writes that triggered them. Per the derived-field
// rule: setting any string property replaces its folded and sort-key
// siblings; setting a *_SORTNAME property additionally re-derives the paired
// display property's sort key, preferring the sortname atom's collation key
// over the display property's own; setting a timestamp replaces its
// locale-formatted string sibling.
func (e *Entry) deriveSiblings(applied []PropertyChange) []PropertyChange {
	touched := make(map[Property]struct{}, len(applied))
	for _, c := range applied {
		touched[c.Property] = struct{}{}
	}

	var derived []PropertyChange
	set := func(prop Property, v Value) {
		old := e.Get(prop)
		e.setCommitted(prop, v)
		derived = append(derived, PropertyChange{Property: prop, Old: old, New: v})
	}

	for prop := range touched {
		switch prop.ValueType() {
		case TypeString:
			a := e.Get(prop).Str
			if folded, ok := prop.FoldedSibling(); ok {
				set(folded, e.foldedValue(a))
			}
			if sortKey, ok := prop.SortKeySibling(); ok {
				set(sortKey, e.sortKeyValue(a))
			}
			// A *_SORTNAME write re-derives its paired display property's
			// sort key from the sortname atom, which collates the way the
			// user wants the display property ordered rather than the way
			// its own raw text would.
			if display, isSortname := prop.IsSortname(); isSortname {
				if sortKey, ok := display.SortKeySibling(); ok {
					set(sortKey, e.sortKeyValue(a))
				}
			}
		case TypeTimestamp:
			if formatted, ok := prop.FormattedSibling(); ok {
				set(formatted, e.formattedTimestampValue(e.Get(prop).Timestamp))
			}
		}
	}

	return derived
}

// foldedValue interns a's case-folded text as the Value for a folded
// sibling property.
func (e *Entry) foldedValue(a *atom.Atom) Value {
	if a == nil {
		return Value{}
	}
	return Value{Str: e.pool.Intern(a.Folded())}
}

// sortKeyValue interns a's collation sort key, hex-encoded so the arbitrary
// collation bytes survive as a valid string without themselves being folded
// or re-collated as if they were display text.
func (e *Entry) sortKeyValue(a *atom.Atom) Value {
	if a == nil {
		return Value{}
	}
	return Value{Str: e.pool.Intern(hex.EncodeToString(a.SortKey()))}
}

// formattedTimestampValue interns ts's RFC 3339 rendering as the Value for a
// formatted-string sibling property, matching the time format used
// elsewhere in this module (internal/logging's TimeFieldFormat).
func (e *Entry) formattedTimestampValue(ts int64) Value {
	if ts == 0 {
		return Value{}
	}
	return Value{Str: e.pool.Intern(time.Unix(ts, 0).UTC().Format(time.RFC3339))}
}

// HasKeyword reports whether kw is in the entry's keyword set.
func (e *Entry) HasKeyword(kw *atom.Atom) bool {
	e.keywordsMu.Lock()
	defer e.keywordsMu.Unlock()
	_, ok := e.keywords[kw]
	return ok
}

// AddKeyword adds kw to the entry's keyword set. Keyword mutation is
// immediate, not staged through the commit engine, per the keyword set's
// independence from the entry's committed properties.
func (e *Entry) AddKeyword(kw *atom.Atom) {
	e.keywordsMu.Lock()
	defer e.keywordsMu.Unlock()
	if e.keywords == nil {
		e.keywords = make(map[*atom.Atom]struct{})
	}
	e.keywords[kw] = struct{}{}
}

// RemoveKeyword removes kw from the entry's keyword set.
func (e *Entry) RemoveKeyword(kw *atom.Atom) {
	e.keywordsMu.Lock()
	defer e.keywordsMu.Unlock()
	delete(e.keywords, kw)
}

// Keywords returns a snapshot slice of the entry's current keyword atoms.
func (e *Entry) Keywords() []*atom.Atom {
	e.keywordsMu.Lock()
	defer e.keywordsMu.Unlock()
	out := make([]*atom.Atom, 0, len(e.keywords))
	for kw := range e.keywords {
		out = append(out, kw)
	}
	return out
}

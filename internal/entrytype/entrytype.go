// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Package entrytype implements the named registry of entry-kind descriptors.
// Every entry in the store carries a pointer to one *Type; the type names
// the entry's category, whether it should be persisted, and a set of
// lifecycle hooks the commit engine and sync layer call at the appropriate
// point. Go function values stand in for what the original implementation
// expressed as a vtable of class methods.
package entrytype

import (
	"sync"

	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

// Category distinguishes ordinary leaf entries from container entries (a
// podcast feed containing podcast posts).
type Category int

const (
	// CategoryNormal is a leaf entry: a song, stream, or podcast post.
	CategoryNormal Category = iota
	// CategoryContainer is a grouping entry: a podcast feed, a search folder.
	CategoryContainer
)

// Type is a registered entry-kind descriptor. Handles are borrowed: callers
// receive a *Type from Registry.Lookup and must not mutate it; the registry
// owns the only live copy for the process lifetime.
type Type struct {
	// Name uniquely identifies the type within a Registry.
	Name string

	// Category is CategoryNormal or CategoryContainer.
	Category Category

	// Persistent is false for synthetic types (podcast-search) that
	// should never be written to the saved database file.
	Persistent bool

	// Created is invoked immediately after entry_new reserves storage for a
	// new entry of this type, before the entry is staged for its first
	// commit. May be nil.
	Created func(entry any)

	// Destroy releases any type-specific trailer state held by entry. Called
	// once, after the entry's last reference drops. May be nil.
	Destroy func(entry any)

	// CanSyncMetadata reports whether the entry's underlying source supports
	// writing metadata changes back (e.g. ID3 tags). May be nil, in which
	// case the type is treated as never syncable.
	CanSyncMetadata func(entry any) bool

	// SyncMetadata pushes staged metadata changes back to the entry's
	// underlying source. May be nil.
	SyncMetadata func(entry any) error

	// GetPlaybackURI returns the URI a player should open to play entry,
	// which may differ from its location (e.g. a podcast post resolves to
	// its enclosure URL). May be nil, in which case callers fall back to the
	// entry's location.
	GetPlaybackURI func(entry any) string

	// CreateExtDBKey builds the cache key used to look up this entry's
	// associated external metadata (album art, lyrics). May be nil.
	CreateExtDBKey func(entry any) string
}

// Registry is the process-wide entry-type table. The zero value is not
// usable; construct with NewRegistry. A Registry is safe for concurrent use.
type Registry struct {
	types sync.Map // name (string) -> *Type
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register adds t to the registry under t.Name, failing with
// rhythmdberrors.KindConflict if a type with that name is already
// registered.
func (r *Registry) Register(t *Type) error {
	if t.Name == "" {
		return rhythmdberrors.Invalid("entry type must have a non-empty name")
	}
	if _, loaded := r.types.LoadOrStore(t.Name, t); loaded {
		return rhythmdberrors.Conflict("entry type %q already registered", t.Name)
	}
	return nil
}

// Lookup returns the registered type named name, or nil and false if no such
// type exists.
func (r *Registry) Lookup(name string) (*Type, bool) {
	v, ok := r.types.Load(name)
	if !ok {
		return nil, false
	}
	return v.(*Type), true
}

// Each calls fn once for every registered type, in no particular order.
// fn must not call Register or Unregister on r.
func (r *Registry) Each(fn func(*Type)) {
	r.types.Range(func(_, v any) bool {
		fn(v.(*Type))
		return true
	})
}

// Unregister removes the type named name. It is intended for tests; the
// production registry is populated once at startup via RegisterBuiltins and
// never shrinks thereafter.
func (r *Registry) Unregister(name string) {
	r.types.Delete(name)
}

// Builtin type names, matching the names built into the original
// implementation and therefore the names that appear in persisted database
// files and in queries built against them.
const (
	Song          = "song"
	IRadioStation = "iradio-station"
	PodcastPost   = "podcast-post"
	PodcastFeed   = "podcast-feed"
	PodcastSearch = "podcast-search"
	Ignore        = "ignore"
)

// RegisterBuiltins registers the six builtin entry types into r. It is
// called once at process startup, mirroring a configuration layer's
// defaults-population step: after this call every builtin name is resolvable
// via r.Lookup regardless of what the persisted database file contains.
func RegisterBuiltins(r *Registry) error {
	builtins := []*Type{
		{
			Name:       Song,
			Category:   CategoryNormal,
			Persistent: true,
		},
		{
			Name:       IRadioStation,
			Category:   CategoryNormal,
			Persistent: true,
		},
		{
			Name:       PodcastPost,
			Category:   CategoryNormal,
			Persistent: true,
		},
		{
			Name:       PodcastFeed,
			Category:   CategoryContainer,
			Persistent: true,
		},
		{
			// podcast-search is a transient UI-facing type: search results
			// are never written back to the saved file.
			Name:       PodcastSearch,
			Category:   CategoryNormal,
			Persistent: false,
		},
		{
			// ignore marks a location the user has asked never to
			// re-import; it carries no metadata of its own.
			Name:       Ignore,
			Category:   CategoryNormal,
			Persistent: true,
		},
	}

	for _, t := range builtins {
		if err := r.Register(t); err != nil {
			return err
		}
	}
	return nil
}

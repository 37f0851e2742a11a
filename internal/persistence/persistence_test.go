// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
	"github.com/tomtom215/rhythmdb/internal/rhythmdberrors"
)

type fixture struct {
	pool   *atom.Pool
	types  *entrytype.Registry
	song   *entrytype.Type
	post   *entrytype.Type
	store  *rhythmdb.Store
	bus    *notify.Bus
	engine *commit.Engine
	mgr    *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	pool := atom.NewPool(64)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	post, _ := types.Lookup(entrytype.PodcastPost)
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	t.Cleanup(func() { bus.Close() })
	engine := commit.New(store, bus)
	return &fixture{
		pool: pool, types: types, song: song, post: post,
		store: store, bus: bus, engine: engine,
		mgr: New(store, types, engine),
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e1, err := f.store.New(f.song, "file:///one.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.store.Set(e1, rhythmdb.PropTitle, rhythmdb.Value{Str: f.pool.Intern("First Light")})
	f.store.Set(e1, rhythmdb.PropArtist, rhythmdb.Value{Str: f.pool.Intern("Aurora")})
	f.store.Set(e1, rhythmdb.PropTrackNumber, rhythmdb.Value{ULong: 1})
	f.store.Set(e1, rhythmdb.PropDuration, rhythmdb.Value{Int64: 215})
	f.store.Set(e1, rhythmdb.PropRating, rhythmdb.Value{Double: 4.5})

	e2, err := f.store.New(f.song, "file:///two.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	f.store.Set(e2, rhythmdb.PropTitle, rhythmdb.Value{Str: f.pool.Intern("Second Light")})
	f.store.Set(e2, rhythmdb.PropHidden, rhythmdb.Value{Bool: true})

	if _, err := f.engine.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "library.xml")
	if err := f.mgr.Save(ctx, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	g := newFixture(t)
	if err := g.mgr.Load(ctx, path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	loaded, ok := g.store.LookupByLocation("file:///one.mp3")
	if !ok {
		t.Fatalf("entry at file:///one.mp3 not found after load")
	}
	if got := loaded.Get(rhythmdb.PropTitle).Str.String(); got != "First Light" {
		t.Fatalf("title = %q, want %q", got, "First Light")
	}
	if got := loaded.Get(rhythmdb.PropArtist).Str.String(); got != "Aurora" {
		t.Fatalf("artist = %q, want %q", got, "Aurora")
	}
	if got := loaded.Get(rhythmdb.PropTrackNumber).ULong; got != 1 {
		t.Fatalf("track-number = %d, want 1", got)
	}
	if got := loaded.Get(rhythmdb.PropDuration).Int64; got != 215 {
		t.Fatalf("duration = %d, want 215", got)
	}
	if got := loaded.Get(rhythmdb.PropRating).Double; got != 4.5 {
		t.Fatalf("rating = %v, want 4.5", got)
	}

	loaded2, ok := g.store.LookupByLocation("file:///two.mp3")
	if !ok {
		t.Fatalf("entry at file:///two.mp3 not found after load")
	}
	if !loaded2.Get(rhythmdb.PropHidden).Bool {
		t.Fatalf("hidden = false, want true")
	}
}

func TestLoadReturnsParseErrorOnMalformedXML(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "broken.xml")
	if err := os.WriteFile(path, []byte("<rhythmdb version=\"2\"><entry type=\"song\">"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	err := f.mgr.Load(context.Background(), path)
	var dbErr *rhythmdberrors.Error
	if !errors.As(err, &dbErr) || dbErr.Kind != rhythmdberrors.KindParseError {
		t.Fatalf("Load() error = %v, want KindParseError", err)
	}
}

func TestLoadReturnsIOErrorForMissingFile(t *testing.T) {
	f := newFixture(t)
	err := f.mgr.Load(context.Background(), filepath.Join(t.TempDir(), "nope.xml"))
	var dbErr *rhythmdberrors.Error
	if !errors.As(err, &dbErr) || dbErr.Kind != rhythmdberrors.KindIO {
		t.Fatalf("Load() error = %v, want KindIO", err)
	}
}

func TestLoadDropsEntryWithUnknownTypeButContinuesDocument(t *testing.T) {
	f := newFixture(t)
	doc := `<?xml version="1.0"?>
<rhythmdb version="2">
  <entry type="some-future-type">
    <location>file:///future.mp3</location>
  </entry>
  <entry type="song">
    <location>file:///known.mp3</location>
    <title>Known Entry</title>
  </entry>
</rhythmdb>`
	path := filepath.Join(t.TempDir(), "mixed.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := f.mgr.Load(context.Background(), path); err != nil {
		t.Fatalf("Load() error = %v, want nil (unknown-type entries are dropped, not fatal)", err)
	}

	if _, ok := f.store.LookupByLocation("file:///future.mp3"); ok {
		t.Fatalf("entry with unknown type was loaded, want dropped")
	}
	known, ok := f.store.LookupByLocation("file:///known.mp3")
	if !ok {
		t.Fatalf("known entry not loaded")
	}
	if got := known.Get(rhythmdb.PropTitle).Str.String(); got != "Known Entry" {
		t.Fatalf("title = %q, want %q", got, "Known Entry")
	}
}

func TestLoadAppliesPodcastMountpointMigrationFromVersion1(t *testing.T) {
	f := newFixture(t)
	doc := `<?xml version="1.0"?>
<rhythmdb version="1">
  <entry type="podcast-post">
    <location>http://cdn.example.com/feed::episode-42.mp3</location>
    <title>Episode Forty-Two</title>
  </entry>
</rhythmdb>`
	path := filepath.Join(t.TempDir(), "legacy.xml")
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	if err := f.mgr.Load(context.Background(), path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	e, ok := f.store.LookupByLocation("episode-42.mp3")
	if !ok {
		t.Fatalf("migrated entry not found at split location")
	}
	if got := e.Get(rhythmdb.PropMountpoint).Str.String(); got != "http://cdn.example.com/feed" {
		t.Fatalf("mountpoint = %q, want %q", got, "http://cdn.example.com/feed")
	}
	if _, ok := f.store.LookupByLocation("http://cdn.example.com/feed::episode-42.mp3"); ok {
		t.Fatalf("entry still indexed under its pre-migration combined location")
	}
}

func TestSaveOmitsDefaultValuedProperties(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.store.New(f.song, "file:///bare.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if _, err := f.engine.Commit(ctx); err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	_ = e

	path := filepath.Join(t.TempDir(), "bare.xml")
	if err := f.mgr.Save(ctx, path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	for _, leaf := range []string{"<title>", "<artist>", "<rating>"} {
		if containsString(string(raw), leaf) {
			t.Fatalf("saved document contains default-valued leaf %q, want omitted", leaf)
		}
	}
}

func containsString(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

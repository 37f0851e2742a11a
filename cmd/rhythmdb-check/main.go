// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

// Command rhythmdb-check runs a fixed suite of self-contained checks against
// a fresh, in-memory instance of every component this module wires together
// — configuration, atom interning, the entry-type registry, the store and
// commit engine, the query language, and XML persistence — and reports a
// pass/fail line per check. It exits non-zero if any check fails, so it
// doubles as a smoke test for packaging and deployment pipelines that can't
// run `go test` directly against the installed binary.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/config"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/persistence"
	"github.com/tomtom215/rhythmdb/internal/query"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// check is one named, independent unit of the suite. Each check builds its
// own fixtures; none may depend on state left behind by another, so the
// suite's checks can run in any order and a failure in one never masks
// another.
type check struct {
	name string
	run  func(ctx context.Context) error
}

func main() {
	verbose := flag.Bool("v", false, "print a line for every check, not just failures")
	flag.Parse()

	checks := []check{
		{"config.Load and Validate", checkConfig},
		{"atom pool intern and case-fold", checkAtomPool},
		{"entrytype registry builtins", checkEntryTypeRegistry},
		{"store create, set, commit, delete", checkStoreLifecycle},
		{"query build, evaluate, xml round-trip", checkQuery},
		{"persistence save and load round-trip", checkPersistence},
		{"notify bus publish and subscribe", checkNotifyBus},
	}

	failures := 0
	ctx := context.Background()
	for _, c := range checks {
		start := time.Now()
		err := c.run(ctx)
		elapsed := time.Since(start)
		if err != nil {
			failures++
			fmt.Printf("FAIL  %-40s (%s): %v\n", c.name, elapsed.Round(time.Microsecond), err)
			continue
		}
		if *verbose {
			fmt.Printf("PASS  %-40s (%s)\n", c.name, elapsed.Round(time.Microsecond))
		}
	}

	if failures > 0 {
		fmt.Printf("%d of %d checks failed\n", failures, len(checks))
		os.Exit(1)
	}
	fmt.Printf("all %d checks passed\n", len(checks))
}

func checkConfig(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("Validate: %w", err)
	}
	return nil
}

func checkAtomPool(ctx context.Context) error {
	pool := atom.NewPool(64)
	a := pool.Intern("Beethoven")
	b := pool.Intern("beethoven")
	if a == b {
		return fmt.Errorf("Intern(%q) and Intern(%q) returned the same atom, want distinct raw-byte identities", "Beethoven", "beethoven")
	}
	if a.Folded() != b.Folded() {
		return fmt.Errorf("Folded() = %q and %q, want equal folded forms", a.Folded(), b.Folded())
	}
	if a.String() != "Beethoven" {
		return fmt.Errorf("first interned spelling = %q, want %q preserved as display form", a.String(), "Beethoven")
	}
	return nil
}

func checkEntryTypeRegistry(ctx context.Context) error {
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		return fmt.Errorf("RegisterBuiltins: %w", err)
	}
	for _, name := range []string{entrytype.Song, entrytype.IRadioStation, entrytype.PodcastPost, entrytype.PodcastFeed, entrytype.PodcastSearch, entrytype.Ignore} {
		if _, ok := types.Lookup(name); !ok {
			return fmt.Errorf("builtin type %q not registered", name)
		}
	}
	return nil
}

func checkStoreLifecycle(ctx context.Context) error {
	pool := atom.NewPool(64)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		return fmt.Errorf("RegisterBuiltins: %w", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	defer bus.Close()
	engine := commit.New(store, bus)

	e, err := store.New(song, "file:///check.mp3")
	if err != nil {
		return fmt.Errorf("New: %w", err)
	}
	store.Set(e, rhythmdb.PropTitle, rhythmdb.Value{Str: pool.Intern("Check Track")})
	if _, err := engine.Commit(ctx); err != nil {
		return fmt.Errorf("Commit (insert): %w", err)
	}

	found, ok := store.LookupByLocation("file:///check.mp3")
	if !ok || found != e {
		return fmt.Errorf("LookupByLocation did not return the committed entry")
	}
	if got := found.Get(rhythmdb.PropTitle).Str.String(); got != "Check Track" {
		return fmt.Errorf("title = %q, want %q", got, "Check Track")
	}

	store.Delete(e)
	if _, err := engine.Commit(ctx); err != nil {
		return fmt.Errorf("Commit (delete): %w", err)
	}
	if _, ok := store.LookupByLocation("file:///check.mp3"); ok {
		return fmt.Errorf("entry still indexed by location after delete commit")
	}
	return nil
}

func checkQuery(ctx context.Context) error {
	pool := atom.NewPool(64)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		return fmt.Errorf("RegisterBuiltins: %w", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	store := rhythmdb.NewStore(pool, types)

	e, err := store.New(song, "file:///match.mp3")
	if err != nil {
		return fmt.Errorf("New: %w", err)
	}
	store.Set(e, rhythmdb.PropArtist, rhythmdb.Value{Str: pool.Intern("Miles Davis")})
	bus := notify.NewBus()
	defer bus.Close()
	if _, err := commit.New(store, bus).Commit(ctx); err != nil {
		return fmt.Errorf("Commit: %w", err)
	}

	q := query.NewBuilder().Equals(rhythmdb.PropArtist, "Miles Davis").Build()
	if !query.Evaluate(q, e.Get) {
		return fmt.Errorf("Evaluate: expected entry to match artist=Miles Davis")
	}

	encoded, err := query.Marshal(q)
	if err != nil {
		return fmt.Errorf("Marshal: %w", err)
	}
	decoded, err := query.Unmarshal(encoded)
	if err != nil {
		return fmt.Errorf("Unmarshal: %w", err)
	}
	if !query.Evaluate(decoded, e.Get) {
		return fmt.Errorf("Evaluate(Unmarshal(Marshal(q))): expected entry to still match after round-trip")
	}
	return nil
}

func checkPersistence(ctx context.Context) error {
	pool := atom.NewPool(64)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		return fmt.Errorf("RegisterBuiltins: %w", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	defer bus.Close()
	engine := commit.New(store, bus)
	mgr := persistence.New(store, types, engine)

	e, err := store.New(song, "file:///persist.mp3")
	if err != nil {
		return fmt.Errorf("New: %w", err)
	}
	store.Set(e, rhythmdb.PropTitle, rhythmdb.Value{Str: pool.Intern("Persisted Track")})
	if _, err := engine.Commit(ctx); err != nil {
		return fmt.Errorf("Commit: %w", err)
	}

	dir, err := os.MkdirTemp("", "rhythmdb-check-*")
	if err != nil {
		return fmt.Errorf("MkdirTemp: %w", err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "library.xml")

	if err := mgr.Save(ctx, path); err != nil {
		return fmt.Errorf("Save: %w", err)
	}

	reloadTypes := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(reloadTypes); err != nil {
		return fmt.Errorf("RegisterBuiltins (reload): %w", err)
	}
	reloadStore := rhythmdb.NewStore(atom.NewPool(64), reloadTypes)
	reloadBus := notify.NewBus()
	defer reloadBus.Close()
	reloadMgr := persistence.New(reloadStore, reloadTypes, commit.New(reloadStore, reloadBus))

	if err := reloadMgr.Load(ctx, path); err != nil {
		return fmt.Errorf("Load: %w", err)
	}
	reloaded, ok := reloadStore.LookupByLocation("file:///persist.mp3")
	if !ok {
		return fmt.Errorf("reloaded store missing entry at %q", "file:///persist.mp3")
	}
	if got := reloaded.Get(rhythmdb.PropTitle).Str.String(); got != "Persisted Track" {
		return fmt.Errorf("reloaded title = %q, want %q", got, "Persisted Track")
	}
	return nil
}

func checkNotifyBus(ctx context.Context) error {
	bus := notify.NewBus()
	defer bus.Close()

	sub, err := bus.Subscribe(ctx, notify.EntryTopic)
	if err != nil {
		return fmt.Errorf("Subscribe: %w", err)
	}

	if err := bus.PublishTick(ctx, notify.EntryTopic, notify.Tick{CommitID: uuid.New()}); err != nil {
		return fmt.Errorf("PublishTick: %w", err)
	}

	select {
	case msg := <-sub:
		msg.Ack()
	case <-time.After(2 * time.Second):
		return fmt.Errorf("did not observe a notification within 2s of PublishTick")
	}
	return nil
}

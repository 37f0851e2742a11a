// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package commit

import (
	"context"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

func newTestFixture(t *testing.T) (*rhythmdb.Store, *entrytype.Type, *notify.Bus, *Engine) {
	t.Helper()
	pool := atom.NewPool(32)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	engine := New(store, bus)
	return store, song, bus, engine
}

func TestCommitEmitsEntryAdded(t *testing.T) {
	store, song, bus, engine := newTestFixture(t)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	msgs, err := bus.Subscribe(ctx, notify.EntryTopic)
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	e, err := store.New(song, "file:///a.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	res, err := engine.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if res.Added != 1 {
		t.Fatalf("expected 1 added entry, got %d", res.Added)
	}
	if !e.Committed() {
		t.Fatal("expected entry to be marked committed")
	}

	var sawAdded, sawTick bool
	for i := 0; i < 2; i++ {
		select {
		case msg := <-msgs:
			if msg.Metadata.Get("kind") == "tick" {
				sawTick = true
				var tick notify.Tick
				if err := json.Unmarshal(msg.Payload, &tick); err != nil {
					t.Fatalf("unmarshal tick: %v", err)
				}
				if tick.CommitID != res.CommitID {
					t.Fatalf("tick commit ID mismatch")
				}
			} else {
				var rec notify.ChangeRecord
				if err := json.Unmarshal(msg.Payload, &rec); err != nil {
					t.Fatalf("unmarshal change: %v", err)
				}
				if rec.Kind != notify.ChangeAdded || rec.EntryID != e.ID() {
					t.Fatalf("unexpected change record: %+v", rec)
				}
				sawAdded = true
			}
			msg.Ack()
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for notifications")
		}
	}
	if !sawAdded || !sawTick {
		t.Fatalf("expected both an entry-added and a tick, got added=%v tick=%v", sawAdded, sawTick)
	}
}

func TestCommitWithNoDirtyEntriesIsNoOp(t *testing.T) {
	_, _, bus, engine := newTestFixture(t)
	defer bus.Close()

	ctx := context.Background()
	res, err := engine.Commit(ctx)
	if err != nil {
		t.Fatalf("Commit() error = %v", err)
	}
	if res.Added != 0 || res.Changed != 0 || res.Deleted != 0 {
		t.Fatalf("expected a no-op result, got %+v", res)
	}
}

func TestCommitChangedAfterInitialCommit(t *testing.T) {
	store, song, bus, engine := newTestFixture(t)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e, _ := store.New(song, "file:///a.mp3")
	if _, err := engine.Commit(ctx); err != nil {
		t.Fatalf("first Commit() error = %v", err)
	}

	pool := atom.NewPool(4)
	title := pool.Intern("New Title")
	store.Set(e, rhythmdb.PropTitle, rhythmdb.Value{Str: title})

	res, err := engine.Commit(ctx)
	if err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	if res.Changed != 1 || res.Added != 0 {
		t.Fatalf("expected 1 changed entry and 0 added, got %+v", res)
	}
	if got := e.Get(rhythmdb.PropTitle); got.Str != title {
		t.Fatal("expected title to be committed")
	}
}

func TestCommitDeletionRemovesFromLocationIndex(t *testing.T) {
	store, song, bus, engine := newTestFixture(t)
	defer bus.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	e, _ := store.New(song, "file:///a.mp3")
	if _, err := engine.Commit(ctx); err != nil {
		t.Fatalf("first Commit() error = %v", err)
	}

	store.Delete(e)
	res, err := engine.Commit(ctx)
	if err != nil {
		t.Fatalf("second Commit() error = %v", err)
	}
	if res.Deleted != 1 {
		t.Fatalf("expected 1 deleted entry, got %d", res.Deleted)
	}
	if _, ok := store.LookupByLocation("file:///a.mp3"); ok {
		t.Fatal("expected location index to no longer resolve the deleted entry")
	}
}

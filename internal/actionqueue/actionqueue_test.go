// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package actionqueue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/tomtom215/rhythmdb/internal/atom"
	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/notify"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

func TestQueueSendAndReceive(t *testing.T) {
	q := New(2)
	if err := q.Send(context.Background(), Action{Kind: KindCommit}); err != nil {
		t.Fatalf("Send() error = %v", err)
	}
	if got := q.Depth(); got != 1 {
		t.Fatalf("Depth() = %d, want 1", got)
	}

	select {
	case a := <-q.Receive():
		if a.Kind != KindCommit {
			t.Fatalf("received action kind = %v, want KindCommit", a.Kind)
		}
	default:
		t.Fatal("expected a queued action")
	}
}

func TestQueueSendBlocksUntilContextCancelled(t *testing.T) {
	q := New(1)
	if err := q.Send(context.Background(), Action{Kind: KindCommit}); err != nil {
		t.Fatalf("first Send() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := q.Send(ctx, Action{Kind: KindCommit}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Send() on a full queue error = %v, want DeadlineExceeded", err)
	}
}

func TestQueueDefaultsDepth(t *testing.T) {
	q := New(0)
	if cap(q.ch) != 1024 {
		t.Fatalf("default queue capacity = %d, want 1024", cap(q.ch))
	}
}

type stubPersister struct {
	mu          sync.Mutex
	loadedPaths []string
	savedPaths  []string
	loadErr     error
	saveErr     error
}

func (p *stubPersister) Load(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.loadedPaths = append(p.loadedPaths, path)
	return p.loadErr
}

func (p *stubPersister) Save(_ context.Context, path string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.savedPaths = append(p.savedPaths, path)
	return p.saveErr
}

type collectingSink struct {
	mu  sync.Mutex
	ids []uint32
}

func (s *collectingSink) Accept(e *rhythmdb.Entry) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, e.ID())
	return true
}

func newWriterFixture(t *testing.T) (*Writer, *rhythmdb.Store, *entrytype.Type, *stubPersister) {
	t.Helper()
	pool := atom.NewPool(16)
	types := entrytype.NewRegistry()
	if err := entrytype.RegisterBuiltins(types); err != nil {
		t.Fatalf("RegisterBuiltins() error = %v", err)
	}
	song, _ := types.Lookup(entrytype.Song)
	store := rhythmdb.NewStore(pool, types)
	bus := notify.NewBus()
	t.Cleanup(func() { bus.Close() })
	engine := commit.New(store, bus)
	persist := &stubPersister{}
	queue := New(8)
	w := NewWriter(queue, store, types, engine, persist)
	return w, store, song, persist
}

func TestWriterHandleCommit(t *testing.T) {
	w, store, song, _ := newWriterFixture(t)
	e, err := store.New(song, "file:///handle-commit.mp3")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	errCh := make(chan error, 1)
	done := make(chan struct{})
	w.handle(context.Background(), Action{Kind: KindCommit, Err: errCh, Done: done})

	select {
	case <-done:
	default:
		t.Fatal("expected Done to be closed")
	}
	if err := <-errCh; err != nil {
		t.Fatalf("commit action error = %v", err)
	}
	if !e.Committed() {
		t.Fatal("expected entry to be committed after KindCommit action")
	}
}

func TestWriterHandleEnumEntriesFull(t *testing.T) {
	w, store, song, _ := newWriterFixture(t)
	e1, _ := store.New(song, "file:///a.mp3")
	e2, _ := store.New(song, "file:///b.mp3")

	sink := &collectingSink{}
	w.handle(context.Background(), Action{Kind: KindEnumEntriesFull, Sink: sink})

	if len(sink.ids) != 2 {
		t.Fatalf("sink collected %d entries, want 2", len(sink.ids))
	}
	seen := map[uint32]bool{sink.ids[0]: true, sink.ids[1]: true}
	if !seen[e1.ID()] || !seen[e2.ID()] {
		t.Fatalf("sink did not observe both entries: %v", sink.ids)
	}
}

func TestWriterHandleLoadAndSaveFile(t *testing.T) {
	w, _, _, persist := newWriterFixture(t)

	errCh := make(chan error, 1)
	w.handle(context.Background(), Action{Kind: KindLoadFile, Path: "/tmp/db.xml", Err: errCh})
	if err := <-errCh; err != nil {
		t.Fatalf("load action error = %v", err)
	}

	errCh = make(chan error, 1)
	w.handle(context.Background(), Action{Kind: KindSaveFile, Path: "/tmp/db.xml", Err: errCh})
	if err := <-errCh; err != nil {
		t.Fatalf("save action error = %v", err)
	}

	if len(persist.loadedPaths) != 1 || persist.loadedPaths[0] != "/tmp/db.xml" {
		t.Fatalf("loadedPaths = %v", persist.loadedPaths)
	}
	if len(persist.savedPaths) != 1 || persist.savedPaths[0] != "/tmp/db.xml" {
		t.Fatalf("savedPaths = %v", persist.savedPaths)
	}
}

func TestWriterHandlePropagatesPersisterError(t *testing.T) {
	w, _, _, persist := newWriterFixture(t)
	persist.loadErr = errors.New("boom")

	errCh := make(chan error, 1)
	w.handle(context.Background(), Action{Kind: KindLoadFile, Path: "/tmp/bad.xml", Err: errCh})
	if err := <-errCh; err == nil || err.Error() != "boom" {
		t.Fatalf("expected propagated error, got %v", err)
	}
}

func TestWriterServeStopsOnShutdownAction(t *testing.T) {
	w, _, _, _ := newWriterFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	serveErr := make(chan error, 1)
	go func() { serveErr <- w.Serve(ctx) }()

	if err := w.queue.Send(ctx, Action{Kind: KindShutdown}); err != nil {
		t.Fatalf("Send(shutdown) error = %v", err)
	}

	select {
	case err := <-serveErr:
		if err != nil {
			t.Fatalf("Serve() error = %v, want nil after a clean shutdown action", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Serve to return after a shutdown action")
	}
}

func TestWriterServeStopsOnContextCancel(t *testing.T) {
	w, _, _, _ := newWriterFixture(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	serveErr := make(chan error, 1)
	go func() { serveErr <- w.Serve(ctx) }()

	cancel()

	select {
	case err := <-serveErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("Serve() error = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for Serve to return after context cancel")
	}
}

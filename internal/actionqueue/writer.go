// Cartographus - Media Server Analytics and Geographic Visualization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/rhythmdb

package actionqueue

import (
	"context"

	"github.com/tomtom215/rhythmdb/internal/commit"
	"github.com/tomtom215/rhythmdb/internal/entrytype"
	"github.com/tomtom215/rhythmdb/internal/logging"
	"github.com/tomtom215/rhythmdb/internal/metrics"
	"github.com/tomtom215/rhythmdb/internal/rhythmdb"
)

// Persister is the subset of internal/persistence's Manager the writer
// needs, kept as an interface so actionqueue does not import persistence
// directly (persistence already depends on rhythmdb and commit; routing the
// dependency through an interface here avoids a needless import cycle risk
// as both packages grow).
type Persister interface {
	Load(ctx context.Context, path string) error
	Save(ctx context.Context, path string) error
}

// Writer is the single dedicated writer thread, registered as a
// suture.Service so it gets automatic restart-with-backoff the same way the
// teacher's WAL retry loop does, rather than a bespoke goroutine-supervision
// mechanism. Serve drains the queue until ctx is cancelled or a Shutdown
// action is processed.
type Writer struct {
	queue   *Queue
	store   *rhythmdb.Store
	types   *entrytype.Registry
	engine  *commit.Engine
	persist Persister
}

// NewWriter constructs a Writer bound to the given queue, store, type
// registry, commit engine, and persistence manager.
func NewWriter(queue *Queue, store *rhythmdb.Store, types *entrytype.Registry, engine *commit.Engine, persist Persister) *Writer {
	return &Writer{queue: queue, store: store, types: types, engine: engine, persist: persist}
}

// Serve implements suture.Service.
func (w *Writer) Serve(ctx context.Context) error {
	log := logging.WithComponent("actionqueue")
	log.Info().Msg("writer started")

	for {
		metrics.ActionQueueDepth.Set(float64(w.queue.Depth()))

		select {
		case <-ctx.Done():
			w.drainOnShutdown(context.Background())
			return ctx.Err()

		case action := <-w.queue.Receive():
			w.handle(ctx, action)
			if action.Kind == KindShutdown {
				return nil
			}
		}
	}
}

// drainOnShutdown applies every already-enqueued action before the writer
// stops, honouring "the writer must drain enqueued mutations before
// accepting a shutdown action".
func (w *Writer) drainOnShutdown(ctx context.Context) {
	for {
		select {
		case action := <-w.queue.Receive():
			w.handle(ctx, action)
		default:
			return
		}
	}
}

func (w *Writer) handle(ctx context.Context, action Action) {
	defer func() {
		if action.Done != nil {
			close(action.Done)
		}
	}()

	var err error
	switch action.Kind {
	case KindCommit:
		_, err = w.engine.Commit(ctx)

	case KindEnumEntriesFull:
		alive := true
		w.store.ForEach(func(e *rhythmdb.Entry) {
			if alive && action.Sink != nil {
				alive = action.Sink.Accept(e)
			}
		})

	case KindQuery:
		// Query-model initial drains are handled by internal/querymodel
		// itself via the store's read accessors; the writer's role here is
		// only to serialize the drain with respect to concurrent mutations,
		// which the action-queue ordering already guarantees.
		alive := true
		w.store.ForEach(func(e *rhythmdb.Entry) {
			if alive && action.Sink != nil {
				alive = action.Sink.Accept(e)
			}
		})

	case KindLoadFile:
		if w.persist != nil {
			err = w.persist.Load(ctx, action.Path)
		}

	case KindSaveFile:
		if w.persist != nil {
			err = w.persist.Save(ctx, action.Path)
		}

	case KindShutdown:
		// No-op: Serve's caller observes completion via Done/ctx return.
	}

	if action.Err != nil {
		action.Err <- err
	}
}
